package stack

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
)

// Render dimensions
const (
	ViewportW float64 = 480
	ViewportH float64 = 480
)

var (
	tableShade   = color.RGBA{R: 222, G: 214, B: 196, A: 255}
	cube1Colour  = color.RGBA{R: 200, G: 60, B: 50, A: 255}
	cube2Colour  = color.RGBA{R: 50, G: 90, B: 200, A: 255}
	eeOpenColour = color.RGBA{R: 40, G: 160, B: 70, A: 255}
	eeShutColour = color.RGBA{R: 30, G: 30, B: 30, A: 255}
)

// WorldToPixelCoord converts world (x, y) coordinates of the workspace
// to pixel coordinates of a top-down view. The robot base is at the
// bottom of the image and x points up.
func WorldToPixelCoord(x, y float64) (float64, float64) {
	u := (WorkspaceY.Max - y) / (WorkspaceY.Max - WorkspaceY.Min) * ViewportW
	v := (WorkspaceX.Max - x) / (WorkspaceX.Max - WorkspaceX.Min) * ViewportH
	return u, v
}

// Render draws a top-down view of environment i to a PNG file at path.
// Cubes are labelled with their height and the end-effector is drawn
// as a ring whose colour shows whether the gripper is open.
func (k *Kinematic) Render(i int, path string) error {
	if i < 0 || i >= k.NumEnvs() {
		return fmt.Errorf("render: no environment %v, have %v environments",
			i, k.NumEnvs())
	}

	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetColor(tableShade)
	dc.Clear()

	scale := ViewportW / (WorkspaceY.Max - WorkspaceY.Min)
	side := CubeSize * scale
	for c, colour := range []color.Color{cube1Colour, cube2Colour} {
		pos := k.cubes[c].RawRowView(i)
		u, v := WorldToPixelCoord(pos[0], pos[1])

		dc.SetColor(colour)
		dc.DrawRectangle(u-side/2, v-side/2, side, side)
		dc.Fill()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(fmt.Sprintf("%.3f", pos[2]), u, v+side, 0.5,
			0.5)
	}

	ee := k.ee.RawRowView(i)
	u, v := WorldToPixelCoord(ee[0], ee[1])
	if FrankaGripperOpenVal-k.joints.At(i, finger1Col) >
		FrankaGripperThreshold {
		dc.SetColor(eeShutColour)
	} else {
		dc.SetColor(eeOpenColour)
	}
	dc.SetLineWidth(3.0)
	dc.DrawCircle(u, v, GraspDistance*scale)
	dc.Stroke()

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(fmt.Sprintf("env %v  step %v  ee z %.3f", i,
		k.currentTimeStep.Number[i], ee[2]), ViewportW/2, 16, 0.5, 0.5)

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
