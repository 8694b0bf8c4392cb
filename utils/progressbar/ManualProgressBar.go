// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	out             io.Writer
	width           int
	maxProgress     int
	currentProgress int
	bar             strings.Builder
	startTime       time.Time
}

// NewManualProgressBar returns a new ManualProgressBar of width
// characters which is full after max increments and prints to out
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	if width <= 0 || max <= 0 {
		panic(fmt.Sprintf("newManualProgressBar: width and max must be "+
			"positive \n\thave(%v, %v)", width, max))
	}

	return &ManualProgressBar{
		out:         out,
		width:       width,
		maxProgress: max,
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter by n, saturating
// at the maximum progress
func (p *ManualProgressBar) Increment(n int) {
	p.currentProgress += n
	if p.currentProgress > p.maxProgress {
		p.currentProgress = p.maxProgress
	}
}

// Done returns whether the progress bar is full
func (p *ManualProgressBar) Done() bool {
	return p.currentProgress >= p.maxProgress
}

// String returns the current progress bar
func (p *ManualProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := p.currentProgress * p.width / p.maxProgress
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", p.width-filled))

	percent := float64(p.currentProgress) / float64(p.maxProgress) * 100
	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]", percent,
		time.Since(p.startTime).Truncate(time.Second))
	return p.bar.String()
}

// Display redraws the progress bar on the current line of the output
func (p *ManualProgressBar) Display() {
	fmt.Fprintf(p.out, "\r\033[K%v", p.String())
}
