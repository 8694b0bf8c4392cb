package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)
	assert.False(t, p.Done())

	p.Increment(1)
	assert.Contains(t, p.String(), "|██        | [25.00%")

	p.Increment(10)
	assert.True(t, p.Done())
	assert.Contains(t, p.String(), "|██████████| [100.00%")

	p.Display()
	assert.True(t, strings.HasPrefix(out.String(), "\r\033[K|"))
}

func TestManualProgressBarPanics(t *testing.T) {
	assert.Panics(t, func() { NewManualProgressBar(&bytes.Buffer{}, 0, 1) })
	assert.Panics(t, func() { NewManualProgressBar(&bytes.Buffer{}, 1, 0) })
}
