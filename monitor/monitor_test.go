package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestActivities(t *testing.T) {
	clk := &stepClock{step: time.Millisecond}
	a := NewActivities()
	a.now = clk.now

	a.StartActivity("frame")
	a.StartActivity("downsample")
	assert.Equal(t, 2, a.Depth())
	a.EndActivity()
	a.StartActivity("downsample")
	a.EndActivity()
	a.EndActivity()
	assert.Equal(t, 0, a.Depth())

	ds := a.Stat("downsample")
	assert.Equal(t, 2, ds.Count)
	assert.Equal(t, 2*time.Millisecond, ds.Total)
	assert.Equal(t, time.Millisecond, ds.Mean())

	frame := a.Stat("frame")
	assert.Equal(t, 1, frame.Count)
	assert.Equal(t, 5*time.Millisecond, frame.Total)
	assert.Equal(t, 5*time.Millisecond, frame.Max)

	assert.Equal(t, []string{"downsample", "frame"}, a.Labels())

	a.Report()
	a.Reset()
	assert.Empty(t, a.Labels())
}

func TestUnmatchedEnd(t *testing.T) {
	a := NewActivities()
	a.EndActivity()
	assert.Equal(t, 0, a.Depth())
	assert.Empty(t, a.Labels())
	assert.Equal(t, time.Duration(0), a.Stat("none").Mean())
}

func TestNop(t *testing.T) {
	var m Monitor = Nop{}
	m.StartActivity("x")
	m.EndActivity()
}
