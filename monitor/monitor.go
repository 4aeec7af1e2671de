// Package monitor instruments render nodes. Nodes bracket their GPU work with
// StartActivity() and EndActivity(); activities may nest.
package monitor

import (
	"slices"
	"time"

	"github.com/richinsley/rendergraph/logger"
)

// Monitor receives the activity brackets of render nodes.
type Monitor interface {
	StartActivity(label string)
	EndActivity()
}

// Nop is a Monitor that does nothing.
type Nop struct{}

// StartActivity implements the Monitor interface.
func (Nop) StartActivity(string) {}

// EndActivity implements the Monitor interface.
func (Nop) EndActivity() {}

// Stat is the accumulated timing of one activity label.
type Stat struct {
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average duration of the activity.
func (s Stat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

type open struct {
	label string
	start time.Time
}

// Activities is a Monitor that times activities by label. It is only used
// from the render thread and is not safe for concurrent use.
type Activities struct {
	now   func() time.Time
	stack []open
	stats map[string]Stat
}

// NewActivities is the preferred method of initialisation of the Activities
// type.
func NewActivities() *Activities {
	return &Activities{
		now:   time.Now,
		stats: make(map[string]Stat),
	}
}

// StartActivity implements the Monitor interface.
func (a *Activities) StartActivity(label string) {
	a.stack = append(a.stack, open{label: label, start: a.now()})
}

// EndActivity implements the Monitor interface. An EndActivity() with no
// matching StartActivity() is logged and otherwise ignored.
func (a *Activities) EndActivity() {
	if len(a.stack) == 0 {
		logger.Logger().Warn("monitor: end of activity without start")
		return
	}

	top := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]

	d := a.now().Sub(top.start)
	s := a.stats[top.label]
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
	a.stats[top.label] = s
}

// Depth returns the number of activities started but not yet ended.
func (a *Activities) Depth() int {
	return len(a.stack)
}

// Stat returns the accumulated timing for the label.
func (a *Activities) Stat(label string) Stat {
	return a.stats[label]
}

// Labels returns every label seen, sorted.
func (a *Activities) Labels() []string {
	labels := make([]string, 0, len(a.stats))
	for l := range a.stats {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Reset discards accumulated timings. Open activities are kept.
func (a *Activities) Reset() {
	a.stats = make(map[string]Stat)
}

// Report logs the accumulated timings at info level.
func (a *Activities) Report() {
	for _, l := range a.Labels() {
		s := a.stats[l]
		logger.Logger().Info("activity", "label", l, "count", s.Count,
			"mean", s.Mean().String(), "max", s.Max.String())
	}
	if len(a.stack) > 0 {
		logger.Logger().Warn("monitor: activities still open", "depth", len(a.stack), "innermost", a.stack[len(a.stack)-1].label)
	}
}
