package options

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/logger"
)

// ErrUnknownSetting is returned for a condition naming a setting that was
// never declared.
var ErrUnknownSetting = errors.New("unknown setting")

// Settings are the named boolean flags that node conditions are built from.
type Settings struct {
	crit  sync.Mutex
	flags map[string]bool
}

// NewSettings returns settings initialised from the [settings] table.
func NewSettings(flags map[string]bool) *Settings {
	s := &Settings{flags: make(map[string]bool, len(flags))}
	maps.Copy(s.flags, flags)
	return s
}

// Names returns the setting names in sorted order.
func (s *Settings) Names() []string {
	s.crit.Lock()
	defer s.crit.Unlock()
	return slices.Sorted(maps.Keys(s.flags))
}

func (s *Settings) Get(name string) bool {
	s.crit.Lock()
	defer s.crit.Unlock()
	return s.flags[name]
}

func (s *Settings) Set(name string, v bool) {
	s.crit.Lock()
	defer s.crit.Unlock()
	s.flags[name] = v
}

// Toggle inverts a setting and returns the new value.
func (s *Settings) Toggle(name string) bool {
	s.crit.Lock()
	defer s.crit.Unlock()
	s.flags[name] = !s.flags[name]
	logger.Logger().Info("settings: toggled", "setting", name, "value", s.flags[name])
	return s.flags[name]
}

// Apply replaces the values of the named settings and returns the names of
// those that changed. Settings missing from flags keep their value.
func (s *Settings) Apply(flags map[string]bool) []string {
	s.crit.Lock()
	defer s.crit.Unlock()

	var changed []string
	for name, v := range flags {
		if old, ok := s.flags[name]; ok && old == v {
			continue
		}
		s.flags[name] = v
		changed = append(changed, name)
	}
	slices.Sort(changed)

	if len(changed) > 0 {
		logger.Logger().Info("settings: applied", "changed", strings.Join(changed, ","))
	}
	return changed
}

// Condition returns a node condition reading the named setting. A leading
// "!" negates the setting.
func (s *Settings) Condition(expr string) (dag.Condition, error) {
	name, negate := strings.CutPrefix(expr, "!")

	s.crit.Lock()
	_, ok := s.flags[name]
	s.crit.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}

	if negate {
		return func() bool { return !s.Get(name) }, nil
	}
	return func() bool { return s.Get(name) }, nil
}
