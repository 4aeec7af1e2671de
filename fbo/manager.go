package fbo

import (
	"fmt"
	"slices"
	"sync"

	"github.com/richinsley/rendergraph/logger"
)

// State of a name in a manager's registry.
type State int

// List of valid State values.
const (
	Unallocated State = iota
	Allocated

	// the FBO has a new instance and subscribers are being notified. the
	// state returns to Allocated before Resize() returns
	Reallocated

	// the manager has been torn down
	ReleasedState
)

func (s State) String() string {
	switch s {
	case Unallocated:
		return "unallocated"
	case Allocated:
		return "allocated"
	case Reallocated:
		return "reallocated"
	case ReleasedState:
		return "released"
	}
	return "unknown"
}

// Subscriber is notified after FBOs of a manager have been reallocated.
// Update() should refresh any FBO instances the subscriber has cached.
//
// Subscribers are compared by identity so implementations should be pointer
// types.
type Subscriber interface {
	Update()
}

// Subscription is the handle returned by Manager.Subscribe(). It is used to
// unsubscribe.
type Subscription struct {
	manager *Manager
	id      uint64
}

// Valid returns false for the zero Subscription.
func (s Subscription) Valid() bool {
	return s.manager != nil
}

// Manager returns the manager the subscription was made with.
func (s Subscription) Manager() *Manager {
	return s.manager
}

type subscription struct {
	id         uint64
	subscriber Subscriber
}

// Manager is the registry of named FBOs. It allocates FBOs on request,
// reallocates them on resize and notifies subscribers of every reallocation
// before returning control to the caller.
//
// The registry is only expected to be used from the render thread. A single
// mutex nevertheless guards Request(), Resize(), Subscribe() and Unsubscribe().
// Subscribers are called without the mutex held so they may call back into the
// manager.
type Manager struct {
	label string
	alloc Allocator

	crit       sync.Mutex
	base       Dimensions
	fbos       map[string]*FBO
	states     map[string]State
	subs       []subscription
	nextSub    uint64
	generation uint64
	released   bool
}

// NewManager is the preferred method of initialisation of the Manager type.
// The label identifies the manager in log output. The base dimensions are
// used to resolve scaled configs.
func NewManager(label string, alloc Allocator, base Dimensions) *Manager {
	return &Manager{
		label:  label,
		alloc:  alloc,
		base:   base,
		fbos:   make(map[string]*FBO),
		states: make(map[string]State),
	}
}

func (m *Manager) String() string {
	return m.label
}

// Label returns the label of the manager.
func (m *Manager) Label() string {
	return m.label
}

// BaseDimensions returns the dimensions scaled configs are resolved against.
func (m *Manager) BaseDimensions() Dimensions {
	m.crit.Lock()
	defer m.crit.Unlock()
	return m.base
}

// Request returns the current FBO for the config's name, allocating it if it
// does not exist. Requesting a name that exists with a different shape is a
// configuration error and leaves the registry untouched.
func (m *Manager) Request(cfg Config) (*FBO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.crit.Lock()
	defer m.crit.Unlock()

	if m.released {
		return nil, fmt.Errorf("%w: %s: request %s", ErrReleased, m.label, cfg.Name)
	}

	if f, ok := m.fbos[cfg.Name]; ok {
		if f.config != cfg {
			return nil, fmt.Errorf("%w: %s: requested %s but registered as %s", ErrShapeMismatch, m.label, cfg, f.config)
		}
		return f, nil
	}

	f, err := m.allocate(cfg, cfg.Dimensions(m.base))
	if err != nil {
		return nil, err
	}
	m.fbos[cfg.Name] = f
	m.states[cfg.Name] = Allocated

	logger.Logger().Info("fbo allocated", "manager", m.label, "name", cfg.Name, "size", f.dims.String(), "format", cfg.Format.String())

	return f, nil
}

// allocate a new instance. must be called with the critical section locked.
func (m *Manager) allocate(cfg Config, dims Dimensions) (*FBO, error) {
	h, err := m.alloc.Allocate(cfg, dims)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %w", ErrAllocation, m.label, cfg.Name, err)
	}
	m.generation++
	f := &FBO{
		config:     cfg,
		dims:       dims,
		handles:    h,
		generation: m.generation,
		status:     Current,
	}
	logger.Logger().Debug("fbo handles", "manager", m.label, "name", cfg.Name,
		"framebuffer", h.Framebuffer, "color", h.Color, "depth", h.Depth, "generation", f.generation)
	return f, nil
}

// Get returns the current instance of the named FBO.
func (m *Manager) Get(name string) (*FBO, error) {
	m.crit.Lock()
	defer m.crit.Unlock()

	if m.released {
		return nil, fmt.Errorf("%w: %s: get %s", ErrReleased, m.label, name)
	}
	f, ok := m.fbos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrUnknownFBO, m.label, name)
	}
	return f, nil
}

// Config returns the registered config for the name.
func (m *Manager) Config(name string) (Config, bool) {
	m.crit.Lock()
	defer m.crit.Unlock()

	f, ok := m.fbos[name]
	if !ok {
		return Config{}, false
	}
	return f.config, true
}

// Has returns true if the name is registered with the manager.
func (m *Manager) Has(name string) bool {
	_, ok := m.Config(name)
	return ok
}

// IsCurrent returns true if f is the instance the manager currently returns
// for f's name.
func (m *Manager) IsCurrent(f *FBO) bool {
	if f == nil {
		return false
	}
	m.crit.Lock()
	defer m.crit.Unlock()
	return !m.released && m.fbos[f.Name()] == f
}

// State returns the registry state of the name.
func (m *Manager) State(name string) State {
	m.crit.Lock()
	defer m.crit.Unlock()
	return m.states[name]
}

// Names returns the registered names in sorted order.
func (m *Manager) Names() []string {
	m.crit.Lock()
	defer m.crit.Unlock()
	return m.sortedNames()
}

// Subscribe registers s for notification of reallocations. Subscribing the
// same subscriber again returns the existing subscription.
func (m *Manager) Subscribe(s Subscriber) Subscription {
	m.crit.Lock()
	defer m.crit.Unlock()

	for _, sub := range m.subs {
		if sub.subscriber == s {
			return Subscription{manager: m, id: sub.id}
		}
	}

	m.nextSub++
	m.subs = append(m.subs, subscription{id: m.nextSub, subscriber: s})
	return Subscription{manager: m, id: m.nextSub}
}

// Unsubscribe removes the subscription. Unsubscribing twice, or with a
// subscription made with another manager, has no effect.
func (m *Manager) Unsubscribe(sub Subscription) {
	if sub.manager != m {
		return
	}

	m.crit.Lock()
	defer m.crit.Unlock()

	m.subs = slices.DeleteFunc(m.subs, func(s subscription) bool {
		return s.id == sub.id
	})
}

// Subscribers returns the number of current subscriptions.
func (m *Manager) Subscribers() int {
	m.crit.Lock()
	defer m.crit.Unlock()
	return len(m.subs)
}

// Resize reallocates the named FBO with new dimensions. Every subscriber has
// been notified by the time Resize returns.
//
// The registered config is unchanged so later requests with the original
// config return the resized instance. Resizing to the current dimensions does
// nothing. Scaled FBOs follow the base dimensions and cannot be resized
// individually; use SetBaseDimensions().
func (m *Manager) Resize(name string, dims Dimensions) error {
	if !dims.Valid() {
		return fmt.Errorf("%w: %s: resize %s to %s", ErrInvalidConfig, m.label, name, dims)
	}

	m.crit.Lock()

	if m.released {
		m.crit.Unlock()
		return fmt.Errorf("%w: %s: resize %s", ErrReleased, m.label, name)
	}

	old, ok := m.fbos[name]
	if !ok {
		m.crit.Unlock()
		return fmt.Errorf("%w: %s: %s", ErrUnknownFBO, m.label, name)
	}
	if old.config.Scale != Fixed {
		m.crit.Unlock()
		return fmt.Errorf("%w: %s: %s is scaled %s", ErrInvalidConfig, m.label, name, old.config.Scale)
	}
	if old.dims == dims {
		m.crit.Unlock()
		return nil
	}

	// the registered config stays as requested, only the instance changes size
	f, err := m.allocate(old.config, dims)
	if err != nil {
		m.crit.Unlock()
		return err
	}
	m.replace(old, f)
	m.states[name] = Reallocated
	subs := m.snapshotSubscribers()

	m.crit.Unlock()

	logger.Logger().Info("fbo reallocated", "manager", m.label, "name", name, "from", old.dims.String(), "to", dims.String())
	m.notify(subs)
	m.settle(name)

	return nil
}

// SetBaseDimensions changes the dimensions scaled configs are resolved
// against. Every scaled FBO whose dimensions change is reallocated and
// subscribers are notified once, after all reallocations, before the function
// returns. If any allocation fails the registry is left unchanged.
func (m *Manager) SetBaseDimensions(base Dimensions) error {
	if !base.Valid() {
		return fmt.Errorf("%w: %s: base dimensions %s", ErrInvalidConfig, m.label, base)
	}

	m.crit.Lock()

	if m.released {
		m.crit.Unlock()
		return fmt.Errorf("%w: %s: set base dimensions", ErrReleased, m.label)
	}

	if m.base == base {
		m.crit.Unlock()
		return nil
	}

	type pending struct {
		old  *FBO
		next *FBO
	}
	var changes []pending

	for _, name := range m.sortedNames() {
		old := m.fbos[name]
		if old.config.Scale == Fixed {
			continue
		}
		dims := old.config.Dimensions(base)
		if dims == old.dims {
			continue
		}
		f, err := m.allocate(old.config, dims)
		if err != nil {
			for _, p := range changes {
				m.alloc.Release(p.next.handles)
			}
			m.crit.Unlock()
			return err
		}
		changes = append(changes, pending{old: old, next: f})
	}

	m.base = base
	for _, p := range changes {
		m.replace(p.old, p.next)
		m.states[p.next.Name()] = Reallocated
	}
	subs := m.snapshotSubscribers()

	m.crit.Unlock()

	logger.Logger().Info("fbo base dimensions changed", "manager", m.label, "base", base.String(), "reallocated", len(changes))
	if len(changes) == 0 {
		return nil
	}

	m.notify(subs)
	for _, p := range changes {
		m.settle(p.next.Name())
	}

	return nil
}

// replace old with f in the registry and release old's handles. must be
// called with the critical section locked.
func (m *Manager) replace(old *FBO, f *FBO) {
	m.alloc.Release(old.handles)
	old.status = Replaced
	m.fbos[f.Name()] = f
}

// must be called with the critical section locked.
func (m *Manager) snapshotSubscribers() []Subscriber {
	subs := make([]Subscriber, len(m.subs))
	for i, s := range m.subs {
		subs[i] = s.subscriber
	}
	return subs
}

// notify every subscriber. must be called without the critical section
// locked.
func (m *Manager) notify(subs []Subscriber) {
	for _, s := range subs {
		s.Update()
	}
}

// settle moves a reallocated name back to the allocated state.
func (m *Manager) settle(name string) {
	m.crit.Lock()
	defer m.crit.Unlock()
	if m.states[name] == Reallocated {
		m.states[name] = Allocated
	}
}

// must be called with the critical section locked.
func (m *Manager) sortedNames() []string {
	names := make([]string, 0, len(m.fbos))
	for n := range m.fbos {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Release tears the manager down. Every FBO is released and every
// subscription is dropped. Any further use of the manager returns
// ErrReleased. Calling Release more than once has no effect.
func (m *Manager) Release() {
	m.crit.Lock()
	defer m.crit.Unlock()

	if m.released {
		return
	}
	m.released = true

	for _, name := range m.sortedNames() {
		f := m.fbos[name]
		m.alloc.Release(f.handles)
		f.status = Released
		m.states[name] = ReleasedState
	}
	m.subs = nil

	logger.Logger().Info("fbo manager released", "manager", m.label, "fbos", len(m.fbos))
}
