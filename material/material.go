// Package material resolves material identifiers to shader programs.
//
// Identifiers take the form "namespace:prog.name", eg.
// "engine:prog.downSampler". Sources are registered up front and compiled on
// first use by a backend Compiler.
package material

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/logger"
)

// ErrBadIdentifier is returned when registering a malformed identifier.
var ErrBadIdentifier = errors.New("bad material identifier")

// ID builds a material identifier.
func ID(namespace string, name string) string {
	return fmt.Sprintf("%s:prog.%s", namespace, name)
}

// ParseID splits an identifier into its namespace and program name.
func ParseID(id string) (namespace string, name string, err error) {
	namespace, rest, ok := strings.Cut(id, ":")
	if !ok || namespace == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadIdentifier, id)
	}
	name, ok = strings.CutPrefix(rest, "prog.")
	if !ok || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadIdentifier, id)
	}
	return namespace, name, nil
}

// Source is the shader source of a material. Vertex may be empty, in which
// case the backend supplies its full-screen quad vertex shader.
type Source struct {
	Vertex   string
	Fragment string
}

// Compiler turns sources into programs. Implemented by each backend.
type Compiler interface {
	Compile(id string, src Source) (gpu.Program, error)
	Delete(p gpu.Program)
}

// Library is a gpu.MaterialResolver over registered sources. Programs are
// compiled on the first Resolve() and cached.
type Library struct {
	compiler Compiler

	crit     sync.Mutex
	sources  map[string]Source
	programs map[string]gpu.Program
}

// NewLibrary is the preferred method of initialisation of the Library type.
func NewLibrary(compiler Compiler) *Library {
	return &Library{
		compiler: compiler,
		sources:  make(map[string]Source),
		programs: make(map[string]gpu.Program),
	}
}

// Register adds the source for the identifier. Registering an identifier
// again replaces its source and discards any program compiled from the old
// one.
func (l *Library) Register(id string, src Source) error {
	if _, _, err := ParseID(id); err != nil {
		return err
	}

	l.crit.Lock()
	defer l.crit.Unlock()

	if p, ok := l.programs[id]; ok {
		l.compiler.Delete(p)
		delete(l.programs, id)
	}
	l.sources[id] = src

	return nil
}

// Resolve implements the gpu.MaterialResolver interface.
func (l *Library) Resolve(id string) (gpu.Program, error) {
	l.crit.Lock()
	defer l.crit.Unlock()

	if p, ok := l.programs[id]; ok {
		return p, nil
	}

	src, ok := l.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gpu.ErrUnresolved, id)
	}

	p, err := l.compiler.Compile(id, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gpu.ErrUnresolved, id, err)
	}
	l.programs[id] = p

	logger.Logger().Debug("material compiled", "material", id, "program", p.Handle())

	return p, nil
}

// IDs returns the registered identifiers, sorted.
func (l *Library) IDs() []string {
	l.crit.Lock()
	defer l.crit.Unlock()

	ids := make([]string, 0, len(l.sources))
	for id := range l.sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Compiled returns true if the identifier has a cached program.
func (l *Library) Compiled(id string) bool {
	l.crit.Lock()
	defer l.crit.Unlock()
	_, ok := l.programs[id]
	return ok
}

// Release deletes every compiled program. Sources stay registered and will be
// compiled again on the next Resolve().
func (l *Library) Release() {
	l.crit.Lock()
	defer l.crit.Unlock()

	for id, p := range l.programs {
		l.compiler.Delete(p)
		delete(l.programs, id)
	}
}
