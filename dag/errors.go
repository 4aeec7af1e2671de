package dag

import (
	"errors"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
)

// Usage errors. These indicate a node being driven out of its lifecycle.
var (
	ErrAlreadyInitialised = errors.New("node already initialised")
	ErrNotInitialised     = errors.New("node not initialised")
	ErrInactive           = errors.New("node inactive")
	ErrDisposed           = errors.New("node disposed")
	ErrDuplicateNode      = errors.New("node already added")
)

// ErrorKind is the broad category of an error returned by the render graph.
type ErrorKind int

// List of valid ErrorKind values.
const (
	KindNone ErrorKind = iota

	// the pipeline is described wrongly: unknown FBO, mismatched shape,
	// unresolvable material. reported during setup
	KindConfiguration

	// a node was driven outside its lifecycle
	KindUsage

	// a node holds an FBO instance that has been replaced
	KindStaleResource

	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindUsage:
		return "usage"
	case KindStaleResource:
		return "stale resource"
	}
	return "unknown"
}

// Classify returns the kind of err. Errors from outside the render graph are
// KindUnknown.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, fbo.ErrStale):
		return KindStaleResource

	case errors.Is(err, ErrAlreadyInitialised),
		errors.Is(err, ErrNotInitialised),
		errors.Is(err, ErrInactive),
		errors.Is(err, ErrDisposed),
		errors.Is(err, ErrDuplicateNode),
		errors.Is(err, fbo.ErrReleased):
		return KindUsage

	case errors.Is(err, fbo.ErrUnknownFBO),
		errors.Is(err, fbo.ErrShapeMismatch),
		errors.Is(err, fbo.ErrInvalidConfig),
		errors.Is(err, fbo.ErrAllocation),
		errors.Is(err, gpu.ErrUnresolved):
		return KindConfiguration
	}

	return KindUnknown
}
