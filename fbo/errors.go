package fbo

import "errors"

// Configuration errors. These are reported when an FBO is requested or a
// state change referring to one is declared, never while a frame is running.
var (
	ErrInvalidConfig = errors.New("invalid fbo config")
	ErrUnknownFBO    = errors.New("unknown fbo")
	ErrShapeMismatch = errors.New("fbo shape mismatch")
	ErrAllocation    = errors.New("fbo allocation failed")
)

// ErrReleased is returned by a manager that has been torn down.
var ErrReleased = errors.New("fbo manager released")

// ErrStale is returned when an FBO instance is used after it has been
// replaced by a resize.
var ErrStale = errors.New("stale fbo")
