package headless

import "fmt"

// names of the codes returned by eglGetError()
var eglErrorNames = map[int]string{
	0x3000: "EGL_SUCCESS",
	0x3001: "EGL_NOT_INITIALIZED",
	0x3002: "EGL_BAD_ACCESS",
	0x3003: "EGL_BAD_ALLOC",
	0x3004: "EGL_BAD_ATTRIBUTE",
	0x3005: "EGL_BAD_CONFIG",
	0x3006: "EGL_BAD_CONTEXT",
	0x3007: "EGL_BAD_CURRENT_SURFACE",
	0x3008: "EGL_BAD_DISPLAY",
	0x3009: "EGL_BAD_MATCH",
	0x300a: "EGL_BAD_NATIVE_PIXMAP",
	0x300b: "EGL_BAD_NATIVE_WINDOW",
	0x300c: "EGL_BAD_PARAMETER",
	0x300d: "EGL_BAD_SURFACE",
	0x300e: "EGL_CONTEXT_LOST",
}

// Error is a failed EGL call and the error code EGL reported for it.
type Error struct {
	Call string
	Code int
}

func (e Error) Error() string {
	name, ok := eglErrorNames[e.Code]
	if !ok {
		name = "unknown error"
	}
	return fmt.Sprintf("egl: %s failed: %s (%#x)", e.Call, name, e.Code)
}
