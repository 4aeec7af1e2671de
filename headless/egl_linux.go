//go:build linux

package headless

import (
	"fmt"
	"time"

	"github.com/richinsley/rendergraph/graphics"
	"github.com/richinsley/rendergraph/logger"
)

/*
#cgo LDFLAGS: -lEGL
#include <EGL/egl.h>
#include <EGL/eglext.h>

// extension entry points are only reachable through eglGetProcAddress
static PFNEGLQUERYDEVICESEXTPROC query_devices_ext = NULL;
static PFNEGLGETPLATFORMDISPLAYEXTPROC platform_display_ext = NULL;

static void load_extensions() {
    query_devices_ext = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    platform_display_ext = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
}

static EGLBoolean query_devices(EGLint max, EGLDeviceEXT *devices, EGLint *count) {
    if (query_devices_ext == NULL) {
        return EGL_FALSE;
    }
    return query_devices_ext(max, devices, count);
}

static EGLDisplay device_display(EGLDeviceEXT device) {
    if (platform_display_ext == NULL) {
        return EGL_NO_DISPLAY;
    }
    return platform_display_ext(EGL_PLATFORM_DEVICE_EXT, device, NULL);
}
*/
import "C"

var (
	noDisplay = C.EGLDisplay(C.EGL_NO_DISPLAY)
	noSurface = C.EGLSurface(C.EGL_NO_SURFACE)
	noContext = C.EGLContext(C.EGL_NO_CONTEXT)
)

// Headless renders to an EGL pbuffer with a desktop OpenGL 4.1 core context.
// It needs no window system and is used when recording.
type Headless struct {
	display C.EGLDisplay
	surface C.EGLSurface
	context C.EGLContext

	width  int
	height int
	start  time.Time
}

// failed returns the EGL error for the last call on this thread.
func failed(call string) error {
	return Error{Call: call, Code: int(C.eglGetError())}
}

// openDisplay returns a display for the first GPU device EGL enumerates. When
// device enumeration is unavailable the default display is used.
func openDisplay() (C.EGLDisplay, error) {
	C.load_extensions()

	var count C.EGLint
	if C.query_devices(0, nil, &count) == C.EGL_FALSE || count == 0 {
		logger.Logger().Warn("headless: no egl device enumeration, using default display")
		d := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
		if d == noDisplay {
			return noDisplay, failed("eglGetDisplay")
		}
		return d, nil
	}

	devices := make([]C.EGLDeviceEXT, count)
	if C.query_devices(count, &devices[0], &count) == C.EGL_FALSE {
		return noDisplay, failed("eglQueryDevicesEXT")
	}

	for i := 0; i < int(count); i++ {
		if d := C.device_display(devices[i]); d != noDisplay {
			logger.Logger().Debug("headless: display", "device", i, "devices", int(count))
			return d, nil
		}
	}
	return noDisplay, fmt.Errorf("headless: none of %d egl devices has a display", int(count))
}

// NewHeadless creates a context rendering to a pbuffer of the given size and
// makes it current on the calling thread.
func NewHeadless(width, height int) (graphics.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("headless: invalid size %dx%d", width, height)
	}

	h := &Headless{
		display: noDisplay,
		surface: noSurface,
		context: noContext,
		width:   width,
		height:  height,
	}
	if err := h.create(); err != nil {
		h.Shutdown()
		return nil, err
	}

	h.start = time.Now()
	logger.Logger().Info("headless: context created", "size", fmt.Sprintf("%dx%d", width, height))
	return h, nil
}

// create the display, surface and context in that order. on error, whatever
// was created is left for Shutdown() to release.
func (h *Headless) create() error {
	d, err := openDisplay()
	if err != nil {
		return err
	}

	var major, minor C.EGLint
	if C.eglInitialize(d, &major, &minor) == C.EGL_FALSE {
		return failed("eglInitialize")
	}
	h.display = d
	logger.Logger().Info("headless: egl initialised", "version", fmt.Sprintf("%d.%d", int(major), int(minor)))

	if C.eglBindAPI(C.EGL_OPENGL_API) == C.EGL_FALSE {
		return failed("eglBindAPI")
	}

	configAttribs := []C.EGLint{
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_ALPHA_SIZE, 8,
		C.EGL_DEPTH_SIZE, 24,
		C.EGL_NONE,
	}
	var config C.EGLConfig
	var n C.EGLint
	if C.eglChooseConfig(d, &configAttribs[0], &config, 1, &n) == C.EGL_FALSE {
		return failed("eglChooseConfig")
	}
	if n == 0 {
		return fmt.Errorf("headless: no egl config for an rgba8 pbuffer with opengl")
	}

	surfaceAttribs := []C.EGLint{
		C.EGL_WIDTH, C.EGLint(h.width),
		C.EGL_HEIGHT, C.EGLint(h.height),
		C.EGL_NONE,
	}
	h.surface = C.eglCreatePbufferSurface(d, config, &surfaceAttribs[0])
	if h.surface == noSurface {
		return failed("eglCreatePbufferSurface")
	}

	contextAttribs := []C.EGLint{
		C.EGL_CONTEXT_MAJOR_VERSION, 4,
		C.EGL_CONTEXT_MINOR_VERSION, 1,
		C.EGL_CONTEXT_OPENGL_PROFILE_MASK, C.EGL_CONTEXT_OPENGL_CORE_PROFILE_BIT,
		C.EGL_NONE,
	}
	h.context = C.eglCreateContext(d, config, noContext, &contextAttribs[0])
	if h.context == noContext {
		return failed("eglCreateContext")
	}

	if C.eglMakeCurrent(d, h.surface, h.surface, h.context) == C.EGL_FALSE {
		return failed("eglMakeCurrent")
	}
	return nil
}

// Shutdown implements the graphics.Context interface. Calling it more than
// once has no effect.
func (h *Headless) Shutdown() {
	if h.display == noDisplay {
		return
	}
	C.eglMakeCurrent(h.display, noSurface, noSurface, noContext)
	if h.context != noContext {
		C.eglDestroyContext(h.display, h.context)
		h.context = noContext
	}
	if h.surface != noSurface {
		C.eglDestroySurface(h.display, h.surface)
		h.surface = noSurface
	}
	C.eglTerminate(h.display)
	h.display = noDisplay
	logger.Logger().Debug("headless: context destroyed")
}

// MakeCurrent implements the graphics.Context interface.
func (h *Headless) MakeCurrent() {
	C.eglMakeCurrent(h.display, h.surface, h.surface, h.context)
}

// ShouldClose is always false. The caller decides how many frames to render.
func (h *Headless) ShouldClose() bool {
	return false
}

// EndFrame implements the graphics.Context interface.
func (h *Headless) EndFrame() {
	C.eglSwapBuffers(h.display, h.surface)
}

// GetFramebufferSize returns the size of the pbuffer.
func (h *Headless) GetFramebufferSize() (int, int) {
	return h.width, h.height
}

// Time returns the seconds since the context was created.
func (h *Headless) Time() float64 {
	return time.Since(h.start).Seconds()
}
