// Package graphics declares the window-system context the renderer draws
// through. It is implemented by package glfwcontext for windows and package
// headless for EGL pbuffers.
package graphics

// Context defines the interface for an OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool

	// EndFrame presents the default framebuffer and processes pending events
	EndFrame()

	GetFramebufferSize() (int, int)

	// Time returns seconds since the context was created
	Time() float64
}
