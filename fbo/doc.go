// Package fbo manages off-screen render targets (frame buffer objects).
//
// An FBO is identified by the name in its Config. The Manager allocates an
// FBO the first time its config is requested and returns the same instance
// for every later request of the same config:
//
//	mgr := fbo.NewManager("display", allocator, fbo.Dimensions{Width: 1280, Height: 720})
//	scene, err := mgr.Request(fbo.NewScaledConfig("scene", fbo.FullScale, fbo.RGBA16F))
//
// Resizing replaces the instance. Anything holding on to an instance must
// subscribe to the manager and refresh its reference when notified:
//
//	sub := mgr.Subscribe(node)
//	err = mgr.Resize("bloom", fbo.Dimensions{Width: 128, Height: 128})
//	// node.Update() has been called
//	mgr.Unsubscribe(sub)
//
// Scaled configs follow the manager's base dimensions, which are changed with
// SetBaseDimensions() when the display is resized.
package fbo
