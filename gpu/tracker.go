package gpu

// State is a snapshot of the GPU state that render nodes change.
type State struct {
	Framebuffer uint32
	Viewport    [4]int32
	Program     uint32
	Textures    [MaxTextureSlots]uint32
}

// Stats counts the calls a Tracker forwarded to its device and the calls it
// dropped because the requested state was already current.
type Stats struct {
	Issued  int
	Skipped int
	Draws   int
}

// Tracker sits between the render graph and a Device. It records the current
// bindings so that state changes can read the value they replace, and it
// drops calls that would not change anything. Identical bindings declared by
// consecutive nodes therefore cost one device call.
type Tracker struct {
	dev   Device
	state State
	stats Stats
}

// NewTracker returns a tracker for dev. The initial state must describe what
// is actually bound on the device; for a fresh context that is the zero
// State.
func NewTracker(dev Device, initial State) *Tracker {
	return &Tracker{dev: dev, state: initial}
}

// Device returns the wrapped device.
func (t *Tracker) Device() Device {
	return t.dev
}

// Snapshot returns a copy of the tracked state.
func (t *Tracker) Snapshot() State {
	return t.state
}

// Stats returns the call counters.
func (t *Tracker) Stats() Stats {
	return t.stats
}

// ResetStats zeroes the call counters.
func (t *Tracker) ResetStats() {
	t.stats = Stats{}
}

// CurrentFramebuffer returns the bound framebuffer handle.
func (t *Tracker) CurrentFramebuffer() uint32 {
	return t.state.Framebuffer
}

// CurrentViewport returns the viewport as x, y, width, height.
func (t *Tracker) CurrentViewport() [4]int32 {
	return t.state.Viewport
}

// CurrentProgram returns the program handle in use.
func (t *Tracker) CurrentProgram() uint32 {
	return t.state.Program
}

// CurrentTexture returns the texture bound at slot. Slots outside the
// tracked range report zero.
func (t *Tracker) CurrentTexture(slot int) uint32 {
	if slot < 0 || slot >= MaxTextureSlots {
		return 0
	}
	return t.state.Textures[slot]
}

// BindFramebuffer implements the Device interface.
func (t *Tracker) BindFramebuffer(handle uint32) {
	if t.state.Framebuffer == handle {
		t.stats.Skipped++
		return
	}
	t.dev.BindFramebuffer(handle)
	t.state.Framebuffer = handle
	t.stats.Issued++
}

// Viewport implements the Device interface.
func (t *Tracker) Viewport(x, y, width, height int32) {
	vp := [4]int32{x, y, width, height}
	if t.state.Viewport == vp {
		t.stats.Skipped++
		return
	}
	t.dev.Viewport(x, y, width, height)
	t.state.Viewport = vp
	t.stats.Issued++
}

// BindTexture implements the Device interface. Slots outside the tracked
// range are forwarded without being recorded.
func (t *Tracker) BindTexture(slot int, texture uint32) {
	if slot < 0 || slot >= MaxTextureSlots {
		t.dev.BindTexture(slot, texture)
		t.stats.Issued++
		return
	}
	if t.state.Textures[slot] == texture {
		t.stats.Skipped++
		return
	}
	t.dev.BindTexture(slot, texture)
	t.state.Textures[slot] = texture
	t.stats.Issued++
}

// UseProgram implements the Device interface.
func (t *Tracker) UseProgram(handle uint32) {
	if t.state.Program == handle {
		t.stats.Skipped++
		return
	}
	t.dev.UseProgram(handle)
	t.state.Program = handle
	t.stats.Issued++
}

// DrawFullscreenQuad implements the QuadRenderer interface.
func (t *Tracker) DrawFullscreenQuad() {
	t.dev.DrawFullscreenQuad()
	t.stats.Draws++
}
