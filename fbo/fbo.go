package fbo

// Attachment selects one of the textures attached to an FBO.
type Attachment int

// List of valid Attachment values.
const (
	ColorAttachment Attachment = iota
	DepthAttachment
)

func (a Attachment) String() string {
	switch a {
	case ColorAttachment:
		return "color"
	case DepthAttachment:
		return "depth"
	}
	return "unknown"
}

// Handles are the backend resources making up one FBO instance. A zero Depth
// means the FBO has no depth attachment.
type Handles struct {
	Framebuffer uint32
	Color       uint32
	Depth       uint32
}

// Allocator creates and destroys the backend resources of an FBO. It is
// implemented by each graphics backend.
type Allocator interface {
	Allocate(cfg Config, dims Dimensions) (Handles, error)
	Release(h Handles)
}

// Status of an FBO instance.
type Status int

// List of valid Status values.
const (
	// the instance is the one the manager returns for its name
	Current Status = iota

	// the instance was replaced by a resize. its handles have been released
	Replaced

	// the manager has been torn down
	Released
)

func (s Status) String() string {
	switch s {
	case Current:
		return "current"
	case Replaced:
		return "replaced"
	case Released:
		return "released"
	}
	return "unknown"
}

// FBO is one allocated instance of a named render target. Instances are
// created and owned by a Manager; a resize replaces the instance while the
// name stays the same.
type FBO struct {
	config     Config
	dims       Dimensions
	handles    Handles
	generation uint64
	status     Status
}

// Name returns the stable name of the FBO.
func (f *FBO) Name() string {
	return f.config.Name
}

// Config returns the config the instance was allocated with.
func (f *FBO) Config() Config {
	return f.config
}

func (f *FBO) Width() int {
	return f.dims.Width
}

func (f *FBO) Height() int {
	return f.dims.Height
}

func (f *FBO) Dimensions() Dimensions {
	return f.dims
}

// Handle returns the framebuffer handle to bind as a render target.
func (f *FBO) Handle() uint32 {
	return f.handles.Framebuffer
}

// ColorTexture returns the texture of the colour attachment.
func (f *FBO) ColorTexture() uint32 {
	return f.handles.Color
}

// DepthTexture returns the texture of the depth attachment, zero if the FBO
// has none.
func (f *FBO) DepthTexture() uint32 {
	return f.handles.Depth
}

// Texture returns the texture of the specified attachment.
func (f *FBO) Texture(a Attachment) uint32 {
	switch a {
	case DepthAttachment:
		return f.handles.Depth
	default:
		return f.handles.Color
	}
}

// Handles returns every backend handle of the instance.
func (f *FBO) Handles() Handles {
	return f.handles
}

// Generation identifies the instance. Every allocation within a manager has
// a unique generation.
func (f *FBO) Generation() uint64 {
	return f.generation
}

// Status returns whether the instance is still current.
func (f *FBO) Status() Status {
	return f.status
}
