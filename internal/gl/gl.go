// Package gl is the boundary this module stops at before actual GPU work:
// spec.md §1 puts "the GL shader/quad-blit renderer" out of scope, so this
// package declares the contract C6 (Texture Cache) and C7 (Video Render
// Worker) need from a graphics context without implementing one. A
// production build supplies a Context backed by a real GL/Vulkan/Metal
// binding; tests and headless CLI subcommands use Null.
package gl

// FilterMode names the texture sampling mode. Linear filtering and
// clamp-to-edge wrapping are the only modes spec.md §4.6 requires.
type FilterMode int

const (
	FilterLinear FilterMode = iota
)

// Texture is a handle to GPU-resident pixel data. Destroy is idempotent:
// calling it more than once must not panic or double-free.
type Texture interface {
	ID() uint32
	Width() int
	Height() int
	Destroy()
}

// Context abstracts the GPU binding a Texture Cache or Render Worker runs
// against. Upload takes ownership of pix (RGBA8, row-major, len ==
// width*height*4) and returns a Texture sampled with linear filtering and
// clamp-to-edge wrapping, per spec.md §4.6.
type Context interface {
	UploadRGBA(width, height int, pix []byte) Texture

	// MakeCurrent binds this context to the calling OS thread, required
	// before any GL call a Render Worker goroutine makes (spec.md §4.7
	// startup protocol, step 1).
	MakeCurrent() error

	// GetProcAddress resolves a GL function pointer by name, used by the
	// video engine trampoline C7's startup protocol describes.
	GetProcAddress(name string) uintptr
}

// Null is a Context that allocates handles but does no GPU work. It
// exists so internal/texture and internal/render can be exercised (and
// unit tested) without a windowing system or driver present.
type Null struct {
	nextID uint32
}

// NewNull returns a Null context with its handle counter at zero.
func NewNull() *Null { return &Null{} }

func (n *Null) UploadRGBA(width, height int, pix []byte) Texture {
	n.nextID++
	return &nullTexture{id: n.nextID, width: width, height: height}
}

func (n *Null) MakeCurrent() error { return nil }

func (n *Null) GetProcAddress(name string) uintptr { return 0 }

type nullTexture struct {
	id            uint32
	width, height int
	destroyed     bool
}

func (t *nullTexture) ID() uint32  { return t.id }
func (t *nullTexture) Width() int  { return t.width }
func (t *nullTexture) Height() int { return t.height }
func (t *nullTexture) Destroy()    { t.destroyed = true }
