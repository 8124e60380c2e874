// Package renderer defines the graphics collaborator the importer uploads
// textures and geometry through.
package renderer

import "fmt"

// TextureHandle identifies a texture owned by a Backend.
type TextureHandle uint32

// BufferHandle identifies a vertex or index buffer owned by a Backend.
type BufferHandle uint32

// Filter is the engine texture filter mode.
type Filter uint8

const (
	FilterLinear  Filter = iota // Linear (default)
	FilterNearest               // Nearest-neighbour
)

// String returns a human-readable filter name.
func (f Filter) String() string {
	switch f {
	case FilterLinear:
		return "Linear"
	case FilterNearest:
		return "Nearest"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// Wrap is the engine texture addressing mode.
type Wrap uint8

const (
	WrapRepeat         Wrap = iota // Repeat (default)
	WrapClampToEdge                // Clamp to edge
	WrapMirroredRepeat             // Mirrored repeat
)

// String returns a human-readable wrap name.
func (w Wrap) String() string {
	switch w {
	case WrapRepeat:
		return "Repeat"
	case WrapClampToEdge:
		return "ClampToEdge"
	case WrapMirroredRepeat:
		return "MirroredRepeat"
	default:
		return fmt.Sprintf("Unknown(%d)", w)
	}
}

// TextureParams holds sampler state for texture creation.
type TextureParams struct {
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
}

// AttributeFormat describes the float components of one vertex attribute.
type AttributeFormat struct {
	Name       string
	Components int
}

// Layout is an ordered vertex attribute layout of float32 components.
type Layout []AttributeFormat

// Stride returns the byte size of one vertex.
func (l Layout) Stride() int {
	n := 0
	for _, a := range l {
		n += a.Components * 4
	}
	return n
}

// Backend creates GPU resources from CPU-side data. Implementations must be
// safe for concurrent use.
type Backend interface {
	// CreateTextureFromPixels uploads tightly packed RGBA8 pixels.
	CreateTextureFromPixels(width, height int, pixels []byte, params TextureParams) (TextureHandle, error)

	// CreateVertexBuffer uploads interleaved vertices described by layout.
	CreateVertexBuffer(layout Layout, data []byte) (BufferHandle, error)

	// CreateIndexBuffer uploads 32-bit indices.
	CreateIndexBuffer(indices []uint32) (BufferHandle, error)

	// DestroyTexture releases a texture. Unknown handles are ignored.
	DestroyTexture(h TextureHandle)

	// DestroyBuffer releases a vertex or index buffer. Unknown handles are ignored.
	DestroyBuffer(h BufferHandle)
}
