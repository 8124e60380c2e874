package texture

import (
	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
)

// Texture is a backend texture created from one glTF image. It is shared
// by every material slot that samples the same image.
type Texture struct {
	Handle renderer.TextureHandle
	Width  int
	Height int
	Image  int // source image index
	Params renderer.TextureParams

	refs    renderer.RefCount
	backend renderer.Backend
}

// Retain adds a reference.
func (t *Texture) Retain() {
	t.refs.Retain()
}

// Release drops a reference and destroys the backend texture on the last one.
func (t *Texture) Release() {
	if t.refs.Release() {
		t.backend.DestroyTexture(t.Handle)
	}
}

// Refs returns the number of live references.
func (t *Texture) Refs() int32 {
	return t.refs.Count()
}
