package texture

import (
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
)

// DefaultParams is used for textures that reference no sampler.
var DefaultParams = renderer.TextureParams{
	MinFilter: renderer.FilterLinear,
	MagFilter: renderer.FilterLinear,
	WrapS:     renderer.WrapRepeat,
	WrapT:     renderer.WrapRepeat,
}

// ParamsFromSampler maps a glTF sampler onto engine texture parameters.
// A nil sampler yields DefaultParams.
func ParamsFromSampler(s *gltf.Sampler) renderer.TextureParams {
	if s == nil {
		return DefaultParams
	}
	return renderer.TextureParams{
		MinFilter: MinFilter(s.MinFilter),
		MagFilter: MagFilter(s.MagFilter),
		WrapS:     WrapMode(s.WrapS),
		WrapT:     WrapMode(s.WrapT),
	}
}

// MinFilter collapses the minification filter family onto nearest or linear.
func MinFilter(f gltf.MinFilter) renderer.Filter {
	switch f {
	case gltf.MinNearest, gltf.MinNearestMipMapNearest, gltf.MinNearestMipMapLinear:
		return renderer.FilterNearest
	default:
		return renderer.FilterLinear
	}
}

// MagFilter maps the magnification filter.
func MagFilter(f gltf.MagFilter) renderer.Filter {
	if f == gltf.MagNearest {
		return renderer.FilterNearest
	}
	return renderer.FilterLinear
}

// WrapMode maps a glTF wrapping mode. Unknown values repeat.
func WrapMode(w gltf.WrappingMode) renderer.Wrap {
	switch w {
	case gltf.WrapClampToEdge:
		return renderer.WrapClampToEdge
	case gltf.WrapMirroredRepeat:
		return renderer.WrapMirroredRepeat
	default:
		return renderer.WrapRepeat
	}
}
