// Package material translates glTF material records into engine materials.
package material

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
)

// Slot names one of the material's texture slots.
type Slot int

const (
	SlotAlbedo Slot = iota
	SlotNormal
	SlotMetallic
	SlotRoughness
	SlotAO
	SlotCount
)

var slotNames = [SlotCount]string{"albedo", "normal", "metallic", "roughness", "ao"}

// String returns the slot name.
func (s Slot) String() string {
	if s < 0 || s >= SlotCount {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// AlphaMode is how alpha is interpreted when rendering.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// String returns the glTF name of the mode.
func (a AlphaMode) String() string {
	switch a {
	case AlphaMask:
		return "MASK"
	case AlphaBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}

// ColorPolicy decides the value of color factors a material leaves unset.
type ColorPolicy uint8

const (
	// ColorWhite uses the glTF defaults: opaque white, metallic and roughness 1.
	ColorWhite ColorPolicy = iota
	// ColorBlack leaves unset factors zero.
	ColorBlack
)

// ParseColorPolicy parses "white" or "black". Empty means white.
func ParseColorPolicy(s string) (ColorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white":
		return ColorWhite, nil
	case "black":
		return ColorBlack, nil
	default:
		return ColorWhite, fmt.Errorf("unknown default color %q (want white or black)", s)
	}
}

// String returns the policy name.
func (p ColorPolicy) String() string {
	if p == ColorBlack {
		return "black"
	}
	return "white"
}

// Properties holds a material's scalar and vector factors.
type Properties struct {
	AlbedoColor   mgl32.Vec4
	SpecularColor mgl32.Vec4
	EmissiveColor mgl32.Vec3
	Metallic      float32
	Roughness     float32
	AlphaCutoff   float32
}

// Material is a translated material. Textures are shared with other
// materials sampling the same image.
type Material struct {
	Name        string
	Index       int // source material index, -1 for the default material
	Properties  Properties
	Textures    [SlotCount]*texture.Texture
	AlphaMode   AlphaMode
	DoubleSided bool

	// SpecularGlossiness is set when the specular-glossiness extension
	// overrode the metallic-roughness factors.
	SpecularGlossiness bool

	refs renderer.RefCount
}

// Texture returns the texture bound to slot s, or nil.
func (m *Material) Texture(s Slot) *texture.Texture {
	if s < 0 || s >= SlotCount {
		return nil
	}
	return m.Textures[s]
}

// Retain adds a reference.
func (m *Material) Retain() {
	m.refs.Retain()
}

// Release drops a reference. The last release drops the material's
// references on its textures.
func (m *Material) Release() {
	if !m.refs.Release() {
		return
	}
	for i, tex := range m.Textures {
		if tex != nil {
			tex.Release()
			m.Textures[i] = nil
		}
	}
}

// Refs returns the number of live references.
func (m *Material) Refs() int32 {
	return m.refs.Count()
}

// defaultProperties returns the factors of a material that sets nothing.
func defaultProperties(policy ColorPolicy) Properties {
	if policy == ColorBlack {
		return Properties{AlphaCutoff: 0.5}
	}
	return Properties{
		AlbedoColor:   mgl32.Vec4{1, 1, 1, 1},
		SpecularColor: mgl32.Vec4{1, 1, 1, 1},
		Metallic:      1,
		Roughness:     1,
		AlphaCutoff:   0.5,
	}
}

// Default returns the material used by primitives that reference none.
func Default(policy ColorPolicy) *Material {
	return &Material{
		Name:       "default",
		Index:      -1,
		Properties: defaultProperties(policy),
	}
}
