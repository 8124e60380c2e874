package model

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// Attribute is a vertex attribute the assembler understands.
type Attribute uint8

const (
	AttrPosition Attribute = iota
	AttrNormal
	AttrTexCoord0
	AttrColor0
	AttrTangent
	attrCount
)

type attributeSpec struct {
	name  string
	arity []int // accepted element arities
	set   func(v *Vertex, f []float32)
}

var attributeSpecs = [attrCount]attributeSpec{
	AttrPosition: {gltf.POSITION, []int{3}, func(v *Vertex, f []float32) {
		v.Position = mgl32.Vec3{f[0], f[1], f[2]}
	}},
	AttrNormal: {gltf.NORMAL, []int{3}, func(v *Vertex, f []float32) {
		v.Normal = mgl32.Vec3{f[0], f[1], f[2]}
	}},
	AttrTexCoord0: {gltf.TEXCOORD_0, []int{2}, func(v *Vertex, f []float32) {
		v.TexCoord = mgl32.Vec2{f[0], f[1]}
	}},
	AttrColor0: {gltf.COLOR_0, []int{3, 4}, func(v *Vertex, f []float32) {
		v.Color = mgl32.Vec4{f[0], f[1], f[2], 1}
		if len(f) == 4 {
			v.Color[3] = f[3]
		}
	}},
	AttrTangent: {gltf.TANGENT, []int{4}, func(v *Vertex, f []float32) {
		v.Tangent = mgl32.Vec4{f[0], f[1], f[2], f[3]}
	}},
}

var attributeByName = func() map[string]Attribute {
	m := make(map[string]Attribute, attrCount)
	for a := Attribute(0); a < attrCount; a++ {
		m[attributeSpecs[a].name] = a
	}
	return m
}()

// LookupAttribute maps a glTF attribute semantic to an Attribute.
func LookupAttribute(name string) (Attribute, bool) {
	a, ok := attributeByName[name]
	return a, ok
}

// String returns the glTF semantic name.
func (a Attribute) String() string {
	if a >= attrCount {
		return fmt.Sprintf("Attribute(%d)", uint8(a))
	}
	return attributeSpecs[a].name
}

// scatter decodes span and writes one element into each vertex. The span
// must hold exactly len(vertices) elements.
func (a Attribute) scatter(span formats.Span, vertices []Vertex) error {
	spec := &attributeSpecs[a]
	if !slices.Contains(spec.arity, span.Arity) {
		return fmt.Errorf("%w: %s with %d components", formats.ErrUnsupportedFormat, spec.name, span.Arity)
	}
	if span.Count != len(vertices) {
		return fmt.Errorf("%w: %s has %d elements, POSITION has %d",
			formats.ErrBounds, spec.name, span.Count, len(vertices))
	}

	f, err := span.Float32s()
	if err != nil {
		return fmt.Errorf("%s: %w", spec.name, err)
	}
	n := span.Arity
	for i := range vertices {
		spec.set(&vertices[i], f[i*n:i*n+n])
	}
	return nil
}
