package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Transform is a local transform in scale, rotation, translation form.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	m = m.Mul4(t.Rotation.Normalize().Mat4())
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// FromMatrix decomposes an affine matrix without shear into S, R and T.
// A negative determinant is folded into the X scale.
func FromMatrix(m mgl32.Mat4) Transform {
	t := Transform{
		Translation: m.Col(3).Vec3(),
		Scale: mgl32.Vec3{
			m.Col(0).Vec3().Len(),
			m.Col(1).Vec3().Len(),
			m.Col(2).Vec3().Len(),
		},
	}
	if m.Det() < 0 {
		t.Scale[0] = -t.Scale[0]
	}

	var rot mgl32.Mat4
	for c := 0; c < 3; c++ {
		axis := m.Col(c).Vec3()
		if t.Scale[c] != 0 {
			axis = axis.Mul(1 / t.Scale[c])
		}
		rot.SetCol(c, axis.Vec4(0))
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	t.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return t
}

// NodeTransform returns the local transform of a glTF node. A matrix other
// than identity (or the all-zero value of an unset field) wins over the
// separate scale, rotation and translation fields.
func NodeTransform(n *gltf.Node) Transform {
	var zero [16]float64
	if n.Matrix != zero && n.Matrix != identity16 {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return FromMatrix(m)
	}

	t := Identity()
	t.Translation = mgl32.Vec3{float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2])}
	if n.Rotation != [4]float64{} {
		t.Rotation = mgl32.Quat{
			W: float32(n.Rotation[3]),
			V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
		}
	}
	if n.Scale != [3]float64{} {
		t.Scale = mgl32.Vec3{float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2])}
	}
	return t
}

var identity16 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
