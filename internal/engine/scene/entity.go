// Package scene builds entity trees from glTF node graphs.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/Faultbox/midgard-gltf/internal/engine/model"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// Entity is a node of the scene tree. Parents own their children.
type Entity struct {
	ID             uuid.UUID
	Name           string
	Node           int // source node index, -1 when synthesized
	Parent         *Entity
	Children       []*Entity
	Transform      Transform
	Mesh           *model.Mesh
	BoundingRadius float32

	world mgl32.Mat4
}

// CreateEntity creates a detached entity with an identity transform.
// The name is stored in Unicode NFC form.
func CreateEntity(name string) *Entity {
	return &Entity{
		ID:        uuid.New(),
		Name:      norm.NFC.String(name),
		Node:      -1,
		Transform: Identity(),
		world:     mgl32.Ident4(),
	}
}

// World returns the entity's world matrix.
func (e *Entity) World() mgl32.Mat4 {
	return e.world
}

// AttachChild makes child a child of e. A child that already has a parent,
// or that is e or one of its ancestors, is rejected with ErrCycle.
func (e *Entity) AttachChild(child *Entity) error {
	if child.Parent != nil {
		return fmt.Errorf("%w: %q already has parent %q", formats.ErrCycle, child.Name, child.Parent.Name)
	}
	for p := e; p != nil; p = p.Parent {
		if p == child {
			return fmt.Errorf("%w: %q is an ancestor of %q", formats.ErrCycle, child.Name, e.Name)
		}
	}
	child.Parent = e
	e.Children = append(e.Children, child)
	child.updateWorld()
	return nil
}

// Detach removes e from its parent.
func (e *Entity) Detach() {
	p := e.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == e {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	e.Parent = nil
	e.updateWorld()
}

// SetTransform replaces the local transform and refreshes world matrices
// of e and its descendants.
func (e *Entity) SetTransform(t Transform) {
	e.Transform = t
	e.updateWorld()
}

// SetMatrix sets the local transform from a matrix.
func (e *Entity) SetMatrix(m mgl32.Mat4) {
	e.SetTransform(FromMatrix(m))
}

// AttachMeshComponent attaches mesh, taking a reference, and copies its
// bounding radius onto the entity. A previous mesh is released.
func (e *Entity) AttachMeshComponent(mesh *model.Mesh) {
	if mesh != nil {
		mesh.Retain()
	}
	if e.Mesh != nil {
		e.Mesh.Release()
	}
	e.Mesh = mesh
	e.BoundingRadius = 0
	if mesh != nil {
		e.BoundingRadius = mesh.Radius()
	}
}

// Walk visits e and its descendants depth-first, children in order. fn
// returning false skips the entity's children.
func (e *Entity) Walk(fn func(ent *Entity, depth int) bool) {
	type item struct {
		ent   *Entity
		depth int
	}
	stack := []item{{e, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.ent, it.depth) {
			continue
		}
		for i := len(it.ent.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.ent.Children[i], it.depth + 1})
		}
	}
}

// Find returns the first entity in e's subtree with the given name.
func (e *Entity) Find(name string) *Entity {
	name = norm.NFC.String(name)
	var found *Entity
	e.Walk(func(ent *Entity, _ int) bool {
		if found == nil && ent.Name == name {
			found = ent
		}
		return found == nil
	})
	return found
}

// Count returns the number of entities in e's subtree, e included.
func (e *Entity) Count() int {
	n := 0
	e.Walk(func(*Entity, int) bool {
		n++
		return true
	})
	return n
}

// Destroy detaches e and releases every mesh in its subtree.
func (e *Entity) Destroy() {
	e.Detach()
	e.Walk(func(ent *Entity, _ int) bool {
		if ent.Mesh != nil {
			ent.Mesh.Release()
			ent.Mesh = nil
		}
		return true
	})
	e.Children = nil
}

func (e *Entity) updateWorld() {
	e.Walk(func(ent *Entity, _ int) bool {
		local := ent.Transform.Matrix()
		if ent.Parent != nil {
			ent.world = ent.Parent.world.Mul4(local)
		} else {
			ent.world = local
		}
		return true
	})
}

// SameStructure reports whether two trees match in names, source nodes,
// transforms and attached mesh shapes, ignoring entity IDs and resources.
func SameStructure(a, b *Entity) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Node != b.Node || a.Transform != b.Transform ||
		a.BoundingRadius != b.BoundingRadius || len(a.Children) != len(b.Children) {
		return false
	}
	if (a.Mesh == nil) != (b.Mesh == nil) {
		return false
	}
	if a.Mesh != nil && (a.Mesh.Index != b.Mesh.Index ||
		a.Mesh.VertexCount() != b.Mesh.VertexCount() ||
		a.Mesh.IndexCount() != b.Mesh.IndexCount()) {
		return false
	}
	for i := range a.Children {
		if !SameStructure(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
