package importer

import (
	"errors"
	"sync"

	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/model"
	"github.com/Faultbox/midgard-gltf/internal/engine/scene"
	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
)

// Result is one imported document. It holds a reference on every mesh and
// material it created until Unload.
type Result struct {
	Name      string
	Root      *scene.Entity
	Meshes    []*model.Mesh         // by document mesh index
	Materials []*material.Material // by document material index
	Default   *material.Material   // used by primitives without a material
	Textures  *texture.Cache
	Failures  []*ImportError

	ownsTextures bool
	unload       sync.Once
}

// Err joins the partial failures, or returns nil when there were none.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Stats summarizes an imported document.
type Stats struct {
	Entities   int
	Meshes     int
	Primitives int
	Vertices   int
	Indices    int
	Materials  int
	Textures   int
	Failures   int
	Radius     float32
}

// Stats counts what the import produced.
func (r *Result) Stats() Stats {
	s := Stats{
		Materials: len(r.Materials),
		Failures:  len(r.Failures),
	}
	if r.Root != nil {
		s.Entities = r.Root.Count()
	}
	for _, m := range r.Meshes {
		if m == nil {
			continue
		}
		s.Meshes++
		s.Primitives += len(m.Primitives)
		s.Vertices += m.VertexCount()
		s.Indices += m.IndexCount()
		s.Radius = max(s.Radius, m.Radius())
	}
	if r.Textures != nil {
		s.Textures = r.Textures.Len()
	}
	return s
}

// Unload releases the import's references. Resources still attached to
// entities survive until those entities are destroyed. Safe to call twice.
func (r *Result) Unload() {
	r.unload.Do(func() {
		for _, m := range r.Meshes {
			if m != nil {
				m.Release()
			}
		}
		for _, m := range r.Materials {
			if m != nil {
				m.Release()
			}
		}
		if r.Default != nil {
			r.Default.Release()
		}
		if r.ownsTextures && r.Textures != nil {
			r.Textures.Clear()
		}
	})
}

// Destroy destroys the entity tree and unloads the result.
func (r *Result) Destroy() {
	if r.Root != nil {
		r.Root.Destroy()
		r.Root = nil
	}
	r.Unload()
}
