package importer

import (
	"runtime"

	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
)

// Options configures an Importer.
type Options struct {
	// Workers bounds concurrent material and mesh assembly. Zero means
	// GOMAXPROCS.
	Workers int
	// DefaultColor decides unset color factors and vertex colors.
	DefaultColor material.ColorPolicy
	// MaxDepth bounds node nesting. Zero means scene.DefaultMaxDepth.
	MaxDepth int
	// Strict turns skipped primitives into a failed import.
	Strict bool
	// GenerateNormals fills normals of triangle primitives without NORMAL.
	GenerateNormals bool
	// Textures, when set, is shared by every import so images are created
	// once across documents. Otherwise each import gets its own cache.
	Textures *texture.Cache
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
