package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/model"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// DefaultMaxDepth bounds node nesting for untrusted documents.
const DefaultMaxDepth = 1024

// Builder instantiates entities for a document's nodes.
type Builder struct {
	Doc *gltf.Document
	// Meshes holds the assembled mesh for each document mesh index; nil
	// entries are meshes that failed to assemble.
	Meshes   []*model.Mesh
	MaxDepth int

	visited []bool
}

// NewBuilder creates a builder over doc and its assembled meshes.
func NewBuilder(doc *gltf.Document, meshes []*model.Mesh) *Builder {
	return &Builder{Doc: doc, Meshes: meshes, MaxDepth: DefaultMaxDepth}
}

// BuildScene creates a root entity called name with the subtrees of roots
// as its children.
func (b *Builder) BuildScene(name string, roots []int) (*Entity, error) {
	root := CreateEntity(name)
	for _, n := range roots {
		if _, err := b.Build(n, root); err != nil {
			root.Destroy()
			return nil, err
		}
	}
	return root, nil
}

// Build instantiates node and its descendants under parent, which may be
// nil. A negative node index is a no-op returning nil. A node reached
// twice during the builder's lifetime is rejected with ErrCycle; on error
// nothing stays attached to parent.
func (b *Builder) Build(node int, parent *Entity) (*Entity, error) {
	if node < 0 {
		return nil, nil
	}
	if b.visited == nil {
		b.visited = make([]bool, len(b.Doc.Nodes))
	}
	maxDepth := b.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	type item struct {
		node   int
		parent *Entity
		depth  int
	}

	var top *Entity
	stack := []item{{node, parent, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ent, err := b.instantiate(it.node, it.parent, it.depth, maxDepth)
		if err != nil {
			if top != nil {
				top.Destroy()
			}
			return nil, err
		}
		if top == nil {
			top = ent
		}

		children := b.Doc.Nodes[it.node].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{children[i], ent, it.depth + 1})
		}
	}
	return top, nil
}

// instantiate creates the entity for one node and links it under parent.
func (b *Builder) instantiate(node int, parent *Entity, depth, maxDepth int) (*Entity, error) {
	if node < 0 || node >= len(b.Doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d of %d", formats.ErrReference, node, len(b.Doc.Nodes))
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: node %d nested deeper than %d", formats.ErrBounds, node, maxDepth)
	}
	if b.visited[node] {
		return nil, fmt.Errorf("%w: node %d reached twice", formats.ErrCycle, node)
	}
	b.visited[node] = true

	n := b.Doc.Nodes[node]
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("Mesh : %d", node)
	}

	ent := CreateEntity(name)
	ent.Node = node
	ent.Transform = NodeTransform(n)

	if n.Mesh != nil {
		mi := *n.Mesh
		if mi < 0 || mi >= len(b.Doc.Meshes) {
			return nil, fmt.Errorf("%w: node %d mesh %d of %d", formats.ErrReference, node, mi, len(b.Doc.Meshes))
		}
		if mi < len(b.Meshes) && b.Meshes[mi] != nil {
			ent.AttachMeshComponent(b.Meshes[mi])
		} else {
			logger.Debug("node mesh unavailable", zap.Int("node", node), zap.Int("mesh", mi))
		}
	}

	if parent != nil {
		if err := parent.AttachChild(ent); err != nil {
			ent.Destroy()
			return nil, err
		}
	} else {
		ent.updateWorld()
	}
	return ent, nil
}
