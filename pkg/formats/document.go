package formats

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	_ "github.com/qmuntal/gltf/ext/specular" // registers KHR_materials_pbrSpecularGlossiness
)

// Decode parses a .gltf (JSON) or .glb (binary container) stream.
// External buffer URIs are resolved through fsys; pass nil to allow only
// embedded data.
func Decode(r io.Reader, fsys fs.FS) (*gltf.Document, error) {
	var dec *gltf.Decoder
	if fsys != nil {
		dec = gltf.NewDecoderFS(r, fsys)
	} else {
		dec = gltf.NewDecoder(r)
	}

	doc := new(gltf.Document)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc, nil
}

// DecodeBytes parses an in-memory document.
func DecodeBytes(data []byte, fsys fs.FS) (*gltf.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}
	return Decode(bytes.NewReader(data), fsys)
}

// DecodeFile parses a document from disk, resolving relative URIs against
// the file's directory.
func DecodeFile(path string) (*gltf.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}
	defer f.Close()
	return Decode(f, os.DirFS(filepath.Dir(path)))
}

// Stats summarizes the table sizes of a document.
type Stats struct {
	Nodes      int
	Meshes     int
	Primitives int
	Materials  int
	Textures   int
	Images     int
	Samplers   int
	Accessors  int
	Buffers    int
	BufferSize int
	Scenes     int
	Extensions []string
}

// GetStats returns the table sizes of doc.
func GetStats(doc *gltf.Document) Stats {
	s := Stats{
		Nodes:      len(doc.Nodes),
		Meshes:     len(doc.Meshes),
		Materials:  len(doc.Materials),
		Textures:   len(doc.Textures),
		Images:     len(doc.Images),
		Samplers:   len(doc.Samplers),
		Accessors:  len(doc.Accessors),
		Buffers:    len(doc.Buffers),
		Scenes:     len(doc.Scenes),
		Extensions: doc.ExtensionsUsed,
	}
	for _, m := range doc.Meshes {
		s.Primitives += len(m.Primitives)
	}
	for _, b := range doc.Buffers {
		s.BufferSize += len(b.Data)
	}
	return s
}

// RootNodes returns the node indices the scene graph should be built from:
// the default scene (or scene 0) when scenes exist, otherwise every node
// that is not the child of another node.
func RootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}
