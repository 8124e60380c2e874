package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/assets"
	"github.com/Faultbox/midgard-gltf/internal/config"
	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
	"github.com/Faultbox/midgard-gltf/internal/engine/scene"
	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
	"github.com/Faultbox/midgard-gltf/internal/importer"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg     *config.Config
	opts    importer.Options
	backend *renderer.MemoryBackend
	imp     *importer.Importer
}

func newApp(f *config.Flags) (*app, error) {
	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return newAppWithConfig(cfg)
}

func newAppWithConfig(cfg *config.Config) (*app, error) {
	backend := renderer.NewMemoryBackend()
	opts, err := importOptions(cfg, backend)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		opts:    opts,
		backend: backend,
		imp:     importer.New(backend, opts),
	}, nil
}

// importOptions converts the [import] section into importer options.
func importOptions(cfg *config.Config, backend renderer.Backend) (importer.Options, error) {
	policy, err := material.ParseColorPolicy(cfg.Import.DefaultColor)
	if err != nil {
		return importer.Options{}, err
	}
	opts := importer.Options{
		Workers:         cfg.Import.Workers,
		DefaultColor:    policy,
		MaxDepth:        cfg.Import.MaxDepth,
		Strict:          cfg.Import.Strict,
		GenerateNormals: cfg.Import.GenerateNormals,
	}
	if cfg.Import.ShareTextures {
		opts.Textures = texture.NewCache(backend)
	}
	return opts, nil
}

// newManager returns asset roots for a document: configured search paths
// first, the document's own directory last so it wins.
func (a *app) newManager(path string) (*assets.Manager, error) {
	mgr := assets.NewManager()
	for _, dir := range a.cfg.Assets.SearchPaths {
		if err := mgr.AddRoot(dir); err != nil {
			logger.Warn("skipping asset search path", zap.String("dir", dir), zap.Error(err))
		}
	}
	if err := mgr.AddRoot(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return mgr, nil
}

// importFile decodes path with external resources resolved through mgr and
// imports it.
func (a *app) importFile(ctx context.Context, mgr *assets.Manager, path string) (*gltf.Document, *importer.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	doc, err := formats.Decode(f, mgr)
	if err != nil {
		return nil, nil, &importer.ImportError{Source: path, Stage: importer.StageParse, Index: -1, Primitive: -1, Err: err}
	}
	res, err := a.imp.ImportDocument(ctx, doc, path, mgr)
	if err != nil {
		return nil, nil, err
	}
	return doc, res, nil
}

// exportTextures writes every texture in res to dir and returns the written
// paths. Files are named after the source image, or its index.
func (a *app) exportTextures(doc *gltf.Document, res *importer.Result, dir, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	done := make(map[int]bool)
	used := make(map[string]bool)
	for _, tex := range res.Textures.Textures() {
		// One image sampled two ways yields two textures with the same pixels.
		if done[tex.Image] {
			continue
		}
		mt := a.backend.Texture(tex.Handle)
		if mt == nil {
			continue
		}
		done[tex.Image] = true
		px := &texture.Pixels{Width: mt.Width, Height: mt.Height, Data: mt.Pixels}

		name := uniqueName(textureFileName(doc, tex.Image), tex.Image, used) + texture.Ext(format)
		out := filepath.Join(dir, name)
		if err := writeImage(out, px, format); err != nil {
			return written, fmt.Errorf("export image %d: %w", tex.Image, err)
		}
		written = append(written, out)
	}
	return written, nil
}

func writeImage(path string, px *texture.Pixels, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := texture.Encode(f, px.Image(), format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func textureFileName(doc *gltf.Document, image int) string {
	if image >= 0 && image < len(doc.Images) {
		img := doc.Images[image]
		if img.Name != "" {
			return sanitize(img.Name)
		}
		if img.URI != "" && !img.IsEmbeddedResource() {
			base := filepath.Base(filepath.FromSlash(img.URI))
			return sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
		}
	}
	return fmt.Sprintf("image_%d", image)
}

// uniqueName returns name, or name suffixed with the image index when an
// earlier export already took it. Names compare case-insensitively.
func uniqueName(name string, image int, used map[string]bool) string {
	candidate := name
	for n := 0; used[strings.ToLower(candidate)]; n++ {
		if n == 0 {
			candidate = fmt.Sprintf("%s_%d", name, image)
		} else {
			candidate = fmt.Sprintf("%s_%d_%d", name, image, n)
		}
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

func describeEntity(e *scene.Entity, depth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(e.Name)
	if e.Mesh != nil {
		fmt.Fprintf(&b, " [mesh %q: %d prims, %d verts]", e.Mesh.Name, len(e.Mesh.Primitives), e.Mesh.VertexCount())
	}
	if t := e.Transform.Translation; t.Len() > 0 {
		fmt.Fprintf(&b, " @(%.2f, %.2f, %.2f)", t.X(), t.Y(), t.Z())
	}
	return b.String()
}
