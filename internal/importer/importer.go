// Package importer turns glTF documents into entity trees backed by
// reference-counted meshes, materials and textures.
package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/model"
	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
	"github.com/Faultbox/midgard-gltf/internal/engine/scene"
	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// Importer imports documents onto one backend. It is safe for concurrent use.
type Importer struct {
	backend renderer.Backend
	opts    Options
}

// New creates an importer.
func New(backend renderer.Backend, opts Options) *Importer {
	return &Importer{backend: backend, opts: opts}
}

// ImportFile imports a .gltf or .glb file. External buffers and images are
// resolved relative to the file's directory.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return im.ImportReader(ctx, f, path, os.DirFS(filepath.Dir(path)))
}

// ImportReader decodes r and imports it. name identifies the document in
// errors, logs and the shared texture cache.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader, name string, fsys fs.FS) (*Result, error) {
	start := time.Now()
	doc, err := formats.Decode(r, fsys)
	if err != nil {
		return nil, &ImportError{Source: name, Stage: StageParse, Index: -1, Primitive: -1, Err: err}
	}
	logger.Debug("document decoded", zap.String("source", name), zap.Duration("took", time.Since(start)))
	return im.ImportDocument(ctx, doc, name, fsys)
}

// ImportDocument imports an already decoded document. Parse, bounds and
// scene errors fail the import; primitives failing on a reference or format
// error are skipped and listed in Result.Failures unless Options.Strict.
func (im *Importer) ImportDocument(ctx context.Context, doc *gltf.Document, name string, fsys fs.FS) (*Result, error) {
	start := time.Now()

	res := &Result{
		Name:      name,
		Meshes:    make([]*model.Mesh, len(doc.Meshes)),
		Materials: make([]*material.Material, len(doc.Materials)),
		Default:   material.Default(im.opts.DefaultColor),
		Textures:  im.opts.Textures,
	}
	if res.Textures == nil {
		res.Textures = texture.NewCache(im.backend)
		res.ownsTextures = true
	}
	src := texture.Source{Name: name, Doc: doc, FS: fsys}

	fail := func(err error) (*Result, error) {
		res.Destroy()
		return nil, err
	}

	if err := im.translateMaterials(ctx, src, res); err != nil {
		return fail(err)
	}
	if err := im.assembleMeshes(ctx, doc, res); err != nil {
		return fail(err)
	}
	if im.opts.Strict && len(res.Failures) > 0 {
		return fail(res.Failures[0])
	}

	b := scene.NewBuilder(doc, res.Meshes)
	if im.opts.MaxDepth > 0 {
		b.MaxDepth = im.opts.MaxDepth
	}
	root, err := b.BuildScene(rootName(name), formats.RootNodes(doc))
	if err != nil {
		return fail(&ImportError{Source: name, Stage: StageScene, Index: -1, Primitive: -1, Err: err})
	}
	res.Root = root

	st := res.Stats()
	logger.Info("import complete",
		zap.String("source", name),
		zap.Int("entities", st.Entities),
		zap.Int("meshes", st.Meshes),
		zap.Int("primitives", st.Primitives),
		zap.Int("materials", st.Materials),
		zap.Int("textures", st.Textures),
		zap.Int("failures", st.Failures),
		zap.Duration("took", time.Since(start)))
	for _, f := range res.Failures {
		logger.Warn("primitive skipped", zap.String("source", name), zap.Error(f))
	}
	return res, nil
}

func (im *Importer) translateMaterials(ctx context.Context, src texture.Source, res *Result) error {
	tr := material.NewTranslator(res.Textures, im.opts.DefaultColor)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.workers())
	for i := range res.Materials {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := tr.Translate(src, i)
			if err != nil {
				return &ImportError{Source: src.Name, Stage: StageMaterial, Index: i, Primitive: -1, Err: err}
			}
			res.Materials[i] = m
			return nil
		})
	}
	return g.Wait()
}

func (im *Importer) assembleMeshes(ctx context.Context, doc *gltf.Document, res *Result) error {
	asm := &model.Assembler{
		Backend:         im.backend,
		Materials:       res.materialFor,
		GenerateNormals: im.opts.GenerateNormals,
	}
	if im.opts.DefaultColor == material.ColorWhite {
		asm.DefaultColor = mgl32.Vec4{1, 1, 1, 1}
	}

	var mu sync.Mutex
	failures := make([][]*ImportError, len(doc.Meshes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.workers())
	for i := range doc.Meshes {
		g.Go(func() error {
			mesh, skipped, err := asm.Mesh(ctx, doc, i)
			if err != nil {
				return &ImportError{Source: res.Name, Stage: StageMesh, Index: i, Primitive: -1, Err: err}
			}
			res.Meshes[i] = mesh

			if len(skipped) > 0 {
				errs := make([]*ImportError, len(skipped))
				for j, f := range skipped {
					errs[j] = &ImportError{Source: res.Name, Stage: StageMesh, Index: i, Primitive: f.Primitive, Err: f.Err}
				}
				mu.Lock()
				failures[i] = errs
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()

	for _, errs := range failures {
		res.Failures = append(res.Failures, errs...)
	}
	return err
}

// materialFor resolves a primitive's material index against the translated
// materials.
func (r *Result) materialFor(index *int) (*material.Material, error) {
	if index == nil {
		return r.Default, nil
	}
	i := *index
	if i < 0 || i >= len(r.Materials) || r.Materials[i] == nil {
		return nil, fmt.Errorf("%w: material %d of %d", formats.ErrReference, i, len(r.Materials))
	}
	return r.Materials[i], nil
}

// rootName names the scene root after the directory holding the document,
// falling back to the file name without extension.
func rootName(name string) string {
	dir := filepath.Base(filepath.Dir(name))
	if dir != "." && dir != string(filepath.Separator) && dir != "" {
		return dir
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "scene"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
