package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-gltf/internal/config"
	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/scene"
	"github.com/Faultbox/midgard-gltf/internal/gltftest"
)

// writeModel writes a one-triangle GLB whose material samples an external
// wood.png, and returns its path.
func writeModel(t *testing.T, dir string) string {
	t.Helper()

	b := gltftest.New()
	prim := b.Triangle()
	b.Doc().Images = append(b.Doc().Images, &gltf.Image{URI: "wood.png"})
	tex := b.AddTexture(len(b.Doc().Images)-1, nil)
	prim.Material = gltftest.Ptr(b.AddMaterial(&gltf.Material{
		Name:                 "wood",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: tex}},
	}))
	mesh := b.AddMesh("board", prim)
	b.AddScene(b.AddNode(&gltf.Node{Name: "board", Mesh: gltftest.Ptr(mesh)}))

	data, err := b.EncodeGLB()
	if err != nil {
		t.Fatalf("EncodeGLB failed: %v", err)
	}
	path := filepath.Join(dir, "board.glb")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestImportOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Import.Workers = 3
	cfg.Import.DefaultColor = "black"
	cfg.Import.Strict = true
	cfg.Import.ShareTextures = true

	a, err := newAppWithConfig(cfg)
	if err != nil {
		t.Fatalf("newAppWithConfig failed: %v", err)
	}
	if a.opts.Workers != 3 || !a.opts.Strict {
		t.Errorf("unexpected options %+v", a.opts)
	}
	if a.opts.DefaultColor != material.ColorBlack {
		t.Errorf("default color = %v, want black", a.opts.DefaultColor)
	}
	if a.opts.Textures == nil {
		t.Error("expected a shared texture cache")
	}

	cfg.Import.DefaultColor = "purple"
	if _, err := newAppWithConfig(cfg); err == nil {
		t.Error("expected error for unknown color policy")
	}
}

func TestImportFile_SearchPaths(t *testing.T) {
	root := t.TempDir()
	modelDir := filepath.Join(root, "models")
	shared := filepath.Join(root, "shared")
	for _, d := range []string{modelDir, shared} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	path := writeModel(t, modelDir)
	writePNG(t, filepath.Join(shared, "wood.png"), color.NRGBA{R: 90, G: 60, B: 30, A: 255})

	cfg := config.Default()
	cfg.Assets.SearchPaths = []string{shared, filepath.Join(root, "missing")}
	a, err := newAppWithConfig(cfg)
	if err != nil {
		t.Fatalf("newAppWithConfig failed: %v", err)
	}

	mgr, err := a.newManager(path)
	if err != nil {
		t.Fatalf("newManager failed: %v", err)
	}
	defer mgr.Close()
	if roots := mgr.Roots(); len(roots) != 2 || roots[0] != modelDir {
		t.Fatalf("roots = %v, want model dir first", roots)
	}

	doc, res, err := a.importFile(context.Background(), mgr, path)
	if err != nil {
		t.Fatalf("importFile failed: %v", err)
	}
	defer res.Destroy()

	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", res.Err())
	}
	if res.Materials[0].Texture(material.SlotAlbedo) == nil {
		t.Fatal("albedo texture was not resolved from the search path")
	}

	out := filepath.Join(root, "out")
	written, err := a.exportTextures(doc, res, out, "png")
	if err != nil {
		t.Fatalf("exportTextures failed: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "wood.png" {
		t.Fatalf("written = %v", written)
	}
	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported file is not a PNG: %v", err)
	}
	if c := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA); c.R != 90 || c.G != 60 || c.B != 30 {
		t.Errorf("exported pixel = %v", c)
	}
}

func TestTextureFileName(t *testing.T) {
	doc := &gltf.Document{Images: []*gltf.Image{
		{Name: "albedo:main"},
		{URI: "textures/bricks.jpg"},
		{URI: "data:image/png;base64,AAAA"},
	}}
	tests := []struct {
		image int
		want  string
	}{
		{0, "albedo_main"},
		{1, "bricks"},
		{2, "image_2"},
		{9, "image_9"},
	}
	for _, tt := range tests {
		if got := textureFileName(doc, tt.image); got != tt.want {
			t.Errorf("textureFileName(%d) = %q, want %q", tt.image, got, tt.want)
		}
	}
}

func TestUniqueName(t *testing.T) {
	used := make(map[string]bool)
	tests := []struct {
		name  string
		image int
		want  string
	}{
		{"wood", 0, "wood"},
		{"wood", 1, "wood_1"},
		{"Wood", 2, "Wood_2"},
		{"wood_1", 3, "wood_1_3"},
		{"wood", 1, "wood_1_1"},
		{"stone", 4, "stone"},
	}
	for _, tt := range tests {
		if got := uniqueName(tt.name, tt.image, used); got != tt.want {
			t.Errorf("uniqueName(%q, %d) = %q, want %q", tt.name, tt.image, got, tt.want)
		}
	}
}

func TestExportTextures_DuplicateImageNames(t *testing.T) {
	b := gltftest.New()
	first := b.AddImagePNG(2, 2, color.NRGBA{R: 255, A: 255})
	second := b.AddImagePNG(2, 2, color.NRGBA{B: 255, A: 255})
	b.Doc().Images[first].Name = "wood"
	b.Doc().Images[second].Name = "wood"
	var roots []int
	for _, img := range []int{first, second} {
		mat := b.AddMaterial(&gltf.Material{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: b.AddTexture(img, nil)},
			},
		})
		p := b.Triangle()
		p.Material = gltftest.Ptr(mat)
		roots = append(roots, b.AddNode(&gltf.Node{Mesh: gltftest.Ptr(b.AddMesh("", p))}))
	}
	b.AddScene(roots...)
	data, err := b.EncodeGLB()
	if err != nil {
		t.Fatalf("EncodeGLB failed: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dup.glb")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	cfg := config.Default()
	cfg.Import.Workers = 4
	a, err := newAppWithConfig(cfg)
	if err != nil {
		t.Fatalf("newAppWithConfig failed: %v", err)
	}
	mgr, err := a.newManager(path)
	if err != nil {
		t.Fatalf("newManager failed: %v", err)
	}
	defer mgr.Close()
	doc, res, err := a.importFile(context.Background(), mgr, path)
	if err != nil {
		t.Fatalf("importFile failed: %v", err)
	}
	defer res.Destroy()

	written, err := a.exportTextures(doc, res, filepath.Join(dir, "out"), "png")
	if err != nil {
		t.Fatalf("exportTextures failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written = %v, want 2 files", written)
	}

	want := map[string]color.NRGBA{
		"wood.png":   {R: 255, A: 255},
		"wood_1.png": {B: 255, A: 255},
	}
	for _, out := range written {
		c, ok := want[filepath.Base(out)]
		if !ok {
			t.Errorf("unexpected file %s", out)
			continue
		}
		raw, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("%s is not a PNG: %v", out, err)
		}
		if got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA); got != c {
			t.Errorf("%s pixel = %v, want %v", filepath.Base(out), got, c)
		}
	}
}

func TestDescribeEntity(t *testing.T) {
	e := scene.CreateEntity("lamp")
	tr := scene.Identity()
	tr.Translation[1] = 2
	e.SetTransform(tr)

	got := describeEntity(e, 2)
	if !strings.HasPrefix(got, "    lamp") || !strings.Contains(got, "@(0.00, 2.00, 0.00)") {
		t.Errorf("describeEntity = %q", got)
	}
}
