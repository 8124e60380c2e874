package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"slices"
	"sync"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/qmuntal/gltf"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
	"github.com/Faultbox/midgard-gltf/internal/gltftest"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

func TestDecode_BMP(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("bmp.Encode failed: %v", err)
	}

	px, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if px.Format != "bmp" || px.Width != 3 || px.Height != 2 {
		t.Fatalf("got %s %dx%d", px.Format, px.Width, px.Height)
	}
	if len(px.Data) != 3*2*4 {
		t.Fatalf("expected %d bytes, got %d", 3*2*4, len(px.Data))
	}
	o := (1*3 + 1) * 4
	if got := px.Data[o : o+4]; !bytes.Equal(got, []byte{10, 20, 30, 255}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestDecode_Formats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:], []byte{40, 80, 120, 255})
	}

	encoders := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{"png", func(w *bytes.Buffer) error { return png.Encode(w, src) }},
		{"jpeg", func(w *bytes.Buffer) error { return jpeg.Encode(w, src, &jpeg.Options{Quality: 100}) }},
		{"bmp", func(w *bytes.Buffer) error { return bmp.Encode(w, src) }},
		{"tga", func(w *bytes.Buffer) error { return tga.Encode(w, src) }},
		{"webp", func(w *bytes.Buffer) error { return Encode(w, src, FormatWebP) }},
	}

	for _, tt := range encoders {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			px, err := Decode(buf.Bytes())
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if px.Format != tt.format {
				t.Errorf("format = %q, want %q", px.Format, tt.format)
			}
			if px.Width != 2 || px.Height != 2 {
				t.Errorf("size = %dx%d", px.Width, px.Height)
			}
			if tt.format == "jpeg" {
				return
			}
			if got := px.Data[:4]; !bytes.Equal(got, []byte{40, 80, 120, 255}) {
				t.Errorf("pixel (0,0) = %v", got)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image")} {
		if _, err := Decode(data); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%q): expected ErrDecode, got %v", data, err)
		}
	}
}

func TestToNRGBA_SubImageOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(2, 2, color.RGBA{R: 255, A: 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	dst := ToNRGBA(sub)
	if dst.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	if c := dst.NRGBAAt(0, 0); c.R != 255 || c.A != 255 {
		t.Errorf("origin pixel = %v", c)
	}
}

func TestParamsFromSampler(t *testing.T) {
	tests := []struct {
		name    string
		sampler *gltf.Sampler
		want    renderer.TextureParams
	}{
		{"nil", nil, DefaultParams},
		{"undefined", &gltf.Sampler{}, DefaultParams},
		{
			"nearest clamp mirror",
			&gltf.Sampler{
				MinFilter: gltf.MinNearestMipMapLinear,
				MagFilter: gltf.MagNearest,
				WrapS:     gltf.WrapClampToEdge,
				WrapT:     gltf.WrapMirroredRepeat,
			},
			renderer.TextureParams{
				MinFilter: renderer.FilterNearest,
				MagFilter: renderer.FilterNearest,
				WrapS:     renderer.WrapClampToEdge,
				WrapT:     renderer.WrapMirroredRepeat,
			},
		},
		{
			"linear mipmap",
			&gltf.Sampler{MinFilter: gltf.MinLinearMipMapNearest, MagFilter: gltf.MagLinear},
			DefaultParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParamsFromSampler(tt.sampler); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func testSource(t *testing.T) (Source, *gltftest.Builder) {
	t.Helper()
	b := gltftest.New()
	red := b.AddImagePNG(2, 2, color.NRGBA{R: 255, A: 255})
	nearest := b.AddSampler(&gltf.Sampler{MagFilter: gltf.MagNearest, MinFilter: gltf.MinNearest})
	b.AddTexture(red, nil)                   // 0
	b.AddTexture(red, gltftest.Ptr(nearest)) // 1, same image
	b.AddTexture(red, gltftest.Ptr(9))       // 2, bad sampler
	b.AddTexture(5, nil)                     // 3, bad image
	b.AddTexture(red, nil)                   // 4, same image and sampler as 0
	return Source{Name: "test.glb", Doc: b.Build()}, b
}

func TestCache_DedupByImageAndSampler(t *testing.T) {
	src, _ := testSource(t)
	backend := renderer.NewMemoryBackend()
	cache := NewCache(backend)

	a, err := cache.Texture(src, 0)
	if err != nil {
		t.Fatalf("Texture(0) failed: %v", err)
	}
	same, err := cache.Texture(src, 4)
	if err != nil {
		t.Fatalf("Texture(4) failed: %v", err)
	}
	if a != same {
		t.Fatal("textures sharing an image and sampler should be the same object")
	}
	if a.Params != DefaultParams {
		t.Errorf("params = %+v, want defaults", a.Params)
	}
	if a.Width != 2 || a.Height != 2 {
		t.Errorf("size = %dx%d", a.Width, a.Height)
	}
	if got := a.Refs(); got != 3 {
		t.Errorf("refs = %d, want 3 (cache + 2 callers)", got)
	}

	nearest, err := cache.Texture(src, 1)
	if err != nil {
		t.Fatalf("Texture(1) failed: %v", err)
	}
	if nearest == a {
		t.Fatal("a different sampler should get its own texture")
	}
	if nearest.Params.MagFilter != renderer.FilterNearest || nearest.Image != a.Image {
		t.Errorf("nearest texture = image %d, params %+v", nearest.Image, nearest.Params)
	}

	if tex, _ := backend.Live(); tex != 2 {
		t.Errorf("expected 2 live textures, got %d", tex)
	}
	if hits, misses := cache.Stats(); hits != 1 || misses != 2 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestCache_SamplerChoiceIsOrderIndependent(t *testing.T) {
	src, _ := testSource(t)

	var listed [][]renderer.TextureParams
	for _, order := range [][]int{{0, 1}, {1, 0}} {
		cache := NewCache(renderer.NewMemoryBackend())
		got := make(map[int]*Texture)
		for _, idx := range order {
			tex, err := cache.Texture(src, idx)
			if err != nil {
				t.Fatalf("Texture(%d) failed: %v", idx, err)
			}
			got[idx] = tex
		}
		if got[0].Params != DefaultParams {
			t.Errorf("order %v: texture 0 params = %+v", order, got[0].Params)
		}
		if got[1].Params.MagFilter != renderer.FilterNearest {
			t.Errorf("order %v: texture 1 params = %+v", order, got[1].Params)
		}
		var params []renderer.TextureParams
		for _, tex := range cache.Textures() {
			params = append(params, tex.Params)
		}
		listed = append(listed, params)
	}
	if len(listed[0]) != 2 || !slices.Equal(listed[0], listed[1]) {
		t.Errorf("Textures() order depends on request order: %v vs %v", listed[0], listed[1])
	}
}

func TestCache_Errors(t *testing.T) {
	src, _ := testSource(t)
	cache := NewCache(renderer.NewMemoryBackend())

	for _, idx := range []int{-1, 2, 3, 42} {
		if _, err := cache.Texture(src, idx); !errors.Is(err, formats.ErrReference) {
			t.Errorf("Texture(%d): expected ErrReference, got %v", idx, err)
		}
	}
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d", cache.Len())
	}
}

func TestCache_UndecodableImage(t *testing.T) {
	b := gltftest.New()
	view := b.AddView([]byte("garbage"), 0)
	b.Doc().Images = append(b.Doc().Images, &gltf.Image{BufferView: gltftest.Ptr(view), MimeType: "image/png"})
	b.AddTexture(0, nil)
	src := Source{Name: "bad", Doc: b.Build()}

	cache := NewCache(renderer.NewMemoryBackend())
	for i := 0; i < 2; i++ {
		if _, err := cache.Texture(src, 0); !errors.Is(err, ErrDecode) {
			t.Errorf("attempt %d: expected ErrDecode, got %v", i, err)
		}
	}
	if _, misses := cache.Stats(); misses != 1 {
		t.Errorf("failed image should be attempted once, got %d misses", misses)
	}
}

func TestCache_ReleaseDestroysOnLast(t *testing.T) {
	src, _ := testSource(t)
	backend := renderer.NewMemoryBackend()
	cache := NewCache(backend)

	tex, err := cache.Texture(src, 0)
	if err != nil {
		t.Fatalf("Texture failed: %v", err)
	}

	cache.Clear()
	if n, _ := backend.Live(); n != 1 {
		t.Fatalf("texture destroyed while still referenced")
	}
	tex.Release()
	if n, _ := backend.Live(); n != 0 {
		t.Errorf("expected texture destroyed, %d live", n)
	}
}

func TestCache_SeparateSourcesDoNotAlias(t *testing.T) {
	src, _ := testSource(t)
	other := src
	other.Name = "copy.glb"

	cache := NewCache(renderer.NewMemoryBackend())
	a, _ := cache.Texture(src, 0)
	b, _ := cache.Texture(other, 0)
	if a == nil || b == nil || a == b {
		t.Errorf("expected two distinct textures, got %p and %p", a, b)
	}
}

func TestCache_ConcurrentOnce(t *testing.T) {
	src, _ := testSource(t)
	backend := renderer.NewMemoryBackend()
	cache := NewCache(backend)

	const workers = 16
	var wg sync.WaitGroup
	got := make([]*Texture, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = cache.Texture(src, (i%2)*4)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("worker %d got a different texture", i)
		}
	}
	if created, _ := backend.Stats(); created != 1 {
		t.Errorf("expected 1 backend texture, got %d", created)
	}
	if refs := got[0].Refs(); refs != workers+1 {
		t.Errorf("refs = %d, want %d", refs, workers+1)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	src := &Pixels{Width: 2, Height: 2, Data: []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 10, 20, 30, 255,
	}}

	for _, format := range []string{FormatWebP, FormatPNG} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src.Image(), format); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			px, err := Decode(buf.Bytes())
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if px.Format != format {
				t.Errorf("decoded format %q, want %q", px.Format, format)
			}
			if !bytes.Equal(px.Data, src.Data) {
				t.Errorf("lossless round trip changed pixels:\n got %v\nwant %v", px.Data, src.Data)
			}
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if err := Encode(&bytes.Buffer{}, img, "gif"); !errors.Is(err, ErrExportFormat) {
		t.Errorf("expected ErrExportFormat, got %v", err)
	}
	if Ext("PNG") != ".png" || Ext("webp") != ".webp" {
		t.Error("unexpected export extensions")
	}
}
