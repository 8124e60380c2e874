package texture

import (
	"cmp"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// Source identifies the document textures are read from. Name keys the
// cache, so a cache shared across imports dedups images by Name, image index
// and sampler params.
type Source struct {
	Name string
	Doc  *gltf.Document
	FS   fs.FS
}

type cacheKey struct {
	source string
	image  int
	params renderer.TextureParams
}

type cacheEntry struct {
	once sync.Once
	tex  *Texture
	err  error
}

// Cache creates each (image, sampler params) texture at most once, so the
// result does not depend on which material asks first. It is safe for
// concurrent use by material translation workers.
type Cache struct {
	backend renderer.Backend

	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	order   []cacheKey

	// Stats
	hits   int
	misses int
}

// NewCache creates an empty cache creating textures on backend.
func NewCache(backend renderer.Backend) *Cache {
	return &Cache{
		backend: backend,
		entries: make(map[cacheKey]*cacheEntry),
	}
}

// Texture returns the texture for glTF texture index textureIndex. The
// caller owns one reference and must Release it.
func (c *Cache) Texture(src Source, textureIndex int) (*Texture, error) {
	doc := src.Doc
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return nil, fmt.Errorf("%w: texture %d of %d", formats.ErrReference, textureIndex, len(doc.Textures))
	}
	t := doc.Textures[textureIndex]
	if t.Source == nil {
		return nil, fmt.Errorf("%w: texture %d has no image source", formats.ErrReference, textureIndex)
	}
	image := *t.Source
	if image < 0 || image >= len(doc.Images) {
		return nil, fmt.Errorf("%w: texture %d image %d of %d", formats.ErrReference, textureIndex, image, len(doc.Images))
	}

	params := DefaultParams
	if t.Sampler != nil {
		s := *t.Sampler
		if s < 0 || s >= len(doc.Samplers) {
			return nil, fmt.Errorf("%w: texture %d sampler %d of %d", formats.ErrReference, textureIndex, s, len(doc.Samplers))
		}
		params = ParamsFromSampler(doc.Samplers[s])
	}

	key := cacheKey{source: src.Name, image: image, params: params}
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
		e = &cacheEntry{}
		c.entries[key] = e
		c.order = append(c.order, key)
	}
	c.mu.Unlock()

	e.once.Do(func() {
		tex, err := c.create(src, image, params)
		c.mu.Lock()
		e.tex, e.err = tex, err
		c.mu.Unlock()
	})
	if e.err != nil {
		return nil, e.err
	}
	e.tex.Retain()
	return e.tex, nil
}

func (c *Cache) create(src Source, image int, params renderer.TextureParams) (*Texture, error) {
	data, _, err := formats.ReadImage(src.Doc, image, src.FS)
	if err != nil {
		return nil, err
	}
	px, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", image, err)
	}
	handle, err := c.backend.CreateTextureFromPixels(px.Width, px.Height, px.Data, params)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", image, err)
	}

	logger.Debug("texture created",
		zap.String("source", src.Name),
		zap.Int("image", image),
		zap.String("format", px.Format),
		zap.Int("width", px.Width),
		zap.Int("height", px.Height))

	return &Texture{
		Handle:  handle,
		Width:   px.Width,
		Height:  px.Height,
		Image:   image,
		Params:  params,
		backend: c.backend,
	}, nil
}

// Len returns the number of successfully created textures.
func (c *Cache) Len() int {
	return len(c.Textures())
}

// Textures returns the created textures ordered by source name, image
// index and sampler params, independent of request order.
func (c *Cache) Textures() []*Texture {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := slices.Clone(c.order)
	slices.SortFunc(keys, compareKeys)
	out := make([]*Texture, 0, len(keys))
	for _, k := range keys {
		if e := c.entries[k]; e.tex != nil {
			out = append(out, e.tex)
		}
	}
	return out
}

func compareKeys(a, b cacheKey) int {
	return cmp.Or(
		cmp.Compare(a.source, b.source),
		cmp.Compare(a.image, b.image),
		cmp.Compare(a.params.MinFilter, b.params.MinFilter),
		cmp.Compare(a.params.MagFilter, b.params.MagFilter),
		cmp.Compare(a.params.WrapS, b.params.WrapS),
		cmp.Compare(a.params.WrapT, b.params.WrapT),
	)
}

// Clear drops the cache's own reference on every texture. Textures still
// held by materials stay alive until those release them.
func (c *Cache) Clear() {
	c.mu.Lock()
	entries := c.entries
	order := c.order
	c.entries = make(map[cacheKey]*cacheEntry)
	c.order = nil
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()

	for _, k := range order {
		if e := entries[k]; e.tex != nil {
			e.tex.Release()
		}
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
