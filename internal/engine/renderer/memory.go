package renderer

import (
	"fmt"
	"sync"
)

// MemoryTexture is a texture held by MemoryBackend.
type MemoryTexture struct {
	Width  int
	Height int
	Pixels []byte
	Params TextureParams
}

// MemoryBuffer is a vertex or index buffer held by MemoryBackend.
type MemoryBuffer struct {
	Layout  Layout
	Data    []byte
	Indices []uint32
}

// MemoryBackend keeps uploaded resources in memory. It backs tooling and tests
// where no GPU context exists.
type MemoryBackend struct {
	mu       sync.RWMutex
	next     uint32
	textures map[TextureHandle]*MemoryTexture
	buffers  map[BufferHandle]*MemoryBuffer

	// Stats
	created   int
	destroyed int
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		textures: make(map[TextureHandle]*MemoryTexture),
		buffers:  make(map[BufferHandle]*MemoryBuffer),
	}
}

// CreateTextureFromPixels stores a copy of the pixels.
func (m *MemoryBackend) CreateTextureFromPixels(width, height int, pixels []byte, params TextureParams) (TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return 0, fmt.Errorf("texture %dx%d needs %d bytes, got %d", width, height, width*height*4, len(pixels))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h := TextureHandle(m.nextID())
	m.textures[h] = &MemoryTexture{
		Width:  width,
		Height: height,
		Pixels: append([]byte(nil), pixels...),
		Params: params,
	}
	m.created++
	return h, nil
}

// CreateVertexBuffer stores a copy of the vertex data.
func (m *MemoryBackend) CreateVertexBuffer(layout Layout, data []byte) (BufferHandle, error) {
	stride := layout.Stride()
	if stride == 0 {
		return 0, fmt.Errorf("empty vertex layout")
	}
	if len(data)%stride != 0 {
		return 0, fmt.Errorf("vertex data length %d is not a multiple of stride %d", len(data), stride)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h := BufferHandle(m.nextID())
	m.buffers[h] = &MemoryBuffer{
		Layout: append(Layout(nil), layout...),
		Data:   append([]byte(nil), data...),
	}
	m.created++
	return h, nil
}

// CreateIndexBuffer stores a copy of the indices.
func (m *MemoryBackend) CreateIndexBuffer(indices []uint32) (BufferHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := BufferHandle(m.nextID())
	m.buffers[h] = &MemoryBuffer{Indices: append([]uint32(nil), indices...)}
	m.created++
	return h, nil
}

// DestroyTexture drops a texture.
func (m *MemoryBackend) DestroyTexture(h TextureHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.textures[h]; ok {
		delete(m.textures, h)
		m.destroyed++
	}
}

// DestroyBuffer drops a buffer.
func (m *MemoryBackend) DestroyBuffer(h BufferHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buffers[h]; ok {
		delete(m.buffers, h)
		m.destroyed++
	}
}

// Texture returns a live texture, or nil.
func (m *MemoryBackend) Texture(h TextureHandle) *MemoryTexture {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.textures[h]
}

// Buffer returns a live buffer, or nil.
func (m *MemoryBackend) Buffer(h BufferHandle) *MemoryBuffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buffers[h]
}

// Live returns the number of live textures and buffers.
func (m *MemoryBackend) Live() (textures, buffers int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.textures), len(m.buffers)
}

// Stats returns how many resources were created and destroyed.
func (m *MemoryBackend) Stats() (created, destroyed int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.created, m.destroyed
}

// nextID must be called with mu held. Handle 0 is never issued.
func (m *MemoryBackend) nextID() uint32 {
	m.next++
	return m.next
}
