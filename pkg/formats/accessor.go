package formats

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
)

// ComponentType is the glTF componentType enum, using its wire codes.
type ComponentType uint32

const (
	ComponentByte   ComponentType = 5120
	ComponentUbyte  ComponentType = 5121
	ComponentShort  ComponentType = 5122
	ComponentUshort ComponentType = 5123
	ComponentInt    ComponentType = 5124
	ComponentUint   ComponentType = 5125
	ComponentFloat  ComponentType = 5126
	ComponentDouble ComponentType = 5130
)

// MaxAccessorBytes bounds the memory a single accessor may allocate when it
// has no buffer view or is gathered from an interleaved view.
const MaxAccessorBytes = 1 << 28

var componentSizes = map[ComponentType]int{
	ComponentByte:   1,
	ComponentUbyte:  1,
	ComponentShort:  2,
	ComponentUshort: 2,
	ComponentInt:    4,
	ComponentUint:   4,
	ComponentFloat:  4,
	ComponentDouble: 8,
}

// componentCodes maps the decoder's component enum onto wire codes.
var componentCodes = map[gltf.ComponentType]ComponentType{
	gltf.ComponentByte:   ComponentByte,
	gltf.ComponentUbyte:  ComponentUbyte,
	gltf.ComponentShort:  ComponentShort,
	gltf.ComponentUshort: ComponentUshort,
	gltf.ComponentUint:   ComponentUint,
	gltf.ComponentFloat:  ComponentFloat,
}

var elementArity = map[gltf.AccessorType]int{
	gltf.AccessorScalar: 1,
	gltf.AccessorVec2:   2,
	gltf.AccessorVec3:   3,
	gltf.AccessorVec4:   4,
	gltf.AccessorMat2:   4,
	gltf.AccessorMat3:   9,
	gltf.AccessorMat4:   16,
}

// Size returns the byte size of one component, or 0 for unknown types.
func (c ComponentType) Size() int {
	return componentSizes[c]
}

// String returns a human-readable component type name.
func (c ComponentType) String() string {
	switch c {
	case ComponentByte:
		return "BYTE"
	case ComponentUbyte:
		return "UNSIGNED_BYTE"
	case ComponentShort:
		return "SHORT"
	case ComponentUshort:
		return "UNSIGNED_SHORT"
	case ComponentInt:
		return "INT"
	case ComponentUint:
		return "UNSIGNED_INT"
	case ComponentFloat:
		return "FLOAT"
	case ComponentDouble:
		return "DOUBLE"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(c))
	}
}

// ComponentSize returns the byte size of a component type.
func ComponentSize(c ComponentType) (int, error) {
	size, ok := componentSizes[c]
	if !ok {
		return 0, fmt.Errorf("%w: component type %s", ErrUnsupportedFormat, c)
	}
	return size, nil
}

// Arity returns the number of components in one element of type t.
func Arity(t gltf.AccessorType) (int, error) {
	n, ok := elementArity[t]
	if !ok {
		return 0, fmt.Errorf("%w: element type %d", ErrUnsupportedFormat, t)
	}
	return n, nil
}

// ResolveSpan returns the count*arity*componentSize bytes of buf that start at
// viewOffset+accessorOffset. The returned slice aliases buf and is capped so
// appends cannot write into it.
func ResolveSpan(buf []byte, viewOffset, accessorOffset, count, arity, componentSize int) ([]byte, error) {
	if viewOffset < 0 || accessorOffset < 0 || count < 0 || arity <= 0 || componentSize <= 0 {
		return nil, fmt.Errorf("%w: invalid span (view offset %d, offset %d, count %d, arity %d, size %d)",
			ErrBounds, viewOffset, accessorOffset, count, arity, componentSize)
	}

	elem := arity * componentSize
	if count > (math.MaxInt-viewOffset-accessorOffset)/elem {
		return nil, fmt.Errorf("%w: span length overflows (count %d)", ErrBounds, count)
	}

	start := viewOffset + accessorOffset
	end := start + count*elem
	if end > len(buf) {
		return nil, fmt.Errorf("%w: span [%d:%d] of %d-byte buffer", ErrBounds, start, end, len(buf))
	}
	return buf[start:end:end], nil
}

// Span is a resolved, tightly packed accessor.
type Span struct {
	Data       []byte
	Component  ComponentType
	Arity      int
	Count      int
	Normalized bool
}

// ElementSize returns the byte size of one element.
func (s Span) ElementSize() int {
	return s.Arity * s.Component.Size()
}

// ResolveAccessor resolves accessor index of doc to its packed bytes.
// Interleaved views are gathered into a new slice; otherwise the result
// aliases the buffer. Accessors without a buffer view resolve to zeros.
func ResolveAccessor(doc *gltf.Document, index int) (Span, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return Span{}, fmt.Errorf("%w: accessor %d of %d", ErrReference, index, len(doc.Accessors))
	}
	acc := doc.Accessors[index]
	if acc.Sparse != nil {
		return Span{}, fmt.Errorf("%w: accessor %d is sparse", ErrUnsupportedFormat, index)
	}

	ct, ok := componentCodes[acc.ComponentType]
	if !ok {
		return Span{}, fmt.Errorf("%w: accessor %d component type %d", ErrUnsupportedFormat, index, acc.ComponentType)
	}
	arity, err := Arity(acc.Type)
	if err != nil {
		return Span{}, fmt.Errorf("accessor %d: %w", index, err)
	}
	size := ct.Size()

	span := Span{
		Component:  ct,
		Arity:      arity,
		Count:      acc.Count,
		Normalized: acc.Normalized,
	}

	if acc.Count < 0 {
		return Span{}, fmt.Errorf("%w: accessor %d count %d", ErrBounds, index, acc.Count)
	}
	elem := arity * size

	if acc.BufferView == nil {
		if acc.Count > MaxAccessorBytes/elem {
			return Span{}, fmt.Errorf("%w: accessor %d count %d exceeds %d bytes", ErrBounds, index, acc.Count, MaxAccessorBytes)
		}
		span.Data = make([]byte, acc.Count*elem)
		return span, nil
	}

	view, data, err := bufferViewData(doc, *acc.BufferView)
	if err != nil {
		return Span{}, fmt.Errorf("accessor %d: %w", index, err)
	}

	stride := view.ByteStride
	if stride == 0 || stride == elem {
		b, err := ResolveSpan(data, 0, acc.ByteOffset, acc.Count, arity, size)
		if err != nil {
			return Span{}, fmt.Errorf("accessor %d: %w", index, err)
		}
		span.Data = b
		return span, nil
	}
	if stride < elem {
		return Span{}, fmt.Errorf("%w: accessor %d stride %d smaller than element size %d",
			ErrBounds, index, stride, elem)
	}

	// The last element must end inside the view before anything is allocated.
	if acc.Count > 0 {
		room := len(data) - acc.ByteOffset - elem
		if acc.ByteOffset < 0 || room < 0 || acc.Count-1 > room/stride {
			return Span{}, fmt.Errorf("%w: accessor %d: %d elements of stride %d at offset %d exceed %d-byte view",
				ErrBounds, index, acc.Count, stride, acc.ByteOffset, len(data))
		}
	}

	// Interleaved: gather each element into a packed copy.
	packed := make([]byte, acc.Count*elem)
	for i := 0; i < acc.Count; i++ {
		b, err := ResolveSpan(data, acc.ByteOffset, i*stride, 1, arity, size)
		if err != nil {
			return Span{}, fmt.Errorf("accessor %d element %d: %w", index, i, err)
		}
		copy(packed[i*elem:], b)
	}
	span.Data = packed
	return span, nil
}

// ReadBufferView returns the bytes covered by buffer view index.
func ReadBufferView(doc *gltf.Document, index int) ([]byte, error) {
	_, data, err := bufferViewData(doc, index)
	return data, err
}

// bufferViewData bounds-checks a buffer view against its buffer and returns
// the view's bytes.
func bufferViewData(doc *gltf.Document, index int) (*gltf.BufferView, []byte, error) {
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, nil, fmt.Errorf("%w: buffer view %d of %d", ErrReference, index, len(doc.BufferViews))
	}
	view := doc.BufferViews[index]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, nil, fmt.Errorf("%w: buffer %d of %d (view %d)", ErrReference, view.Buffer, len(doc.Buffers), index)
	}
	buf := doc.Buffers[view.Buffer].Data
	data, err := ResolveSpan(buf, view.ByteOffset, 0, view.ByteLength, 1, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("buffer view %d: %w", index, err)
	}
	return view, data, nil
}

// Float32s decodes the span into Count*Arity floats. Integer components are
// normalized to [0,1] or [-1,1] when the accessor is normalized, and cast
// otherwise.
func (s Span) Float32s() ([]float32, error) {
	n := s.Count * s.Arity
	size := s.Component.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: component type %s", ErrUnsupportedFormat, s.Component)
	}
	if len(s.Data) < n*size {
		return nil, fmt.Errorf("%w: %d bytes for %d components", ErrBounds, len(s.Data), n)
	}

	out := make([]float32, n)
	d := s.Data
	le := binary.LittleEndian
	for i := 0; i < n; i++ {
		o := i * size
		switch s.Component {
		case ComponentFloat:
			out[i] = math.Float32frombits(le.Uint32(d[o:]))
		case ComponentDouble:
			out[i] = float32(math.Float64frombits(le.Uint64(d[o:])))
		case ComponentByte:
			v := float32(int8(d[o]))
			if s.Normalized {
				v = max(v/127, -1)
			}
			out[i] = v
		case ComponentUbyte:
			v := float32(d[o])
			if s.Normalized {
				v /= 255
			}
			out[i] = v
		case ComponentShort:
			v := float32(int16(le.Uint16(d[o:])))
			if s.Normalized {
				v = max(v/32767, -1)
			}
			out[i] = v
		case ComponentUshort:
			v := float32(le.Uint16(d[o:]))
			if s.Normalized {
				v /= 65535
			}
			out[i] = v
		case ComponentInt:
			out[i] = float32(int32(le.Uint32(d[o:])))
		case ComponentUint:
			out[i] = float32(le.Uint32(d[o:]))
		}
	}
	return out, nil
}

// Uint32s widens scalar unsigned index data (8, 16 or 32 bit) to uint32.
func (s Span) Uint32s() ([]uint32, error) {
	if s.Arity != 1 {
		return nil, fmt.Errorf("%w: index data with arity %d", ErrUnsupportedFormat, s.Arity)
	}
	size := s.Component.Size()
	switch s.Component {
	case ComponentUbyte, ComponentUshort, ComponentUint:
	default:
		return nil, fmt.Errorf("%w: index component type %s", ErrUnsupportedFormat, s.Component)
	}
	if len(s.Data) < s.Count*size {
		return nil, fmt.Errorf("%w: %d bytes for %d indices", ErrBounds, len(s.Data), s.Count)
	}

	out := make([]uint32, s.Count)
	le := binary.LittleEndian
	for i := range out {
		switch size {
		case 1:
			out[i] = uint32(s.Data[i])
		case 2:
			out[i] = uint32(le.Uint16(s.Data[i*2:]))
		case 4:
			out[i] = le.Uint32(s.Data[i*4:])
		}
	}
	return out, nil
}
