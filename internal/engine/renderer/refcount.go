package renderer

import "sync/atomic"

// RefCount is an atomic reference counter. The zero value holds one
// reference, owned by whoever created the resource.
type RefCount struct {
	extra atomic.Int32
}

// Retain adds a reference.
func (r *RefCount) Retain() {
	r.extra.Add(1)
}

// Release drops a reference and reports whether it was the last one.
func (r *RefCount) Release() bool {
	return r.extra.Add(-1) == -1
}

// Count returns the number of live references.
func (r *RefCount) Count() int32 {
	return max(r.extra.Load()+1, 0)
}
