package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns a box that contains nothing; extending it by one
// point yields that point.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Valid reports whether the box contains at least one point.
func (b Bounds) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Center returns the box center.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent per axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if !o.Valid() {
		return b
	}
	updateBounds(&b, o.Min)
	updateBounds(&b, o.Max)
	return b
}

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Sphere is a bounding sphere grown one point at a time. A negative radius
// means empty.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// EmptySphere returns a sphere that contains nothing.
func EmptySphere() Sphere {
	return Sphere{Radius: -1}
}

// Grow expands s just enough to contain p, shifting the center toward p.
func (s *Sphere) Grow(p mgl32.Vec3) {
	if s.Radius < 0 {
		s.Center = p
		s.Radius = 0
		return
	}
	d := p.Sub(s.Center)
	dist := d.Len()
	if dist <= s.Radius {
		return
	}
	r := (s.Radius + dist) / 2
	s.Center = s.Center.Add(d.Mul((r - s.Radius) / dist))
	s.Radius = r
}

// Merge expands s to contain o.
func (s *Sphere) Merge(o Sphere) {
	if o.Radius < 0 {
		return
	}
	if s.Radius < 0 {
		*s = o
		return
	}
	d := o.Center.Sub(s.Center)
	dist := d.Len()
	switch {
	case dist+o.Radius <= s.Radius:
		return
	case dist+s.Radius <= o.Radius:
		*s = o
		return
	}
	r := (s.Radius + dist + o.Radius) / 2
	s.Center = s.Center.Add(d.Mul((r - s.Radius) / dist))
	s.Radius = r
}

// Contains reports whether p lies inside s, allowing for rounding.
func (s Sphere) Contains(p mgl32.Vec3) bool {
	if s.Radius < 0 {
		return false
	}
	return p.Sub(s.Center).Len() <= s.Radius*(1+1e-5)+1e-6
}
