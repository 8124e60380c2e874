package model

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBounds(t *testing.T) {
	b := EmptyBounds()
	if b.Valid() {
		t.Fatal("empty bounds should be invalid")
	}

	updateBounds(&b, mgl32.Vec3{1, -2, 3})
	updateBounds(&b, mgl32.Vec3{-1, 4, 0})
	if b.Min != (mgl32.Vec3{-1, -2, 0}) || b.Max != (mgl32.Vec3{1, 4, 3}) {
		t.Errorf("bounds = %+v", b)
	}
	if b.Center() != (mgl32.Vec3{0, 1, 1.5}) {
		t.Errorf("center = %v", b.Center())
	}

	u := b.Union(Bounds{Min: mgl32.Vec3{0, 0, -5}, Max: mgl32.Vec3{0, 0, 0}})
	if u.Min[2] != -5 || u.Max != b.Max {
		t.Errorf("union = %+v", u)
	}
	if b.Union(EmptyBounds()) != b {
		t.Error("union with empty bounds should not change the box")
	}
}

func TestSphere_GrowContainsAll(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := EmptySphere()
	var pts []mgl32.Vec3
	for i := 0; i < 500; i++ {
		p := mgl32.Vec3{rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32() * 5}
		pts = append(pts, p)
		s.Grow(p)
	}
	for _, p := range pts {
		if !s.Contains(p) {
			t.Fatalf("sphere %+v misses %v", s, p)
		}
	}
}

func TestSphere_Merge(t *testing.T) {
	tests := []struct {
		name string
		a, b Sphere
		want Sphere
	}{
		{"empty into empty", EmptySphere(), EmptySphere(), EmptySphere()},
		{"into empty", EmptySphere(), Sphere{Radius: 2}, Sphere{Radius: 2}},
		{"inside", Sphere{Radius: 5}, Sphere{Center: mgl32.Vec3{1, 0, 0}, Radius: 1}, Sphere{Radius: 5}},
		{"enclosing", Sphere{Radius: 1}, Sphere{Radius: 3}, Sphere{Radius: 3}},
		{
			"disjoint",
			Sphere{Center: mgl32.Vec3{-2, 0, 0}, Radius: 1},
			Sphere{Center: mgl32.Vec3{2, 0, 0}, Radius: 1},
			Sphere{Radius: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.a
			s.Merge(tt.b)
			if !s.Center.ApproxEqual(tt.want.Center) || !mgl32.FloatEqual(s.Radius, tt.want.Radius) {
				t.Errorf("got %+v, want %+v", s, tt.want)
			}
		})
	}
}

func TestLookupAttribute(t *testing.T) {
	for _, name := range []string{"POSITION", "NORMAL", "TEXCOORD_0", "COLOR_0", "TANGENT"} {
		a, ok := LookupAttribute(name)
		if !ok || a.String() != name {
			t.Errorf("LookupAttribute(%q) = %v, %v", name, a, ok)
		}
	}
	for _, name := range []string{"JOINTS_0", "TEXCOORD_1", "position"} {
		if _, ok := LookupAttribute(name); ok {
			t.Errorf("LookupAttribute(%q) should fail", name)
		}
	}
}
