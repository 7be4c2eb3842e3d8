// Package picking turns cursor positions into world-space rays and
// resolves them against the reference mesh: a bounding volume hierarchy
// for nearest-hit queries and a hit tester that classifies the hit face.
package picking

import (
	gomath "math"

	"github.com/Faultbox/sketchplane/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyAABB returns a box that contains nothing; extending it with a
// point yields that point.
func EmptyAABB() AABB {
	return AABB{
		Min: math.Vec3{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)},
		Max: math.Vec3{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)},
	}
}

// Extend returns the box grown to contain p.
func (b AABB) Extend(p math.Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box containing both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Empty reports whether the box contains no point.
func (b AABB) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// ScreenToRay converts a cursor position to a world-space ray.
// cursor is in pixels with the origin at the top-left corner; width and
// height are the viewport size. invViewProj is the inverse of the
// view-projection matrix. ok is false when the point cannot be
// unprojected.
func ScreenToRay(cursor math.Vec2, width, height float64, invViewProj math.Mat4) (ray Ray, ok bool) {
	if width <= 0 || height <= 0 {
		return Ray{}, false
	}

	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*cursor.X/width - 1.0
	ndcY := 1.0 - 2.0*cursor.Y/height // Flip Y

	nearWorld := invViewProj.MulVec4(math.Vec4{ndcX, ndcY, -1.0, 1.0})
	farWorld := invViewProj.MulVec4(math.Vec4{ndcX, ndcY, 1.0, 1.0})
	if nearWorld[3] == 0 || farWorld[3] == 0 {
		return Ray{}, false
	}

	origin := math.Vec3{X: nearWorld[0] / nearWorld[3], Y: nearWorld[1] / nearWorld[3], Z: nearWorld[2] / nearWorld[3]}
	far := math.Vec3{X: farWorld[0] / farWorld[3], Y: farWorld[1] / farWorld[3], Z: farWorld[2] / farWorld[3]}

	dir := far.Sub(origin).Normalize()
	if dir == (math.Vec3{}) || !origin.IsFinite() || !dir.IsFinite() {
		return Ray{}, false
	}
	return Ray{Origin: origin, Direction: dir}, true
}

// slabs returns the parametric interval where the ray is inside box.
func (r Ray) slabs(box AABB) (tmin, tmax float64, hit bool) {
	tmin = gomath.Inf(-1)
	tmax = gomath.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin.Axis(axis), r.Direction.Axis(axis)
		lo, hi := box.Min.Axis(axis), box.Max.Axis(axis)
		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = gomath.Max(tmin, t1)
		tmax = gomath.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return tmin, tmax, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float64, hit bool) {
	tmin, tmax, hit := r.slabs(box)
	if !hit {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
