package picking

import (
	"github.com/Faultbox/sketchplane/pkg/math"
)

// ViewTransform describes the viewport a cursor position belongs to.
type ViewTransform struct {
	Width, Height float64
	View          math.Mat4
	Projection    math.Mat4
}

// Ray returns the world-space ray under cursor.
func (v ViewTransform) Ray(cursor math.Vec2) (Ray, bool) {
	inv, ok := v.Projection.Mul(v.View).Inverse()
	if !ok {
		return Ray{}, false
	}
	return ScreenToRay(cursor, v.Width, v.Height, inv)
}

// HoverResult is the face and group under the cursor. The zero value is
// the "nothing hovered" state.
type HoverResult struct {
	Face     int
	Group    int
	Distance float64
	ok       bool
}

// Hovered builds a successful hover result.
func Hovered(face, group int, distance float64) HoverResult {
	return HoverResult{Face: face, Group: group, Distance: distance, ok: true}
}

// Failed reports whether nothing is hovered.
func (h HoverResult) Failed() bool {
	return !h.ok
}

// IndexSource provides the current spatial index. The index may be
// rebuilt between calls.
type IndexSource interface {
	Index() *BVH
}

// GroupSource resolves the group of a face.
type GroupSource interface {
	GroupOf(face int) (int, error)
}

// HitTester resolves cursor positions to hovered face groups.
type HitTester struct {
	index  IndexSource
	groups GroupSource
}

// NewHitTester creates a hit tester over the given index and groups.
func NewHitTester(index IndexSource, groups GroupSource) *HitTester {
	return &HitTester{index: index, groups: groups}
}

// HitTest casts a ray through cursor and classifies the nearest face.
// A miss, or a view that cannot be unprojected, yields the empty result.
// An error is returned only when the hit face cannot be classified,
// which means the index and the classifier disagree about the mesh.
func (h *HitTester) HitTest(view ViewTransform, cursor math.Vec2) (HoverResult, error) {
	ray, ok := view.Ray(cursor)
	if !ok {
		return HoverResult{}, nil
	}

	hit := h.index.Index().Raycast(ray.Origin, ray.Direction)
	if hit.Failed() {
		return HoverResult{}, nil
	}

	group, err := h.groups.GroupOf(hit.Face)
	if err != nil {
		return HoverResult{}, err
	}
	return Hovered(hit.Face, group, hit.Distance), nil
}
