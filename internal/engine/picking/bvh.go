package picking

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/math"
)

const (
	// maxTrianglesPerLeaf is the threshold for splitting BVH nodes.
	maxTrianglesPerLeaf = 4

	// hitEpsilon rejects intersections at or behind the ray origin.
	hitEpsilon = 1e-9

	// parallelEpsilon rejects rays parallel to a triangle.
	parallelEpsilon = 1e-12
)

// Triangle is one BVH primitive. Face is the index of the mesh face it
// came from.
type Triangle struct {
	Face    int
	A, B, C math.Vec3
}

func (t Triangle) centroid() math.Vec3 {
	return t.A.Add(t.B).Add(t.C).Scale(1.0 / 3.0)
}

func (t Triangle) bounds() AABB {
	return EmptyAABB().Extend(t.A).Extend(t.B).Extend(t.C)
}

// RaycastResult is the outcome of a ray query. A miss has Hit false and
// zero values elsewhere; it is not an error.
type RaycastResult struct {
	Hit      bool
	Position math.Vec3
	Normal   math.Vec3
	Face     int
	Distance float64
}

// Failed reports whether the ray missed.
func (r RaycastResult) Failed() bool {
	return !r.Hit
}

// bvhNode has either two children or a run of triangles.
type bvhNode struct {
	box         AABB
	left, right *bvhNode
	triangles   []Triangle
}

// BVH is a bounding volume hierarchy over the triangles of a mesh.
// Building is O(n log n); callers should keep the index for as long as
// the geometry it was built from is unchanged.
type BVH struct {
	root  *bvhNode
	count int
}

// BuildBVH builds an index over the faces of m. Faces with more than
// three vertices are split into a fan so every primitive still maps to
// its source face.
func BuildBVH(m *mesh.Mesh) *BVH {
	tris := make([]Triangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f.Verts); i++ {
			tris = append(tris, Triangle{
				Face: f.Index,
				A:    m.Position(f.Verts[0]),
				B:    m.Position(f.Verts[i]),
				C:    m.Position(f.Verts[i+1]),
			})
		}
	}
	return NewBVH(tris)
}

// NewBVH builds an index over the given triangles. The slice is
// reordered.
func NewBVH(tris []Triangle) *BVH {
	b := &BVH{count: len(tris)}
	if len(tris) > 0 {
		b.root = buildNode(tris)
	}
	return b
}

func buildNode(tris []Triangle) *bvhNode {
	node := &bvhNode{box: EmptyAABB()}
	for _, t := range tris {
		node.box = node.box.Union(t.bounds())
	}

	if len(tris) <= maxTrianglesPerLeaf {
		node.triangles = tris
		return node
	}

	// Split on the longest axis of the centroid bounds
	centroids := EmptyAABB()
	for _, t := range tris {
		centroids = centroids.Extend(t.centroid())
	}
	extent := centroids.Max.Sub(centroids.Min)
	axis := 0
	if extent.Y > extent.X && extent.Y >= extent.Z {
		axis = 1
	} else if extent.Z > extent.X && extent.Z > extent.Y {
		axis = 2
	}

	sort.SliceStable(tris, func(i, j int) bool {
		ci, cj := tris[i].centroid().Axis(axis), tris[j].centroid().Axis(axis)
		if ci != cj {
			return ci < cj
		}
		return tris[i].Face < tris[j].Face
	})

	// Split at median
	mid := len(tris) / 2
	node.left = buildNode(tris[:mid])
	node.right = buildNode(tris[mid:])
	return node
}

// Len returns the number of triangles in the index.
func (b *BVH) Len() int {
	if b == nil {
		return 0
	}
	return b.count
}

// Bounds returns the bounding box of all triangles. ok is false for an
// empty or released index.
func (b *BVH) Bounds() (box AABB, ok bool) {
	if b == nil || b.root == nil {
		return EmptyAABB(), false
	}
	return b.root.box, true
}

// Release drops the tree. Queries on a released index always miss.
func (b *BVH) Release() {
	if b == nil {
		return
	}
	b.root = nil
	b.count = 0
}

// Raycast returns the nearest intersection in front of origin along
// dir. Triangles are hit from either side. When two triangles are hit at
// the same distance the lower face index wins, so repeated queries are
// stable.
func (b *BVH) Raycast(origin, dir math.Vec3) RaycastResult {
	if b == nil || b.root == nil {
		return RaycastResult{}
	}
	ray := Ray{Origin: origin, Direction: dir.Normalize()}
	if ray.Direction == (math.Vec3{}) {
		return RaycastResult{}
	}

	best := RaycastResult{Distance: gomath.Inf(1)}
	var bestTri Triangle
	b.root.raycast(ray, &best, &bestTri)
	if !best.Hit {
		return RaycastResult{}
	}

	best.Position = ray.At(best.Distance)
	best.Normal = bestTri.B.Sub(bestTri.A).Cross(bestTri.C.Sub(bestTri.A)).Normalize()
	return best
}

func (n *bvhNode) raycast(ray Ray, best *RaycastResult, bestTri *Triangle) {
	tmin, _, hit := ray.slabs(n.box)
	if !hit || tmin > best.Distance {
		return
	}

	if n.triangles != nil {
		for _, tri := range n.triangles {
			t, ok := intersectTriangle(ray, tri)
			if !ok {
				continue
			}
			if t < best.Distance || (t == best.Distance && tri.Face < best.Face) {
				best.Hit = true
				best.Distance = t
				best.Face = tri.Face
				*bestTri = tri
			}
		}
		return
	}

	// Visit the nearer child first so the far one can be pruned
	first, second := n.left, n.right
	lt, _, lhit := ray.slabs(n.left.box)
	rt, _, rhit := ray.slabs(n.right.box)
	if rhit && (!lhit || rt < lt) {
		first, second = second, first
	}
	first.raycast(ray, best, bestTri)
	second.raycast(ray, best, bestTri)
}

// intersectTriangle is the Möller–Trumbore test without back-face
// culling.
func intersectTriangle(ray Ray, tri Triangle) (float64, bool) {
	edge1 := tri.B.Sub(tri.A)
	edge2 := tri.C.Sub(tri.A)
	p := ray.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if gomath.Abs(det) < parallelEpsilon {
		return 0, false
	}
	inv := 1.0 / det

	s := ray.Origin.Sub(tri.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := ray.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(q) * inv
	if t <= hitEpsilon {
		return 0, false
	}
	return t, true
}
