package mesh

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/sketchplane/pkg/math"
)

// earEpsilon is the minimum doubled triangle area treated as convex.
const earEpsilon = 1e-12

// Preprocess validates m and returns a new triangulated mesh. With
// doubleSided set, every vertex and face is duplicated and the
// duplicates get reversed winding so the surface faces both ways.
// Duplicated faces keep their group tag. m is not modified.
func Preprocess(m *Mesh, doubleSided bool) (*Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("preprocess %q: %w", m.Name, err)
	}

	out := Triangulate(m)
	if doubleSided {
		out = DoubleSided(out)
	}
	return out, nil
}

// Triangulate returns a copy of m where every face with more than three
// vertices is replaced by triangles produced by ear clipping. Triangles
// are emitted in place of their source face so face order follows the
// input order. Faces with fewer than three vertices are dropped.
func Triangulate(m *Mesh) *Mesh {
	out := &Mesh{
		Name:       m.Name,
		Vertices:   append([]Vertex(nil), m.Vertices...),
		Faces:      make([]Face, 0, len(m.Faces)),
		GroupNames: append([]string(nil), m.GroupNames...),
	}
	for _, f := range m.Faces {
		if f.IsTriangle() {
			out.Faces = append(out.Faces, Face{Verts: append([]int(nil), f.Verts...), Group: f.Group})
			continue
		}
		for _, tri := range earClip(m, f.Verts) {
			out.Faces = append(out.Faces, Face{Verts: tri, Group: f.Group})
		}
	}
	out.reindex()
	return out
}

// DoubleSided returns a copy of m with every vertex and face appended a
// second time. Duplicate vertex i lands at i+len(m.Vertices); duplicate
// face j lands at j+len(m.Faces) with its vertex order reversed.
func DoubleSided(m *Mesh) *Mesh {
	nv, nf := len(m.Vertices), len(m.Faces)
	out := &Mesh{
		Name:       m.Name,
		Vertices:   make([]Vertex, 0, 2*nv),
		Faces:      make([]Face, 0, 2*nf),
		GroupNames: append([]string(nil), m.GroupNames...),
	}
	out.Vertices = append(out.Vertices, m.Vertices...)
	out.Vertices = append(out.Vertices, m.Vertices...)

	for _, f := range m.Faces {
		out.Faces = append(out.Faces, Face{Verts: append([]int(nil), f.Verts...), Group: f.Group})
	}
	for _, f := range m.Faces {
		back := make([]int, len(f.Verts))
		for i, vi := range f.Verts {
			back[len(f.Verts)-1-i] = vi + nv
		}
		out.Faces = append(out.Faces, Face{Verts: back, Group: f.Group})
	}
	out.reindex()
	return out
}

// earClip triangulates one polygon. The polygon is projected onto the
// plane that drops the dominant axis of its normal; candidate ears are
// scanned in original vertex order, restarting after each cut, so the
// result depends only on the input order. If no ear can be found (a
// degenerate or self-intersecting polygon) the remainder is fanned from
// its first vertex.
func earClip(m *Mesh, verts []int) [][]int {
	pts := project(m, verts)

	// Orientation of the projected polygon; ears must turn the same way.
	var area float64
	for i := range pts {
		area += pts[i].Cross(pts[(i+1)%len(pts)])
	}
	sign := 1.0
	if area < 0 {
		sign = -1
	}

	poly := make([]int, len(verts)) // positions into verts/pts
	for i := range poly {
		poly[i] = i
	}

	tris := make([][]int, 0, max(len(verts)-2, 0))
	for len(poly) > 3 {
		ear := -1
		for i := range poly {
			if isEar(pts, poly, i, sign) {
				ear = i
				break
			}
		}
		if ear < 0 {
			break
		}
		n := len(poly)
		prev, next := poly[(ear+n-1)%n], poly[(ear+1)%n]
		tris = append(tris, []int{verts[prev], verts[poly[ear]], verts[next]})
		poly = append(poly[:ear], poly[ear+1:]...)
	}

	for i := 1; i+1 < len(poly); i++ {
		tris = append(tris, []int{verts[poly[0]], verts[poly[i]], verts[poly[i+1]]})
	}
	return tris
}

func isEar(pts []math.Vec2, poly []int, i int, sign float64) bool {
	n := len(poly)
	a := pts[poly[(i+n-1)%n]]
	b := pts[poly[i]]
	c := pts[poly[(i+1)%n]]

	if sign*b.Sub(a).Cross(c.Sub(b)) <= earEpsilon {
		return false
	}
	for j, pi := range poly {
		if j == i || j == (i+n-1)%n || j == (i+1)%n {
			continue
		}
		p := pts[pi]
		if p == a || p == b || p == c {
			continue
		}
		if insideTriangle(p, a, b, c, sign) {
			return false
		}
	}
	return true
}

// insideTriangle reports whether p lies inside abc or on its boundary,
// with abc wound as given by sign. A reflex vertex on the diagonal ac
// must block the ear, or the cut triangle would cover the notch.
func insideTriangle(p, a, b, c math.Vec2, sign float64) bool {
	return sign*b.Sub(a).Cross(p.Sub(a)) >= 0 &&
		sign*c.Sub(b).Cross(p.Sub(b)) >= 0 &&
		sign*a.Sub(c).Cross(p.Sub(c)) >= 0
}

// project maps polygon vertices to 2D by dropping the axis where the
// polygon normal is largest.
func project(m *Mesh, verts []int) []math.Vec2 {
	n := newellNormal(m, verts)
	ax, ay, az := gomath.Abs(n.X), gomath.Abs(n.Y), gomath.Abs(n.Z)

	pts := make([]math.Vec2, len(verts))
	for i, vi := range verts {
		p := m.Vertices[vi].Position
		switch {
		case ax >= ay && ax >= az:
			pts[i] = math.Vec2{X: p.Y, Y: p.Z}
		case ay >= az:
			pts[i] = math.Vec2{X: p.Z, Y: p.X}
		default:
			pts[i] = math.Vec2{X: p.X, Y: p.Y}
		}
	}
	return pts
}
