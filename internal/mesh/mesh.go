package mesh

import (
	"fmt"
	gomath "math"
	"sort"

	"github.com/Faultbox/sketchplane/pkg/math"
)

// New builds a mesh from raw positions and faces. Faces carry their
// vertex indices and group tag; Index fields are assigned here.
func New(name string, positions []math.Vec3, faces []Face, groupNames []string) *Mesh {
	m := &Mesh{
		Name:       name,
		Vertices:   make([]Vertex, len(positions)),
		Faces:      make([]Face, len(faces)),
		GroupNames: append([]string(nil), groupNames...),
	}
	for i, p := range positions {
		m.Vertices[i] = Vertex{Index: i, Position: p}
	}
	for i, f := range faces {
		m.Faces[i] = Face{Index: i, Verts: append([]int(nil), f.Verts...), Group: f.Group}
	}
	return m
}

// Validate checks the structural invariants of the mesh.
func (m *Mesh) Validate() error {
	for i, v := range m.Vertices {
		if !v.Position.IsFinite() {
			return fmt.Errorf("vertex %d: %w", i, ErrNonFiniteVertex)
		}
	}
	for i, f := range m.Faces {
		if len(f.Verts) < 3 {
			return fmt.Errorf("face %d: %w", i, ErrDegenerateFace)
		}
		for _, vi := range f.Verts {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("face %d vertex %d (have %d): %w", i, vi, len(m.Vertices), ErrVertexOutOfRange)
			}
		}
		if f.Group != Ungrouped && (f.Group < 0 || f.Group >= len(m.GroupNames)) {
			return fmt.Errorf("face %d group %d: %w", i, f.Group, ErrUnknownGroup)
		}
	}
	return nil
}

// Clone returns a deep copy sharing no slices with m.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Name:       m.Name,
		Vertices:   append([]Vertex(nil), m.Vertices...),
		Faces:      make([]Face, len(m.Faces)),
		GroupNames: append([]string(nil), m.GroupNames...),
	}
	for i, f := range m.Faces {
		f.Verts = append([]int(nil), f.Verts...)
		out.Faces[i] = f
	}
	return out
}

// Scaled returns a copy with every vertex position multiplied by s.
func (m *Mesh) Scaled(s float64) *Mesh {
	out := m.Clone()
	for i := range out.Vertices {
		out.Vertices[i].Position = out.Vertices[i].Position.Scale(s)
	}
	return out
}

// IsTriangulated reports whether every face is a triangle.
func (m *Mesh) IsTriangulated() bool {
	for _, f := range m.Faces {
		if !f.IsTriangle() {
			return false
		}
	}
	return true
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) math.Vec3 {
	return m.Vertices[i].Position
}

// FaceNormal returns the unit normal of face i using Newell's method,
// which also handles non-planar polygons.
func (m *Mesh) FaceNormal(i int) math.Vec3 {
	return newellNormal(m, m.Faces[i].Verts)
}

func newellNormal(m *Mesh, verts []int) math.Vec3 {
	var n math.Vec3
	for i := range verts {
		a := m.Vertices[verts[i]].Position
		b := m.Vertices[verts[(i+1)%len(verts)]].Position
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize()
}

// VertexNormals returns per-vertex normals: the normalized sum of the
// normals of the faces using each vertex. Unused vertices get a zero
// normal.
func (m *Mesh) VertexNormals() []math.Vec3 {
	normals := make([]math.Vec3, len(m.Vertices))
	for i, f := range m.Faces {
		n := m.FaceNormal(i)
		for _, vi := range f.Verts {
			normals[vi] = normals[vi].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}

// Edges derives the undirected edges of the mesh, sorted by (A, B).
func (m *Mesh) Edges() []Edge {
	type key struct{ a, b int }
	counts := make(map[key]int)
	for _, f := range m.Faces {
		for i := range f.Verts {
			a, b := f.Verts[i], f.Verts[(i+1)%len(f.Verts)]
			if a > b {
				a, b = b, a
			}
			counts[key{a, b}]++
		}
	}

	edges := make([]Edge, 0, len(counts))
	for k, n := range counts {
		edges = append(edges, Edge{A: k.a, B: k.b, Faces: n})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// BoundaryEdges returns the edges used by exactly one face.
func (m *Mesh) BoundaryEdges() []Edge {
	var out []Edge
	for _, e := range m.Edges() {
		if e.IsBoundary() {
			out = append(out, e)
		}
	}
	return out
}

// Bounds returns the axis-aligned bounds of all vertices. An empty mesh
// returns min > max.
func (m *Mesh) Bounds() (min, max math.Vec3) {
	min = math.Vec3{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)}
	max = math.Vec3{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)}
	for _, v := range m.Vertices {
		min = min.Min(v.Position)
		max = max.Max(v.Position)
	}
	return min, max
}

// reindex rewrites Index fields to match slice positions.
func (m *Mesh) reindex() {
	for i := range m.Vertices {
		m.Vertices[i].Index = i
	}
	for i := range m.Faces {
		m.Faces[i].Index = i
	}
}
