// Package drawing caches the scale-dependent geometry of the workplane
// mesh: the scaled copy used for hit testing, its spatial index, and the
// vertex/index buffers handed to the renderer.
package drawing

import (
	"iter"

	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// Color is an RGBA color with components in [0, 1].
type Color [4]float32

// Buffer is renderer-ready geometry. Positions and Normals hold xyz
// triples per vertex; Indices index into them. Triangle buffers use
// index triples, line buffers index pairs.
type Buffer struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// Empty reports whether the buffer draws nothing.
func (b Buffer) Empty() bool {
	return len(b.Indices) == 0
}

// VertexCount returns the number of vertices in Positions.
func (b Buffer) VertexCount() int {
	return len(b.Positions) / 3
}

// vertexBuffer packs positions and vertex normals of m. Indices are left
// to the caller.
func vertexBuffer(m *mesh.Mesh) Buffer {
	normals := m.VertexNormals()
	buf := Buffer{
		Positions: make([]float32, 0, len(m.Vertices)*3),
		Normals:   make([]float32, 0, len(m.Vertices)*3),
	}
	for i, v := range m.Vertices {
		p := v.Position.Float32()
		n := normals[i].Float32()
		buf.Positions = append(buf.Positions, p[:]...)
		buf.Normals = append(buf.Normals, n[:]...)
	}
	return buf
}

func triangleIndices(m *mesh.Mesh, faces iter.Seq[int]) []uint32 {
	var idx []uint32
	for fi := range faces {
		verts := m.Faces[fi].Verts
		for i := 1; i+1 < len(verts); i++ {
			idx = append(idx, uint32(verts[0]), uint32(verts[i]), uint32(verts[i+1]))
		}
	}
	return idx
}

func allFaces(m *mesh.Mesh) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range m.Faces {
			if !yield(i) {
				return
			}
		}
	}
}

// outlineBuffer collects the boundary edges of m as line segments.
// Edges that coincide in space, such as the front and back copies of a
// double-sided face, are emitted once.
func outlineBuffer(m *mesh.Mesh) Buffer {
	type segment struct{ a, b math.Vec3 }
	seen := make(map[segment]bool)

	var buf Buffer
	for _, e := range m.BoundaryEdges() {
		a, b := m.Position(e.A), m.Position(e.B)
		if less(b, a) {
			a, b = b, a
		}
		if seen[segment{a, b}] {
			continue
		}
		seen[segment{a, b}] = true

		base := uint32(buf.VertexCount())
		pa, pb := a.Float32(), b.Float32()
		buf.Positions = append(buf.Positions, pa[:]...)
		buf.Positions = append(buf.Positions, pb[:]...)
		buf.Indices = append(buf.Indices, base, base+1)
	}
	return buf
}

func less(a, b math.Vec3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
