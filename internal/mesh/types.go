// Package mesh holds the in-memory reference mesh used by the workplane
// picker: vertices, polygon faces tagged with a group id, and derived
// edges. It also implements preprocessing (triangulation, double-sided
// duplication) and face group classification.
package mesh

import (
	"errors"

	"github.com/Faultbox/sketchplane/pkg/math"
)

// Ungrouped is the group tag of a face that belongs to no named group.
const Ungrouped = -1

// Mesh validation errors.
var (
	ErrVertexOutOfRange = errors.New("face references vertex out of range")
	ErrDegenerateFace   = errors.New("face has fewer than 3 vertices")
	ErrUnknownGroup     = errors.New("face references unknown group")
	ErrNonFiniteVertex  = errors.New("vertex position is not finite")
)

// Vertex is a mesh vertex. Index equals its position in Mesh.Vertices.
type Vertex struct {
	Index    int
	Position math.Vec3
}

// Face is an ordered polygon over vertex indices. Index equals its
// position in Mesh.Faces.
type Face struct {
	Index int
	Verts []int
	Group int
}

// IsTriangle reports whether the face has exactly three vertices.
func (f Face) IsTriangle() bool {
	return len(f.Verts) == 3
}

// Edge is an undirected vertex pair with A < B.
type Edge struct {
	A, B  int
	Faces int // number of faces using this edge
}

// IsBoundary reports whether exactly one face uses the edge.
func (e Edge) IsBoundary() bool {
	return e.Faces == 1
}

// Mesh is a polygon mesh with per-face group tags. GroupNames maps a
// group id (its position) to the group's name.
type Mesh struct {
	Name       string
	Vertices   []Vertex
	Faces      []Face
	GroupNames []string
}
