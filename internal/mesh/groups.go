package mesh

import (
	"errors"
	"fmt"
	"iter"
)

// Classifier errors.
var (
	ErrInvalidGroupID = errors.New("group id outside known id space")
	ErrFaceOutOfRange = errors.New("face index out of range")
)

// Classifier answers face/group membership queries for one mesh. Group
// tags are read from the faces; the known id space is Ungrouped plus
// every position in the mesh's group name table.
type Classifier struct {
	mesh *Mesh
}

// NewClassifier returns a classifier over m. m must not be mutated
// afterwards.
func NewClassifier(m *Mesh) *Classifier {
	return &Classifier{mesh: m}
}

// Known reports whether id belongs to the known id space.
func (c *Classifier) Known(id int) bool {
	return id == Ungrouped || (id >= 0 && id < len(c.mesh.GroupNames))
}

// GroupOf returns the group tag of a face.
func (c *Classifier) GroupOf(face int) (int, error) {
	if face < 0 || face >= len(c.mesh.Faces) {
		return Ungrouped, fmt.Errorf("face %d (have %d): %w", face, len(c.mesh.Faces), ErrFaceOutOfRange)
	}
	return c.mesh.Faces[face].Group, nil
}

// FacesInGroup returns the indices of all faces tagged with id. The
// sequence scans the mesh each time it is ranged over. A known group
// with no faces yields nothing; an unknown id is an error.
func (c *Classifier) FacesInGroup(id int) (iter.Seq[int], error) {
	if !c.Known(id) {
		return nil, fmt.Errorf("group %d (have %d groups): %w", id, len(c.mesh.GroupNames), ErrInvalidGroupID)
	}
	faces := c.mesh.Faces
	return func(yield func(int) bool) {
		for i := range faces {
			if faces[i].Group == id && !yield(i) {
				return
			}
		}
	}, nil
}

// Groups returns every known group id, Ungrouped first.
func (c *Classifier) Groups() []int {
	ids := make([]int, 0, len(c.mesh.GroupNames)+1)
	ids = append(ids, Ungrouped)
	for i := range c.mesh.GroupNames {
		ids = append(ids, i)
	}
	return ids
}

// Name returns the name of a group. Ungrouped and unknown ids have no
// name.
func (c *Classifier) Name(id int) (string, bool) {
	if id < 0 || id >= len(c.mesh.GroupNames) {
		return "", false
	}
	return c.mesh.GroupNames[id], true
}

// Lookup returns the id of the group with the given name.
func (c *Classifier) Lookup(name string) (int, bool) {
	for i, n := range c.mesh.GroupNames {
		if n == name {
			return i, true
		}
	}
	return Ungrouped, false
}
