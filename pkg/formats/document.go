package formats

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mesh document errors.
var (
	ErrUnknownGroupName = errors.New("face references undeclared group")
	ErrDuplicateMesh    = errors.New("duplicate mesh name")
)

// MeshDocument is a YAML file holding one or more named meshes.
//
//	meshes:
//	  - name: workplanes
//	    groups: [xz, xy, yz]
//	    vertices: [[0, 0, 0], [1, 0, 0], ...]
//	    faces:
//	      - {group: xy, verts: [0, 1, 2, 3]}
type MeshDocument struct {
	Meshes []MeshEntry `yaml:"meshes"`
}

// MeshEntry is one named mesh in a document. Faces name their group;
// an empty group means ungrouped.
type MeshEntry struct {
	Name     string       `yaml:"name"`
	Groups   []string     `yaml:"groups,flow"`
	Vertices [][3]float64 `yaml:"vertices,flow"`
	Faces    []FaceEntry  `yaml:"faces"`
}

// FaceEntry is one polygon in a document.
type FaceEntry struct {
	Group string   `yaml:"group,omitempty"`
	Verts []uint32 `yaml:"verts,flow"`
}

// ParseMeshDocument decodes a YAML mesh document. Mesh names must be
// unique.
func ParseMeshDocument(data []byte) (*MeshDocument, error) {
	var doc MeshDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding mesh document: %w", err)
	}
	seen := make(map[string]bool, len(doc.Meshes))
	for _, m := range doc.Meshes {
		if seen[m.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMesh, m.Name)
		}
		seen[m.Name] = true
	}
	return &doc, nil
}

// Find returns the mesh entry with the given name.
func (d *MeshDocument) Find(name string) (*MeshEntry, bool) {
	for i := range d.Meshes {
		if d.Meshes[i].Name == name {
			return &d.Meshes[i], true
		}
	}
	return nil, false
}

// Marshal encodes the document as YAML.
func (d *MeshDocument) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Data converts the entry to validated mesh data, resolving group names
// to ids.
func (e *MeshEntry) Data() (*MeshData, error) {
	ids := make(map[string]int32, len(e.Groups))
	for i, g := range e.Groups {
		ids[g] = int32(i)
	}

	data := &MeshData{
		Vertices: append([][3]float64(nil), e.Vertices...),
		Groups:   append([]string(nil), e.Groups...),
		Faces:    make([]MeshFace, len(e.Faces)),
	}
	for i, f := range e.Faces {
		group := int32(-1)
		if f.Group != "" {
			id, ok := ids[f.Group]
			if !ok {
				return nil, fmt.Errorf("mesh %q face %d group %q: %w", e.Name, i, f.Group, ErrUnknownGroupName)
			}
			group = id
		}
		data.Faces[i] = MeshFace{Group: group, Verts: append([]uint32(nil), f.Verts...)}
	}

	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", e.Name, err)
	}
	return data, nil
}

// EntryFromData builds a document entry from mesh data.
func EntryFromData(name string, data *MeshData) MeshEntry {
	e := MeshEntry{
		Name:     name,
		Groups:   append([]string(nil), data.Groups...),
		Vertices: append([][3]float64(nil), data.Vertices...),
		Faces:    make([]FaceEntry, len(data.Faces)),
	}
	for i, f := range data.Faces {
		var group string
		if f.Group >= 0 && int(f.Group) < len(data.Groups) {
			group = data.Groups[f.Group]
		}
		e.Faces[i] = FaceEntry{Group: group, Verts: append([]uint32(nil), f.Verts...)}
	}
	return e
}
