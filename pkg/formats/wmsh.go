// Package formats provides codecs for the mesh asset formats: the binary
// WMSH blob stored inside mesh bundles and the YAML mesh document used
// for hand-authored assets.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// WMSH format errors.
var (
	ErrInvalidWMSHMagic       = errors.New("invalid WMSH magic: expected 'WMSH'")
	ErrUnsupportedWMSHVersion = errors.New("unsupported WMSH version")
	ErrTruncatedWMSHData      = errors.New("truncated WMSH data")
	ErrInvalidMeshIndex       = errors.New("mesh index out of range")
)

const wmshMagic = "WMSH"

// WMSHVersion is the current blob version.
var WMSHVersion = Version{Major: 1, Minor: 0}

// Version represents a format version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// MeshData is a decoded mesh asset, independent of any runtime mesh
// representation.
type MeshData struct {
	Vertices [][3]float64
	Groups   []string
	Faces    []MeshFace
}

// MeshFace is one polygon. Group is -1 for ungrouped faces.
type MeshFace struct {
	Group int32
	Verts []uint32
}

// Validate checks that every face references existing vertices and
// groups and has at least three vertices.
func (d *MeshData) Validate() error {
	for i, f := range d.Faces {
		if len(f.Verts) < 3 {
			return fmt.Errorf("face %d has %d vertices: %w", i, len(f.Verts), ErrInvalidMeshIndex)
		}
		for _, v := range f.Verts {
			if int(v) >= len(d.Vertices) {
				return fmt.Errorf("face %d vertex %d (have %d): %w", i, v, len(d.Vertices), ErrInvalidMeshIndex)
			}
		}
		if f.Group < -1 || int(f.Group) >= len(d.Groups) {
			return fmt.Errorf("face %d group %d (have %d): %w", i, f.Group, len(d.Groups), ErrInvalidMeshIndex)
		}
	}
	for i, v := range d.Vertices {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("vertex %d is not finite: %w", i, ErrInvalidMeshIndex)
			}
		}
	}
	return nil
}

// ParseWMSH decodes a WMSH blob and validates its indices.
func ParseWMSH(data []byte) (*MeshData, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedWMSHData
	}
	if string(data[0:4]) != wmshMagic {
		return nil, ErrInvalidWMSHMagic
	}

	// Version is stored as [minor, major]
	version := Version{Major: data[5], Minor: data[4]}
	if version.Major != WMSHVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWMSHVersion, version)
	}

	r := &blobReader{r: bytes.NewReader(data[6:])}
	mesh := &MeshData{}

	vertexCount := r.count(24)
	mesh.Vertices = make([][3]float64, vertexCount)
	for i := range mesh.Vertices {
		r.read(&mesh.Vertices[i])
	}

	groupCount := r.count(2)
	mesh.Groups = make([]string, groupCount)
	for i := range mesh.Groups {
		var n uint16
		r.read(&n)
		name := make([]byte, n)
		r.read(name)
		mesh.Groups[i] = string(name)
	}

	faceCount := r.count(8)
	mesh.Faces = make([]MeshFace, faceCount)
	for i := range mesh.Faces {
		r.read(&mesh.Faces[i].Group)
		n := r.count(4)
		mesh.Faces[i].Verts = make([]uint32, n)
		r.read(mesh.Faces[i].Verts)
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedWMSHData, r.err)
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// EncodeWMSH serializes mesh data.
func EncodeWMSH(mesh *MeshData) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString(wmshMagic)
	buf.WriteByte(WMSHVersion.Minor)
	buf.WriteByte(WMSHVersion.Major)

	binary.Write(buf, binary.LittleEndian, uint32(len(mesh.Vertices)))
	for _, v := range mesh.Vertices {
		binary.Write(buf, binary.LittleEndian, v)
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(mesh.Groups)))
	for _, g := range mesh.Groups {
		if len(g) > math.MaxUint16 {
			return nil, fmt.Errorf("group name too long: %d bytes", len(g))
		}
		binary.Write(buf, binary.LittleEndian, uint16(len(g)))
		buf.WriteString(g)
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(mesh.Faces)))
	for _, f := range mesh.Faces {
		binary.Write(buf, binary.LittleEndian, f.Group)
		binary.Write(buf, binary.LittleEndian, uint32(len(f.Verts)))
		binary.Write(buf, binary.LittleEndian, f.Verts)
	}
	return buf.Bytes(), nil
}

// blobReader keeps the first read error so parsing code can read a run
// of fields and check once.
type blobReader struct {
	r   *bytes.Reader
	err error
}

func (b *blobReader) read(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, binary.LittleEndian, v); err != nil {
		b.err = err
	}
}

// count reads a u32 element count and rejects counts that cannot fit in
// the remaining data given the minimum element size.
func (b *blobReader) count(minElemSize int) int {
	var n uint32
	b.read(&n)
	if b.err != nil {
		return 0
	}
	if int64(n)*int64(minElemSize) > int64(b.r.Len()) {
		b.err = io.ErrUnexpectedEOF
		return 0
	}
	return int(n)
}
