// Package assets loads reference meshes from mesh bundles and YAML mesh
// documents.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/bundle"
	"github.com/Faultbox/sketchplane/pkg/formats"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// Asset errors. Both are fatal to the caller: no partial mesh is
// returned.
var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrAssetCorrupt  = errors.New("asset corrupt")
)

// BuiltinPath is the pseudo path that selects the embedded mesh document.
const BuiltinPath = "builtin"

// WorkplanesMesh is the name of the built-in workplane mesh.
const WorkplanesMesh = "workplanes"

//go:embed builtin/workplanes.yaml
var builtinDocument []byte

// Load reads the named mesh from the asset at path. Paths ending in
// .yaml or .yml are mesh documents; anything else is opened as a mesh
// bundle. BuiltinPath selects the embedded document. The returned mesh
// shares no memory with the asset.
func Load(path, meshName string) (*mesh.Mesh, error) {
	data, err := loadData(path, meshName)
	if err != nil {
		return nil, err
	}
	return FromData(meshName, data)
}

// LoadBuiltin reads a mesh from the embedded document.
func LoadBuiltin(meshName string) (*mesh.Mesh, error) {
	return Load(BuiltinPath, meshName)
}

func loadData(path, meshName string) (*formats.MeshData, error) {
	switch {
	case path == BuiltinPath:
		return documentData(builtinDocument, path, meshName)
	case isDocument(path):
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fileError(path, err)
		}
		return documentData(raw, path, meshName)
	default:
		return bundleData(path, meshName)
	}
}

func isDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func documentData(raw []byte, path, meshName string) (*formats.MeshData, error) {
	doc, err := formats.ParseMeshDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetCorrupt, path, err)
	}
	entry, ok := doc.Find(meshName)
	if !ok {
		return nil, fmt.Errorf("%w: mesh %q in %s", ErrAssetNotFound, meshName, path)
	}
	data, err := entry.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetCorrupt, path, err)
	}
	return data, nil
}

func bundleData(path, meshName string) (*formats.MeshData, error) {
	archive, err := bundle.Open(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	defer archive.Close()

	return readBundleMesh(archive, path, meshName)
}

func readBundleMesh(archive *bundle.Archive, path, meshName string) (*formats.MeshData, error) {
	raw, err := archive.Read(meshName)
	if errors.Is(err, bundle.ErrNotFound) {
		return nil, fmt.Errorf("%w: mesh %q in %s", ErrAssetNotFound, meshName, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetCorrupt, path, err)
	}

	data, err := formats.ParseWMSH(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: mesh %q in %s: %w", ErrAssetCorrupt, meshName, path, err)
	}
	return data, nil
}

func fileError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}
	if errors.Is(err, bundle.ErrInvalidMagic) || errors.Is(err, bundle.ErrUnsupportedVersion) || errors.Is(err, bundle.ErrCorrupt) {
		return fmt.Errorf("%w: %s: %w", ErrAssetCorrupt, path, err)
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

// FromData converts decoded mesh data to a runtime mesh.
func FromData(name string, data *formats.MeshData) (*mesh.Mesh, error) {
	positions := make([]math.Vec3, len(data.Vertices))
	for i, v := range data.Vertices {
		positions[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}

	faces := make([]mesh.Face, len(data.Faces))
	for i, f := range data.Faces {
		verts := make([]int, len(f.Verts))
		for k, v := range f.Verts {
			verts[k] = int(v)
		}
		faces[i] = mesh.Face{Verts: verts, Group: int(f.Group)}
	}

	m := mesh.New(name, positions, faces, data.Groups)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: mesh %q: %w", ErrAssetCorrupt, name, err)
	}
	return m, nil
}

// ToData converts a runtime mesh back to its asset representation.
func ToData(m *mesh.Mesh) *formats.MeshData {
	data := &formats.MeshData{
		Vertices: make([][3]float64, len(m.Vertices)),
		Groups:   append([]string(nil), m.GroupNames...),
		Faces:    make([]formats.MeshFace, len(m.Faces)),
	}
	for i, v := range m.Vertices {
		data.Vertices[i] = [3]float64{v.Position.X, v.Position.Y, v.Position.Z}
	}
	for i, f := range m.Faces {
		verts := make([]uint32, len(f.Verts))
		for k, v := range f.Verts {
			verts[k] = uint32(v)
		}
		data.Faces[i] = formats.MeshFace{Group: int32(f.Group), Verts: verts}
	}
	return data
}
