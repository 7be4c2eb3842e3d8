package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/bundle"
	"github.com/Faultbox/sketchplane/pkg/formats"
)

// writeBundle stores the given blobs in a bundle under dir.
func writeBundle(t *testing.T, dir string, blobs map[string][]byte) string {
	t.Helper()
	w := bundle.NewWriter()
	for name, blob := range blobs {
		if err := w.Add(name, blob); err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}
	path := filepath.Join(dir, "meshes.bundle")
	if err := w.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func encode(t *testing.T, data *formats.MeshData) []byte {
	t.Helper()
	blob, err := formats.EncodeWMSH(data)
	if err != nil {
		t.Fatalf("EncodeWMSH failed: %v", err)
	}
	return blob
}

func TestLoadBuiltin(t *testing.T) {
	m, err := LoadBuiltin(WorkplanesMesh)
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	if len(m.Vertices) != 12 || len(m.Faces) != 3 {
		t.Fatalf("expected 12 vertices and 3 faces, got %d and %d", len(m.Vertices), len(m.Faces))
	}
	want := []string{"xz", "xy", "yz"}
	for i, name := range want {
		if m.GroupNames[i] != name {
			t.Errorf("group %d = %q, want %q", i, m.GroupNames[i], name)
		}
		if m.Faces[i].Group != i {
			t.Errorf("face %d group = %d, want %d", i, m.Faces[i].Group, i)
		}
	}
	if m.Name != WorkplanesMesh {
		t.Errorf("mesh name = %q", m.Name)
	}
}

func TestLoadBuiltinMissingMesh(t *testing.T) {
	if _, err := LoadBuiltin("gizmo"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestLoadBundle(t *testing.T) {
	src, err := LoadBuiltin(WorkplanesMesh)
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	path := writeBundle(t, t.TempDir(), map[string][]byte{
		"workplanes": encode(t, ToData(src)),
	})

	m, err := Load(path, "workplanes")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Faces) != len(src.Faces) || m.Position(6) != src.Position(6) {
		t.Error("bundle mesh differs from source")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	corrupt := &formats.MeshData{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    []formats.MeshFace{{Group: -1, Verts: []uint32{0, 1, 7}}},
	}
	bundlePath := writeBundle(t, dir, map[string][]byte{
		"good":      encode(t, &formats.MeshData{Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Faces: []formats.MeshFace{{Group: -1, Verts: []uint32{0, 1, 2}}}}),
		"corrupt":   encode(t, corrupt),
		"truncated": encode(t, corrupt)[:12],
	})

	garbage := filepath.Join(dir, "garbage.bundle")
	if err := os.WriteFile(garbage, []byte("this is not a bundle at all, not even close"), 0644); err != nil {
		t.Fatal(err)
	}
	badDoc := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badDoc, []byte("meshes:\n  - name: m\n    vertices: [[0,0,0]]\n    faces:\n      - {verts: [0, 0, 4]}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		mesh string
		want error
	}{
		{"good mesh", bundlePath, "good", nil},
		{"missing mesh", bundlePath, "absent", ErrAssetNotFound},
		{"missing file", filepath.Join(dir, "nope.bundle"), "good", ErrAssetNotFound},
		{"missing document", filepath.Join(dir, "nope.yaml"), "good", ErrAssetNotFound},
		{"vertex out of range", bundlePath, "corrupt", ErrAssetCorrupt},
		{"truncated blob", bundlePath, "truncated", ErrAssetCorrupt},
		{"not a bundle", garbage, "good", ErrAssetCorrupt},
		{"bad document mesh", badDoc, "m", ErrAssetCorrupt},
		{"document missing mesh", badDoc, "other", ErrAssetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(tt.path, tt.mesh)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if m != nil {
				t.Error("a failed load must not return a mesh")
			}
		})
	}
}

func TestLoadReturnsIndependentMeshes(t *testing.T) {
	a, err := LoadBuiltin(WorkplanesMesh)
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	a.Faces[0].Verts[0] = 11
	a.Vertices[0].Position.X = 99
	a.GroupNames[0] = "changed"

	b, err := LoadBuiltin(WorkplanesMesh)
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	if b.Faces[0].Verts[0] != 0 || b.Vertices[0].Position.X != 0.25 || b.GroupNames[0] != "xz" {
		t.Error("second load observed mutations of the first")
	}
}

func TestFromDataToDataRoundTrip(t *testing.T) {
	src, _ := LoadBuiltin(WorkplanesMesh)
	m, err := FromData("copy", ToData(src))
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}
	if len(m.Faces) != 3 || m.Faces[2].Group != 2 || m.Position(10) != src.Position(10) {
		t.Error("round trip lost data")
	}
	if m.Faces[0].Group == mesh.Ungrouped {
		t.Error("group tag lost")
	}
}
