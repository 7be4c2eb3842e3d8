package drawing

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// planes returns the preprocessed three-plane mesh and its classifier.
func planes(t *testing.T, doubleSided bool) (*mesh.Mesh, *mesh.Classifier) {
	t.Helper()
	const lo, hi = 0.25, 1.0
	positions := []math.Vec3{
		{X: lo, Z: lo}, {X: hi, Z: lo}, {X: hi, Z: hi}, {X: lo, Z: hi},
		{X: lo, Y: lo}, {X: hi, Y: lo}, {X: hi, Y: hi}, {X: lo, Y: hi},
		{Y: lo, Z: lo}, {Y: hi, Z: lo}, {Y: hi, Z: hi}, {Y: lo, Z: hi},
	}
	faces := []mesh.Face{
		{Verts: []int{0, 1, 2, 3}, Group: 0},
		{Verts: []int{4, 5, 6, 7}, Group: 1},
		{Verts: []int{8, 9, 10, 11}, Group: 2},
	}
	m, err := mesh.Preprocess(mesh.New("workplanes", positions, faces, []string{"xz", "xy", "yz"}), doubleSided)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	return m, mesh.NewClassifier(m)
}

func TestScaleForViewDistance(t *testing.T) {
	tests := []struct {
		distance, minimum, want float64
	}{
		{0, 3, 3},
		{4, 3, 3},
		{6, 3, 3},
		{6.5, 3, 3.25},
		{20, 3, 10},
		{20, 15, 15},
		{1e6, DefaultMinimumScale, 5e5},
	}
	for _, tt := range tests {
		if got := ScaleForViewDistance(tt.distance, tt.minimum); got != tt.want {
			t.Errorf("ScaleForViewDistance(%v, %v) = %v, want %v", tt.distance, tt.minimum, got, tt.want)
		}
	}

	// Never below the minimum, and exactly half the distance above it.
	for d := 0.0; d < 50; d += 0.37 {
		got := ScaleForViewDistance(d, DefaultMinimumScale)
		if got < DefaultMinimumScale {
			t.Fatalf("scale %v below minimum at distance %v", got, d)
		}
		if d/2 > DefaultMinimumScale && got != d/2 {
			t.Fatalf("scale %v at distance %v, want %v", got, d, d/2)
		}
	}
}

func TestNewDrawnMeshDefaults(t *testing.T) {
	m, c := planes(t, false)
	d := NewDrawnMesh(m, c, Options{})

	if d.Options().MinimumScale != DefaultMinimumScale {
		t.Errorf("minimum scale = %v, want default", d.Options().MinimumScale)
	}
	if d.Scale() != DefaultMinimumScale {
		t.Errorf("initial scale = %v", d.Scale())
	}
	if d.State() != Dirty {
		t.Errorf("initial state = %v, want dirty", d.State())
	}
}

func TestSetViewDistanceInvalidates(t *testing.T) {
	m, c := planes(t, false)
	d := NewDrawnMesh(m, c, DefaultOptions())

	first := d.Index()
	if d.State() != Clean {
		t.Fatalf("state after build = %v", d.State())
	}
	if d.Index() != first {
		t.Error("clean cache should return the same index")
	}

	if d.SetViewDistance(0) {
		t.Error("unchanged distance should not invalidate")
	}
	if !d.SetViewDistance(20) {
		t.Fatal("changed distance should invalidate")
	}
	if d.State() != Dirty {
		t.Errorf("state after change = %v, want dirty", d.State())
	}
	if first.Len() != 0 {
		t.Error("previous index should be released")
	}
	if d.Scale() != 10 {
		t.Errorf("scale = %v, want 10", d.Scale())
	}

	second := d.Index()
	if second == first {
		t.Error("index should be rebuilt after scale change")
	}
	if d.SetViewDistance(20) {
		t.Error("repeating the distance should not invalidate")
	}
}

// TestIndexMatchesDrawnGeometry checks that the index and the base
// buffer are always built at the same scale.
func TestIndexMatchesDrawnGeometry(t *testing.T) {
	m, c := planes(t, false)
	d := NewDrawnMesh(m, c, DefaultOptions())

	for _, dist := range []float64{0, 8, 30, 2, 100} {
		d.SetViewDistance(dist)
		scale := d.Scale()

		box, ok := d.Index().Bounds()
		if !ok {
			t.Fatal("expected bounds")
		}
		if gomath.Abs(box.Max.X-scale) > 1e-9 {
			t.Errorf("distance %v: index max x = %v, want %v", dist, box.Max.X, scale)
		}

		buf := d.BaseBuffer()
		var maxX float32
		for i := 0; i < len(buf.Positions); i += 3 {
			maxX = max(maxX, buf.Positions[i])
		}
		if gomath.Abs(float64(maxX)-scale) > 1e-4 {
			t.Errorf("distance %v: buffer max x = %v, want %v", dist, maxX, scale)
		}

		// A ray down through the scaled xy plane hits group 1.
		res := d.Index().Raycast(math.Vec3{X: 0.4 * scale, Y: 0.7 * scale, Z: scale * 4}, math.Vec3{Z: -1})
		if res.Failed() || m.Faces[res.Face].Group != 1 {
			t.Errorf("distance %v: expected xy hit, got %+v", dist, res)
		}
	}
}

func TestBaseBuffer(t *testing.T) {
	m, c := planes(t, true)
	d := NewDrawnMesh(m, c, DefaultOptions())

	buf := d.BaseBuffer()
	if buf.VertexCount() != 24 {
		t.Errorf("vertex count = %d, want 24", buf.VertexCount())
	}
	if len(buf.Normals) != len(buf.Positions) {
		t.Errorf("normals %d, positions %d", len(buf.Normals), len(buf.Positions))
	}
	if len(buf.Indices) != 12*3 {
		t.Errorf("index count = %d, want 36", len(buf.Indices))
	}
	for _, i := range buf.Indices {
		if int(i) >= buf.VertexCount() {
			t.Fatalf("index %d out of range", i)
		}
	}

	// Vertex 4 is on the front xy face; its duplicate faces the other way.
	n := buf.Normals[4*3+2]
	back := buf.Normals[(4+12)*3+2]
	if gomath.Abs(float64(n)) != 1 || n != -back {
		t.Errorf("xy normals: front z %v, back z %v", n, back)
	}
}

func TestOutlineBuffer(t *testing.T) {
	tests := []struct {
		name        string
		doubleSided bool
	}{
		{"single sided", false},
		{"double sided dedupes copies", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, c := planes(t, tt.doubleSided)
			d := NewDrawnMesh(m, c, DefaultOptions())

			buf := d.OutlineBuffer()
			// Three quads, four boundary edges each; diagonals are interior.
			if got := len(buf.Indices) / 2; got != 12 {
				t.Errorf("segments = %d, want 12", got)
			}
			if buf.VertexCount() != 24 {
				t.Errorf("vertex count = %d, want 24", buf.VertexCount())
			}
		})
	}
}

func TestHighlightBuffer(t *testing.T) {
	m, c := planes(t, true)
	d := NewDrawnMesh(m, c, DefaultOptions())

	buf, err := d.HighlightBuffer(1)
	if err != nil {
		t.Fatalf("HighlightBuffer: %v", err)
	}
	// Front and back copies of one quad.
	if len(buf.Indices) != 4*3 {
		t.Fatalf("index count = %d, want 12", len(buf.Indices))
	}
	for i := 0; i < len(buf.Indices); i += 3 {
		for _, vi := range buf.Indices[i : i+3] {
			if z := buf.Positions[vi*3+2]; z != 0 {
				t.Errorf("highlight vertex %d not on xy plane (z=%v)", vi, z)
			}
		}
	}

	again, _ := d.HighlightBuffer(1)
	if &again.Indices[0] != &buf.Indices[0] {
		t.Error("same group should return the cached buffer")
	}

	other, err := d.HighlightBuffer(2)
	if err != nil {
		t.Fatalf("HighlightBuffer: %v", err)
	}
	if &other.Indices[0] == &buf.Indices[0] {
		t.Error("group change should rebuild the highlight")
	}

	empty, err := d.HighlightBuffer(mesh.Ungrouped)
	if err != nil || !empty.Empty() {
		t.Errorf("ungrouped highlight: %v, %d indices", err, len(empty.Indices))
	}

	if _, err := d.HighlightBuffer(7); !errors.Is(err, mesh.ErrInvalidGroupID) {
		t.Errorf("err = %v, want ErrInvalidGroupID", err)
	}
}

func TestHighlightFollowsScale(t *testing.T) {
	m, c := planes(t, false)
	d := NewDrawnMesh(m, c, DefaultOptions())

	before, _ := d.HighlightBuffer(1)
	d.SetViewDistance(40)
	after, _ := d.HighlightBuffer(1)

	if d.Scale() != 20 {
		t.Fatalf("scale = %v", d.Scale())
	}
	maxX := func(b Buffer) float32 {
		var v float32
		for _, i := range b.Indices {
			v = max(v, b.Positions[i*3])
		}
		return v
	}
	if maxX(before) != 3 || maxX(after) != 20 {
		t.Errorf("highlight extent before %v after %v, want 3 and 20", maxX(before), maxX(after))
	}
}

func TestRelease(t *testing.T) {
	m, c := planes(t, false)
	d := NewDrawnMesh(m, c, DefaultOptions())

	idx := d.Index()
	d.Release()
	if d.State() != Dirty {
		t.Errorf("state after release = %v", d.State())
	}
	if idx.Len() != 0 {
		t.Error("index should be released")
	}
	d.Release()

	if d.Index().Len() == 0 {
		t.Error("queries after release should rebuild")
	}
}

func TestStateString(t *testing.T) {
	if Dirty.String() != "dirty" || Clean.String() != "clean" || State(5).String() != "State(5)" {
		t.Error("unexpected State strings")
	}
}
