package tool

import (
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/sketchplane/internal/assets"
	"github.com/Faultbox/sketchplane/internal/config"
	"github.com/Faultbox/sketchplane/internal/engine/drawing"
	"github.com/Faultbox/sketchplane/internal/engine/picking"
	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// At view distance 4 the built-in planes are drawn at the minimum scale
// of 3, so each spans [0.75, 3] along its two axes.
const testViewDistance = 4

var center = math.Vec2{X: 400, Y: 300}

// lookDown returns a frame whose center ray points straight down at
// (x, y).
func lookDown(x, y, viewDistance float64) Frame {
	return Frame{
		View: picking.ViewTransform{
			Width:      800,
			Height:     600,
			View:       math.LookAt(math.Vec3{X: x, Y: y, Z: 30}, math.Vec3{X: x, Y: y}, math.Vec3{Y: 1}),
			Projection: math.Perspective(gomath.Pi/4, 800.0/600.0, 0.1, 100),
		},
		ViewDistance: viewDistance,
	}
}

type drawCall struct {
	lines bool
	buf   drawing.Buffer
	color drawing.Color
}

type recorder struct {
	calls []drawCall
}

func (r *recorder) DrawTriangles(buf drawing.Buffer, color drawing.Color) {
	r.calls = append(r.calls, drawCall{buf: buf, color: color})
}

func (r *recorder) DrawLines(buf drawing.Buffer, color drawing.Color) {
	r.calls = append(r.calls, drawCall{lines: true, buf: buf, color: color})
}

type panicTarget struct{}

func (panicTarget) DrawTriangles(drawing.Buffer, drawing.Color) { panic("lost context") }
func (panicTarget) DrawLines(drawing.Buffer, drawing.Color)     { panic("lost context") }

type panicTester struct{}

func (panicTester) HitTest(picking.ViewTransform, math.Vec2) (picking.HoverResult, error) {
	panic("index corrupted")
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestPickXY(t *testing.T) {
	s := newSession(t)
	frame := lookDown(1.4, 2.0, testViewDistance)
	s.Draw(frame, &recorder{})

	if st := s.HandleEvent(Event{Kind: PointerMove, Cursor: center}); st != Running {
		t.Fatalf("pointer move status = %v", st)
	}
	hover := s.Hover()
	if hover.Failed() || hover.Group != 1 {
		t.Fatalf("hover = %+v, want group 1", hover)
	}

	rec := &recorder{}
	s.Draw(frame, rec)
	if len(rec.calls) != 3 {
		t.Fatalf("draw calls = %d, want base, outline and highlight", len(rec.calls))
	}
	opts := drawing.DefaultOptions()
	if rec.calls[0].lines || rec.calls[0].color != opts.PassiveColor {
		t.Errorf("first call should be the passive base, got %+v", rec.calls[0].color)
	}
	if !rec.calls[1].lines || rec.calls[1].color != opts.OutlineColor {
		t.Errorf("second call should be the outline")
	}
	if hl := rec.calls[2]; hl.lines || hl.color != opts.ActiveColor || len(hl.buf.Indices) != 12 {
		t.Errorf("third call should be the xy highlight, got %d indices", len(hl.buf.Indices))
	}

	if st := s.HandleEvent(Event{Kind: Confirm}); st != Finished {
		t.Fatalf("confirm status = %v, want finished", st)
	}
	name, ok := s.Result()
	if !ok || name != "xy" {
		t.Errorf("Result() = %q, %v, want xy", name, ok)
	}
	if !s.Closed() {
		t.Error("session should be closed after confirm")
	}
	if st := s.HandleEvent(Event{Kind: Cancel}); st != Finished {
		t.Errorf("events after finish = %v, want finished", st)
	}
}

func TestPickOtherPlanes(t *testing.T) {
	tests := []struct {
		name string
		eye  math.Vec3
		at   math.Vec3
		up   math.Vec3
		want string
	}{
		{"yz from +x", math.Vec3{X: 30, Y: 1.4, Z: 2.0}, math.Vec3{Y: 1.4, Z: 2.0}, math.Vec3{Z: 1}, "yz"},
		{"xz from +y", math.Vec3{X: 1.4, Y: 30, Z: 2.0}, math.Vec3{X: 1.4, Z: 2.0}, math.Vec3{Z: 1}, "xz"},
		{"xy from below", math.Vec3{X: 1.4, Y: 2.0, Z: -30}, math.Vec3{X: 1.4, Y: 2.0}, math.Vec3{Y: 1}, "xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			frame := lookDown(0.3, 0.1, testViewDistance)
			frame.View.View = math.LookAt(tt.eye, tt.at, tt.up)
			s.Draw(frame, &recorder{})

			s.HandleEvent(Event{Kind: PointerMove, Cursor: center})
			if st := s.HandleEvent(Event{Kind: Confirm}); st != Finished {
				t.Fatalf("confirm status = %v", st)
			}
			if name, _ := s.Result(); name != tt.want {
				t.Errorf("Result() = %q, want %q", name, tt.want)
			}
		})
	}
}

func TestEmptySpace(t *testing.T) {
	s := newSession(t)
	s.Draw(lookDown(10, 10, testViewDistance), &recorder{})

	s.HandleEvent(Event{Kind: PointerMove, Cursor: center})
	if !s.Hover().Failed() {
		t.Fatalf("hover = %+v, want none", s.Hover())
	}

	rec := &recorder{}
	s.Draw(lookDown(10, 10, testViewDistance), rec)
	if len(rec.calls) != 2 {
		t.Errorf("draw calls = %d, want no highlight", len(rec.calls))
	}

	if st := s.HandleEvent(Event{Kind: Confirm}); st != Running {
		t.Errorf("confirm with nothing hovered = %v, want running", st)
	}
	if _, ok := s.Result(); ok {
		t.Error("no result expected")
	}
}

func TestPointerMoveBeforeFirstFrame(t *testing.T) {
	s := newSession(t)
	s.HandleEvent(Event{Kind: PointerMove, Cursor: center})
	if !s.Hover().Failed() {
		t.Error("no frame yet, hover should be empty")
	}

	// The first frame resolves the pending cursor.
	s.Draw(lookDown(1.4, 2.0, testViewDistance), &recorder{})
	if h := s.Hover(); h.Failed() || h.Group != 1 {
		t.Errorf("hover after first frame = %+v", h)
	}
}

func TestZoomRefreshesHover(t *testing.T) {
	s := newSession(t)
	s.Draw(lookDown(1.4, 2.0, testViewDistance), &recorder{})
	s.HandleEvent(Event{Kind: PointerMove, Cursor: center})
	if s.Hover().Failed() {
		t.Fatal("expected hover at minimum scale")
	}

	// At distance 100 the planes start at 12.5, away from the cursor ray.
	s.Draw(lookDown(1.4, 2.0, 100), &recorder{})
	if !s.Hover().Failed() {
		t.Errorf("hover after zoom = %+v, want none", s.Hover())
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Session)
	}{
		{"idle", func(*Session) {}},
		{"while hovering", func(s *Session) {
			s.Draw(lookDown(1.4, 2.0, testViewDistance), &recorder{})
			s.HandleEvent(Event{Kind: PointerMove, Cursor: center})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			tt.setup(s)

			if st := s.HandleEvent(Event{Kind: Cancel}); st != Cancelled {
				t.Fatalf("cancel status = %v", st)
			}
			if !s.Closed() || s.drawn != nil || s.Mesh() != nil {
				t.Error("cancel should release the session's resources")
			}
			if _, ok := s.Result(); ok {
				t.Error("cancelled session has no result")
			}

			s.Close()
			rec := &recorder{}
			s.Draw(lookDown(1.4, 2.0, testViewDistance), rec)
			if len(rec.calls) != 0 {
				t.Error("closed session should not draw")
			}
			if st := s.HandleEvent(Event{Kind: PointerMove, Cursor: center}); st != Cancelled {
				t.Errorf("event after cancel = %v", st)
			}
			if err := s.Reload(s.Mesh()); !errors.Is(err, ErrClosed) {
				t.Errorf("Reload after close = %v, want ErrClosed", err)
			}
		})
	}
}

func TestIndexBounds(t *testing.T) {
	s := newSession(t)

	box, ok := s.IndexBounds()
	if !ok {
		t.Fatal("no bounds for an open session")
	}
	if box.Max.Distance(math.Vec3{X: 3, Y: 3, Z: 3}) > 1e-9 || box.Min.Length() > 1e-9 {
		t.Errorf("bounds = %v, want [0, 3] on every axis", box)
	}

	s.Draw(lookDown(0, 0, 100), &recorder{})
	box, _ = s.IndexBounds()
	if gomath.Abs(box.Max.X-50) > 1e-9 {
		t.Errorf("max x after zoom = %v, want 50", box.Max.X)
	}

	s.Close()
	if _, ok := s.IndexBounds(); ok {
		t.Error("closed session still reports bounds")
	}
}

func TestPassThrough(t *testing.T) {
	s := newSession(t)
	if st := s.HandleEvent(Event{Kind: Other}); st != PassThrough {
		t.Errorf("status = %v, want pass-through", st)
	}
	if st := s.HandleEvent(Event{Kind: EventKind(42)}); st != PassThrough {
		t.Errorf("unknown kind status = %v, want pass-through", st)
	}
}

func TestPanicRecovery(t *testing.T) {
	s := newSession(t)
	frame := lookDown(1.4, 2.0, testViewDistance)
	s.Draw(frame, &recorder{})
	s.HandleEvent(Event{Kind: PointerMove, Cursor: center})

	s.Draw(frame, panicTarget{})
	if !s.Hover().Failed() {
		t.Error("panicking draw should clear the hover")
	}

	s.tester = panicTester{}
	if st := s.HandleEvent(Event{Kind: PointerMove, Cursor: center}); st != Running {
		t.Errorf("status after panic = %v, want running", st)
	}
	if !s.Hover().Failed() {
		t.Error("panicking hit test should clear the hover")
	}
	if s.Closed() {
		t.Error("a panic should not end the session")
	}
}

func TestConfirmUngroupedFace(t *testing.T) {
	m := mesh.New("loose",
		[]math.Vec3{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}},
		[]mesh.Face{{Verts: []int{0, 1, 2, 3}, Group: mesh.Ungrouped}},
		nil)
	s, err := NewWithMesh(m, DefaultOptions())
	if err != nil {
		t.Fatalf("NewWithMesh: %v", err)
	}
	defer s.Close()

	s.Draw(lookDown(0.3, 0.1, testViewDistance), &recorder{})
	s.HandleEvent(Event{Kind: PointerMove, Cursor: center})
	if h := s.Hover(); h.Failed() || h.Group != mesh.Ungrouped {
		t.Fatalf("hover = %+v, want ungrouped face", h)
	}
	if st := s.HandleEvent(Event{Kind: Confirm}); st != Running {
		t.Errorf("confirm on ungrouped face = %v, want running", st)
	}
}

func TestReload(t *testing.T) {
	s := newSession(t)
	s.Draw(lookDown(1.4, 2.0, testViewDistance), &recorder{})
	s.HandleEvent(Event{Kind: PointerMove, Cursor: center})

	top := mesh.New("top",
		[]math.Vec3{{X: -1, Y: -1, Z: 0.5}, {X: 1, Y: -1, Z: 0.5}, {X: 1, Y: 2, Z: 0.5}, {X: -1, Y: 2, Z: 0.5}},
		[]mesh.Face{{Verts: []int{0, 1, 2, 3}, Group: 0}},
		[]string{"top"})
	if err := s.Reload(top); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	// Scaled by 3 the quad covers x in [-3, 3] and y in [-3, 6].
	if h := s.Hover(); h.Failed() || h.Group != 0 {
		t.Fatalf("hover after reload = %+v", h)
	}
	s.HandleEvent(Event{Kind: Confirm})
	if name, _ := s.Result(); name != "top" {
		t.Errorf("Result() = %q, want top", name)
	}
}

func TestReloadAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planes.yaml")
	doc := `meshes:
  - name: single
    groups: [front]
    vertices: [[-1, -1, 0], [1, -1, 0], [1, 1, 0], [-1, 1, 0]]
    faces:
      - {group: front, verts: [0, 1, 2, 3]}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.Asset = path
	opts.Mesh = "single"
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if len(s.Mesh().Faces) != 4 {
		t.Errorf("faces = %d, want 4 after double-siding", len(s.Mesh().Faces))
	}

	if err := os.WriteFile(path, []byte("meshes: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.ReloadAsset(); !errors.Is(err, assets.ErrAssetCorrupt) {
		t.Errorf("ReloadAsset = %v, want ErrAssetCorrupt", err)
	}
	if s.Mesh() == nil || s.Closed() {
		t.Error("failed reload should keep the previous mesh")
	}
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "bad.yaml")
	bad := `meshes:
  - name: broken
    groups: []
    vertices: [[0, 0, 0], [1, 0, 0], [1, 1, 0]]
    faces:
      - {verts: [0, 1, 9]}
`
	if err := os.WriteFile(corrupt, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		asset string
		mesh  string
		want  error
	}{
		{"unknown mesh", assets.BuiltinPath, "nope", assets.ErrAssetNotFound},
		{"missing bundle", filepath.Join(dir, "none.bundle"), "workplanes", assets.ErrAssetNotFound},
		{"out of range vertex", corrupt, "broken", assets.ErrAssetCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Asset, opts.Mesh = tt.asset, tt.mesh
			s, err := New(opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
			if s != nil {
				t.Error("no session expected on error")
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Picker.MinimumScale = 7
	cfg.Picker.ActiveColor = config.Color{1, 0, 0, 1}

	opts := OptionsFromConfig(cfg.Picker)
	if opts.Asset != assets.BuiltinPath || opts.Mesh != assets.WorkplanesMesh || !opts.DoubleSided {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Drawing.MinimumScale != 7 {
		t.Errorf("minimum scale = %v", opts.Drawing.MinimumScale)
	}
	if opts.Drawing.ActiveColor != (drawing.Color{1, 0, 0, 1}) {
		t.Errorf("active color = %v", opts.Drawing.ActiveColor)
	}
}

func TestStatusStrings(t *testing.T) {
	if !Finished.Done() || !Cancelled.Done() || Running.Done() || PassThrough.Done() {
		t.Error("unexpected Done values")
	}
	if Confirm.String() != "confirm" || Status(9).String() != "Status(9)" {
		t.Error("unexpected strings")
	}
}
