// Package tool implements the modal workplane picking session: it owns
// the reference mesh for as long as the user is choosing, tracks which
// workplane is under the cursor and reports the one that was clicked.
package tool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/sketchplane/internal/assets"
	"github.com/Faultbox/sketchplane/internal/config"
	"github.com/Faultbox/sketchplane/internal/engine/drawing"
	"github.com/Faultbox/sketchplane/internal/engine/picking"
	"github.com/Faultbox/sketchplane/internal/logger"
	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// Options selects the mesh and how it is prepared and drawn.
type Options struct {
	Asset       string
	Mesh        string
	DoubleSided bool
	Drawing     drawing.Options
}

// DefaultOptions picks the built-in workplanes.
func DefaultOptions() Options {
	return Options{
		Asset:       assets.BuiltinPath,
		Mesh:        assets.WorkplanesMesh,
		DoubleSided: true,
		Drawing:     drawing.DefaultOptions(),
	}
}

// OptionsFromConfig converts the picker section of the config.
func OptionsFromConfig(p config.PickerConfig) Options {
	return Options{
		Asset:       p.Asset,
		Mesh:        p.Mesh,
		DoubleSided: p.DoubleSided,
		Drawing: drawing.Options{
			MinimumScale: p.MinimumScale,
			PassiveColor: drawing.Color(p.PassiveColor),
			ActiveColor:  drawing.Color(p.ActiveColor),
			OutlineColor: drawing.Color(p.OutlineColor),
		},
	}
}

type hitTester interface {
	HitTest(view picking.ViewTransform, cursor math.Vec2) (picking.HoverResult, error)
}

// Session is one interactive pick. It is not safe for concurrent use;
// the host calls it from its event loop only.
type Session struct {
	opts Options
	log  *zap.Logger

	mesh       *mesh.Mesh
	classifier *mesh.Classifier
	drawn      *drawing.DrawnMesh
	tester     hitTester

	frame     Frame
	haveFrame bool
	cursor    math.Vec2
	hasCursor bool
	hover     picking.HoverResult

	result   string
	selected bool
	closed   bool
}

// New loads the configured mesh and starts a session. Asset errors are
// returned wrapped; see assets.ErrAssetNotFound and
// assets.ErrAssetCorrupt.
func New(opts Options) (*Session, error) {
	m, err := assets.Load(opts.Asset, opts.Mesh)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return NewWithMesh(m, opts)
}

// NewWithMesh starts a session on an already loaded mesh. The mesh is
// not modified.
func NewWithMesh(m *mesh.Mesh, opts Options) (*Session, error) {
	s := &Session{opts: opts, log: logger.Named("tool")}
	if err := s.setMesh(m); err != nil {
		return nil, err
	}
	s.log.Info("session started",
		zap.String("mesh", m.Name),
		zap.Int("faces", len(s.mesh.Faces)),
		zap.Strings("groups", s.mesh.GroupNames))
	return s, nil
}

func (s *Session) setMesh(m *mesh.Mesh) error {
	prepared, err := mesh.Preprocess(m, s.opts.DoubleSided)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	viewDistance := 0.0
	if s.drawn != nil {
		viewDistance = s.drawn.ViewDistance()
		s.drawn.Release()
	}

	s.mesh = prepared
	s.classifier = mesh.NewClassifier(prepared)
	s.drawn = drawing.NewDrawnMesh(prepared, s.classifier, s.opts.Drawing)
	s.drawn.SetViewDistance(viewDistance)
	s.tester = picking.NewHitTester(s.drawn, s.classifier)
	s.hover = picking.HoverResult{}
	return nil
}

// Reload swaps in a new mesh, keeping the view distance. The hover is
// recomputed on the next pointer move or draw.
func (s *Session) Reload(m *mesh.Mesh) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.setMesh(m); err != nil {
		return err
	}
	s.refreshHover()
	s.log.Info("mesh reloaded", zap.String("mesh", m.Name))
	return nil
}

// ReloadAsset reads the configured asset again and swaps it in.
func (s *Session) ReloadAsset() error {
	m, err := assets.Load(s.opts.Asset, s.opts.Mesh)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return s.Reload(m)
}

// Hover returns the current hover state.
func (s *Session) Hover() picking.HoverResult {
	return s.hover
}

// Mesh returns the preprocessed mesh at unit scale.
func (s *Session) Mesh() *mesh.Mesh {
	return s.mesh
}

// Result returns the name of the picked group once the session has
// finished.
func (s *Session) Result() (string, bool) {
	return s.result, s.selected
}

// IndexBounds returns the bounds of the scaled index used for picking.
// ok is false once the session is closed.
func (s *Session) IndexBounds() (box picking.AABB, ok bool) {
	if s.closed {
		return picking.EmptyAABB(), false
	}
	return s.drawn.Index().Bounds()
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	return s.closed
}

// HandleEvent processes one event. A panic while handling is logged and
// clears the hover; the session keeps running.
func (s *Session) HandleEvent(ev Event) (status Status) {
	if s.closed {
		return s.finalStatus()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked",
				zap.Stringer("event", ev.Kind),
				zap.Any("panic", r),
				zap.Stack("stack"))
			s.hover = picking.HoverResult{}
			status = Running
		}
	}()

	switch ev.Kind {
	case PointerMove:
		s.cursor = ev.Cursor
		s.hasCursor = true
		s.refreshHover()
		return Running

	case Confirm:
		if s.hover.Failed() {
			return Running
		}
		name, ok := s.classifier.Name(s.hover.Group)
		if !ok {
			s.log.Debug("ignoring confirm on ungrouped face", zap.Int("face", s.hover.Face))
			return Running
		}
		s.result = name
		s.selected = true
		s.log.Info("workplane selected", zap.String("workplane", name))
		s.Close()
		return Finished

	case Cancel:
		s.log.Info("session cancelled")
		s.Close()
		return Cancelled

	default:
		return PassThrough
	}
}

func (s *Session) finalStatus() Status {
	if s.selected {
		return Finished
	}
	return Cancelled
}

// refreshHover hit-tests the last cursor position against the last
// frame's view.
func (s *Session) refreshHover() {
	if !s.haveFrame || !s.hasCursor {
		s.hover = picking.HoverResult{}
		return
	}

	prev := s.hover
	hover, err := s.tester.HitTest(s.frame.View, s.cursor)
	if err != nil {
		s.log.Warn("hit test failed", zap.Error(err))
		hover = picking.HoverResult{}
	}
	s.hover = hover

	if hover.Failed() != prev.Failed() || hover.Group != prev.Group {
		if hover.Failed() {
			s.log.Debug("hover cleared")
		} else {
			s.log.Debug("hover changed", zap.Int("group", hover.Group), zap.Int("face", hover.Face))
		}
	}
}

// Draw renders the workplanes for one frame: the whole mesh in the
// passive color, its outline, and the hovered group in the active
// color. A panic while drawing is logged and clears the hover.
func (s *Session) Draw(frame Frame, target Target) {
	if s.closed {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("draw panicked", zap.Any("panic", r), zap.Stack("stack"))
			s.hover = picking.HoverResult{}
		}
	}()

	viewChanged := !s.haveFrame || frame.View != s.frame.View
	s.frame = frame
	s.haveFrame = true
	if s.drawn.SetViewDistance(frame.ViewDistance) || viewChanged {
		s.refreshHover()
	}

	opts := s.drawn.Options()
	target.DrawTriangles(s.drawn.BaseBuffer(), opts.PassiveColor)
	if outline := s.drawn.OutlineBuffer(); !outline.Empty() {
		target.DrawLines(outline, opts.OutlineColor)
	}

	if s.hover.Failed() {
		return
	}
	highlight, err := s.drawn.HighlightBuffer(s.hover.Group)
	if err != nil {
		s.log.Warn("highlight failed", zap.Error(err))
		return
	}
	target.DrawTriangles(highlight, opts.ActiveColor)
}

// Close releases the index, the scaled mesh and all buffers. It is safe
// to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.drawn.Release()
	s.drawn = nil
	s.tester = nil
	s.classifier = nil
	s.mesh = nil
	s.hover = picking.HoverResult{}
	s.log.Debug("session closed")
}
