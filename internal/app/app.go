// Package app runs the interactive workplane picker: window, renderer,
// camera and the picking session in one event loop.
package app

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/sketchplane/internal/assets"
	"github.com/Faultbox/sketchplane/internal/config"
	"github.com/Faultbox/sketchplane/internal/engine/camera"
	"github.com/Faultbox/sketchplane/internal/engine/debug"
	"github.com/Faultbox/sketchplane/internal/engine/drawing"
	"github.com/Faultbox/sketchplane/internal/engine/input"
	"github.com/Faultbox/sketchplane/internal/engine/renderer"
	"github.com/Faultbox/sketchplane/internal/engine/window"
	"github.com/Faultbox/sketchplane/internal/logger"
	"github.com/Faultbox/sketchplane/internal/tool"
	"github.com/Faultbox/sketchplane/pkg/math"
	"github.com/Faultbox/sketchplane/pkg/watcher"
)

// ErrCancelled is returned by Run when the user leaves without picking.
var ErrCancelled = errors.New("picking cancelled")

const reloadDebounce = 150 * time.Millisecond

// App owns the window and the picking session.
type App struct {
	cfg        *config.Config
	window     *window.Window
	renderer   *renderer.Renderer
	camera     *camera.OrbitCamera
	translator *input.Translator
	session    *tool.Session
	watcher    *watcher.FileWatcher

	events     []input.Event
	showBounds bool
}

// New loads the mesh, then opens the window. Asset errors are reported
// before any window appears.
func New(cfg *config.Config) (*App, error) {
	session, err := tool.New(tool.OptionsFromConfig(cfg.Picker))
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		camera:     camera.NewOrbitCamera(),
		translator: input.NewTranslator(),
		session:    session,
		showBounds: cfg.Logging.Level == "debug",
	}

	a.window, err = window.New(window.Config{
		Title:      "Pick a workplane",
		Width:      cfg.Viewport.Width,
		Height:     cfg.Viewport.Height,
		Fullscreen: cfg.Viewport.Fullscreen,
		VSync:      cfg.Viewport.VSync,
	})
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	dw, dh := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		Background: drawing.Color{0.16, 0.17, 0.19, 1},
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if cfg.Viewport.FOVDegrees > 0 {
		a.camera.FOV = cfg.Viewport.FOVDegrees * gomath.Pi / 180
	}
	a.fitView()

	if cfg.Picker.Watch && cfg.Picker.Asset != assets.BuiltinPath {
		if err := a.startWatcher(cfg.Picker.Asset); err != nil {
			logger.Warn("asset watching disabled", zap.Error(err))
		}
	}
	return a, nil
}

func (a *App) startWatcher(path string) error {
	fw, err := watcher.New(reloadDebounce)
	if err != nil {
		return err
	}
	if err := fw.Watch(path); err != nil {
		fw.Close()
		return err
	}
	a.watcher = fw
	return nil
}

// Run processes events until a workplane is picked or the user cancels.
// It returns the picked group name.
func (a *App) Run() (string, error) {
	logger.Info("picker running", zap.String("mesh", a.cfg.Picker.Mesh))

	for {
		a.drainReloads()

		a.events = a.window.Poll(a.events[:0])
		for _, ev := range a.events {
			if status, done := a.handle(ev); done {
				if status == tool.Finished {
					name, _ := a.session.Result()
					return name, nil
				}
				return "", ErrCancelled
			}
		}

		a.render()
		a.window.SwapBuffers()
	}
}

func (a *App) handle(ev input.Event) (tool.Status, bool) {
	act := a.translator.Translate(ev)

	if act.Resize {
		dw, dh := a.window.DrawableSize()
		a.renderer.Resize(dw, dh)
	}

	status := a.session.HandleEvent(act.Tool)
	if status.Done() {
		return status, true
	}
	if act.Quit {
		return tool.Cancelled, true
	}

	// A middle drag both orbits and keeps the hover up to date
	if act.Orbit != (math.Vec2{}) {
		a.camera.HandleDrag(act.Orbit.X, act.Orbit.Y)
	}
	if status == tool.PassThrough {
		if act.Zoom != 0 {
			a.camera.HandleZoom(act.Zoom)
		}
		if act.ResetView {
			a.fitView()
		}
	}
	return status, false
}

// fitView restores the default orbit and frames the picking index.
func (a *App) fitView() {
	a.camera.Reset()
	if box, ok := a.session.IndexBounds(); ok {
		a.camera.FitToBounds(box.Min, box.Max)
	}
}

func (a *App) drainReloads() {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-a.watcher.Changes():
			if !ok {
				return
			}
			if err := a.session.ReloadAsset(); err != nil {
				logger.Warn("reload failed, keeping previous mesh", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("asset reloaded", zap.String("path", path))
		default:
			return
		}
	}
}

func (a *App) render() {
	w, h := a.window.Size()
	frame := tool.Frame{
		View:         a.camera.ViewTransform(float64(w), float64(h)),
		ViewDistance: a.camera.Distance,
	}

	a.renderer.Begin(frame.View.Projection.Mul(frame.View.View))
	a.session.Draw(frame, a.renderer)
	if a.showBounds {
		if box, ok := a.session.IndexBounds(); ok {
			a.renderer.DrawLines(debug.BoundsBuffer(box, 0.05), debug.BoxColor)
		}
	}
	a.renderer.End()
}

// Close releases the session, the watcher and the window.
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
