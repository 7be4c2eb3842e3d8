// Package input turns raw window events into picker events and camera
// navigation. It has no SDL dependency; the window package produces the
// raw events.
package input

import (
	"github.com/Faultbox/sketchplane/internal/tool"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// EventType identifies a raw window event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Key is a keyboard scancode. The values match SDL scancodes.
type Key uint32

const (
	KeyReturn Key = 40
	KeyEscape Key = 41
	KeyHome   Key = 74
)

// Mouse buttons. The values match SDL button ids.
const (
	ButtonLeft   uint8 = 1
	ButtonMiddle uint8 = 2
	ButtonRight  uint8 = 3
)

// Event is a raw window event.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
	Wheel  float64
}

// Action is what one raw event means to the picker. Tool is always
// delivered to the session; the navigation fields apply only when the
// session passes the event through.
type Action struct {
	Tool tool.Event

	Quit      bool
	Resize    bool
	Width     int
	Height    int
	Orbit     math.Vec2 // drag delta in pixels
	Zoom      float64   // wheel steps, positive zooms in
	ResetView bool
}

// Translator maps raw events to actions. It tracks the middle-button
// drag used for orbiting.
type Translator struct {
	orbiting bool
	last     math.Vec2
}

// NewTranslator returns a translator with no drag in progress.
func NewTranslator() *Translator {
	return &Translator{}
}

// Orbiting reports whether a middle-button drag is in progress.
func (t *Translator) Orbiting() bool {
	return t.orbiting
}

// Translate maps one raw event.
func (t *Translator) Translate(ev Event) Action {
	cursor := math.Vec2{X: float64(ev.MouseX), Y: float64(ev.MouseY)}
	act := Action{Tool: tool.Event{Kind: tool.Other, Cursor: cursor}}

	switch ev.Type {
	case EventQuit:
		act.Quit = true
		act.Tool.Kind = tool.Cancel

	case EventWindowResize:
		act.Resize = true
		act.Width, act.Height = ev.Width, ev.Height

	case EventKeyDown:
		switch ev.Key {
		case KeyEscape:
			act.Tool.Kind = tool.Cancel
		case KeyHome:
			act.ResetView = true
		}

	case EventMouseMove:
		act.Tool.Kind = tool.PointerMove
		if t.orbiting {
			act.Orbit = cursor.Sub(t.last)
		}
		t.last = cursor

	case EventMouseDown:
		t.last = cursor
		switch ev.Button {
		case ButtonLeft:
			act.Tool.Kind = tool.Confirm
		case ButtonRight:
			act.Tool.Kind = tool.Cancel
		case ButtonMiddle:
			t.orbiting = true
		}

	case EventMouseUp:
		if ev.Button == ButtonMiddle {
			t.orbiting = false
		}

	case EventMouseWheel:
		act.Zoom = ev.Wheel
	}

	return act
}
