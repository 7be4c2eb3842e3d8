package tool

import (
	"fmt"

	"github.com/Faultbox/sketchplane/internal/engine/drawing"
	"github.com/Faultbox/sketchplane/internal/engine/picking"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// EventKind identifies what the host delivered.
type EventKind int

const (
	// Other is any event the session does not handle.
	Other EventKind = iota
	PointerMove
	Confirm
	Cancel
)

func (k EventKind) String() string {
	switch k {
	case Other:
		return "other"
	case PointerMove:
		return "pointer-move"
	case Confirm:
		return "confirm"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one host input event. Cursor is in viewport pixels with the
// origin at the top-left corner.
type Event struct {
	Kind   EventKind
	Cursor math.Vec2
}

// Status tells the host what to do after an event.
type Status int

const (
	// Running keeps the session modal.
	Running Status = iota
	// Finished means a workplane was picked; see Session.Result.
	Finished
	// Cancelled means the session ended without a pick.
	Cancelled
	// PassThrough hands the event back to the host, e.g. for camera
	// navigation.
	PassThrough
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	case PassThrough:
		return "pass-through"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Done reports whether the session has ended.
func (s Status) Done() bool {
	return s == Finished || s == Cancelled
}

// Frame is the per-frame viewport state supplied by the host.
type Frame struct {
	View         picking.ViewTransform
	ViewDistance float64
}

// Target receives draw calls. Buffers are only valid for the duration
// of the call.
type Target interface {
	DrawTriangles(buf drawing.Buffer, color drawing.Color)
	DrawLines(buf drawing.Buffer, color drawing.Color)
}
