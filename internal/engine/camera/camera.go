// Package camera provides the orbit camera used to view the workplanes.
package camera

import (
	gomath "math"

	"github.com/Faultbox/sketchplane/internal/engine/picking"
	"github.com/Faultbox/sketchplane/pkg/math"
)

// OrbitCamera orbits a center point in a Z-up world. Distance is the
// view distance reported to the picker.
type OrbitCamera struct {
	Center math.Vec3

	Distance float64
	Pitch    float64 // elevation above the XY plane, radians
	Yaw      float64 // rotation about Z, radians

	FOV        float64 // vertical field of view, radians
	Near, Far  float64
	MinDist    float64
	MaxDist    float64
	MaxPitch   float64
	DragSpeed  float64 // radians per pixel
	ZoomFactor float64 // fraction of distance per wheel step
}

// NewOrbitCamera returns a camera looking at the origin from the
// positive octant.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		FOV:        gomath.Pi / 4,
		Near:       0.05,
		Far:        1000,
		MinDist:    0.5,
		MaxDist:    500,
		MaxPitch:   gomath.Pi/2 - 0.01,
		DragSpeed:  0.008,
		ZoomFactor: 0.1,
	}
	c.Reset()
	return c
}

// Reset restores the default orientation and distance.
func (c *OrbitCamera) Reset() {
	c.Center = math.Vec3{}
	c.Distance = 8
	c.Pitch = 0.6
	c.Yaw = gomath.Pi / 4
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(c.Pitch)
	offset := math.Vec3{
		X: c.Distance * cp * gomath.Cos(c.Yaw),
		Y: c.Distance * cp * gomath.Sin(c.Yaw),
		Z: c.Distance * gomath.Sin(c.Pitch),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Z: 1})
}

// ProjectionMatrix returns a perspective projection for the given
// viewport aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float64) math.Mat4 {
	if !(aspect > 0) {
		aspect = 1
	}
	return math.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// ViewTransform returns the view for a viewport of the given size in
// cursor coordinates.
func (c *OrbitCamera) ViewTransform(width, height float64) picking.ViewTransform {
	aspect := 1.0
	if height > 0 {
		aspect = width / height
	}
	return picking.ViewTransform{
		Width:      width,
		Height:     height,
		View:       c.ViewMatrix(),
		Projection: c.ProjectionMatrix(aspect),
	}
}

// HandleDrag rotates the camera by a cursor delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float64) {
	c.Yaw -= dx * c.DragSpeed
	c.Pitch += dy * c.DragSpeed
	c.Pitch = clamp(c.Pitch, -c.MaxPitch, c.MaxPitch)
}

// HandleZoom moves toward the center for positive steps.
func (c *OrbitCamera) HandleZoom(steps float64) {
	c.Distance *= gomath.Pow(1-c.ZoomFactor, steps)
	c.Distance = clamp(c.Distance, c.MinDist, c.MaxDist)
}

// FitToBounds centers the camera on a box and backs off far enough to
// see all of it.
func (c *OrbitCamera) FitToBounds(min, max math.Vec3) {
	c.Center = min.Add(max).Scale(0.5)
	radius := max.Sub(min).Length() / 2
	c.Distance = clamp(radius/gomath.Sin(c.FOV/2), c.MinDist, c.MaxDist)
}

func clamp(v, lo, hi float64) float64 {
	return gomath.Max(lo, gomath.Min(hi, v))
}
