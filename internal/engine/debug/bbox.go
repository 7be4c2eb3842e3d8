// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/sketchplane/internal/engine/drawing"
	"github.com/Faultbox/sketchplane/internal/engine/picking"
)

// BoxColor is the color used for index bounds.
var BoxColor = drawing.Color{1, 0.85, 0.2, 0.8}

// BoxEdgeCount is the number of line segments in a box wireframe.
const BoxEdgeCount = 12

// boxEdges indexes the corners produced by BoundsBuffer. Corner i has
// bit 0 set for max X, bit 1 for max Y and bit 2 for max Z.
var boxEdges = [BoxEdgeCount][2]uint32{
	// Bottom
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	// Top
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	// Vertical
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// BoundsBuffer creates a line buffer outlining box, grown by padding on
// every side. An empty box yields an empty buffer.
func BoundsBuffer(box picking.AABB, padding float64) drawing.Buffer {
	if box.Empty() {
		return drawing.Buffer{}
	}

	lo, hi := box.Min, box.Max
	lo.X, lo.Y, lo.Z = lo.X-padding, lo.Y-padding, lo.Z-padding
	hi.X, hi.Y, hi.Z = hi.X+padding, hi.Y+padding, hi.Z+padding

	buf := drawing.Buffer{
		Positions: make([]float32, 0, 8*3),
		Indices:   make([]uint32, 0, BoxEdgeCount*2),
	}
	for i := 0; i < 8; i++ {
		x, y, z := lo.X, lo.Y, lo.Z
		if i&1 != 0 {
			x = hi.X
		}
		if i&2 != 0 {
			y = hi.Y
		}
		if i&4 != 0 {
			z = hi.Z
		}
		buf.Positions = append(buf.Positions, float32(x), float32(y), float32(z))
	}
	for _, e := range boxEdges {
		buf.Indices = append(buf.Indices, e[0], e[1])
	}
	return buf
}
