package drawing

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/Faultbox/sketchplane/internal/engine/picking"
	"github.com/Faultbox/sketchplane/internal/logger"
	"github.com/Faultbox/sketchplane/internal/mesh"
)

// DefaultMinimumScale is the smallest scale the workplanes are drawn at,
// so they stay visible when the camera is zoomed in close.
const DefaultMinimumScale = 3.0

// ScaleForViewDistance returns the uniform scale for a view distance.
func ScaleForViewDistance(viewDistance, minimum float64) float64 {
	return max(minimum, viewDistance/2)
}

// State is the cache state of the scale-dependent data.
type State int

const (
	Dirty State = iota
	Clean
)

func (s State) String() string {
	switch s {
	case Dirty:
		return "dirty"
	case Clean:
		return "clean"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// GroupFaces enumerates the faces of a group.
type GroupFaces interface {
	FacesInGroup(id int) (iter.Seq[int], error)
}

// Options configures a DrawnMesh.
type Options struct {
	MinimumScale float64
	PassiveColor Color
	ActiveColor  Color
	OutlineColor Color
}

// DefaultOptions returns the stock scale clamp and colors.
func DefaultOptions() Options {
	return Options{
		MinimumScale: DefaultMinimumScale,
		PassiveColor: Color{0.45, 0.6, 0.85, 0.15},
		ActiveColor:  Color{1, 0.6, 0.2, 0.45},
		OutlineColor: Color{0.9, 0.9, 0.9, 0.6},
	}
}

// DrawnMesh owns everything derived from the mesh at the current scale.
// The scaled mesh, its BVH, the base buffer, the outline buffer and the
// highlight buffer are invalidated together whenever the view distance
// changes and are rebuilt on first use, so hit testing always runs
// against the geometry that is drawn.
type DrawnMesh struct {
	source *mesh.Mesh
	groups GroupFaces
	opts   Options
	log    *zap.Logger

	viewDistance float64
	scale        float64
	state        State

	scaled  *mesh.Mesh
	index   *picking.BVH
	base    *Buffer
	outline *Buffer

	highlightGroup int
	highlight      *Buffer
}

// NewDrawnMesh wraps a preprocessed mesh. A non-positive MinimumScale is
// replaced with DefaultMinimumScale.
func NewDrawnMesh(m *mesh.Mesh, groups GroupFaces, opts Options) *DrawnMesh {
	if !(opts.MinimumScale > 0) {
		opts.MinimumScale = DefaultMinimumScale
	}
	return &DrawnMesh{
		source: m,
		groups: groups,
		opts:   opts,
		log:    logger.Named("drawing").With(zap.String("mesh", m.Name)),
		scale:  opts.MinimumScale,
	}
}

// Options returns the options the mesh was created with.
func (d *DrawnMesh) Options() Options {
	return d.opts
}

// State reports whether the derived data matches the current scale.
func (d *DrawnMesh) State() State {
	return d.state
}

// ViewDistance returns the last view distance set.
func (d *DrawnMesh) ViewDistance() float64 {
	return d.viewDistance
}

// Scale returns the current uniform scale.
func (d *DrawnMesh) Scale() float64 {
	return d.scale
}

// SetViewDistance updates the view distance. When it differs from the
// previous one the scale is recomputed and all derived data is dropped.
// It reports whether anything was invalidated.
func (d *DrawnMesh) SetViewDistance(viewDistance float64) bool {
	if viewDistance == d.viewDistance {
		return false
	}
	d.viewDistance = viewDistance
	d.scale = ScaleForViewDistance(viewDistance, d.opts.MinimumScale)
	d.invalidate()
	d.log.Debug("view distance changed",
		zap.Float64("view_distance", viewDistance),
		zap.Float64("scale", d.scale))
	return true
}

func (d *DrawnMesh) invalidate() {
	d.index.Release()
	d.scaled = nil
	d.index = nil
	d.base = nil
	d.outline = nil
	d.highlight = nil
	d.state = Dirty
}

// rebuild recreates the scaled mesh, index and base buffers together.
func (d *DrawnMesh) rebuild() {
	if d.state == Clean {
		return
	}
	d.scaled = d.source.Scaled(d.scale)
	d.index = picking.BuildBVH(d.scaled)

	base := vertexBuffer(d.scaled)
	base.Indices = triangleIndices(d.scaled, allFaces(d.scaled))
	d.base = &base

	outline := outlineBuffer(d.scaled)
	d.outline = &outline

	d.state = Clean
	d.log.Debug("rebuilt scaled geometry",
		zap.Float64("scale", d.scale),
		zap.Int("triangles", d.index.Len()),
		zap.Int("outline_segments", len(outline.Indices)/2))
}

// Mesh returns the scaled mesh.
func (d *DrawnMesh) Mesh() *mesh.Mesh {
	d.rebuild()
	return d.scaled
}

// Index returns the spatial index over the scaled mesh.
func (d *DrawnMesh) Index() *picking.BVH {
	d.rebuild()
	return d.index
}

// BaseBuffer returns all triangles of the scaled mesh.
func (d *DrawnMesh) BaseBuffer() Buffer {
	d.rebuild()
	return *d.base
}

// OutlineBuffer returns the boundary edges of the scaled mesh as lines.
func (d *DrawnMesh) OutlineBuffer() Buffer {
	d.rebuild()
	return *d.outline
}

// HighlightBuffer returns the triangles of one group. It shares vertex
// data with the base buffer. The result is cached until the group or the
// scale changes.
func (d *DrawnMesh) HighlightBuffer(group int) (Buffer, error) {
	d.rebuild()
	if d.highlight != nil && d.highlightGroup == group {
		return *d.highlight, nil
	}

	faces, err := d.groups.FacesInGroup(group)
	if err != nil {
		return Buffer{}, fmt.Errorf("highlight group %d: %w", group, err)
	}
	buf := Buffer{
		Positions: d.base.Positions,
		Normals:   d.base.Normals,
		Indices:   triangleIndices(d.scaled, faces),
	}
	d.highlight = &buf
	d.highlightGroup = group
	return buf, nil
}

// Release frees all derived data. The mesh stays usable and rebuilds on
// the next query.
func (d *DrawnMesh) Release() {
	d.invalidate()
	d.log.Debug("released")
}
