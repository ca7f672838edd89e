package pitch

import (
	"fmt"
	"math"

	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// MaxGridPoints bounds the number of evaluation points a surface may produce (about 1 cm resolution
// on a full-size pitch would need 71 million).
const MaxGridPoints = 1 << 22

// ceilSlack absorbs float noise so that e.g. 0.68/0.01 counts 68 cells, not 69.
const ceilSlack = 1e-9

// Grid is the immutable set of evaluation points covering the surface.
//
// Points are laid out row-major: rows run along the width (y) axis and columns along the length (x)
// axis, so point (row, col) sits at (col*resolution, row*resolution) and has index row*Cols()+col.
// A ControlField produced for a grid uses the same indexing.
type Grid struct {
	length     float64
	width      float64
	resolution float64
	rows       int
	cols       int
	points     []physics.Vec2
}

// NewGrid builds the ceil(length/resolution) x ceil(width/resolution) evaluation grid.
// All three arguments must be strictly positive and finite, and the grid may hold at most
// MaxGridPoints points.
func NewGrid(length, width, resolution float64) (*Grid, error) {
	rows, cols, err := gridDims(length, width, resolution)
	if err != nil {
		return nil, err
	}

	points := make([]physics.Vec2, 0, rows*cols)
	for r := 0; r < rows; r++ {
		y := float64(r) * resolution
		for c := 0; c < cols; c++ {
			points = append(points, physics.V2(float64(c)*resolution, y))
		}
	}

	return &Grid{
		length:     length,
		width:      width,
		resolution: resolution,
		rows:       rows,
		cols:       cols,
		points:     points,
	}, nil
}

// gridDims validates a surface and returns its point counts. Sizes are checked in float64 so an
// oversized grid is rejected before anything is allocated.
func gridDims(length, width, resolution float64) (rows, cols int, err error) {
	if err := requirePositive("length", length); err != nil {
		return 0, 0, err
	}
	if err := requirePositive("width", width); err != nil {
		return 0, 0, err
	}
	if err := requirePositive("resolution", resolution); err != nil {
		return 0, 0, err
	}

	c := cellCount(length, resolution)
	r := cellCount(width, resolution)
	if r*c > MaxGridPoints {
		return 0, 0, fmt.Errorf("%w: %g x %g at resolution %g needs %.3g points, limit is %d",
			ErrInvalidConfig, length, width, resolution, r*c, MaxGridPoints)
	}
	return int(r), int(c), nil
}

func cellCount(extent, resolution float64) float64 {
	return math.Max(1, math.Ceil(extent/resolution-ceilSlack))
}

func requirePositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfig, name, v)
	}
	return nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Len() int { return len(g.points) }
func (g *Grid) Length() float64 { return g.length }
func (g *Grid) Width() float64 { return g.width }
func (g *Grid) Resolution() float64 { return g.resolution }
func (g *Grid) Point(i int) physics.Vec2 { return g.points[i] }

// Index returns the flat index of (row, col).
func (g *Grid) Index(row, col int) int { return row*g.cols + col }

// PointAt returns the point at (row, col).
func (g *Grid) PointAt(row, col int) physics.Vec2 { return g.points[g.Index(row, col)] }

// Points returns a copy of the ordered point sequence.
func (g *Grid) Points() []physics.Vec2 {
	out := make([]physics.Vec2, len(g.points))
	copy(out, g.points)
	return out
}

// Nearest maps a surface position to the closest grid point.
// ok is false when p lies outside [0, length] x [0, width] or is not finite.
func (g *Grid) Nearest(p physics.Vec2) (row, col int, ok bool) {
	if !p.IsFinite() || p.X < 0 || p.Y < 0 || p.X > g.length || p.Y > g.width {
		return 0, 0, false
	}
	col = min(int(math.Round(p.X/g.resolution)), g.cols-1)
	row = min(int(math.Round(p.Y/g.resolution)), g.rows-1)
	return row, col, true
}
