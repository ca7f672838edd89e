package pitch

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
	"github.com/zeusync/pitchcontrol/pkg/concurrent"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Neutral is the control value of a point nobody has influence over, and of exact parity.
const Neutral = 0.5

// Field is the per-point home control in [0, 1], row-major in grid order.
// 0 means full away control, 1 full home control.
type Field struct {
	Rows   int
	Cols   int
	Values []float64
}

func newField(rows, cols int) *Field {
	return &Field{Rows: rows, Cols: cols, Values: make([]float64, rows*cols)}
}

func (f *Field) At(row, col int) float64 { return f.Values[row*f.Cols+col] }

// Matrix returns a Rows x Cols view over Values. Writes through the view change the field.
func (f *Field) Matrix() *mat.Dense {
	return mat.NewDense(f.Rows, f.Cols, f.Values)
}

// Checksum is the xxhash64 of the little-endian bits of Values. Equal fields have equal checksums.
func (f *Field) Checksum() uint64 {
	d := xxhash.New()
	var b [8]byte
	for _, v := range f.Values {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		_, _ = d.Write(b[:])
	}
	return d.Sum64()
}

// Summary counts how the surface is split between the teams.
type Summary struct {
	Home        int     `json:"home" msgpack:"home"`
	Away        int     `json:"away" msgpack:"away"`
	Contested   int     `json:"contested" msgpack:"contested"`
	MeanControl float64 `json:"mean_control" msgpack:"mean_control"`
}

// Summary classifies every point: contested when |c - 0.5| <= band, otherwise home or away.
func (f *Field) Summary(band float64) Summary {
	var s Summary
	for _, c := range f.Values {
		switch {
		case math.Abs(c-Neutral) <= band:
			s.Contested++
		case c > Neutral:
			s.Home++
		default:
			s.Away++
		}
	}
	if len(f.Values) > 0 {
		s.MeanControl = floats.Sum(f.Values) / float64(len(f.Values))
	}
	return s
}

// ComputeField evaluates home control at every grid point.
//
// For each point the influences of all home agents and of all away agents are summed separately and
// control = home / (home + away); a point with no influence at all is Neutral. Points are independent,
// so rows are spread over at most workers goroutines (non-positive means GOMAXPROCS).
func ComputeField(home, away []AgentState, grid *Grid, arrival ArrivalModel, influence Sigmoid, workers int) (*Field, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: grid is required", ErrInvalidConfig)
	}
	if !arrival.valid() {
		return nil, fmt.Errorf("%w: arrival model is not initialized", ErrInvalidConfig)
	}
	if !influence.valid() {
		return nil, fmt.Errorf("%w: influence function is not initialized", ErrInvalidConfig)
	}

	field := newField(grid.rows, grid.cols)

	err := concurrent.ForEachChunk(grid.rows, workers, func(lo, hi int) error {
		exponents := make([]float64, len(home)+len(away))
		for i := lo * grid.cols; i < hi*grid.cols; i++ {
			field.Values[i] = pointControl(home, away, grid.points[i], arrival, influence, exponents)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return field, nil
}

// pointControl evaluates one point. Team sums are taken over influences scaled by the smallest
// exponent at the point, so distant agents cannot underflow both sums to zero.
func pointControl(home, away []AgentState, target physics.Vec2, arrival ArrivalModel, influence Sigmoid, exponents []float64) float64 {
	shift := math.Inf(1)
	for j, a := range home {
		exponents[j] = influence.Exponent(arrival.TimeToIntercept(a.Position, a.Velocity, target))
		shift = math.Min(shift, exponents[j])
	}
	for j, a := range away {
		exponents[len(home)+j] = influence.Exponent(arrival.TimeToIntercept(a.Position, a.Velocity, target))
		shift = math.Min(shift, exponents[len(home)+j])
	}
	if math.IsInf(shift, 1) {
		return Neutral
	}

	h := scaledSum(exponents[:len(home)], shift, influence)
	a := scaledSum(exponents[len(home):], shift, influence)
	return control(h, a)
}

func scaledSum(exponents []float64, shift float64, influence Sigmoid) float64 {
	sum := 0.0
	for _, x := range exponents {
		sum += influence.ScaledInfluence(x, shift)
	}
	return sum
}

func control(home, away float64) float64 {
	total := home + away
	if total == 0 {
		return Neutral
	}
	return home / total
}
