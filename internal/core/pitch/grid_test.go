package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

func TestNewGridCardinality(t *testing.T) {
	g, err := NewGrid(105, 68, 2)
	require.NoError(t, err)

	assert.Equal(t, 34, g.Rows())
	assert.Equal(t, 53, g.Cols())
	assert.Equal(t, 1802, g.Len())
	assert.Equal(t, 105.0, g.Length())
	assert.Equal(t, 68.0, g.Width())
	assert.Equal(t, 2.0, g.Resolution())
}

func TestNewGridRowMajorOrder(t *testing.T) {
	g, err := NewGrid(105, 68, 2)
	require.NoError(t, err)

	assert.Equal(t, physics.V2(0, 0), g.Point(0))
	assert.Equal(t, physics.V2(2, 0), g.Point(1))
	assert.Equal(t, physics.V2(104, 0), g.Point(52))
	assert.Equal(t, physics.V2(0, 2), g.Point(53))
	assert.Equal(t, physics.V2(104, 66), g.Point(g.Len()-1))

	assert.Equal(t, 17*53+25, g.Index(17, 25))
	assert.Equal(t, physics.V2(50, 34), g.PointAt(17, 25))
}

func TestNewGridDeterministic(t *testing.T) {
	a, err := NewGrid(105, 68, 2)
	require.NoError(t, err)
	b, err := NewGrid(105, 68, 2)
	require.NoError(t, err)

	assert.Equal(t, a.Points(), b.Points())
}

func TestNewGridPointsIsACopy(t *testing.T) {
	g, err := NewGrid(10, 10, 5)
	require.NoError(t, err)

	pts := g.Points()
	pts[0] = physics.V2(99, 99)
	assert.Equal(t, physics.V2(0, 0), g.Point(0))
}

func TestNewGridFractionalResolution(t *testing.T) {
	g, err := NewGrid(0.68, 0.34, 0.01)
	require.NoError(t, err)

	assert.Equal(t, 68, g.Cols())
	assert.Equal(t, 34, g.Rows())
}

func TestNewGridRejectsInvalidConfig(t *testing.T) {
	for name, args := range map[string][3]float64{
		"zero length":         {0, 68, 2},
		"negative width":      {105, -1, 2},
		"zero resolution":     {105, 68, 0},
		"nan resolution":      {105, 68, math.NaN()},
		"infinite length":     {math.Inf(1), 68, 2},
		"negative everything": {-1, -1, -1},
		"centimetre grid":     {105, 68, 0.01},
		"vanishing cells":     {105, 68, 1e-9},
		"denormal resolution": {105, 68, 5e-324},
	} {
		t.Run(name, func(t *testing.T) {
			g, err := NewGrid(args[0], args[1], args[2])
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestGridDimsAtPointLimit(t *testing.T) {
	rows, cols, err := gridDims(2048, 2048, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxGridPoints, rows*cols)

	_, _, err = gridDims(2049, 2048, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGridNearest(t *testing.T) {
	g, err := NewGrid(105, 68, 2)
	require.NoError(t, err)

	row, col, ok := g.Nearest(physics.V2(50.4, 33.2))
	require.True(t, ok)
	assert.Equal(t, 17, row)
	assert.Equal(t, 25, col)

	row, col, ok = g.Nearest(physics.V2(105, 68))
	require.True(t, ok)
	assert.Equal(t, 33, row)
	assert.Equal(t, 52, col)

	_, _, ok = g.Nearest(physics.V2(-0.1, 10))
	assert.False(t, ok)
	_, _, ok = g.Nearest(physics.V2(10, 68.5))
	assert.False(t, ok)
}

func TestGridCacheSharesGrids(t *testing.T) {
	c := NewGridCache()

	a, err := c.Get(105, 68, 2)
	require.NoError(t, err)
	b, err := c.Get(105, 68, 2)
	require.NoError(t, err)
	assert.Same(t, a, b)

	other, err := c.Get(105, 68, 1)
	require.NoError(t, err)
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, c.Len())

	_, err = c.Get(105, 68, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 2, c.Len())
}
