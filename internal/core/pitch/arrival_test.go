package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

func defaultArrival(t *testing.T) ArrivalModel {
	t.Helper()
	m, err := NewArrivalModel(DefaultReactionTime, DefaultMaxSpeed)
	require.NoError(t, err)
	return m
}

func TestTimeToInterceptStationary(t *testing.T) {
	m := defaultArrival(t)

	tti := m.TimeToIntercept(physics.V2(50, 34), physics.Vec2{}, physics.V2(60, 34))
	assert.InDelta(t, 0.7+10.0/13.0, tti, 1e-12)
	assert.InDelta(t, 1.469, tti, 1e-3)

	tti = m.TimeToIntercept(physics.V2(0, 0), physics.Vec2{}, physics.V2(13, 0))
	assert.InDelta(t, 1.7, tti, 1e-12)
}

func TestTimeToInterceptDirection(t *testing.T) {
	m := defaultArrival(t)
	from, to := physics.V2(50, 34), physics.V2(60, 34)

	stationary := m.TimeToIntercept(from, physics.Vec2{}, to)
	toward := m.TimeToIntercept(from, physics.V2(10, 0), to)
	away := m.TimeToIntercept(from, physics.V2(-10, 0), to)
	sideways := m.TimeToIntercept(from, physics.V2(0, 10), to)

	assert.InDelta(t, 0.7+3.0/13.0, toward, 1e-12)
	assert.InDelta(t, 0.7+17.0/13.0, away, 1e-12)
	assert.InDelta(t, stationary, sideways, 1e-12)
	assert.Less(t, toward, stationary)
	assert.Greater(t, away, stationary)
}

func TestTimeToInterceptNeverBelowReaction(t *testing.T) {
	m := defaultArrival(t)

	tti := m.TimeToIntercept(physics.V2(50, 34), physics.V2(20, 0), physics.V2(60, 34))
	assert.Equal(t, DefaultReactionTime, tti)
}

func TestTimeToInterceptAtTarget(t *testing.T) {
	m := defaultArrival(t)

	assert.Equal(t, DefaultReactionTime, m.TimeToIntercept(physics.V2(5, 5), physics.Vec2{}, physics.V2(5, 5)))
	assert.Equal(t, DefaultReactionTime, m.TimeToIntercept(physics.V2(5, 5), physics.V2(-9, 4), physics.V2(5, 5)))
}

func TestNewArrivalModelValidation(t *testing.T) {
	_, err := NewArrivalModel(0, 13)
	assert.NoError(t, err)

	for name, args := range map[string][2]float64{
		"negative reaction": {-0.1, 13},
		"nan reaction":      {math.NaN(), 13},
		"zero max speed":    {0.7, 0},
		"negative speed":    {0.7, -13},
	} {
		_, err := NewArrivalModel(args[0], args[1])
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}
