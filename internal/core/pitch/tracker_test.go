package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

func newTestEstimator(t *testing.T, dropout DropoutPolicy) Estimator {
	t.Helper()
	est, err := NewEstimator(EstimatorConfig{Alpha: 0.5, MaxSpeed: 100, FPS: 1, Dropout: dropout})
	require.NoError(t, err)
	return est
}

func pos(x, y float64) physics.Vec2 { return physics.V2(x, y) }

// walk feeds p1 along the x axis at 2 m/frame for frames 0..2.
func walk(t *testing.T, est Estimator) Tracker {
	t.Helper()
	tr := NewTracker()
	for i, x := range []float64{0, 2, 4} {
		var err error
		_, tr, err = est.Update(tr, int64(i), map[AgentID]physics.Vec2{"p1": pos(x, 0)})
		require.NoError(t, err)
	}
	return tr
}

func TestTrackerEMAOverFrames(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{})
	tr := NewTracker()
	assert.False(t, tr.Started())

	v, tr, err := est.Update(tr, 0, map[AgentID]physics.Vec2{"p1": pos(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, physics.Vec2{}, v["p1"])
	assert.True(t, tr.Started())

	v, tr, err = est.Update(tr, 1, map[AgentID]physics.Vec2{"p1": pos(2, 0)})
	require.NoError(t, err)
	assert.Equal(t, pos(1, 0), v["p1"])

	v, tr, err = est.Update(tr, 2, map[AgentID]physics.Vec2{"p1": pos(4, 0)})
	require.NoError(t, err)
	assert.Equal(t, pos(1.5, 0), v["p1"])

	assert.Equal(t, int64(2), tr.LastFrame())
	assert.Equal(t, map[AgentID]physics.Vec2{"p1": pos(1.5, 0)}, tr.Velocities())
}

func TestTrackerIsNotMutated(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{})
	before := walk(t, est)
	snapshot, _ := before.Track("p1")

	_, after, err := est.Update(before, 3, map[AgentID]physics.Vec2{"p2": pos(9, 9)})
	require.NoError(t, err)

	track, ok := before.Track("p1")
	require.True(t, ok)
	assert.Equal(t, snapshot, track)
	assert.Equal(t, int64(2), before.LastFrame())
	assert.Equal(t, 1, before.Len())

	assert.Equal(t, int64(3), after.LastFrame())
}

func TestTrackerRejectsOutOfOrderFrames(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{})
	tr := walk(t, est)

	for _, idx := range []int64{2, 1, -5} {
		v, got, err := est.Update(tr, idx, map[AgentID]physics.Vec2{"p1": pos(6, 0)})
		assert.ErrorIs(t, err, ErrFrameOutOfOrder)
		assert.Nil(t, v)
		assert.Equal(t, tr, got)
	}
}

func TestTrackerFrameGapStretchesInterval(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{})

	_, tr, err := est.Update(NewTracker(), 0, map[AgentID]physics.Vec2{"p1": pos(0, 0)})
	require.NoError(t, err)
	v, _, err := est.Update(tr, 3, map[AgentID]physics.Vec2{"p1": pos(3, 0)})
	require.NoError(t, err)

	// raw (1, 0) over three frames, smoothed against the zero first observation
	assert.Equal(t, pos(0.5, 0), v["p1"])
}

func TestDropoutForget(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{Mode: DropoutForget})
	tr := walk(t, est)

	v, tr, err := est.Update(tr, 3, map[AgentID]physics.Vec2{})
	require.NoError(t, err)
	assert.Empty(t, v)
	_, ok := tr.Track("p1")
	assert.False(t, ok)

	v, _, err = est.Update(tr, 4, map[AgentID]physics.Vec2{"p1": pos(8, 0)})
	require.NoError(t, err)
	assert.Equal(t, physics.Vec2{}, v["p1"], "returning agent is a first observation")
}

func TestDropoutDecay(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{Mode: DropoutDecay, Decay: DecayFactor(0.5), MaxMissed: 2})
	tr := walk(t, est)

	v, tr, err := est.Update(tr, 3, map[AgentID]physics.Vec2{"other": pos(50, 50)})
	require.NoError(t, err)
	assert.NotContains(t, v, AgentID("p1"), "absent agents get no velocity")

	track, ok := tr.Track("p1")
	require.True(t, ok)
	assert.Equal(t, pos(0.75, 0), track.Velocity)
	assert.Equal(t, pos(4, 0), track.Position)
	assert.Equal(t, 1, track.Missed)

	_, tr, err = est.Update(tr, 4, map[AgentID]physics.Vec2{})
	require.NoError(t, err)
	track, ok = tr.Track("p1")
	require.True(t, ok)
	assert.Equal(t, pos(0.375, 0), track.Velocity)
	assert.Equal(t, 2, track.Missed)

	_, tr, err = est.Update(tr, 5, map[AgentID]physics.Vec2{})
	require.NoError(t, err)
	_, ok = tr.Track("p1")
	assert.False(t, ok, "history dropped after MaxMissed")
}

func TestDropoutDecayReturningAgent(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{Mode: DropoutDecay, Decay: DecayFactor(0.5), MaxMissed: 2})
	tr := walk(t, est)

	_, tr, err := est.Update(tr, 3, map[AgentID]physics.Vec2{})
	require.NoError(t, err)

	v, tr, err := est.Update(tr, 4, map[AgentID]physics.Vec2{"p1": pos(8, 0)})
	require.NoError(t, err)

	// raw (8-4)/2 = 2 against the decayed 0.75
	assert.Equal(t, pos(1.375, 0), v["p1"])
	track, _ := tr.Track("p1")
	assert.Equal(t, 0, track.Missed)
	assert.Equal(t, int64(4), track.LastFrame)
}

func TestDropoutZeroDecayStopsAgent(t *testing.T) {
	est := newTestEstimator(t, DropoutPolicy{Mode: DropoutDecay, Decay: DecayFactor(0)})
	tr := walk(t, est)

	_, tr, err := est.Update(tr, 3, map[AgentID]physics.Vec2{})
	require.NoError(t, err)

	track, ok := tr.Track("p1")
	require.True(t, ok, "zero decay keeps the track")
	assert.Equal(t, physics.Vec2{}, track.Velocity)
	assert.Equal(t, pos(4, 0), track.Position)

	v, _, err := est.Update(tr, 4, map[AgentID]physics.Vec2{"p1": pos(8, 0)})
	require.NoError(t, err)
	// raw (8-4)/2 = 2 against the stopped 0
	assert.Equal(t, pos(1, 0), v["p1"])
}

func TestDropoutDecayDefaults(t *testing.T) {
	p := DropoutPolicy{Mode: DropoutDecay}.withDefaults(0.3)
	require.NotNil(t, p.Decay)
	assert.InDelta(t, 0.7, *p.Decay, 1e-12)
	assert.Equal(t, DefaultMaxMissed, p.MaxMissed)

	forget := DropoutPolicy{}.withDefaults(0.3)
	assert.Equal(t, DropoutPolicy{}, forget)
}

func TestParseDropoutMode(t *testing.T) {
	m, err := ParseDropoutMode("")
	require.NoError(t, err)
	assert.Equal(t, DropoutForget, m)

	m, err = ParseDropoutMode("decay")
	require.NoError(t, err)
	assert.Equal(t, DropoutDecay, m)
	assert.Equal(t, "decay", m.String())

	_, err = ParseDropoutMode("linger")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
