package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

func sample(id string, team Team, x, y float64) AgentSample {
	return AgentSample{ID: AgentID(id), Team: team, Position: physics.V2(x, y)}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	assert.Equal(t, 105.0, p.Length)
	assert.Equal(t, 68.0, p.Width)
	assert.Equal(t, 2.0, p.Resolution)
	assert.Equal(t, 0.7, p.ReactionTime)
	assert.Equal(t, 13.0, p.MaxSpeed)
	assert.Equal(t, 0.5, p.Sigma)
	assert.Equal(t, 0.3, p.Alpha)
	assert.Equal(t, 29.97, p.FPS)
	assert.Equal(t, DropoutForget, p.Dropout.Mode)
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	for name, mutate := range map[string]func(*Params){
		"zero resolution":   func(p *Params) { p.Resolution = 0 },
		"negative length":   func(p *Params) { p.Length = -105 },
		"zero width":        func(p *Params) { p.Width = 0 },
		"zero max speed":    func(p *Params) { p.MaxSpeed = 0 },
		"zero sigma":        func(p *Params) { p.Sigma = 0 },
		"negative reaction": func(p *Params) { p.ReactionTime = -1 },
		"alpha zero":        func(p *Params) { p.Alpha = 0 },
		"alpha too big":     func(p *Params) { p.Alpha = 1.5 },
		"fps zero":          func(p *Params) { p.FPS = 0 },
		"nan sigma":         func(p *Params) { p.Sigma = math.NaN() },
		"too many points":   func(p *Params) { p.Resolution = 1e-9 },
	} {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)

			e, err := NewEngine(p)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewEngineSharesCachedGrid(t *testing.T) {
	cache := NewGridCache()

	a, err := NewEngine(DefaultParams(), WithGridCache(cache))
	require.NoError(t, err)
	b, err := NewEngine(DefaultParams(), WithGridCache(cache))
	require.NoError(t, err)

	assert.Same(t, a.Grid(), b.Grid())
	assert.Equal(t, 1802, a.Grid().Len())
}

func TestEngineComputeFieldConcreteScenario(t *testing.T) {
	e, err := NewEngine(DefaultParams())
	require.NoError(t, err)

	tti := e.Arrival().TimeToIntercept(physics.V2(50, 34), physics.Vec2{}, physics.V2(60, 34))
	assert.InDelta(t, 1.469, tti, 1e-3)
	assert.InDelta(t, 0.0503, e.Influence().Influence(tti), 1e-4)

	field, err := e.ComputeField(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, field.At(0, 0))
}

func TestEngineStep(t *testing.T) {
	p := DefaultParams()
	p.FPS = 1
	p.Alpha = 1
	e, err := NewEngine(p)
	require.NoError(t, err)

	tr := NewTracker()
	field, tr, err := e.Step(tr, Frame{Index: 0, Agents: []AgentSample{
		sample("h1", TeamHome, 30, 34),
		sample("a1", TeamAway, 75, 34),
	}})
	require.NoError(t, err)
	require.NotNil(t, field)

	field, tr, err = e.Step(tr, Frame{Index: 1, Agents: []AgentSample{
		sample("h1", TeamHome, 35, 34),
		sample("a1", TeamAway, 75, 34),
	}})
	require.NoError(t, err)

	track, ok := tr.Track("h1")
	require.True(t, ok)
	assert.Equal(t, physics.V2(5, 0), track.Velocity)
	assert.Equal(t, int64(1), tr.LastFrame())

	row, col, _ := e.Grid().Nearest(physics.V2(52, 34))
	assert.Greater(t, field.At(row, col), 0.5)
}

func TestEngineStepOverflowingDisplacement(t *testing.T) {
	p := DefaultParams()
	e, err := NewEngine(p)
	require.NoError(t, err)

	_, tr, err := e.Step(NewTracker(), Frame{Index: 0, Agents: []AgentSample{
		sample("h1", TeamHome, -1e308, 34),
		sample("a1", TeamAway, 60, 34),
	}})
	require.NoError(t, err)

	field, tr, err := e.Step(tr, Frame{Index: 1, Agents: []AgentSample{
		sample("h1", TeamHome, 1e308, 34),
		sample("a1", TeamAway, 60, 34),
	}})
	require.NoError(t, err)

	track, ok := tr.Track("h1")
	require.True(t, ok)
	require.True(t, track.Velocity.IsFinite(), "velocity %v", track.Velocity)
	assert.InDelta(t, p.MaxSpeed, track.Velocity.Norm(), 1e-9)

	for i, v := range field.Values {
		require.False(t, math.IsNaN(v), "point %d", i)
		require.True(t, v >= 0 && v <= 1, "point %d: %v", i, v)
	}
}

func TestEngineStepAbsentAgentContributesNothing(t *testing.T) {
	p := DefaultParams()
	p.Dropout = DropoutPolicy{Mode: DropoutDecay}
	e, err := NewEngine(p)
	require.NoError(t, err)

	_, tr, err := e.Step(NewTracker(), Frame{Index: 0, Agents: []AgentSample{
		sample("h1", TeamHome, 30, 34),
		sample("a1", TeamAway, 75, 34),
	}})
	require.NoError(t, err)

	field, tr, err := e.Step(tr, Frame{Index: 1, Agents: []AgentSample{sample("h1", TeamHome, 30, 34)}})
	require.NoError(t, err)

	_, retained := tr.Track("a1")
	assert.True(t, retained)
	for _, v := range field.Values {
		require.Equal(t, 1.0, v)
	}
}

func TestEngineStepRejectsBadFrames(t *testing.T) {
	e, err := NewEngine(DefaultParams())
	require.NoError(t, err)

	_, tr, err := e.Step(NewTracker(), Frame{Index: 5})
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		frame Frame
		want  error
	}{
		"duplicate": {
			frame: Frame{Index: 6, Agents: []AgentSample{sample("x", TeamHome, 1, 1), sample("x", TeamAway, 2, 2)}},
			want:  ErrDuplicateAgent,
		},
		"unknown team": {
			frame: Frame{Index: 6, Agents: []AgentSample{sample("x", Team(9), 1, 1)}},
			want:  ErrUnknownTeam,
		},
		"nan position": {
			frame: Frame{Index: 6, Agents: []AgentSample{sample("x", TeamHome, math.NaN(), 1)}},
			want:  ErrNonFinitePosition,
		},
		"out of order": {
			frame: Frame{Index: 5},
			want:  ErrFrameOutOfOrder,
		},
	} {
		t.Run(name, func(t *testing.T) {
			field, got, err := e.Step(tr, tc.frame)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, field)
			assert.Equal(t, tr, got)
		})
	}
}

func TestParseTeam(t *testing.T) {
	team, err := ParseTeam("home")
	require.NoError(t, err)
	assert.Equal(t, TeamHome, team)

	team, err = ParseTeam("away")
	require.NoError(t, err)
	assert.Equal(t, "away", team.String())

	_, err = ParseTeam("referee")
	assert.ErrorIs(t, err, ErrUnknownTeam)
}

func TestSplitTeamsKeepsFrameOrder(t *testing.T) {
	frame := Frame{Agents: []AgentSample{
		sample("a2", TeamAway, 1, 1),
		sample("h1", TeamHome, 2, 2),
		sample("a1", TeamAway, 3, 3),
	}}
	velocities := map[AgentID]physics.Vec2{"a1": physics.V2(1, 0)}

	home, away := SplitTeams(frame, velocities)

	require.Len(t, home, 1)
	require.Len(t, away, 2)
	assert.Equal(t, AgentID("a2"), away[0].ID)
	assert.Equal(t, physics.Vec2{}, away[0].Velocity)
	assert.Equal(t, physics.V2(1, 0), away[1].Velocity)
}
