// Package tracking produces tracking frames for the pitch control engine.
package tracking

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// Formations in surface meters on a 105 x 68 pitch.
var (
	// 4-3-3 attacking left to right.
	homeFormation = []physics.Vec2{
		{X: 10, Y: 34},
		{X: 25, Y: 10}, {X: 25, Y: 25}, {X: 25, Y: 43}, {X: 25, Y: 58},
		{X: 45, Y: 20}, {X: 50, Y: 34}, {X: 45, Y: 48},
		{X: 70, Y: 15}, {X: 75, Y: 34}, {X: 70, Y: 53},
	}
	// 4-4-2 attacking right to left.
	awayFormation = []physics.Vec2{
		{X: 95, Y: 34},
		{X: 80, Y: 10}, {X: 80, Y: 25}, {X: 80, Y: 43}, {X: 80, Y: 58},
		{X: 60, Y: 10}, {X: 55, Y: 25}, {X: 55, Y: 43}, {X: 60, Y: 58},
		{X: 35, Y: 25}, {X: 35, Y: 43},
	}
)

// Drift and noise amplitudes, meters.
const (
	driftX = 3.0
	driftY = 2.0
	noise  = 1.0
)

// Generator produces deterministic synthetic frames: each agent sways around its formation slot
// with a slow sinusoidal drift plus gaussian jitter.
type Generator struct {
	seed int64
	fps  float64
}

func NewGenerator(seed int64, fps float64) (*Generator, error) {
	if !(fps > 0) || math.IsInf(fps, 0) {
		return nil, fmt.Errorf("%w: fps must be positive, got %v", pitch.ErrInvalidConfig, fps)
	}
	return &Generator{seed: seed, fps: fps}, nil
}

// Frame returns frame i. The same (seed, i) always yields the same frame.
func (g *Generator) Frame(i int64) pitch.Frame {
	rng := rand.New(rand.NewSource(g.seed ^ (i * 0x9E3779B1)))
	t := float64(i) / g.fps

	agents := make([]pitch.AgentSample, 0, len(homeFormation)+len(awayFormation))
	agents = appendTeam(agents, rng, t, "home", pitch.TeamHome, homeFormation, 0)
	agents = appendTeam(agents, rng, t, "away", pitch.TeamAway, awayFormation, 5)

	return pitch.Frame{Index: i, Agents: agents}
}

// Frames returns frames [from, from+n).
func (g *Generator) Frames(from int64, n int) []pitch.Frame {
	out := make([]pitch.Frame, n)
	for k := range out {
		out[k] = g.Frame(from + int64(k))
	}
	return out
}

func appendTeam(dst []pitch.AgentSample, rng *rand.Rand, t float64, prefix string, team pitch.Team, formation []physics.Vec2, phase float64) []pitch.AgentSample {
	for k, base := range formation {
		offset := float64(k) + phase
		dst = append(dst, pitch.AgentSample{
			ID:   pitch.AgentID(fmt.Sprintf("%s_%d", prefix, k+1)),
			Team: team,
			Position: physics.V2(
				base.X+math.Sin(t*2+offset)*driftX+rng.NormFloat64()*noise,
				base.Y+math.Cos(t*1.5+offset)*driftY+rng.NormFloat64()*noise,
			),
		})
	}
	return dst
}
