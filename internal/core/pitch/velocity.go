package pitch

import (
	"fmt"

	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// Velocity estimation defaults.
const (
	DefaultAlpha    = 0.3
	DefaultMaxSpeed = 13.0
	DefaultFPS      = 29.97
)

// RawVelocity is the finite-difference velocity (current - previous) / dt.
func RawVelocity(current, previous physics.Vec2, dt float64) physics.Vec2 {
	return current.Sub(previous).Scale(1 / dt)
}

// SmoothVelocity applies one exponential smoothing step: alpha*raw + (1-alpha)*previous.
func SmoothVelocity(raw, previous physics.Vec2, alpha float64) physics.Vec2 {
	return raw.Scale(alpha).Add(previous.Scale(1 - alpha))
}

// ClampVelocity scales v down to maxSpeed when it is faster, keeping its direction.
func ClampVelocity(v physics.Vec2, maxSpeed float64) physics.Vec2 {
	return physics.ClampMagnitude(v, maxSpeed)
}

// RawVelocities computes raw velocities for every agent in current.
// Agents without a previous position get the zero vector; agents only in previous are omitted.
func RawVelocities(current, previous map[AgentID]physics.Vec2, dt float64) map[AgentID]physics.Vec2 {
	out := make(map[AgentID]physics.Vec2, len(current))
	for id, cur := range current {
		prev, ok := previous[id]
		if !ok {
			out[id] = physics.Vec2{}
			continue
		}
		out[id] = RawVelocity(cur, prev, dt)
	}
	return out
}

// SmoothVelocities smooths every raw velocity against the agent's previous smoothed value.
// The first observation of an agent is passed through unchanged.
func SmoothVelocities(raw, previous map[AgentID]physics.Vec2, alpha float64) map[AgentID]physics.Vec2 {
	out := make(map[AgentID]physics.Vec2, len(raw))
	for id, v := range raw {
		prev, ok := previous[id]
		if !ok {
			out[id] = v
			continue
		}
		out[id] = SmoothVelocity(v, prev, alpha)
	}
	return out
}

// ClampVelocities clamps every velocity to maxSpeed.
func ClampVelocities(velocities map[AgentID]physics.Vec2, maxSpeed float64) map[AgentID]physics.Vec2 {
	out := make(map[AgentID]physics.Vec2, len(velocities))
	for id, v := range velocities {
		out[id] = ClampVelocity(v, maxSpeed)
	}
	return out
}

// EstimatorConfig parameterizes velocity estimation.
type EstimatorConfig struct {
	Alpha    float64
	MaxSpeed float64
	FPS      float64
	Dropout  DropoutPolicy
}

// Validate rejects parameters that would make the estimate meaningless.
func (c EstimatorConfig) Validate() error {
	if !(c.Alpha > 0 && c.Alpha <= 1) {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %v", ErrInvalidConfig, c.Alpha)
	}
	if err := requirePositive("max speed", c.MaxSpeed); err != nil {
		return err
	}
	if err := requirePositive("fps", c.FPS); err != nil {
		return err
	}
	return c.Dropout.validate()
}

// Estimator turns successive position snapshots into smoothed, bounded velocities.
// It holds no per-agent state; callers thread a Tracker through Update.
type Estimator struct {
	alpha    float64
	maxSpeed float64
	dt       float64
	dropout  DropoutPolicy
}

func NewEstimator(cfg EstimatorConfig) (Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return Estimator{}, err
	}
	return Estimator{
		alpha:    cfg.Alpha,
		maxSpeed: cfg.MaxSpeed,
		dt:       1 / cfg.FPS,
		dropout:  cfg.Dropout.withDefaults(cfg.Alpha),
	}, nil
}

// DT is the sampling interval in seconds.
func (e Estimator) DT() float64 { return e.dt }

// Update consumes one frame of positions and returns the velocities of the agents present in it
// together with the tracker to use for the next frame. The given tracker is not modified.
//
// Frames must arrive with strictly increasing indexes. A gap of k frames stretches the interval
// used for a returning agent's raw velocity to k*dt.
func (e Estimator) Update(tr Tracker, frameIndex int64, positions map[AgentID]physics.Vec2) (map[AgentID]physics.Vec2, Tracker, error) {
	if tr.started && frameIndex <= tr.lastFrame {
		return nil, tr, fmt.Errorf("%w: got %d, last %d", ErrFrameOutOfOrder, frameIndex, tr.lastFrame)
	}

	next := Tracker{
		started:   true,
		lastFrame: frameIndex,
		tracks:    make(map[AgentID]Track, len(positions)),
	}
	velocities := make(map[AgentID]physics.Vec2, len(positions))

	for id, pos := range positions {
		prev, seen := tr.tracks[id]

		v := physics.Vec2{}
		if seen {
			elapsed := float64(frameIndex-prev.LastFrame) * e.dt
			v = SmoothVelocity(RawVelocity(pos, prev.Position, elapsed), prev.Velocity, e.alpha)
		}
		v = ClampVelocity(v, e.maxSpeed)

		velocities[id] = v
		next.tracks[id] = Track{Position: pos, Velocity: v, LastFrame: frameIndex}
	}

	for id, prev := range tr.tracks {
		if _, present := positions[id]; present {
			continue
		}
		if t, keep := e.dropout.apply(prev, tr.lastFrame, frameIndex); keep {
			next.tracks[id] = t
		}
	}

	return velocities, next, nil
}
