package pitch

import (
	"fmt"
	"math"

	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// Track is the carry-forward state of one agent.
type Track struct {
	Position  physics.Vec2 // last observed position
	Velocity  physics.Vec2 // last smoothed, clamped velocity
	LastFrame int64        // frame index of the last observation
	Missed    int          // consecutive frames the agent has been absent
}

// Tracker is the velocity history threaded by the caller from one frame to the next.
// It is a value: Estimator.Update returns a new Tracker and never mutates the one passed in.
type Tracker struct {
	started   bool
	lastFrame int64
	tracks    map[AgentID]Track
}

// NewTracker returns an empty history for the start of a session.
func NewTracker() Tracker {
	return Tracker{tracks: map[AgentID]Track{}}
}

// Started reports whether any frame has been consumed.
func (t Tracker) Started() bool { return t.started }

// LastFrame is the index of the last consumed frame; meaningless until Started.
func (t Tracker) LastFrame() int64 { return t.lastFrame }

// Len is the number of agents with retained history.
func (t Tracker) Len() int { return len(t.tracks) }

// Track returns the retained state of an agent.
func (t Tracker) Track(id AgentID) (Track, bool) {
	tr, ok := t.tracks[id]
	return tr, ok
}

// Velocities returns the retained velocity of every tracked agent.
func (t Tracker) Velocities() map[AgentID]physics.Vec2 {
	out := make(map[AgentID]physics.Vec2, len(t.tracks))
	for id, tr := range t.tracks {
		out[id] = tr.Velocity
	}
	return out
}

// DropoutMode selects what happens to an agent's history when it is missing from a frame.
type DropoutMode uint8

const (
	// DropoutForget discards the history at the first missed frame.
	DropoutForget DropoutMode = iota
	// DropoutDecay keeps the history for up to MaxMissed frames, shrinking the velocity by Decay
	// each missed frame.
	DropoutDecay
)

func (m DropoutMode) String() string {
	switch m {
	case DropoutForget:
		return "forget"
	case DropoutDecay:
		return "decay"
	default:
		return fmt.Sprintf("dropout(%d)", uint8(m))
	}
}

// ParseDropoutMode accepts "forget" (or "") and "decay".
func ParseDropoutMode(s string) (DropoutMode, error) {
	switch s {
	case "", "forget":
		return DropoutForget, nil
	case "decay":
		return DropoutDecay, nil
	default:
		return 0, fmt.Errorf("%w: unknown dropout mode %q", ErrInvalidConfig, s)
	}
}

// DefaultMaxMissed is the decay cutoff used when MaxMissed is zero (about one second at 30 fps).
const DefaultMaxMissed = 30

// DropoutPolicy is the rule applied to tracked agents absent from a frame.
// An absent agent never contributes to a field regardless of the policy.
type DropoutPolicy struct {
	Mode DropoutMode
	// Decay multiplies the retained velocity every missed frame. Nil means 1 - alpha; a zero
	// factor stops a missing agent dead after one frame.
	Decay *float64
	// MaxMissed is the number of consecutive misses after which history is dropped.
	// Zero means DefaultMaxMissed.
	MaxMissed int
}

// DecayFactor returns a pointer to f for DropoutPolicy.Decay.
func DecayFactor(f float64) *float64 { return &f }

func (p DropoutPolicy) validate() error {
	switch p.Mode {
	case DropoutForget:
		return nil
	case DropoutDecay:
		if p.Decay != nil && !(*p.Decay >= 0 && *p.Decay < 1) {
			return fmt.Errorf("%w: dropout decay must be in [0, 1), got %v", ErrInvalidConfig, *p.Decay)
		}
		if p.MaxMissed < 0 {
			return fmt.Errorf("%w: dropout max missed must not be negative, got %d", ErrInvalidConfig, p.MaxMissed)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown dropout mode %v", ErrInvalidConfig, p.Mode)
	}
}

func (p DropoutPolicy) withDefaults(alpha float64) DropoutPolicy {
	if p.Mode != DropoutDecay {
		return p
	}
	if p.Decay == nil {
		p.Decay = DecayFactor(1 - alpha)
	}
	if p.MaxMissed == 0 {
		p.MaxMissed = DefaultMaxMissed
	}
	return p
}

// apply ages a track that was absent for the frames after prevFrame up to frameIndex.
// keep is false when the history is dropped.
func (p DropoutPolicy) apply(t Track, prevFrame, frameIndex int64) (Track, bool) {
	if p.Mode != DropoutDecay {
		return t, false
	}
	t.Missed = int(frameIndex - t.LastFrame)
	if t.Missed > p.MaxMissed {
		return t, false
	}
	t.Velocity = t.Velocity.Scale(math.Pow(*p.Decay, float64(frameIndex-prevFrame)))
	return t, true
}
