package pitch

import (
	"fmt"

	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// AgentID identifies a tracked player across frames.
type AgentID string

// Team is one of the two competing groups.
type Team uint8

const (
	TeamHome Team = iota + 1
	TeamAway
)

func (t Team) String() string {
	switch t {
	case TeamHome:
		return "home"
	case TeamAway:
		return "away"
	default:
		return fmt.Sprintf("team(%d)", uint8(t))
	}
}

// ParseTeam accepts "home" or "away".
func ParseTeam(s string) (Team, error) {
	switch s {
	case "home":
		return TeamHome, nil
	case "away":
		return TeamAway, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTeam, s)
	}
}

// AgentSample is one tracking observation of an agent within a frame.
type AgentSample struct {
	ID       AgentID
	Team     Team
	Position physics.Vec2
}

// AgentState is an agent's position and estimated velocity at a single instant.
type AgentState struct {
	ID       AgentID
	Team     Team
	Position physics.Vec2
	Velocity physics.Vec2
}

// Frame is the set of observations for one tracking instant.
type Frame struct {
	Index  int64
	Agents []AgentSample
}

// Validate checks that every agent appears once, belongs to a known team and has a finite position.
func (f Frame) Validate() error {
	seen := make(map[AgentID]struct{}, len(f.Agents))
	for _, a := range f.Agents {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: %q in frame %d", ErrDuplicateAgent, a.ID, f.Index)
		}
		seen[a.ID] = struct{}{}

		if a.Team != TeamHome && a.Team != TeamAway {
			return fmt.Errorf("%w: %v for agent %q", ErrUnknownTeam, a.Team, a.ID)
		}
		if !a.Position.IsFinite() {
			return fmt.Errorf("%w: agent %q in frame %d", ErrNonFinitePosition, a.ID, f.Index)
		}
	}
	return nil
}

// Positions returns the frame's positions keyed by agent.
func (f Frame) Positions() map[AgentID]physics.Vec2 {
	out := make(map[AgentID]physics.Vec2, len(f.Agents))
	for _, a := range f.Agents {
		out[a.ID] = a.Position
	}
	return out
}
