package pitch

import (
	"fmt"
	"math"

	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
)

// DefaultReactionTime is the delay, in seconds, before a player starts moving toward a target.
const DefaultReactionTime = 0.7

// ArrivalModel estimates how long an agent needs to reach a point: a fixed reaction delay followed
// by a run at maximum speed, where velocity already aimed at the target shortens the run.
type ArrivalModel struct {
	reactionTime float64
	maxSpeed     float64
}

func NewArrivalModel(reactionTime, maxSpeed float64) (ArrivalModel, error) {
	if !(reactionTime >= 0) || math.IsInf(reactionTime, 0) {
		return ArrivalModel{}, fmt.Errorf("%w: reaction time must be non-negative and finite, got %v", ErrInvalidConfig, reactionTime)
	}
	if err := requirePositive("max speed", maxSpeed); err != nil {
		return ArrivalModel{}, err
	}
	return ArrivalModel{reactionTime: reactionTime, maxSpeed: maxSpeed}, nil
}

func (m ArrivalModel) ReactionTime() float64 { return m.reactionTime }
func (m ArrivalModel) MaxSpeed() float64 { return m.maxSpeed }

func (m ArrivalModel) valid() bool { return m.maxSpeed > 0 }

// TimeToIntercept returns the seconds the agent at position moving with velocity needs to reach target.
// The result is never below the reaction time.
func (m ArrivalModel) TimeToIntercept(position, velocity, target physics.Vec2) float64 {
	offset := target.Sub(position)
	distance := offset.Norm()
	if distance == 0 {
		return m.reactionTime
	}

	toward := velocity.Dot(offset.Unit())
	adjusted := math.Max(0, distance-toward*m.reactionTime)

	return m.reactionTime + adjusted/m.maxSpeed
}
