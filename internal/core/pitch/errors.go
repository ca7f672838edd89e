package pitch

import "errors"

// Engine errors
var (
	ErrInvalidConfig     = errors.New("invalid pitch control configuration")
	ErrFrameOutOfOrder   = errors.New("frame index is not after the last tracked frame")
	ErrDuplicateAgent    = errors.New("agent appears more than once in frame")
	ErrUnknownTeam       = errors.New("unknown team")
	ErrNonFinitePosition = errors.New("agent position is not finite")
)
