package pitch

import (
	"fmt"
	"time"

	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/systems/physics"
	"github.com/zeusync/pitchcontrol/pkg/concurrent"
)

// Surface and grid defaults.
const (
	DefaultLength     = 105.0
	DefaultWidth      = 68.0
	DefaultResolution = 2.0
)

// Params holds every tunable of the engine.
type Params struct {
	// Surface
	Length     float64
	Width      float64
	Resolution float64

	// Arrival and influence
	ReactionTime float64
	MaxSpeed     float64
	Sigma        float64

	// Velocity estimation
	Alpha   float64
	FPS     float64
	Dropout DropoutPolicy

	// Field computation parallelism; non-positive means GOMAXPROCS.
	Workers int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Length:       DefaultLength,
		Width:        DefaultWidth,
		Resolution:   DefaultResolution,
		ReactionTime: DefaultReactionTime,
		MaxSpeed:     DefaultMaxSpeed,
		Sigma:        DefaultSigma,
		Alpha:        DefaultAlpha,
		FPS:          DefaultFPS,
		Dropout:      DropoutPolicy{Mode: DropoutForget},
	}
}

// Validate checks every parameter without building anything.
func (p Params) Validate() error {
	if _, _, err := gridDims(p.Length, p.Width, p.Resolution); err != nil {
		return err
	}
	if err := requirePositive("sigma", p.Sigma); err != nil {
		return err
	}
	if _, err := NewArrivalModel(p.ReactionTime, p.MaxSpeed); err != nil {
		return err
	}
	return p.estimatorConfig().Validate()
}

func (p Params) estimatorConfig() EstimatorConfig {
	return EstimatorConfig{Alpha: p.Alpha, MaxSpeed: p.MaxSpeed, FPS: p.FPS, Dropout: p.Dropout}
}

// Option customizes an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger log.Log
	cache  *GridCache
}

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l log.Log) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithGridCache makes the engine take its grid from a shared cache.
func WithGridCache(c *GridCache) Option {
	return func(o *engineOptions) { o.cache = c }
}

// Engine computes control fields for one surface configuration.
// It holds only immutable configuration and is safe for concurrent use; per-session velocity
// history lives in the Tracker values callers pass to Step.
type Engine struct {
	params    Params
	grid      *Grid
	arrival   ArrivalModel
	influence Sigmoid
	estimator Estimator
	workers   int
	logger    log.Log
}

// NewEngine validates params and prepares the grid and models.
func NewEngine(params Params, opts ...Option) (*Engine, error) {
	o := engineOptions{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	var (
		grid *Grid
		err  error
	)
	if o.cache != nil {
		grid, err = o.cache.Get(params.Length, params.Width, params.Resolution)
	} else {
		grid, err = NewGrid(params.Length, params.Width, params.Resolution)
	}
	if err != nil {
		return nil, err
	}

	arrival, err := NewArrivalModel(params.ReactionTime, params.MaxSpeed)
	if err != nil {
		return nil, err
	}
	influence, err := NewSigmoid(params.Sigma)
	if err != nil {
		return nil, err
	}
	estimator, err := NewEstimator(params.estimatorConfig())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		params:    params,
		grid:      grid,
		arrival:   arrival,
		influence: influence,
		estimator: estimator,
		workers:   concurrent.Workers(params.Workers),
		logger:    o.logger,
	}

	e.logger.Info("pitch control engine ready",
		log.Int("rows", grid.Rows()),
		log.Int("cols", grid.Cols()),
		log.Float64("resolution", params.Resolution),
		log.Int("workers", e.workers),
		log.String("dropout", params.Dropout.Mode.String()),
	)

	return e, nil
}

func (e *Engine) Params() Params { return e.params }
func (e *Engine) Grid() *Grid { return e.grid }
func (e *Engine) Estimator() Estimator { return e.estimator }
func (e *Engine) Arrival() ArrivalModel { return e.arrival }
func (e *Engine) Influence() Sigmoid { return e.influence }

// ComputeField evaluates the control field for agents whose velocities are already known.
func (e *Engine) ComputeField(home, away []AgentState) (*Field, error) {
	return ComputeField(home, away, e.grid, e.arrival, e.influence, e.workers)
}

// Step processes one tracking frame: it estimates velocities against tr, computes the field for the
// agents present in the frame and returns the tracker for the next frame. On error tr is returned
// unchanged and no field is produced.
func (e *Engine) Step(tr Tracker, frame Frame) (*Field, Tracker, error) {
	started := time.Now()

	if err := frame.Validate(); err != nil {
		return nil, tr, err
	}

	velocities, next, err := e.estimator.Update(tr, frame.Index, frame.Positions())
	if err != nil {
		return nil, tr, err
	}

	home, away := SplitTeams(frame, velocities)

	field, err := e.ComputeField(home, away)
	if err != nil {
		return nil, tr, fmt.Errorf("compute field for frame %d: %w", frame.Index, err)
	}

	e.logger.Debug("frame processed",
		log.Int64("frame", frame.Index),
		log.Int("home", len(home)),
		log.Int("away", len(away)),
		log.Int("tracked", next.Len()),
		log.Duration("elapsed", time.Since(started)),
	)

	return field, next, nil
}

// SplitTeams pairs each sample of frame with its velocity and groups the states by team,
// preserving frame order. Samples without a velocity are treated as stationary.
func SplitTeams(frame Frame, velocities map[AgentID]physics.Vec2) (home, away []AgentState) {
	for _, a := range frame.Agents {
		s := AgentState{ID: a.ID, Team: a.Team, Position: a.Position, Velocity: velocities[a.ID]}
		switch a.Team {
		case TeamHome:
			home = append(home, s)
		case TeamAway:
			away = append(away, s)
		}
	}
	return home, away
}
