// Package config loads the YAML configuration of the pitch control service.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for configuration values outside the engine's domain.
var ErrInvalidConfig = pitch.ErrInvalidConfig

// Config is the root of the configuration file.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Server     ServerConfig     `yaml:"server"`
	Logger     log.Options      `yaml:"logger"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// EngineConfig mirrors pitch.Params.
type EngineConfig struct {
	Length       float64       `yaml:"length"`
	Width        float64       `yaml:"width"`
	Resolution   float64       `yaml:"resolution"`
	ReactionTime float64       `yaml:"reaction_time"`
	MaxSpeed     float64       `yaml:"max_speed"`
	Sigma        float64       `yaml:"sigma"`
	Alpha        float64       `yaml:"alpha"`
	FPS          float64       `yaml:"fps"`
	Workers      int           `yaml:"workers"`
	Dropout      DropoutConfig `yaml:"dropout"`
}

type DropoutConfig struct {
	Mode string `yaml:"mode"`
	// Decay left unset defaults to 1 - alpha. An explicit 0 stops a missing agent dead.
	Decay     *float64 `yaml:"decay,omitempty"`
	MaxMissed int      `yaml:"max_missed"`
}

// ServerConfig configures the field streaming server.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	ReadBuffer  int    `yaml:"read_buffer"`
	WriteBuffer int    `yaml:"write_buffer"`
	// MaxMessageSize caps a single inbound websocket message in bytes.
	MaxMessageSize int64         `yaml:"max_message_size"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	SummaryBand    float64       `yaml:"summary_band"`
	MaxSessions    int           `yaml:"max_sessions"`
}

// SimulationConfig drives the synthetic tracking feed of the simulate command.
type SimulationConfig struct {
	Seed   int64 `yaml:"seed"`
	Frames int   `yaml:"frames"`
}

// Default returns the documented defaults.
func Default() Config {
	p := pitch.DefaultParams()
	return Config{
		Engine: EngineConfig{
			Length:       p.Length,
			Width:        p.Width,
			Resolution:   p.Resolution,
			ReactionTime: p.ReactionTime,
			MaxSpeed:     p.MaxSpeed,
			Sigma:        p.Sigma,
			Alpha:        p.Alpha,
			FPS:          p.FPS,
			Workers:      0,
			Dropout:      DropoutConfig{Mode: pitch.DropoutForget.String()},
		},
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:8080",
			ReadBuffer:     1024,
			WriteBuffer:    4096,
			MaxMessageSize: 1 << 20,
			WriteTimeout:   5 * time.Second,
			SummaryBand:    0.05,
			MaxSessions:    64,
		},
		Logger: log.Options{
			Level:      "info",
			Format:     "json",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Simulation: SimulationConfig{
			Seed:   42,
			Frames: 100,
		},
	}
}

// Load decodes YAML from r on top of the defaults and validates the result.
// Unknown keys are rejected.
func Load(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile loads the configuration at path. An empty path yields the validated defaults.
func LoadFile(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Validate checks every section.
func (c Config) Validate() error {
	params, err := c.Engine.Params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if c.Server.ListenAddr == "" {
		return fmt.Errorf("%w: server listen_addr is required", ErrInvalidConfig)
	}
	if c.Server.ReadBuffer < 0 || c.Server.WriteBuffer < 0 {
		return fmt.Errorf("%w: server buffers must not be negative", ErrInvalidConfig)
	}
	if c.Server.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: server max_message_size must be positive", ErrInvalidConfig)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("%w: server write_timeout must be positive", ErrInvalidConfig)
	}
	if c.Server.SummaryBand < 0 || c.Server.SummaryBand > 0.5 {
		return fmt.Errorf("%w: server summary_band must be in [0, 0.5], got %v", ErrInvalidConfig, c.Server.SummaryBand)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("%w: server max_sessions must be positive", ErrInvalidConfig)
	}

	if _, err := log.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Logger.Format != "" && c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("%w: logger format must be json or console, got %q", ErrInvalidConfig, c.Logger.Format)
	}

	if c.Simulation.Frames < 0 {
		return fmt.Errorf("%w: simulation frames must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Params converts the engine section into pitch.Params.
func (e EngineConfig) Params() (pitch.Params, error) {
	mode, err := pitch.ParseDropoutMode(e.Dropout.Mode)
	if err != nil {
		return pitch.Params{}, err
	}
	return pitch.Params{
		Length:       e.Length,
		Width:        e.Width,
		Resolution:   e.Resolution,
		ReactionTime: e.ReactionTime,
		MaxSpeed:     e.MaxSpeed,
		Sigma:        e.Sigma,
		Alpha:        e.Alpha,
		FPS:          e.FPS,
		Workers:      e.Workers,
		Dropout: pitch.DropoutPolicy{
			Mode:      mode,
			Decay:     e.Dropout.Decay,
			MaxMissed: e.Dropout.MaxMissed,
		},
	}, nil
}
