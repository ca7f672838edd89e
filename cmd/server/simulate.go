package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/internal/core/tracking"
	"github.com/zeusync/pitchcontrol/internal/injector"
)

func newSimulateCmd(root *rootOptions) *cobra.Command {
	var (
		seed   int64
		frames int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compute fields for a synthetic match and print per-frame summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			if cmd.Flags().Changed("frames") {
				cfg.Simulation.Frames = frames
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			engine, logger, cleanup, err := injector.InitializeEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			gen, err := tracking.NewGenerator(cfg.Simulation.Seed, cfg.Engine.FPS)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "frame\thome\taway\tcontested\tmean")

			started := time.Now()
			tr := pitch.NewTracker()
			for i := 0; i < cfg.Simulation.Frames; i++ {
				var field *pitch.Field
				field, tr, err = engine.Step(tr, gen.Frame(int64(i)))
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				s := field.Summary(cfg.Server.SummaryBand)
				fmt.Fprintf(out, "%d\t%d\t%d\t%d\t%.4f\n", i, s.Home, s.Away, s.Contested, s.MeanControl)
			}

			logger.Info("Simulation finished",
				log.Int64("seed", cfg.Simulation.Seed),
				log.Int("frames", cfg.Simulation.Frames),
				log.Duration("elapsed", time.Since(started)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "override simulation.seed")
	cmd.Flags().IntVar(&frames, "frames", 0, "override simulation.frames")
	return cmd
}
