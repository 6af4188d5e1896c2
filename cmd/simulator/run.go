package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/liquid/internal/config"
	"github.com/zeusync/liquid/internal/core/observability/log"
	"github.com/zeusync/liquid/internal/core/pool"
	"github.com/zeusync/liquid/internal/injector"
	"github.com/zeusync/liquid/internal/simulator"
)

// prop is the stand-in game object the simulator pools.
type prop struct {
	key    string
	serial uint64
	active bool
}

func propFactory() pool.ResourceFactory {
	var serial uint64
	return pool.Factory[*prop]{
		New: func(key string) (*prop, error) {
			serial++
			return &prop{key: key, serial: serial}, nil
		},
		OnActivate:   func(p *prop) { p.active = true },
		OnDeactivate: func(p *prop) { p.active = false },
	}
}

func newRunCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(root.configFile)
			if err != nil {
				return err
			}
			for key, flag := range map[string]string{
				"simulator.scenario": "scenario",
				"simulator.frames":   "frames",
				"simulator.realtime": "realtime",
				"simulator.output":   "output",
				"log.level":          "log-level",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}

			sc, err := simulator.LoadScenarioFile(cfg.Simulator.Scenario)
			if err != nil {
				return err
			}

			rt, cleanup, err := injector.InitializeRuntime(cfg, propFactory())
			if err != nil {
				return err
			}
			defer cleanup()

			runner, err := simulator.NewRunner(sc, cfg.Simulator, rt.Engine, rt.Registry, rt.Bus, rt.Log)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt.Log.Info("running scenario",
				log.String("scenario", sc.Name),
				log.String("file", cfg.Simulator.Scenario),
				log.Bool("realtime", cfg.Simulator.Realtime),
			)
			summary, err := runner.Run(ctx)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			return summary.Write(cmd.OutOrStdout(), cfg.Simulator.Output)
		},
	}
	f := cmd.Flags()
	f.StringP("scenario", "s", "scenario.yaml", "scenario file")
	f.Uint64P("frames", "n", 0, "frames to run (0 uses the scenario's frames)")
	f.Bool("realtime", false, "pace frames with the engine ticker instead of stepping")
	f.StringP("output", "o", "text", "summary format: text, json or yaml")
	f.String("log-level", "info", "log level")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Check scenario files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				sc, err := simulator.LoadScenarioFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d trees, %d pools, %d frames)\n",
					path, len(sc.Trees), len(sc.Pools), sc.Frames)
			}
			return nil
		},
	}
}
