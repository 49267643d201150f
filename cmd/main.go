package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/tasksys"
	"github.com/ZanzyTHEbar/taskgraph/internal/config"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
	"github.com/ZanzyTHEbar/taskgraph/internal/logger"
	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
	"github.com/ZanzyTHEbar/taskgraph/internal/utils"
	"github.com/ZanzyTHEbar/taskgraph/internal/workloads"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	cfg        *config.Config
	logger     zerolog.Logger
	runID      string

	// flag values, applied over the loaded config when set
	logLevel   string
	logFormat  string
	strategy   string
	workers    int
	workload   string
	size       int
	iterations int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "taskgraph",
		Short:         "Dependency-aware task scheduling engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	a.bindFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(a), newBenchCmd(a), newGraphCmd(a))
	return root
}

// bindFlags registers the flags that override configuration fields.
func (a *app) bindFlags(pf *pflag.FlagSet) {
	pf.StringVarP(&a.configPath, "config", "c", "taskgraph.json", "Path to configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format (console, json)")
	pf.StringVarP(&a.strategy, "strategy", "s", "", "Scheduling strategy (serial, spawn, spin, sleep)")
	pf.IntVarP(&a.workers, "workers", "w", 0, fmt.Sprintf("Worker count, at most %d (0 = one per CPU)", domain.MaxWorkers))
	pf.StringVar(&a.workload, "workload", "", "Workload ("+strings.Join(workloads.Names(), ", ")+")")
	pf.IntVar(&a.size, "size", 0, "Workload problem size")
	pf.IntVar(&a.iterations, "iterations", 0, "Timed repetitions per strategy")
}

// setup loads configuration, applies flag overrides and builds the logger.
// Invalid configuration, including a worker count above the maximum, ends
// the process.
func (a *app) setup(cmd *cobra.Command) error {
	a.runID = utils.GenerateRunID()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	a.useConfig(cfg)
	log.Logger = a.logger

	if err := cfg.Validate(); err != nil {
		a.logger.Fatal().Err(err).Msg("invalid configuration")
	}
	a.logger.Debug().Str("config", a.configPath).Msg("configuration loaded")
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.System.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.System.LogFormat = a.logFormat
	}
	if flags.Changed("strategy") {
		cfg.Engine.Strategy = a.strategy
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = a.workers
	}
	if flags.Changed("workload") {
		cfg.Workload.Name = a.workload
	}
	if flags.Changed("size") {
		cfg.Workload.Size = a.size
	}
	if flags.Changed("iterations") {
		cfg.Workload.Iterations = a.iterations
	}
}

// reload applies flag overrides to a freshly loaded cfg and installs it if
// the result is valid. On error the current configuration stays in place.
func (a *app) reload(cmd *cobra.Command, cfg *config.Config) error {
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.useConfig(cfg)
	return nil
}

// useConfig installs cfg and rebuilds the logger from it.
func (a *app) useConfig(cfg *config.Config) {
	a.cfg = cfg
	a.logger = logger.New(cfg.System.LogLevel, cfg.System.LogFormat).
		With().Str("run_id", a.runID).Logger()
}

// newEngine builds a task system or ends the process if it cannot.
func (a *app) newEngine(kind tasksys.Kind, opts ...tasksys.Option) ports.TaskSystem {
	opts = append([]tasksys.Option{tasksys.WithLogger(a.logger)}, opts...)
	ts, err := tasksys.New(kind, a.cfg.Engine.Workers, opts...)
	if err != nil {
		a.logger.Fatal().Err(err).Str("strategy", string(kind)).Msg("failed to create task system")
	}
	return ts
}

func (a *app) newWorkload() (workloads.Workload, error) {
	return workloads.New(a.cfg.Workload.Name, a.cfg.Workload.Size)
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one workload under one strategy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := tasksys.ParseKind(a.cfg.Engine.Strategy)
			if err != nil {
				return err
			}
			w, err := a.newWorkload()
			if err != nil {
				return err
			}

			stats := domain.NewStatsCollector()
			ts := a.newEngine(kind, tasksys.WithStats(stats))
			defer ts.Close()

			a.logger.Info().
				Str("strategy", ts.Name()).
				Str("workload", w.Name()).
				Int("size", a.cfg.Workload.Size).
				Msg("running workload")

			elapsed := timeRun(w, ts)
			if err := w.Verify(); err != nil {
				return fmt.Errorf("%s produced wrong output: %w", ts.Name(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", ts.Name(), w.Name(), utils.FormatDuration(elapsed))
			if a.cfg.System.StatsEnabled {
				stats.PrintStats(a.logger)
			}
			return nil
		},
	}
}
