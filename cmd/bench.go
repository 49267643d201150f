package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/tasksys"
	"github.com/ZanzyTHEbar/taskgraph/internal/config"
	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
	"github.com/ZanzyTHEbar/taskgraph/internal/utils"
	"github.com/ZanzyTHEbar/taskgraph/internal/workloads"
)

type benchResult struct {
	name    string
	best    time.Duration
	speedup float64
}

func newBenchCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the workload under every strategy and verify each result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !watch {
				return a.bench(cmd.OutOrStdout())
			}
			return a.benchWatch(cmd)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-run whenever the config file changes")
	return cmd
}

// bench runs the configured workload under each strategy, keeping the best
// of the configured iterations, and prints a timing table.
func (a *app) bench(out io.Writer) error {
	w, err := a.newWorkload()
	if err != nil {
		return err
	}

	var results []benchResult
	for _, kind := range tasksys.Kinds() {
		ts := a.newEngine(kind)
		best := time.Duration(0)
		for i := 0; i < a.cfg.Workload.Iterations; i++ {
			elapsed := timeRun(w, ts)
			if best == 0 || elapsed < best {
				best = elapsed
			}
		}
		err := w.Verify()
		name := ts.Name()
		ts.Close()
		if err != nil {
			return fmt.Errorf("%s produced wrong output: %w", name, err)
		}
		a.logger.Debug().Str("strategy", name).Dur("best", best).Msg("strategy benchmarked")
		results = append(results, benchResult{name: name, best: best})
	}

	serial := results[0].best
	for i := range results {
		results[i].speedup = utils.Speedup(serial, results[i].best)
	}
	printBench(out, w, a.cfg, results)
	return nil
}

func printBench(out io.Writer, w workloads.Workload, cfg *config.Config, results []benchResult) {
	fmt.Fprintf(out, "workload=%s size=%d groups=%d workers=%d iterations=%d\n",
		w.Name(), cfg.Workload.Size, w.Groups(), cfg.Engine.Workers, cfg.Workload.Iterations)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tBEST\tSPEEDUP")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.2fx\n", r.name, utils.FormatDuration(r.best), r.speedup)
	}
	tw.Flush()
}

// benchWatch runs the benchmark, then again after every valid change to the
// config file, until interrupted.
func (a *app) benchWatch(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes := make(chan *config.Config, 1)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return config.Watch(ctx, a.configPath, func(cfg *config.Config) {
			// keep only the newest pending change
			select {
			case <-changes:
			default:
			}
			changes <- cfg
		})
	})
	g.Go(func() error {
		if err := a.bench(out); err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-changes:
				if err := a.reload(cmd, cfg); err != nil {
					a.logger.Warn().Err(err).Msg("ignoring config change")
					continue
				}
				a.logger.Info().Str("config", a.configPath).Msg("configuration changed, re-running")
				if err := a.bench(out); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	a.logger.Info().Msg("bench watch stopped")
	return err
}

func timeRun(w workloads.Workload, ts ports.TaskSystem) time.Duration {
	w.Reset()
	start := time.Now()
	w.Run(ts)
	return time.Since(start)
}
