package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/eventbus"
	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/tasksys"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
	"github.com/ZanzyTHEbar/taskgraph/internal/utils"
	"github.com/ZanzyTHEbar/taskgraph/internal/workloads"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		independent int
		outPath     string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Run a dependency chain on the sleeping engine and dump the task graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := workloads.NewChain(a.cfg.Workload.Size, independent)

			bus := eventbus.NewSimpleEventBus(a.logger)
			defer bus.Stop()
			completed, err := bus.Subscribe(domain.GroupCompleted, max(w.Groups(), a.cfg.EventBus.DefaultBufferSize))
			if err != nil {
				return err
			}

			progress := domain.NewProgressBar(cmd.ErrOrStderr(), w.Groups())
			drained := make(chan struct{})
			go func() {
				defer close(drained)
				for range completed {
					progress.Increment()
				}
			}()

			stats := domain.NewStatsCollector()
			ts, err := tasksys.NewSleeping(a.cfg.Engine.Workers,
				tasksys.WithLogger(a.logger),
				tasksys.WithEventBus(bus),
				tasksys.WithStats(stats))
			if err != nil {
				a.logger.Fatal().Err(err).Msg("failed to create task system")
			}
			defer ts.Close()

			w.Run(ts)

			// Every completion is published before Sync returns.
			if err := bus.Unsubscribe(domain.GroupCompleted, completed); err != nil {
				return err
			}
			close(completed)
			<-drained

			if err := w.Verify(); err != nil {
				return err
			}
			stats.PrintStats(a.logger)

			data, err := domain.MarshalSnapshot(ts.Snapshot())
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := utils.CreateDirIfNotExists(filepath.Dir(outPath)); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("error writing graph snapshot: %w", err)
			}
			a.logger.Info().Str("path", outPath).Int("groups", w.Groups()).Msg("graph snapshot written")
			return nil
		},
	}
	cmd.Flags().IntVar(&independent, "independent", 50, "Independent groups interleaved with the chain")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the snapshot JSON to this file instead of stdout")
	return cmd
}
