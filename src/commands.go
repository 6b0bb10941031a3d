package main

import (
	"context"
	"fmt"
	"os"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"

	"github.com/eshtab/traffic-delay-2022-analysis/src/datasource/file"
	"github.com/eshtab/traffic-delay-2022-analysis/src/pipeline"
)

var initialBuild bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the whole report build once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, (*pipeline.Pipeline).Build)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Load and clean the raw file, write the snapshot only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, (*pipeline.Pipeline).Clean)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the report whenever the raw file changes",
	RunE:  runWatch,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Rebuild the report on the configured cron schedule",
	RunE:  runSchedule,
}

func init() {
	for _, c := range []*cobra.Command{watchCmd, scheduleCmd} {
		c.Flags().BoolVar(&initialBuild, "initial", true, "build once before waiting")
	}
	rootCmd.AddCommand(buildCmd, cleanCmd, watchCmd, scheduleCmd)
}

func runOnce(cmd *cobra.Command, run func(*pipeline.Pipeline) (pipeline.Result, error)) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	res, err := run(a.pipeline())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: kept %d of %d rows (%d out of range)\n",
		res.RunID, res.Stats.Output, res.Stats.Input, res.Stats.OutOfRange)
	fmt.Fprintf(out, "snapshot: %s\n", res.Snapshot)
	if res.Manifest != "" {
		fmt.Fprintf(out, "charts: %d, manifest: %s\n", res.Charts, res.Manifest)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	monitor, err := file.NewFileMonitor(a.cfg.RawPath())
	if err != nil {
		return fmt.Errorf("watch %s: %w", a.cfg.RawPath(), err)
	}
	defer monitor.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	file.SetupSignalHandler(cancel, func(sig os.Signal) {
		a.logger.Info("received " + sig.String() + ", shutting down")
	})

	if initialBuild {
		a.rebuild("startup")
	}
	a.logger.WithFields(map[string]interface{}{
		"file":     monitor.Target(),
		"debounce": a.cfg.Watch.Debounce.Std().String(),
	}).Info("watching raw file")

	return monitor.Watch(ctx, a.cfg.Watch.Debounce.Std(), func(path string) {
		a.rebuild("file change")
	})
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	spec := a.cfg.Watch.Schedule
	c := cron.New()
	if err := c.AddFunc(spec, func() { a.rebuild("schedule") }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	file.SetupSignalHandler(cancel, func(sig os.Signal) {
		a.logger.Info("received " + sig.String() + ", shutting down")
	})

	if initialBuild {
		a.rebuild("startup")
	}
	c.Start()
	defer c.Stop()
	a.logger.WithField("schedule", spec).Info("scheduler started")

	<-ctx.Done()
	// a build in flight finishes before the process exits
	a.busy.Lock()
	a.busy.Unlock()
	return nil
}
