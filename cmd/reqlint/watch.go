package main

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the check whenever a source document changes",
	Long: `Runs one check immediately, then watches the directories behind the
configured sources and re-runs on every debounced change batch. Stop with
Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := checkOpts
		opts.applyConfig(cfg)
		if err := loadRulePacks(opts.rulepacks); err != nil {
			return err
		}

		debounce, err := time.ParseDuration(cfg.Watch.Debounce)
		if err != nil {
			debounce = 400 * time.Millisecond
		}

		var patterns []string
		patterns = append(patterns, opts.objectives...)
		patterns = append(patterns, opts.requirements...)
		patterns = append(patterns, opts.glossary...)
		if opts.template != "" {
			patterns = append(patterns, opts.template)
		}

		w, err := watch.New(patterns, debounce, slog.Default())
		if err != nil {
			return err
		}
		defer w.Stop()

		runOnce := func() {
			run, paths, err := executeCheck(cfg, &opts)
			if err != nil {
				slog.Error("check failed", "err", err)
				return
			}
			printSummary(run, paths)
			for _, d := range run.Corpus.Documents {
				w.Prime(d.Path)
			}
		}
		runOnce()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		w.Start(ctx)

		for {
			select {
			case <-ctx.Done():
				return nil
			case batch, ok := <-w.Triggers():
				if !ok {
					return nil
				}
				slog.Info("documents changed, rechecking", "paths", batch)
				runOnce()
			}
		}
	},
}

func init() {
	// watch shares the check command's source and analysis flags.
	watchCmd.Flags().AddFlagSet(checkCmd.Flags())
	rootCmd.AddCommand(watchCmd)
}
