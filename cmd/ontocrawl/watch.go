package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontocrawl/oracle"
	"github.com/c360studio/ontocrawl/storage"
)

func watchCmd(g *globalFlags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the ontology whenever cached answers change",
		Long: `Watch exports once from the cache, then rebuilds the output document
each time a cache file is edited, added or removed. It never contacts the
LLM; a rebuild that hits a missing answer is logged and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer app.Close(context.Background())

			w, err := storage.NewWatcher(app.store, storage.WatcherConfig{
				DebounceDelay: debounce,
				Logger:        app.logger,
			})
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()
			if err := w.Start(ctx); err != nil {
				return err
			}

			app.rebuild(ctx)
			for {
				select {
				case <-ctx.Done():
					return nil
				case changed, ok := <-w.Changes():
					if !ok {
						return nil
					}
					for _, k := range changed {
						app.logger.Info("Cached answer changed", "key", k.String())
					}
					app.rebuild(ctx)
				}
			}
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", storage.DefaultDebounceDelay, "Quiet period before a rebuild")
	return cmd
}

// rebuild exports from the cache and writes the output, logging failures.
func (a *App) rebuild(ctx context.Context) {
	res, err := a.Build(ctx, oracle.OfflineOracle{})
	a.logReport(res.Report)
	if err != nil {
		a.logger.Error("Rebuild failed", "error", err)
		return
	}
	if err := a.WriteOutput(res); err != nil {
		a.logger.Error("Write failed", "error", err)
	}
}
