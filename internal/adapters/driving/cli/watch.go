package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/docvault/internal/logger"
	"github.com/halcyon-labs/docvault/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest files as they appear",
	Long: `Watches a directory for new or modified files and ingests each one
after a short debounce. Files with unsupported extensions are skipped.
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	debounce := time.Duration(app.cfg.Watch.DebounceMS) * time.Millisecond
	w, err := watcher.New(app.ingestor, args[0], debounce)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Watching %s (debounce %s), press Ctrl-C to stop", args[0], debounce)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
