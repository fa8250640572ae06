package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dicomschema/internal/ingest"
	"dicomschema/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the inbox directory and analyze dropped files",
		Long: `Watch monitors the configured inbox directory. Once a dropped file
set has settled, the whole batch runs through the ingestion pipeline and
the acquisitions found are printed. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Paths.InboxDir, 0o755); err != nil {
				return fmt.Errorf("create inbox directory: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := ctx.startEngine(runCtx)
			if err != nil {
				return err
			}
			defer session.Close()

			pipeline, err := ctx.newPipeline(session)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			handler := func(paths []string) {
				result, err := pipeline.Process(runCtx, paths, ingest.ProcessOptions{})
				if err != nil {
					var sizeErr *ingest.SizeLimitError
					if errors.As(err, &sizeErr) {
						fmt.Fprintf(out, "skipped drop: %s\n", sizeErr.Error())
						return
					}
					if errors.Is(err, ingest.ErrNoRecognizedFiles) {
						fmt.Fprintf(out, "skipped drop of %d files: nothing recognized\n", len(paths))
						return
					}
					fmt.Fprintf(out, "drop failed: %v\n", err)
					return
				}
				for _, acq := range result.Acquisitions {
					fmt.Fprintf(out, "found %s: %d series, %d fields\n", acq.ProtocolName, len(acq.Series), len(acq.Fields))
				}
			}

			watcher, err := watch.New(cfg.Paths.InboxDir, time.Duration(cfg.Watch.SettleSeconds)*time.Second, handler, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", cfg.Paths.InboxDir)
			if err := watcher.Run(runCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
