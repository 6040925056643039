package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reviewfeed/internal/app"
	"reviewfeed/internal/config"
	"reviewfeed/internal/worker"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

type flags struct {
	configPath string
	outputDir  string
	logLevel   string
	skipUpload bool
	every      time.Duration
	schedule   string
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "feedgen [--config <path/to/config.hcl>]",
		Short:         "feedgen builds an RSS feed of the current month's 1000PS reviews and uploads it over FTP.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (.json or .hcl); defaults and FTP_* env are used without it.")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for the feed file, overrides feed.output_dir.")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error.")
	cmd.Flags().BoolVar(&f.skipUpload, "skip-upload", false, "Write the feed locally without uploading it.")
	cmd.Flags().DurationVar(&f.every, "every", 0, "Repeat the run at this interval until interrupted; 0 runs once.")
	cmd.Flags().StringVar(&f.schedule, "schedule", "", `Repeat the run on a cron schedule, e.g. "0 6 * * *".`)
	cmd.MarkFlagsMutuallyExclusive("every", "schedule")
	return cmd
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if f.outputDir != "" {
		cfg.Feed.OutputDir = f.outputDir
	}
	if f.logLevel != "" {
		cfg.Logger.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var opts []app.Option
	if f.skipUpload {
		opts = append(opts, app.WithoutUpload())
	}
	a, err := app.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("could not start: %w", err)
	}
	defer a.Close()
	switch {
	case f.schedule != "":
		schedule, err := worker.ParseSchedule(f.schedule)
		if err != nil {
			return err
		}
		return worker.New(a, schedule, 0, slog.Default()).Run(ctx)
	case f.every > 0:
		return worker.New(a, worker.Every(f.every), f.every, slog.Default()).Run(ctx)
	}
	return a.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		stop()
		os.Exit(1)
	}
}
