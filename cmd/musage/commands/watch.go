package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"musage/internal/config"
	"musage/internal/report"
	"musage/internal/scan"
	"musage/internal/ui"
	"musage/internal/watch"
)

// WatchCommand holds the flags of the watch subcommand.
type WatchCommand struct {
	version string

	module     string
	configPath string
	workers    int
	boundary   string
	skipTests  bool
	ui         bool
	verbose    bool
}

// NewWatchCommand creates the watch subcommand: an initial scan
// followed by incremental rescans driven by file system events.
func NewWatchCommand(version string) *cobra.Command {
	wc := &WatchCommand{version: version}

	cmd := &cobra.Command{
		Use:           "watch <directory>",
		Short:         "Rescan continuously as files change",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&wc.module, "module", "m", "", "target module prefix (required)")
	flags.StringVar(&wc.configPath, "config", config.DefaultPath, "path to config file")
	flags.IntVar(&wc.workers, "workers", 0, "parallel file workers (0 = one per CPU)")
	flags.StringVar(&wc.boundary, "boundary", "prefix", "module match mode: prefix or dotted")
	flags.BoolVar(&wc.skipTests, "skip-tests", false, "exclude test files from the scan")
	flags.BoolVar(&wc.ui, "ui", false, "render results in a terminal UI")
	flags.BoolVarP(&wc.verbose, "verbose", "v", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("module")

	return cmd
}

func (wc *WatchCommand) run(cmd *cobra.Command, args []string) error {
	root := args[0]

	cfg, err := loadConfig(cmd.Flags(), wc.configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("workers") {
		wc.workers = cfg.Scan.Workers
	}
	if !cmd.Flags().Changed("boundary") {
		wc.boundary = cfg.Scan.Boundary
	}
	if !cmd.Flags().Changed("skip-tests") {
		wc.skipTests = cfg.Scan.SkipTests
	}

	logSink, closeSink := wc.logSink(cmd, cfg)
	defer closeSink()
	setupLogging(wc.verbose, logSink)

	runner, err := buildRunner(cfg, wc.module, wc.boundary, wc.workers, false, wc.skipTests)
	if err != nil {
		return err
	}
	cache, err := scan.NewResultCache(0)
	if err != nil {
		return err
	}
	runner.Cache = cache

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := watch.NewLimiter(cfg.Watch.RescansPerSec, 1)
	session := watch.NewSession(runner, root, limiter)

	watcher, err := watch.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files,
		func(paths []string) {
			if _, err := session.Apply(ctx, paths); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("rescan failed", "error", err)
			}
		})
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = runner.Parser.SupportedExtensions()
	}
	watcher.SetFileFilters(extensions, wc.skipTests)

	if !wc.ui {
		out := cmd.OutOrStdout()
		session.SetUpdateHandler(func(summary scan.Summary) {
			fmt.Fprint(out, report.RenderTable(&summary))
		})
	}

	if _, err := session.Start(ctx); err != nil {
		return err
	}
	if err := watcher.Watch([]string{root}); err != nil {
		return err
	}

	if wc.ui {
		return ui.Run(session)
	}

	<-ctx.Done()
	return nil
}

// logSink keeps slog output away from stdout while the TUI owns the
// terminal, appending to the configured log file instead.
func (wc *WatchCommand) logSink(cmd *cobra.Command, cfg *config.Config) (io.Writer, func()) {
	if !wc.ui {
		return cmd.ErrOrStderr(), func() {}
	}

	f, err := os.OpenFile(cfg.Watch.UILogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to open log file %s: %v\n", cfg.Watch.UILogFile, err)
		return cmd.ErrOrStderr(), func() {}
	}
	return f, func() { _ = f.Close() }
}
