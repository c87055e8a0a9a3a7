// Package commands implements CLI command handlers for musage.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"musage/internal/analysis"
	"musage/internal/config"
	apperrors "musage/internal/errors"
	"musage/internal/history"
	"musage/internal/observability"
	"musage/internal/parser"
	"musage/internal/report"
	"musage/internal/scan"
)

// ScanCommand holds the flags shared by the root command and the scan
// subcommand; both run the same single-shot scan.
type ScanCommand struct {
	version string

	module      string
	output      string
	format      string
	configPath  string
	workers     int
	strict      bool
	boundary    string
	skipTests   bool
	historyPath string
	metricsFile string
	verbose     bool
}

// NewRootCommand builds the CLI. The root command runs a scan directly,
// so the short form `musage <directory> -m <prefix>` works without a
// subcommand.
func NewRootCommand(version string) *cobra.Command {
	sc := &ScanCommand{version: version}

	cmd := &cobra.Command{
		Use:   "musage <directory>",
		Short: "Count how often names imported from a module are called",
		Long: `musage walks a source tree, finds every name bound by a from-import of
the target module, and counts direct calls of those names. The result is
a ranked list of fully qualified names with call counts.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          sc.run,
	}

	sc.bindFlags(cmd)

	cmd.AddCommand(
		newScanCommand(version),
		NewWatchCommand(version),
		NewHistoryCommand(),
		NewMCPCommand(version),
		newVersionCommand(version),
	)

	return cmd
}

// newScanCommand is the explicit spelling of the root behavior.
func newScanCommand(version string) *cobra.Command {
	sc := &ScanCommand{version: version}

	cmd := &cobra.Command{
		Use:           "scan <directory>",
		Short:         "Scan a tree once and report usage counts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          sc.run,
	}

	sc.bindFlags(cmd)

	return cmd
}

func (sc *ScanCommand) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&sc.module, "module", "m", "", "target module prefix (required)")
	flags.StringVarP(&sc.output, "output", "o", "", "write CSV to this file instead of printing a table")
	flags.StringVar(&sc.format, "format", "", "output format: table, csv, json, yaml")
	flags.StringVar(&sc.configPath, "config", config.DefaultPath, "path to config file")
	flags.IntVar(&sc.workers, "workers", 0, "parallel file workers (0 = one per CPU)")
	flags.BoolVar(&sc.strict, "strict", false, "abort on the first file that fails to parse")
	flags.StringVar(&sc.boundary, "boundary", "prefix", "module match mode: prefix or dotted")
	flags.BoolVar(&sc.skipTests, "skip-tests", false, "exclude test files from the scan")
	flags.StringVar(&sc.historyPath, "history", "", "append this run to a SQLite history database")
	flags.StringVar(&sc.metricsFile, "metrics-file", "", "dump Prometheus text-format metrics to this file at exit")
	flags.BoolVarP(&sc.verbose, "verbose", "v", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("module")
}

func (sc *ScanCommand) run(cmd *cobra.Command, args []string) error {
	setupLogging(sc.verbose, cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd.Flags(), sc.configPath)
	if err != nil {
		return err
	}
	sc.applyConfig(cmd.Flags(), cfg)

	format, err := sc.resolveFormat(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: sc.version,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	runner, err := buildRunner(cfg, sc.module, sc.boundary, sc.workers, sc.strict, sc.skipTests)
	if err != nil {
		return err
	}

	summary, err := runner.Run(ctx, args[0])
	if err != nil {
		return err
	}

	if err := sc.emit(cmd, format, summary); err != nil {
		return err
	}

	if sc.historyPath != "" {
		if err := saveHistory(sc.historyPath, summary); err != nil {
			return fmt.Errorf("save history: %w", err)
		}
	}
	if sc.metricsFile != "" {
		if err := observability.WriteMetricsFile(sc.metricsFile); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
	}

	return nil
}

// applyConfig fills every flag the user did not set from the config
// file, so explicit flags always win.
func (sc *ScanCommand) applyConfig(flags *pflag.FlagSet, cfg *config.Config) {
	if !flags.Changed("workers") {
		sc.workers = cfg.Scan.Workers
	}
	if !flags.Changed("strict") {
		sc.strict = cfg.Scan.Strict
	}
	if !flags.Changed("boundary") {
		sc.boundary = cfg.Scan.Boundary
	}
	if !flags.Changed("skip-tests") {
		sc.skipTests = cfg.Scan.SkipTests
	}
	if !flags.Changed("history") {
		sc.historyPath = cfg.History.Path
	}
	if !flags.Changed("metrics-file") {
		sc.metricsFile = cfg.Metrics.File
	}
}

// resolveFormat picks the output format: an explicit --format wins,
// otherwise -o implies the original CSV contract and plain stdout gets
// the human table.
func (sc *ScanCommand) resolveFormat(flags *pflag.FlagSet) (report.Format, error) {
	if flags.Changed("format") {
		return report.ParseFormat(sc.format)
	}
	if sc.output != "" {
		return report.FormatCSV, nil
	}
	return report.FormatTable, nil
}

func (sc *ScanCommand) emit(cmd *cobra.Command, format report.Format, summary *scan.Summary) error {
	if sc.output == "" {
		return writeReport(cmd.OutOrStdout(), format, summary)
	}

	f, err := os.Create(sc.output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := writeReport(f, format, summary); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeReport(w io.Writer, format report.Format, summary *scan.Summary) error {
	switch format {
	case report.FormatCSV:
		return report.WriteCSV(w, summary.Tally)
	case report.FormatJSON:
		return report.WriteJSON(w, summary)
	case report.FormatYAML:
		return report.WriteYAML(w, summary)
	default:
		_, err := fmt.Fprint(w, report.RenderTable(summary))
		return err
	}
}

func setupLogging(verbose bool, w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig reads the config file. An explicitly given path must
// exist; the default path is probed and silently falls back to the
// built-in defaults when absent.
func loadConfig(flags *pflag.FlagSet, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if !flags.Changed("config") && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func buildRunner(cfg *config.Config, module, boundary string, workers int, strict, skipTests bool) (*scan.Runner, error) {
	mode := analysis.BoundaryMode(boundary)
	if !mode.Valid() {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown boundary mode %q (want prefix or dotted)", boundary))
	}

	p := parser.New()
	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = p.SupportedExtensions()
	}

	walker, err := scan.NewWalker(extensions, cfg.Exclude.Dirs, cfg.Exclude.Files, skipTests)
	if err != nil {
		return nil, err
	}

	policy := scan.PolicyLenient
	if strict {
		policy = scan.PolicyStrict
	}

	return &scan.Runner{
		Parser:   p,
		Resolver: analysis.NewResolver(module, mode),
		Walker:   walker,
		Workers:  workers,
		Policy:   policy,
	}, nil
}

func saveHistory(path string, summary *scan.Summary) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	_, err = store.SaveRun(history.Run{
		Root:      summary.Root,
		Module:    summary.Module,
		Files:     summary.Files,
		Failures:  len(summary.Failures),
		TotalHits: summary.Tally.Total(),
	}, summary.Tally)
	return err
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "musage v%s\n", version)
		},
	}
}
