package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	apperrors "musage/internal/errors"
	"musage/internal/history"
)

// HistoryCommand holds the flags of the history subcommand.
type HistoryCommand struct {
	dbPath string
	module string
	key    string
	since  string
	limit  int
}

// NewHistoryCommand creates the history subcommand, which reads the
// run database written by scans invoked with --history.
func NewHistoryCommand() *cobra.Command {
	hc := &HistoryCommand{}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List recorded runs or the trend of a single name",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          hc.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&hc.dbPath, "db", "", "path to the history database (required)")
	flags.StringVar(&hc.module, "module", "", "only list runs for this module prefix")
	flags.StringVar(&hc.key, "key", "", "show the count trend of one qualified name")
	flags.StringVar(&hc.since, "since", "", "only include entries after this time (duration like 24h, or a date)")
	flags.IntVar(&hc.limit, "limit", 20, "maximum number of entries to list")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func (hc *HistoryCommand) run(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(hc.since)
	if err != nil {
		return err
	}

	store, err := history.Open(hc.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if hc.key != "" {
		points, err := store.KeyTrend(hc.key, since, hc.limit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderTrend(hc.key, points))
		return nil
	}

	runs, err := store.ListRuns(hc.module, since, hc.limit)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderRuns(runs))
	return nil
}

// parseSince accepts either a relative duration ("24h", "30m") or an
// absolute timestamp (RFC 3339 or plain date). Empty means no cutoff.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return time.Now().UTC().Add(-d), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.New(apperrors.CodeValidation,
		fmt.Sprintf("cannot parse --since %q (want a duration like 24h or a date like 2006-01-02)", raw))
}

func renderRuns(runs []history.Run) string {
	if len(runs) == 0 {
		return "no runs recorded\n"
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"TIME", "MODULE", "ROOT", "FILES", "FAILED", "HITS"})
	for _, run := range runs {
		tbl.AppendRow(table.Row{
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Module, run.Root, run.Files, run.Failures, run.TotalHits,
		})
	}

	return tbl.Render() + "\n"
}

func renderTrend(key string, points []history.TrendPoint) string {
	if len(points) == 0 {
		return fmt.Sprintf("no history for %s\n", key)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"TIME", "COUNT", "DELTA"})
	for _, p := range points {
		tbl.AppendRow(table.Row{
			p.Timestamp.Local().Format("2006-01-02 15:04:05"),
			p.Count, fmt.Sprintf("%+d", p.Delta),
		})
	}

	return fmt.Sprintf("%s\n%s\n", key, tbl.Render())
}
