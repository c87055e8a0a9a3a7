package scan

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"musage/internal/analysis"
	apperrors "musage/internal/errors"
	"musage/internal/observability"
	"musage/internal/parser"
)

// FailurePolicy decides what a parse failure does to the rest of the
// scan.
type FailurePolicy string

const (
	// PolicyLenient logs the failure, skips the file and keeps going.
	// The failure is still listed in the Summary.
	PolicyLenient FailurePolicy = "lenient"
	// PolicyStrict aborts the whole scan on the first failure, the way
	// an uncaught error would.
	PolicyStrict FailurePolicy = "strict"
)

// FileResult is the outcome of processing one file. Failed files carry
// Err and no hits.
type FileResult struct {
	Path     string
	Hits     []string
	Bindings int
	Err      error
}

// FileFailure is the reportable form of a failed file.
type FileFailure struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Summary is the end-of-run aggregate handed to reporting and history.
type Summary struct {
	Root     string
	Module   string
	Files    int
	Failures []FileFailure
	Tally    analysis.Tally
	Duration time.Duration
}

// Runner drives the per-file Parse -> Resolve -> Match pipeline over a
// tree and folds the results. Workers <= 0 means one worker per CPU;
// Workers == 1 processes files strictly sequentially.
type Runner struct {
	Parser   *parser.Parser
	Resolver *analysis.Resolver
	Walker   *Walker
	Workers  int
	Policy   FailurePolicy
	Cache    *ResultCache // optional, used by watch mode
}

// Run scans every matching file under root. In strict mode the first
// parse failure cancels the remaining work and is returned as the run's
// error; in lenient mode failures are collected into the Summary.
func (r *Runner) Run(ctx context.Context, root string) (*Summary, error) {
	ctx, span := observability.Tracer.Start(ctx, "scan", trace.WithAttributes(
		attribute.String("scan.root", root),
		attribute.String("scan.module", r.Resolver.Module()),
	))
	defer span.End()

	start := time.Now()

	files, err := r.Walker.FindFiles(root)
	if err != nil {
		return nil, err
	}

	results, err := r.ProcessAll(ctx, files)
	if err != nil {
		return nil, err
	}

	summary := Summarize(root, r.Resolver.Module(), results, time.Since(start))
	observability.ScanDuration.Observe(summary.Duration.Seconds())
	return summary, nil
}

// ProcessAll fans the paths out over the worker pool and returns one
// result per path. Results arrive in completion order; callers that
// need determinism must not depend on slice order, only on its
// contents. A strict-policy failure cancels the pool and surfaces as
// the returned error.
func (r *Runner) ProcessAll(ctx context.Context, paths []string) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, ctx.Err()
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case results <- r.ProcessFile(ctx, path):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]FileResult, 0, len(paths))
	var firstErr error
	for res := range results {
		if res.Err != nil && r.Policy == PolicyStrict && firstErr == nil {
			firstErr = res.Err
			cancel()
		}
		collected = append(collected, res)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	// The internal cancel only fires on a strict failure, which returned
	// above, so a non-nil error here means the caller's context ended
	// and the result set is incomplete.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collected, nil
}

// ProcessFile reads, parses and matches a single file. Errors are
// carried on the result, never returned, so one bad file cannot take a
// sibling down with it.
func (r *Runner) ProcessFile(ctx context.Context, path string) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Path: path, Err: err}
	}

	_, span := observability.Tracer.Start(ctx, "scan.file", trace.WithAttributes(
		attribute.String("file.path", path),
	))
	defer span.End()

	var info os.FileInfo
	if r.Cache != nil {
		var err error
		if info, err = os.Stat(path); err == nil {
			if res, ok := r.Cache.Lookup(path, info); ok {
				return res
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		return FileResult{Path: path, Err: apperrors.Wrap(err, apperrors.CodeParse, "read file")}
	}

	lang := r.Parser.LanguageForPath(path)
	span.SetAttributes(attribute.String("file.language", lang))
	parseStart := time.Now()
	file, err := r.Parser.ParseFile(path, content)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(parseStart).Seconds())
	if err != nil {
		observability.ParseFailuresTotal.WithLabelValues(lang).Inc()
		span.RecordError(err)
		if r.Policy == PolicyLenient {
			slog.Warn("failed to parse file", "path", path, "error", err)
		}
		return FileResult{Path: path, Err: apperrors.Wrap(err, apperrors.CodeParse, "parse file")}
	}

	aliases := r.Resolver.BuildAliasMap(file)
	hits := analysis.MatchCalls(file, aliases)

	observability.FilesScannedTotal.Inc()
	observability.HitsObservedTotal.Add(float64(len(hits)))

	result := FileResult{Path: path, Hits: hits, Bindings: len(aliases)}
	if r.Cache != nil && info != nil {
		r.Cache.Store(path, info, result)
	}
	return result
}

// Summarize folds per-file results into the tree-wide aggregate. The
// fold is commutative, so the completion order of the workers never
// changes the counts.
func Summarize(root, module string, results []FileResult, elapsed time.Duration) *Summary {
	tally := analysis.NewTally()
	var failures []FileFailure

	for _, res := range results {
		if res.Err != nil {
			failures = append(failures, FileFailure{Path: res.Path, Reason: res.Err.Error()})
			continue
		}
		tally.AddAll(res.Hits)
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

	return &Summary{
		Root:     root,
		Module:   module,
		Files:    len(results),
		Failures: failures,
		Tally:    tally,
		Duration: elapsed,
	}
}
