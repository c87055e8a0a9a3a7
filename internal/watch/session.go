package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"musage/internal/observability"
	"musage/internal/scan"
)

// Session keeps the per-file results of the last scan and patches them
// in place as the watcher reports change batches, so an update
// re-parses only the files that actually moved. The result cache on the
// runner makes even a full restart cheap.
type Session struct {
	runner  *scan.Runner
	root    string
	limiter *Limiter

	mu       sync.Mutex
	onUpdate func(scan.Summary)
	results  map[string]scan.FileResult
	last     scan.Summary
}

func NewSession(runner *scan.Runner, root string, limiter *Limiter) *Session {
	return &Session{
		runner:  runner,
		root:    filepath.Clean(root),
		limiter: limiter,
		results: make(map[string]scan.FileResult),
	}
}

// SetUpdateHandler registers the callback invoked after every fold.
// Must be set before Start when the consumer needs the initial summary.
func (s *Session) SetUpdateHandler(fn func(scan.Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Root returns the directory this session scans.
func (s *Session) Root() string {
	return s.root
}

// Start performs the initial full scan and seeds the per-file state.
func (s *Session) Start(ctx context.Context) (scan.Summary, error) {
	start := time.Now()

	files, err := s.runner.Walker.FindFiles(s.root)
	if err != nil {
		return scan.Summary{}, err
	}
	results, err := s.runner.ProcessAll(ctx, files)
	if err != nil {
		return scan.Summary{}, err
	}

	s.mu.Lock()
	s.results = make(map[string]scan.FileResult, len(results))
	for _, res := range results {
		s.results[res.Path] = res
	}
	summary := s.refoldLocked(time.Since(start))
	s.mu.Unlock()

	s.notify(summary)
	return summary, nil
}

// Apply folds one batch of changed paths into the session state.
// Deleted files drop out of the tally, new and rewritten files are
// re-parsed, everything else keeps its previous result.
func (s *Session) Apply(ctx context.Context, changed []string) (scan.Summary, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, 1); err != nil {
			return scan.Summary{}, err
		}
	}

	start := time.Now()

	s.mu.Lock()
	for _, path := range changed {
		path = filepath.Clean(path)
		info, err := os.Stat(path)
		switch {
		case err != nil:
			delete(s.results, path)
			if s.runner.Cache != nil {
				s.runner.Cache.Drop(path)
			}
		case info.IsDir():
			// New directories are re-walked by the watcher itself; their
			// files arrive as separate entries in the batch.
		case s.runner.Walker.Matches(path):
			s.results[path] = s.runner.ProcessFile(ctx, path)
		}
	}
	summary := s.refoldLocked(time.Since(start))
	s.mu.Unlock()

	observability.WatcherRescansTotal.Inc()
	s.notify(summary)
	return summary, nil
}

// Current returns the most recent summary.
func (s *Session) Current() scan.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) refoldLocked(elapsed time.Duration) scan.Summary {
	flat := make([]scan.FileResult, 0, len(s.results))
	for _, res := range s.results {
		flat = append(flat, res)
	}
	summary := *scan.Summarize(s.root, s.runner.Resolver.Module(), flat, elapsed)
	s.last = summary
	return summary
}

func (s *Session) notify(summary scan.Summary) {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn(summary)
	}
}
