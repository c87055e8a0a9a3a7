package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"musage/internal/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists one row per scan run plus the per-name counts, so the
// usage of a qualified name can be tracked across time. Entirely opt-in;
// a run without a history path never touches disk.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun persists the run row and its per-name counts in one
// transaction. A zero ID or timestamp is filled in.
func (s *Store) SaveRun(run Run, counts map[string]int) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	run.Timestamp = run.Timestamp.UTC()

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(
			`INSERT INTO runs (id, ts_utc, root, module, file_count, failure_count, hit_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Timestamp.Format(time.RFC3339Nano),
			run.Root,
			run.Module,
			run.Files,
			run.Failures,
			run.TotalHits,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		for name, count := range counts {
			if _, err := tx.Exec(
				`INSERT INTO key_counts (run_id, name, count) VALUES (?, ?, ?)`,
				run.ID, name, count,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return Run{}, err
	}

	observability.HistoryWritesTotal.Inc()
	return run, nil
}

// ListRuns returns runs newest first, optionally filtered by module
// prefix string and lower time bound. limit <= 0 means no limit.
func (s *Store) ListRuns(module string, since time.Time, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, ts_utc, root, module, file_count, failure_count, hit_count FROM runs`
	var clauses []string
	var args []any
	if module != "" {
		clauses = append(clauses, "module = ?")
		args = append(args, module)
	}
	if !since.IsZero() {
		clauses = append(clauses, "ts_utc >= ?")
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY ts_utc DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run   Run
			tsRaw string
		)
		if err := rows.Scan(&run.ID, &tsRaw, &run.Root, &run.Module, &run.Files, &run.Failures, &run.TotalHits); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// RunCounts returns the per-name counts of one run, highest first.
func (s *Store) RunCounts(runID string) ([]KeyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load run counts", func() error {
		var qErr error
		rows, qErr = s.db.Query(
			`SELECT run_id, name, count FROM key_counts WHERE run_id = ? ORDER BY count DESC, name ASC`,
			runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]KeyCount, 0)
	for rows.Next() {
		var kc KeyCount
		if err := rows.Scan(&kc.RunID, &kc.Name, &kc.Count); err != nil {
			return nil, fmt.Errorf("scan key count row: %w", err)
		}
		counts = append(counts, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key count rows: %w", err)
	}

	return counts, nil
}

// KeyTrend returns the count of one qualified name per run, oldest
// first, with deltas filled in. Runs where the name never appeared are
// not part of the series.
func (s *Store) KeyTrend(name string, since time.Time, limit int) ([]TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT r.id, r.ts_utc, k.count
FROM key_counts k
JOIN runs r ON r.id = k.run_id
WHERE k.name = ?`
	args := []any{name}
	if !since.IsZero() {
		query += " AND r.ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY r.ts_utc ASC, r.id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load key trend", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]TrendPoint, 0)
	for rows.Next() {
		var (
			point TrendPoint
			tsRaw string
		)
		if err := rows.Scan(&point.RunID, &tsRaw, &point.Count); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse trend timestamp %q: %w", tsRaw, err)
		}
		point.Timestamp = ts.UTC()
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend rows: %w", err)
	}

	return ComputeDeltas(points), nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
