package history

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveRunAndListBack(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	saved, err := store.SaveRun(Run{
		Timestamp: base,
		Root:      "/tmp/project",
		Module:    "acme.mod",
		Files:     4,
		Failures:  1,
		TotalHits: 9,
	}, map[string]int{
		"acme.mod.foo": 6,
		"acme.mod.bar": 3,
	})
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated run id")
	}

	runs, err := store.ListRuns("", time.Time{}, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != saved.ID || got.Module != "acme.mod" || got.Files != 4 || got.Failures != 1 || got.TotalHits != 9 {
		t.Fatalf("unexpected run row: %+v", got)
	}
	if !got.Timestamp.Equal(base) {
		t.Fatalf("expected timestamp %v, got %v", base, got.Timestamp)
	}

	counts, err := store.RunCounts(saved.ID)
	if err != nil {
		t.Fatalf("load run counts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 key counts, got %d", len(counts))
	}
	if counts[0].Name != "acme.mod.foo" || counts[0].Count != 6 {
		t.Fatalf("expected highest count first, got %+v", counts[0])
	}
	if counts[1].Name != "acme.mod.bar" || counts[1].Count != 3 {
		t.Fatalf("unexpected second count: %+v", counts[1])
	}
}

func TestStore_SaveRunFillsDefaults(t *testing.T) {
	store := openTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	saved, err := store.SaveRun(Run{Root: "/tmp/p", Module: "m"}, nil)
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id for empty run id")
	}
	if saved.Timestamp.Before(before) {
		t.Fatalf("expected timestamp filled with now, got %v", saved.Timestamp)
	}
}

func TestStore_ListRunsFiltersAndOrders(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, module := range []string{"mod.a", "mod.b", "mod.a"} {
		_, err := store.SaveRun(Run{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Root:      "/tmp/p",
			Module:    module,
			TotalHits: i,
		}, nil)
		if err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	all, err := store.ListRuns("", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if !all[0].Timestamp.After(all[1].Timestamp) || !all[1].Timestamp.After(all[2].Timestamp) {
		t.Fatalf("expected newest-first ordering, got %+v", all)
	}

	byModule, err := store.ListRuns("mod.a", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(byModule) != 2 {
		t.Fatalf("expected 2 mod.a runs, got %d", len(byModule))
	}

	since, err := store.ListRuns("", base.Add(90*time.Minute), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 1 || since[0].TotalHits != 2 {
		t.Fatalf("expected only the newest run after since filter, got %+v", since)
	}

	limited, err := store.ListRuns("", time.Time{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].TotalHits != 2 {
		t.Fatalf("expected limit to keep the newest run, got %+v", limited)
	}
}

func TestStore_KeyTrendOrdersOldestFirstWithDeltas(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	counts := []int{3, 7, 5}
	for i, count := range counts {
		_, err := store.SaveRun(Run{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Root:      "/tmp/p",
			Module:    "acme.mod",
			TotalHits: count,
		}, map[string]int{"acme.mod.foo": count, "acme.mod.other": 1})
		if err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	trend, err := store.KeyTrend("acme.mod.foo", time.Time{}, 0)
	if err != nil {
		t.Fatalf("key trend: %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("expected 3 trend points, got %d", len(trend))
	}
	if trend[0].Count != 3 || trend[1].Count != 7 || trend[2].Count != 5 {
		t.Fatalf("expected oldest-first counts 3,7,5 got %+v", trend)
	}
	if trend[0].Delta != 3 || trend[1].Delta != 4 || trend[2].Delta != -2 {
		t.Fatalf("unexpected deltas: %+v", trend)
	}

	sinceTrend, err := store.KeyTrend("acme.mod.foo", base.Add(30*time.Minute), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sinceTrend) != 2 || sinceTrend[0].Count != 7 {
		t.Fatalf("expected since filter to drop oldest point, got %+v", sinceTrend)
	}

	missing, err := store.KeyTrend("acme.mod.never", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected empty trend for unknown name, got %+v", missing)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestComputeDeltas(t *testing.T) {
	points := ComputeDeltas([]TrendPoint{
		{Count: 2},
		{Count: 2},
		{Count: 6},
		{Count: 1},
	})
	want := []int{2, 0, 4, -5}
	for i, w := range want {
		if points[i].Delta != w {
			t.Fatalf("point %d: expected delta %d, got %d", i, w, points[i].Delta)
		}
	}
}

func TestIsLockError(t *testing.T) {
	if !isLockError(errWithMsg("database is locked")) {
		t.Fatal("expected locked message to be retryable")
	}
	if !isLockError(errWithMsg("SQLITE_BUSY: resource busy")) {
		t.Fatal("expected busy message to be retryable")
	}
	if isLockError(errWithMsg("no such table")) {
		t.Fatal("expected plain error to be final")
	}
}

type errWithMsg string

func (e errWithMsg) Error() string { return string(e) }
