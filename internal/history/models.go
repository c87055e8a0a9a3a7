package history

import "time"

const SchemaVersion = 1

// Run is one persisted scan outcome.
type Run struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Root      string    `json:"root"`
	Module    string    `json:"module"`
	Files     int       `json:"files"`
	Failures  int       `json:"failures"`
	TotalHits int       `json:"total_hits"`
}

// KeyCount is one qualified name's count within a single run.
type KeyCount struct {
	RunID string `json:"run_id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendPoint tracks one qualified name across runs. Delta is the change
// from the previous point in the series.
type TrendPoint struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	Delta     int       `json:"delta"`
}
