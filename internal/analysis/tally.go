package analysis

import (
	"sort"
)

// Tally counts hits per fully qualified name across a whole tree.
// Merging is commutative, so the order in which per-file results arrive
// never changes the totals.
type Tally map[string]int

func NewTally() Tally {
	return make(Tally)
}

func (t Tally) Add(name string) {
	t[name]++
}

func (t Tally) AddAll(names []string) {
	for _, name := range names {
		t[name]++
	}
}

func (t Tally) Merge(other Tally) {
	for name, count := range other {
		t[name] += count
	}
}

// Total is the number of hits across all names.
func (t Tally) Total() int {
	total := 0
	for _, count := range t {
		total += count
	}
	return total
}

// Row is one ranked aggregate entry.
type Row struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Rank returns rows ordered by descending count. Equal counts order by
// name so the output is deterministic run to run.
func (t Tally) Rank() []Row {
	rows := make([]Row, 0, len(t))
	for name, count := range t {
		rows = append(rows, Row{Name: name, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}
