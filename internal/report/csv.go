package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"musage/internal/analysis"
)

// WriteCSV emits one name,count record per distinct qualified name,
// descending by count. An empty tally writes nothing, which is the
// correct zero-hit output.
func WriteCSV(w io.Writer, tally analysis.Tally) error {
	cw := csv.NewWriter(w)
	for _, row := range tally.Rank() {
		if err := cw.Write([]string{row.Name, strconv.Itoa(row.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, tally analysis.Tally) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, tally); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses rows previously written by WriteCSV back into a tally,
// used by tests and by anything diffing two runs.
func ReadCSV(r io.Reader) (analysis.Tally, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	tally := analysis.NewTally()
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return tally, nil
		}
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, err
		}
		tally[record[0]] += count
	}
}
