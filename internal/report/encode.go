package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"musage/internal/analysis"
	"musage/internal/scan"
)

// Document is the machine-readable summary shape shared by the JSON and
// YAML renderings.
type Document struct {
	Root       string             `json:"root" yaml:"root"`
	Module     string             `json:"module" yaml:"module"`
	Files      int                `json:"files" yaml:"files"`
	TotalHits  int                `json:"total_hits" yaml:"total_hits"`
	DurationMS int64              `json:"duration_ms" yaml:"duration_ms"`
	Rows       []analysis.Row     `json:"rows" yaml:"rows"`
	Failures   []scan.FileFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

func NewDocument(summary *scan.Summary) Document {
	return Document{
		Root:       summary.Root,
		Module:     summary.Module,
		Files:      summary.Files,
		TotalHits:  summary.Tally.Total(),
		DurationMS: summary.Duration.Milliseconds(),
		Rows:       summary.Tally.Rank(),
		Failures:   summary.Failures,
	}
}

func WriteJSON(w io.Writer, summary *scan.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(summary))
}

func WriteYAML(w io.Writer, summary *scan.Summary) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(NewDocument(summary)); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
