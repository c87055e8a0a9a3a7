package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitTracingDisabledByDefault(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "musage"})
	if err != nil {
		t.Fatalf("InitTracing without endpoint failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("no-op shutdown failed: %v", err)
	}
}

func TestWriteMetricsFile(t *testing.T) {
	FilesScannedTotal.Inc()

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := WriteMetricsFile(path); err != nil {
		t.Fatalf("WriteMetricsFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "musage_files_scanned_total") {
		t.Error("expected musage_files_scanned_total in metrics dump")
	}
}
