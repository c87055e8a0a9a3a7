package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetricsFile dumps the default registry in Prometheus text
// exposition format. musage runs batch-style, so instead of a listener
// the metrics land in a file a node_exporter textfile collector (or a
// human) can pick up.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
