// Package report renders a scan summary for humans and machines. The
// CSV form is the tool's original output contract: bare
// name,count rows sorted by descending count, no header.
package report

import (
	"fmt"
	"strings"

	apperrors "musage/internal/errors"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown format %q (want table, csv, json or yaml)", s))
	}
}
