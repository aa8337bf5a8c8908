package diag

import (
	"fmt"
	"strings"
)

// Severity orders findings from hints up to errors. Errors mark a document
// as failed; everything below is advisory.
type Severity uint8

const (
	SevHint Severity = iota
	SevInfo
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevHint:    "HINT",
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(i), nil //nolint:gosec // bounded by severityNames
		}
	}
	return SevHint, fmt.Errorf("unknown severity %q (expected hint|info|warning|error)", name)
}
