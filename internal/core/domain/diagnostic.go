package domain

import (
	"strconv"
	"strings"
)

// Diagnostic is provider-specific detail about a failed remote call.
// Every field is optional.
type Diagnostic struct {
	// Status is the HTTP status code, if known.
	Status int

	// Tag is a machine-readable error tag, e.g. "path/not_found".
	Tag string

	// Summary is a human-readable summary.
	Summary string
}

// IsZero reports whether no field is populated.
func (d Diagnostic) IsZero() bool {
	return d.Status == 0 && d.Tag == "" && d.Summary == ""
}

// String collapses the diagnostic into a single line.
func (d Diagnostic) String() string {
	parts := make([]string, 0, 3)
	if d.Status != 0 {
		parts = append(parts, "status="+strconv.Itoa(d.Status))
	}
	if d.Tag != "" {
		parts = append(parts, "tag="+d.Tag)
	}
	if d.Summary != "" {
		parts = append(parts, oneLine(d.Summary))
	}
	return strings.Join(parts, " ")
}

// DiagnosticExtractor pulls whatever detail it recognises out of err.
// It returns false when err is not a shape it understands.
type DiagnosticExtractor func(err error) (Diagnostic, bool)

// ExtractDiagnostic runs extractors in order and keeps the first populated
// value for each field. When nothing matches, the error text becomes the summary.
func ExtractDiagnostic(err error, extractors ...DiagnosticExtractor) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}

	var out Diagnostic
	for _, extract := range extractors {
		d, ok := extract(err)
		if !ok {
			continue
		}
		if out.Status == 0 {
			out.Status = d.Status
		}
		if out.Tag == "" {
			out.Tag = d.Tag
		}
		if out.Summary == "" {
			out.Summary = d.Summary
		}
	}

	if out.Summary == "" {
		out.Summary = err.Error()
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
