// Package diagnostics defines the normalized diagnostic record and the
// result value every runner operation produces.
package diagnostics

// Severity is the normalized three-level classification. The analyzer's
// four-level scheme collapses into it (Hint folds into info).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one normalized issue record. Line and column are 1-based
// for display; zero means the source tool gave no position.
type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Code     string   `json:"code,omitempty"`
}

// Result is the outcome of one runner operation. It is created once per
// invocation, never mutated, and consumed immediately by the formatter.
type Result struct {
	Success        bool
	Diagnostics    []Diagnostic
	Output         string
	Error          string
	FilesProcessed int
}

// Failed builds a failed Result carrying only an error description.
func Failed(msg string) Result {
	return Result{Success: false, Error: msg}
}

// CountBySeverity returns how many diagnostics in ds carry sev.
func CountBySeverity(ds []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
