package diagnostics

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The analyzer has shipped two JSON report formats plus plain console
// output, so parsing walks an ordered fallback chain: current JSON array,
// legacy "issues" object, then line-oriented text. A format mismatch is a
// fallback trigger, never an error.

// fileReport is one element of the current JSON reporter output.
type fileReport struct {
	Path        string       `json:"path"`
	Diagnostics []jsonRecord `json:"diagnostics"`
}

type jsonRecord struct {
	Severity string `json:"severity"`
	Range    struct {
		Start struct {
			Line      int `json:"line"`
			Character int `json:"character"`
		} `json:"start"`
	} `json:"range"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// legacyReport is the pre-0.17 reporter shape.
type legacyReport struct {
	Issues []legacyIssue `json:"issues"`
}

type legacyIssue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Code     string `json:"code"`
}

// mapSeverity collapses the analyzer's four levels into three.
// Unknown values default to info.
func mapSeverity(s string) Severity {
	switch s {
	case "Error":
		return SeverityError
	case "Warning":
		return SeverityWarning
	case "Information", "Hint":
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// ParseAnalyzeOutput converts analyzer output into diagnostics. The bool
// reports whether any strategy recognized the input; false with non-blank
// input means the report is fundamentally malformed.
func ParseAnalyzeOutput(stdout, stderr string) ([]Diagnostic, bool) {
	trimmed := strings.TrimSpace(stdout)

	if trimmed != "" {
		// Legacy object format carries issues 1-based already; fields
		// are copied verbatim with no offset. The asymmetry with the
		// current format is deliberate: it mirrors the analyzer's own
		// versioned output.
		if strings.HasPrefix(trimmed, "{") {
			var legacy legacyReport
			if err := json.Unmarshal([]byte(trimmed), &legacy); err == nil && legacy.Issues != nil {
				diags := make([]Diagnostic, 0, len(legacy.Issues))
				for _, issue := range legacy.Issues {
					sev := Severity(issue.Severity)
					if sev == "" {
						sev = SeverityInfo
					}
					diags = append(diags, Diagnostic{
						File:     issue.File,
						Line:     issue.Line,
						Column:   issue.Column,
						Severity: sev,
						Message:  issue.Message,
						Code:     issue.Code,
					})
				}
				return diags, true
			}
		}

		// Current format: a JSON array of per-file reports, possibly
		// embedded in log noise. Take the first '[' to the last ']'.
		if start, end := strings.Index(trimmed, "["), strings.LastIndex(trimmed, "]"); start >= 0 && end > start {
			var reports []fileReport
			if err := json.Unmarshal([]byte(trimmed[start:end+1]), &reports); err == nil {
				var diags []Diagnostic
				for _, report := range reports {
					for _, rec := range report.Diagnostics {
						diags = append(diags, Diagnostic{
							File: report.Path,
							// the reporter emits 0-based positions
							Line:     rec.Range.Start.Line + 1,
							Column:   rec.Range.Start.Character + 1,
							Severity: mapSeverity(rec.Severity),
							Message:  rec.Message,
							Code:     rec.Code,
						})
					}
				}
				return diags, true
			}
		}
	}

	diags, matched := parseTextOutput(stdout, stderr)
	if matched == 0 && trimmed != "" {
		return nil, false
	}
	return diags, true
}

// parseTextOutput scans combined stdout+stderr for lines shaped like
// "file:line:column: severity: message". A line carrying a severity token
// that fails structured parsing still contributes one message-only
// diagnostic; no token-bearing line is ever dropped.
func parseTextOutput(stdout, stderr string) ([]Diagnostic, int) {
	var diags []Diagnostic
	matched := 0

	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if !strings.Contains(line, ":") {
			continue
		}
		if !strings.Contains(lower, "error") && !strings.Contains(lower, "warning") && !strings.Contains(lower, "info") {
			continue
		}

		if d, ok := parseTextLine(line); ok {
			diags = append(diags, d)
		} else {
			diags = append(diags, Diagnostic{
				Severity: SeverityInfo,
				Message:  line,
			})
		}
		matched++
	}
	return diags, matched
}

func parseTextLine(line string) (Diagnostic, bool) {
	parts := strings.SplitN(line, ":", 5)
	if len(parts) < 4 {
		return Diagnostic{}, false
	}

	lineNum, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Diagnostic{}, false
	}
	colNum, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Diagnostic{}, false
	}

	sevSegment := strings.ToLower(parts[3])
	severity := SeverityInfo
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
		if strings.Contains(sevSegment, string(sev)) {
			severity = sev
			break
		}
	}

	message := ""
	if len(parts) == 5 {
		message = strings.TrimSpace(parts[4])
	}
	if message == "" {
		message = strings.Trim(strings.TrimSpace(parts[3]), ": ")
	}

	return Diagnostic{
		File:     parts[0],
		Line:     lineNum,
		Column:   colNum,
		Severity: severity,
		Message:  message,
	}, true
}

// ParseSyntaxCheckOutput scans vrunner output line by line. The runner has
// no structured reporter integration, so classification is by localized or
// English severity tokens; positions are never available.
func ParseSyntaxCheckOutput(stdout, stderr string) []Diagnostic {
	var diags []Diagnostic

	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.Contains(lower, "ошибка") || strings.Contains(lower, "error"):
			diags = append(diags, Diagnostic{Severity: SeverityError, Message: line})
		case strings.Contains(lower, "предупреждение") || strings.Contains(lower, "warning"):
			diags = append(diags, Diagnostic{Severity: SeverityWarning, Message: line})
		}
	}
	return diags
}
