// Package report renders operation results as markdown text for MCP
// responses and the CLI.
package report

import (
	"fmt"
	"strings"

	"bsl-lint/src/diagnostics"
)

const (
	stderrLimit = 2000
	outputLimit = 5000
)

var severityIcons = map[diagnostics.Severity]string{
	diagnostics.SeverityError:   "🔴",
	diagnostics.SeverityWarning: "🟡",
	diagnostics.SeverityInfo:    "ℹ️",
}

var severityHeadings = map[diagnostics.Severity]string{
	diagnostics.SeverityError:   "Errors",
	diagnostics.SeverityWarning: "Warnings",
	diagnostics.SeverityInfo:    "Info messages",
}

// severityOrder fixes the group order; within a group the original
// diagnostic order is preserved.
var severityOrder = []diagnostics.Severity{
	diagnostics.SeverityError,
	diagnostics.SeverityWarning,
	diagnostics.SeverityInfo,
}

// RenderAnalyze renders an analysis result: status, counts, diagnostics
// grouped by severity, the raw JSON report, and truncated stderr.
func RenderAnalyze(result diagnostics.Result) string {
	var sb strings.Builder

	status := "✅ Analysis completed successfully"
	if !result.Success {
		status = "❌ Analysis completed with errors"
	}

	sb.WriteString("## BSL Analysis Results\n")
	fmt.Fprintf(&sb, "**Status:** %s\n", status)
	fmt.Fprintf(&sb, "**Files processed:** %d\n", result.FilesProcessed)
	fmt.Fprintf(&sb, "**Total diagnostics:** %d\n\n", len(result.Diagnostics))

	writeSeverityGroups(&sb, result.Diagnostics)

	if strings.TrimSpace(result.Output) != "" {
		sb.WriteString("\n## Full BSL JSON Output\n```json\n")
		sb.WriteString(result.Output)
		sb.WriteString("\n```\n")
	}

	if result.Error != "" {
		sb.WriteString("\n## BSL Server Logs (STDERR)\n```\n")
		sb.WriteString(truncate(result.Error, stderrLimit))
		sb.WriteString("\n```")
		if extra := len(result.Error) - stderrLimit; extra > 0 {
			fmt.Fprintf(&sb, "\n... and %d more characters", extra)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderFormat renders a formatting result. Formatting produces no
// diagnostics, only a status and the raw tool output.
func RenderFormat(result diagnostics.Result) string {
	var sb strings.Builder

	status := "✅ Formatting completed successfully"
	message := fmt.Sprintf("Successfully formatted %d files", result.FilesProcessed)
	if !result.Success {
		status = "❌ Formatting failed"
		message = fmt.Sprintf("Failed to format files. Error: %s", result.Error)
	}

	sb.WriteString("## BSL Formatting Results\n")
	fmt.Fprintf(&sb, "**Status:** %s\n", status)
	fmt.Fprintf(&sb, "**Message:** %s\n", message)
	fmt.Fprintf(&sb, "**Files processed:** %d\n", result.FilesProcessed)

	if result.Output != "" {
		sb.WriteString("\n## Output\n```\n")
		sb.WriteString(result.Output)
		sb.WriteString("\n```\n")
	}
	if result.Error != "" {
		sb.WriteString("\n## Error Output\n```\n")
		sb.WriteString(result.Error)
		sb.WriteString("\n```\n")
	}

	return sb.String()
}

// RenderSyntaxCheck renders a syntax-check result with severity-grouped
// diagnostics and a truncated view of the console output.
func RenderSyntaxCheck(result diagnostics.Result) string {
	var sb strings.Builder

	status := "✅ Syntax check completed successfully"
	if !result.Success {
		status = "❌ Syntax check found problems"
	}

	sb.WriteString("## Syntax Check Results\n")
	fmt.Fprintf(&sb, "**Status:** %s\n", status)
	fmt.Fprintf(&sb, "**Total diagnostics:** %d\n\n", len(result.Diagnostics))

	writeSeverityGroups(&sb, result.Diagnostics)

	if strings.TrimSpace(result.Output) != "" {
		sb.WriteString("\n## Runner Output\n```\n")
		sb.WriteString(truncate(result.Output, outputLimit))
		sb.WriteString("\n```")
		if extra := len(result.Output) - outputLimit; extra > 0 {
			fmt.Fprintf(&sb, "\n... and %d more characters", extra)
		}
		sb.WriteString("\n")
	}
	if result.Error != "" {
		sb.WriteString("\n## Error Output\n```\n")
		sb.WriteString(truncate(result.Error, stderrLimit))
		sb.WriteString("\n```\n")
	}

	return sb.String()
}

func writeSeverityGroups(sb *strings.Builder, diags []diagnostics.Diagnostic) {
	for _, sev := range severityOrder {
		count := diagnostics.CountBySeverity(diags, sev)
		if count == 0 {
			continue
		}
		fmt.Fprintf(sb, "**%s:** %d\n\n", severityHeadings[sev], count)
		for _, d := range diags {
			if d.Severity != sev {
				continue
			}
			sb.WriteString(renderDiagnostic(d))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

// renderDiagnostic renders one line: position-qualified when the source
// tool gave a file, bare message otherwise.
func renderDiagnostic(d diagnostics.Diagnostic) string {
	icon := severityIcons[d.Severity]
	if d.File == "" {
		return fmt.Sprintf("%s %s", icon, d.Message)
	}
	if d.Code != "" {
		return fmt.Sprintf("%s **%s:%d:%d** - [%s] %s", icon, d.File, d.Line, d.Column, d.Code, d.Message)
	}
	return fmt.Sprintf("%s **%s:%d:%d** - %s", icon, d.File, d.Line, d.Column, d.Message)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
