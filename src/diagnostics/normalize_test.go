package diagnostics

import (
	"strings"
	"testing"
)

func TestParseAnalyzeOutput_CurrentFormat(t *testing.T) {
	out := `[{"path":"src/module.bsl","diagnostics":[{"severity":"Error","range":{"start":{"line":4,"character":9}},"message":"m","code":"C1"}]}]`

	diags, ok := ParseAnalyzeOutput(out, "")
	if !ok {
		t.Fatal("expected output to be recognized")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}

	d := diags[0]
	if d.File != "src/module.bsl" {
		t.Errorf("file = %q, want src/module.bsl", d.File)
	}
	// reporter positions are 0-based, display is 1-based
	if d.Line != 5 {
		t.Errorf("line = %d, want 5", d.Line)
	}
	if d.Column != 10 {
		t.Errorf("column = %d, want 10", d.Column)
	}
	if d.Severity != SeverityError {
		t.Errorf("severity = %q, want error", d.Severity)
	}
	if d.Message != "m" {
		t.Errorf("message = %q, want m", d.Message)
	}
	if d.Code != "C1" {
		t.Errorf("code = %q, want C1", d.Code)
	}
}

func TestParseAnalyzeOutput_SeverityMapping(t *testing.T) {
	cases := []struct {
		raw  string
		want Severity
	}{
		{"Error", SeverityError},
		{"Warning", SeverityWarning},
		{"Information", SeverityInfo},
		{"Hint", SeverityInfo},
		{"Fatal", SeverityInfo}, // unknown defaults to info
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			out := `[{"path":"a.bsl","diagnostics":[{"severity":"` + tc.raw + `","range":{"start":{"line":0,"character":0}},"message":"x"}]}]`
			diags, ok := ParseAnalyzeOutput(out, "")
			if !ok || len(diags) != 1 {
				t.Fatalf("expected 1 diagnostic, got %d (ok=%v)", len(diags), ok)
			}
			if diags[0].Severity != tc.want {
				t.Errorf("severity = %q, want %q", diags[0].Severity, tc.want)
			}
		})
	}
}

func TestParseAnalyzeOutput_ArrayEmbeddedInLogs(t *testing.T) {
	out := "Picked up JAVA_TOOL_OPTIONS\nAnalyzing sources\n" +
		`[{"path":"a.bsl","diagnostics":[{"severity":"Warning","range":{"start":{"line":1,"character":2}},"message":"w"}]}]` +
		"\ndone"

	diags, ok := ParseAnalyzeOutput(out, "")
	if !ok {
		t.Fatal("expected embedded array to be recognized")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Line != 2 || diags[0].Column != 3 {
		t.Errorf("position = %d:%d, want 2:3", diags[0].Line, diags[0].Column)
	}
}

func TestParseAnalyzeOutput_MultipleFilesKeepOrder(t *testing.T) {
	out := `[
		{"path":"a.bsl","diagnostics":[
			{"severity":"Information","range":{"start":{"line":0,"character":0}},"message":"first"},
			{"severity":"Error","range":{"start":{"line":1,"character":0}},"message":"second"}]},
		{"path":"b.bsl","diagnostics":[
			{"severity":"Warning","range":{"start":{"line":2,"character":0}},"message":"third"}]}
	]`

	diags, ok := ParseAnalyzeOutput(out, "")
	if !ok || len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d (ok=%v)", len(diags), ok)
	}
	for i, want := range []string{"first", "second", "third"} {
		if diags[i].Message != want {
			t.Errorf("diags[%d].Message = %q, want %q", i, diags[i].Message, want)
		}
	}
}

func TestParseAnalyzeOutput_LegacyFormatNoOffset(t *testing.T) {
	out := `{"issues":[{"file":"a.bsl","line":3,"column":2,"severity":"warning","message":"w"}]}`

	diags, ok := ParseAnalyzeOutput(out, "")
	if !ok {
		t.Fatal("expected legacy format to be recognized")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}

	d := diags[0]
	// legacy issues are 1-based already; fields copy through verbatim
	if d.Line != 3 {
		t.Errorf("line = %d, want 3 (no offset)", d.Line)
	}
	if d.Column != 2 {
		t.Errorf("column = %d, want 2 (no offset)", d.Column)
	}
	if d.Severity != SeverityWarning {
		t.Errorf("severity = %q, want warning", d.Severity)
	}
	if d.File != "a.bsl" || d.Message != "w" {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}

func TestParseAnalyzeOutput_TextFallback(t *testing.T) {
	diags, ok := ParseAnalyzeOutput("a.bsl:10:2: error: bad thing", "")
	if !ok {
		t.Fatal("expected text line to be recognized")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}

	d := diags[0]
	if d.File != "a.bsl" {
		t.Errorf("file = %q, want a.bsl", d.File)
	}
	if d.Line != 10 || d.Column != 2 {
		t.Errorf("position = %d:%d, want 10:2", d.Line, d.Column)
	}
	if d.Severity != SeverityError {
		t.Errorf("severity = %q, want error", d.Severity)
	}
	if d.Message != "bad thing" {
		t.Errorf("message = %q, want %q", d.Message, "bad thing")
	}
}

func TestParseAnalyzeOutput_UnparsableTokenLineKept(t *testing.T) {
	// numeric parse fails, but the line carries a severity token and must
	// still contribute exactly one diagnostic
	diags, ok := ParseAnalyzeOutput("failed with error: cannot open file", "")
	if !ok {
		t.Fatal("expected token line to be recognized")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}

	d := diags[0]
	if d.File != "" || d.Line != 0 || d.Column != 0 {
		t.Errorf("expected message-only diagnostic, got %+v", d)
	}
	if d.Severity != SeverityInfo {
		t.Errorf("severity = %q, want info", d.Severity)
	}
	if d.Message != "failed with error: cannot open file" {
		t.Errorf("message = %q, want full line", d.Message)
	}
}

func TestParseAnalyzeOutput_TokenlessLinesSkipped(t *testing.T) {
	out := "loading configuration: done\na.bsl:1:1: error: broken\nall checks passed"

	diags, ok := ParseAnalyzeOutput(out, "")
	if !ok {
		t.Fatal("expected text input to be recognized")
	}
	if len(diags) != 1 {
		t.Fatalf("expected only the token line to contribute, got %d diagnostics", len(diags))
	}
	if diags[0].Message != "broken" {
		t.Errorf("message = %q, want broken", diags[0].Message)
	}
}

func TestParseAnalyzeOutput_StderrContributesLines(t *testing.T) {
	diags, ok := ParseAnalyzeOutput("", "b.bsl:7:1: warning: unused variable")
	if !ok || len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic from stderr, got %d (ok=%v)", len(diags), ok)
	}
	if diags[0].Severity != SeverityWarning || diags[0].Line != 7 {
		t.Errorf("unexpected diagnostic: %+v", diags[0])
	}
}

func TestParseAnalyzeOutput_Empty(t *testing.T) {
	diags, ok := ParseAnalyzeOutput("", "")
	if !ok {
		t.Fatal("empty input is valid, not malformed")
	}
	if len(diags) != 0 {
		t.Errorf("expected 0 diagnostics, got %d", len(diags))
	}
}

func TestParseAnalyzeOutput_EmptyArray(t *testing.T) {
	diags, ok := ParseAnalyzeOutput("[]", "")
	if !ok {
		t.Fatal("empty array is a valid report")
	}
	if len(diags) != 0 {
		t.Errorf("expected 0 diagnostics, got %d", len(diags))
	}
}

func TestParseAnalyzeOutput_Malformed(t *testing.T) {
	t.Run("broken JSON without fallback lines", func(t *testing.T) {
		if _, ok := ParseAnalyzeOutput(`{"broken json`, ""); ok {
			t.Error("expected malformed input to be rejected")
		}
	})

	t.Run("plain garbage", func(t *testing.T) {
		if _, ok := ParseAnalyzeOutput("complete garbage with no structure", ""); ok {
			t.Error("expected garbage to be rejected")
		}
	})
}

func TestParseSyntaxCheckOutput(t *testing.T) {
	stdout := strings.Join([]string{
		"Выполняется проверка синтаксиса...",
		"Ошибка: Неверный синтаксис в модуле",
		"Предупреждение: Использование устаревшей функции",
	}, "\n")
	stderr := "Error: Failed to parse module"

	diags := ParseSyntaxCheckOutput(stdout, stderr)
	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}

	if n := CountBySeverity(diags, SeverityError); n < 1 {
		t.Errorf("expected at least 1 error, got %d", n)
	}
	if n := CountBySeverity(diags, SeverityWarning); n < 1 {
		t.Errorf("expected at least 1 warning, got %d", n)
	}

	for _, d := range diags {
		if d.File != "" || d.Line != 0 || d.Column != 0 {
			t.Errorf("syntax check diagnostics carry no positions, got %+v", d)
		}
	}
}

func TestParseSyntaxCheckOutput_MixedLocalizedAndEnglish(t *testing.T) {
	diags := ParseSyntaxCheckOutput("Ошибка: модуль не компилируется\nWarning: deprecated call", "")

	if n := CountBySeverity(diags, SeverityError); n != 1 {
		t.Errorf("expected 1 error, got %d", n)
	}
	if n := CountBySeverity(diags, SeverityWarning); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
}

func TestParseSyntaxCheckOutput_NeutralLinesIgnored(t *testing.T) {
	diags := ParseSyntaxCheckOutput("Checking configuration\nAll modules processed", "")
	if len(diags) != 0 {
		t.Errorf("expected 0 diagnostics, got %d", len(diags))
	}
}
