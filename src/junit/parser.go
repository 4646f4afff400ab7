// Package junit parses the JUnit XML report vrunner writes when a
// syntax check is started with --junitpath.
package junit

import (
	"encoding/xml"
	"fmt"
	"strings"

	"bsl-lint/src/diagnostics"
)

// TestSuites is the root element for multiple test suites.
type TestSuites struct {
	XMLName    xml.Name    `xml:"testsuites"`
	TestSuites []TestSuite `xml:"testsuite"`
}

// TestSuite represents a <testsuite> element. vrunner emits one suite per
// metadata object when --groupbymetadata is set.
type TestSuite struct {
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr"`
	TestCases []TestCase `xml:"testcase"`
}

// TestCase represents a <testcase> element.
type TestCase struct {
	Name      string       `xml:"name,attr"`
	ClassName string       `xml:"classname,attr"`
	Failure   *CaseFailure `xml:"failure"`
	Error     *CaseFailure `xml:"error"`
}

// CaseFailure represents a <failure> or <error> child.
type CaseFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Failure is one syntax-check failure extracted from the report.
type Failure struct {
	ModuleName string // classname attribute: the metadata object / module
	CheckName  string
	SuiteName  string
	Message    string
	Detail     string
}

// Parse parses JUnit XML data and returns only failed checks.
// Returns an empty slice when every check passed.
func Parse(data []byte) ([]Failure, error) {
	var suites TestSuites
	if err := xml.Unmarshal(data, &suites); err == nil && len(suites.TestSuites) > 0 {
		return extractFailures(suites.TestSuites), nil
	}

	var suite TestSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse JUnit XML: %w", err)
	}
	return extractFailures([]TestSuite{suite}), nil
}

func extractFailures(suites []TestSuite) []Failure {
	var failures []Failure

	for _, suite := range suites {
		for _, tc := range suite.TestCases {
			for _, f := range []*CaseFailure{tc.Failure, tc.Error} {
				if f == nil {
					continue
				}
				failures = append(failures, Failure{
					ModuleName: tc.ClassName,
					CheckName:  tc.Name,
					SuiteName:  suite.Name,
					Message:    f.Message,
					Detail:     strings.TrimSpace(f.Content),
				})
			}
		}
	}
	return failures
}

// Diagnostic converts the failure into a normalized error diagnostic.
// The report carries no source positions, only module identity.
func (f *Failure) Diagnostic() diagnostics.Diagnostic {
	msg := f.Message
	if msg == "" {
		msg = f.Detail
	}
	subject := f.ModuleName
	if subject == "" {
		subject = f.CheckName
	}
	if subject != "" {
		msg = fmt.Sprintf("%s: %s", subject, msg)
	}
	return diagnostics.Diagnostic{
		Severity: diagnostics.SeverityError,
		Message:  msg,
	}
}
