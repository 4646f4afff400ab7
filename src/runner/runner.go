// Package runner executes the BSL Language Server and vrunner as child
// processes and converts their output into normalized results.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"bsl-lint/src/config"
	"bsl-lint/src/diagnostics"
	"bsl-lint/src/junit"
	"bsl-lint/src/logger"
)

// reportFileName is the side-channel report the JSON reporter writes into
// the analyzer's working directory.
const reportFileName = "bsl-json.json"

// defaultConfigName is created next to the JAR when no analyzer
// configuration is supplied.
const defaultConfigName = ".bsl-language-server.json"

// Runner executes external tool commands. Safe for concurrent use; the
// configuration is read-only and every operation is self-contained.
type Runner struct {
	cfg *config.Config
	log logger.Logger

	analyzeTimeout time.Duration
	formatTimeout  time.Duration
	syntaxTimeout  time.Duration
}

// New creates a Runner with the operation timeouts the external tools need:
// analysis of a large configuration can take minutes, a full syntax check
// against an infobase even longer.
func New(cfg *config.Config, log logger.Logger) *Runner {
	return &Runner{
		cfg:            cfg,
		log:            log,
		analyzeTimeout: 300 * time.Second,
		formatTimeout:  120 * time.Second,
		syntaxTimeout:  600 * time.Second,
	}
}

// SyntaxCheckOptions are the parameters of one vrunner syntax-check run.
// Empty fields fall back to the configured defaults.
type SyntaxCheckOptions struct {
	IBConnection    string
	DBUser          string
	DBPassword      string
	GroupByMetadata bool
	JUnitPath       string
}

// Analyze runs BSL analysis on a source directory or file. All failures,
// including unexpected ones, come back as a failed Result; the method
// never returns an error.
func (r *Runner) Analyze(ctx context.Context, srcDir, configPath string, memoryMB int) diagnostics.Result {
	r.log.Info("starting BSL analysis for: %s", srcDir)

	source, err := config.ValidateSourcePath(srcDir)
	if err != nil {
		return r.failed(fmt.Errorf("%w: %v", ErrValidation, err))
	}

	configFile := configPath
	if configFile == "" {
		configFile = r.cfg.ConfigPath
	}
	if configFile != "" {
		if configFile, err = config.ValidateConfigPath(configFile); err != nil {
			return r.failed(fmt.Errorf("%w: %v", ErrValidation, err))
		}
	} else {
		if configFile, err = r.ensureDefaultConfig(); err != nil {
			return r.failed(fmt.Errorf("%w: %v", ErrValidation, err))
		}
	}

	memory := memoryMB
	if memory <= 0 {
		memory = r.cfg.DefaultMemoryMB
	}

	// The working directory determines where the JSON reporter drops its
	// side-channel file, so it must be the source location itself.
	workDir := source
	if info, statErr := os.Stat(source); statErr == nil && !info.IsDir() {
		workDir = filepath.Dir(source)
	}

	cmd := r.buildAnalyzeCommand(source, configFile, memory)
	r.log.Debug("analyze command: %v (workdir %s)", cmd, workDir)

	res := r.execute(ctx, cmd, workDir, r.analyzeTimeout)
	if res.timedOut {
		return r.failed(fmt.Errorf("%w: BSL analysis timed out after 5 minutes", ErrTimeout))
	}
	if res.err != nil {
		return r.failed(fmt.Errorf("%w: %v", ErrProcess, res.err))
	}
	r.log.Info("analysis command completed with exit code %d", res.exitCode)

	reportPath := filepath.Join(workDir, reportFileName)
	data, err := os.ReadFile(reportPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// The report is the analyzer's primary output channel; a
			// clean exit without it still means the run produced nothing
			// trustworthy.
			return r.failed(fmt.Errorf("%w: %s not found in %s", ErrReportMissing, reportFileName, workDir))
		}
		return r.failed(fmt.Errorf("%w: %v", ErrParse, err))
	}
	if r.cfg.KeepReports() {
		r.log.Debug("retaining report file for inspection: %s", reportPath)
	} else if err := os.Remove(reportPath); err != nil {
		r.log.Error("failed to remove report file %s: %v", reportPath, err)
	}

	diags, ok := diagnostics.ParseAnalyzeOutput(string(data), res.stderr)
	if !ok {
		return r.failed(fmt.Errorf("%w: %s has no recognizable format", ErrParse, reportFileName))
	}

	realErrs := realStderrErrors(res.stderr)
	for _, line := range realErrs {
		r.log.Error("analyzer stderr: %s", line)
	}

	return diagnostics.Result{
		Success:        res.exitCode == 0 && len(realErrs) == 0,
		Diagnostics:    diags,
		Output:         string(data),
		Error:          res.stderr,
		FilesProcessed: r.countSourceFiles(source),
	}
}

// Format formats BSL files in a source directory or file. Formatting has
// no reporter; success is solely the process exit code.
func (r *Runner) Format(ctx context.Context, srcDir string) diagnostics.Result {
	r.log.Info("starting BSL formatting for: %s", srcDir)

	source, err := config.ValidateSourcePath(srcDir)
	if err != nil {
		return r.failed(fmt.Errorf("%w: %v", ErrValidation, err))
	}

	cmd := r.buildFormatCommand(source)
	r.log.Debug("format command: %v", cmd)

	res := r.execute(ctx, cmd, "", r.formatTimeout)
	if res.timedOut {
		return r.failed(fmt.Errorf("%w: BSL formatting timed out after 2 minutes", ErrTimeout))
	}
	if res.err != nil {
		return r.failed(fmt.Errorf("%w: %v", ErrProcess, res.err))
	}
	r.log.Info("formatting command completed with exit code %d", res.exitCode)

	return diagnostics.Result{
		Success:        res.exitCode == 0,
		Output:         res.stdout,
		Error:          res.stderr,
		FilesProcessed: r.countSourceFiles(source),
	}
}

// CheckSyntax runs a vrunner syntax check against an infobase. Diagnostics
// come from scanning console output; when a JUnit report was requested and
// written, its failures are appended as well.
func (r *Runner) CheckSyntax(ctx context.Context, opts SyntaxCheckOptions) diagnostics.Result {
	if opts.IBConnection == "" {
		opts.IBConnection = r.cfg.IBConnection
	}
	if opts.IBConnection == "" {
		return r.failed(fmt.Errorf("%w: infobase connection string is required", ErrValidation))
	}
	if opts.DBUser == "" {
		opts.DBUser = r.cfg.DBUser
	}
	if opts.DBPassword == "" {
		opts.DBPassword = r.cfg.DBPassword
	}
	if opts.JUnitPath == "" {
		opts.JUnitPath = r.cfg.JUnitPath
	}

	r.log.Info("starting syntax check for: %s", opts.IBConnection)

	cmd := r.buildSyntaxCheckCommand(opts)
	res := r.execute(ctx, cmd, "", r.syntaxTimeout)
	if res.timedOut {
		return r.failed(fmt.Errorf("%w: syntax check timed out after 10 minutes", ErrTimeout))
	}
	if res.err != nil {
		return r.failed(fmt.Errorf("%w: %v", ErrProcess, res.err))
	}
	r.log.Info("syntax check completed with exit code %d", res.exitCode)

	diags := diagnostics.ParseSyntaxCheckOutput(res.stdout, res.stderr)
	diags = append(diags, r.junitFailures(opts.JUnitPath)...)

	return diagnostics.Result{
		Success:     res.exitCode == 0,
		Diagnostics: diags,
		Output:      res.stdout,
		Error:       res.stderr,
	}
}

// junitFailures reads back the report vrunner wrote for --junitpath.
// A missing or unreadable report is not a failure: the console scan has
// already produced the primary diagnostics.
func (r *Runner) junitFailures(path string) []diagnostics.Diagnostic {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Debug("no JUnit report at %s: %v", path, err)
		return nil
	}
	failures, err := junit.Parse(data)
	if err != nil {
		r.log.Debug("failed to parse JUnit report %s: %v", path, err)
		return nil
	}
	diags := make([]diagnostics.Diagnostic, 0, len(failures))
	for i := range failures {
		diags = append(diags, failures[i].Diagnostic())
	}
	return diags
}

type execResult struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	err      error
}

// execute runs argv with a bounded timeout and a sanitized environment.
// CommandContext kills the child when the deadline expires, so a timed-out
// run never leaves a process behind.
func (r *Runner) execute(ctx context.Context, argv []string, workDir string, timeout time.Duration) execResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workDir
	cmd.Env = safeEnvironment()
	// don't let orphaned grandchildren holding the pipes block Wait
	// after the deadline kill
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := execResult{stdout: stdout.String(), stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		res.timedOut = true
		return res
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.exitCode = exitErr.ExitCode()
		} else {
			res.err = err
		}
	}
	return res
}

// ensureDefaultConfig writes a minimal analyzer configuration next to the
// JAR if none exists yet, and returns its path. Idempotent.
func (r *Runner) ensureDefaultConfig() (string, error) {
	path := filepath.Join(filepath.Dir(r.cfg.JarPath), defaultConfigName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	minimal := map[string]string{
		"diagnosticLanguage": "RU",
		"language":           "RU",
	}
	data, err := json.MarshalIndent(minimal, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to create default config file: %w", err)
	}
	r.log.Debug("created default config at: %s", path)
	return path, nil
}

// countSourceFiles counts BSL/OS files under the source path.
func (r *Runner) countSourceFiles(source string) int {
	info, err := os.Stat(source)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return 1
	}
	files, err := config.FindSourceFiles(source)
	if err != nil {
		r.log.Debug("failed to count source files in %s: %v", source, err)
		return 0
	}
	return len(files)
}

// failed converts a classified error into a uniform failed result.
func (r *Runner) failed(err error) diagnostics.Result {
	r.log.Error("%v", err)
	return diagnostics.Failed(err.Error())
}
