package runner

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// buildAnalyzeCommand builds the analyzer invocation. The JSON reporter
// writes bsl-json.json into the working directory, not stdout.
func (r *Runner) buildAnalyzeCommand(sourcePath, configFile string, memoryMB int) []string {
	return []string{
		r.cfg.JavaPath,
		fmt.Sprintf("-Xmx%dm", memoryMB),
		"-Dfile.encoding=UTF-8",
		"-jar", r.cfg.JarPath,
		"--analyze",
		"--srcDir", sourcePath,
		"--reporter", "json",
		"-c", configFile,
	}
}

func (r *Runner) buildFormatCommand(sourcePath string) []string {
	return []string{
		r.cfg.JavaPath,
		"-Dfile.encoding=UTF-8",
		"-jar", r.cfg.JarPath,
		"--format",
		"--src", sourcePath,
	}
}

func (r *Runner) buildSyntaxCheckCommand(opts SyntaxCheckOptions) []string {
	cmd := []string{
		r.cfg.VRunnerPath,
		"syntax-check",
		"--ibconnection", opts.IBConnection,
	}
	if opts.DBUser != "" {
		cmd = append(cmd, "--db-user", opts.DBUser)
	}
	if opts.DBPassword != "" {
		cmd = append(cmd, "--db-pwd", opts.DBPassword)
	}
	if opts.GroupByMetadata {
		cmd = append(cmd, "--groupbymetadata")
	}
	if opts.JUnitPath != "" {
		cmd = append(cmd, "--junitpath", opts.JUnitPath)
	}
	return cmd
}

// Environment variables redirected to the temp directory for child
// processes. The analyzer resolves caches and settings through these, and
// on Windows the real locations can be junction points it cannot traverse.
var redirectedEnvKeys = []string{
	"LOCALAPPDATA",
	"APPDATA",
	"TEMP",
	"TMP",
	"USERPROFILE",
	"HOME",
}

// safeEnvironment returns a copy of the current environment with
// home/temp/app-data variables pointed at one safe temporary directory.
func safeEnvironment() []string {
	tempDir := os.TempDir()

	redirected := make(map[string]bool, len(redirectedEnvKeys))
	for _, key := range redirectedEnvKeys {
		redirected[key] = true
	}

	var env []string
	for _, entry := range os.Environ() {
		key, _, ok := strings.Cut(entry, "=")
		if ok && redirected[key] {
			continue
		}
		env = append(env, entry)
	}
	for _, key := range redirectedEnvKeys {
		env = append(env, key+"="+tempDir)
	}
	return env
}

var (
	// progress counters and bracketed file tallies the analyzer prints
	// while scanning, e.g. "42%" or "[3/17]"
	progressLine = regexp.MustCompile(`^\d+%|\[\d+/\d+\]|^Progress\b|^Analyzing\b|^\.+$`)
	// routine log frames from the language server
	logFrameLine = regexp.MustCompile(`\b(INFO|DEBUG|TRACE)\b`)
	errorToken   = regexp.MustCompile(`(?i)error|exception|ошибка`)
)

// realStderrErrors filters stderr down to lines that indicate actual
// failure: progress indicators and routine log frames are discarded first,
// then anything carrying an error token counts.
func realStderrErrors(stderr string) []string {
	var errs []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if progressLine.MatchString(line) || logFrameLine.MatchString(line) {
			continue
		}
		if errorToken.MatchString(line) {
			errs = append(errs, line)
		}
	}
	return errs
}
