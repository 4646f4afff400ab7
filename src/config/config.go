// Package config provides configuration management for the bsl-lint server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const (
	defaultMemoryMB      = 4096
	minMemoryMB          = 128
	maxMemoryMB          = 16384
	defaultVRunnerPath   = "vrunner"
	defaultMaxConcurrent = 2
)

// Config holds the application configuration. It is loaded once at startup
// and passed explicitly into components; there is no package-level singleton.
type Config struct {
	// JarPath is the path to the BSL Language Server JAR file.
	JarPath string `yaml:"jar_path"`
	// JavaPath is the java executable used to run the JAR.
	JavaPath string `yaml:"java_path"`
	// DefaultMemoryMB is the JVM memory limit applied when a tool call
	// does not supply its own.
	DefaultMemoryMB int `yaml:"memory_mb"`
	// ConfigPath optionally points at a .bsl-language-server.json file.
	ConfigPath string `yaml:"config_path"`
	// LogLevel is the raw BSL_LOG_LEVEL value. Debug level also retains
	// the analyzer's JSON report file for inspection.
	LogLevel string `yaml:"log_level"`

	// VRunnerPath is the vrunner executable used for syntax checks.
	VRunnerPath string `yaml:"vrunner_path"`
	// IBConnection is the default infobase connection string for syntax
	// checks when the tool call omits one.
	IBConnection string `yaml:"ib_connection"`
	DBUser       string `yaml:"db_user"`
	DBPassword   string `yaml:"db_password"`
	JUnitPath    string `yaml:"junit_path"`

	// MaxConcurrentRuns bounds how many child processes may run at once.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`
}

// KeepReports reports whether the analyzer's side-channel report file
// should be retained after parsing instead of deleted.
func (c *Config) KeepReports() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// LoadFromEnv loads configuration from environment variables, optionally
// seeded from a YAML file named by BSL_CONFIG_FILE. Environment values
// always win over file values.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		JavaPath:          "java",
		DefaultMemoryMB:   defaultMemoryMB,
		VRunnerPath:       defaultVRunnerPath,
		MaxConcurrentRuns: defaultMaxConcurrent,
	}

	if file := os.Getenv("BSL_CONFIG_FILE"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	if v := os.Getenv("BSL_JAR"); v != "" {
		cfg.JarPath = v
	}
	if v := os.Getenv("BSL_JAVA"); v != "" {
		cfg.JavaPath = v
	}
	if v := os.Getenv("BSL_MEMORY_MB"); v != "" {
		mem, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BSL_MEMORY_MB must be an integer: %w", err)
		}
		cfg.DefaultMemoryMB = mem
	}
	if v := os.Getenv("BSL_CONFIG"); v != "" {
		cfg.ConfigPath = v
	}
	if v := os.Getenv("BSL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VRUNNER_PATH"); v != "" {
		cfg.VRunnerPath = v
	}
	if v := os.Getenv("VRUNNER_IB_CONNECTION"); v != "" {
		cfg.IBConnection = v
	}
	if v := os.Getenv("VRUNNER_DB_USER"); v != "" {
		cfg.DBUser = v
	}
	if v := os.Getenv("VRUNNER_DB_PWD"); v != "" {
		cfg.DBPassword = v
	}
	if v := os.Getenv("VRUNNER_JUNIT_PATH"); v != "" {
		cfg.JUnitPath = v
	}
	if v := os.Getenv("BSL_MAX_CONCURRENT_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("BSL_MAX_CONCURRENT_RUNS must be a positive integer")
		}
		cfg.MaxConcurrentRuns = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics
// on error. Useful for initialization in main() where configuration errors
// should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	if c.JarPath == "" {
		return fmt.Errorf("BSL_JAR environment variable is required")
	}
	info, err := os.Stat(c.JarPath)
	if err != nil {
		return fmt.Errorf("BSL JAR file not found: %s", c.JarPath)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(c.JarPath), ".jar") {
		return fmt.Errorf("file is not a JAR file: %s", c.JarPath)
	}
	abs, err := filepath.Abs(c.JarPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JAR path: %w", err)
	}
	c.JarPath = abs

	if c.DefaultMemoryMB < minMemoryMB {
		return fmt.Errorf("memory limit must be at least %d MB", minMemoryMB)
	}
	if c.DefaultMemoryMB > maxMemoryMB {
		return fmt.Errorf("memory limit should not exceed %d MB", maxMemoryMB)
	}

	if c.ConfigPath != "" {
		resolved, err := ValidateConfigPath(c.ConfigPath)
		if err != nil {
			return err
		}
		c.ConfigPath = resolved
	}
	return nil
}

// sourcePatterns match the file types the BSL Language Server understands.
var sourcePatterns = []string{"**/*.bsl", "**/*.os"}

// FindSourceFiles returns all BSL/OS files under dir, recursively.
func FindSourceFiles(dir string) ([]string, error) {
	var files []string
	fsys := os.DirFS(dir)
	for _, pattern := range sourcePatterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// ValidateSourcePath validates that path exists and is either a BSL/OS file
// or a directory containing at least one. Returns the absolute path.
func ValidateSourcePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("source path does not exist: %s", path)
	}

	if !info.IsDir() {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".bsl" && ext != ".os" {
			return "", fmt.Errorf("file is not a BSL/OS file: %s", path)
		}
	} else {
		files, err := FindSourceFiles(path)
		if err != nil {
			return "", err
		}
		if len(files) == 0 {
			return "", fmt.Errorf("directory contains no BSL/OS files: %s", path)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve source path: %w", err)
	}
	return abs, nil
}

// ValidateConfigPath validates an analyzer configuration file path.
// Returns the absolute path.
func ValidateConfigPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("configuration file not found: %s", path)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
		return "", fmt.Errorf("configuration file must be JSON: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return abs, nil
}
