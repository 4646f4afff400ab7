// Package logger provides logging for the bsl-lint server and CLI.
package logger

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Level controls which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel maps a BSL_LOG_LEVEL value to a Level. Unknown values
// fall back to warning, matching the server default.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warning", "WARNING", "warn", "WARN":
		return LevelWarning
	case "error", "ERROR":
		return LevelError
	default:
		return LevelWarning
	}
}

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

var (
	debugTag = color.New(color.FgCyan).Sprint("[DEBUG]")
	infoTag  = color.New(color.FgGreen).Sprint("[INFO]")
	errorTag = color.New(color.FgRed).Sprint("[ERROR]")
)

// ConsoleLogger writes human-readable logs to stderr. Stdout is left
// untouched so MCP stdio framing is never corrupted by log output.
type ConsoleLogger struct {
	level Level
}

func NewConsoleLogger(level Level) *ConsoleLogger {
	return &ConsoleLogger{level: level}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	if c.level <= LevelInfo {
		fmt.Fprintf(os.Stderr, infoTag+" "+msg+"\n", args...)
	}
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	if c.level <= LevelError {
		fmt.Fprintf(os.Stderr, errorTag+" "+msg+"\n", args...)
	}
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if c.level <= LevelDebug {
		fmt.Fprintf(os.Stderr, debugTag+" "+msg+"\n", args...)
	}
}

// SilentLogger discards all log messages.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
