package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"bsl-lint/src/config"
	"bsl-lint/src/logger"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	jar := filepath.Join(t.TempDir(), "bsl-language-server.jar")
	if err := os.WriteFile(jar, []byte("jar"), 0o644); err != nil {
		t.Fatalf("failed to write jar: %v", err)
	}
	cfg := &config.Config{
		JarPath:           jar,
		JavaPath:          "java",
		DefaultMemoryMB:   4096,
		VRunnerPath:       "vrunner",
		MaxConcurrentRuns: 1,
	}
	return NewServer(cfg, logger.NewSilentLogger())
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestHandleAnalyze_MissingSrcDir(t *testing.T) {
	s := testServer(t)

	result, err := s.handleAnalyze(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler must not return a protocol error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for missing srcDir")
	}
}

func TestHandleFormat_MissingSrcDir(t *testing.T) {
	s := testServer(t)

	result, err := s.handleFormat(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler must not return a protocol error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for missing srcDir")
	}
}

func TestHandleCheckSyntax_MissingConnection(t *testing.T) {
	s := testServer(t)

	result, err := s.handleCheckSyntax(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler must not return a protocol error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result without a connection string or env default")
	}
}

func TestHandleAnalyze_InvalidPathReturnsTextReport(t *testing.T) {
	s := testServer(t)

	// a missing path fails inside the runner; the handler still returns a
	// readable report, never a protocol-level fault
	result, err := s.handleAnalyze(context.Background(), callRequest(map[string]any{
		"srcDir": filepath.Join(t.TempDir(), "missing"),
	}))
	if err != nil {
		t.Fatalf("handler must not return a protocol error: %v", err)
	}
	if result.IsError {
		t.Error("runner failures should come back as a formatted text report")
	}
}

func TestResolveSourceDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "module.bsl")
	if err := os.WriteFile(file, []byte("// m"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	t.Run("file becomes parent directory", func(t *testing.T) {
		if got := resolveSourceDir(file); got != dir {
			t.Errorf("resolveSourceDir(%q) = %q, want %q", file, got, dir)
		}
	})

	t.Run("directory passes through", func(t *testing.T) {
		if got := resolveSourceDir(dir); got != dir {
			t.Errorf("resolveSourceDir(%q) = %q, want %q", dir, got, dir)
		}
	})

	t.Run("missing path passes through", func(t *testing.T) {
		missing := filepath.Join(dir, "nope")
		if got := resolveSourceDir(missing); got != missing {
			t.Errorf("resolveSourceDir(%q) = %q, want %q", missing, got, missing)
		}
	})
}
