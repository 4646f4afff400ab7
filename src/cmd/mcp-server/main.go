// Package main provides the MCP server entry point for bsl-lint.
// The server speaks MCP over stdio and exposes the bsl_analyze,
// bsl_format and bsl_check_syntax tools.
package main

import (
	"fmt"
	"log"
	"os"

	"bsl-lint/src/config"
	"bsl-lint/src/logger"
	"bsl-lint/src/mcp"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewConsoleLogger(logger.ParseLevel(cfg.LogLevel))
	server := mcp.NewServer(cfg, appLogger)

	if err := server.Run(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
