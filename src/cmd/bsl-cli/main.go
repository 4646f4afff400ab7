// Package main provides the bsl-cli command line interface: the same
// three operations the MCP server exposes, runnable from a terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bsl-lint/src/config"
	"bsl-lint/src/diagnostics"
	"bsl-lint/src/logger"
	"bsl-lint/src/report"
	"bsl-lint/src/runner"
)

var (
	appConfig *config.Config
	appRunner *runner.Runner
)

var rootCmd = &cobra.Command{
	Use:   "bsl-cli",
	Short: "bsl-cli - BSL Language Server and vrunner from the command line",
	Long: `bsl-cli wraps the BSL Language Server (analysis, formatting) and
vrunner (infobase syntax check) behind one command line tool.

Configuration comes from environment variables (BSL_JAR, BSL_MEMORY_MB,
BSL_CONFIG, VRUNNER_PATH, ...) or a YAML file named by BSL_CONFIG_FILE.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		appConfig, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}
		appRunner = runner.New(appConfig, logger.NewConsoleLogger(logger.ParseLevel(appConfig.LogLevel)))
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [source-path]",
	Short: "Analyze BSL sources and print diagnostics",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		memory, _ := cmd.Flags().GetInt("memory")
		configPath, _ := cmd.Flags().GetString("config")

		result := appRunner.Analyze(context.Background(), args[0], configPath, memory)
		printResult(report.RenderAnalyze(result), result)
	},
}

var formatCmd = &cobra.Command{
	Use:   "format [source-path]",
	Short: "Format BSL sources in place",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result := appRunner.Format(context.Background(), args[0])
		printResult(report.RenderFormat(result), result)
	},
}

var checkSyntaxCmd = &cobra.Command{
	Use:   "check-syntax",
	Short: "Run a vrunner syntax check against an infobase",
	Run: func(cmd *cobra.Command, args []string) {
		opts := runner.SyntaxCheckOptions{}
		opts.IBConnection, _ = cmd.Flags().GetString("ibconnection")
		opts.DBUser, _ = cmd.Flags().GetString("db-user")
		opts.DBPassword, _ = cmd.Flags().GetString("db-pwd")
		opts.GroupByMetadata, _ = cmd.Flags().GetBool("groupbymetadata")
		opts.JUnitPath, _ = cmd.Flags().GetString("junitpath")

		result := appRunner.CheckSyntax(context.Background(), opts)
		printResult(report.RenderSyntaxCheck(result), result)
	},
}

// printResult writes the rendered report and a colored one-line verdict,
// then sets the exit code from the result.
func printResult(text string, result diagnostics.Result) {
	fmt.Println(text)
	if result.Success {
		color.Green("OK")
		return
	}
	color.Red("FAILED")
	os.Exit(1)
}

func init() {
	analyzeCmd.Flags().Int("memory", 0, "JVM memory limit in MB (default: BSL_MEMORY_MB)")
	analyzeCmd.Flags().String("config", "", "path to .bsl-language-server.json (default: BSL_CONFIG)")

	checkSyntaxCmd.Flags().String("ibconnection", "", "infobase connection string (default: VRUNNER_IB_CONNECTION)")
	checkSyntaxCmd.Flags().String("db-user", "", "infobase user")
	checkSyntaxCmd.Flags().String("db-pwd", "", "infobase password")
	checkSyntaxCmd.Flags().Bool("groupbymetadata", true, "group results by metadata object")
	checkSyntaxCmd.Flags().String("junitpath", "", "write and read back a JUnit XML report")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(checkSyntaxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
