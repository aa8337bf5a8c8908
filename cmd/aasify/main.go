package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"aasify/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "aasify",
	Short: "Load, index and link asset administration shell models",
	Long: `aasify loads AAS model documents of a workspace into a global symbol
index, resolves cross-document references and reports diagnostics`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		stopProfiling = cleanup
		return nil
	},
}

// stopProfiling runs after the command, whether it failed or not.
var stopProfiling = func() {}

// main registers subcommands and persistent flags and runs the root command.
// Any returned error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.String("format", "pretty", "output format (pretty|json)")
	pf.String("dir", ".", "directory to search for aasify.toml")
	pf.Int("jobs", 0, "parallel document reads (0 uses the manifest value)")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime execution trace to this file")

	err := rootCmd.Execute()
	stopProfiling()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
