package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"aasify/internal/diag"
	"aasify/internal/workspace"
)

var loadCmd = &cobra.Command{
	Use:   "load [paths...]",
	Short: "Index and link model documents",
	Long: `Load indexes every document and then links them, printing the outcome
of each document and its diagnostics. Directories are searched for documents;
without arguments the documents of aasify.toml are loaded.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	loadCmd.Flags().Bool("refetch", false, "re-read documents before linking")
	loadCmd.Flags().Bool("no-validate", false, "skip name and duplicate checks")
	loadCmd.Flags().Bool("index-only", false, "stop after indexing")
	loadCmd.Flags().Bool("verify", false, "check the index against the documents after loading")
	loadCmd.Flags().Bool("clear-cache", false, "drop the symbol cache before loading")
	loadCmd.Flags().String("min-severity", "hint", "hide diagnostics below this severity (hint|info|warning|error)")
}

var errLoadFailed = errors.New("load failed")

func runLoad(cmd *cobra.Command, args []string) error {
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	refetch, err := cmd.Flags().GetBool("refetch")
	if err != nil {
		return fmt.Errorf("failed to get refetch flag: %w", err)
	}
	noValidate, err := cmd.Flags().GetBool("no-validate")
	if err != nil {
		return fmt.Errorf("failed to get no-validate flag: %w", err)
	}
	indexOnly, err := cmd.Flags().GetBool("index-only")
	if err != nil {
		return fmt.Errorf("failed to get index-only flag: %w", err)
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	minSevStr, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, err := diag.ParseSeverity(minSevStr)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, args, sessionOptions{
		refetch:    refetch,
		validate:   !noValidate,
		skipLink:   indexOnly,
		clearCache: clearCache,
	})
	if err != nil {
		return err
	}
	defer s.Close()
	s.minSeverity = minSev

	var outcomes []workspace.Outcome
	if s.format == "pretty" && shouldUseTUI(mode) && len(s.ids) > 0 {
		outcomes, err = runLoadWithUI(cmd.Context(), "aasify load", s.ws, s.ids)
	} else {
		outcomes, err = s.ws.Load(cmd.Context(), s.ids)
	}
	if err != nil {
		return err
	}

	var verifyErr error
	if verify {
		verifyErr = s.ws.Verify(cmd.Context())
	}

	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if err := s.printOutcomes(cmd.OutOrStdout(), outcomes, timings); err != nil {
		return err
	}

	if verifyErr != nil {
		return fmt.Errorf("index verification failed: %w", verifyErr)
	}
	for _, out := range outcomes {
		if out.Status.Failed() {
			return errLoadFailed
		}
	}
	return nil
}
