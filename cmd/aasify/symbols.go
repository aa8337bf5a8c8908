package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"aasify/internal/diagfmt"
	"aasify/internal/symbols"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [paths...]",
	Short: "List the exported symbols of the workspace",
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().String("kind", "", "only list symbols of this kind")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(cmd, "kind")
	if err != nil {
		return err
	}
	s, err := openIndexed(cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	var descs []symbols.Descriptor
	if kind.Named() {
		descs = s.ws.Provider().Definitions(kind)
	} else {
		descs = s.ws.Symbols()
	}

	w := cmd.OutOrStdout()
	switch s.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(diagfmt.SymbolsJSON(descs, diagfmt.PathModeAuto, s.baseDir))
	default:
		if len(descs) == 0 {
			fmt.Fprintln(w, "no symbols")
			return nil
		}
		return diagfmt.SymbolTable(w, descs, diagfmt.PathModeAuto, s.baseDir, s.color)
	}
}
