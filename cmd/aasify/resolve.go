package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"aasify/internal/ast"
	"aasify/internal/diagfmt"
	"aasify/internal/scope"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name> [paths...]",
	Short: "Resolve a reference text from a given source kind",
	Long: `Resolve shows which symbols a reference written on a node of the
--from kind would bind to.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("from", ast.KindAasDefinition.String(), "kind of the node carrying the reference")
	resolveCmd.Flags().String("property", "", "property holding the reference")
}

func runResolve(cmd *cobra.Command, args []string) error {
	from, err := parseKindFlag(cmd, "from")
	if err != nil {
		return err
	}
	property, err := cmd.Flags().GetString("property")
	if err != nil {
		return fmt.Errorf("failed to get property flag: %w", err)
	}
	s, err := openIndexed(cmd, args[1:])
	if err != nil {
		return err
	}
	defer s.Close()

	ref := scope.ReferenceInfo{Source: from, Property: property, Text: args[0]}
	candidates := s.ws.Provider().Resolve(ref)

	w := cmd.OutOrStdout()
	if s.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diagfmt.SymbolsJSON(candidates, diagfmt.PathModeAuto, s.baseDir)); err != nil {
			return err
		}
	} else {
		switch len(candidates) {
		case 0:
			fmt.Fprintf(w, "%q does not resolve from %s\n", ref.Text, from)
		case 1:
			fmt.Fprintf(w, "%q resolves to:\n", ref.Text)
		default:
			fmt.Fprintf(w, "%q is ambiguous, %d candidates:\n", ref.Text, len(candidates))
		}
		if len(candidates) > 0 {
			if err := diagfmt.SymbolTable(w, candidates, diagfmt.PathModeAuto, s.baseDir, s.color); err != nil {
				return err
			}
		}
	}
	if len(candidates) != 1 {
		return fmt.Errorf("reference %q: %d candidates", ref.Text, len(candidates))
	}
	return nil
}
