package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aasify/internal/ast"
	"aasify/internal/scope"
	"aasify/internal/source"
	"aasify/internal/symbols"
)

var scopeCmd = &cobra.Command{
	Use:   "scope [paths...]",
	Short: "List the names visible from a node kind",
	Long: `Scope lists the names a reference on a node of --kind may use. Without
--kind the workspace-wide scope is listed.`,
	RunE: runScope,
}

func init() {
	scopeCmd.Flags().String("kind", "", "kind of the node carrying the reference")
	scopeCmd.Flags().Bool("fold-case", false, "match the workspace-wide scope case-insensitively")
	scopeCmd.Flags().String("lookup", "", "look a single name up instead of listing")
	scopeCmd.Flags().String("at", "", "list the scope of the node at <path>:<byte offset>")
}

func runScope(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(cmd, "kind")
	if err != nil {
		return err
	}
	fold, err := cmd.Flags().GetBool("fold-case")
	if err != nil {
		return fmt.Errorf("failed to get fold-case flag: %w", err)
	}
	lookup, err := cmd.Flags().GetString("lookup")
	if err != nil {
		return fmt.Errorf("failed to get lookup flag: %w", err)
	}
	at, err := cmd.Flags().GetString("at")
	if err != nil {
		return fmt.Errorf("failed to get at flag: %w", err)
	}
	s, err := openIndexed(cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.ws.Provider()
	var sc *symbols.Scope
	if at != "" {
		node, err := nodeAt(s, at)
		if err != nil {
			return err
		}
		sc = p.ScopeAt(node)
	} else if kind != ast.KindInvalid {
		sc = p.ResolveReference(scope.ReferenceInfo{Source: kind})
	} else {
		mode := scope.MatchExact
		if fold {
			mode = scope.MatchFoldCase
		}
		sc = p.GlobalScope(mode)
	}

	names := sc.Names()
	if lookup != "" {
		names = nil
		for _, d := range sc.Lookup(lookup) {
			names = append(names, d.QualifiedName)
		}
	}

	w := cmd.OutOrStdout()
	if s.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "scope is empty")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

// nodeAt finds the node under a <path>:<offset> position of a loaded document.
func nodeAt(s *session, pos string) (*ast.Node, error) {
	i := strings.LastIndexByte(pos, ':')
	if i <= 0 {
		return nil, fmt.Errorf("invalid position %q (expected <path>:<offset>)", pos)
	}
	off, err := strconv.ParseUint(pos[i+1:], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid offset in %q: %w", pos, err)
	}
	abs, err := filepath.Abs(pos[:i])
	if err != nil {
		return nil, err
	}
	doc, err := s.ws.Store().AST(source.NormalizePath(abs))
	if err != nil {
		return nil, err
	}
	return doc.Node(doc.NodeAt(uint32(off))), nil
}
