package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aasify/internal/ast"
)

// openIndexed opens a session and runs Phase 1 only. Documents that fail to
// index are listed on stderr; the query still runs on what was indexed.
func openIndexed(cmd *cobra.Command, args []string) (*session, error) {
	s, err := openSession(cmd, args, sessionOptions{skipLink: true})
	if err != nil {
		return nil, err
	}
	outcomes, err := s.ws.Load(cmd.Context(), s.ids)
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, out := range outcomes {
		if out.Status.Failed() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", out.Document, out.Err)
		}
	}
	return s, nil
}

func parseKindFlag(cmd *cobra.Command, name string) (ast.Kind, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ast.KindInvalid, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if value == "" {
		return ast.KindInvalid, nil
	}
	kind, ok := ast.ParseKind(value)
	if !ok {
		return ast.KindInvalid, fmt.Errorf("unknown kind %q", value)
	}
	return kind, nil
}
