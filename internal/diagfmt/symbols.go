package diagfmt

import (
	"fmt"
	"io"
	"text/tabwriter"

	"aasify/internal/symbols"
)

// SymbolJSON is a descriptor in JSON output.
type SymbolJSON struct {
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Document      string `json:"document"`
	Version       uint64 `json:"version"`
	Path          string `json:"path"`
}

// SymbolsJSON converts descriptors for JSON output.
func SymbolsJSON(descs []symbols.Descriptor, mode PathMode, base string) []SymbolJSON {
	out := make([]SymbolJSON, 0, len(descs))
	for _, d := range descs {
		out = append(out, SymbolJSON{
			Name:          d.Name,
			QualifiedName: d.QualifiedName,
			Kind:          d.Kind.String(),
			Document:      FormatPath(d.Document, mode, base),
			Version:       d.Version,
			Path:          d.Path,
		})
	}
	return out
}

// SymbolTable prints descriptors as aligned columns.
func SymbolTable(w io.Writer, descs []symbols.Descriptor, mode PathMode, base string, colored bool) error {
	p := newPalette(colored)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			p.code.Sprint(d.QualifiedName),
			FormatPath(d.Document, mode, base),
			p.path.Sprint(d.Path))
	}
	return tw.Flush()
}
