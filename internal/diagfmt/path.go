package diagfmt

import (
	"path"

	"aasify/internal/source"
)

// FormatPath renders a document path for display.
func FormatPath(doc string, mode PathMode, base string) string {
	switch mode {
	case PathModeAbsolute:
		return doc
	case PathModeBasename:
		return path.Base(doc)
	case PathModeRelative, PathModeAuto:
		if base == "" {
			return doc
		}
		rel, err := source.RelativePath(doc, base)
		if err != nil {
			if mode == PathModeAuto {
				return doc
			}
			return path.Base(doc)
		}
		return rel
	}
	return doc
}
