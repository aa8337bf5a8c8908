package source

import (
	"path/filepath"
	"slices"
	"strings"
)

// normalizeCRLF replaces every \r\n with \n and leaves lone \r untouched.
// The flag reports whether at least one replacement happened.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}
	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, 16)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

// toLineCol maps a byte offset to a 1-based line/column pair.
// lineIdx holds the offsets of every '\n' in ascending order.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// number of newlines strictly before off
	before, _ := slices.BinarySearch(lineIdx, off)
	if before == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	startOff := lineIdx[before-1] + 1
	return LineCol{Line: uint32(before + 1), Col: off - startOff + 1}
}

// NormalizePath returns the canonical slash-separated form used as a document key.
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "file://")
	return filepath.ToSlash(filepath.Clean(p))
}

// RelativePath returns path relative to base, or an error when no relative form exists.
func RelativePath(path, base string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
