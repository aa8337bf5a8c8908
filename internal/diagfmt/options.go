package diagfmt

// PathMode specifies how document paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths relative to BaseDir when possible.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   bool // print the source line with a caret under the span
	PathMode  PathMode
	BaseDir   string
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // add line/col
	PathMode         PathMode
	BaseDir          string
	Max              int // output cut-off, the bag is untouched
	IncludeNotes     bool
}
