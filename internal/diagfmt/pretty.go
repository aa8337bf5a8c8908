package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"aasify/internal/diag"
	"aasify/internal/source"
)

type palette struct {
	err, warn, info, code, path, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Bold),
		path: color.New(color.FgWhite, color.Faint),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty prints bag.Items() in order (call bag.Sort first for stable output):
//
//	<doc>:<line>:<col> <node path>: <SEV> <CODE>: <message>
//
// followed by the source line when the span is known, then notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.path.Sprint(location(d.Primary, fs, opts.PathMode, opts.BaseDir)),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message)
		if opts.Context {
			writeSnippet(w, d.Primary.Span, fs)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n",
				p.note.Sprint("note:"),
				location(n.Loc, fs, opts.PathMode, opts.BaseDir),
				n.Msg)
		}
	}
}

func location(loc diag.Location, fs *source.FileSet, mode PathMode, base string) string {
	var b strings.Builder
	b.WriteString(FormatPath(loc.Document, mode, base))
	if !loc.Span.Empty() && fs != nil && fs.Get(loc.Span.File) != nil {
		start, _ := fs.Resolve(loc.Span)
		fmt.Fprintf(&b, ":%d:%d", start.Line, start.Col)
	}
	if loc.Path != "" {
		b.WriteByte(' ')
		b.WriteString(loc.Path)
	}
	return b.String()
}

func writeSnippet(w io.Writer, span source.Span, fs *source.FileSet) {
	if span.Empty() || fs == nil {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	line := lineText(f, start.Line)
	if line == "" {
		return
	}
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	}
	gutter := fmt.Sprintf("%4d | ", start.Line)
	fmt.Fprintf(w, "%s%s\n", gutter, line)
	fmt.Fprintf(w, "%s%s%s\n",
		strings.Repeat(" ", len(gutter)),
		strings.Repeat(" ", int(start.Col)-1),
		"^"+strings.Repeat("~", width-1))
}

func lineText(f *source.File, line uint32) string {
	if line == 0 || int(line) > len(f.LineIdx)+1 {
		return ""
	}
	var from uint32
	if line > 1 {
		from = f.LineIdx[line-2] + 1
	}
	to := uint32(len(f.Content))
	if int(line-1) < len(f.LineIdx) {
		to = f.LineIdx[line-1]
	}
	if from > to {
		return ""
	}
	return string(f.Content[from:to])
}
