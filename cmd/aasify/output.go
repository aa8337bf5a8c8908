package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"aasify/internal/diag"
	"aasify/internal/diagfmt"
	"aasify/internal/observ"
	"aasify/internal/workspace"
)

type linkJSON struct {
	Path     string   `json:"path"`
	Property string   `json:"property"`
	Text     string   `json:"text"`
	Targets  []string `json:"targets"`
}

type documentJSON struct {
	Document    string                    `json:"document"`
	Status      string                    `json:"status"`
	Error       string                    `json:"error,omitempty"`
	Links       []linkJSON                `json:"links,omitempty"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type loadJSON struct {
	Documents []documentJSON `json:"documents"`
	Symbols   int            `json:"symbols"`
	Timings   *observ.Report `json:"timings,omitempty"`
}

func (s *session) printOutcomes(w io.Writer, outcomes []workspace.Outcome, timings bool) error {
	if s.format == "json" {
		return s.printOutcomesJSON(w, outcomes, timings)
	}

	merged := diag.NewBag(s.maxDiags)
	for _, out := range outcomes {
		if out.Diags != nil {
			merged.Merge(s.visible(out.Diags))
		}
	}
	merged.Sort()
	diagfmt.Pretty(w, merged, s.ws.Files(), diagfmt.PrettyOpts{
		Color:     s.color,
		Context:   true,
		PathMode:  diagfmt.PathModeAuto,
		BaseDir:   s.baseDir,
		ShowNotes: true,
	})

	failed := 0
	for _, out := range outcomes {
		status := statusColor(out.Status, s.color).Sprint(out.Status.String())
		doc := diagfmt.FormatPath(out.Document, diagfmt.PathModeAuto, s.baseDir)
		line := fmt.Sprintf("%-12s %s", status, doc)
		if out.Err != nil {
			failed++
			line += ": " + out.Err.Error()
		} else if len(out.Links) > 0 {
			unresolved := 0
			for _, b := range out.Links {
				if len(b.Candidates) == 0 {
					unresolved++
				}
			}
			line += fmt.Sprintf(" (%d references, %d unresolved)", len(out.Links), unresolved)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d documents, %d symbols, %d failed\n", len(outcomes), s.ws.Index().Len(), failed)

	if timings {
		fmt.Fprint(w, s.ws.Timings().Summary())
	}
	return nil
}

func (s *session) printOutcomesJSON(w io.Writer, outcomes []workspace.Outcome, timings bool) error {
	opts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         diagfmt.PathModeAuto,
		BaseDir:          s.baseDir,
		Max:              s.maxDiags,
		IncludeNotes:     true,
	}
	out := loadJSON{
		Documents: make([]documentJSON, 0, len(outcomes)),
		Symbols:   s.ws.Index().Len(),
	}
	for _, o := range outcomes {
		dj := documentJSON{
			Document: diagfmt.FormatPath(o.Document, opts.PathMode, opts.BaseDir),
			Status:   o.Status.String(),
		}
		if o.Err != nil {
			dj.Error = o.Err.Error()
		}
		if o.Diags != nil {
			dj.Diagnostics = diagfmt.BuildDiagnosticsOutput(s.visible(o.Diags), s.ws.Files(), opts)
		}
		for _, b := range o.Links {
			lj := linkJSON{
				Path:     b.Path,
				Property: b.Ref.Property,
				Text:     b.Ref.Text,
				Targets:  make([]string, 0, len(b.Candidates)),
			}
			for _, c := range b.Candidates {
				lj.Targets = append(lj.Targets, c.QualifiedName)
			}
			dj.Links = append(dj.Links, lj)
		}
		out.Documents = append(out.Documents, dj)
	}
	if timings {
		report := s.ws.Timings().Report()
		out.Timings = &report
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// visible drops diagnostics below the session's minimum severity.
func (s *session) visible(bag *diag.Bag) *diag.Bag {
	if s.minSeverity == diag.SevHint {
		return bag
	}
	out := diag.NewBag(bag.Cap())
	for _, d := range bag.Items() {
		if d.Severity >= s.minSeverity {
			out.Add(d)
		}
	}
	return out
}

func statusColor(st workspace.LoadStatus, enabled bool) *color.Color {
	var c *color.Color
	switch st {
	case workspace.StatusLinked, workspace.StatusIndexed:
		c = color.New(color.FgGreen)
	case workspace.StatusIndexFailed, workspace.StatusLinkFailed:
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgYellow)
	}
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
