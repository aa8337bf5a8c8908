// Package diag defines the diagnostic model shared by the loader, the
// linker and the validators.
//
// Producers emit through a Reporter; BagReporter collects into a Bag that
// supports sorting and merging. Rendering lives in internal/diagfmt.
//
// Diagnostics describe user-facing findings only. Resolution misses become
// LinkUnresolved warnings; they never fail a load. Resource errors and
// contract violations are carried as errors in the workspace outcome and are
// rendered as diagnostics at the CLI boundary.
package diag
