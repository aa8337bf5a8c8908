package workspace

import (
	"errors"

	"aasify/internal/diag"
	"aasify/internal/linker"
)

// ErrVanished reports a document indexed in Phase 1 that is gone by Phase 2.
var ErrVanished = errors.New("workspace: document vanished before linking")

// ErrClosed reports use of a closed workspace.
var ErrClosed = errors.New("workspace: closed")

// LoadStatus is the per-document result of a load.
type LoadStatus uint8

const (
	StatusIndexFailed LoadStatus = iota + 1
	// StatusIndexed means Phase 1 committed and linking was not requested.
	StatusIndexed
	StatusLinkFailed
	StatusLinked
)

func (s LoadStatus) String() string {
	switch s {
	case StatusIndexFailed:
		return "index-failed"
	case StatusIndexed:
		return "indexed"
	case StatusLinkFailed:
		return "link-failed"
	case StatusLinked:
		return "linked"
	default:
		return "unknown"
	}
}

// Failed reports whether the document did not reach its target state.
func (s LoadStatus) Failed() bool {
	return s == StatusIndexFailed || s == StatusLinkFailed
}

// Outcome is the result of loading one document. Err is set for failed
// statuses; Diags holds resource errors and linking findings.
type Outcome struct {
	Document string
	Status   LoadStatus
	Err      error
	Links    []linker.Binding
	Diags    *diag.Bag
}
