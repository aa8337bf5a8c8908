package workspace

import "time"

// Stage describes a loader phase.
type Stage string

const (
	StageRead  Stage = "read"
	StageIndex Stage = "index"
	StageLink  Stage = "link"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a document, or for the whole batch when
// Document is empty.
type Event struct {
	Document string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from the loading
// goroutine and from prefetch workers; implementations must be goroutine-safe.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
