package stream

// UpdateKind tells an observer what changed
type UpdateKind int

const (
	UpdateOpened UpdateKind = iota
	UpdateBlock
	UpdateTool
	UpdateSandbox
	UpdateMedia
	UpdateSummary
	UpdateDone
	UpdateFailed
)

// String returns the string representation of the update kind
func (k UpdateKind) String() string {
	switch k {
	case UpdateOpened:
		return "opened"
	case UpdateBlock:
		return "block"
	case UpdateTool:
		return "tool"
	case UpdateSandbox:
		return "sandbox"
	case UpdateMedia:
		return "media"
	case UpdateSummary:
		return "summary"
	case UpdateDone:
		return "done"
	case UpdateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Update is a one-way notification from the reconciler to a view
type Update struct {
	Kind      UpdateKind
	MessageID string
	Stream    *MessageStream
	Block     *ContentBlock
	Tool      *ToolEntry
	Media     *MediaEntry
	Summary   Summary
}

// Observer receives reconciler updates
type Observer interface {
	Observe(u Update)
}

// ObserverFunc is an adapter to allow the use of ordinary functions as observers
type ObserverFunc func(u Update)

// Observe calls f(u)
func (f ObserverFunc) Observe(u Update) {
	f(u)
}

// Observers fans one update out to several observers
type Observers []Observer

// Observe forwards u to every non-nil observer
func (o Observers) Observe(u Update) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(u)
		}
	}
}
