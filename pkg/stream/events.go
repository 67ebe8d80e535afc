package stream

// ContentEvent carries a text delta or a final payload for one contributor
type ContentEvent struct {
	MessageID   string
	Content     any
	Streaming   bool
	Contributor string
	IsLog       bool
}

// StepType distinguishes tool start and end markers
type StepType int

const (
	StepStart StepType = iota
	StepEnd
)

// String returns the wire name of the step type
func (t StepType) String() string {
	switch t {
	case StepStart:
		return "tool_start"
	case StepEnd:
		return "tool_end"
	default:
		return "unknown"
	}
}

// ToolStepEvent marks the start or end of a tool invocation
type ToolStepEvent struct {
	MessageID   string
	Type        StepType
	Name        string
	Contributor string
}

// SandboxLevel tells stdout lines from stderr lines
type SandboxLevel int

const (
	SandboxInfo SandboxLevel = iota
	SandboxError
)

// SandboxEvent is one line of sandbox execution output
type SandboxEvent struct {
	MessageID string
	Payload   string
	Level     SandboxLevel
}

// MediaEvent announces generated media. ArtifactID, when set, is reused.
type MediaEvent struct {
	MessageID   string
	ImageData   string
	MimeType    string
	ArtifactID  string
	Contributor string
}

// DoneEvent finalizes a turn
type DoneEvent struct {
	MessageID string
}
