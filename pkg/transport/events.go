// Package transport maps the real-time wire protocol onto typed events.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/tessera/pkg/stream"
)

var (
	ErrNotConnected = errors.New("transport not connected")
	ErrUnknownEvent = errors.New("unknown event")
)

// Inbound event names
const (
	EventResponse        = "response"
	EventAgentStep       = "agent_step"
	EventSandboxStarted  = "sandbox-started"
	EventSandboxFinished = "sandbox-finished"
	EventMediaGenerated  = "media-generated"
	EventImageGenerated  = "image_generated"
	EventStatus          = "status"
	EventError           = "error"
	EventTaskStatus      = "task_execution_status"
	EventConnect         = "connect"
	EventDisconnect      = "disconnect"
)

// Outbound event names
const (
	EventSendMessage      = "send_message"
	EventTerminateSession = "terminate_session"
)

// Envelope is one named event on the wire
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// ConnectEvent reports that the transport is up
type ConnectEvent struct{}

// DisconnectEvent reports that the transport dropped
type DisconnectEvent struct {
	Reason string
}

// StatusEvent is a backend status notice
type StatusEvent struct {
	Message    string
	Level      string
	Persistent bool
	Duration   time.Duration
}

// ErrorEvent is an explicit backend error. Reset asks the client to sign out.
type ErrorEvent struct {
	Message string
	Reset   bool
}

// TaskStatusEvent reports the progress of a scheduled task
type TaskStatusEvent struct {
	TaskID  string
	Status  string
	Message string
}

type contributorFields struct {
	Contributor string `json:"contributor"`
	AgentName   string `json:"agent_name"`
	TeamName    string `json:"team_name"`
}

func (c contributorFields) name() string {
	for _, n := range []string{c.Contributor, c.AgentName, c.TeamName} {
		if strings.TrimSpace(n) != "" {
			return n
		}
	}
	return ""
}

type responseData struct {
	contributorFields
	ID        string `json:"id"`
	Content   any    `json:"content"`
	Streaming bool   `json:"streaming"`
	IsLog     bool   `json:"is_log"`
	Done      bool   `json:"done"`
}

type agentStepData struct {
	contributorFields
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type sandboxStartedData struct {
	ID      string `json:"id"`
	Command string `json:"command"`
}

type sandboxFinishedData struct {
	ID       string `json:"id"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode *int   `json:"exit_code"`
}

type mediaData struct {
	contributorFields
	ID          string `json:"id"`
	ImageBase64 string `json:"image_base64"`
	Base64      string `json:"base64"`
	MimeType    string `json:"mime_type"`
	ArtifactID  string `json:"artifactId"`
}

type statusData struct {
	Message    string  `json:"message"`
	Level      string  `json:"level"`
	Persistent bool    `json:"persistent"`
	Duration   float64 `json:"duration"`
}

type errorData struct {
	Message string `json:"message"`
	Reset   bool   `json:"reset"`
}

type taskStatusData struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type disconnectData struct {
	Reason string `json:"reason"`
}

// Decode maps an envelope to a typed event from this package or pkg/stream
func Decode(env Envelope) (any, error) {
	switch env.Event {
	case EventResponse:
		var d responseData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		if d.Done {
			return stream.DoneEvent{MessageID: d.ID}, nil
		}
		return stream.ContentEvent{
			MessageID:   d.ID,
			Content:     d.Content,
			Streaming:   d.Streaming,
			Contributor: d.name(),
			IsLog:       d.IsLog,
		}, nil

	case EventAgentStep:
		var d agentStepData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		var typ stream.StepType
		switch d.Type {
		case "tool_start":
			typ = stream.StepStart
		case "tool_end":
			typ = stream.StepEnd
		default:
			return nil, fmt.Errorf("%w: agent_step type %q", ErrUnknownEvent, d.Type)
		}
		return stream.ToolStepEvent{MessageID: d.ID, Type: typ, Name: d.Name, Contributor: d.name()}, nil

	case EventSandboxStarted:
		var d sandboxStartedData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return stream.SandboxEvent{MessageID: d.ID, Payload: "$ " + d.Command}, nil

	case EventSandboxFinished:
		var d sandboxFinishedData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return sandboxFinished(d), nil

	case EventMediaGenerated, EventImageGenerated:
		var d mediaData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		data := d.ImageBase64
		if data == "" {
			data = d.Base64
		}
		return stream.MediaEvent{
			MessageID:   d.ID,
			ImageData:   data,
			MimeType:    d.MimeType,
			ArtifactID:  d.ArtifactID,
			Contributor: d.name(),
		}, nil

	case EventStatus:
		var d statusData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return StatusEvent{
			Message:    d.Message,
			Level:      d.Level,
			Persistent: d.Persistent,
			Duration:   time.Duration(d.Duration * float64(time.Millisecond)),
		}, nil

	case EventError:
		var d errorData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return ErrorEvent{Message: d.Message, Reset: d.Reset}, nil

	case EventTaskStatus:
		var d taskStatusData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return TaskStatusEvent{TaskID: d.TaskID, Status: d.Status, Message: d.Message}, nil

	case EventConnect:
		return ConnectEvent{}, nil

	case EventDisconnect:
		var d disconnectData
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return DisconnectEvent{Reason: d.Reason}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func unmarshal(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", env.Event, err)
	}
	return nil
}

func sandboxFinished(d sandboxFinishedData) stream.SandboxEvent {
	var lines []string
	if s := strings.TrimRight(d.Stdout, "\n"); s != "" {
		lines = append(lines, s)
	}
	if s := strings.TrimRight(d.Stderr, "\n"); s != "" {
		lines = append(lines, s)
	}
	level := stream.SandboxInfo
	if d.ExitCode != nil {
		lines = append(lines, fmt.Sprintf("exit code %d", *d.ExitCode))
		if *d.ExitCode != 0 {
			level = stream.SandboxError
		}
	}
	if d.Stderr != "" && d.ExitCode == nil {
		level = stream.SandboxError
	}
	return stream.SandboxEvent{MessageID: d.ID, Payload: strings.Join(lines, "\n"), Level: level}
}
