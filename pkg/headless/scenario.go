package headless

import (
	"errors"
	"fmt"
	"os"

	"github.com/killallgit/tessera/pkg/session"
	"gopkg.in/yaml.v3"
)

// TurnPlaceholder in event data is replaced by the message id of the latest send
const TurnPlaceholder = "$turn"

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a recorded conversation replayed without a network
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one user action or one inbound event. Exactly one of Send,
// NewConversation, Event or FailNextSend is set.
type Step struct {
	Send              string           `yaml:"send,omitempty"`
	Attachments       []AttachmentSpec `yaml:"attachments,omitempty"`
	ContextSessionIDs []string         `yaml:"context_session_ids,omitempty"`
	Deepsearch        bool             `yaml:"deepsearch,omitempty"`

	NewConversation bool `yaml:"new_conversation,omitempty"`

	Event string         `yaml:"event,omitempty"`
	Data  map[string]any `yaml:"data,omitempty"`

	FailNextSend string `yaml:"fail_next_send,omitempty"`
}

// AttachmentSpec describes a file attached to a scenario send
type AttachmentSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Path    string `yaml:"path,omitempty"`
	Content string `yaml:"content,omitempty"`
}

func (a AttachmentSpec) attachment() session.Attachment {
	return session.Attachment{
		Name:    a.Name,
		Type:    a.Type,
		Path:    a.Path,
		Content: a.Content,
		IsText:  a.Content != "",
	}
}

// Kind names the action a step performs
func (s Step) Kind() string {
	switch {
	case s.Send != "" || len(s.Attachments) > 0:
		return "send"
	case s.NewConversation:
		return "new_conversation"
	case s.Event != "":
		return "event"
	case s.FailNextSend != "":
		return "fail_next_send"
	default:
		return ""
	}
}

func (s Step) actions() int {
	n := 0
	if s.Send != "" || len(s.Attachments) > 0 {
		n++
	}
	if s.NewConversation {
		n++
	}
	if s.Event != "" {
		n++
	}
	if s.FailNextSend != "" {
		n++
	}
	return n
}

// Validate checks that every step names exactly one action
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i, s := range sc.Steps {
		switch s.actions() {
		case 0:
			return fmt.Errorf("%w: step %d has no action", ErrInvalidScenario, i+1)
		case 1:
		default:
			return fmt.Errorf("%w: step %d has more than one action", ErrInvalidScenario, i+1)
		}
		if s.Data != nil && s.Event == "" {
			return fmt.Errorf("%w: step %d has data without an event", ErrInvalidScenario, i+1)
		}
	}
	return nil
}

// Parse decodes and validates a scenario document
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// substituteTurn returns a copy of v with every TurnPlaceholder string
// replaced by id
func substituteTurn(v any, id string) any {
	switch t := v.(type) {
	case string:
		if t == TurnPlaceholder {
			return id
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = substituteTurn(val, id)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = substituteTurn(val, id)
		}
		return out
	default:
		return v
	}
}
