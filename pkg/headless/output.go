package headless

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/killallgit/tessera/pkg/notify"
	"github.com/killallgit/tessera/pkg/session"
	"github.com/killallgit/tessera/pkg/transport"
	"github.com/killallgit/tessera/pkg/tui"
)

const redacted = "[redacted]"

// Output writes the sections of a replay report
type Output struct {
	w         io.Writer
	projector *tui.Projector
}

// NewOutput creates an output that renders through projector
func NewOutput(w io.Writer, projector *tui.Projector) *Output {
	return &Output{w: w, projector: projector}
}

func (o *Output) section(title string) {
	fmt.Fprintf(o.w, "\n== %s ==\n", title)
}

// Transcript prints every turn
func (o *Output) Transcript(turns []*session.Turn) {
	o.section("Transcript")
	if len(turns) == 0 {
		fmt.Fprintln(o.w, "(no turns)")
		return
	}
	fmt.Fprintln(o.w, o.projector.Transcript(turns))
}

// ContextSource looks up what was attached to a user message
type ContextSource interface {
	ContextFor(userMessageID string) (session.SentContext, bool)
}

// Context prints the files and session ids each user message carried.
// Turns that sent neither are skipped.
func (o *Output) Context(turns []*session.Turn, src ContextSource) {
	var lines []string
	for _, t := range turns {
		c, ok := src.ContextFor(t.UserMessageID)
		if !ok || (len(c.Files) == 0 && len(c.ContextSessionIDs) == 0) {
			continue
		}
		var parts []string
		if len(c.Files) > 0 {
			names := make([]string, len(c.Files))
			for i, f := range c.Files {
				names[i] = f.Name
			}
			parts = append(parts, "files "+strings.Join(names, ", "))
		}
		if len(c.ContextSessionIDs) > 0 {
			parts = append(parts, "sessions "+strings.Join(c.ContextSessionIDs, ", "))
		}
		lines = append(lines, fmt.Sprintf("%s: %s", c.UserMessageID, strings.Join(parts, "; ")))
	}
	if len(lines) == 0 {
		return
	}
	o.section("Context")
	fmt.Fprintln(o.w, strings.Join(lines, "\n"))
}

// Notices prints the notices raised during the replay
func (o *Output) Notices(notices []notify.Notice) {
	if len(notices) == 0 {
		return
	}
	o.section("Notices")
	fmt.Fprintln(o.w, o.projector.Notices(notices))
}

// Payloads prints every outbound envelope with credentials redacted
func (o *Output) Payloads(sent []transport.Envelope) {
	if len(sent) == 0 {
		return
	}
	o.section("Outbound")
	for _, env := range sent {
		fmt.Fprintf(o.w, "→ %s %s\n", env.Event, redact(env.Data))
	}
}

// Artifacts prints the exported file names
func (o *Output) Artifacts(dir string, files []string) {
	if len(files) == 0 {
		return
	}
	o.section("Artifacts")
	for _, f := range files {
		fmt.Fprintf(o.w, "%s/%s\n", strings.TrimRight(dir, "/"), f)
	}
}

// Errors prints events the session refused to apply
func (o *Output) Errors(errs []error) {
	if len(errs) == 0 {
		return
	}
	o.section("Errors")
	for _, err := range errs {
		fmt.Fprintf(o.w, "✗ %v\n", err)
	}
}

func redact(data json.RawMessage) string {
	if len(data) == 0 {
		return "{}"
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return string(data)
	}
	if _, ok := fields["accessToken"]; ok {
		fields["accessToken"] = redacted
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return string(data)
	}
	return string(out)
}
