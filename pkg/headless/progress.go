package headless

import (
	"fmt"
	"io"
	"sync"

	"github.com/killallgit/tessera/pkg/logger"
	"github.com/killallgit/tessera/pkg/stream"
)

// progressObserver prints one line per reconciler update while a scenario
// replays. A nil writer only logs.
type progressObserver struct {
	mu  sync.Mutex
	out io.Writer
	log *logger.Logger
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out, log: logger.WithComponent("replay")}
}

// Observe implements stream.Observer
func (p *progressObserver) Observe(u stream.Update) {
	line := describeUpdate(u)
	p.log.Debug("stream update", "kind", u.Kind.String(), "message_id", u.MessageID)
	if p.out == nil || line == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "· %s %s\n", u.MessageID, line)
}

func describeUpdate(u stream.Update) string {
	switch u.Kind {
	case stream.UpdateOpened:
		return "opened"
	case stream.UpdateBlock:
		if u.Block == nil {
			return ""
		}
		if u.Block.IsLog {
			return "log " + u.Block.Contributor
		}
		return "content " + u.Block.Contributor
	case stream.UpdateTool:
		if u.Tool == nil {
			return ""
		}
		return fmt.Sprintf("tool %s %s (%s)", u.Tool.Status, u.Tool.Key.Name, u.Tool.Key.Contributor)
	case stream.UpdateSandbox:
		return "sandbox"
	case stream.UpdateMedia:
		if u.Media == nil {
			return ""
		}
		return "media " + u.Media.ArtifactID
	case stream.UpdateSummary:
		return ""
	case stream.UpdateDone:
		if s := u.Summary.String(); s != "" {
			return "done, " + s
		}
		return "done"
	case stream.UpdateFailed:
		return "failed"
	default:
		return ""
	}
}
