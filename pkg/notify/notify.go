// Package notify holds user-visible notices.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Level is the severity of a notice
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a wire level name to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch s {
	case "success":
		return LevelSuccess
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Notice is one message shown to the user
type Notice struct {
	ID         string
	Message    string
	Level      Level
	Persistent bool
	Duration   time.Duration
	CreatedAt  time.Time
}

// Expired reports whether a transient notice has outlived its duration
func (n Notice) Expired(now time.Time) bool {
	return !n.Persistent && now.Sub(n.CreatedAt) >= n.Duration
}

// Center tracks active notices
type Center struct {
	mu       sync.Mutex
	next     int
	notices  []Notice
	duration time.Duration
	now      func() time.Time
}

// NewCenter creates a notice center whose transient notices last duration
func NewCenter(duration time.Duration) *Center {
	if duration <= 0 {
		duration = 4 * time.Second
	}
	return &Center{duration: duration, now: time.Now}
}

// SetClock replaces the time source
func (c *Center) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Show adds a notice and returns its id. A zero duration uses the default.
func (c *Center) Show(message string, level Level, persistent bool, duration time.Duration) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	if duration <= 0 {
		duration = c.duration
	}
	n := Notice{
		ID:         fmt.Sprintf("notice-%d", c.next),
		Message:    message,
		Level:      level,
		Persistent: persistent,
		Duration:   duration,
		CreatedAt:  c.now(),
	}
	c.notices = append(c.notices, n)
	return n.ID
}

// Info shows a transient info notice
func (c *Center) Info(message string) string {
	return c.Show(message, LevelInfo, false, 0)
}

// Success shows a transient success notice
func (c *Center) Success(message string) string {
	return c.Show(message, LevelSuccess, false, 0)
}

// Warn shows a transient warning notice
func (c *Center) Warn(message string) string {
	return c.Show(message, LevelWarning, false, 0)
}

// Error shows a transient error notice
func (c *Center) Error(message string) string {
	return c.Show(message, LevelError, false, 0)
}

// Dismiss removes a notice. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}

// Active prunes expired notices and returns the rest, oldest first
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.notices[:0]
	for _, n := range c.notices {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	c.notices = kept

	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}

// Latest returns the newest active notice
func (c *Center) Latest() (Notice, bool) {
	active := c.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}
