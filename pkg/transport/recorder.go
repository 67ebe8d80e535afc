package transport

import (
	"context"
	"encoding/json"
	"sync"
)

// Recorder is an in-memory transport that keeps every outbound envelope
type Recorder struct {
	mu       sync.Mutex
	sent     []Envelope
	failNext error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records the envelope, or returns the error queued by FailNext
func (r *Recorder) Send(_ context.Context, event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.sent = append(r.sent, env)
	return nil
}

// FailNext makes the next Send return err
func (r *Recorder) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

// Sent returns every recorded envelope
func (r *Recorder) Sent() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last decodes the data of the most recent envelope named event into v
func (r *Recorder) Last(event string, v any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].Event == event {
			return json.Unmarshal(r.sent[i].Data, v) == nil
		}
	}
	return false
}
