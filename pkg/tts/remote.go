package tts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-coach/pkg/protocol"
)

// Broadcaster fans messages out to connected browser clients.
type Broadcaster interface {
	BroadcastJSON(v interface{}) error
	ClientCount() int
}

// Remote speaks through browsers connected to the speech websocket. The
// browser runs the actual synthesizer and reports lifecycle changes back.
type Remote struct {
	out Broadcaster
	cfg *Config

	mu      sync.Mutex
	current string
}

// NewRemote creates an engine that broadcasts utterances on out.
func NewRemote(out Broadcaster, opts ...Option) *Remote {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Remote{
		out: out,
		cfg: cfg,
	}
}

// Utterance builds an utterance with this engine's voice.
func (r *Remote) Utterance(text string) Utterance {
	return NewUtterance(text, r.cfg)
}

// Available reports whether at least one browser is listening.
func (r *Remote) Available() bool {
	return r.out != nil && r.out.ClientCount() > 0
}

// Speak broadcasts the utterance. Zero voice parameters take the engine defaults.
func (r *Remote) Speak(ctx context.Context, u Utterance) error {
	if u.Text == "" {
		return ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.Available() {
		return WrapError("remote", ErrUnavailable)
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Rate == 0 {
		u.Rate = r.cfg.Rate
	}
	if u.Pitch == 0 {
		u.Pitch = r.cfg.Pitch
	}
	if u.Volume == 0 {
		u.Volume = r.cfg.Volume
	}

	msg, err := protocol.NewSpeakMessage(u.ID, u.Text, u.Rate, u.Pitch, u.Volume)
	if err != nil {
		return WrapError("remote", err)
	}
	if err := r.out.BroadcastJSON(msg); err != nil {
		return WrapError("remote", err)
	}

	r.mu.Lock()
	r.current = u.ID
	r.mu.Unlock()

	r.cfg.Logger.Debug("utterance sent", "id", u.ID, "text", u.Text, "clients", r.out.ClientCount())
	return nil
}

// Cancel tells browsers to stop speaking.
func (r *Remote) Cancel() error {
	r.mu.Lock()
	id := r.current
	r.current = ""
	r.mu.Unlock()

	if id == "" || r.out == nil {
		return nil
	}
	msg, err := protocol.NewCancelMessage()
	if err != nil {
		return WrapError("remote", err)
	}
	if err := r.out.BroadcastJSON(msg); err != nil {
		return WrapError("remote", err)
	}
	r.cfg.notify(Notification{ID: id, State: StateCanceled, Time: time.Now()})
	return nil
}

// Speaking reports whether an utterance is in flight.
func (r *Remote) Speaking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != ""
}

// Notify records a lifecycle change reported by a browser.
func (r *Remote) Notify(n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	r.mu.Lock()
	if n.ID == r.current && (n.State == StateEnded || n.State == StateFailed) {
		r.current = ""
	}
	r.mu.Unlock()

	if n.State == StateFailed {
		r.cfg.Logger.Warn("utterance failed", "id", n.ID, "error", n.Error)
	}
	r.cfg.notify(n)
}

// HandleMessage consumes an inbound websocket message from a browser.
// Messages other than utterance notifications are ignored.
func (r *Remote) HandleMessage(msg *protocol.Message) error {
	if msg.Type != protocol.TypeUtterance {
		return nil
	}
	data, err := msg.GetUtteranceData()
	if err != nil {
		return WrapError("remote", err)
	}
	r.Notify(Notification{ID: data.ID, State: State(data.State), Error: data.Error})
	return nil
}

// Verify Remote implements Engine at compile time.
var _ Engine = (*Remote)(nil)
