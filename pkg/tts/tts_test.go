package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/teslashibe/go-coach/pkg/protocol"
)

type fakeHub struct {
	mu      sync.Mutex
	clients int
	sent    []*protocol.Message
	err     error
}

func (h *fakeHub) BroadcastJSON(v interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.sent = append(h.sent, v.(*protocol.Message))
	return nil
}

func (h *fakeHub) ClientCount() int { return h.clients }

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Rate != 0.9 || cfg.Pitch != 0.95 || cfg.Volume != 0.8 {
		t.Errorf("DefaultConfig() voice = %v/%v/%v", cfg.Rate, cfg.Pitch, cfg.Volume)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	tests := []struct {
		name string
		opt  Option
	}{
		{"rate", WithRate(0)},
		{"pitch", WithPitch(3)},
		{"volume", WithVolume(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			c.Apply(tt.opt)
			if err := c.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestRemoteUnavailableWithoutClients(t *testing.T) {
	hub := &fakeHub{}
	r := NewRemote(hub, quiet())

	err := r.Speak(context.Background(), r.Utterance("Go lower"))
	if !IsUnavailable(err) {
		t.Fatalf("Speak() error = %v, want ErrUnavailable", err)
	}
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Engine != "remote" {
		t.Errorf("error not wrapped with engine context: %v", err)
	}
	if len(hub.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(hub.sent))
	}
}

func TestRemoteSpeakAndCancel(t *testing.T) {
	hub := &fakeHub{clients: 1}
	var notes []Notification
	r := NewRemote(hub, quiet(), WithListener(func(n Notification) { notes = append(notes, n) }))

	u := r.Utterance("Straighten your back")
	if err := r.Speak(context.Background(), u); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if !r.Speaking() {
		t.Fatal("Speaking() = false after Speak")
	}

	sd, err := hub.sent[0].GetSpeakData()
	if err != nil {
		t.Fatal(err)
	}
	if sd.Text != "Straighten your back" || sd.Rate != 0.9 || sd.Volume != 0.8 || sd.ID != u.ID {
		t.Errorf("speak payload = %+v", sd)
	}

	if err := r.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if hub.sent[1].Type != protocol.TypeCancel {
		t.Errorf("second message = %v, want cancel", hub.sent[1].Type)
	}
	if len(notes) != 1 || notes[0].State != StateCanceled || notes[0].ID != u.ID {
		t.Errorf("notifications = %+v", notes)
	}

	// Idle cancel sends nothing.
	if err := r.Cancel(); err != nil {
		t.Fatal(err)
	}
	if len(hub.sent) != 2 {
		t.Errorf("idle Cancel sent a message")
	}
}

func TestRemoteHandleMessage(t *testing.T) {
	hub := &fakeHub{clients: 2}
	var got []State
	r := NewRemote(hub, quiet(), WithListener(func(n Notification) { got = append(got, n.State) }))

	u := r.Utterance("Go lower")
	if err := r.Speak(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	for _, state := range []string{"started", "ended"} {
		msg, _ := protocol.NewUtteranceMessage(u.ID, state, "")
		if err := r.HandleMessage(msg); err != nil {
			t.Fatalf("HandleMessage(%s) error = %v", state, err)
		}
	}
	if r.Speaking() {
		t.Error("Speaking() = true after ended")
	}
	if len(got) != 2 || got[0] != StateStarted || got[1] != StateEnded {
		t.Errorf("states = %v", got)
	}

	ping, _ := protocol.NewPingMessage("x")
	if err := r.HandleMessage(ping); err != nil {
		t.Errorf("HandleMessage(ping) error = %v", err)
	}
}

func TestRemoteEmptyText(t *testing.T) {
	r := NewRemote(&fakeHub{clients: 1}, quiet())
	if err := r.Speak(context.Background(), Utterance{}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Speak(empty) error = %v", err)
	}
}

func TestChain(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrNoEngines) {
		t.Errorf("NewChain() error = %v", err)
	}

	down := Unavailable()
	up := NewMock()
	c, err := NewChain(down, up)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Available() {
		t.Fatal("chain with one available engine should be available")
	}
	if err := c.Speak(context.Background(), Utterance{Text: "hi"}); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if down.CallCount("Speak") != 0 || up.CallCount("Speak") != 1 {
		t.Errorf("speak calls: down=%d up=%d", down.CallCount("Speak"), up.CallCount("Speak"))
	}

	if err := c.Cancel(); err != nil {
		t.Fatal(err)
	}
	if down.CallCount("Cancel") != 1 || up.CallCount("Cancel") != 1 {
		t.Error("Cancel should reach every engine")
	}

	failing := NewMock()
	failing.SpeakFunc = func(context.Context, Utterance) error { return errors.New("boom") }
	c2, _ := NewChain(failing)
	var ce *ChainError
	if err := c2.Speak(context.Background(), Utterance{Text: "hi"}); !errors.As(err, &ce) {
		t.Errorf("Speak() error = %v, want ChainError", err)
	}

	c3, _ := NewChain(Unavailable())
	if err := c3.Speak(context.Background(), Utterance{Text: "hi"}); !IsUnavailable(err) {
		t.Errorf("Speak() error = %v, want unavailable", err)
	}
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock()
	_ = m.Speak(context.Background(), Utterance{Text: "a"})
	_ = m.Cancel()
	_ = m.Speak(context.Background(), Utterance{Text: "b"})

	if got := m.Spoken(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Spoken() = %v", got)
	}
	if last := m.LastCall(); last == nil || last.Text != "b" {
		t.Errorf("LastCall() = %+v", last)
	}
	m.Reset()
	if len(m.Calls()) != 0 {
		t.Error("Reset() did not clear calls")
	}
}
