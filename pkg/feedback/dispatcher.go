// Package feedback routes coaching feedback to the on-screen text list and
// to the speech engine.
//
// The text channel accepts every event and keeps a short most-recent-first
// history. The speech channel is rate limited by a cooldown: a request that
// arrives too soon is dropped, and one that passes replaces whatever is
// still being spoken.
package feedback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/tts"
)

// Defaults for the two channels.
const (
	DefaultHistory  = 15
	DefaultCooldown = 2 * time.Second
)

// Severity grades a text event.
type Severity string

const (
	Good    Severity = "good"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Event is one text feedback entry.
type Event struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}

// Metric is one formatted metrics panel entry.
type Metric struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Value  string   `json:"value"`
	Raw    float64  `json:"raw"`
	Known  bool     `json:"known"`
	Status Severity `json:"status,omitempty"`
}

// Cycle is everything one evaluated frame wants to say.
type Cycle struct {
	Drill   string
	Events  []Event
	Speech  string
	Metrics []Metric
}

// Outcome is what happened to a speech request.
type Outcome int

const (
	Ignored Outcome = iota
	Spoken
	Rejected
	Unavailable
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Spoken:
		return "spoken"
	case Rejected:
		return "cooldown"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	default:
		return "ignored"
	}
}

// Sink is the UI host side of the text channel and metrics panel.
type Sink interface {
	PublishEvent(Event)
	PublishMetrics(drill string, metrics []Metric)
}

// Observer counts dispatcher activity.
type Observer interface {
	EventPosted(Severity)
	SpeechOutcome(Outcome)
}

// Dispatcher owns both feedback channels.
type Dispatcher struct {
	mu         sync.Mutex
	engine     tts.Engine
	voice      *tts.Config
	sink       Sink
	observer   Observer
	history    []Event
	limit      int
	cooldown   time.Duration
	lastSpoken time.Time
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSink sets the UI host receiver.
func WithSink(s Sink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithHistoryLimit caps the text history.
func WithHistoryLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// WithCooldown sets the initial speech cooldown.
func WithCooldown(c time.Duration) Option {
	return func(d *Dispatcher) { d.cooldown = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithVoice sets the voice parameters for every utterance.
func WithVoice(cfg *tts.Config) Option {
	return func(d *Dispatcher) { d.voice = cfg }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher speaking through engine, which may be
// nil when no audio output exists.
func NewDispatcher(engine tts.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		voice:    tts.DefaultConfig(),
		limit:    DefaultHistory,
		cooldown: DefaultCooldown,
		now:      time.Now,
		logger:   log.Component("feedback"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Post appends a text event. The text channel has no cooldown.
func (d *Dispatcher) Post(sev Severity, message string) Event {
	ev := Event{Message: message, Severity: sev, Time: d.now()}

	d.mu.Lock()
	d.history = append([]Event{ev}, d.history...)
	if len(d.history) > d.limit {
		d.history = d.history[:d.limit]
	}
	d.mu.Unlock()

	if d.sink != nil {
		d.sink.PublishEvent(ev)
	}
	if d.observer != nil {
		d.observer.EventPosted(sev)
	}
	return ev
}

// History returns the text events, most recent first.
func (d *Dispatcher) History() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.history))
	copy(out, d.history)
	return out
}

// Speak requests an utterance. Requests inside the cooldown are dropped
// without touching the current utterance; accepted requests cancel it first.
func (d *Dispatcher) Speak(ctx context.Context, text string) Outcome {
	out := d.speak(ctx, text)
	if d.observer != nil && out != Ignored {
		d.observer.SpeechOutcome(out)
	}
	return out
}

func (d *Dispatcher) speak(ctx context.Context, text string) Outcome {
	if text == "" {
		return Ignored
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.lastSpoken.IsZero() && now.Sub(d.lastSpoken) < d.cooldown {
		return Rejected
	}
	if d.engine == nil || !d.engine.Available() {
		return Unavailable
	}

	if err := d.engine.Cancel(); err != nil {
		d.logger.Debug("cancel before speak failed", "error", err)
	}
	if err := d.engine.Speak(ctx, tts.NewUtterance(text, d.voice)); err != nil {
		if tts.IsUnavailable(err) {
			return Unavailable
		}
		d.logger.Warn("speech failed", "text", text, "error", err)
		return Failed
	}
	d.lastSpoken = now
	return Spoken
}

// ResetCooldown lets the next speech request through immediately.
func (d *Dispatcher) ResetCooldown() {
	d.mu.Lock()
	d.lastSpoken = time.Time{}
	d.mu.Unlock()
}

// SetCooldown changes the speech cooldown, e.g. when the drill changes.
func (d *Dispatcher) SetCooldown(c time.Duration) {
	d.mu.Lock()
	d.cooldown = c
	d.mu.Unlock()
}

// Cooldown returns the current speech cooldown.
func (d *Dispatcher) Cooldown() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cooldown
}

// CancelSpeech stops any in-flight utterance.
func (d *Dispatcher) CancelSpeech() {
	if d.engine == nil {
		return
	}
	if err := d.engine.Cancel(); err != nil {
		d.logger.Debug("cancel failed", "error", err)
	}
}

// Dispatch emits one evaluated cycle: text events, at most one utterance,
// then the metrics panel.
func (d *Dispatcher) Dispatch(ctx context.Context, c Cycle) Outcome {
	for _, ev := range c.Events {
		d.Post(ev.Severity, ev.Message)
	}
	out := d.Speak(ctx, c.Speech)
	if d.sink != nil && len(c.Metrics) > 0 {
		d.sink.PublishMetrics(c.Drill, c.Metrics)
	}
	return out
}
