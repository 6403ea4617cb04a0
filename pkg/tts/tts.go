// Package tts defines the speech engine contract used for spoken coaching
// cues, plus engines that forward utterances to connected browsers, log
// them, or record them for tests.
//
// Engines are fire-and-forget: Speak hands an utterance off and returns.
// Lifecycle notifications (started, ended, failed) arrive later through a
// Listener and never block the caller.
//
// Example usage:
//
//	engine := tts.NewRemote(speechHub, tts.WithRate(0.9))
//	if err := engine.Speak(ctx, engine.Utterance("Go lower")); err != nil {
//	    // tts.ErrUnavailable when no browser is listening
//	}
package tts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine speaks one utterance at a time.
type Engine interface {
	// Speak starts an utterance. It returns ErrUnavailable when there is no
	// audio output to speak through.
	Speak(ctx context.Context, u Utterance) error

	// Cancel stops any in-flight utterance. It is a no-op when idle.
	Cancel() error

	// Available reports whether Speak can currently produce audio.
	Available() bool
}

// Utterance is a phrase plus its voice parameters.
type Utterance struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// NewUtterance builds an utterance with a fresh id and cfg's voice.
func NewUtterance(text string, cfg *Config) Utterance {
	return Utterance{
		ID:     uuid.NewString(),
		Text:   text,
		Rate:   cfg.Rate,
		Pitch:  cfg.Pitch,
		Volume: cfg.Volume,
	}
}

// State is an utterance lifecycle stage.
type State string

const (
	StateStarted  State = "started"
	StateEnded    State = "ended"
	StateFailed   State = "failed"
	StateCanceled State = "canceled"
)

// Notification reports an utterance lifecycle change.
type Notification struct {
	ID    string    `json:"id"`
	State State     `json:"state"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}

// Listener receives notifications. It must not block.
type Listener func(Notification)
