package tts

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain implements Engine by speaking through the first available engine.
type Chain struct {
	engines []Engine
	logger  *slog.Logger
}

// NewChain creates an engine chain tried in order.
// At least one engine is required.
func NewChain(engines ...Engine) (*Chain, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngines
	}

	return &Chain{
		engines: engines,
		logger:  slog.Default().With("component", "tts.chain"),
	}, nil
}

// Speak tries each available engine until one accepts the utterance.
func (c *Chain) Speak(ctx context.Context, u Utterance) error {
	var errs []error

	for i, e := range c.engines {
		if !e.Available() {
			continue
		}
		err := e.Speak(ctx, u)
		if err == nil {
			if i > 0 {
				c.logger.Debug("fallback engine spoke", "engine_index", i, "chars", len(u.Text))
			}
			return nil
		}

		errs = append(errs, err)
		c.logger.Warn("engine failed, trying next", "engine_index", i, "error", err)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if len(errs) == 0 {
		return WrapError("chain", ErrUnavailable)
	}
	return &ChainError{Errors: errs}
}

// Cancel cancels every engine and returns the first error.
func (c *Chain) Cancel() error {
	var first error
	for _, e := range c.engines {
		if err := e.Cancel(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Available reports whether any engine can speak.
func (c *Chain) Available() bool {
	for _, e := range c.engines {
		if e.Available() {
			return true
		}
	}
	return false
}

// ChainError aggregates errors from all engines in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "tts chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("tts chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("tts chain: all %d engines failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// Log is an always-available engine that writes utterances to a logger.
// It stands in for audio output on headless hosts.
type Log struct {
	cfg *Config
}

// NewLog creates a logging engine.
func NewLog(opts ...Option) *Log {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Log{cfg: cfg}
}

// Speak logs the utterance.
func (l *Log) Speak(ctx context.Context, u Utterance) error {
	if u.Text == "" {
		return ErrEmptyText
	}
	l.cfg.Logger.Info("speak", "text", u.Text, "id", u.ID)
	return nil
}

// Cancel is a no-op.
func (l *Log) Cancel() error { return nil }

// Available always reports true.
func (l *Log) Available() bool { return true }

// Verify engines implement Engine at compile time.
var (
	_ Engine = (*Chain)(nil)
	_ Engine = (*Log)(nil)
)
