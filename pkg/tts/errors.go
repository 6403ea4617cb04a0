package tts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrUnavailable is returned when the engine has no audio output.
	ErrUnavailable = errors.New("tts: speech engine unavailable")

	// ErrEmptyText is returned when asked to speak nothing.
	ErrEmptyText = errors.New("tts: empty text")

	// ErrNoEngines is returned when a chain is built with no engines.
	ErrNoEngines = errors.New("tts: no engines configured")
)

// EngineError wraps an error with engine context.
type EngineError struct {
	Engine string
	Err    error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("tts [%s]: %v", e.Engine, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with engine context.
func WrapError(engine string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Engine: engine, Err: err}
}

// IsUnavailable reports whether err means the engine cannot speak right now.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
