package tts

import (
	"fmt"
	"log/slog"
)

// Config holds voice and engine configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Voice parameters, in Web Speech API units.
	Rate   float64
	Pitch  float64
	Volume float64

	// Listener receives utterance lifecycle notifications.
	Listener Listener

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring engines.
type Option func(*Config)

// WithRate sets the speaking rate (1 is normal).
func WithRate(rate float64) Option {
	return func(c *Config) {
		c.Rate = rate
	}
}

// WithPitch sets the voice pitch (1 is normal).
func WithPitch(pitch float64) Option {
	return func(c *Config) {
		c.Pitch = pitch
	}
}

// WithVolume sets the volume in [0, 1].
func WithVolume(volume float64) Option {
	return func(c *Config) {
		c.Volume = volume
	}
}

// WithListener sets the lifecycle listener.
func WithListener(l Listener) Option {
	return func(c *Config) {
		c.Listener = l
	}
}

// WithLogger sets the structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns a slightly slow, calm coaching voice.
func DefaultConfig() *Config {
	return &Config{
		Rate:   0.9,
		Pitch:  0.95,
		Volume: 0.8,
		Logger: slog.Default(),
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks voice parameters are within Web Speech API bounds.
func (c *Config) Validate() error {
	if c.Rate <= 0 || c.Rate > 10 {
		return fmt.Errorf("tts: rate %v out of range (0, 10]", c.Rate)
	}
	if c.Pitch < 0 || c.Pitch > 2 {
		return fmt.Errorf("tts: pitch %v out of range [0, 2]", c.Pitch)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("tts: volume %v out of range [0, 1]", c.Volume)
	}
	return nil
}

func (c *Config) notify(n Notification) {
	if c.Listener != nil {
		c.Listener(n)
	}
}
