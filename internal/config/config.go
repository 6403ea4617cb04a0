// Package config provides configuration for go-coach commands.
//
// Values are layered: compiled defaults, then an optional YAML file, then
// COACH_* environment variables. Command-line flags are applied last by the
// command itself.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultAddr            = ":8090"
	DefaultRenderRate      = 60
	DefaultSpeechCooldown  = 2 * time.Second
	DefaultSpeechRate      = 0.9
	DefaultSpeechPitch     = 0.95
	DefaultSpeechVolume    = 0.8
	DefaultMinVisibility   = 0.5
	DefaultFeedbackHistory = 15
	DefaultHistoryDB       = "coach.db"
)

// DefaultAvatarPaths are tried in order before falling back to the primitive avatar.
var DefaultAvatarPaths = []string{"assets/present.json", "assets/coach.json"}

var (
	ErrInvalidConfig = errors.New("config: invalid")
	ErrLoadConfig    = errors.New("config: load failed")
)

// Config holds process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the dashboard listen address.
	Addr string `koanf:"addr"`

	// StaticDir is served at / when set.
	StaticDir string `koanf:"static_dir"`

	// RenderRate is the render tick frequency in Hz.
	RenderRate int `koanf:"render_rate"`

	// Speech synthesis parameters sent with every utterance.
	SpeechCooldown time.Duration `koanf:"speech_cooldown"`
	SpeechRate     float64       `koanf:"speech_rate"`
	SpeechPitch    float64       `koanf:"speech_pitch"`
	SpeechVolume   float64       `koanf:"speech_volume"`

	// MinVisibility is the landmark visibility below which a point is treated as absent.
	MinVisibility float64 `koanf:"min_visibility"`

	// FeedbackHistory caps the on-screen feedback list.
	FeedbackHistory int `koanf:"feedback_history"`

	// AvatarPaths lists rig descriptions to try in order.
	AvatarPaths []string `koanf:"avatar_paths"`

	// HistoryDB is the sqlite path for finished sessions. Empty disables history.
	HistoryDB string `koanf:"history_db"`

	// UpstreamPoseURL, when set, is a websocket pose estimator to subscribe to.
	UpstreamPoseURL string `koanf:"upstream_pose_url"`
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            DefaultAddr,
		RenderRate:      DefaultRenderRate,
		SpeechCooldown:  DefaultSpeechCooldown,
		SpeechRate:      DefaultSpeechRate,
		SpeechPitch:     DefaultSpeechPitch,
		SpeechVolume:    DefaultSpeechVolume,
		MinVisibility:   DefaultMinVisibility,
		FeedbackHistory: DefaultFeedbackHistory,
		AvatarPaths:     append([]string(nil), DefaultAvatarPaths...),
		HistoryDB:       DefaultHistoryDB,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return &Error{Field: "addr", Message: "must not be empty"}
	case c.RenderRate <= 0 || c.RenderRate > 240:
		return &Error{Field: "render_rate", Message: "must be between 1 and 240"}
	case c.SpeechCooldown < 0:
		return &Error{Field: "speech_cooldown", Message: "must not be negative"}
	case c.SpeechRate <= 0 || c.SpeechRate > 10:
		return &Error{Field: "speech_rate", Message: "must be in (0, 10]"}
	case c.SpeechPitch < 0 || c.SpeechPitch > 2:
		return &Error{Field: "speech_pitch", Message: "must be in [0, 2]"}
	case c.SpeechVolume < 0 || c.SpeechVolume > 1:
		return &Error{Field: "speech_volume", Message: "must be in [0, 1]"}
	case c.MinVisibility < 0 || c.MinVisibility > 1:
		return &Error{Field: "min_visibility", Message: "must be in [0, 1]"}
	case c.FeedbackHistory <= 0:
		return &Error{Field: "feedback_history", Message: "must be positive"}
	}
	return nil
}

// RenderInterval converts RenderRate into a ticker period.
func (c *Config) RenderInterval() time.Duration {
	if c.RenderRate <= 0 {
		return time.Second / DefaultRenderRate
	}
	return time.Second / time.Duration(c.RenderRate)
}

// Error is a validation failure for a single field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation failure with errors.Is(err, ErrInvalidConfig).
func (e *Error) Unwrap() error {
	return ErrInvalidConfig
}
