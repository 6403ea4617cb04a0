// Package protocol defines the WebSocket message types exchanged between
// pose sources, the coach server and browser dashboards.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Pose source → coach
	TypeFrame MessageType = "frame" // Landmark frame, optionally with a solved pose

	// Coach → dashboard
	TypeFeedback MessageType = "feedback" // Text feedback event
	TypeMetrics  MessageType = "metrics"  // Metrics panel snapshot
	TypeDrill    MessageType = "drill"    // Drill selection changed
	TypeStatus   MessageType = "status"   // Session status
	TypeSpeak    MessageType = "speak"    // Speak an utterance
	TypeCancel   MessageType = "cancel"   // Cancel speech

	// Dashboard → coach
	TypeUtterance MessageType = "utterance" // Utterance lifecycle notification

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Pose Source → Coach
// =============================================================================

// LandmarkData is one normalized landmark.
type LandmarkData struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// SegmentData is one solved body segment. Rotation is XYZ Euler radians.
type SegmentData struct {
	Rotation [3]float64  `json:"rotation"`
	Position *[3]float64 `json:"position,omitempty"`
}

// FrameData carries one pose-estimator output. An empty Landmarks slice
// means detection failed for this frame.
type FrameData struct {
	FrameID   uint64                 `json:"frame_id,omitempty"`
	Captured  int64                  `json:"captured,omitempty"` // Unix milliseconds
	Landmarks []LandmarkData         `json:"landmarks"`
	Solved    map[string]SegmentData `json:"solved,omitempty"`
}

// =============================================================================
// Coach → Dashboard
// =============================================================================

// FeedbackData is a text feedback event.
type FeedbackData struct {
	Message  string `json:"message"`
	Severity string `json:"severity"` // "good", "warning", "error"
	Time     int64  `json:"time"`     // Unix milliseconds
}

// MetricData is one metrics panel entry.
type MetricData struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Value  string  `json:"value"`
	Raw    float64 `json:"raw,omitempty"`
	Known  bool    `json:"known"`
	Status string  `json:"status,omitempty"`
}

// MetricsData is the metrics panel for one frame.
type MetricsData struct {
	Drill   string       `json:"drill,omitempty"`
	Metrics []MetricData `json:"metrics"`
}

// DrillData describes the active drill.
type DrillData struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	View   string `json:"view"` // "front", "side"
	Active bool   `json:"active"`
}

// StatusData summarizes the session.
type StatusData struct {
	SessionID string `json:"session_id"`
	Running   bool   `json:"running"`
	Mode      string `json:"mode"`
	Avatar    string `json:"avatar"`
	Fallback  bool   `json:"fallback"`
	Drill     string `json:"drill,omitempty"`
	View      string `json:"view,omitempty"`
	Frames    uint64 `json:"frames"`
}

// SpeakData asks a browser to speak.
type SpeakData struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// =============================================================================
// Dashboard → Coach
// =============================================================================

// UtteranceData reports what happened to an utterance.
type UtteranceData struct {
	ID    string `json:"id"`
	State string `json:"state"` // "started", "ended", "failed", "canceled"
	Error string `json:"error,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
