package protocol

import (
	"time"

	"github.com/teslashibe/go-coach/pkg/landmark"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message from a landmark frame
func NewFrameMessage(f landmark.Frame, frameID uint64, solved map[string]SegmentData) (*Message, error) {
	data := FrameData{
		FrameID:   frameID,
		Landmarks: make([]LandmarkData, landmark.Count),
		Solved:    solved,
	}
	if !f.Timestamp.IsZero() {
		data.Captured = f.Timestamp.UnixMilli()
	}
	for i, p := range f.Points {
		data.Landmarks[i] = LandmarkData{X: p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
	}
	return NewMessage(TypeFrame, data)
}

// NewFeedbackMessage creates a text feedback message
func NewFeedbackMessage(message, severity string, at time.Time) (*Message, error) {
	return NewMessage(TypeFeedback, FeedbackData{
		Message:  message,
		Severity: severity,
		Time:     at.UnixMilli(),
	})
}

// NewMetricsMessage creates a metrics panel message
func NewMetricsMessage(drill string, metrics []MetricData) (*Message, error) {
	return NewMessage(TypeMetrics, MetricsData{Drill: drill, Metrics: metrics})
}

// NewDrillMessage creates a drill change message
func NewDrillMessage(d DrillData) (*Message, error) {
	return NewMessage(TypeDrill, d)
}

// NewStatusMessage creates a session status message
func NewStatusMessage(s StatusData) (*Message, error) {
	return NewMessage(TypeStatus, s)
}

// NewSpeakMessage creates a speak request
func NewSpeakMessage(id, text string, rate, pitch, volume float64) (*Message, error) {
	return NewMessage(TypeSpeak, SpeakData{
		ID:     id,
		Text:   text,
		Rate:   rate,
		Pitch:  pitch,
		Volume: volume,
	})
}

// NewCancelMessage creates a cancel-speech message
func NewCancelMessage() (*Message, error) {
	return NewMessage(TypeCancel, nil)
}

// NewUtteranceMessage creates an utterance lifecycle notification
func NewUtteranceMessage(id, state, errMsg string) (*Message, error) {
	return NewMessage(TypeUtterance, UtteranceData{ID: id, State: state, Error: errMsg})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Empty reports whether the estimator found no body in this frame.
func (f *FrameData) Empty() bool {
	return len(f.Landmarks) == 0
}

// ToFrame converts the payload into a landmark frame. A zero minVisibility
// keeps the landmark package default.
func (f *FrameData) ToFrame(minVisibility float64) (landmark.Frame, error) {
	points := make([]landmark.Landmark, len(f.Landmarks))
	for i, l := range f.Landmarks {
		points[i] = landmark.Landmark{X: l.X, Y: l.Y, Z: l.Z, Visibility: l.Visibility}
	}

	ts := time.Now()
	if f.Captured > 0 {
		ts = time.UnixMilli(f.Captured)
	}
	frame, err := landmark.NewFrame(points, ts)
	if err != nil {
		return frame, err
	}
	if minVisibility > 0 {
		frame.MinVisibility = minVisibility
	}
	return frame, nil
}

// GetFeedbackData extracts feedback data from a message
func (m *Message) GetFeedbackData() (*FeedbackData, error) {
	var data FeedbackData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSpeakData extracts speak data from a message
func (m *Message) GetSpeakData() (*SpeakData, error) {
	var data SpeakData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetUtteranceData extracts an utterance notification from a message
func (m *Message) GetUtteranceData() (*UtteranceData, error) {
	var data UtteranceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
