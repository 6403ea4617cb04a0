package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-coach/internal/landmarktest"
	"github.com/teslashibe/go-coach/pkg/landmark"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "feedback message",
			msgType: TypeFeedback,
			data:    FeedbackData{Message: "Go lower!", Severity: "warning"},
		},
		{
			name:    "speak message",
			msgType: TypeSpeak,
			data:    SpeakData{ID: "u1", Text: "Go lower", Rate: 0.9},
		},
		{
			name:    "nil data",
			msgType: TypeCancel,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeStatus,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestFrameMessageToFrame(t *testing.T) {
	src := landmarktest.Squat(95)
	src.Timestamp = time.UnixMilli(1_700_000_000_000)

	msg, err := NewFrameMessage(src, 7, map[string]SegmentData{"Hips": {Rotation: [3]float64{0, 0.1, 0}}})
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	data, err := parsed.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if data.FrameID != 7 || data.Empty() {
		t.Fatalf("frame data = id %d, %d landmarks", data.FrameID, len(data.Landmarks))
	}
	if data.Solved["Hips"].Rotation[1] != 0.1 {
		t.Errorf("solved hips yaw = %v, want 0.1", data.Solved["Hips"].Rotation[1])
	}

	frame, err := data.ToFrame(0.6)
	if err != nil {
		t.Fatalf("ToFrame() error = %v", err)
	}
	if frame.Points != src.Points {
		t.Error("landmarks changed in transit")
	}
	if !frame.Timestamp.Equal(src.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", frame.Timestamp, src.Timestamp)
	}
	if frame.MinVisibility != 0.6 {
		t.Errorf("MinVisibility = %v, want 0.6", frame.MinVisibility)
	}
}

func TestToFrameRejectsShortFrames(t *testing.T) {
	data := FrameData{Landmarks: make([]LandmarkData, 17)}
	if _, err := data.ToFrame(0); !errors.Is(err, landmark.ErrLandmarkCount) {
		t.Errorf("ToFrame() error = %v, want ErrLandmarkCount", err)
	}
	if (&FrameData{}).Empty() != true {
		t.Error("frame without landmarks should be empty")
	}
}

func TestUtteranceMessage(t *testing.T) {
	msg, err := NewUtteranceMessage("u1", "ended", "")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := msg.Bytes()
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatal(err)
	}
	u, err := parsed.GetUtteranceData()
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" || u.State != "ended" {
		t.Errorf("GetUtteranceData() = %+v", u)
	}
}

func TestPingPong(t *testing.T) {
	ping, err := NewPingMessage("abc")
	if err != nil {
		t.Fatal(err)
	}
	p, err := ping.GetPingData()
	if err != nil || p.ID != "abc" || p.Timestamp == 0 {
		t.Fatalf("GetPingData() = %+v, %v", p, err)
	}

	pong, err := NewPongMessage("abc", 100, 130)
	if err != nil {
		t.Fatal(err)
	}
	var d PongData
	if err := pong.ParseData(&d); err != nil {
		t.Fatal(err)
	}
	if d.LatencyMs != 30 {
		t.Errorf("LatencyMs = %d, want 30", d.LatencyMs)
	}
}

func TestParseMessageInvalid(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("ParseMessage() should fail on invalid JSON")
	}
}
