package posesource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/teslashibe/go-coach/pkg/protocol"
)

// maxLine bounds one recorded frame. 33 landmarks plus a full solve fit
// comfortably.
const maxLine = 1 << 20

// Replay reads recorded frame messages, one JSON message per line, and
// hands each to h. Consecutive frames are spaced by their captured
// timestamps divided by speed; frames without timestamps use interval.
// Blank lines and non-frame messages are skipped.
func Replay(ctx context.Context, r io.Reader, speed float64, interval time.Duration, h Handler) (int, error) {
	if speed <= 0 {
		speed = 1
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		n    int
		line int
		prev int64
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		msg, err := protocol.ParseMessage([]byte(text))
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if msg.Type != protocol.TypeFrame {
			continue
		}
		payload, err := msg.GetFrameData()
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}

		if n > 0 {
			wait := interval
			if payload.Captured > 0 && prev > 0 && payload.Captured >= prev {
				wait = time.Duration(payload.Captured-prev) * time.Millisecond
			}
			wait = time.Duration(float64(wait) / speed)
			if wait > 0 {
				select {
				case <-ctx.Done():
					return n, ctx.Err()
				case <-time.After(wait):
				}
			}
		}
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		prev = payload.Captured
		h(payload)
		n++
	}
	return n, sc.Err()
}
