// pose-replay: feeds landmark frames to a coach server.
// Replays a JSONL recording of frame messages, or generates a synthetic
// squat cycle when no recording is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-coach/internal/landmarktest"
	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/posesource"
	"github.com/teslashibe/go-coach/pkg/protocol"
)

var (
	target   = flag.String("url", "ws://localhost:8090/ws/pose/replay", "coach pose endpoint")
	input    = flag.String("file", "", "JSONL recording of frame messages")
	speed    = flag.Float64("speed", 1, "playback speed multiplier")
	fps      = flag.Int("fps", 30, "frame rate for synthetic frames and untimed recordings")
	duration = flag.Duration("duration", 30*time.Second, "synthetic squat run time")
	period   = flag.Duration("period", 4*time.Second, "synthetic squat cycle length")
	logLevel = flag.String("log-level", "info", "debug, info, warn, error")
)

func main() {
	flag.Parse()
	log.Init(*logLevel)
	logger := log.Component("pose-replay")

	if *fps <= 0 {
		fmt.Fprintln(os.Stderr, "fps must be positive")
		os.Exit(2)
	}
	interval := time.Second / time.Duration(*fps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub, err := posesource.Dial(ctx, *target)
	if err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer pub.Close()
	logger.Info("connected", "url", *target)

	var sent int
	if *input != "" {
		sent, err = replayFile(ctx, pub, *input, interval)
	} else {
		sent, err = synthetic(ctx, pub, interval)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("replay failed", "sent", sent, "error", err)
		os.Exit(1)
	}
	logger.Info("replay finished", "sent", sent)
}

func replayFile(ctx context.Context, pub *posesource.Publisher, path string, interval time.Duration) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var sendErr error
	n, err := posesource.Replay(ctx, f, *speed, interval, func(data *protocol.FrameData) {
		if sendErr == nil {
			sendErr = pub.PublishData(data)
		}
	})
	if err == nil {
		err = sendErr
	}
	return n, err
}

// synthetic sweeps the knee angle between standing and parallel.
func synthetic(ctx context.Context, pub *posesource.Publisher, interval time.Duration) (int, error) {
	ticker := time.NewTicker(time.Duration(float64(interval) / *speed))
	defer ticker.Stop()

	start := time.Now()
	sent := 0
	for {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed >= *duration {
				return sent, nil
			}
			phase := 2 * math.Pi * float64(elapsed) / float64(*period)
			knee := 130 + 45*math.Cos(phase)
			frame := landmarktest.Squat(knee)
			frame.Timestamp = now
			if err := pub.Publish(frame, nil); err != nil {
				return sent, err
			}
			sent++
		}
	}
}
