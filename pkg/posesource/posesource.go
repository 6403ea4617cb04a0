// Package posesource connects the coach to pose estimators it does not
// host: an upstream websocket feed, a recorded JSONL file, or a remote
// coach that frames are published to.
package posesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/protocol"
)

// Handler receives frame payloads.
type Handler func(*protocol.FrameData)

// Config controls a Subscriber.
type Config struct {
	// URL is the upstream websocket endpoint.
	URL string

	// ReconnectInterval is the wait between connection attempts.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts stops Run after that many consecutive failures.
	// Zero retries forever.
	MaxReconnectAttempts int

	// HandshakeTimeout bounds each dial.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns a Config for url with default timings.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		ReconnectInterval: 2 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// ErrNoURL is returned when a Subscriber or Publisher has no endpoint.
var ErrNoURL = errors.New("posesource: url is required")

// Subscriber reads frames from an upstream estimator, reconnecting when
// the connection drops.
type Subscriber struct {
	cfg    Config
	logger *slog.Logger

	frames     atomic.Uint64
	reconnects atomic.Int64
}

// NewSubscriber creates a subscriber.
func NewSubscriber(cfg Config) *Subscriber {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 2 * time.Second
	}
	return &Subscriber{cfg: cfg, logger: log.Component("posesource").With("url", cfg.URL)}
}

// Run delivers frames to h until ctx is cancelled or the retry budget is
// spent.
func (s *Subscriber) Run(ctx context.Context, h Handler) error {
	if s.cfg.URL == "" {
		return ErrNoURL
	}
	attempts := 0
	for {
		err := s.session(ctx, h, &attempts)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts++
		s.reconnects.Add(1)
		if s.cfg.MaxReconnectAttempts > 0 && attempts >= s.cfg.MaxReconnectAttempts {
			return fmt.Errorf("max reconnect attempts (%d) reached: %w", s.cfg.MaxReconnectAttempts, err)
		}
		s.logger.Warn("upstream pose feed lost, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", s.cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ReconnectInterval):
		}
	}
}

// session runs one connection. A successful dial resets attempts.
func (s *Subscriber) session(ctx context.Context, h Handler, attempts *int) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	*attempts = 0
	s.logger.Info("subscribed to upstream pose feed")

	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()
	defer ws.Close()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil || msg.Type != protocol.TypeFrame {
			continue
		}
		payload, err := msg.GetFrameData()
		if err != nil {
			s.logger.Debug("bad upstream frame", "error", err)
			continue
		}
		s.frames.Add(1)
		h(payload)
	}
}

// Stats contains subscriber counters.
type Stats struct {
	Frames     uint64 `json:"frames"`
	Reconnects int64  `json:"reconnects"`
}

// Stats returns subscriber counters.
func (s *Subscriber) Stats() Stats {
	return Stats{Frames: s.frames.Load(), Reconnects: s.reconnects.Load()}
}

// Publisher sends frames to a coach ingest endpoint.
type Publisher struct {
	mu   sync.Mutex
	ws   *websocket.Conn
	next uint64
}

// Dial connects a publisher to url, typically ws://host/ws/pose/<id>.
func Dial(ctx context.Context, url string) (*Publisher, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Publisher{ws: ws}, nil
}

// Publish sends one landmark frame.
func (p *Publisher) Publish(f landmark.Frame, solved map[string]protocol.SegmentData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	msg, err := protocol.NewFrameMessage(f, p.next, solved)
	if err != nil {
		return err
	}
	return p.write(msg)
}

// PublishData forwards a payload unchanged.
func (p *Publisher) PublishData(data *protocol.FrameData) error {
	msg, err := protocol.NewMessage(protocol.TypeFrame, data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(msg)
}

func (p *Publisher) write(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	p.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return p.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return p.ws.Close()
}
