// Package ingest accepts landmark frames from pose estimators over
// websockets and feeds them to a coaching session.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/coach"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/protocol"
	"github.com/teslashibe/go-coach/pkg/retarget"
)

// FrameSink consumes decoded frames. *coach.Session implements it.
type FrameSink interface {
	OnFrame(ctx context.Context, f landmark.Frame, solved retarget.SolvedPose) coach.Result
}

// Source is a connected pose estimator.
type Source struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	mu       sync.Mutex
	lastSeen time.Time
	frames   uint64
}

// Send writes a message to the source.
func (s *Source) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Source) seen(frame bool) {
	s.mu.Lock()
	s.lastSeen = time.Now()
	if frame {
		s.frames++
	}
	s.mu.Unlock()
}

// Server manages pose source connections.
type Server struct {
	sink          FrameSink
	minVisibility float64
	ctx           context.Context
	logger        *slog.Logger

	mu      sync.RWMutex
	sources map[string]*Source

	messages atomic.Uint64
	frames   atomic.Uint64
	skipped  atomic.Uint64
	invalid  atomic.Uint64
}

// Option configures a Server.
type Option func(*Server)

// WithMinVisibility overrides the landmark visibility threshold applied
// to decoded frames.
func WithMinVisibility(v float64) Option {
	return func(s *Server) { s.minVisibility = v }
}

// WithContext sets the context passed to the sink.
func WithContext(ctx context.Context) Option {
	return func(s *Server) { s.ctx = ctx }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server delivering frames to sink. sink may be nil and
// attached later, before the server accepts connections.
func New(sink FrameSink, opts ...Option) *Server {
	s := &Server{
		sink:    sink,
		ctx:     context.Background(),
		logger:  log.Component("ingest"),
		sources: make(map[string]*Source),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach sets the frame sink.
func (s *Server) Attach(sink FrameSink) { s.sink = sink }

// RegisterRoutes mounts /ws/pose and /ws/pose/:id on r.
func (s *Server) RegisterRoutes(r fiber.Router) {
	r.Use("/ws/pose", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws/pose", websocket.New(s.handleSource))
	r.Get("/ws/pose/:id", websocket.New(s.handleSource))
}

func (s *Server) handleSource(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = "source-" + time.Now().Format("20060102150405.000")
	}
	now := time.Now()
	src := &Source{ID: id, Conn: c, Connected: now, lastSeen: now}

	s.mu.Lock()
	s.sources[id] = src
	count := len(s.sources)
	s.mu.Unlock()
	s.logger.Info("pose source connected", "source", id, "sources", count)

	defer func() {
		s.mu.Lock()
		if s.sources[id] == src {
			delete(s.sources, id)
		}
		count := len(s.sources)
		s.mu.Unlock()
		s.logger.Info("pose source disconnected", "source", id, "sources", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			s.logger.Debug("pose source read ended", "source", id, "error", err)
			return
		}
		s.messages.Add(1)
		s.handleMessage(src, data)
	}
}

func (s *Server) handleMessage(src *Source, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.invalid.Add(1)
		s.logger.Warn("unparseable message", "source", src.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeFrame:
		src.seen(true)
		payload, err := msg.GetFrameData()
		if err != nil {
			s.invalid.Add(1)
			s.logger.Warn("bad frame payload", "source", src.ID, "error", err)
			return
		}
		s.Deliver(payload)

	case protocol.TypePing:
		src.seen(false)
		ping, _ := msg.GetPingData()
		id, ts := "", msg.Timestamp
		if ping != nil {
			id = ping.ID
			if ping.Timestamp > 0 {
				ts = ping.Timestamp
			}
		}
		pong, err := protocol.NewPongMessage(id, ts, time.Now().UnixMilli())
		if err == nil {
			if err := src.Send(pong); err != nil {
				s.logger.Debug("pong failed", "source", src.ID, "error", err)
			}
		}

	default:
		src.seen(false)
		s.logger.Debug("ignoring message", "source", src.ID, "type", msg.Type)
	}
}

// Deliver decodes one frame payload and hands it to the sink. Other pose
// transports share it with the websocket endpoint.
func (s *Server) Deliver(payload *protocol.FrameData) coach.Result {
	f, solved, err := Decode(payload, s.minVisibility)
	if err != nil {
		s.invalid.Add(1)
		s.logger.Warn("frame rejected", "error", err)
		return coach.Result{Skipped: coach.SkipEmpty}
	}
	if s.sink == nil {
		s.skipped.Add(1)
		return coach.Result{Skipped: coach.SkipStopped}
	}
	s.frames.Add(1)
	res := s.sink.OnFrame(s.ctx, f, solved)
	if res.Skipped != "" {
		s.skipped.Add(1)
	}
	return res
}

// SourceCount returns the number of connected sources.
func (s *Server) SourceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// SourceInfo describes a connected source.
type SourceInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Frames    uint64    `json:"frames"`
}

// Sources lists connected sources.
func (s *Server) Sources() []SourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]SourceInfo, 0, len(s.sources))
	for _, src := range s.sources {
		src.mu.Lock()
		infos = append(infos, SourceInfo{
			ID:        src.ID,
			Connected: src.Connected,
			LastSeen:  src.lastSeen,
			Frames:    src.frames,
		})
		src.mu.Unlock()
	}
	return infos
}

// Stats contains ingest counters.
type Stats struct {
	Sources  int    `json:"sources"`
	Messages uint64 `json:"messages"`
	Frames   uint64 `json:"frames"`
	Skipped  uint64 `json:"skipped"`
	Invalid  uint64 `json:"invalid"`
}

// Stats returns ingest counters.
func (s *Server) Stats() Stats {
	return Stats{
		Sources:  s.SourceCount(),
		Messages: s.messages.Load(),
		Frames:   s.frames.Load(),
		Skipped:  s.skipped.Load(),
		Invalid:  s.invalid.Load(),
	}
}

// RegisterAPIRoutes mounts source listing under api/sources.
func (s *Server) RegisterAPIRoutes(api fiber.Router) {
	g := api.Group("/sources")
	g.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": s.Sources(),
			"count":   s.SourceCount(),
		})
	})
	g.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(s.Stats())
	})
}
