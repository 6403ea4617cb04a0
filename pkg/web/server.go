// Package web serves the coaching dashboard: a REST API for session and
// drill control plus websocket feeds for feedback, metrics, status and
// speech.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-coach/internal/history"
	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/coach"
	"github.com/teslashibe/go-coach/pkg/hub"
)

// HistoryLister lists finished sessions newest first.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
}

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	session *coach.Session
	history HistoryLister
	metrics http.Handler
	static  string
	routes  []func(fiber.Router)
	access  bool

	feedbackHub *hub.Hub
	metricsHub  *hub.Hub
	statusHub   *hub.Hub
	speechHub   *hub.Hub
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /api/history.
func WithHistory(h HistoryLister) Option { return func(s *Server) { s.history = h } }

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithStaticDir serves dir at /.
func WithStaticDir(dir string) Option { return func(s *Server) { s.static = dir } }

// WithRoutes lets other packages mount routes before the static catch-all.
func WithRoutes(fn func(fiber.Router)) Option {
	return func(s *Server) { s.routes = append(s.routes, fn) }
}

// WithAccessLog logs every request.
func WithAccessLog() Option { return func(s *Server) { s.access = true } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// New creates a server listening on addr. Attach a session before Start.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:        addr,
		logger:      log.Component("web"),
		feedbackHub: hub.New("feedback"),
		metricsHub:  hub.New("metrics"),
		statusHub:   hub.New("status"),
		speechHub:   hub.New("speech"),
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "Coach Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	if s.access {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "session": s.session != nil})
	})

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/drills", s.handleListDrills)
	api.Post("/drills/:id/select", s.handleSelectDrill)
	api.Delete("/drills/active", s.handleDeselectDrill)
	api.Get("/recommendations", s.handleListStruggles)
	api.Get("/recommendations/:struggle", s.handleRecommend)
	api.Post("/session/start", s.handleStart)
	api.Post("/session/stop", s.handleStop)
	api.Get("/feedback", s.handleFeedback)
	api.Get("/history", s.handleHistory)

	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics))
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feedback", websocket.New(s.serveHub(s.feedbackHub)))
	app.Get("/ws/metrics", websocket.New(s.serveHub(s.metricsHub)))
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/speech", websocket.New(s.serveHub(s.speechHub)))

	for _, fn := range s.routes {
		fn(app)
	}
	if s.static != "" {
		app.Static("/", s.static)
	}

	s.app = app
	return s
}

// Attach sets the session the API controls.
func (s *Server) Attach(session *coach.Session) { s.session = session }

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// SpeechHub returns the hub browsers speak through.
func (s *Server) SpeechHub() *hub.Hub { return s.speechHub }

// Run starts the hubs and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	for _, h := range []*hub.Hub{s.feedbackHub, s.metricsHub, s.statusHub, s.speechHub} {
		go h.Run(ctx)
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.addr)
		errc <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("dashboard shutting down")
		return s.app.Shutdown()
	}
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}
