// coach: real-time movement coaching server.
// Accepts landmark frames from pose estimators, retargets them onto an
// avatar and coaches the active drill over text and speech.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-coach/internal/config"
	"github.com/teslashibe/go-coach/internal/history"
	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/internal/telemetry"
	"github.com/teslashibe/go-coach/pkg/coach"
	"github.com/teslashibe/go-coach/pkg/feedback"
	"github.com/teslashibe/go-coach/pkg/ingest"
	"github.com/teslashibe/go-coach/pkg/posesource"
	"github.com/teslashibe/go-coach/pkg/protocol"
	"github.com/teslashibe/go-coach/pkg/tts"
	"github.com/teslashibe/go-coach/pkg/web"
)

var version = "0.1.0"

var (
	configPath = flag.String("config", "", "YAML config file (default $COACH_CONFIG)")
	addr       = flag.String("addr", "", "dashboard listen address")
	staticDir  = flag.String("static", "", "directory served at /")
	logLevel   = flag.String("log-level", "", "debug, info, warn, error")
	historyDB  = flag.String("history", "", "sqlite session history path, \"off\" disables")
	upstream   = flag.String("upstream", "", "upstream pose estimator websocket URL")
	drillID    = flag.String("drill", "", "drill to select at startup")
	autoStart  = flag.Bool("start", false, "start a session immediately")
	accessLog  = flag.Bool("access-log", false, "log every HTTP request")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(context.Background(), *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)
	logger := log.Component("main")
	logger.Info("coach starting", "version", version, "addr", cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("coach stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("coach stopped")
}

func applyFlags(cfg *config.Config) {
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *staticDir != "" {
		cfg.StaticDir = *staticDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *historyDB != "" {
		cfg.HistoryDB = *historyDB
		if strings.EqualFold(*historyDB, "off") {
			cfg.HistoryDB = ""
		}
	}
	if *upstream != "" {
		cfg.UpstreamPoseURL = *upstream
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.Component("main")
	metrics := telemetry.New(telemetry.WithRuntimeCollectors())

	var store *history.Store
	if cfg.HistoryDB != "" {
		s, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer s.Close()
		store = s
	}

	// Pose ingest shares the dashboard listener. Its sink is attached once
	// the session exists.
	pose := ingest.New(nil,
		ingest.WithMinVisibility(cfg.MinVisibility),
		ingest.WithContext(ctx),
	)

	webOpts := []web.Option{
		web.WithMetricsHandler(metrics.Handler()),
		web.WithRoutes(func(r fiber.Router) {
			pose.RegisterRoutes(r)
			pose.RegisterAPIRoutes(r.Group("/api"))
		}),
	}
	if store != nil {
		webOpts = append(webOpts, web.WithHistory(store))
	}
	if cfg.StaticDir != "" {
		webOpts = append(webOpts, web.WithStaticDir(cfg.StaticDir))
	}
	if *accessLog {
		webOpts = append(webOpts, web.WithAccessLog())
	}
	srv := web.New(cfg.Addr, webOpts...)

	voice := []tts.Option{
		tts.WithRate(cfg.SpeechRate),
		tts.WithPitch(cfg.SpeechPitch),
		tts.WithVolume(cfg.SpeechVolume),
	}
	remote := tts.NewRemote(srv.SpeechHub(), voice...)
	srv.SpeechHub().OnMessage(func(data []byte) {
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			return
		}
		if err := remote.HandleMessage(msg); err != nil {
			logger.Debug("bad utterance notification", "error", err)
		}
	})
	engine, err := tts.NewChain(remote, tts.NewLog(voice...))
	if err != nil {
		return err
	}

	d := feedback.NewDispatcher(engine,
		feedback.WithSink(srv),
		feedback.WithObserver(metrics),
		feedback.WithCooldown(cfg.SpeechCooldown),
		feedback.WithHistoryLimit(cfg.FeedbackHistory),
	)

	opts := []coach.Option{
		coach.WithNotifier(srv),
		coach.WithObserver(metrics),
		coach.WithRenderRate(cfg.RenderRate),
	}
	if store != nil {
		opts = append(opts, coach.WithRecorder(store))
	}
	session := coach.New(d, opts...)
	srv.Attach(session)
	pose.Attach(session)

	if err := session.LoadAvatar(cfg.AvatarPaths...); err != nil {
		logger.Warn("using fallback avatar", "error", err)
	}
	if *drillID != "" {
		if _, err := session.SelectDrill(*drillID); err != nil {
			return err
		}
	}
	if *autoStart {
		if err := session.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return session.Run(gctx) })
	if cfg.UpstreamPoseURL != "" {
		sub := posesource.NewSubscriber(posesource.DefaultConfig(cfg.UpstreamPoseURL))
		g.Go(func() error {
			err := sub.Run(gctx, func(f *protocol.FrameData) { pose.Deliver(f) })
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	if session.Running() {
		if _, stopErr := session.Stop(context.Background()); stopErr != nil {
			logger.Warn("final session not recorded", "error", stopErr)
		}
	}
	return err
}
