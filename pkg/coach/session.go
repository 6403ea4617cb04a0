// Package coach ties landmark frames, avatar retargeting, drill evaluation
// and feedback into one session object.
//
// Two producers drive a Session: the pose callback (OnFrame) at the pose
// estimator's cadence and the render tick (Tick, or Run for a ticker) at the
// display rate. A single mutex serializes them so each callback's changes
// are atomic with respect to the other.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-coach/internal/history"
	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/drill"
	"github.com/teslashibe/go-coach/pkg/feedback"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/retarget"
	"github.com/teslashibe/go-coach/pkg/skeleton"
)

// Text channel messages posted by the session itself.
const (
	MsgStarted  = "Session started"
	MsgEnded    = "Session ended"
	MsgFallback = "Avatar model not found. Using fallback visualization."
)

// DefaultRenderRate is the render tick frequency in Hz.
const DefaultRenderRate = 60

// Skip reasons reported to the observer.
const (
	SkipStopped    = "stopped"
	SkipEmpty      = "empty"
	SkipIncomplete = "incomplete"
)

var (
	// ErrRunning is returned by Start on a running session.
	ErrRunning = errors.New("coach: session already running")
	// ErrNotRunning is returned by Stop on a stopped session.
	ErrNotRunning = errors.New("coach: session not running")
)

// Renderer draws the avatar after each tick.
type Renderer interface {
	Render(skeleton.Avatar)
}

// Recorder persists finished sessions.
type Recorder interface {
	Save(ctx context.Context, r history.Record) error
}

// Notifier is the UI host side of drill and status changes.
type Notifier interface {
	DrillChanged(drill.Change)
	StatusChanged(Status)
}

// Observer counts session activity.
type Observer interface {
	FrameProcessed(mode string, d time.Duration)
	FrameSkipped(reason string)
	BoneUnresolved(joint string)
	RenderTick()
	DrillChanged(id string)
	SessionRunning(bool)
	AvatarDirect(bool)
}

// Status summarizes the session for the UI host.
type Status struct {
	SessionID string     `json:"session_id"`
	Running   bool       `json:"running"`
	Mode      string     `json:"mode"`
	Avatar    string     `json:"avatar"`
	Fallback  bool       `json:"fallback"`
	Drill     string     `json:"drill,omitempty"`
	View      drill.View `json:"view"`
	Frames    uint64     `json:"frames"`
}

// Result reports what one frame did.
type Result struct {
	// Skipped is the reason the frame was dropped, empty when it was used.
	Skipped    string
	Mode       retarget.Mode
	Evaluation drill.Evaluation
	Speech     feedback.Outcome
}

// Session owns the avatar, bone cache, active drill and feedback timers.
type Session struct {
	mu sync.Mutex

	dispatcher *feedback.Dispatcher
	machine    *drill.Machine
	resolver   *skeleton.Resolver
	engine     *retarget.Engine
	avatar     skeleton.Avatar

	baseCooldown time.Duration
	rate         time.Duration

	id          string
	running     bool
	started     time.Time
	frames      uint64
	skipped     uint64
	events      map[feedback.Severity]int
	lastMetrics []feedback.Metric
	drillUsed   string

	renderer   Renderer
	recorder   Recorder
	notifier   Notifier
	observer   Observer
	catalog    *drill.Catalog
	engineOpts []retarget.Option
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRenderer sets the render hook.
func WithRenderer(r Renderer) Option { return func(s *Session) { s.renderer = r } }

// WithRecorder sets where finished sessions are saved.
func WithRecorder(r Recorder) Option { return func(s *Session) { s.recorder = r } }

// WithNotifier sets the UI host receiver.
func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option { return func(s *Session) { s.observer = o } }

// WithCatalog replaces the built-in drill catalog.
func WithCatalog(c *drill.Catalog) Option { return func(s *Session) { s.catalog = c } }

// WithEngineOptions passes options to the retargeting engine.
func WithEngineOptions(opts ...retarget.Option) Option {
	return func(s *Session) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithRenderRate sets the Run tick frequency in Hz.
func WithRenderRate(hz int) Option {
	return func(s *Session) {
		if hz > 0 {
			s.rate = time.Second / time.Duration(hz)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// New creates a stopped session with no avatar and no drill selected.
func New(d *feedback.Dispatcher, opts ...Option) *Session {
	s := &Session{
		dispatcher:   d,
		baseCooldown: d.Cooldown(),
		rate:         time.Second / DefaultRenderRate,
		events:       make(map[feedback.Severity]int),
		observer:     nopObserver{},
		now:          time.Now,
		logger:       log.Component("coach"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = drill.Builtin()
	}

	s.resolver = skeleton.NewResolver(nil,
		skeleton.WithLogger(s.logger),
		skeleton.WithMissHook(func(j skeleton.Joint) { s.observer.BoneUnresolved(string(j)) }),
	)
	s.engine = retarget.NewEngine(s.resolver, append([]retarget.Option{retarget.WithLogger(s.logger)}, s.engineOpts...)...)
	s.machine = drill.NewMachine(s.catalog)
	s.machine.OnChange(s.drillChanged)
	return s
}

// ID returns the current session id, empty before the first Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Catalog returns the selectable drills.
func (s *Session) Catalog() *drill.Catalog { return s.catalog }

// Dispatcher returns the feedback dispatcher.
func (s *Session) Dispatcher() *feedback.Dispatcher { return s.dispatcher }

// ============================================================
// Lifecycle
// ============================================================

// Start begins a new session. Frames are accepted until Stop.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.id = uuid.NewString()
	s.running = true
	s.started = s.now()
	s.frames, s.skipped = 0, 0
	s.events = make(map[feedback.Severity]int)
	s.lastMetrics = nil
	s.drillUsed = s.machine.ActiveID()

	s.logger.Info("session started", "session", s.id, "drill", s.drillUsed)
	s.dispatcher.Post(feedback.Good, MsgStarted)
	s.observer.SessionRunning(true)
	s.notifyStatus()
	return nil
}

// Stop ends the session: further frames are rejected, in-flight speech is
// cancelled and the summary is recorded. The render tick keeps running.
func (s *Session) Stop(ctx context.Context) (history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return history.Record{}, ErrNotRunning
	}
	s.running = false
	s.dispatcher.CancelSpeech()
	s.dispatcher.Post(feedback.Warning, MsgEnded)
	s.observer.SessionRunning(false)

	rec := history.Record{
		ID:       s.id,
		Drill:    s.drillUsed,
		Started:  s.started,
		Ended:    s.now(),
		Frames:   s.frames,
		Skipped:  s.skipped,
		Events:   s.events,
		Metrics:  s.lastMetrics,
		Fallback: s.avatar != nil && s.avatar.Fallback(),
	}
	s.logger.Info("session ended", "session", s.id, "frames", s.frames, "duration", rec.Duration())
	s.notifyStatus()

	if s.recorder != nil {
		if err := s.recorder.Save(ctx, rec); err != nil {
			return rec, fmt.Errorf("record session %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// Running reports whether frames are being accepted.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ============================================================
// Avatar
// ============================================================

// LoadAvatar binds the first rig that loads from paths. When none loads the
// session falls back to the primitive avatar and the error is returned for
// logging only.
func (s *Session) LoadAvatar(paths ...string) error {
	m, err := skeleton.LoadFirst(paths...)
	if err != nil {
		s.AvatarFailed(err)
		return fmt.Errorf("load avatar: %w", err)
	}
	s.SetAvatar(m)
	return nil
}

// SetAvatar binds a, clearing the bone cache.
func (s *Session) SetAvatar(a skeleton.Avatar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setAvatar(a)
}

func (s *Session) setAvatar(a skeleton.Avatar) {
	s.avatar = a
	s.engine.SetAvatar(a)
	s.observer.AvatarDirect(s.engine.Direct())
	s.logger.Info("avatar bound", "avatar", avatarName(a), "direct", s.engine.Direct())
	s.notifyStatus()
}

// AvatarFailed switches to the fallback avatar for the rest of the session
// and tells the user.
func (s *Session) AvatarFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Warn("avatar unavailable, using fallback", "error", err)
	s.setAvatar(skeleton.Fallback())
	s.dispatcher.Post(feedback.Warning, MsgFallback)
}

// Avatar returns the bound avatar, or nil.
func (s *Session) Avatar() skeleton.Avatar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avatar
}

func avatarName(a skeleton.Avatar) string {
	switch m := a.(type) {
	case nil:
		return ""
	case *skeleton.Model:
		return m.Source
	default:
		return fmt.Sprintf("%T", a)
	}
}

// ============================================================
// Drills
// ============================================================

// SelectDrill activates a drill. Unknown ids leave the session unchanged.
func (s *Session) SelectDrill(id string) (*drill.Drill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Select(id)
}

// DeselectDrill reverts to the generic golf-stance rules.
func (s *Session) DeselectDrill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Deselect()
}

// ActiveDrill returns the selected drill, or nil.
func (s *Session) ActiveDrill() *drill.Drill {
	return s.machine.Active()
}

// drillChanged runs synchronously inside Select/Deselect, with s.mu held.
func (s *Session) drillChanged(c drill.Change) {
	cooldown := s.baseCooldown
	if c.Current != nil && c.Current.Cooldown > 0 {
		cooldown = c.Current.Cooldown
	}
	s.dispatcher.SetCooldown(cooldown)
	s.dispatcher.ResetCooldown()
	s.engine.SetDrill(c.CurrentID())

	if c.CurrentID() != "" {
		s.drillUsed = c.CurrentID()
	}
	// Text only, so the first corrective utterance is not held back.
	if c.Current != nil && c.Current.Announcement != "" {
		s.dispatcher.Post(feedback.Good, c.Current.Announcement)
	}
	s.observer.DrillChanged(c.CurrentID())
	if s.notifier != nil {
		s.notifier.DrillChanged(c)
	}
}

// ============================================================
// Producers
// ============================================================

// OnFrame handles one landmark frame: the avatar is retargeted, the current
// drill evaluates the frame and the resulting feedback is dispatched.
// solved may carry an external solver's pose and may be nil.
func (s *Session) OnFrame(ctx context.Context, f landmark.Frame, solved retarget.SolvedPose) Result {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.observer.FrameSkipped(SkipStopped)
		return Result{Skipped: SkipStopped}
	}
	if f.Empty() {
		s.skipped++
		s.observer.FrameSkipped(SkipEmpty)
		return Result{Skipped: SkipEmpty}
	}
	s.frames++

	res := Result{Mode: s.engine.Apply(f, solved)}
	res.Evaluation = s.machine.Current().Evaluate(f)
	if res.Evaluation.Skipped {
		s.skipped++
		res.Skipped = SkipIncomplete
		s.observer.FrameSkipped(SkipIncomplete)
	} else {
		res.Speech = s.dispatcher.Dispatch(ctx, res.Evaluation.Cycle)
		for _, ev := range res.Evaluation.Cycle.Events {
			s.events[ev.Severity]++
		}
		s.lastMetrics = res.Evaluation.Cycle.Metrics
	}

	s.observer.FrameProcessed(res.Mode.String(), time.Since(start))
	return res
}

// Tick advances idle animation for wall-clock time now and hands the avatar
// to the renderer. It runs whether or not frames arrive.
func (s *Session) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Breathe(now)
	if s.renderer != nil && s.avatar != nil {
		s.renderer.Render(s.avatar)
	}
	s.observer.RenderTick()
}

// Run drives Tick at the render rate until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.rate)
	defer ticker.Stop()

	s.logger.Info("render loop started", "hz", float64(time.Second)/float64(s.rate))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("render loop stopped")
			return nil
		case <-ticker.C:
			s.Tick(s.now())
		}
	}
}

// ============================================================
// State
// ============================================================

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() Status {
	st := Status{
		SessionID: s.id,
		Running:   s.running,
		Mode:      s.engine.Mode().String(),
		Avatar:    avatarName(s.avatar),
		Drill:     s.machine.ActiveID(),
		View:      s.machine.View(),
		Frames:    s.frames,
	}
	if s.avatar != nil {
		st.Fallback = s.avatar.Fallback()
	}
	return st
}

func (s *Session) notifyStatus() {
	if s.notifier != nil {
		s.notifier.StatusChanged(s.status())
	}
}

// Metrics returns the last metrics panel.
func (s *Session) Metrics() []feedback.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feedback.Metric, len(s.lastMetrics))
	copy(out, s.lastMetrics)
	return out
}

type nopObserver struct{}

func (nopObserver) FrameProcessed(string, time.Duration) {}
func (nopObserver) FrameSkipped(string)                  {}
func (nopObserver) BoneUnresolved(string)                {}
func (nopObserver) RenderTick()                          {}
func (nopObserver) DrillChanged(string)                  {}
func (nopObserver) SessionRunning(bool)                  {}
func (nopObserver) AvatarDirect(bool)                    {}
