// Package retarget drives an avatar's bones from landmark frames.
//
// Each frame picks one of three paths: a drill override registered for the
// active drill, bone-driven retargeting when the avatar has a recognizable
// skeleton, or direct-mesh mode that orients the whole avatar root. All
// motion is smoothed, and rotations are interpolated along the shortest arc.
package retarget

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/skeleton"
)

// Breathing amplitude as a fraction of the base Y scale.
const BreathAmplitude = 0.02

// HipDrift scales how far the root follows the hip's horizontal offset.
const HipDrift = 0.3

// Mode is the path the last frame took.
type Mode int

const (
	ModeIdle Mode = iota
	ModeBones
	ModeDirect
	ModeOverride
)

func (m Mode) String() string {
	switch m {
	case ModeBones:
		return "bones"
	case ModeDirect:
		return "direct"
	case ModeOverride:
		return "override"
	default:
		return "idle"
	}
}

// Target is what an override may drive.
type Target struct {
	Root     skeleton.Node
	Resolver *skeleton.Resolver
	Factors  Factors
}

// Override replaces the general retargeting path for one drill.
type Override interface {
	Apply(t Target, f landmark.Frame)
}

// Engine maps frames onto the current avatar. It is not safe for concurrent
// use; the owning session serializes frames and render ticks.
type Engine struct {
	resolver  *skeleton.Resolver
	solver    Solver
	factors   Factors
	overrides map[string]Override
	logger    *slog.Logger

	drill     string
	direct    bool
	baseScale r3.Vec
	mode      Mode
}

// Option configures an Engine.
type Option func(*Engine)

// WithSolver replaces the built-in landmark solver.
func WithSolver(s Solver) Option {
	return func(e *Engine) { e.solver = s }
}

// WithFactors overrides the smoothing weights.
func WithFactors(f Factors) Option {
	return func(e *Engine) { e.factors = f }
}

// WithOverride registers a drill-specific strategy.
func WithOverride(drill string, o Override) Option {
	return func(e *Engine) { e.overrides[drill] = o }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine bound to resolver. The resolver's avatar, if
// any, becomes the engine's avatar.
func NewEngine(resolver *skeleton.Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver:  resolver,
		solver:    LandmarkSolver{},
		factors:   DefaultFactors(),
		overrides: map[string]Override{SquatDrill: SideViewSquat{}},
		logger:    log.Component("retarget"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.SetAvatar(resolver.Avatar())
	return e
}

// SetAvatar swaps the driven avatar and clears resolution state. The
// fallback avatar pins the engine to direct-mesh mode.
func (e *Engine) SetAvatar(a skeleton.Avatar) {
	e.resolver.Reset(a)
	e.mode = ModeIdle
	e.direct = false
	e.baseScale = r3.Vec{X: 1, Y: 1, Z: 1}
	if a == nil || a.Root() == nil {
		return
	}
	e.baseScale = a.Root().Scale()
	e.direct = a.Fallback() || e.resolver.CountResolved(skeleton.Joints...) == 0
	e.logger.Info("avatar bound", "fallback", a.Fallback(), "direct", e.direct)
}

// SetDrill selects which override, if any, applies to subsequent frames.
func (e *Engine) SetDrill(id string) {
	e.drill = id
}

// Mode returns the path taken by the most recent frame.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Direct reports whether the avatar is driven through its root only.
func (e *Engine) Direct() bool {
	return e.direct
}

// Apply retargets one frame. solved may be nil, in which case the engine's
// solver derives targets from the landmarks.
func (e *Engine) Apply(f landmark.Frame, solved SolvedPose) Mode {
	a := e.resolver.Avatar()
	if a == nil || a.Root() == nil {
		e.mode = ModeIdle
		return e.mode
	}
	root := a.Root()

	if o, ok := e.overrides[e.drill]; ok {
		o.Apply(Target{Root: root, Resolver: e.resolver, Factors: e.factors}, f)
		e.mode = ModeOverride
		return e.mode
	}

	if e.direct {
		e.applyDirect(root, f)
		e.mode = ModeDirect
		return e.mode
	}

	if solved == nil {
		solved = e.solver.Solve(f)
	}
	e.applyBones(root, solved)
	e.mode = ModeBones
	return e.mode
}

func (e *Engine) applyBones(root skeleton.Node, solved SolvedPose) {
	for _, j := range skeleton.Joints {
		seg, ok := solved[j]
		if !ok {
			continue
		}
		res := e.resolver.Resolve(j)
		if !res.Found() {
			continue
		}
		target := dampen(j, seg.Rotation).Quat()
		res.Node.SetRotation(skeleton.Slerp(res.Node.Rotation(), target, e.factors.For(j)))
	}

	// Keep the avatar centered instead of following camera-relative hip drift.
	if hips, ok := solved[skeleton.Hips]; ok && hips.Position != nil {
		target := r3.Vec{X: -hips.Position.X * HipDrift}
		root.SetPosition(SmoothVec(root.Position(), target, e.factors.HipTranslation))
	}
}

func (e *Engine) applyDirect(root skeleton.Node, f landmark.Frame) {
	yaw, ok1 := BodyYaw(f)
	pitch, ok2 := TorsoPitch(f)
	roll, ok3 := ShoulderRoll(f)
	if !ok1 || !ok2 || !ok3 {
		return
	}
	target := skeleton.Euler{X: pitch * 0.5, Y: yaw * YawGain, Z: roll * 0.3}.Quat()
	root.SetRotation(skeleton.Slerp(root.Rotation(), target, e.factors.Root))
	root.SetPosition(SmoothVec(root.Position(), r3.Vec{}, e.factors.Root))
}

// Breathe applies the idle scale oscillation for wall-clock time now. It
// runs on every render tick whether or not frames are arriving.
func (e *Engine) Breathe(now time.Time) {
	a := e.resolver.Avatar()
	if a == nil || a.Root() == nil {
		return
	}
	t := float64(now.UnixNano()) / float64(time.Second)
	s := e.baseScale
	s.Y *= 1 + math.Sin(t)*BreathAmplitude
	a.Root().SetScale(s)
}
