package coach

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-coach/internal/history"
	"github.com/teslashibe/go-coach/internal/landmarktest"
	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/drill"
	"github.com/teslashibe/go-coach/pkg/feedback"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/retarget"
	"github.com/teslashibe/go-coach/pkg/skeleton"
	"github.com/teslashibe/go-coach/pkg/tts"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type memRecorder struct{ saved []history.Record }

func (r *memRecorder) Save(_ context.Context, rec history.Record) error {
	r.saved = append(r.saved, rec)
	return nil
}

type countingRenderer struct {
	mu    sync.Mutex
	count int
}

func (r *countingRenderer) Render(skeleton.Avatar) {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

func (r *countingRenderer) renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

type recordingNotifier struct {
	drills   []drill.Change
	statuses []Status
}

func (n *recordingNotifier) DrillChanged(c drill.Change) { n.drills = append(n.drills, c) }
func (n *recordingNotifier) StatusChanged(s Status)      { n.statuses = append(n.statuses, s) }

type fixture struct {
	session  *Session
	speech   *tts.Mock
	clock    *clock
	recorder *memRecorder
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		speech:   tts.NewMock(),
		clock:    &clock{t: time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)},
		recorder: &memRecorder{},
		notifier: &recordingNotifier{},
	}
	d := feedback.NewDispatcher(f.speech,
		feedback.WithClock(f.clock.now),
		feedback.WithLogger(log.Discard()),
	)
	base := []Option{
		WithClock(f.clock.now),
		WithLogger(log.Discard()),
		WithRecorder(f.recorder),
		WithNotifier(f.notifier),
		WithEngineOptions(retarget.WithLogger(log.Discard())),
	}
	f.session = New(d, append(base, opts...)...)
	return f
}

func latest(t *testing.T, s *Session) feedback.Event {
	t.Helper()
	h := s.Dispatcher().History()
	require.NotEmpty(t, h)
	return h[0]
}

func TestSquatGoodDepthEndToEnd(t *testing.T) {
	f := newFixture(t)
	s := f.session
	require.NoError(t, s.Start())
	_, err := s.SelectDrill(drill.Squat)
	require.NoError(t, err)

	res := s.OnFrame(context.Background(), landmarktest.Squat(90), nil)
	require.Empty(t, res.Skipped)
	assert.Equal(t, feedback.Ignored, res.Speech)

	e := latest(t, s)
	assert.Equal(t, "Great squat depth!", e.Message)
	assert.Equal(t, feedback.Good, e.Severity)
	assert.Zero(t, f.speech.CallCount("Speak"), "good depth is not spoken")

	for _, ev := range s.Dispatcher().History() {
		assert.NotEqual(t, feedback.Warning, ev.Severity, ev.Message)
	}
}

func TestSquatTooStraightEndToEnd(t *testing.T) {
	f := newFixture(t)
	s := f.session
	require.NoError(t, s.Start())
	_, err := s.SelectDrill(drill.Squat)
	require.NoError(t, err)

	res := s.OnFrame(context.Background(), landmarktest.Squat(150), nil)
	assert.Equal(t, feedback.Spoken, res.Speech)

	e := latest(t, s)
	assert.Equal(t, "Go lower!", e.Message)
	assert.Equal(t, feedback.Warning, e.Severity)
	assert.Equal(t, []string{"Go lower"}, f.speech.Spoken())

	// Inside the 2s cooldown the text still flows but speech is dropped.
	f.clock.advance(500 * time.Millisecond)
	res = s.OnFrame(context.Background(), landmarktest.Squat(150), nil)
	assert.Equal(t, feedback.Rejected, res.Speech)
	assert.Len(t, f.speech.Spoken(), 1)

	f.clock.advance(2 * time.Second)
	res = s.OnFrame(context.Background(), landmarktest.Squat(150), nil)
	assert.Equal(t, feedback.Spoken, res.Speech)
}

func TestDrillSwitchResetsCooldown(t *testing.T) {
	f := newFixture(t)
	s := f.session
	require.NoError(t, s.Start())
	_, err := s.SelectDrill(drill.Squat)
	require.NoError(t, err)

	s.OnFrame(context.Background(), landmarktest.Squat(150), nil)
	f.clock.advance(100 * time.Millisecond)

	d, err := s.SelectDrill(drill.Pushup)
	require.NoError(t, err)
	assert.Equal(t, "Push-up selected - Press Start to begin!", latest(t, s).Message)
	assert.Len(t, f.speech.Spoken(), 1, "announcements are text only")

	res := s.OnFrame(context.Background(), landmarktest.Squat(90), nil)
	assert.Equal(t, feedback.Spoken, res.Speech, "first utterance after a switch is not held back")
	assert.Equal(t, d.Cooldown, s.Dispatcher().Cooldown())

	_, err = s.SelectDrill(drill.Balance)
	require.NoError(t, err)
	assert.Equal(t, drill.GolfCooldown, s.Dispatcher().Cooldown())

	s.DeselectDrill()
	assert.Equal(t, feedback.DefaultCooldown, s.Dispatcher().Cooldown())
	assert.Nil(t, s.ActiveDrill())
}

func TestSelectUnknownDrill(t *testing.T) {
	f := newFixture(t)
	s := f.session
	_, err := s.SelectDrill(drill.Squat)
	require.NoError(t, err)

	_, err = s.SelectDrill("cartwheel")
	assert.ErrorIs(t, err, drill.ErrUnknownDrill)
	assert.Equal(t, drill.Squat, s.ActiveDrill().ID)
	assert.Len(t, f.notifier.drills, 1)
	assert.Equal(t, drill.Side, f.notifier.drills[0].View)
}

func TestFramesRejectedWhenStopped(t *testing.T) {
	f := newFixture(t)
	s := f.session

	res := s.OnFrame(context.Background(), landmarktest.Squat(150), nil)
	assert.Equal(t, SkipStopped, res.Skipped)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrRunning)
	assert.Equal(t, SkipEmpty, s.OnFrame(context.Background(), landmark.Frame{}, nil).Skipped)

	_, err := s.SelectDrill(drill.Squat)
	require.NoError(t, err)
	s.OnFrame(context.Background(), landmarktest.Squat(150), nil)
	f.clock.advance(time.Minute)

	rec, err := s.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgEnded, latest(t, s).Message)
	assert.Equal(t, 2, f.speech.CallCount("Cancel"), "stop cancels in-flight speech")

	assert.Equal(t, s.ID(), rec.ID)
	assert.Equal(t, drill.Squat, rec.Drill)
	assert.Equal(t, uint64(1), rec.Frames)
	assert.Equal(t, uint64(1), rec.Skipped)
	assert.Equal(t, time.Minute, rec.Duration())
	assert.Equal(t, 1, rec.Events[feedback.Warning])
	require.Len(t, f.recorder.saved, 1)

	assert.Equal(t, SkipStopped, s.OnFrame(context.Background(), landmarktest.Squat(150), nil).Skipped)
	_, err = s.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestIncompleteFrameStillRetargets(t *testing.T) {
	f := newFixture(t)
	s := f.session
	s.SetAvatar(skeleton.Fallback())
	require.NoError(t, s.Start())

	// No drill: the golf-stance rules need the ears, which this frame lacks.
	frame := landmarktest.Squat(120)
	frame.Points[landmark.LeftEar].Visibility = 0
	res := s.OnFrame(context.Background(), frame, nil)
	assert.Equal(t, SkipIncomplete, res.Skipped)
	assert.Equal(t, retarget.ModeDirect, res.Mode)
	assert.Equal(t, MsgStarted, latest(t, s).Message)
}

func TestAvatarFallback(t *testing.T) {
	f := newFixture(t)
	s := f.session

	err := s.LoadAvatar(filepath.Join(t.TempDir(), "present.json"), filepath.Join(t.TempDir(), "coach.json"))
	require.Error(t, err)

	st := s.Status()
	assert.True(t, st.Fallback)
	assert.Equal(t, "fallback", st.Avatar)
	assert.Equal(t, MsgFallback, latest(t, s).Message)
	assert.Equal(t, feedback.Warning, latest(t, s).Severity)
	require.NotEmpty(t, f.notifier.statuses)
	assert.True(t, f.notifier.statuses[len(f.notifier.statuses)-1].Fallback)
}

func TestTickBreathesAndRenders(t *testing.T) {
	r := &countingRenderer{}
	f := newFixture(t, WithRenderer(r))
	s := f.session

	s.Tick(time.Now())
	assert.Zero(t, r.renders(), "nothing to render without an avatar")

	s.SetAvatar(skeleton.Fallback())
	// sin(pi/2) = 1: the root is at full inhale.
	halfPi := 1.5707963267948966
	s.Tick(time.Unix(0, 0).Add(time.Duration(float64(time.Second) * halfPi)))
	assert.Equal(t, 1, r.renders())
	assert.InDelta(t, 1+retarget.BreathAmplitude, s.Avatar().Root().Scale().Y, 1e-6)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	r := &countingRenderer{}
	f := newFixture(t, WithRenderer(r), WithRenderRate(500))
	s := f.session
	s.SetAvatar(skeleton.Fallback())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx))
	assert.Greater(t, r.renders(), 0)
}

func TestRecorderError(t *testing.T) {
	f := newFixture(t, WithRecorder(failingRecorder{}))
	s := f.session
	require.NoError(t, s.Start())
	_, err := s.Stop(context.Background())
	assert.ErrorIs(t, err, errDisk)
	assert.False(t, s.Running())
}

var errDisk = errors.New("disk full")

type failingRecorder struct{}

func (failingRecorder) Save(context.Context, history.Record) error { return errDisk }
