package drill

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-coach/internal/landmarktest"
	"github.com/teslashibe/go-coach/pkg/feedback"
	lm "github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/posture"
)

// stance builds a golf address position whose five stance metrics are all
// inside their ideal ranges: spine tilt ~40, knee bend 20, shoulder level 2,
// hip rotation ~34, head tilt 2.
func stance() *landmarktest.Builder {
	rad := 160 * math.Pi / 180
	return landmarktest.NewBuilder().
		Set(lm.Nose, 0.42, 0.12, 0).
		Set(lm.LeftEar, 0.40, 0.10, 0).
		Set(lm.RightEar, 0.46, 0.10, 0).
		Set(lm.LeftShoulder, 0.40, 0.28, 0).
		Set(lm.RightShoulder, 0.55, 0.30, 0).
		Set(lm.LeftHip, 0.30, 0.40, 0).
		Set(lm.RightHip, 0.45, 0.40, 0.1).
		Set(lm.LeftKnee, 0.30, 0.60, 0).
		Set(lm.LeftAnkle, 0.30-0.2*math.Sin(rad), 0.60-0.2*math.Cos(rad), 0)
}

func event(t *testing.T, ev Evaluation) feedback.Event {
	t.Helper()
	require.False(t, ev.Skipped, "evaluation skipped")
	require.Len(t, ev.Cycle.Events, 1, "exactly one event per cycle")
	return ev.Cycle.Events[0]
}

func TestStanceFixture(t *testing.T) {
	s := posture.ComputeAll(stance().Frame(),
		posture.SpineTilt, posture.KneeBend, posture.ShoulderLevel, posture.HipRotation, posture.HeadTilt)
	require.True(t, s.Complete())
	assert.InDelta(t, 40, s.Get(posture.SpineTilt).Value, 1)
	assert.InDelta(t, 20, s.Get(posture.KneeBend).Value, 1e-6)
	assert.InDelta(t, 2, s.Get(posture.ShoulderLevel).Value, 1e-6)
	assert.Equal(t, 34.0, s.Get(posture.HipRotation).Value, "golf metrics are whole numbers")
	assert.InDelta(t, 2, s.Get(posture.HeadTilt).Value, 1e-6)
}

func TestSquatGoodDepth(t *testing.T) {
	d, err := Builtin().Get(Squat)
	require.NoError(t, err)

	ev := d.Evaluate(landmarktest.Squat(90))
	e := event(t, ev)
	assert.Equal(t, "Great squat depth!", e.Message)
	assert.Equal(t, feedback.Good, e.Severity)
	assert.Empty(t, ev.Cycle.Speech, "a good squat is not spoken")
	assert.Empty(t, ev.Report.Violations)

	require.Len(t, ev.Cycle.Metrics, 3)
	want := []string{"90°", "Good", "Aligned"}
	for i, m := range ev.Cycle.Metrics {
		assert.Equal(t, want[i], m.Value, m.Label)
		assert.Equal(t, feedback.Good, m.Status, m.Label)
	}
	assert.Equal(t, "Knee Angle: 90°", d.Labels[0].String(ev.Snapshot.Get(posture.KneeAngle)))
}

func TestSquatTooStraight(t *testing.T) {
	d, _ := Builtin().Get(Squat)

	ev := d.Evaluate(landmarktest.Squat(150))
	e := event(t, ev)
	assert.Equal(t, "Go lower!", e.Message)
	assert.Equal(t, feedback.Warning, e.Severity)
	assert.Equal(t, "Go lower", ev.Cycle.Speech)
	assert.Equal(t, "150°", ev.Cycle.Metrics[0].Value)
	assert.Equal(t, feedback.Warning, ev.Cycle.Metrics[0].Status)
}

func TestSquatTooDeepIsTextOnly(t *testing.T) {
	d, _ := Builtin().Get(Squat)

	ev := d.Evaluate(landmarktest.Squat(60))
	e := event(t, ev)
	assert.Equal(t, "Don't go too low!", e.Message)
	assert.Empty(t, ev.Cycle.Speech)
}

func TestSeveralViolationsSurfaceFirstAsError(t *testing.T) {
	d, _ := Builtin().Get(Squat)

	f := landmarktest.Squat(150)
	f.Points[lm.LeftShoulder].X += 0.1
	f.Points[lm.RightShoulder].X += 0.1

	ev := d.Evaluate(f)
	require.Len(t, ev.Report.Violations, 2)
	e := event(t, ev)
	assert.Equal(t, "Straighten your back", e.Message)
	assert.Equal(t, feedback.Error, e.Severity)
	assert.Equal(t, "Straighten your back", ev.Cycle.Speech)
	assert.Equal(t, "Leaning", ev.Cycle.Metrics[2].Value)
}

func TestMissingLandmarkSkipsCycle(t *testing.T) {
	d, _ := Builtin().Get(Squat)

	f := landmarktest.Squat(150)
	f.Points[lm.RightAnkle].Visibility = 0
	ev := d.Evaluate(f)
	assert.True(t, ev.Skipped, "unknown knee angle must skip the cycle")
	assert.Empty(t, ev.Cycle.Events)
	assert.Empty(t, ev.Cycle.Speech)

	assert.True(t, d.Evaluate(lm.Frame{}).Skipped)
}

func TestPushupAndCurl(t *testing.T) {
	c := Builtin()

	pushup, _ := c.Get(Pushup)
	ev := pushup.Evaluate(landmarktest.Squat(90))
	e := event(t, ev)
	assert.Equal(t, "Lower your chest more", e.Message)
	assert.Equal(t, "Go lower", ev.Cycle.Speech)

	curl, _ := c.Get(BicepCurl)
	ev = curl.Evaluate(landmarktest.Squat(90))
	e = event(t, ev)
	assert.Equal(t, "Curl up - bring weights to shoulders", e.Message)
	assert.Equal(t, "Curl up", ev.Cycle.Speech)
	assert.Equal(t, "Balanced", ev.Cycle.Metrics[2].Value)
}

func TestPraiseOverridesGood(t *testing.T) {
	f := landmarktest.Squat(90)
	// Fold the forearms up so both elbows close well under 30°.
	for _, side := range []struct{ elbow, wrist lm.Index }{
		{lm.LeftElbow, lm.LeftWrist}, {lm.RightElbow, lm.RightWrist},
	} {
		e := f.Points[side.elbow]
		f.Points[side.wrist].X = e.X + 0.01
		f.Points[side.wrist].Y = e.Y - 0.12
	}

	curl, _ := Builtin().Get(BicepCurl)
	ev := curl.Evaluate(f)
	e := event(t, ev)
	assert.Equal(t, "Great curl! Full contraction", e.Message)
	assert.Equal(t, feedback.Good, e.Severity)
}

func TestGeneralRules(t *testing.T) {
	g := General()

	t.Run("clean stance", func(t *testing.T) {
		ev := g.Evaluate(stance().Frame())
		e := event(t, ev)
		assert.Equal(t, feedback.Good, e.Severity)
		assert.Equal(t, "Excellent posture! Perfect golf stance!", ev.Cycle.Speech)
		assert.Len(t, ev.Cycle.Metrics, 5)
	})

	t.Run("stiff knees", func(t *testing.T) {
		f := stance().Set(lm.LeftAnkle, 0.30, 0.80, 0).Frame()
		ev := g.Evaluate(f)
		e := event(t, ev)
		assert.Equal(t, feedback.Warning, e.Severity)
		assert.Equal(t, "Bend your knees more, you're too stiff", e.Message)
		assert.Equal(t, e.Message, ev.Cycle.Speech)
	})

	t.Run("knees outrank head", func(t *testing.T) {
		f := stance().
			Set(lm.LeftAnkle, 0.30, 0.80, 0).
			Set(lm.Nose, 0.42, 0.25, 0).
			Frame()
		ev := g.Evaluate(f)
		require.Len(t, ev.Report.Violations, 2)
		e := event(t, ev)
		assert.Equal(t, feedback.Error, e.Severity)
		assert.Equal(t, "Bend your knees more, you're too stiff", e.Message)
	})

	t.Run("head hidden", func(t *testing.T) {
		f := stance().Hide(lm.Nose).Frame()
		assert.True(t, g.Evaluate(f).Skipped)
	})
}

func TestBalanceTiers(t *testing.T) {
	d, _ := Builtin().Get(Balance)

	tests := []struct {
		name     string
		noseY    float64
		message  string
		severity feedback.Severity
	}{
		{"steady", 0.12, "Excellent stability!", feedback.Good},
		{"sway at 10", 0.18, "Reduce body sway", feedback.Warning},
		{"sway", 0.25, "Reduce body sway", feedback.Warning},
		{"losing balance at 20", 0.28, "Stabilize your stance", feedback.Error},
		{"losing balance", 0.35, "Stabilize your stance", feedback.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := d.Evaluate(stance().Set(lm.Nose, 0.42, tt.noseY, 0).Frame())
			e := event(t, ev)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.severity, e.Severity)
			assert.NotEmpty(t, ev.Cycle.Speech)
		})
	}
}

func TestBalanceLabelBounds(t *testing.T) {
	d, _ := Builtin().Get(Balance)
	label := d.Labels[len(d.Labels)-1]
	require.Equal(t, posture.Stability, label.Metric)

	for v, want := range map[float64]string{9: "Steady", 10: "Swaying", 19: "Swaying", 20: "Unstable"} {
		m := label.Format(posture.Value{Name: posture.Stability, Value: v, Known: true})
		assert.Equal(t, want, m.Value, "stability %v", v)
	}
}

func TestUnknownLabelMetricDoesNotSkip(t *testing.T) {
	d, _ := Builtin().Get(GolfSwing)

	// Zero hip width leaves the stance ratio unknown.
	f := landmarktest.Squat(170)
	f.Points[lm.RightHip].X = f.Points[lm.LeftHip].X

	ev := d.Evaluate(f)
	e := event(t, ev)
	assert.Equal(t, "Good posture and stance!", e.Message)
	assert.False(t, ev.Snapshot.Get(posture.StanceRatio).Known)
	for _, m := range ev.Cycle.Metrics {
		if m.Name == string(posture.StanceRatio) {
			assert.Equal(t, "--", m.Value)
		}
	}
}

func TestGeneralUsesSessionCooldown(t *testing.T) {
	assert.Zero(t, General().Cooldown)
}

func TestShoulderTiltNamesHigherSide(t *testing.T) {
	d, _ := Builtin().Get(ShoulderTilt)

	ev := d.Evaluate(stance().Set(lm.RightShoulder, 0.55, 0.38, 0).Frame())
	assert.Equal(t, "Lower your left shoulder", event(t, ev).Message)

	ev = d.Evaluate(stance().Set(lm.RightShoulder, 0.55, 0.18, 0).Frame())
	assert.Equal(t, "Lower your right shoulder", event(t, ev).Message)
	assert.Equal(t, "Your right shoulder is higher. Level them out.", ev.Cycle.Speech)
}

func TestCatalog(t *testing.T) {
	c := Builtin()
	assert.Equal(t, []string{
		AirSwing, Balance, BicepCurl, GolfSwing, HipTwist,
		Pushup, ShoulderTilt, Squat, WallBack,
	}, c.List())

	for _, info := range c.Infos() {
		switch info.Kind {
		case Exercise:
			assert.Equal(t, ExerciseCooldown, info.Cooldown, info.ID)
		case Golf:
			assert.Equal(t, GolfCooldown, info.Cooldown, info.ID)
		}
		if info.ID == Squat {
			assert.Equal(t, Side, info.View)
		} else {
			assert.Equal(t, Front, info.View, info.ID)
		}
	}

	_, err := c.Get("yoga")
	assert.ErrorIs(t, err, ErrUnknownDrill)
}

func TestMachineTransitions(t *testing.T) {
	m := NewMachine(Builtin())
	var changes []Change
	m.OnChange(func(c Change) { changes = append(changes, c) })

	assert.Nil(t, m.Active())
	assert.Equal(t, GeneralID, m.Current().ID)
	assert.Equal(t, Front, m.View())

	_, err := m.Select("yoga")
	require.ErrorIs(t, err, ErrUnknownDrill)
	assert.Empty(t, changes, "failed select must not notify")
	assert.Nil(t, m.Active())

	_, err = m.Select(Squat)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].Previous)
	assert.Equal(t, Squat, changes[0].CurrentID())
	assert.Equal(t, Side, changes[0].View)
	assert.Equal(t, Side, m.View())

	_, err = m.Select(WallBack)
	require.NoError(t, err)
	assert.Equal(t, Squat, changes[1].Previous.ID)
	assert.Equal(t, WallBack, m.ActiveID())

	m.Deselect()
	require.Len(t, changes, 3)
	assert.Equal(t, "", changes[2].CurrentID())
	assert.Equal(t, Front, changes[2].View)
	assert.Equal(t, GeneralID, m.Current().ID)
}

func TestRecommend(t *testing.T) {
	r, err := Recommend("rotation")
	require.NoError(t, err)
	assert.Equal(t, []string{HipTwist, AirSwing}, r.Drills)
	assert.Equal(t, "Rotation-Focused Drills", r.Title)

	c := Builtin()
	for _, s := range Struggles() {
		r, err := Recommend(s)
		require.NoError(t, err)
		for _, id := range r.Drills {
			_, err := c.Get(id)
			assert.NoError(t, err, "%s recommends %s", s, id)
		}
	}

	_, err = Recommend("putting")
	assert.ErrorIs(t, err, ErrUnknownStruggle)
}
