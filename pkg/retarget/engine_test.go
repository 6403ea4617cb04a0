package retarget

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-coach/internal/landmarktest"
	"github.com/teslashibe/go-coach/internal/log"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/skeleton"
)

func humanoid() *skeleton.Model {
	root := skeleton.NewObject("Armature", skeleton.KindGroup)
	hips := skeleton.NewObject("Hips", skeleton.KindBone).At(0, 1, 0)
	for _, j := range skeleton.Joints[1:] {
		hips.Add(skeleton.NewObject(string(j), skeleton.KindBone))
	}
	root.Add(hips)
	return skeleton.NewModel("humanoid", root)
}

func newEngine(a skeleton.Avatar, opts ...Option) *Engine {
	r := skeleton.NewResolver(a, skeleton.WithLogger(log.Discard()))
	return NewEngine(r, append([]Option{WithLogger(log.Discard())}, opts...)...)
}

func TestSmoothConverges(t *testing.T) {
	for _, f := range []float64{0.2, 0.3, 0.4} {
		v := 0.0
		prev := math.Inf(1)
		for i := 0; i < 100; i++ {
			v = Smooth(v, 10, f)
			if v > 10 {
				t.Fatalf("factor %v overshot: %v", f, v)
			}
			if d := 10 - v; d >= prev {
				t.Fatalf("factor %v not monotonic at step %d", f, i)
			} else {
				prev = d
			}
		}
		if math.Abs(v-10) > 1e-6 {
			t.Errorf("factor %v: v = %v after 100 steps", f, v)
		}
	}

	got := SmoothVec(r3.Vec{}, r3.Vec{X: 1, Y: -2}, 0.5)
	if got != (r3.Vec{X: 0.5, Y: -1}) {
		t.Errorf("SmoothVec() = %v", got)
	}
}

func TestBoneDrivenMode(t *testing.T) {
	m := humanoid()
	e := newEngine(m)
	if e.Direct() {
		t.Fatal("humanoid should be bone-driven")
	}

	f := landmarktest.Squat(90)
	target := dampen(skeleton.LeftLowerLeg, LandmarkSolver{}.Solve(f)[skeleton.LeftLowerLeg].Rotation).Quat()
	knee := m.Find("LeftLowerLeg")

	prev := skeleton.Angle(knee.Rotation(), target)
	for i := 0; i < 20; i++ {
		if mode := e.Apply(f, nil); mode != ModeBones {
			t.Fatalf("Apply() mode = %v, want bones", mode)
		}
		d := skeleton.Angle(knee.Rotation(), target)
		if d > prev+1e-12 {
			t.Fatalf("step %d: distance grew %v -> %v", i, prev, d)
		}
		prev = d
	}
	if prev > 0.01 {
		t.Errorf("knee did not converge, remaining angle %v", prev)
	}
}

func TestHipTranslationDamped(t *testing.T) {
	m := humanoid()
	e := newEngine(m)

	p := r3.Vec{X: 0.2, Y: 0.4, Z: 0.1}
	solved := SolvedPose{skeleton.Hips: {Position: &p}}
	e.Apply(landmarktest.Squat(170), solved)

	got := m.Root().Position()
	want := r3.Vec{X: -0.2 * HipDrift * 0.2}
	if math.Abs(got.X-want.X) > 1e-12 || got.Y != 0 || got.Z != 0 {
		t.Errorf("root position = %v, want %v", got, want)
	}
}

func TestDirectMeshMode(t *testing.T) {
	m := skeleton.Fallback()
	e := newEngine(m)
	if !e.Direct() {
		t.Fatal("fallback avatar must be direct-mesh")
	}

	// Shoulders shifted right of the hips.
	f := landmarktest.Squat(170)
	f.Points[landmark.LeftShoulder].X += 0.1
	f.Points[landmark.RightShoulder].X += 0.1

	if mode := e.Apply(f, nil); mode != ModeDirect {
		t.Fatalf("Apply() mode = %v, want direct", mode)
	}
	yaw := skeleton.EulerOf(m.Root().Rotation()).Y
	if yaw <= 0 {
		t.Errorf("root yaw = %v, want positive", yaw)
	}

	// Missing torso landmarks leave the root alone.
	before := m.Root().Rotation()
	f.Points[landmark.LeftHip].Visibility = 0
	e.Apply(f, nil)
	if m.Root().Rotation() != before {
		t.Error("root moved on a frame with missing hips")
	}
}

func TestSquatOverrideWithLegs(t *testing.T) {
	m := humanoid()
	e := newEngine(m)
	m.Root().SetRotation(skeleton.Euler{Y: 0.5}.Quat())
	e.SetDrill(SquatDrill)

	if mode := e.Apply(landmarktest.Squat(90), nil); mode != ModeOverride {
		t.Fatalf("Apply() mode = %v, want override", mode)
	}

	legRotation := 0.5 * MaxLegRotation
	thigh := m.Find("LeftUpperLeg")
	if got := skeleton.Angle(thigh.Rotation(), skeleton.Identity); math.Abs(got-legRotation*0.4) > 1e-9 {
		t.Errorf("thigh angle = %v, want %v", got, legRotation*0.4)
	}
	if got := skeleton.Angle(m.Root().Rotation(), skeleton.Identity); math.Abs(got-0.5*0.7) > 1e-9 {
		t.Errorf("root angle = %v, want %v", got, 0.5*0.7)
	}
	// General bone path is skipped entirely.
	if m.Find("LeftLowerLeg").Rotation() != skeleton.Identity {
		t.Error("override did not short-circuit bone-driven retargeting")
	}
	if got := m.Root().Position().Y; math.Abs(got-(-0.2*0.5*0.3)) > 1e-9 {
		t.Errorf("root Y = %v, want %v", got, -0.2*0.5*0.3)
	}
}

func TestSquatOverrideWithoutLegs(t *testing.T) {
	m := skeleton.Fallback()
	e := newEngine(m)
	e.SetDrill(SquatDrill)

	e.Apply(landmarktest.Squat(90), nil)

	legRotation := 0.5 * MaxLegRotation
	got := skeleton.EulerOf(m.Root().Rotation()).X
	if math.Abs(got-legRotation*0.5*0.3) > 1e-9 {
		t.Errorf("root pitch = %v, want %v", got, legRotation*0.5*0.3)
	}
}

func TestSquatOverridePositionalLegs(t *testing.T) {
	root := skeleton.NewObject("root", skeleton.KindGroup).Add(
		skeleton.NewObject("torso", skeleton.KindMesh).At(0, 1.2, 0),
		skeleton.NewObject("legL", skeleton.KindMesh).At(-0.1, 0.2, 0),
		skeleton.NewObject("legR", skeleton.KindMesh).At(0.1, 0.2, 0),
	)
	m := skeleton.NewModel("blocky", root)
	e := newEngine(m)
	e.SetDrill(SquatDrill)

	e.Apply(landmarktest.Squat(90), nil)

	for _, name := range []string{"legL", "legR"} {
		if m.Find(name).Rotation() == skeleton.Identity {
			t.Errorf("%s not driven by positional fallback", name)
		}
	}
}

func TestOtherDrillUsesGeneralPath(t *testing.T) {
	e := newEngine(humanoid())
	e.SetDrill("pushup")
	if mode := e.Apply(landmarktest.Squat(90), nil); mode != ModeBones {
		t.Errorf("Apply() mode = %v, want bones", mode)
	}
}

func TestBreathe(t *testing.T) {
	m := skeleton.Fallback()
	e := newEngine(m)

	halfPi := math.Pi / 2
	peak := time.Unix(0, int64(halfPi*float64(time.Second)))
	e.Breathe(peak)
	if got := m.Root().Scale().Y; math.Abs(got-1.02) > 1e-6 {
		t.Errorf("scale.Y at peak = %v, want 1.02", got)
	}
	e.Breathe(time.Unix(0, 0))
	if got := m.Root().Scale().Y; math.Abs(got-1) > 1e-9 {
		t.Errorf("scale.Y at zero = %v, want 1", got)
	}
	if got := m.Root().Scale().X; got != 1 {
		t.Errorf("scale.X = %v, breathing must only touch Y", got)
	}
}

func TestNoAvatarIsIdle(t *testing.T) {
	e := newEngine(nil)
	if mode := e.Apply(landmarktest.Squat(90), nil); mode != ModeIdle {
		t.Errorf("Apply() mode = %v, want idle", mode)
	}
	e.Breathe(time.Now())
}
