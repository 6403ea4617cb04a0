// Package drill defines the practice drills, the generic golf-stance rules
// used when no drill is selected, and the single-selection drill machine.
//
// A drill is declarative: the metrics it needs, the rules those metrics are
// checked against, the positive message for a clean frame and how each
// metric is labelled on the metrics panel. Evaluate turns one landmark frame
// into one feedback cycle using a fixed surfacing policy: a clean frame gives
// one positive event, a single violation gives a warning, and several give
// only the highest-priority one as an error.
package drill

import (
	"time"

	"github.com/teslashibe/go-coach/pkg/feedback"
	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/posture"
)

// View is the camera framing a drill asks for.
type View string

const (
	Front View = "front"
	Side  View = "side"
)

// Kind groups drills in the catalog.
type Kind string

const (
	Exercise Kind = "exercise"
	Golf     Kind = "golf"
)

// Cooldowns per kind.
const (
	ExerciseCooldown = 2 * time.Second
	GolfCooldown     = 3 * time.Second
)

// Praise replaces the drill's positive message when Metric lies in Range.
type Praise struct {
	Metric posture.Name
	Range  posture.Range
	Advice posture.Advice
}

// Drill is a named practice routine.
type Drill struct {
	ID           string
	Name         string
	Kind         Kind
	View         View
	Cooldown     time.Duration
	Announcement string
	Description  string

	// Required landmarks must all be visible or the frame is skipped.
	Required []landmark.Index
	Rules    []posture.Rule
	Good     posture.Advice
	Praise   []Praise
	Labels   []Label
}

// Evaluation is the outcome of evaluating one frame.
type Evaluation struct {
	Drill    string
	Skipped  bool
	Snapshot posture.Snapshot
	Report   posture.Report
	Cycle    feedback.Cycle
}

// Metrics lists every metric the drill computes, rules first, without
// duplicates.
func (d *Drill) Metrics() []posture.Name {
	seen := make(map[posture.Name]bool)
	var out []posture.Name
	add := func(n posture.Name) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, r := range d.Rules {
		add(r.Metric)
	}
	for _, l := range d.Labels {
		add(l.Metric)
	}
	return out
}

// Evaluate computes the drill's metrics for f and selects what to say.
// Frames missing a required landmark or a rule metric are skipped entirely.
// Label-only metrics that cannot be computed show as unknown.
func (d *Drill) Evaluate(f landmark.Frame) Evaluation {
	ev := Evaluation{Drill: d.ID}
	if f.Empty() || !f.Has(d.Required...) {
		ev.Skipped = true
		return ev
	}

	ev.Snapshot = posture.ComputeAll(f, d.Metrics()...)
	for _, r := range d.Rules {
		if !ev.Snapshot.Get(r.Metric).Known {
			ev.Skipped = true
			return ev
		}
	}
	ev.Report = posture.Check(ev.Snapshot, d.Rules)

	ev.Cycle = feedback.Cycle{
		Drill:   d.ID,
		Metrics: d.format(ev.Snapshot),
	}
	advice, sev := d.verdict(ev.Snapshot, ev.Report)
	ev.Cycle.Events = []feedback.Event{{Message: advice.Text, Severity: sev}}
	ev.Cycle.Speech = advice.Speech
	return ev
}

func (d *Drill) verdict(s posture.Snapshot, rep posture.Report) (posture.Advice, feedback.Severity) {
	top, ok := rep.Top()
	if !ok {
		return d.praise(s), feedback.Good
	}
	advice := top.Advice()
	sev := feedback.Warning
	if advice.Severe || len(rep.Violations) > 1 {
		sev = feedback.Error
	}
	return advice, sev
}

func (d *Drill) praise(s posture.Snapshot) posture.Advice {
	for _, p := range d.Praise {
		if posture.Classify(s.Get(p.Metric), p.Range).InRange {
			return p.Advice
		}
	}
	return d.Good
}

func (d *Drill) format(s posture.Snapshot) []feedback.Metric {
	out := make([]feedback.Metric, 0, len(d.Labels))
	for _, l := range d.Labels {
		out = append(out, l.Format(s.Get(l.Metric)))
	}
	return out
}

// Info is the catalog view of a drill.
type Info struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Kind        Kind          `json:"kind"`
	View        View          `json:"view"`
	Cooldown    time.Duration `json:"cooldown"`
	Description string        `json:"description,omitempty"`
}

// Info returns the catalog view of d.
func (d *Drill) Info() Info {
	return Info{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        d.Kind,
		View:        d.View,
		Cooldown:    d.Cooldown,
		Description: d.Description,
	}
}
