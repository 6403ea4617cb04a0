package posture

import (
	"fmt"
	"sort"
)

// Direction tells which side of a range a value fell on.
type Direction int

const (
	None Direction = iota
	Below
	Above
)

func (d Direction) String() string {
	switch d {
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "none"
	}
}

// Range is an inclusive [Min, Max] interval, or [Min, Max) when OpenMax is set.
type Range struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	OpenMax bool    `json:"open_max,omitempty"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && !r.above(v)
}

func (r Range) above(v float64) bool {
	if r.OpenMax {
		return v >= r.Max
	}
	return v > r.Max
}

func (r Range) String() string {
	if r.OpenMax {
		return fmt.Sprintf("[%g, %g)", r.Min, r.Max)
	}
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Classification is the outcome of checking one value against one range.
type Classification struct {
	Known     bool
	InRange   bool
	Direction Direction
}

// Classify checks v against r. Unknown values are never in range.
func Classify(v Value, r Range) Classification {
	if !v.Known {
		return Classification{}
	}
	switch {
	case v.Value < r.Min:
		return Classification{Known: true, Direction: Below}
	case r.above(v.Value):
		return Classification{Known: true, Direction: Above}
	default:
		return Classification{Known: true, InRange: true}
	}
}

// Advice is what to tell the user about a violation.
// Speech may be empty when the advice is text only.
type Advice struct {
	Text   string
	Speech string
	// Severe escalates the text event to an error.
	Severe bool
}

// Rule binds a metric to its acceptable range. Lower Priority surfaces first.
type Rule struct {
	Metric   Name
	Range    Range
	Priority int
	Below    Advice
	Above    Advice
}

// Violation is a rule whose metric fell outside its range.
type Violation struct {
	Rule      Rule
	Value     Value
	Direction Direction
}

// Advice returns the advice matching the violation direction.
func (v Violation) Advice() Advice {
	if v.Direction == Below {
		return v.Rule.Below
	}
	return v.Rule.Above
}

// Report collects the violations of one frame, ordered by priority.
type Report struct {
	Violations []Violation
	Unknown    []Name
}

// OK reports whether every metric was known and in range.
func (r Report) OK() bool {
	return len(r.Violations) == 0 && len(r.Unknown) == 0
}

// Top returns the highest-priority violation.
func (r Report) Top() (Violation, bool) {
	if len(r.Violations) == 0 {
		return Violation{}, false
	}
	return r.Violations[0], true
}

// Check classifies every rule against the snapshot. Rules whose metric is
// unknown are reported in Unknown and never produce a violation.
func Check(s Snapshot, rules []Rule) Report {
	var rep Report
	for _, rule := range rules {
		v := s.Get(rule.Metric)
		c := Classify(v, rule.Range)
		if !c.Known {
			rep.Unknown = append(rep.Unknown, rule.Metric)
			continue
		}
		if !c.InRange {
			rep.Violations = append(rep.Violations, Violation{Rule: rule, Value: v, Direction: c.Direction})
		}
	}
	sort.SliceStable(rep.Violations, func(i, j int) bool {
		return rep.Violations[i].Rule.Priority < rep.Violations[j].Rule.Priority
	})
	return rep
}
