package drill

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-coach/pkg/feedback"
	"github.com/teslashibe/go-coach/pkg/posture"
)

// Label formats one metric for the metrics panel.
type Label struct {
	Metric posture.Name
	Title  string
	// Render returns the display text and whether the value is good.
	Render func(v float64) (string, bool)
}

// Format renders v. Unknown values show as "--".
func (l Label) Format(v posture.Value) feedback.Metric {
	m := feedback.Metric{Name: string(l.Metric), Label: l.Title, Value: "--"}
	if !v.Known || l.Render == nil {
		return m
	}
	text, good := l.Render(v.Value)
	m.Value = text
	m.Raw = v.Value
	m.Known = true
	m.Status = feedback.Warning
	if good {
		m.Status = feedback.Good
	}
	return m
}

// String renders "Title: value".
func (l Label) String(v posture.Value) string {
	return fmt.Sprintf("%s: %s", l.Title, l.Format(v).Value)
}

// angle shows whole degrees, good inside r.
func angle(metric posture.Name, title string, r posture.Range) Label {
	return Label{Metric: metric, Title: title, Render: func(v float64) (string, bool) {
		return fmt.Sprintf("%.0f°", v), r.Contains(v)
	}}
}

// magnitude shows |v| in whole degrees, good while |v| <= limit.
func magnitude(metric posture.Name, title string, limit float64) Label {
	return Label{Metric: metric, Title: title, Render: func(v float64) (string, bool) {
		return fmt.Sprintf("%.0f°", math.Abs(v)), math.Abs(v) <= limit
	}}
}

// below shows good when v < limit, bad otherwise.
func below(metric posture.Name, title string, limit float64, good, bad string) Label {
	return Label{Metric: metric, Title: title, Render: func(v float64) (string, bool) {
		if v < limit {
			return good, true
		}
		return bad, false
	}}
}

// above shows good when v > limit, bad otherwise.
func above(metric posture.Name, title string, limit float64, good, bad string) Label {
	return Label{Metric: metric, Title: title, Render: func(v float64) (string, bool) {
		if v > limit {
			return good, true
		}
		return bad, false
	}}
}
