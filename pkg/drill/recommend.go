package drill

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownStruggle is returned for struggles without recommendations.
var ErrUnknownStruggle = errors.New("unknown struggle")

// Recommendation is a titled set of drills addressing one struggle.
type Recommendation struct {
	Struggle string   `json:"struggle"`
	Title    string   `json:"title"`
	Drills   []string `json:"drills"`
	Message  string   `json:"message"`
}

var recommendations = map[string]Recommendation{
	"balance": {
		Title:   "Balance-Focused Drills",
		Drills:  []string{Balance, WallBack},
		Message: "These drills will help improve your stability and body control.",
	},
	"rotation": {
		Title:   "Rotation-Focused Drills",
		Drills:  []string{HipTwist, AirSwing},
		Message: "These drills will enhance your rotational power and coordination.",
	},
	"alignment": {
		Title:   "Alignment-Focused Drills",
		Drills:  []string{WallBack, ShoulderTilt},
		Message: "These drills will perfect your body alignment and posture.",
	},
}

// Recommend returns the drills for a struggle.
func Recommend(struggle string) (Recommendation, error) {
	r, ok := recommendations[struggle]
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %q", ErrUnknownStruggle, struggle)
	}
	r.Struggle = struggle
	r.Drills = append([]string(nil), r.Drills...)
	return r, nil
}

// Struggles lists the known struggles, sorted.
func Struggles() []string {
	out := make([]string, 0, len(recommendations))
	for s := range recommendations {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
