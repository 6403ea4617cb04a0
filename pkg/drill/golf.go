package drill

import (
	lm "github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/posture"
)

// Golf drill ids.
const (
	WallBack     = "wall-back"
	HipTwist     = "hip-twist"
	AirSwing     = "air-swing"
	ShoulderTilt = "shoulder-tilt"
	Balance      = "balance"
)

// GeneralID identifies the generic golf-stance evaluation used when no
// drill is selected.
const GeneralID = "general"

// Ideal golf-stance ranges.
var (
	SpineTiltRange     = posture.Range{Min: 35, Max: 45}
	KneeBendRange      = posture.Range{Min: 15, Max: 25}
	ShoulderLevelRange = posture.Range{Min: -5, Max: 5}
	HipRotationRange   = posture.Range{Min: 20, Max: 45}
	HeadTiltRange      = posture.Range{Min: -10, Max: 10}
)

var stanceLandmarks = []lm.Index{
	lm.Nose, lm.LeftEar, lm.RightEar,
	lm.LeftShoulder, lm.RightShoulder,
	lm.LeftHip, lm.RightHip,
	lm.LeftKnee, lm.LeftAnkle,
}

// stanceLabels is the five-metric golf panel.
func stanceLabels() []Label {
	return []Label{
		angle(posture.SpineTilt, "Spine Tilt", SpineTiltRange),
		angle(posture.KneeBend, "Knee Bend", KneeBendRange),
		magnitude(posture.ShoulderLevel, "Shoulder Level", ShoulderLevelRange.Max),
		angle(posture.HipRotation, "Hip Rotation", HipRotationRange),
		magnitude(posture.HeadTilt, "Head Tilt", HeadTiltRange.Max),
	}
}

func say(text string) posture.Advice {
	return posture.Advice{Text: text, Speech: text}
}

// General returns the generic golf-stance evaluation. Its rules are ordered
// spine, knees, shoulders, hips, head. It has no cooldown of its own; the
// session's configured speech cooldown applies while no drill is selected.
func General() *Drill {
	return &Drill{
		ID:       GeneralID,
		Name:     "Golf Posture",
		Kind:     Golf,
		View:     Front,
		Required: stanceLandmarks,
		Rules: []posture.Rule{
			{
				Metric: posture.SpineTilt, Range: SpineTiltRange, Priority: 0,
				Below: say("Your spine is too upright, lean slightly forward"),
				Above: say("You're bending too far forward, straighten up a bit"),
			},
			{
				Metric: posture.KneeBend, Range: KneeBendRange, Priority: 1,
				Below: say("Bend your knees more, you're too stiff"),
				Above: say("Your knees are too bent, stand up slightly"),
			},
			{
				Metric: posture.ShoulderLevel, Range: ShoulderLevelRange, Priority: 2,
				Below: say("Level your shoulders, one is higher than the other"),
				Above: say("Level your shoulders, one is higher than the other"),
			},
			{
				Metric: posture.HipRotation, Range: HipRotationRange, Priority: 3,
				Below: say("Rotate your hips more for better power"),
				Above: say("You're over-rotating your hips, reduce the twist"),
			},
			{
				Metric: posture.HeadTilt, Range: HeadTiltRange, Priority: 4,
				Below: say("Lower your head slightly, don't look up too much"),
				Above: say("Lift your head, keep your eyes on the ball"),
			},
		},
		Good:   posture.Advice{Text: "Excellent posture - perfect golf stance!", Speech: "Excellent posture! Perfect golf stance!"},
		Labels: stanceLabels(),
	}
}

func golf(id, name, announcement string) *Drill {
	return &Drill{
		ID:           id,
		Name:         name,
		Kind:         Golf,
		View:         Front,
		Cooldown:     GolfCooldown,
		Announcement: announcement,
		Required:     stanceLandmarks,
		Labels:       stanceLabels(),
	}
}

// wallBack measures spine tilt from vertical, so a straight back reads
// near zero.
func wallBack() *Drill {
	d := golf(WallBack, "Wall-Back Alignment",
		"Wall-Back Alignment drill activated. Keep your spine straight and head aligned.")
	d.Description = "Stand tall as if your back were against a wall."
	d.Rules = []posture.Rule{
		{
			Metric: posture.SpineTilt, Range: posture.Range{Min: 0, Max: 5}, Priority: 0,
			Above: posture.Advice{Text: "Straighten your back", Speech: "Straighten your back against the imaginary wall."},
		},
		{
			Metric: posture.HeadTilt, Range: posture.Range{Min: -5, Max: 5}, Priority: 1,
			Below: posture.Advice{Text: "Align your head", Speech: "Adjust your head position to align with your spine."},
			Above: posture.Advice{Text: "Align your head", Speech: "Adjust your head position to align with your spine."},
		},
	}
	d.Good = posture.Advice{Text: "Perfect alignment!", Speech: "Perfect alignment! Your back is straight and head is level."}
	return d
}

func hipTwist() *Drill {
	d := golf(HipTwist, "Hip Twist",
		"Hip Twist drill activated. Focus on controlled hip rotation.")
	d.Description = "Rotate the hips into the ideal 20-45° window."
	d.Rules = []posture.Rule{{
		Metric: posture.HipRotation, Range: HipRotationRange,
		Below: posture.Advice{Text: "Increase hip rotation", Speech: "Twist your hips more. You need greater rotation."},
		Above: posture.Advice{Text: "Reduce hip rotation", Speech: "You're over-rotating. Reduce the twist slightly."},
	}}
	d.Good = posture.Advice{Text: "Optimal hip rotation!", Speech: "Great hip rotation! That's the sweet spot."}
	return d
}

func airSwing() *Drill {
	d := golf(AirSwing, "Air Swing",
		"Air Swing drill activated. Coordinate your shoulder and hip movement.")
	d.Description = "Swing without a club, keeping shoulders level while the hips turn."
	d.Rules = []posture.Rule{
		{
			Metric: posture.ShoulderLevel, Range: ShoulderLevelRange, Priority: 0,
			Below: posture.Advice{Text: "Level your shoulders", Speech: "Focus on keeping your shoulders level during the swing."},
			Above: posture.Advice{Text: "Level your shoulders", Speech: "Focus on keeping your shoulders level during the swing."},
		},
		{
			Metric: posture.HipRotation, Range: HipRotationRange, Priority: 1,
			Below: posture.Advice{Text: "Sync hip and shoulder movement", Speech: "Adjust your hip rotation to match your shoulder movement."},
			Above: posture.Advice{Text: "Sync hip and shoulder movement", Speech: "Adjust your hip rotation to match your shoulder movement."},
		},
	}
	d.Good = posture.Advice{Text: "Perfect swing coordination!", Speech: "Beautiful coordination! Shoulders and hips moving perfectly together."}
	return d
}

// shoulderTilt names the higher shoulder. A positive level means the right
// shoulder sits lower in the image, so the left one is higher.
func shoulderTilt() *Drill {
	d := golf(ShoulderTilt, "Shoulder Tilt Control",
		"Shoulder Tilt Control drill activated. Keep your shoulders level.")
	d.Description = "Hold both shoulders at the same height."
	d.Rules = []posture.Rule{{
		Metric: posture.ShoulderLevel, Range: ShoulderLevelRange,
		Below: posture.Advice{Text: "Lower your right shoulder", Speech: "Your right shoulder is higher. Level them out."},
		Above: posture.Advice{Text: "Lower your left shoulder", Speech: "Your left shoulder is higher. Level them out."},
	}}
	d.Good = posture.Advice{Text: "Shoulders perfectly level!", Speech: "Excellent! Your shoulders are perfectly level."}
	return d
}

// balance grades sway in two tiers: under 10 is steady, under 20 sways.
// From 20 both rules fail and the severe one, having the lower priority
// number, is surfaced.
func balance() *Drill {
	d := golf(Balance, "Balance",
		"Balance drill activated. Hold steady on one leg.")
	d.Description = "Hold a one-legged stance with a still head and level shoulders."
	d.Rules = []posture.Rule{
		{
			Metric: posture.Stability, Range: posture.Range{Min: 0, Max: 20, OpenMax: true}, Priority: 0,
			Above: posture.Advice{Text: "Stabilize your stance", Speech: "You're losing balance. Engage your core and stabilize.", Severe: true},
		},
		{
			Metric: posture.Stability, Range: posture.Range{Min: 0, Max: 10, OpenMax: true}, Priority: 1,
			Above: posture.Advice{Text: "Reduce body sway", Speech: "Good balance, but try to reduce the sway."},
		},
	}
	d.Good = posture.Advice{Text: "Excellent stability!", Speech: "Rock solid balance! You're holding steady."}
	d.Labels = append(d.Labels, Label{
		Metric: posture.Stability,
		Title:  "Stability",
		Render: func(v float64) (string, bool) {
			switch {
			case v < 10:
				return "Steady", true
			case v < 20:
				return "Swaying", false
			default:
				return "Unstable", false
			}
		},
	})
	return d
}
