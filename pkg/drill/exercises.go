package drill

import (
	lm "github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/posture"
)

// Exercise drill ids.
const (
	Squat     = "squat"
	Pushup    = "pushup"
	BicepCurl = "bicepcurl"
	GolfSwing = "golfswing"
)

func exercise(id, name string, view View) *Drill {
	return &Drill{
		ID:           id,
		Name:         name,
		Kind:         Exercise,
		View:         view,
		Cooldown:     ExerciseCooldown,
		Announcement: name + " selected - Press Start to begin!",
	}
}

func squat() *Drill {
	d := exercise(Squat, "Squat", Side)
	d.Description = "Bodyweight squat filmed from the side; aim for a 90° knee angle."
	d.Required = []lm.Index{lm.LeftHip, lm.LeftKnee, lm.LeftAnkle}
	d.Rules = []posture.Rule{
		{
			Metric:   posture.SpineAlignment,
			Range:    posture.Range{Min: 0, Max: 0.08},
			Priority: 0,
			Above:    posture.Advice{Text: "Straighten your back", Speech: "Straighten your back"},
		},
		{
			Metric:   posture.KneeAngle,
			Range:    posture.Range{Min: 80, Max: 100},
			Priority: 1,
			Below:    posture.Advice{Text: "Don't go too low!"},
			Above:    posture.Advice{Text: "Go lower!", Speech: "Go lower"},
		},
	}
	d.Good = posture.Advice{Text: "Great squat depth!"}
	d.Labels = []Label{
		angle(posture.KneeAngle, "Knee Angle", posture.Range{Min: 80, Max: 100}),
		above(posture.HipDepth, "Hip Depth", 0.1, "Good", "Shallow"),
		below(posture.SpineAlignment, "Spine", 0.05, "Aligned", "Leaning"),
	}
	return d
}

func pushup() *Drill {
	d := exercise(Pushup, "Push-up", Front)
	d.Description = "Push-up with a straight body line from shoulders to ankles."
	d.Required = []lm.Index{lm.LeftShoulder, lm.LeftElbow, lm.LeftWrist}
	d.Rules = []posture.Rule{
		{
			Metric:   posture.BodyLine,
			Range:    posture.Range{Min: 0, Max: 0.06},
			Priority: 0,
			Above:    posture.Advice{Text: "Engage core - keep body straight!", Speech: "Tighten your core"},
		},
		{
			Metric:   posture.ElbowAngle,
			Range:    posture.Range{Min: 0, Max: 120},
			Priority: 1,
			Above:    posture.Advice{Text: "Lower your chest more", Speech: "Go lower"},
		},
	}
	d.Praise = []Praise{{
		Metric: posture.ElbowAngle,
		Range:  posture.Range{Min: 85, Max: 95},
		Advice: posture.Advice{Text: "Perfect push-up depth!"},
	}}
	d.Good = posture.Advice{Text: "Great body alignment!"}
	d.Labels = []Label{
		angle(posture.ElbowAngle, "Elbow Angle", posture.Range{Min: 85, Max: 95}),
		below(posture.BodyLine, "Body Line", 0.05, "Straight", "Sagging"),
	}
	return d
}

func bicepCurl() *Drill {
	d := exercise(BicepCurl, "Bicep Curl", Front)
	d.Description = "Standing curl through the full range with both arms together."
	d.Required = []lm.Index{lm.LeftShoulder, lm.LeftElbow, lm.LeftWrist}
	d.Rules = []posture.Rule{
		{
			Metric:   posture.ArmSymmetry,
			Range:    posture.Range{Min: 0, Max: 0.08},
			Priority: 0,
			Above:    posture.Advice{Text: "Keep both arms in sync", Speech: "Sync your arms"},
		},
		{
			Metric:   posture.ElbowAngle,
			Range:    posture.Range{Min: 0, Max: 160},
			Priority: 1,
			Above:    posture.Advice{Text: "Curl up - bring weights to shoulders", Speech: "Curl up"},
		},
	}
	d.Praise = []Praise{{
		Metric: posture.ElbowAngle,
		Range:  posture.Range{Min: 0, Max: 30},
		Advice: posture.Advice{Text: "Great curl! Full contraction"},
	}}
	d.Good = posture.Advice{Text: "Keep going!"}
	d.Labels = []Label{
		angle(posture.ElbowAngle, "Elbow Angle", posture.Range{Min: 0, Max: 30}),
		above(posture.CurlRange, "Range", 0.15, "Full", "Partial"),
		below(posture.ArmSymmetry, "Symmetry", 0.05, "Balanced", "Uneven"),
	}
	return d
}

func golfSwing() *Drill {
	d := exercise(GolfSwing, "Golf Swing", Front)
	d.Description = "Address position: spine over hips, soft knees, shoulders wider than hips."
	d.Required = []lm.Index{lm.LeftShoulder, lm.LeftHip, lm.LeftKnee}
	d.Rules = []posture.Rule{
		{
			Metric:   posture.SpineAlignment,
			Range:    posture.Range{Min: 0, Max: 0.08},
			Priority: 0,
			Above:    posture.Advice{Text: "Keep your spine straight", Speech: "Straighten your spine"},
		},
		{
			Metric:   posture.KneeFlex,
			Range:    posture.Range{Min: 150, Max: 180},
			Priority: 1,
			Below:    posture.Advice{Text: "Slightly bend your knees", Speech: "Bend your knees slightly"},
		},
	}
	d.Good = posture.Advice{Text: "Good posture and stance!"}
	d.Labels = []Label{
		below(posture.SpineAlignment, "Posture", 0.05, "Aligned", "Leaning"),
		angle(posture.KneeFlex, "Knee Flex", posture.Range{Min: 150, Max: 180}),
		above(posture.StanceRatio, "Stance", 1.2, "Wide", "Narrow"),
	}
	return d
}
