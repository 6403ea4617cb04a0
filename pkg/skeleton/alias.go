package skeleton

// Joint is a canonical humanoid joint name.
type Joint string

const (
	Hips          Joint = "Hips"
	Spine         Joint = "Spine"
	Chest         Joint = "Chest"
	Neck          Joint = "Neck"
	Head          Joint = "Head"
	LeftUpperArm  Joint = "LeftUpperArm"
	LeftLowerArm  Joint = "LeftLowerArm"
	RightUpperArm Joint = "RightUpperArm"
	RightLowerArm Joint = "RightLowerArm"
	LeftUpperLeg  Joint = "LeftUpperLeg"
	LeftLowerLeg  Joint = "LeftLowerLeg"
	RightUpperLeg Joint = "RightUpperLeg"
	RightLowerLeg Joint = "RightLowerLeg"
)

// Joints lists every canonical joint, root first.
var Joints = []Joint{
	Hips, Spine, Chest, Neck, Head,
	LeftUpperArm, LeftLowerArm, RightUpperArm, RightLowerArm,
	LeftUpperLeg, LeftLowerLeg, RightUpperLeg, RightLowerLeg,
}

// aliases are tried in order. The canonical name always comes first, then
// Mixamo, generic, snake_case and _JNT rig conventions.
var aliases = map[Joint][]string{
	Hips:          {"Hips", "mixamorigHips", "hips", "Hips_JNT"},
	Spine:         {"Spine", "mixamorigSpine", "spine", "Spine_JNT"},
	Chest:         {"Chest", "mixamorigSpine1", "chest", "upper_body", "Chest_JNT"},
	Neck:          {"Neck", "mixamorigNeck", "neck", "Neck_JNT"},
	Head:          {"Head", "mixamorigHead", "head", "Head_JNT"},
	LeftUpperArm:  {"LeftUpperArm", "mixamorigLeftArm", "LeftArm", "left_upper_arm", "LeftArm_JNT"},
	LeftLowerArm:  {"LeftLowerArm", "mixamorigLeftForeArm", "LeftForeArm", "left_lower_arm", "LeftForeArm_JNT"},
	RightUpperArm: {"RightUpperArm", "mixamorigRightArm", "RightArm", "right_upper_arm", "RightArm_JNT"},
	RightLowerArm: {"RightLowerArm", "mixamorigRightForeArm", "RightForeArm", "right_lower_arm", "RightForeArm_JNT"},
	LeftUpperLeg:  {"LeftUpperLeg", "mixamorigLeftUpLeg", "LeftUpLeg", "left_upper_leg", "LeftUpLeg_JNT"},
	LeftLowerLeg:  {"LeftLowerLeg", "mixamorigLeftLeg", "LeftLeg", "left_lower_leg", "LeftLeg_JNT"},
	RightUpperLeg: {"RightUpperLeg", "mixamorigRightUpLeg", "RightUpLeg", "right_upper_leg", "RightUpLeg_JNT"},
	RightLowerLeg: {"RightLowerLeg", "mixamorigRightLeg", "RightLeg", "right_lower_leg", "RightLeg_JNT"},
}

// Aliases returns the name candidates for j in lookup order.
func Aliases(j Joint) []string {
	return append([]string(nil), aliases[j]...)
}

// Leg reports whether the joint belongs to a leg.
func (j Joint) Leg() bool {
	switch j {
	case LeftUpperLeg, LeftLowerLeg, RightUpperLeg, RightLowerLeg:
		return true
	}
	return false
}

// Right reports whether the joint is on the right side of the body.
func (j Joint) Right() bool {
	switch j {
	case RightUpperArm, RightLowerArm, RightUpperLeg, RightLowerLeg:
		return true
	}
	return false
}
