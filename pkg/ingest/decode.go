package ingest

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-coach/pkg/landmark"
	"github.com/teslashibe/go-coach/pkg/protocol"
	"github.com/teslashibe/go-coach/pkg/retarget"
	"github.com/teslashibe/go-coach/pkg/skeleton"
)

var knownJoints = func() map[skeleton.Joint]bool {
	m := make(map[skeleton.Joint]bool, len(skeleton.Joints))
	for _, j := range skeleton.Joints {
		m[j] = true
	}
	return m
}()

// Decode converts a frame payload into a landmark frame and an optional
// solved pose. A payload with no landmarks decodes to the empty frame.
// Solved segments keyed by unknown joint names are ignored.
func Decode(data *protocol.FrameData, minVisibility float64) (landmark.Frame, retarget.SolvedPose, error) {
	if data.Empty() {
		return landmark.Frame{}, nil, nil
	}
	f, err := data.ToFrame(minVisibility)
	if err != nil {
		return f, nil, err
	}
	if len(data.Solved) == 0 {
		return f, nil, nil
	}

	solved := make(retarget.SolvedPose, len(data.Solved))
	for name, seg := range data.Solved {
		j := skeleton.Joint(name)
		if !knownJoints[j] {
			continue
		}
		out := retarget.Segment{Rotation: skeleton.Euler{X: seg.Rotation[0], Y: seg.Rotation[1], Z: seg.Rotation[2]}}
		if seg.Position != nil {
			p := r3.Vec{X: seg.Position[0], Y: seg.Position[1], Z: seg.Position[2]}
			out.Position = &p
		}
		solved[j] = out
	}
	if len(solved) == 0 {
		return f, nil, nil
	}
	return f, solved, nil
}

// Encode is the inverse of Decode for a solved pose.
func Encode(solved retarget.SolvedPose) map[string]protocol.SegmentData {
	if len(solved) == 0 {
		return nil
	}
	out := make(map[string]protocol.SegmentData, len(solved))
	for j, seg := range solved {
		d := protocol.SegmentData{Rotation: [3]float64{seg.Rotation.X, seg.Rotation.Y, seg.Rotation.Z}}
		if seg.Position != nil {
			d.Position = &[3]float64{seg.Position.X, seg.Position.Y, seg.Position.Z}
		}
		out[string(j)] = d
	}
	return out
}
