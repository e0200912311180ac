// Package rigidbody estimates the orientation and position of a rigid object
// from the positions of the markers fixed to it.
package rigidbody

import (
	"github.com/banshee-data/grip.monitor/internal/vectors"
)

// MaxMarkers bounds the number of marker pairs considered by ComputePose.
// Extra markers are ignored.
const MaxMarkers = 20

// InvalidValue fills every field of a pose that could not be computed.
const InvalidValue = -999.999

// Pose is the displacement and rotation that carry the model marker set onto
// the measured markers.
type Pose struct {
	Position    vectors.Vector3
	Orientation vectors.Quaternion
}

// InvalidPose is returned when too few markers were supplied to fix a pose.
var InvalidPose = Pose{
	Position:    vectors.Vector3{InvalidValue, InvalidValue, InvalidValue},
	Orientation: vectors.Quaternion{InvalidValue, InvalidValue, InvalidValue, InvalidValue},
}

// ComputePose fits a pose to paired marker positions. model holds the marker
// positions with the body at the origin in the null orientation; actual holds
// the measured positions of the same markers in the same order. Callers pass
// visible markers only.
//
// With three markers the rotation is solved exactly; with more it is the
// least-squares best fit. With fewer than three, or with markers that all lie
// on one line, fallback is used as the orientation when non-nil and only the
// position is estimated; otherwise InvalidPose is returned with ok false.
func ComputePose(model, actual []vectors.Vector3, fallback *vectors.Quaternion) (pose Pose, ok bool) {
	n := len(model)
	if len(actual) < n {
		n = len(actual)
	}
	if n > MaxMarkers {
		n = MaxMarkers
	}
	model, actual = model[:n], actual[:n]

	var (
		orientation vectors.Quaternion
		solved      bool
	)
	switch {
	case n > 3:
		orientation, solved = bestFitOrientation(model, actual)
	case n == 3:
		orientation, solved = exactOrientation(model, actual)
	}
	if !solved {
		if fallback == nil || n == 0 {
			return InvalidPose, false
		}
		orientation = *fallback
	}

	return Pose{
		Position:    meanOffset(model, actual, orientation),
		Orientation: orientation,
	}, true
}

// exactOrientation builds a frame on each marker triple and returns the
// rotation inverse(modelFrame) * actualFrame. It fails for a collinear triple.
func exactOrientation(model, actual []vectors.Vector3) (vectors.Quaternion, bool) {
	modelFrame := vectors.FrameFromPoints(model[0], model[1], model[2])
	actualFrame := vectors.FrameFromPoints(actual[0], actual[1], actual[2])

	inverse, ok := modelFrame.Inverse()
	if !ok {
		return vectors.Quaternion{}, false
	}
	if _, ok := actualFrame.Inverse(); !ok {
		return vectors.Quaternion{}, false
	}
	return vectors.MatrixToQuaternion(inverse.Mul(actualFrame)), true
}

// collinearSine is the sine of the angle between two deltas below which
// they are treated as lying on one line.
const collinearSine = 1e-9

// bestFitOrientation fits the rotation between the centred marker sets.
// Both sets are first displaced along the normal to a pair of their deltas
// that span a plane, so that a coplanar marker layout still yields a
// full-rank covariance. It fails when every delta lies on one line.
func bestFitOrientation(model, actual []vectors.Vector3) (vectors.Quaternion, bool) {
	modelDelta := centred(model)
	actualDelta := centred(actual)

	i, j, ok := spanningPair(modelDelta, actualDelta)
	if !ok {
		return vectors.Quaternion{}, false
	}
	length := modelDelta[i].Norm()
	modelShift := modelDelta[i].Cross(modelDelta[j]).Normalize().Scale(length)
	actualShift := actualDelta[i].Cross(actualDelta[j]).Normalize().Scale(length)
	for k := range modelDelta {
		modelDelta[k] = modelDelta[k].Sub(modelShift)
		actualDelta[k] = actualDelta[k].Sub(actualShift)
	}

	best := vectors.BestFitTransformation(modelDelta, actualDelta)
	return vectors.MatrixToQuaternion(best), true
}

// spanningPair finds the first pair of deltas that is not collinear in
// either set. Taking the same pair in both sets makes the two normals
// correspond under the rotation being fitted.
func spanningPair(model, actual []vectors.Vector3) (i, j int, ok bool) {
	for i = 0; i < len(model); i++ {
		for j = i + 1; j < len(model); j++ {
			if spansPlane(model[i], model[j]) && spansPlane(actual[i], actual[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func spansPlane(u, v vectors.Vector3) bool {
	scale := u.Norm() * v.Norm()
	return scale > 0 && u.Cross(v).Norm() > collinearSine*scale
}

func centred(points []vectors.Vector3) []vectors.Vector3 {
	c := vectors.Centroid(points)
	out := make([]vectors.Vector3, len(points))
	for i, p := range points {
		out[i] = p.Sub(c)
	}
	return out
}

// meanOffset averages actual - rotate(model) over all markers.
func meanOffset(model, actual []vectors.Vector3, q vectors.Quaternion) vectors.Vector3 {
	var sum vectors.Vector3
	for i := range model {
		sum = sum.Add(actual[i].Sub(q.RotateVector(model[i])))
	}
	return sum.Scale(1.0 / float64(len(model)))
}
