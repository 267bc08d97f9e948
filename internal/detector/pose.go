// Package detector provides body pose detection interfaces and types for the
// Tandava dance game.
package detector

import "math"

// Body keypoint indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose          = 0
	LeftEyeInner  = 1
	LeftEye       = 2
	LeftEyeOuter  = 3
	RightEyeInner = 4
	RightEye      = 5
	RightEyeOuter = 6
	LeftEar       = 7
	RightEar      = 8
	MouthLeft     = 9
	MouthRight    = 10
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftPinky     = 17
	RightPinky    = 18
	LeftIndex     = 19
	RightIndex    = 20
	LeftThumb     = 21
	RightThumb    = 22
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	LeftHeel      = 29
	RightHeel     = 30
	LeftFootIndex = 31
	RightFootIndex = 32
	NumKeypoints  = 33
)

// VisibleConfidence is the confidence threshold below which a keypoint is
// treated as not reliably visible. Such keypoints are excluded from centroid
// and bounding box computations and from similarity comparisons.
const VisibleConfidence = 0.5

// KeypointNames maps keypoint indices to their MediaPipe Pose names.
var KeypointNames = [NumKeypoints]string{
	"NOSE", "LEFT_EYE_INNER", "LEFT_EYE", "LEFT_EYE_OUTER",
	"RIGHT_EYE_INNER", "RIGHT_EYE", "RIGHT_EYE_OUTER",
	"LEFT_EAR", "RIGHT_EAR", "MOUTH_LEFT", "MOUTH_RIGHT",
	"LEFT_SHOULDER", "RIGHT_SHOULDER", "LEFT_ELBOW", "RIGHT_ELBOW",
	"LEFT_WRIST", "RIGHT_WRIST", "LEFT_PINKY", "RIGHT_PINKY",
	"LEFT_INDEX", "RIGHT_INDEX", "LEFT_THUMB", "RIGHT_THUMB",
	"LEFT_HIP", "RIGHT_HIP", "LEFT_KNEE", "RIGHT_KNEE",
	"LEFT_ANKLE", "RIGHT_ANKLE", "LEFT_HEEL", "RIGHT_HEEL",
	"LEFT_FOOT_INDEX", "RIGHT_FOOT_INDEX",
}

// Keypoint represents a single tracked body landmark in 2D space.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Name       string  `json:"name,omitempty"`
}

// Visible reports whether the keypoint is reliably visible.
func (k Keypoint) Visible() bool {
	return k.Confidence > VisibleConfidence
}

// DistanceTo calculates the Euclidean distance to another keypoint.
func (k Keypoint) DistanceTo(other Keypoint) float64 {
	dx := k.X - other.X
	dy := k.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Pose represents a complete body pose with all 33 keypoints.
// Keypoint order is fixed and positional: index equals joint identity.
// Poses are never mutated in place; transformations return a new Pose.
type Pose struct {
	Keypoints  [NumKeypoints]Keypoint `json:"keypoints"`
	Confidence float64                `json:"confidence"`
	PersonID   int                    `json:"person_id,omitempty"`
	Timestamp  int64                  `json:"timestamp,omitempty"`
}

// Keypoint returns the keypoint at the given index, or false if the index is
// out of range.
func (p *Pose) Keypoint(index int) (Keypoint, bool) {
	if index < 0 || index >= NumKeypoints {
		return Keypoint{}, false
	}
	return p.Keypoints[index], true
}

// KeypointByName returns the first keypoint with the given name, or false if
// no keypoint carries it.
func (p *Pose) KeypointByName(name string) (Keypoint, bool) {
	for _, kp := range p.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// BoundingBox returns the bounding box (x, y, width, height) covering all
// visible keypoints. Returns zeros if no keypoint is visible.
func (p *Pose) BoundingBox() (x, y, w, h float64) {
	first := true
	var minX, maxX, minY, maxY float64

	for _, kp := range p.Keypoints {
		if !kp.Visible() {
			continue
		}
		if first {
			minX, maxX = kp.X, kp.X
			minY, maxY = kp.Y, kp.Y
			first = false
			continue
		}
		if kp.X < minX {
			minX = kp.X
		}
		if kp.X > maxX {
			maxX = kp.X
		}
		if kp.Y < minY {
			minY = kp.Y
		}
		if kp.Y > maxY {
			maxY = kp.Y
		}
	}

	if first {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX - minX, maxY - minY
}

// NormalizeScale rescales and recenters the pose so that the distance between
// the two reference keypoints (typically the shoulders) becomes 100 units,
// centered on the centroid of the visible keypoints. Poses captured at
// different camera distances become directly comparable by Euclidean joint
// distance after normalization.
//
// Normalization is best effort and never fails: if either reference keypoint
// is out of range or not reliably visible, or the reference distance is zero,
// the input pose is returned unchanged.
func (p *Pose) NormalizeScale(refA, refB int) *Pose {
	kpA, okA := p.Keypoint(refA)
	kpB, okB := p.Keypoint(refB)
	if !okA || !okB || !kpA.Visible() || !kpB.Visible() {
		return p
	}

	refDistance := kpA.DistanceTo(kpB)
	if refDistance == 0 {
		return p
	}

	scaleFactor := 100.0 / refDistance

	// Centroid over visible keypoints only.
	var sumX, sumY float64
	var visible int
	for _, kp := range p.Keypoints {
		if kp.Visible() {
			sumX += kp.X
			sumY += kp.Y
			visible++
		}
	}
	if visible == 0 {
		return p
	}
	centerX := sumX / float64(visible)
	centerY := sumY / float64(visible)

	normalized := &Pose{
		Confidence: p.Confidence,
		PersonID:   p.PersonID,
		Timestamp:  p.Timestamp,
	}
	// Every keypoint is remapped, regardless of its own confidence.
	for i, kp := range p.Keypoints {
		normalized.Keypoints[i] = Keypoint{
			X:          (kp.X-centerX)*scaleFactor + centerX,
			Y:          (kp.Y-centerY)*scaleFactor + centerY,
			Confidence: kp.Confidence,
			Name:       kp.Name,
		}
	}

	return normalized
}
