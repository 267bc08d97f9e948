package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	pose *Pose
	err  error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose that will be returned by Detect.
// Pass nil to simulate no person in frame.
func (m *MockDetector) SetPose(pose *Pose) {
	m.pose = pose
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Pose, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// presetKeypoint places a named body joint in a 640x480 frame space.
type presetKeypoint struct {
	index int
	x, y  float64
}

func presetPose(points []presetKeypoint) *Pose {
	pose := &Pose{Confidence: 0.95}
	for i := range pose.Keypoints {
		pose.Keypoints[i].Name = KeypointNames[i]
	}
	for _, pt := range points {
		pose.Keypoints[pt.index] = Keypoint{
			X:          pt.x * 640,
			Y:          pt.y * 480,
			Confidence: 1.0,
			Name:       KeypointNames[pt.index],
		}
	}
	return pose
}

// TPose returns a preset Pose with both arms extended horizontally.
// Coordinates match the built-in T-Pose library entry.
func TPose() *Pose {
	return presetPose([]presetKeypoint{
		{Nose, 0.5, 0.2},
		{LeftEye, 0.5, 0.25},
		{RightEye, 0.5, 0.25},
		{LeftShoulder, 0.3, 0.4},
		{RightShoulder, 0.7, 0.4},
		{LeftElbow, 0.1, 0.4},
		{RightElbow, 0.9, 0.4},
		{LeftWrist, 0.05, 0.4},
		{RightWrist, 0.95, 0.4},
		{LeftHip, 0.4, 0.6},
		{RightHip, 0.6, 0.6},
		{LeftKnee, 0.4, 0.8},
		{RightKnee, 0.6, 0.8},
		{LeftAnkle, 0.4, 1.0},
		{RightAnkle, 0.6, 1.0},
	})
}

// VictoryPose returns a preset Pose with both arms raised up.
// Coordinates match the built-in Victory_Pose library entry.
func VictoryPose() *Pose {
	return presetPose([]presetKeypoint{
		{Nose, 0.5, 0.2},
		{LeftEye, 0.5, 0.25},
		{RightEye, 0.5, 0.25},
		{LeftShoulder, 0.3, 0.4},
		{RightShoulder, 0.7, 0.4},
		{LeftElbow, 0.2, 0.3},
		{RightElbow, 0.8, 0.3},
		{LeftWrist, 0.15, 0.15},
		{RightWrist, 0.85, 0.15},
		{LeftHip, 0.4, 0.6},
		{RightHip, 0.6, 0.6},
		{LeftKnee, 0.4, 0.8},
		{RightKnee, 0.6, 0.8},
		{LeftAnkle, 0.4, 1.0},
		{RightAnkle, 0.6, 1.0},
	})
}

// DiscoPointPose returns a preset Pose with the right arm pointing up and out.
// Coordinates match the built-in Disco_Point library entry.
func DiscoPointPose() *Pose {
	return presetPose([]presetKeypoint{
		{Nose, 0.5, 0.2},
		{LeftEye, 0.5, 0.25},
		{RightEye, 0.5, 0.25},
		{LeftShoulder, 0.3, 0.4},
		{RightShoulder, 0.7, 0.4},
		{LeftElbow, 0.25, 0.35},
		{RightElbow, 0.9, 0.25},
		{LeftWrist, 0.2, 0.5},
		{RightWrist, 1.0, 0.1},
		{LeftHip, 0.4, 0.6},
		{RightHip, 0.6, 0.6},
		{LeftKnee, 0.4, 0.8},
		{RightKnee, 0.6, 0.8},
		{LeftAnkle, 0.4, 1.0},
		{RightAnkle, 0.6, 1.0},
	})
}
