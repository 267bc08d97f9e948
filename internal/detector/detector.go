package detector

import "gocv.io/x/gocv"

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected pose.
	// Returns nil if no person is detected.
	Detect(frame *gocv.Mat) (*Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// InferenceWidth is the frame width sent to the pose model. Frames are
	// downscaled before inference for performance; keypoint coordinates are
	// reported back in the original frame's coordinate space.
	InferenceWidth int

	// InferenceHeight is the frame height sent to the pose model.
	InferenceHeight int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		InferenceWidth:  480,
		InferenceHeight: 360,
	}
}
