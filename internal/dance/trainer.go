package dance

import (
	"fmt"

	"github.com/ayusman/tandava/internal/detector"
)

// Trainer condenses several recorded detections of the same pose into one
// reference pose. Averaging over a short burst of frames smooths out
// detector jitter that a single frame would bake into the library.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Train averages the given pose samples into a single reference pose.
// Each joint's position is the mean over samples where that joint was
// visible; its confidence is the fraction of samples that saw it. Joints
// invisible in every sample come out with zero confidence, so the matcher
// ignores them.
func (t *Trainer) Train(samples []*detector.Pose) (*detector.Pose, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}
	for i, s := range samples {
		if s == nil {
			return nil, fmt.Errorf("sample %d is nil", i)
		}
	}

	averaged := &detector.Pose{}
	var confSum float64

	for i := 0; i < detector.NumKeypoints; i++ {
		var sumX, sumY float64
		seen := 0
		for _, s := range samples {
			kp := s.Keypoints[i]
			if !kp.Visible() {
				continue
			}
			sumX += kp.X
			sumY += kp.Y
			seen++
		}

		if seen == 0 {
			averaged.Keypoints[i] = detector.Keypoint{Name: detector.KeypointNames[i]}
			continue
		}

		n := float64(seen)
		kp := detector.Keypoint{
			X:          sumX / n,
			Y:          sumY / n,
			Confidence: n / float64(len(samples)),
			Name:       detector.KeypointNames[i],
		}
		averaged.Keypoints[i] = kp
		confSum += kp.Confidence
	}

	averaged.Confidence = confSum / float64(detector.NumKeypoints)
	return averaged, nil
}
