package dance

import "github.com/ayusman/tandava/internal/detector"

// SamplePoses returns the built-in default pose set. It is used to seed an
// empty library when no persisted poses are available, so a fresh install is
// playable out of the box.
func SamplePoses() []*Pose {
	return []*Pose{
		{
			Name:        "T-Pose",
			Keypoints:   detector.TPose().Keypoints,
			Difficulty:  DifficultyEasy,
			Tags:        []string{"basic", "calibration"},
			Description: "Arms extended horizontally, basic pose",
		},
		{
			Name:        "Victory_Pose",
			Keypoints:   detector.VictoryPose().Keypoints,
			Difficulty:  DifficultyEasy,
			Tags:        []string{"celebration", "arms_up"},
			Description: "Both arms raised up in victory",
		},
		{
			Name:        "Disco_Point",
			Keypoints:   detector.DiscoPointPose().Keypoints,
			Difficulty:  DifficultyMedium,
			Tags:        []string{"disco", "pointing", "dance"},
			Description: "Classic disco pointing pose",
		},
	}
}
