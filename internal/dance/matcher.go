package dance

import (
	"math"

	"github.com/ayusman/tandava/internal/detector"
)

// ImportantKeypoints is the 12-joint subset used for similarity scoring:
// shoulders, elbows, wrists, hips, knees, ankles. Face and finger joints are
// too noisy to grade a dance pose on.
var ImportantKeypoints = [12]int{
	detector.LeftShoulder, detector.RightShoulder,
	detector.LeftElbow, detector.RightElbow,
	detector.LeftWrist, detector.RightWrist,
	detector.LeftHip, detector.RightHip,
	detector.LeftKnee, detector.RightKnee,
	detector.LeftAnkle, detector.RightAnkle,
}

// Config holds the matcher's tunables.
//
// SimilarityFloor and the good/perfect thresholds are independent knobs with
// no derivation tying them together; tests override them freely.
type Config struct {
	// MatchThreshold is the similarity at and above which a match is
	// perfect. Good matches start at 0.7x this value.
	MatchThreshold float64

	// SimilarityFloor is the absolute minimum similarity for a best
	// candidate to be reported at all.
	SimilarityFloor float64

	// MaxPoseDistance scales the exponential distance-to-similarity
	// mapping; it is expressed in normalized pose units.
	MaxPoseDistance float64

	// RefJointA and RefJointB form the reference pair whose distance
	// defines the normalization scale.
	RefJointA int
	RefJointB int
}

// DefaultConfig returns the matcher defaults: 0.8 match threshold, 0.3
// similarity floor, 100-unit max distance, shoulders as the reference pair.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:  0.8,
		SimilarityFloor: 0.3,
		MaxPoseDistance: 100,
		RefJointA:       detector.LeftShoulder,
		RefJointB:       detector.RightShoulder,
	}
}

// Match is the result of comparing a live pose against the library.
// It is recomputed every frame and never persisted.
type Match struct {
	PoseName         string  `json:"pose_name"`
	Similarity       float64 `json:"similarity"`
	Distance         float64 `json:"distance"`
	MatchedKeypoints int     `json:"matched_keypoints"`
	TotalKeypoints   int     `json:"total_keypoints"`
	IsGoodMatch      bool    `json:"is_good_match"`
	IsPerfectMatch   bool    `json:"is_perfect_match"`
}

// Accuracy returns the ratio of matched to total keypoints, 0 if none.
func (m *Match) Accuracy() float64 {
	if m.TotalKeypoints == 0 {
		return 0
	}
	return float64(m.MatchedKeypoints) / float64(m.TotalKeypoints)
}

// Matcher scores live poses against every entry of a reference library.
type Matcher struct {
	library *Library
	config  Config
}

// NewMatcher creates a Matcher over the given library.
func NewMatcher(library *Library, config Config) *Matcher {
	return &Matcher{
		library: library,
		config:  config,
	}
}

// Library returns the matcher's reference library.
func (m *Matcher) Library() *Library {
	return m.library
}

// Config returns the matcher's configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// Match compares a detected pose against every library pose and returns the
// best candidate, or nil when no pose is detected, the library is empty, or
// the best similarity does not clear the configured floor. Ties keep the
// first-seen candidate in library insertion order.
func (m *Matcher) Match(live *detector.Pose) *Match {
	if live == nil || m.library.Len() == 0 {
		return nil
	}

	normalized := live.NormalizeScale(m.config.RefJointA, m.config.RefJointB)

	var best *Match
	bestSimilarity := 0.0

	for _, name := range m.library.Names() {
		ref, ok := m.library.Get(name)
		if !ok {
			continue
		}

		similarity, distance, matched := m.similarity(normalized, ref.ToPose())
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = &Match{
				PoseName:         name,
				Similarity:       similarity,
				Distance:         distance,
				MatchedKeypoints: matched,
				TotalKeypoints:   len(ImportantKeypoints),
				IsGoodMatch:      similarity >= m.config.MatchThreshold*0.7,
				IsPerfectMatch:   similarity >= m.config.MatchThreshold,
			}
		}
	}

	if best == nil || best.Similarity <= m.config.SimilarityFloor {
		return nil
	}
	return best
}

// similarity scores one normalized live pose against one reference pose.
// The reference is normalized with the same joint pair, then only important
// keypoints visible in both poses are compared. Zero valid comparisons yield
// similarity 0 and infinite distance, so the candidate is never selected.
func (m *Matcher) similarity(live, ref *detector.Pose) (similarity, avgDistance float64, matched int) {
	ref = ref.NormalizeScale(m.config.RefJointA, m.config.RefJointB)

	var totalDistance float64
	var validComparisons int

	for _, idx := range ImportantKeypoints {
		kpLive, okLive := live.Keypoint(idx)
		kpRef, okRef := ref.Keypoint(idx)

		if !okLive || !okRef || !kpLive.Visible() || !kpRef.Visible() {
			continue
		}

		distance := kpLive.DistanceTo(kpRef)
		totalDistance += distance
		validComparisons++

		if distance < m.config.MaxPoseDistance*0.3 {
			matched++
		}
	}

	if validComparisons == 0 {
		return 0, math.Inf(1), 0
	}

	avgDistance = totalDistance / float64(validComparisons)
	similarity = math.Exp(-avgDistance / m.config.MaxPoseDistance)

	return similarity, avgDistance, matched
}
