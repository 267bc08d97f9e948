// Package dance provides the reference pose library and the pose similarity
// engine for the Tandava dance game.
package dance

import (
	"github.com/ayusman/tandava/internal/detector"
)

// Difficulty grades how hard a reference pose is to hit.
type Difficulty string

const (
	// DifficultyEasy marks poses suitable for warm-up.
	DifficultyEasy Difficulty = "easy"
	// DifficultyMedium is the default difficulty.
	DifficultyMedium Difficulty = "medium"
	// DifficultyHard marks poses requiring balance or flexibility.
	DifficultyHard Difficulty = "hard"
)

// ParseDifficulty maps a string to a Difficulty, defaulting to medium for
// unknown values.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	default:
		return DifficultyMedium
	}
}

// Pose is a named reference pose players are asked to strike.
type Pose struct {
	Name        string
	Keypoints   [detector.NumKeypoints]detector.Keypoint
	Difficulty  Difficulty
	Tags        []string
	Description string
}

// ToPose converts the reference pose to a detector.Pose with full confidence.
func (p *Pose) ToPose() *detector.Pose {
	return &detector.Pose{
		Keypoints:  p.Keypoints,
		Confidence: 1.0,
	}
}

// Library is an insertion-ordered collection of reference poses keyed by
// unique name. Name uniqueness is enforced at this boundary: adding an
// existing name overwrites the pose in place without changing its position.
type Library struct {
	order []string
	poses map[string]*Pose
}

// NewLibrary creates an empty pose library.
func NewLibrary() *Library {
	return &Library{
		poses: make(map[string]*Pose),
	}
}

// Add inserts a reference pose built from the given detected pose, or
// overwrites the existing pose with the same name.
func (l *Library) Add(name string, pose *detector.Pose, difficulty Difficulty, tags []string, description string) {
	if difficulty == "" {
		difficulty = DifficultyMedium
	}

	entry := &Pose{
		Name:        name,
		Keypoints:   pose.Keypoints,
		Difficulty:  difficulty,
		Tags:        append([]string(nil), tags...),
		Description: description,
	}

	if _, exists := l.poses[name]; !exists {
		l.order = append(l.order, name)
	}
	l.poses[name] = entry
}

// AddPose inserts or overwrites a fully constructed reference pose.
func (l *Library) AddPose(pose *Pose) {
	if pose == nil {
		return
	}
	if _, exists := l.poses[pose.Name]; !exists {
		l.order = append(l.order, pose.Name)
	}
	l.poses[pose.Name] = pose
}

// Remove deletes the pose with the given name and reports whether it existed.
func (l *Library) Remove(name string) bool {
	if _, exists := l.poses[name]; !exists {
		return false
	}
	delete(l.poses, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the pose with the given name, or false if absent.
func (l *Library) Get(name string) (*Pose, bool) {
	pose, ok := l.poses[name]
	return pose, ok
}

// Contains reports whether a pose with the given name exists.
func (l *Library) Contains(name string) bool {
	_, ok := l.poses[name]
	return ok
}

// Names returns all pose names in insertion order. Iteration order is the
// documented tie-break for the matcher: earlier poses win similarity ties.
func (l *Library) Names() []string {
	return append([]string(nil), l.order...)
}

// NamesByDifficulty returns pose names with an exact difficulty match,
// in insertion order.
func (l *Library) NamesByDifficulty(d Difficulty) []string {
	var names []string
	for _, name := range l.order {
		if l.poses[name].Difficulty == d {
			names = append(names, name)
		}
	}
	return names
}

// Len returns the number of poses in the library.
func (l *Library) Len() int {
	return len(l.poses)
}

// Clear removes all poses.
func (l *Library) Clear() {
	l.order = nil
	l.poses = make(map[string]*Pose)
}
