// Package progress aggregates attempt history into learning statistics.
package progress

import (
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// Summary holds the aggregated learning statistics for one student.
type Summary struct {
	TotalAttempts  int        `json:"total_attempts"`
	TotalCorrect   int        `json:"total_correct"`
	Accuracy       float64    `json:"accuracy"`
	AvgTimeMinutes float64    `json:"avg_time_minutes"`
	FirstActivity  *time.Time `json:"first_activity,omitempty"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
	LearningSpeed  float64    `json:"learning_speed"`
	MasteredSkills int        `json:"mastered_skills"`
	TrackedSkills  int        `json:"tracked_skills"`
}

// recentWindow is how many of the latest attempts feed the learning-speed
// heuristic, and minRecent how many it needs to say anything at all.
const (
	recentWindow = 10
	minRecent    = 5
)

// Summarize computes the aggregate profile from a student's attempts
// (any order) and mastery rows.
func Summarize(attempts []*types.TaskAttempt, masteries []*types.SkillMastery) Summary {
	s := Summary{LearningSpeed: 0.5}

	for _, m := range masteries {
		s.TrackedSkills++
		if m.IsMastered() {
			s.MasteredSkills++
		}
	}

	if len(attempts) == 0 {
		return s
	}

	var timedCount int
	var timedTotal float64
	for _, a := range attempts {
		s.TotalAttempts++
		if a.IsCorrect {
			s.TotalCorrect++
		}
		if a.TimeSpentSec > 0 {
			timedCount++
			timedTotal += float64(a.TimeSpentSec)
		}
		if s.FirstActivity == nil || a.CompletedAt.Before(*s.FirstActivity) {
			t := a.CompletedAt
			s.FirstActivity = &t
		}
		if s.LastActivity == nil || a.CompletedAt.After(*s.LastActivity) {
			t := a.CompletedAt
			s.LastActivity = &t
		}
	}

	s.Accuracy = float64(s.TotalCorrect) / float64(s.TotalAttempts)
	if timedCount > 0 {
		s.AvgTimeMinutes = timedTotal / float64(timedCount) / 60
	}
	s.LearningSpeed = LearningSpeed(attempts)
	return s
}

// LearningSpeed estimates how quickly the student is improving: split the
// last 10 attempts in half chronologically and compare accuracies.
// 0.5 is neutral; the result is clamped to [0.1, 1.0]. With fewer than 5
// recent attempts there is no signal and the neutral value is returned.
func LearningSpeed(attempts []*types.TaskAttempt) float64 {
	recent := latest(attempts, recentWindow)
	if len(recent) < minRecent {
		return 0.5
	}

	mid := len(recent) / 2
	older := recent[:mid]
	newer := recent[mid:]

	improvement := accuracy(newer) - accuracy(older)
	speed := 0.5 + improvement
	if speed < 0.1 {
		return 0.1
	}
	if speed > 1.0 {
		return 1.0
	}
	return speed
}

// latest returns up to n attempts with the newest completion times,
// ordered oldest first. Input order does not matter.
func latest(attempts []*types.TaskAttempt, n int) []*types.TaskAttempt {
	sorted := make([]*types.TaskAttempt, len(attempts))
	copy(sorted, attempts)
	// Insertion sort: the window is tiny
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].CompletedAt.Before(sorted[j-1].CompletedAt); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

func accuracy(attempts []*types.TaskAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}
	correct := 0
	for _, a := range attempts {
		if a.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(attempts))
}

// CourseProgress returns the percentage of a course's skills the student has
// mastered, for enrollment progress tracking.
func CourseProgress(courseSkillIDs []string, masteries []*types.SkillMastery) int {
	if len(courseSkillIDs) == 0 {
		return 0
	}
	mastered := make(map[string]bool)
	for _, m := range masteries {
		if m.IsMastered() {
			mastered[m.SkillID] = true
		}
	}
	count := 0
	for _, id := range courseSkillIDs {
		if mastered[id] {
			count++
		}
	}
	return count * 100 / len(courseSkillIDs)
}
