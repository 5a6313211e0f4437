package types

import "time"

// SkillFilter is used to filter skill queries
type SkillFilter struct {
	CourseID   string // Only skills linked to this course
	NameSearch string // Substring match on name
	IsBase     *bool  // nil = any
	IDs        []string
	Limit      int
}

// TaskFilter is used to filter task queries
type TaskFilter struct {
	SkillID     string // Only tasks linked to this skill
	CourseID    string // Only tasks linked to this course
	TaskType    *TaskType
	Difficulty  *Difficulty
	ActiveOnly  bool
	TitleSearch string
	Limit       int
}

// AttemptFilter is used to filter attempt queries
type AttemptFilter struct {
	StudentID       string
	TaskID          string
	SkillID         string // Attempts on tasks linked to this skill
	CorrectOnly     bool
	CompletedAfter  *time.Time
	CompletedBefore *time.Time
	Limit           int
}

// FeedbackFilter is used to filter expert feedback queries
type FeedbackFilter struct {
	RecommendationID int64
	Expert           string
	Type             *FeedbackType
	UnusedOnly       bool // Only feedback not yet consumed by a training session
	Limit            int
}
