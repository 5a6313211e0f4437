// Package types defines core data structures for the alearn adaptive learning backend.
package types

import (
	"fmt"
	"time"
)

// Course groups skills and tasks under an author-assigned identifier (e.g. "PY101").
type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks if the course has valid field values
func (c *Course) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("course id is required")
	}
	if len(c.ID) > 10 {
		return fmt.Errorf("course id must be 10 characters or less (got %d)", len(c.ID))
	}
	if c.Name == "" {
		return fmt.Errorf("course name is required")
	}
	return nil
}

// Skill is a node in the prerequisite graph
type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsBase      bool      `json:"is_base,omitempty"`
	Courses     []string  `json:"courses,omitempty"` // Course IDs, populated for export/import
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Prerequisites holds direct prerequisite skill IDs.
	// Populated only for export/import and graph snapshots.
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// Validate checks if the skill has valid field values
func (s *Skill) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	if len(s.Name) > 255 {
		return fmt.Errorf("skill name must be 255 characters or less (got %d)", len(s.Name))
	}
	return nil
}

// PrerequisiteEdge is a single directed edge in the skill graph.
// SkillID requires PrereqID: the prerequisite must be mastered first.
type PrerequisiteEdge struct {
	SkillID   string    `json:"skill_id"`
	PrereqID  string    `json:"prereq_id"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// TaskType categorizes how a task is answered
type TaskType string

// Task type constants
const (
	TaskSingleChoice   TaskType = "single"
	TaskMultipleChoice TaskType = "multiple"
	TaskTrueFalse      TaskType = "true_false"
)

// IsValid checks if the task type value is valid
func (t TaskType) IsValid() bool {
	switch t {
	case TaskSingleChoice, TaskMultipleChoice, TaskTrueFalse:
		return true
	}
	return false
}

// Difficulty is the authored difficulty level of a task
type Difficulty string

// Difficulty constants
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// IsValid checks if the difficulty value is valid
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Task is a practice item authored against one or more skills
type Task struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	TaskType      TaskType      `json:"task_type,omitempty"`
	Difficulty    Difficulty    `json:"difficulty,omitempty"`
	QuestionText  string        `json:"question_text"`
	CorrectAnswer string        `json:"correct_answer,omitempty"`
	Explanation   string        `json:"explanation,omitempty"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Skills        []string      `json:"skills,omitempty"`  // Skill IDs
	Courses       []string      `json:"courses,omitempty"` // Course IDs
	Answers       []*TaskAnswer `json:"answers,omitempty"` // Populated for export/import and show
}

// SetDefaults applies default values for fields omitted during import.
func (t *Task) SetDefaults() {
	if t.TaskType == "" {
		t.TaskType = TaskSingleChoice
	}
	if t.Difficulty == "" {
		t.Difficulty = DifficultyBeginner
	}
}

// Validate checks if the task has valid field values
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if len(t.Title) > 255 {
		return fmt.Errorf("task title must be 255 characters or less (got %d)", len(t.Title))
	}
	if t.QuestionText == "" {
		return fmt.Errorf("question text is required")
	}
	if !t.TaskType.IsValid() {
		return fmt.Errorf("invalid task type: %s", t.TaskType)
	}
	if !t.Difficulty.IsValid() {
		return fmt.Errorf("invalid difficulty: %s", t.Difficulty)
	}
	if t.TaskType == TaskTrueFalse && len(t.Answers) > 2 {
		return fmt.Errorf("true/false tasks cannot have more than 2 answer options (got %d)", len(t.Answers))
	}
	return nil
}

// TaskAnswer is one selectable answer option for a choice task
type TaskAnswer struct {
	ID        int64  `json:"id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
	Position  int    `json:"position"`
}

// Student is a learner profile
type Student struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email,omitempty"`
	Organization string    `json:"organization,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks if the student has valid field values
func (s *Student) Validate() error {
	if s.Username == "" {
		return fmt.Errorf("username is required")
	}
	if s.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	return nil
}

// EnrollmentStatus is the lifecycle state of a course enrollment
type EnrollmentStatus string

// Enrollment status constants
const (
	EnrollmentEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
	EnrollmentSuspended  EnrollmentStatus = "suspended"
	EnrollmentDropped    EnrollmentStatus = "dropped"
)

// IsValid checks if the enrollment status value is valid
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentEnrolled, EnrollmentInProgress, EnrollmentCompleted,
		EnrollmentSuspended, EnrollmentDropped:
		return true
	}
	return false
}

// IsActive returns true while the student is still working through the course
func (s EnrollmentStatus) IsActive() bool {
	return s == EnrollmentEnrolled || s == EnrollmentInProgress
}

// Enrollment records a student's participation in a course.
// A student enrolls in a course at most once.
type Enrollment struct {
	StudentID       string           `json:"student_id"`
	CourseID        string           `json:"course_id"`
	Status          EnrollmentStatus `json:"status"`
	ProgressPercent int              `json:"progress_percent"`
	FinalGrade      *float64         `json:"final_grade,omitempty"`
	EnrolledAt      time.Time        `json:"enrolled_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// Validate checks if the enrollment has valid field values
func (e *Enrollment) Validate() error {
	if e.StudentID == "" || e.CourseID == "" {
		return fmt.Errorf("student_id and course_id are required")
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("invalid enrollment status: %s", e.Status)
	}
	if e.ProgressPercent < 0 || e.ProgressPercent > 100 {
		return fmt.Errorf("progress must be between 0 and 100 (got %d)", e.ProgressPercent)
	}
	// Completion invariant: completed enrollments carry a timestamp, others don't
	if e.Status == EnrollmentCompleted && e.CompletedAt == nil {
		return fmt.Errorf("completed enrollments must have completed_at timestamp")
	}
	if e.Status != EnrollmentCompleted && e.CompletedAt != nil {
		return fmt.Errorf("non-completed enrollments cannot have completed_at timestamp")
	}
	return nil
}

// MasteryThreshold is the probability above which a skill counts as mastered
const MasteryThreshold = 0.8

// SkillMastery tracks one student's Bayesian Knowledge Tracing state for one skill
type SkillMastery struct {
	StudentID       string    `json:"student_id"`
	SkillID         string    `json:"skill_id"`
	InitialProb     float64   `json:"initial_prob"`    // P(L0)
	CurrentProb     float64   `json:"current_prob"`    // P(Lt)
	TransitionProb  float64   `json:"transition_prob"` // P(T)
	GuessProb       float64   `json:"guess_prob"`      // P(G)
	SlipProb        float64   `json:"slip_prob"`       // P(S)
	AttemptsCount   int       `json:"attempts_count"`
	CorrectAttempts int       `json:"correct_attempts"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsMastered reports whether the current mastery probability clears the threshold
func (m *SkillMastery) IsMastered() bool {
	return m.CurrentProb >= MasteryThreshold
}

// Accuracy returns the fraction of correct attempts, 0 when there are none
func (m *SkillMastery) Accuracy() float64 {
	if m.AttemptsCount == 0 {
		return 0
	}
	return float64(m.CorrectAttempts) / float64(m.AttemptsCount)
}

// TaskAttempt records one solution attempt by a student
type TaskAttempt struct {
	ID            int64     `json:"id"`
	StudentID     string    `json:"student_id"`
	TaskID        string    `json:"task_id"`
	IsCorrect     bool      `json:"is_correct"`
	GivenAnswer   string    `json:"given_answer,omitempty"`
	CorrectAnswer string    `json:"correct_answer,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	TimeSpentSec  int       `json:"time_spent_sec,omitempty"`
	Metadata      string    `json:"metadata,omitempty"` // JSON blob
}

// DeriveTimeSpent fills TimeSpentSec from the started/completed timestamps
// when it was not supplied explicitly.
func (a *TaskAttempt) DeriveTimeSpent() {
	if a.TimeSpentSec > 0 || a.StartedAt.IsZero() || a.CompletedAt.IsZero() {
		return
	}
	d := a.CompletedAt.Sub(a.StartedAt)
	if d > 0 {
		a.TimeSpentSec = int(d.Seconds())
	}
}

// Validate checks if the attempt has valid field values
func (a *TaskAttempt) Validate() error {
	if a.StudentID == "" {
		return fmt.Errorf("student_id is required")
	}
	if a.TaskID == "" {
		return fmt.Errorf("task_id is required")
	}
	if a.TimeSpentSec < 0 {
		return fmt.Errorf("time_spent_sec cannot be negative")
	}
	return nil
}

// SkillSnapshot captures one related skill's mastery at recommendation time.
// Stored alongside recommendations so the decision context survives later
// mastery updates.
type SkillSnapshot struct {
	SkillID   string  `json:"skill_id"`
	SkillName string  `json:"skill_name"`
	Mastery   float64 `json:"mastery"`
	Attempts  int     `json:"attempts"`
	Correct   int     `json:"correct"`
}

// Recommendation is one task recommendation produced for a student
type Recommendation struct {
	ID         int64     `json:"id"`
	StudentID  string    `json:"student_id"`
	TaskID     string    `json:"task_id"`
	QValue     float64   `json:"q_value"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	IsActive   bool      `json:"is_active"`

	// StateSnapshot is the serialized student state at generation time (JSON)
	StateSnapshot string `json:"state_snapshot,omitempty"`

	// Decision context for later review
	PrereqSnapshots    []SkillSnapshot `json:"prereq_snapshots,omitempty"`
	DependentSnapshots []SkillSnapshot `json:"dependent_snapshots,omitempty"`

	// AttemptID links the single attempt this recommendation produced, if any.
	// One-to-one: a recommendation holds at most one attempt.
	AttemptID *int64 `json:"attempt_id,omitempty"`
}

// CurrentRecommendation is the single active recommendation pointer per student
type CurrentRecommendation struct {
	StudentID        string    `json:"student_id"`
	RecommendationID int64     `json:"recommendation_id"`
	SetAt            time.Time `json:"set_at"`
	TimesViewed      int       `json:"times_viewed"`
}

// FeedbackType is the direction of an expert's reinforcement signal
type FeedbackType string

// Feedback type constants
const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// IsValid checks if the feedback type value is valid
func (t FeedbackType) IsValid() bool {
	return t == FeedbackPositive || t == FeedbackNegative
}

// FeedbackStrength scales an expert's reinforcement signal
type FeedbackStrength string

// Feedback strength constants
const (
	StrengthLow    FeedbackStrength = "low"
	StrengthMedium FeedbackStrength = "medium"
	StrengthHigh   FeedbackStrength = "high"
)

// IsValid checks if the feedback strength value is valid
func (s FeedbackStrength) IsValid() bool {
	switch s {
	case StrengthLow, StrengthMedium, StrengthHigh:
		return true
	}
	return false
}

// ExpertFeedback is one expert's reinforcement label on a recommendation.
// Each expert labels a recommendation at most once.
type ExpertFeedback struct {
	ID               int64            `json:"id"`
	RecommendationID int64            `json:"recommendation_id"`
	Expert           string           `json:"expert"`
	Type             FeedbackType     `json:"type"`
	Strength         FeedbackStrength `json:"strength"`
	Reward           float64          `json:"reward"`
	Comment          string           `json:"comment,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UsedForTraining  bool             `json:"used_for_training"`
}

// RewardValue maps feedback type and strength to a signed scalar reward:
// low 0.1, medium 0.5, high 1.0, negated for negative feedback.
func RewardValue(t FeedbackType, s FeedbackStrength) float64 {
	base := 0.5
	switch s {
	case StrengthLow:
		base = 0.1
	case StrengthMedium:
		base = 0.5
	case StrengthHigh:
		base = 1.0
	}
	if t == FeedbackNegative {
		return -base
	}
	return base
}

// Validate checks if the feedback has valid field values
func (f *ExpertFeedback) Validate() error {
	if f.RecommendationID == 0 {
		return fmt.Errorf("recommendation_id is required")
	}
	if f.Expert == "" {
		return fmt.Errorf("expert is required")
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("invalid feedback type: %s", f.Type)
	}
	if !f.Strength.IsValid() {
		return fmt.Errorf("invalid feedback strength: %s", f.Strength)
	}
	return nil
}

// TrainingStatus is the lifecycle state of a policy training session
type TrainingStatus string

// Training status constants
const (
	TrainingPending   TrainingStatus = "pending"
	TrainingRunning   TrainingStatus = "running"
	TrainingCompleted TrainingStatus = "completed"
	TrainingFailed    TrainingStatus = "failed"
)

// IsValid checks if the training status value is valid
func (s TrainingStatus) IsValid() bool {
	switch s {
	case TrainingPending, TrainingRunning, TrainingCompleted, TrainingFailed:
		return true
	}
	return false
}

// TrainingSession records one reinforcement pass over expert feedback
type TrainingSession struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	LearningRate  float64        `json:"learning_rate"`
	BatchSize     int            `json:"batch_size"`
	Epochs        int            `json:"epochs"`
	FeedbackCount int            `json:"feedback_count"`
	Status        TrainingStatus `json:"status"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	InitialLoss   *float64       `json:"initial_loss,omitempty"`
	FinalLoss     *float64       `json:"final_loss,omitempty"`
	History       string         `json:"history,omitempty"` // Per-epoch metrics (JSON)
	ModelPath     string         `json:"model_path,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	CreatedBy     string         `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Duration returns the wall time of a finished session, nil otherwise
func (s *TrainingSession) Duration() *time.Duration {
	if s.StartedAt == nil || s.CompletedAt == nil {
		return nil
	}
	d := s.CompletedAt.Sub(*s.StartedAt)
	return &d
}

// Improvement returns initial minus final loss, nil when either is unset
func (s *TrainingSession) Improvement() *float64 {
	if s.InitialLoss == nil || s.FinalLoss == nil {
		return nil
	}
	d := *s.InitialLoss - *s.FinalLoss
	return &d
}

// Statistics provides aggregate metrics over the whole database
type Statistics struct {
	TotalSkills          int     `json:"total_skills"`
	BaseSkills           int     `json:"base_skills"`
	TotalEdges           int     `json:"total_edges"`
	TotalCourses         int     `json:"total_courses"`
	TotalTasks           int     `json:"total_tasks"`
	ActiveTasks          int     `json:"active_tasks"`
	TotalStudents        int     `json:"total_students"`
	TotalAttempts        int     `json:"total_attempts"`
	CorrectAttempts      int     `json:"correct_attempts"`
	TotalRecommendations int     `json:"total_recommendations"`
	LinkedAttempts       int     `json:"linked_attempts"`
	OverallAccuracy      float64 `json:"overall_accuracy"`
}
