package types

import (
	"testing"
	"time"
)

func TestSkillValidate(t *testing.T) {
	tests := []struct {
		name    string
		skill   Skill
		wantErr bool
	}{
		{"valid", Skill{ID: "sk-abc", Name: "Recursion"}, false},
		{"missing name", Skill{ID: "sk-abc"}, true},
		{"name too long", Skill{ID: "sk-abc", Name: string(make([]byte, 256))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.skill.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCourseValidate(t *testing.T) {
	c := Course{ID: "PY101", Name: "Python Basics"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	c.ID = "TOOLONGCOURSEID"
	if err := c.Validate(); err == nil {
		t.Error("expected error for over-length course id")
	}
}

func TestTaskValidate(t *testing.T) {
	valid := Task{
		ID:           "task-1",
		Title:        "Loop basics",
		TaskType:     TaskSingleChoice,
		Difficulty:   DifficultyBeginner,
		QuestionText: "What does a for loop do?",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Task)
	}{
		{"missing title", func(tk *Task) { tk.Title = "" }},
		{"missing question", func(tk *Task) { tk.QuestionText = "" }},
		{"bad type", func(tk *Task) { tk.TaskType = "essay" }},
		{"bad difficulty", func(tk *Task) { tk.Difficulty = "impossible" }},
		{"true_false with 3 answers", func(tk *Task) {
			tk.TaskType = TaskTrueFalse
			tk.Answers = []*TaskAnswer{{Text: "a"}, {Text: "b"}, {Text: "c"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := valid
			tt.mutate(&task)
			if err := task.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestTaskSetDefaults(t *testing.T) {
	task := Task{Title: "x", QuestionText: "y"}
	task.SetDefaults()
	if task.TaskType != TaskSingleChoice {
		t.Errorf("TaskType = %q, want %q", task.TaskType, TaskSingleChoice)
	}
	if task.Difficulty != DifficultyBeginner {
		t.Errorf("Difficulty = %q, want %q", task.Difficulty, DifficultyBeginner)
	}

	// Explicit values survive
	task2 := Task{TaskType: TaskTrueFalse, Difficulty: DifficultyAdvanced}
	task2.SetDefaults()
	if task2.TaskType != TaskTrueFalse || task2.Difficulty != DifficultyAdvanced {
		t.Error("SetDefaults overwrote explicit values")
	}
}

func TestEnrollmentValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		e       Enrollment
		wantErr bool
	}{
		{"valid enrolled", Enrollment{StudentID: "stu-1", CourseID: "PY101", Status: EnrollmentEnrolled}, false},
		{"valid completed", Enrollment{StudentID: "stu-1", CourseID: "PY101", Status: EnrollmentCompleted, ProgressPercent: 100, CompletedAt: &now}, false},
		{"completed without timestamp", Enrollment{StudentID: "stu-1", CourseID: "PY101", Status: EnrollmentCompleted}, true},
		{"enrolled with timestamp", Enrollment{StudentID: "stu-1", CourseID: "PY101", Status: EnrollmentEnrolled, CompletedAt: &now}, true},
		{"bad status", Enrollment{StudentID: "stu-1", CourseID: "PY101", Status: "expelled"}, true},
		{"progress out of range", Enrollment{StudentID: "stu-1", CourseID: "PY101", Status: EnrollmentEnrolled, ProgressPercent: 120}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnrollmentStatusIsActive(t *testing.T) {
	if !EnrollmentEnrolled.IsActive() || !EnrollmentInProgress.IsActive() {
		t.Error("enrolled and in_progress should be active")
	}
	if EnrollmentCompleted.IsActive() || EnrollmentDropped.IsActive() || EnrollmentSuspended.IsActive() {
		t.Error("terminal statuses should not be active")
	}
}

func TestSkillMasteryHelpers(t *testing.T) {
	m := SkillMastery{CurrentProb: 0.79, AttemptsCount: 4, CorrectAttempts: 3}
	if m.IsMastered() {
		t.Error("0.79 should not be mastered")
	}
	m.CurrentProb = 0.8
	if !m.IsMastered() {
		t.Error("threshold value should count as mastered")
	}
	if got := m.Accuracy(); got != 0.75 {
		t.Errorf("Accuracy() = %v, want 0.75", got)
	}

	empty := SkillMastery{}
	if empty.Accuracy() != 0 {
		t.Error("accuracy with no attempts should be 0")
	}
}

func TestAttemptDeriveTimeSpent(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := TaskAttempt{StartedAt: start, CompletedAt: start.Add(95 * time.Second)}
	a.DeriveTimeSpent()
	if a.TimeSpentSec != 95 {
		t.Errorf("TimeSpentSec = %d, want 95", a.TimeSpentSec)
	}

	// Explicit value wins
	b := TaskAttempt{StartedAt: start, CompletedAt: start.Add(time.Minute), TimeSpentSec: 10}
	b.DeriveTimeSpent()
	if b.TimeSpentSec != 10 {
		t.Errorf("TimeSpentSec = %d, want 10", b.TimeSpentSec)
	}

	// Completed before started leaves zero
	c := TaskAttempt{StartedAt: start, CompletedAt: start.Add(-time.Minute)}
	c.DeriveTimeSpent()
	if c.TimeSpentSec != 0 {
		t.Errorf("TimeSpentSec = %d, want 0", c.TimeSpentSec)
	}
}

func TestRewardValue(t *testing.T) {
	tests := []struct {
		ft   FeedbackType
		fs   FeedbackStrength
		want float64
	}{
		{FeedbackPositive, StrengthLow, 0.1},
		{FeedbackPositive, StrengthMedium, 0.5},
		{FeedbackPositive, StrengthHigh, 1.0},
		{FeedbackNegative, StrengthLow, -0.1},
		{FeedbackNegative, StrengthMedium, -0.5},
		{FeedbackNegative, StrengthHigh, -1.0},
	}

	for _, tt := range tests {
		if got := RewardValue(tt.ft, tt.fs); got != tt.want {
			t.Errorf("RewardValue(%s, %s) = %v, want %v", tt.ft, tt.fs, got, tt.want)
		}
	}
}

func TestExpertFeedbackValidate(t *testing.T) {
	f := ExpertFeedback{RecommendationID: 1, Expert: "prof", Type: FeedbackPositive, Strength: StrengthHigh}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	f.Strength = "extreme"
	if err := f.Validate(); err == nil {
		t.Error("expected error for invalid strength")
	}
}

func TestTrainingSessionDerived(t *testing.T) {
	s := TrainingSession{}
	if s.Duration() != nil || s.Improvement() != nil {
		t.Error("unfinished session should have nil duration and improvement")
	}

	start := time.Now()
	end := start.Add(2 * time.Minute)
	il, fl := 1.5, 0.5
	s.StartedAt = &start
	s.CompletedAt = &end
	s.InitialLoss = &il
	s.FinalLoss = &fl

	if d := s.Duration(); d == nil || *d != 2*time.Minute {
		t.Errorf("Duration() = %v, want 2m", d)
	}
	if imp := s.Improvement(); imp == nil || *imp != 1.0 {
		t.Errorf("Improvement() = %v, want 1.0", imp)
	}
}

func TestEnumValidity(t *testing.T) {
	for _, tt := range []TaskType{TaskSingleChoice, TaskMultipleChoice, TaskTrueFalse} {
		if !tt.IsValid() {
			t.Errorf("%s should be valid", tt)
		}
	}
	if TaskType("essay").IsValid() {
		t.Error("essay should be invalid")
	}
	for _, d := range []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced} {
		if !d.IsValid() {
			t.Errorf("%s should be valid", d)
		}
	}
	for _, ts := range []TrainingStatus{TrainingPending, TrainingRunning, TrainingCompleted, TrainingFailed} {
		if !ts.IsValid() {
			t.Errorf("%s should be valid", ts)
		}
	}
	if TrainingStatus("paused").IsValid() {
		t.Error("paused should be invalid")
	}
}
