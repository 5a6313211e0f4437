package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

func mustStudent(t *testing.T, store *Store, username string) *types.Student {
	t.Helper()
	student := &types.Student{Username: username, FullName: "Test " + username, IsActive: true}
	if err := store.CreateStudent(context.Background(), student); err != nil {
		t.Fatalf("CreateStudent(%s): %v", username, err)
	}
	return student
}

func mustTask(t *testing.T, store *Store, title string, skillIDs ...string) *types.Task {
	t.Helper()
	task := &types.Task{
		Title:        title,
		QuestionText: "What does this do?",
		IsActive:     true,
		Skills:       skillIDs,
		Answers: []*types.TaskAnswer{
			{Text: "Right", IsCorrect: true},
			{Text: "Wrong"},
		},
	}
	if err := store.CreateTask(context.Background(), task, "test"); err != nil {
		t.Fatalf("CreateTask(%s): %v", title, err)
	}
	return task
}

func TestSubmitAttemptCreatesMastery(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	skill := mustSkill(t, store, "Loops")
	student := mustStudent(t, store, "alice")
	task := mustTask(t, store, "Loop over a list", skill.ID)

	attempt := &types.TaskAttempt{
		StudentID:   student.ID,
		TaskID:      task.ID,
		IsCorrect:   true,
		GivenAnswer: "Right",
	}
	if err := store.SubmitAttempt(ctx, attempt); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if attempt.ID == 0 {
		t.Fatal("expected attempt ID to be assigned")
	}

	m, err := store.GetMastery(ctx, student.ID, skill.ID)
	if err != nil {
		t.Fatalf("GetMastery: %v", err)
	}
	if m.AttemptsCount != 1 || m.CorrectAttempts != 1 {
		t.Errorf("counters = %d/%d, want 1/1", m.CorrectAttempts, m.AttemptsCount)
	}
	if m.CurrentProb <= m.InitialProb {
		t.Errorf("correct attempt should raise mastery: %f <= %f", m.CurrentProb, m.InitialProb)
	}
}

func TestSubmitAttemptIncorrectLowersMastery(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	skill := mustSkill(t, store, "Recursion")
	student := mustStudent(t, store, "bob")
	task := mustTask(t, store, "Base case", skill.ID)

	for _, correct := range []bool{true, true, false} {
		attempt := &types.TaskAttempt{StudentID: student.ID, TaskID: task.ID, IsCorrect: correct}
		if err := store.SubmitAttempt(ctx, attempt); err != nil {
			t.Fatalf("SubmitAttempt: %v", err)
		}
	}

	m, err := store.GetMastery(ctx, student.ID, skill.ID)
	if err != nil {
		t.Fatalf("GetMastery: %v", err)
	}
	if m.AttemptsCount != 3 || m.CorrectAttempts != 2 {
		t.Errorf("counters = %d/%d, want 2/3", m.CorrectAttempts, m.AttemptsCount)
	}
}

func TestSubmitAttemptMultipleSkills(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	s1 := mustSkill(t, store, "Variables")
	s2 := mustSkill(t, store, "Arithmetic")
	student := mustStudent(t, store, "carol")
	task := mustTask(t, store, "Compute a sum", s1.ID, s2.ID)

	attempt := &types.TaskAttempt{StudentID: student.ID, TaskID: task.ID, IsCorrect: true}
	if err := store.SubmitAttempt(ctx, attempt); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	masteries, err := store.ListMasteries(ctx, student.ID)
	if err != nil {
		t.Fatalf("ListMasteries: %v", err)
	}
	if len(masteries) != 2 {
		t.Fatalf("got %d mastery rows, want 2", len(masteries))
	}
}

func TestSubmitAttemptUnknownRefs(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	skill := mustSkill(t, store, "Loops")
	student := mustStudent(t, store, "dave")
	task := mustTask(t, store, "A task", skill.ID)

	err := store.SubmitAttempt(ctx, &types.TaskAttempt{StudentID: "stu-ghost", TaskID: task.ID})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown student error = %v, want ErrNotFound", err)
	}
	err = store.SubmitAttempt(ctx, &types.TaskAttempt{StudentID: student.ID, TaskID: "task-ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown task error = %v, want ErrNotFound", err)
	}
}

func TestListAttemptsFilters(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	skill := mustSkill(t, store, "Loops")
	alice := mustStudent(t, store, "alice")
	bob := mustStudent(t, store, "bob")
	task := mustTask(t, store, "A task", skill.ID)

	for i, tc := range []struct {
		student string
		correct bool
	}{
		{alice.ID, true}, {alice.ID, false}, {bob.ID, true},
	} {
		attempt := &types.TaskAttempt{StudentID: tc.student, TaskID: task.ID, IsCorrect: tc.correct}
		if err := store.SubmitAttempt(ctx, attempt); err != nil {
			t.Fatalf("SubmitAttempt %d: %v", i, err)
		}
	}

	aliceAttempts, err := store.ListAttempts(ctx, types.AttemptFilter{StudentID: alice.ID})
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(aliceAttempts) != 2 {
		t.Errorf("alice has %d attempts, want 2", len(aliceAttempts))
	}

	correct, err := store.ListAttempts(ctx, types.AttemptFilter{StudentID: alice.ID, CorrectOnly: true})
	if err != nil {
		t.Fatalf("ListAttempts correct: %v", err)
	}
	if len(correct) != 1 {
		t.Errorf("alice has %d correct attempts, want 1", len(correct))
	}

	bySkill, err := store.ListAttempts(ctx, types.AttemptFilter{SkillID: skill.ID})
	if err != nil {
		t.Fatalf("ListAttempts by skill: %v", err)
	}
	if len(bySkill) != 3 {
		t.Errorf("skill filter returned %d attempts, want 3", len(bySkill))
	}
}

func TestEnrollmentLifecycle(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	if err := store.CreateCourse(ctx, &types.Course{ID: "PY101", Name: "Python Basics"}); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	student := mustStudent(t, store, "erin")

	enr := &types.Enrollment{StudentID: student.ID, CourseID: "PY101"}
	if err := store.EnrollStudent(ctx, enr); err != nil {
		t.Fatalf("EnrollStudent: %v", err)
	}
	if enr.Status != types.EnrollmentEnrolled {
		t.Errorf("default status = %s, want enrolled", enr.Status)
	}

	if err := store.EnrollStudent(ctx, &types.Enrollment{StudentID: student.ID, CourseID: "PY101"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("double enroll error = %v, want ErrDuplicate", err)
	}

	err := store.UpdateEnrollment(ctx, student.ID, "PY101", map[string]interface{}{
		"status":           string(types.EnrollmentInProgress),
		"progress_percent": 40,
	})
	if err != nil {
		t.Fatalf("UpdateEnrollment: %v", err)
	}

	list, err := store.ListEnrollments(ctx, student.ID)
	if err != nil {
		t.Fatalf("ListEnrollments: %v", err)
	}
	if len(list) != 1 || list[0].Status != types.EnrollmentInProgress || list[0].ProgressPercent != 40 {
		t.Errorf("enrollment = %+v, want in_progress at 40%%", list[0])
	}
}
