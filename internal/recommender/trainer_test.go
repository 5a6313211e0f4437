package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// labeledFixture extends the basic fixture with a recommendation carrying
// expert feedback
func labeledFixture(t *testing.T, fbType types.FeedbackType, strength types.FeedbackStrength) (*fixture, *Manager, *types.Recommendation) {
	t.Helper()
	ctx := context.Background()

	f := newFixture(t)
	mgr := NewManager(f.store, NewPolicy(), 20)

	rec, err := mgr.Generate(ctx, f.student.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	fb := &types.ExpertFeedback{
		RecommendationID: rec.ID,
		Expert:           "methodist",
		Type:             fbType,
		Strength:         strength,
	}
	if err := f.store.AddFeedback(ctx, fb); err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	return f, mgr, rec
}

func TestTrainCompletesAndConsumesFeedback(t *testing.T) {
	f, mgr, rec := labeledFixture(t, types.FeedbackPositive, types.StrengthHigh)
	ctx := context.Background()

	trainer := NewTrainer(f.store, mgr.Policy())
	session, err := trainer.Train(ctx, TrainOptions{Name: "pass 1", CreatedBy: "methodist"})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if session.Status != types.TrainingCompleted {
		t.Errorf("status = %s, want completed", session.Status)
	}
	if session.FeedbackCount != 1 {
		t.Errorf("feedback_count = %d, want 1", session.FeedbackCount)
	}
	if session.StartedAt == nil || session.CompletedAt == nil {
		t.Error("completed session missing timestamps")
	}

	var history []epochRecord
	if err := json.Unmarshal([]byte(session.History), &history); err != nil {
		t.Fatalf("history is not valid JSON: %v", err)
	}
	if len(history) != 10 {
		t.Errorf("history has %d epochs, want the default 10", len(history))
	}
	if history[len(history)-1].Loss >= history[0].Loss {
		t.Errorf("loss did not decrease: %f -> %f", history[0].Loss, history[len(history)-1].Loss)
	}

	// Positive feedback pushes the task's skill weight up
	task, err := f.store.GetTask(ctx, rec.TaskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if w := mgr.Policy().Weight(task.Skills[0]); w <= 0 {
		t.Errorf("weight after positive feedback = %f, want > 0", w)
	}

	// Feedback is consumed: a second pass has nothing to train on
	if _, err := trainer.Train(ctx, TrainOptions{}); !errors.Is(err, ErrNoFeedback) {
		t.Errorf("second train error = %v, want ErrNoFeedback", err)
	}
}

func TestTrainNegativeFeedbackLowersWeight(t *testing.T) {
	f, mgr, rec := labeledFixture(t, types.FeedbackNegative, types.StrengthHigh)
	ctx := context.Background()

	trainer := NewTrainer(f.store, mgr.Policy())
	if _, err := trainer.Train(ctx, TrainOptions{}); err != nil {
		t.Fatalf("Train: %v", err)
	}

	task, err := f.store.GetTask(ctx, rec.TaskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if w := mgr.Policy().Weight(task.Skills[0]); w >= 0 {
		t.Errorf("weight after negative feedback = %f, want < 0", w)
	}
}

func TestTrainPersistsModelFile(t *testing.T) {
	f, mgr, _ := labeledFixture(t, types.FeedbackPositive, types.StrengthMedium)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.json")

	trainer := NewTrainer(f.store, mgr.Policy())
	session, err := trainer.Train(ctx, TrainOptions{ModelPath: path})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if session.ModelPath != path {
		t.Errorf("model_path = %s, want %s", session.ModelPath, path)
	}

	loaded := NewPolicy()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	// The persisted policy reproduces the trained weights
	task, err := f.store.GetTask(ctx, f.varTask.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if loaded.Weight(task.Skills[0]) != mgr.Policy().Weight(task.Skills[0]) {
		t.Error("persisted weights differ from trained weights")
	}
}

func TestTrainWithoutFeedback(t *testing.T) {
	f := newFixture(t)
	trainer := NewTrainer(f.store, NewPolicy())

	if _, err := trainer.Train(context.Background(), TrainOptions{}); !errors.Is(err, ErrNoFeedback) {
		t.Errorf("error = %v, want ErrNoFeedback", err)
	}
}
