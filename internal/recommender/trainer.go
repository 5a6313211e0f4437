package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/debug"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// ErrNoFeedback is returned when training is requested with no unused
// expert feedback available
var ErrNoFeedback = errors.New("no unused expert feedback to train on")

// TrainOptions configures one training pass
type TrainOptions struct {
	Name         string
	Description  string
	LearningRate float64
	BatchSize    int
	Epochs       int
	ModelPath    string // where to persist the updated policy, empty to skip
	CreatedBy    string
}

func (o *TrainOptions) setDefaults() {
	if o.Name == "" {
		o.Name = "training " + time.Now().Format("2006-01-02 15:04")
	}
	if o.LearningRate <= 0 {
		o.LearningRate = 0.001
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.Epochs <= 0 {
		o.Epochs = 10
	}
}

// epochRecord is one line of the per-epoch history stored with the session
type epochRecord struct {
	Epoch int     `json:"epoch"`
	Loss  float64 `json:"loss"`
}

// Trainer updates policy weights from expert feedback
type Trainer struct {
	store  storage.Storage
	policy *Policy
}

// NewTrainer wires a trainer
func NewTrainer(store storage.Storage, policy *Policy) *Trainer {
	return &Trainer{store: store, policy: policy}
}

// Train runs one reinforcement pass: it collects unused feedback, nudges the
// weight of every skill behind each labeled recommendation in the direction
// of the reward, and marks the feedback consumed. The session row moves
// pending -> running -> completed (or failed), with per-epoch losses in its
// history.
func (t *Trainer) Train(ctx context.Context, opts TrainOptions) (*types.TrainingSession, error) {
	opts.setDefaults()

	feedback, err := t.store.ListFeedback(ctx, types.FeedbackFilter{UnusedOnly: true})
	if err != nil {
		return nil, err
	}
	if len(feedback) == 0 {
		return nil, ErrNoFeedback
	}

	session := &types.TrainingSession{
		Name:          opts.Name,
		Description:   opts.Description,
		LearningRate:  opts.LearningRate,
		BatchSize:     opts.BatchSize,
		Epochs:        opts.Epochs,
		FeedbackCount: len(feedback),
		ModelPath:     opts.ModelPath,
		CreatedBy:     opts.CreatedBy,
	}
	if err := t.store.CreateTrainingSession(ctx, session); err != nil {
		return nil, err
	}

	started := time.Now()
	if err := t.store.UpdateTrainingSession(ctx, session.ID, map[string]interface{}{
		"status":     string(types.TrainingRunning),
		"started_at": started,
	}); err != nil {
		return nil, err
	}

	history, initialLoss, finalLoss, err := t.run(ctx, feedback, opts)
	if err != nil {
		_ = t.store.UpdateTrainingSession(ctx, session.ID, map[string]interface{}{
			"status":        string(types.TrainingFailed),
			"completed_at":  time.Now(),
			"error_message": err.Error(),
		})
		return nil, err
	}

	var ids []int64
	for _, fb := range feedback {
		ids = append(ids, fb.ID)
	}
	if err := t.store.MarkFeedbackUsed(ctx, ids); err != nil {
		return nil, err
	}

	historyJSON, _ := json.Marshal(history)
	if err := t.store.UpdateTrainingSession(ctx, session.ID, map[string]interface{}{
		"status":       string(types.TrainingCompleted),
		"completed_at": time.Now(),
		"initial_loss": initialLoss,
		"final_loss":   finalLoss,
		"history":      string(historyJSON),
	}); err != nil {
		return nil, err
	}
	return t.store.GetTrainingSession(ctx, session.ID)
}

// run applies the weight updates. The loss of an epoch is the mean squared
// gap between each reward and the current weight of the skills it targets,
// so repeated epochs over the same batch converge toward the labeled signal.
func (t *Trainer) run(ctx context.Context, feedback []*types.ExpertFeedback, opts TrainOptions) ([]epochRecord, float64, float64, error) {
	// Resolve each feedback row to the skills of its recommended task once
	skillsByFeedback := make([][]string, len(feedback))
	for i, fb := range feedback {
		rec, err := t.store.GetRecommendation(ctx, fb.RecommendationID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue // recommendation pruned since the label was given
			}
			return nil, 0, 0, err
		}
		task, err := t.store.GetTask(ctx, rec.TaskID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, 0, 0, err
		}
		skillsByFeedback[i] = task.Skills
	}

	var history []epochRecord
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		var loss float64
		var n int
		for i, fb := range feedback {
			for _, skillID := range skillsByFeedback[i] {
				gap := fb.Reward - t.policy.Weight(skillID)
				loss += gap * gap
				n++
				// Scaled learning rate keeps small batches from overshooting
				t.policy.Adjust(skillID, opts.LearningRate*gap*float64(opts.BatchSize))
			}
		}
		if n > 0 {
			loss = math.Sqrt(loss / float64(n))
		}
		history = append(history, epochRecord{Epoch: epoch, Loss: loss})
		debug.Logf("train: epoch %d/%d loss=%.4f", epoch, opts.Epochs, loss)
	}

	if len(history) == 0 {
		return nil, 0, 0, fmt.Errorf("no trainable feedback in batch")
	}

	if opts.ModelPath != "" {
		if err := t.policy.SaveFile(opts.ModelPath); err != nil {
			return nil, 0, 0, err
		}
	}
	return history, history[0].Loss, history[len(history)-1].Loss, nil
}
