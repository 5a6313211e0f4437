package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// AddFeedback records one expert's reinforcement label on a recommendation.
// The reward scalar is derived from type and strength; a caller-supplied
// value is ignored. Each expert labels a recommendation at most once.
func (s *Store) AddFeedback(ctx context.Context, feedback *types.ExpertFeedback) error {
	if err := feedback.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	feedback.Reward = types.RewardValue(feedback.Type, feedback.Strength)
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now()
	}

	if _, err := s.GetRecommendation(ctx, feedback.RecommendationID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expert_feedback (recommendation_id, expert, feedback_type, strength,
			reward, comment, created_at, used_for_training)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		feedback.RecommendationID, feedback.Expert, string(feedback.Type),
		string(feedback.Strength), feedback.Reward, feedback.Comment, feedback.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("feedback by %s on recommendation %d: %w",
				feedback.Expert, feedback.RecommendationID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to add feedback: %w", err)
	}
	feedback.ID, _ = res.LastInsertId()
	return nil
}

// ListFeedback returns feedback matching the filter, newest first
func (s *Store) ListFeedback(ctx context.Context, filter types.FeedbackFilter) ([]*types.ExpertFeedback, error) {
	query := `SELECT id, recommendation_id, expert, feedback_type, strength, reward,
		comment, created_at, used_for_training FROM expert_feedback`
	var conds []string
	var args []interface{}

	if filter.RecommendationID != 0 {
		conds = append(conds, "recommendation_id = ?")
		args = append(args, filter.RecommendationID)
	}
	if filter.Expert != "" {
		conds = append(conds, "expert = ?")
		args = append(args, filter.Expert)
	}
	if filter.Type != nil {
		conds = append(conds, "feedback_type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.UnusedOnly {
		conds = append(conds, "used_for_training = 0")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var items []*types.ExpertFeedback
	for rows.Next() {
		f := &types.ExpertFeedback{}
		if err := rows.Scan(&f.ID, &f.RecommendationID, &f.Expert, &f.Type, &f.Strength,
			&f.Reward, &f.Comment, &f.CreatedAt, &f.UsedForTraining); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// MarkFeedbackUsed flags feedback rows as consumed by a training session
func (s *Store) MarkFeedbackUsed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE expert_feedback SET used_for_training = 1 WHERE id IN (`+placeholders(len(ids))+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("failed to mark feedback used: %w", err)
	}
	return nil
}
