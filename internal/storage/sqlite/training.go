package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// CreateTrainingSession records a new session in pending state
func (s *Store) CreateTrainingSession(ctx context.Context, session *types.TrainingSession) error {
	if session.Name == "" {
		return fmt.Errorf("session name is required")
	}
	if session.Status == "" {
		session.Status = types.TrainingPending
	}
	if !session.Status.IsValid() {
		return fmt.Errorf("invalid training status: %s", session.Status)
	}
	session.CreatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO training_sessions (name, description, learning_rate, batch_size, epochs,
			feedback_count, status, started_at, completed_at, initial_loss, final_loss,
			history, model_path, error_message, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Name, session.Description, session.LearningRate, session.BatchSize,
		session.Epochs, session.FeedbackCount, string(session.Status),
		nullableTime(session.StartedAt), nullableTime(session.CompletedAt),
		session.InitialLoss, session.FinalLoss, session.History, session.ModelPath,
		session.ErrorMessage, session.CreatedBy, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create training session: %w", err)
	}
	session.ID, _ = res.LastInsertId()
	return nil
}

// GetTrainingSession returns one session by ID
func (s *Store) GetTrainingSession(ctx context.Context, id int64) (*types.TrainingSession, error) {
	session, err := scanTrainingSession(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, learning_rate, batch_size, epochs, feedback_count,
			status, started_at, completed_at, initial_loss, final_loss, history,
			model_path, error_message, created_by, created_at
		FROM training_sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("training session %d: %w", id, storage.ErrNotFound)
	}
	return session, err
}

var trainingUpdateColumns = map[string]string{
	"status":         "status",
	"started_at":     "started_at",
	"completed_at":   "completed_at",
	"initial_loss":   "initial_loss",
	"final_loss":     "final_loss",
	"feedback_count": "feedback_count",
	"history":        "history",
	"model_path":     "model_path",
	"error_message":  "error_message",
}

// UpdateTrainingSession applies a partial update to a session
func (s *Store) UpdateTrainingSession(ctx context.Context, id int64, updates map[string]interface{}) error {
	set, args, err := buildUpdate(trainingUpdateColumns, updates)
	if err != nil {
		return err
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE training_sessions SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update training session: %w", err)
	}
	return requireRow(res, fmt.Sprintf("training session %d", id))
}

// ListTrainingSessions returns sessions, newest first
func (s *Store) ListTrainingSessions(ctx context.Context, limit int) ([]*types.TrainingSession, error) {
	query := `SELECT id, name, description, learning_rate, batch_size, epochs, feedback_count,
		status, started_at, completed_at, initial_loss, final_loss, history,
		model_path, error_message, created_by, created_at
		FROM training_sessions ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list training sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.TrainingSession
	for rows.Next() {
		session, err := scanTrainingSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// LatestCompletedSession returns the most recently completed session
func (s *Store) LatestCompletedSession(ctx context.Context) (*types.TrainingSession, error) {
	session, err := scanTrainingSession(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, learning_rate, batch_size, epochs, feedback_count,
			status, started_at, completed_at, initial_loss, final_loss, history,
			model_path, error_message, created_by, created_at
		FROM training_sessions WHERE status = 'completed'
		ORDER BY completed_at DESC, id DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("completed training session: %w", storage.ErrNotFound)
	}
	return session, err
}

func scanTrainingSession(row rowScanner) (*types.TrainingSession, error) {
	session := &types.TrainingSession{}
	var startedAt, completedAt sql.NullTime
	var initialLoss, finalLoss sql.NullFloat64
	err := row.Scan(&session.ID, &session.Name, &session.Description, &session.LearningRate,
		&session.BatchSize, &session.Epochs, &session.FeedbackCount, &session.Status,
		&startedAt, &completedAt, &initialLoss, &finalLoss, &session.History,
		&session.ModelPath, &session.ErrorMessage, &session.CreatedBy, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan training session: %w", err)
	}
	if startedAt.Valid {
		t := startedAt.Time
		session.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	if initialLoss.Valid {
		v := initialLoss.Float64
		session.InitialLoss = &v
	}
	if finalLoss.Valid {
		v := finalLoss.Float64
		session.FinalLoss = &v
	}
	return session, nil
}
