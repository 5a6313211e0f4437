package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/bkt"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// SubmitAttempt inserts the attempt and applies a knowledge-tracing update to
// every skill the task covers, in one transaction. Mastery rows are created
// on first contact with a skill, seeded from the store's parameter source.
func (s *Store) SubmitAttempt(ctx context.Context, attempt *types.TaskAttempt) error {
	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = time.Now()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = attempt.CompletedAt
	}
	attempt.DeriveTimeSpent()

	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		if err := requireExistsTx(ctx, tx, "students", attempt.StudentID); err != nil {
			return err
		}
		if err := requireExistsTx(ctx, tx, "tasks", attempt.TaskID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO task_attempts (student_id, task_id, is_correct, given_answer,
				correct_answer, started_at, completed_at, time_spent_sec, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			attempt.StudentID, attempt.TaskID, attempt.IsCorrect, attempt.GivenAnswer,
			attempt.CorrectAnswer, attempt.StartedAt, attempt.CompletedAt,
			attempt.TimeSpentSec, attempt.Metadata)
		if err != nil {
			return fmt.Errorf("failed to insert attempt: %w", err)
		}
		if attempt.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read attempt id: %w", err)
		}

		skillIDs, err := queryStringsConn(ctx, tx,
			`SELECT skill_id FROM task_skills WHERE task_id = ? ORDER BY skill_id`, attempt.TaskID)
		if err != nil {
			return err
		}
		for _, skillID := range skillIDs {
			if err := s.applyMasteryTx(ctx, tx, attempt.StudentID, skillID, attempt.IsCorrect); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) applyMasteryTx(ctx context.Context, tx *sql.Conn, studentID, skillID string, correct bool) error {
	m := &types.SkillMastery{}
	err := tx.QueryRowContext(ctx, `
		SELECT student_id, skill_id, initial_prob, current_prob, transition_prob,
			guess_prob, slip_prob, attempts_count, correct_attempts, updated_at
		FROM skill_masteries WHERE student_id = ? AND skill_id = ?`, studentID, skillID).
		Scan(&m.StudentID, &m.SkillID, &m.InitialProb, &m.CurrentProb, &m.TransitionProb,
			&m.GuessProb, &m.SlipProb, &m.AttemptsCount, &m.CorrectAttempts, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		m = bkt.NewMastery(studentID, skillID, s.params.For(skillID))
	} else if err != nil {
		return fmt.Errorf("failed to load mastery: %w", err)
	}

	bkt.Apply(m, correct)
	m.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO skill_masteries (student_id, skill_id, initial_prob, current_prob,
			transition_prob, guess_prob, slip_prob, attempts_count, correct_attempts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, skill_id) DO UPDATE SET
			current_prob = excluded.current_prob,
			attempts_count = excluded.attempts_count,
			correct_attempts = excluded.correct_attempts,
			updated_at = excluded.updated_at`,
		m.StudentID, m.SkillID, m.InitialProb, m.CurrentProb, m.TransitionProb,
		m.GuessProb, m.SlipProb, m.AttemptsCount, m.CorrectAttempts, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert mastery: %w", err)
	}
	return nil
}

// GetAttempt returns one attempt by ID
func (s *Store) GetAttempt(ctx context.Context, id int64) (*types.TaskAttempt, error) {
	a := &types.TaskAttempt{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, task_id, is_correct, given_answer, correct_answer,
			started_at, completed_at, time_spent_sec, metadata
		FROM task_attempts WHERE id = ?`, id).
		Scan(&a.ID, &a.StudentID, &a.TaskID, &a.IsCorrect, &a.GivenAnswer,
			&a.CorrectAnswer, &a.StartedAt, &a.CompletedAt, &a.TimeSpentSec, &a.Metadata)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attempt %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return a, nil
}

// ListAttempts returns attempts matching the filter, newest first
func (s *Store) ListAttempts(ctx context.Context, filter types.AttemptFilter) ([]*types.TaskAttempt, error) {
	query := `SELECT DISTINCT a.id, a.student_id, a.task_id, a.is_correct, a.given_answer,
		a.correct_answer, a.started_at, a.completed_at, a.time_spent_sec, a.metadata
		FROM task_attempts a`
	var conds []string
	var args []interface{}

	if filter.SkillID != "" {
		query += ` JOIN task_skills ts ON ts.task_id = a.task_id`
		conds = append(conds, "ts.skill_id = ?")
		args = append(args, filter.SkillID)
	}
	if filter.StudentID != "" {
		conds = append(conds, "a.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.TaskID != "" {
		conds = append(conds, "a.task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.CorrectOnly {
		conds = append(conds, "a.is_correct = 1")
	}
	if filter.CompletedAfter != nil {
		conds = append(conds, "a.completed_at >= ?")
		args = append(args, *filter.CompletedAfter)
	}
	if filter.CompletedBefore != nil {
		conds = append(conds, "a.completed_at < ?")
		args = append(args, *filter.CompletedBefore)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.completed_at DESC, a.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*types.TaskAttempt
	for rows.Next() {
		a := &types.TaskAttempt{}
		if err := rows.Scan(&a.ID, &a.StudentID, &a.TaskID, &a.IsCorrect, &a.GivenAnswer,
			&a.CorrectAnswer, &a.StartedAt, &a.CompletedAt, &a.TimeSpentSec, &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func queryStringsConn(ctx context.Context, tx *sql.Conn, query string, args ...interface{}) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
