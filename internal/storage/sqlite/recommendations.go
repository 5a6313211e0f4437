package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// SaveRecommendation inserts a recommendation and, when setCurrent is true,
// points the student's current-recommendation slot at it (deactivating the
// previous one). History beyond bufferSize rows is pruned oldest-first in
// the same transaction; rows holding an attempt are never pruned, so the
// training signal is preserved. bufferSize <= 0 disables pruning.
func (s *Store) SaveRecommendation(ctx context.Context, rec *types.Recommendation, setCurrent bool, bufferSize int) error {
	if rec.StudentID == "" || rec.TaskID == "" {
		return fmt.Errorf("student_id and task_id are required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	prereqJSON, err := marshalSnapshots(rec.PrereqSnapshots)
	if err != nil {
		return err
	}
	depJSON, err := marshalSnapshots(rec.DependentSnapshots)
	if err != nil {
		return err
	}

	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		if setCurrent {
			if _, err := tx.ExecContext(ctx,
				`UPDATE recommendations SET is_active = 0 WHERE student_id = ? AND is_active = 1`,
				rec.StudentID); err != nil {
				return fmt.Errorf("failed to deactivate previous recommendation: %w", err)
			}
			rec.IsActive = true
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO recommendations (student_id, task_id, q_value, confidence, reason,
				created_at, is_active, state_snapshot, prereq_snapshots, dependent_snapshots)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.StudentID, rec.TaskID, rec.QValue, rec.Confidence, rec.Reason,
			rec.CreatedAt, rec.IsActive, rec.StateSnapshot, prereqJSON, depJSON)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read recommendation id: %w", err)
		}

		if setCurrent {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO current_recommendations (student_id, recommendation_id, set_at, times_viewed)
				VALUES (?, ?, ?, 0)
				ON CONFLICT (student_id) DO UPDATE SET
					recommendation_id = excluded.recommendation_id,
					set_at = excluded.set_at,
					times_viewed = 0`,
				rec.StudentID, rec.ID, time.Now())
			if err != nil {
				return fmt.Errorf("failed to set current recommendation: %w", err)
			}
		}

		if bufferSize > 0 {
			return trimBufferTx(ctx, tx, rec.StudentID, bufferSize)
		}
		return nil
	})
}

// trimBufferTx deletes the oldest recommendations past the buffer size.
// Attempt-linked rows and the current recommendation count toward the total
// but are skipped when choosing victims.
func trimBufferTx(ctx context.Context, tx *sql.Conn, studentID string, bufferSize int) error {
	var total int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE student_id = ?`, studentID).Scan(&total); err != nil {
		return fmt.Errorf("failed to count recommendations: %w", err)
	}
	excess := total - bufferSize
	if excess <= 0 {
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		DELETE FROM recommendations WHERE id IN (
			SELECT r.id FROM recommendations r
			WHERE r.student_id = ?
				AND r.attempt_id IS NULL
				AND r.id NOT IN (SELECT recommendation_id FROM current_recommendations WHERE student_id = ?)
			ORDER BY r.created_at ASC, r.id ASC
			LIMIT ?
		)`, studentID, studentID, excess)
	if err != nil {
		return fmt.Errorf("failed to trim recommendation buffer: %w", err)
	}
	return nil
}

// GetRecommendation returns one recommendation by ID
func (s *Store) GetRecommendation(ctx context.Context, id int64) (*types.Recommendation, error) {
	rec, err := scanRecommendation(s.db.QueryRowContext(ctx, `
		SELECT id, student_id, task_id, q_value, confidence, reason, created_at,
			is_active, state_snapshot, prereq_snapshots, dependent_snapshots, attempt_id
		FROM recommendations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recommendation %d: %w", id, storage.ErrNotFound)
	}
	return rec, err
}

// GetCurrentRecommendation returns the student's current pointer and the
// recommendation it points at
func (s *Store) GetCurrentRecommendation(ctx context.Context, studentID string) (*types.CurrentRecommendation, *types.Recommendation, error) {
	cur := &types.CurrentRecommendation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT student_id, recommendation_id, set_at, times_viewed
		FROM current_recommendations WHERE student_id = ?`, studentID).
		Scan(&cur.StudentID, &cur.RecommendationID, &cur.SetAt, &cur.TimesViewed)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("current recommendation for %s: %w", studentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get current recommendation: %w", err)
	}

	rec, err := s.GetRecommendation(ctx, cur.RecommendationID)
	if err != nil {
		return nil, nil, err
	}
	return cur, rec, nil
}

// MarkRecommendationViewed bumps the view counter on the current pointer
func (s *Store) MarkRecommendationViewed(ctx context.Context, studentID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE current_recommendations SET times_viewed = times_viewed + 1 WHERE student_id = ?`,
		studentID)
	if err != nil {
		return fmt.Errorf("failed to mark viewed: %w", err)
	}
	return requireRow(res, "current recommendation for "+studentID)
}

// LinkAttempt attaches an attempt to the recommendation that produced it.
// The link is one-to-one and only allowed when the attempt answers the
// recommended task for the same student; anything else is a refusal, not an
// error to paper over.
func (s *Store) LinkAttempt(ctx context.Context, recommendationID, attemptID int64) error {
	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		var recStudent, recTask string
		var linked sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT student_id, task_id, attempt_id FROM recommendations WHERE id = ?`,
			recommendationID).Scan(&recStudent, &recTask, &linked)
		if err == sql.ErrNoRows {
			return fmt.Errorf("recommendation %d: %w", recommendationID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load recommendation: %w", err)
		}
		if linked.Valid {
			return fmt.Errorf("recommendation %d: %w", recommendationID, storage.ErrAlreadyLinked)
		}

		var attStudent, attTask string
		err = tx.QueryRowContext(ctx,
			`SELECT student_id, task_id FROM task_attempts WHERE id = ?`, attemptID).
			Scan(&attStudent, &attTask)
		if err == sql.ErrNoRows {
			return fmt.Errorf("attempt %d: %w", attemptID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load attempt: %w", err)
		}
		if attTask != recTask || attStudent != recStudent {
			return fmt.Errorf("recommendation %d vs attempt %d: %w",
				recommendationID, attemptID, storage.ErrTaskMismatch)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE recommendations SET attempt_id = ? WHERE id = ?`, attemptID, recommendationID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("attempt %d: %w", attemptID, storage.ErrAlreadyLinked)
			}
			return fmt.Errorf("failed to link attempt: %w", err)
		}
		return nil
	})
}

// ListRecommendations returns a student's recommendations, newest first
func (s *Store) ListRecommendations(ctx context.Context, studentID string, limit int) ([]*types.Recommendation, error) {
	query := `SELECT id, student_id, task_id, q_value, confidence, reason, created_at,
		is_active, state_snapshot, prereq_snapshots, dependent_snapshots, attempt_id
		FROM recommendations WHERE student_id = ? ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*types.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecommendation(row rowScanner) (*types.Recommendation, error) {
	rec := &types.Recommendation{}
	var prereqJSON, depJSON string
	var attemptID sql.NullInt64
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.TaskID, &rec.QValue, &rec.Confidence,
		&rec.Reason, &rec.CreatedAt, &rec.IsActive, &rec.StateSnapshot,
		&prereqJSON, &depJSON, &attemptID)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recommendation: %w", err)
	}
	if attemptID.Valid {
		v := attemptID.Int64
		rec.AttemptID = &v
	}
	if rec.PrereqSnapshots, err = unmarshalSnapshots(prereqJSON); err != nil {
		return nil, err
	}
	if rec.DependentSnapshots, err = unmarshalSnapshots(depJSON); err != nil {
		return nil, err
	}
	return rec, nil
}

func marshalSnapshots(snaps []types.SkillSnapshot) (string, error) {
	if len(snaps) == 0 {
		return "", nil
	}
	data, err := json.Marshal(snaps)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshots: %w", err)
	}
	return string(data), nil
}

func unmarshalSnapshots(data string) ([]types.SkillSnapshot, error) {
	if data == "" {
		return nil, nil
	}
	var snaps []types.SkillSnapshot
	if err := json.Unmarshal([]byte(data), &snaps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshots: %w", err)
	}
	return snaps, nil
}
