package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/idgen"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// CreateTask inserts a task with its answer options and skill/course links.
// An empty ID gets a generated hash ID.
func (s *Store) CreateTask(ctx context.Context, task *types.Task, actor string) error {
	task.SetDefaults()
	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		for nonce := 0; ; nonce++ {
			if task.ID == "" {
				task.ID = idgen.New(idgen.PrefixTask, task.Title+actor, now, nonce)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tasks (id, title, task_type, difficulty, question_text,
					correct_answer, explanation, is_active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				task.ID, task.Title, string(task.TaskType), string(task.Difficulty),
				task.QuestionText, task.CorrectAnswer, task.Explanation, task.IsActive,
				task.CreatedAt, task.UpdatedAt)
			if err == nil {
				break
			}
			if isUniqueViolation(err) && nonce < 5 {
				task.ID = ""
				continue
			}
			return fmt.Errorf("failed to create task: %w", err)
		}

		for i, ans := range task.Answers {
			if ans.Position == 0 {
				ans.Position = i + 1
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO task_answers (task_id, text, is_correct, position)
				VALUES (?, ?, ?, ?)`,
				task.ID, ans.Text, ans.IsCorrect, ans.Position)
			if err != nil {
				return fmt.Errorf("failed to create answer option: %w", err)
			}
			ans.ID, _ = res.LastInsertId()
			ans.TaskID = task.ID
		}

		if err := setLinksTx(ctx, tx, "task_skills", "task_id", "skill_id", task.ID, task.Skills); err != nil {
			return err
		}
		return setLinksTx(ctx, tx, "task_courses", "task_id", "course_id", task.ID, task.Courses)
	})
}

// GetTask returns a task with answers and skill/course links populated
func (s *Store) GetTask(ctx context.Context, id string) (*types.Task, error) {
	task := &types.Task{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, task_type, difficulty, question_text, correct_answer,
			explanation, is_active, created_at, updated_at
		FROM tasks WHERE id = ?`, id).
		Scan(&task.ID, &task.Title, &task.TaskType, &task.Difficulty, &task.QuestionText,
			&task.CorrectAnswer, &task.Explanation, &task.IsActive, &task.CreatedAt, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, text, is_correct, position
		FROM task_answers WHERE task_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		ans := &types.TaskAnswer{}
		if err := rows.Scan(&ans.ID, &ans.TaskID, &ans.Text, &ans.IsCorrect, &ans.Position); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		task.Answers = append(task.Answers, ans)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if task.Skills, err = s.queryStrings(ctx,
		`SELECT skill_id FROM task_skills WHERE task_id = ? ORDER BY skill_id`, id); err != nil {
		return nil, err
	}
	if task.Courses, err = s.queryStrings(ctx,
		`SELECT course_id FROM task_courses WHERE task_id = ? ORDER BY course_id`, id); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns tasks matching the filter, ordered by title.
// Answer options are not populated; use GetTask for the full record.
func (s *Store) ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error) {
	query := `SELECT DISTINCT t.id, t.title, t.task_type, t.difficulty, t.question_text,
		t.correct_answer, t.explanation, t.is_active, t.created_at, t.updated_at FROM tasks t`
	var conds []string
	var args []interface{}

	if filter.SkillID != "" {
		query += ` JOIN task_skills ts ON ts.task_id = t.id`
		conds = append(conds, "ts.skill_id = ?")
		args = append(args, filter.SkillID)
	}
	if filter.CourseID != "" {
		query += ` JOIN task_courses tc ON tc.task_id = t.id`
		conds = append(conds, "tc.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.TaskType != nil {
		conds = append(conds, "t.task_type = ?")
		args = append(args, string(*filter.TaskType))
	}
	if filter.Difficulty != nil {
		conds = append(conds, "t.difficulty = ?")
		args = append(args, string(*filter.Difficulty))
	}
	if filter.ActiveOnly {
		conds = append(conds, "t.is_active = 1")
	}
	if filter.TitleSearch != "" {
		conds = append(conds, "t.title LIKE ?")
		args = append(args, "%"+filter.TitleSearch+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.title"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		task := &types.Task{}
		if err := rows.Scan(&task.ID, &task.Title, &task.TaskType, &task.Difficulty,
			&task.QuestionText, &task.CorrectAnswer, &task.Explanation, &task.IsActive,
			&task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

var taskUpdateColumns = map[string]string{
	"title":          "title",
	"task_type":      "task_type",
	"difficulty":     "difficulty",
	"question_text":  "question_text",
	"correct_answer": "correct_answer",
	"explanation":    "explanation",
	"is_active":      "is_active",
}

// UpdateTask applies a partial update to a task
func (s *Store) UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error {
	set, args, err := buildUpdate(taskUpdateColumns, updates)
	if err != nil {
		return err
	}
	args = append(args, time.Now(), id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireRow(res, "task "+id)
}

// DeleteTask removes a task and its answers, links and attempts
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(res, "task "+id)
}

// SetTaskSkills replaces the task's skill links
func (s *Store) SetTaskSkills(ctx context.Context, taskID string, skillIDs []string) error {
	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		if err := requireExistsTx(ctx, tx, "tasks", taskID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_skills WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("failed to clear skill links: %w", err)
		}
		return setLinksTx(ctx, tx, "task_skills", "task_id", "skill_id", taskID, skillIDs)
	})
}

// SetTaskCourses replaces the task's course links
func (s *Store) SetTaskCourses(ctx context.Context, taskID string, courseIDs []string) error {
	return s.inTransaction(ctx, func(tx *sql.Conn) error {
		if err := requireExistsTx(ctx, tx, "tasks", taskID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_courses WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("failed to clear course links: %w", err)
		}
		return setLinksTx(ctx, tx, "task_courses", "task_id", "course_id", taskID, courseIDs)
	})
}
