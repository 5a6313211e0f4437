package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// CreateCourse inserts a new course
func (s *Store) CreateCourse(ctx context.Context, course *types.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, name, description) VALUES (?, ?, ?)`,
		course.ID, course.Name, course.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("course %s: %w", course.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// GetCourse returns a course by ID
func (s *Store) GetCourse(ctx context.Context, id string) (*types.Course, error) {
	course := &types.Course{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM courses WHERE id = ?`, id).
		Scan(&course.ID, &course.Name, &course.Description)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// ListCourses returns all courses ordered by ID
func (s *Store) ListCourses(ctx context.Context) ([]*types.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*types.Course
	for rows.Next() {
		course := &types.Course{}
		if err := rows.Scan(&course.ID, &course.Name, &course.Description); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// DeleteCourse removes a course. Skill and task links cascade; skills and
// tasks themselves survive.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return requireRow(res, "course "+id)
}
