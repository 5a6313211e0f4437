package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/idgen"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// CreateStudent inserts a new student profile
func (s *Store) CreateStudent(ctx context.Context, student *types.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now
	if student.ID == "" {
		student.ID = idgen.New(idgen.PrefixStudent, student.Username, now, 0)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, username, full_name, email, organization, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		student.ID, student.Username, student.FullName, student.Email,
		student.Organization, student.IsActive, student.CreatedAt, student.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("student %q: %w", student.Username, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetStudent returns a student by ID
func (s *Store) GetStudent(ctx context.Context, id string) (*types.Student, error) {
	student := &types.Student{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, full_name, email, organization, is_active, created_at, updated_at
		FROM students WHERE id = ?`, id).
		Scan(&student.ID, &student.Username, &student.FullName, &student.Email,
			&student.Organization, &student.IsActive, &student.CreatedAt, &student.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("student %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

// GetStudentByUsername returns a student by unique username
func (s *Store) GetStudentByUsername(ctx context.Context, username string) (*types.Student, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM students WHERE username = ?`, username).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("student %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	return s.GetStudent(ctx, id)
}

// ListStudents returns all students ordered by username
func (s *Store) ListStudents(ctx context.Context) ([]*types.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, full_name, email, organization, is_active, created_at, updated_at
		FROM students ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*types.Student
	for rows.Next() {
		student := &types.Student{}
		if err := rows.Scan(&student.ID, &student.Username, &student.FullName, &student.Email,
			&student.Organization, &student.IsActive, &student.CreatedAt, &student.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// EnrollStudent records a student's enrollment into a course.
// A student enrolls in each course at most once.
func (s *Store) EnrollStudent(ctx context.Context, enrollment *types.Enrollment) error {
	if enrollment.Status == "" {
		enrollment.Status = types.EnrollmentEnrolled
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now()
	}
	if err := enrollment.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (student_id, course_id, status, progress_percent, final_grade, enrolled_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		enrollment.StudentID, enrollment.CourseID, string(enrollment.Status),
		enrollment.ProgressPercent, enrollment.FinalGrade, enrollment.EnrolledAt,
		nullableTime(enrollment.CompletedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("enrollment %s/%s: %w", enrollment.StudentID, enrollment.CourseID, storage.ErrDuplicate)
		}
		return fmt.Errorf("failed to enroll student: %w", err)
	}
	return nil
}

var enrollmentUpdateColumns = map[string]string{
	"status":           "status",
	"progress_percent": "progress_percent",
	"final_grade":      "final_grade",
	"completed_at":     "completed_at",
}

// UpdateEnrollment applies a partial update to an enrollment
func (s *Store) UpdateEnrollment(ctx context.Context, studentID, courseID string, updates map[string]interface{}) error {
	set, args, err := buildUpdate(enrollmentUpdateColumns, updates)
	if err != nil {
		return err
	}
	args = append(args, studentID, courseID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrollments SET `+set+` WHERE student_id = ? AND course_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	return requireRow(res, fmt.Sprintf("enrollment %s/%s", studentID, courseID))
}

// ListEnrollments returns a student's enrollments ordered by course
func (s *Store) ListEnrollments(ctx context.Context, studentID string) ([]*types.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, course_id, status, progress_percent, final_grade, enrolled_at, completed_at
		FROM enrollments WHERE student_id = ? ORDER BY course_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*types.Enrollment
	for rows.Next() {
		e := &types.Enrollment{}
		var completedAt sql.NullTime
		if err := rows.Scan(&e.StudentID, &e.CourseID, &e.Status, &e.ProgressPercent,
			&e.FinalGrade, &e.EnrolledAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// GetMastery returns one student/skill mastery row
func (s *Store) GetMastery(ctx context.Context, studentID, skillID string) (*types.SkillMastery, error) {
	m := &types.SkillMastery{}
	err := s.db.QueryRowContext(ctx, `
		SELECT student_id, skill_id, initial_prob, current_prob, transition_prob,
			guess_prob, slip_prob, attempts_count, correct_attempts, updated_at
		FROM skill_masteries WHERE student_id = ? AND skill_id = ?`, studentID, skillID).
		Scan(&m.StudentID, &m.SkillID, &m.InitialProb, &m.CurrentProb, &m.TransitionProb,
			&m.GuessProb, &m.SlipProb, &m.AttemptsCount, &m.CorrectAttempts, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mastery %s/%s: %w", studentID, skillID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mastery: %w", err)
	}
	return m, nil
}

// ListMasteries returns all mastery rows for a student ordered by skill
func (s *Store) ListMasteries(ctx context.Context, studentID string) ([]*types.SkillMastery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, skill_id, initial_prob, current_prob, transition_prob,
			guess_prob, slip_prob, attempts_count, correct_attempts, updated_at
		FROM skill_masteries WHERE student_id = ? ORDER BY skill_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list masteries: %w", err)
	}
	defer rows.Close()

	var masteries []*types.SkillMastery
	for rows.Next() {
		m := &types.SkillMastery{}
		if err := rows.Scan(&m.StudentID, &m.SkillID, &m.InitialProb, &m.CurrentProb,
			&m.TransitionProb, &m.GuessProb, &m.SlipProb, &m.AttemptsCount,
			&m.CorrectAttempts, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mastery: %w", err)
		}
		masteries = append(masteries, m)
	}
	return masteries, rows.Err()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
