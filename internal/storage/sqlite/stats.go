package sqlite

import (
	"context"
	"fmt"

	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// GetStatistics computes aggregate counts across the whole database
func (s *Store) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM skills`, &stats.TotalSkills},
		{`SELECT COUNT(*) FROM skills WHERE is_base = 1`, &stats.BaseSkills},
		{`SELECT COUNT(*) FROM skill_prerequisites`, &stats.TotalEdges},
		{`SELECT COUNT(*) FROM courses`, &stats.TotalCourses},
		{`SELECT COUNT(*) FROM tasks`, &stats.TotalTasks},
		{`SELECT COUNT(*) FROM tasks WHERE is_active = 1`, &stats.ActiveTasks},
		{`SELECT COUNT(*) FROM students`, &stats.TotalStudents},
		{`SELECT COUNT(*) FROM task_attempts`, &stats.TotalAttempts},
		{`SELECT COUNT(*) FROM task_attempts WHERE is_correct = 1`, &stats.CorrectAttempts},
		{`SELECT COUNT(*) FROM recommendations`, &stats.TotalRecommendations},
		{`SELECT COUNT(*) FROM recommendations WHERE attempt_id IS NOT NULL`, &stats.LinkedAttempts},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to compute statistics: %w", err)
		}
	}

	if stats.TotalAttempts > 0 {
		stats.OverallAccuracy = float64(stats.CorrectAttempts) / float64(stats.TotalAttempts)
	}
	return stats, nil
}
