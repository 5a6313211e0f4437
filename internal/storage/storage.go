// Package storage provides shared types for adaptive learning data storage.
//
// The concrete implementation lives in the sqlite sub-package. This package
// holds the interface and sentinel errors referenced by both the
// implementation and its consumers (cmd/alearn, internal/server,
// internal/recommender).
package storage

import (
	"context"
	"errors"

	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint would be violated
// (skill name, student username, enrollment pair, feedback pair).
var ErrDuplicate = errors.New("already exists")

// ErrAlreadyLinked is returned when a recommendation already holds an attempt.
var ErrAlreadyLinked = errors.New("recommendation already linked to an attempt")

// ErrTaskMismatch is returned when linking an attempt to a recommendation for
// a different task.
var ErrTaskMismatch = errors.New("attempt task does not match recommendation task")

// Storage is the interface satisfied by *sqlite.Store. Consumers depend on
// this interface so tests and alternative backends can substitute their own.
type Storage interface {
	// Courses
	CreateCourse(ctx context.Context, course *types.Course) error
	GetCourse(ctx context.Context, id string) (*types.Course, error)
	ListCourses(ctx context.Context) ([]*types.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	// Skills
	CreateSkill(ctx context.Context, skill *types.Skill, actor string) error
	GetSkill(ctx context.Context, id string) (*types.Skill, error)
	GetSkillByName(ctx context.Context, name string) (*types.Skill, error)
	ListSkills(ctx context.Context, filter types.SkillFilter) ([]*types.Skill, error)
	UpdateSkill(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteSkill(ctx context.Context, id string) error
	SetSkillCourses(ctx context.Context, skillID string, courseIDs []string) error

	// Prerequisite graph. AddPrerequisite re-runs the full edge check inside
	// its transaction so two racing additions cannot slip a cycle past a
	// propose-side check; rejections surface as skillgraph sentinel errors
	// (ErrCycle, ErrRedundantEdge, ErrDuplicateEdge, ErrSelfEdge).
	AddPrerequisite(ctx context.Context, skillID, prereqID, actor string) error
	RemovePrerequisite(ctx context.Context, skillID, prereqID string) error
	ListEdges(ctx context.Context) ([]types.PrerequisiteEdge, error)
	LoadGraph(ctx context.Context) (*skillgraph.Graph, error)

	// Tasks
	CreateTask(ctx context.Context, task *types.Task, actor string) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error)
	UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteTask(ctx context.Context, id string) error
	SetTaskSkills(ctx context.Context, taskID string, skillIDs []string) error
	SetTaskCourses(ctx context.Context, taskID string, courseIDs []string) error

	// Students and enrollments
	CreateStudent(ctx context.Context, student *types.Student) error
	GetStudent(ctx context.Context, id string) (*types.Student, error)
	GetStudentByUsername(ctx context.Context, username string) (*types.Student, error)
	ListStudents(ctx context.Context) ([]*types.Student, error)
	EnrollStudent(ctx context.Context, enrollment *types.Enrollment) error
	UpdateEnrollment(ctx context.Context, studentID, courseID string, updates map[string]interface{}) error
	ListEnrollments(ctx context.Context, studentID string) ([]*types.Enrollment, error)

	// Mastery
	GetMastery(ctx context.Context, studentID, skillID string) (*types.SkillMastery, error)
	ListMasteries(ctx context.Context, studentID string) ([]*types.SkillMastery, error)

	// Attempts. SubmitAttempt inserts the attempt and applies the BKT update
	// to every skill the task covers, atomically.
	SubmitAttempt(ctx context.Context, attempt *types.TaskAttempt) error
	GetAttempt(ctx context.Context, id int64) (*types.TaskAttempt, error)
	ListAttempts(ctx context.Context, filter types.AttemptFilter) ([]*types.TaskAttempt, error)

	// Recommendations. SaveRecommendation inserts, optionally replaces the
	// student's current pointer, and prunes history past bufferSize, all in
	// one transaction.
	SaveRecommendation(ctx context.Context, rec *types.Recommendation, setCurrent bool, bufferSize int) error
	GetRecommendation(ctx context.Context, id int64) (*types.Recommendation, error)
	GetCurrentRecommendation(ctx context.Context, studentID string) (*types.CurrentRecommendation, *types.Recommendation, error)
	MarkRecommendationViewed(ctx context.Context, studentID string) error
	LinkAttempt(ctx context.Context, recommendationID, attemptID int64) error
	ListRecommendations(ctx context.Context, studentID string, limit int) ([]*types.Recommendation, error)

	// Expert feedback
	AddFeedback(ctx context.Context, feedback *types.ExpertFeedback) error
	ListFeedback(ctx context.Context, filter types.FeedbackFilter) ([]*types.ExpertFeedback, error)
	MarkFeedbackUsed(ctx context.Context, ids []int64) error

	// Training sessions
	CreateTrainingSession(ctx context.Context, session *types.TrainingSession) error
	GetTrainingSession(ctx context.Context, id int64) (*types.TrainingSession, error)
	UpdateTrainingSession(ctx context.Context, id int64, updates map[string]interface{}) error
	ListTrainingSessions(ctx context.Context, limit int) ([]*types.TrainingSession, error)
	LatestCompletedSession(ctx context.Context) (*types.TrainingSession, error)

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Configuration
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)
	GetAllConfig(ctx context.Context) (map[string]string, error)

	// Lifecycle
	Close() error
}
