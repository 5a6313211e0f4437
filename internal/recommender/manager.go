package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LyoshaGodX/adaptivelearn/internal/debug"
	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// DefaultBufferSize bounds the recommendation history kept per student
const DefaultBufferSize = 20

// ErrNoCandidates is returned when no active task targets a workable skill
var ErrNoCandidates = errors.New("no candidate tasks for student")

// Manager drives the recommendation workflow against storage
type Manager struct {
	store      storage.Storage
	policy     *Policy
	bufferSize int
}

// NewManager wires a manager. bufferSize <= 0 falls back to the default.
func NewManager(store storage.Storage, policy *Policy, bufferSize int) *Manager {
	if policy == nil {
		policy = NewPolicy()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Manager{store: store, policy: policy, bufferSize: bufferSize}
}

// Policy exposes the manager's policy for training
func (m *Manager) Policy() *Policy { return m.policy }

// stateSnapshot is the serialized student state stored with every
// recommendation so the decision context survives later mastery updates.
type stateSnapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Masteries   map[string]float64 `json:"masteries"`
	Frontier    []string           `json:"frontier"`
}

// Generate picks the best task for the student, persists the recommendation
// as their current one, and prunes history past the buffer size.
func (m *Manager) Generate(ctx context.Context, studentID string) (*types.Recommendation, error) {
	if _, err := m.store.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}

	g, err := m.store.LoadGraph(ctx)
	if err != nil {
		return nil, err
	}
	masteryList, err := m.store.ListMasteries(ctx, studentID)
	if err != nil {
		return nil, err
	}
	masteries := make(map[string]*types.SkillMastery, len(masteryList))
	for _, mastery := range masteryList {
		masteries[mastery.SkillID] = mastery
	}

	frontier := Frontier(g, masteries)
	tasks, err := m.candidateTasks(ctx, frontier)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNoCandidates)
	}

	recent, err := m.recentTasks(ctx, studentID)
	if err != nil {
		return nil, err
	}

	ranked := m.policy.Rank(tasks, masteries, frontier, recent)
	best := ranked[0]
	debug.Logf("recommend: student=%s task=%s q=%.3f (%s)",
		studentID, best.Task.ID, best.QValue, best.Reason)

	rec := &types.Recommendation{
		StudentID:  studentID,
		TaskID:     best.Task.ID,
		QValue:     best.QValue,
		Confidence: best.Confidence,
		Reason:     best.Reason,
	}

	snap := stateSnapshot{GeneratedAt: time.Now(), Masteries: make(map[string]float64)}
	for id, mastery := range masteries {
		snap.Masteries[id] = mastery.CurrentProb
	}
	for id := range frontier {
		snap.Frontier = append(snap.Frontier, id)
	}
	if data, err := json.Marshal(snap); err == nil {
		rec.StateSnapshot = string(data)
	}

	rec.PrereqSnapshots = m.snapshots(ctx, g, masteries, best.Task.Skills, true)
	rec.DependentSnapshots = m.snapshots(ctx, g, masteries, best.Task.Skills, false)

	if err := m.store.SaveRecommendation(ctx, rec, true, m.bufferSize); err != nil {
		return nil, err
	}
	return rec, nil
}

// recentTasks collects the task IDs of the student's last few attempts so
// ranking can penalize immediate repeats.
func (m *Manager) recentTasks(ctx context.Context, studentID string) (map[string]bool, error) {
	attempts, err := m.store.ListAttempts(ctx, types.AttemptFilter{StudentID: studentID, Limit: 5})
	if err != nil {
		return nil, err
	}
	recent := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		recent[a.TaskID] = true
	}
	return recent, nil
}

// candidateTasks returns active tasks linked to at least one frontier skill.
// When the student has no frontier (nothing attempted yet and no base skills
// mastered), base-skill tasks are offered instead.
func (m *Manager) candidateTasks(ctx context.Context, frontier map[string]bool) ([]*types.Task, error) {
	seen := make(map[string]bool)
	var tasks []*types.Task
	for skillID := range frontier {
		linked, err := m.store.ListTasks(ctx, types.TaskFilter{SkillID: skillID, ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		for _, task := range linked {
			if !seen[task.ID] {
				seen[task.ID] = true
				full, err := m.store.GetTask(ctx, task.ID)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, full)
			}
		}
	}
	if len(tasks) > 0 {
		return tasks, nil
	}

	// Fall back to every active task so a fully-mastered or empty graph
	// still yields something to practice.
	all, err := m.store.ListTasks(ctx, types.TaskFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	for _, task := range all {
		full, err := m.store.GetTask(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, full)
	}
	return tasks, nil
}

// snapshots captures mastery state for the prerequisites (or dependents) of
// the chosen task's skills
func (m *Manager) snapshots(ctx context.Context, g *skillgraph.Graph, masteries map[string]*types.SkillMastery, skillIDs []string, prereqs bool) []types.SkillSnapshot {
	seen := make(map[string]bool)
	var snaps []types.SkillSnapshot
	for _, skillID := range skillIDs {
		var related []string
		if prereqs {
			related = g.Prerequisites(skillID)
		} else {
			related = g.Dependents(skillID)
		}
		for _, relID := range related {
			if seen[relID] {
				continue
			}
			seen[relID] = true

			snap := types.SkillSnapshot{SkillID: relID}
			if skill, err := m.store.GetSkill(ctx, relID); err == nil {
				snap.SkillName = skill.Name
			}
			if mastery, ok := masteries[relID]; ok {
				snap.Mastery = mastery.CurrentProb
				snap.Attempts = mastery.AttemptsCount
				snap.Correct = mastery.CorrectAttempts
			}
			snaps = append(snaps, snap)
		}
	}
	return snaps
}

// HandleAttempt is the full submission workflow: record the attempt (with
// its mastery updates), link it to the student's current recommendation when
// the task matches, then generate the next recommendation.
//
// Linking only happens on a task match; an attempt on some other task leaves
// the current recommendation open. A second attempt on an already-linked
// recommendation is ignored rather than failed, so retries are harmless.
func (m *Manager) HandleAttempt(ctx context.Context, attempt *types.TaskAttempt) (*types.Recommendation, error) {
	if err := m.store.SubmitAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	cur, rec, err := m.store.GetCurrentRecommendation(ctx, attempt.StudentID)
	if err == nil && rec.TaskID == attempt.TaskID {
		if linkErr := m.store.LinkAttempt(ctx, cur.RecommendationID, attempt.ID); linkErr != nil &&
			!errors.Is(linkErr, storage.ErrAlreadyLinked) {
			return nil, linkErr
		}
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	next, err := m.Generate(ctx, attempt.StudentID)
	if errors.Is(err, ErrNoCandidates) {
		return nil, nil
	}
	return next, err
}

// Current returns the student's current recommendation and bumps its view
// counter
func (m *Manager) Current(ctx context.Context, studentID string) (*types.CurrentRecommendation, *types.Recommendation, error) {
	cur, rec, err := m.store.GetCurrentRecommendation(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	if err := m.store.MarkRecommendationViewed(ctx, studentID); err != nil {
		return nil, nil, err
	}
	cur.TimesViewed++
	return cur, rec, nil
}

// History returns the student's recommendation buffer, newest first
func (m *Manager) History(ctx context.Context, studentID string, limit int) ([]*types.Recommendation, error) {
	if limit <= 0 || limit > m.bufferSize {
		limit = m.bufferSize
	}
	return m.store.ListRecommendations(ctx, studentID, limit)
}
