// Package recommender selects the next task for a student and manages the
// recommendation lifecycle: generation, the bounded history buffer, attempt
// linking, expert feedback and policy training.
package recommender

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// Policy scores candidate tasks for a student. The base score is a
// deterministic match between task difficulty and current skill mastery;
// per-skill weights learned from expert feedback shift it.
type Policy struct {
	mu      sync.RWMutex
	weights map[string]float64 // skill ID -> learned adjustment
}

// NewPolicy returns a policy with no learned adjustments
func NewPolicy() *Policy {
	return &Policy{weights: make(map[string]float64)}
}

// Candidate is one scored task
type Candidate struct {
	Task       *types.Task
	QValue     float64
	Confidence float64
	Reason     string
}

// matchScore rates how well a task difficulty fits the student's current
// mastery of a skill:
//
//	beginner      best while mastery < 0.6
//	intermediate  best in 0.4..0.8
//	advanced      best above 0.7
func matchScore(d types.Difficulty, mastery float64) float64 {
	switch d {
	case types.DifficultyBeginner:
		if mastery < 0.6 {
			return 1.0
		}
		return 0.3
	case types.DifficultyIntermediate:
		if mastery >= 0.4 && mastery <= 0.8 {
			return 1.0
		}
		return 0.4
	case types.DifficultyAdvanced:
		if mastery > 0.7 {
			return 1.0
		}
		return 0.2
	}
	return 0.5
}

// Score rates one task against the student's mastery state. Tasks whose
// skills are all mastered or not yet workable score poorly; frontier skills
// (prerequisites mastered, skill itself not) dominate. Tasks in the recent
// set take a repeat penalty so the same task is not served back to back.
func (p *Policy) Score(task *types.Task, masteries map[string]*types.SkillMastery, frontier, recent map[string]bool) Candidate {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(task.Skills) == 0 {
		return Candidate{Task: task, QValue: 0.1, Confidence: 0.1, Reason: "task has no linked skills"}
	}

	var sum float64
	var attempts int
	var bestSkill string
	var bestMastery float64
	onFrontier := false

	for _, skillID := range task.Skills {
		mastery := 0.0
		if m, ok := masteries[skillID]; ok {
			mastery = m.CurrentProb
			attempts += m.AttemptsCount
		}
		score := matchScore(task.Difficulty, mastery)
		if frontier[skillID] {
			onFrontier = true
			score += 0.5
			if bestSkill == "" || mastery < bestMastery {
				bestSkill = skillID
				bestMastery = mastery
			}
		}
		score += p.weights[skillID]
		sum += score
	}

	q := sum / float64(len(task.Skills))
	if recent[task.ID] {
		q -= 0.3
	}
	if q < 0 {
		q = 0
	}

	// Confidence grows with observed attempts on the task's skills and
	// saturates around twenty observations.
	confidence := float64(attempts) / 20.0
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0.1 {
		confidence = 0.1
	}

	reason := fmt.Sprintf("%s task, no frontier skills", task.Difficulty)
	if onFrontier {
		reason = fmt.Sprintf("targets frontier skill %s (mastery %.2f) with a %s task",
			bestSkill, bestMastery, task.Difficulty)
	}
	return Candidate{Task: task, QValue: q, Confidence: confidence, Reason: reason}
}

// Rank scores all tasks and returns them best-first. Ties break by task ID
// so ranking is deterministic.
func (p *Policy) Rank(tasks []*types.Task, masteries map[string]*types.SkillMastery, frontier, recent map[string]bool) []Candidate {
	candidates := make([]Candidate, 0, len(tasks))
	for _, task := range tasks {
		candidates = append(candidates, p.Score(task, masteries, frontier, recent))
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].QValue != candidates[j].QValue {
			return candidates[i].QValue > candidates[j].QValue
		}
		return candidates[i].Task.ID < candidates[j].Task.ID
	})
	return candidates
}

// Adjust shifts a skill weight by delta, clamped to [-1, 1]
func (p *Policy) Adjust(skillID string, delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w := p.weights[skillID] + delta
	if w > 1 {
		w = 1
	}
	if w < -1 {
		w = -1
	}
	p.weights[skillID] = w
}

// Weight returns the learned adjustment for a skill
func (p *Policy) Weight(skillID string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.weights[skillID]
}

// Frontier computes the set of workable skills: every prerequisite mastered,
// the skill itself not yet mastered.
func Frontier(g *skillgraph.Graph, masteries map[string]*types.SkillMastery) map[string]bool {
	mastered := make(map[string]bool, len(masteries))
	for id, m := range masteries {
		if m.IsMastered() {
			mastered[id] = true
		}
	}
	frontier := make(map[string]bool)
	for _, id := range g.Frontier(mastered) {
		frontier[id] = true
	}
	return frontier
}

type policyFile struct {
	Weights map[string]float64 `json:"weights"`
}

// SaveFile writes the learned weights to path as JSON
func (p *Policy) SaveFile(path string) error {
	p.mu.RLock()
	data, err := json.MarshalIndent(policyFile{Weights: p.weights}, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}
	return nil
}

// LoadFile replaces the learned weights from a JSON file written by SaveFile.
// A missing file is not an error; the policy keeps its current weights.
func (p *Policy) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}
	var f policyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}
	if f.Weights == nil {
		f.Weights = make(map[string]float64)
	}
	p.mu.Lock()
	p.weights = f.Weights
	p.mu.Unlock()
	return nil
}
