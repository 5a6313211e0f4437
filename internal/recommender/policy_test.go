package recommender

import (
	"path/filepath"
	"testing"

	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

func masteryAt(skillID string, prob float64, attempts int) *types.SkillMastery {
	return &types.SkillMastery{
		SkillID:         skillID,
		CurrentProb:     prob,
		AttemptsCount:   attempts,
		CorrectAttempts: attempts / 2,
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		difficulty types.Difficulty
		mastery    float64
		want       float64
	}{
		{types.DifficultyBeginner, 0.2, 1.0},
		{types.DifficultyBeginner, 0.9, 0.3},
		{types.DifficultyIntermediate, 0.5, 1.0},
		{types.DifficultyIntermediate, 0.1, 0.4},
		{types.DifficultyIntermediate, 0.95, 0.4},
		{types.DifficultyAdvanced, 0.85, 1.0},
		{types.DifficultyAdvanced, 0.3, 0.2},
	}
	for _, tt := range tests {
		if got := matchScore(tt.difficulty, tt.mastery); got != tt.want {
			t.Errorf("matchScore(%s, %.2f) = %.2f, want %.2f",
				tt.difficulty, tt.mastery, got, tt.want)
		}
	}
}

func TestScorePrefersFrontierSkills(t *testing.T) {
	policy := NewPolicy()
	masteries := map[string]*types.SkillMastery{
		"sk-a": masteryAt("sk-a", 0.3, 4),
		"sk-b": masteryAt("sk-b", 0.3, 4),
	}
	frontier := map[string]bool{"sk-a": true}

	onFrontier := policy.Score(&types.Task{ID: "t1", Difficulty: types.DifficultyBeginner,
		Skills: []string{"sk-a"}}, masteries, frontier, nil)
	offFrontier := policy.Score(&types.Task{ID: "t2", Difficulty: types.DifficultyBeginner,
		Skills: []string{"sk-b"}}, masteries, frontier, nil)

	if onFrontier.QValue <= offFrontier.QValue {
		t.Errorf("frontier task q=%.2f should beat non-frontier q=%.2f",
			onFrontier.QValue, offFrontier.QValue)
	}
	if onFrontier.Reason == offFrontier.Reason {
		t.Error("reasons should distinguish frontier from non-frontier tasks")
	}
}

func TestRankIsDeterministic(t *testing.T) {
	policy := NewPolicy()
	tasks := []*types.Task{
		{ID: "t-b", Difficulty: types.DifficultyBeginner, Skills: []string{"sk-a"}},
		{ID: "t-a", Difficulty: types.DifficultyBeginner, Skills: []string{"sk-a"}},
	}
	masteries := map[string]*types.SkillMastery{"sk-a": masteryAt("sk-a", 0.3, 2)}
	frontier := map[string]bool{"sk-a": true}

	first := policy.Rank(tasks, masteries, frontier, nil)
	second := policy.Rank([]*types.Task{tasks[1], tasks[0]}, masteries, frontier, nil)

	if first[0].Task.ID != second[0].Task.ID {
		t.Errorf("ranking depends on input order: %s vs %s", first[0].Task.ID, second[0].Task.ID)
	}
	if first[0].Task.ID != "t-a" {
		t.Errorf("tie should break by task ID, got %s", first[0].Task.ID)
	}
}

func TestRecentTaskTakesRepeatPenalty(t *testing.T) {
	policy := NewPolicy()
	masteries := map[string]*types.SkillMastery{"sk-a": masteryAt("sk-a", 0.3, 4)}
	frontier := map[string]bool{"sk-a": true}
	task := &types.Task{ID: "t1", Difficulty: types.DifficultyBeginner, Skills: []string{"sk-a"}}

	fresh := policy.Score(task, masteries, frontier, nil)
	repeated := policy.Score(task, masteries, frontier, map[string]bool{"t1": true})

	if repeated.QValue >= fresh.QValue {
		t.Errorf("repeated q=%.2f should be below fresh q=%.2f", repeated.QValue, fresh.QValue)
	}
}

func TestAdjustClampsWeights(t *testing.T) {
	policy := NewPolicy()
	for i := 0; i < 100; i++ {
		policy.Adjust("sk-a", 0.5)
	}
	if w := policy.Weight("sk-a"); w != 1.0 {
		t.Errorf("weight = %f, want clamped to 1.0", w)
	}
	for i := 0; i < 100; i++ {
		policy.Adjust("sk-a", -0.5)
	}
	if w := policy.Weight("sk-a"); w != -1.0 {
		t.Errorf("weight = %f, want clamped to -1.0", w)
	}
}

func TestFrontierFromGraph(t *testing.T) {
	g := skillgraph.New()
	for _, id := range []string{"base", "mid", "top"} {
		g.AddNode(id)
	}
	g.AddEdge("mid", "base")
	g.AddEdge("top", "mid")

	// Base mastered, mid not: frontier is exactly mid
	masteries := map[string]*types.SkillMastery{
		"base": masteryAt("base", 0.9, 10),
		"mid":  masteryAt("mid", 0.4, 3),
	}
	frontier := Frontier(g, masteries)
	if !frontier["mid"] || frontier["top"] || frontier["base"] {
		t.Errorf("frontier = %v, want only mid", frontier)
	}
}

func TestPolicyFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "policy.json")

	policy := NewPolicy()
	policy.Adjust("sk-a", 0.25)
	policy.Adjust("sk-b", -0.5)
	if err := policy.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded := NewPolicy()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if w := loaded.Weight("sk-a"); w != 0.25 {
		t.Errorf("sk-a weight = %f, want 0.25", w)
	}
	if w := loaded.Weight("sk-b"); w != -0.5 {
		t.Errorf("sk-b weight = %f, want -0.5", w)
	}

	// Missing file leaves weights untouched
	if err := loaded.LoadFile(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("LoadFile on missing file: %v", err)
	}
	if w := loaded.Weight("sk-a"); w != 0.25 {
		t.Errorf("weights lost after loading missing file: %f", w)
	}
}
