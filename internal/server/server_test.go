package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage/sqlite"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

func newTestServer(t *testing.T) (*Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(context.Background(), t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr := recommender.NewManager(store, recommender.NewPolicy(), 20)
	return New(store, mgr, ":0"), store
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestSkillLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rr := doJSON(t, router, http.MethodPost, "/api/skills", types.Skill{Name: "Variables", IsBase: true})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	var created types.Skill
	decode(t, rr, &created)
	if created.ID == "" {
		t.Fatal("created skill has no ID")
	}

	rr = doJSON(t, router, http.MethodGet, "/api/skills/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("get status = %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/skills/sk-ghost", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing skill status = %d, want 404", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/skills", types.Skill{Name: "Variables"})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate name status = %d, want 409", rr.Code)
	}
}

func TestPrerequisiteEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		skill := &types.Skill{Name: name}
		if err := store.CreateSkill(ctx, skill, "test"); err != nil {
			t.Fatalf("CreateSkill: %v", err)
		}
		ids = append(ids, skill.ID)
	}

	// B requires A, C requires B
	for i, pair := range [][2]string{{ids[1], ids[0]}, {ids[2], ids[1]}} {
		rr := doJSON(t, router, http.MethodPost, "/api/skills/"+pair[0]+"/prerequisites",
			map[string]string{"prereq_id": pair[1]})
		if rr.Code != http.StatusCreated {
			t.Fatalf("edge %d status = %d: %s", i, rr.Code, rr.Body.String())
		}
	}

	// Closing the loop is refused with a conflict
	rr := doJSON(t, router, http.MethodPost, "/api/skills/"+ids[0]+"/prerequisites",
		map[string]string{"prereq_id": ids[2]})
	if rr.Code != http.StatusConflict {
		t.Errorf("cycle status = %d, want 409: %s", rr.Code, rr.Body.String())
	}

	// The check endpoint reports it without committing
	rr = doJSON(t, router, http.MethodPost, "/api/skills/"+ids[0]+"/prerequisites/check",
		map[string]string{"prereq_id": ids[2]})
	if rr.Code != http.StatusOK {
		t.Fatalf("check status = %d", rr.Code)
	}
	var check struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	decode(t, rr, &check)
	if check.Allowed || check.Reason == "" {
		t.Errorf("check = %+v, want refused with a reason", check)
	}

	// Ancestors of C are its transitive prerequisites A and B, excluding C
	// itself. A has no prerequisites, so its strict ancestor set is empty.
	rr = doJSON(t, router, http.MethodGet, "/api/skills/"+ids[2]+"/ancestors", nil)
	var ancestors []string
	decode(t, rr, &ancestors)
	if len(ancestors) != 2 {
		t.Errorf("ancestors of C = %v, want [A B]", ancestors)
	}
	rr = doJSON(t, router, http.MethodGet, "/api/skills/"+ids[0]+"/ancestors", nil)
	ancestors = nil
	decode(t, rr, &ancestors)
	if len(ancestors) != 0 {
		t.Errorf("ancestors of A = %v, want none", ancestors)
	}

	// Descendants of A are the skills that build on it, B and C
	rr = doJSON(t, router, http.MethodGet, "/api/skills/"+ids[0]+"/descendants", nil)
	var descendants []string
	decode(t, rr, &descendants)
	if len(descendants) != 2 {
		t.Errorf("descendants of A = %v, want [B C]", descendants)
	}

	// Graph and cycle report
	rr = doJSON(t, router, http.MethodGet, "/api/graph/cycles", nil)
	var cycles struct {
		Acyclic bool `json:"acyclic"`
	}
	decode(t, rr, &cycles)
	if !cycles.Acyclic {
		t.Error("graph should be acyclic")
	}

	// Remove an edge, then removing it again 404s
	rr = doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/api/skills/%s/prerequisites/%s", ids[2], ids[1]), nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want 204", rr.Code)
	}
	rr = doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/api/skills/%s/prerequisites/%s", ids[2], ids[1]), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", rr.Code)
	}
}

func TestAttemptAndRecommendationFlow(t *testing.T) {
	srv, store := newTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	skill := &types.Skill{Name: "Loops", IsBase: true}
	if err := store.CreateSkill(ctx, skill, "test"); err != nil {
		t.Fatalf("CreateSkill: %v", err)
	}
	task := &types.Task{Title: "Write a loop", QuestionText: "q", IsActive: true, Skills: []string{skill.ID}}
	if err := store.CreateTask(ctx, task, "test"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	rr := doJSON(t, router, http.MethodPost, "/api/students",
		types.Student{Username: "alice", FullName: "Alice", IsActive: true})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create student status = %d: %s", rr.Code, rr.Body.String())
	}
	var student types.Student
	decode(t, rr, &student)

	// Submitting an attempt produces the next recommendation
	rr = doJSON(t, router, http.MethodPost, "/api/attempts",
		map[string]interface{}{"student_id": student.ID, "task_id": task.ID, "is_correct": true})
	if rr.Code != http.StatusCreated {
		t.Fatalf("attempt status = %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		Attempt *types.TaskAttempt    `json:"attempt"`
		Next    *types.Recommendation `json:"next"`
	}
	decode(t, rr, &result)
	if result.Attempt.ID == 0 || result.Next == nil {
		t.Fatalf("result = %+v, want recorded attempt and next recommendation", result)
	}

	// The current recommendation endpoint returns it and counts the view
	rr = doJSON(t, router, http.MethodGet, "/api/students/"+student.ID+"/recommendation", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("current status = %d: %s", rr.Code, rr.Body.String())
	}

	// Progress reflects the attempt
	rr = doJSON(t, router, http.MethodGet, "/api/students/"+student.ID+"/progress", nil)
	var prog struct {
		Summary struct {
			TotalAttempts int `json:"total_attempts"`
		} `json:"summary"`
	}
	decode(t, rr, &prog)
	if prog.Summary.TotalAttempts != 1 {
		t.Errorf("total_attempts = %d, want 1", prog.Summary.TotalAttempts)
	}

	// Stats roll it all up
	rr = doJSON(t, router, http.MethodGet, "/api/stats", nil)
	var stats types.Statistics
	decode(t, rr, &stats)
	if stats.TotalAttempts != 1 || stats.TotalRecommendations == 0 {
		t.Errorf("stats = %+v, want the attempt and recommendation counted", stats)
	}
}

func TestFeedbackAndTrainOverHTTP(t *testing.T) {
	srv, store := newTestServer(t)
	router := srv.Router()
	ctx := context.Background()

	skill := &types.Skill{Name: "Loops", IsBase: true}
	if err := store.CreateSkill(ctx, skill, "test"); err != nil {
		t.Fatalf("CreateSkill: %v", err)
	}
	task := &types.Task{Title: "T", QuestionText: "q", IsActive: true, Skills: []string{skill.ID}}
	if err := store.CreateTask(ctx, task, "test"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	student := &types.Student{Username: "bob", FullName: "Bob", IsActive: true}
	if err := store.CreateStudent(ctx, student); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	rec := &types.Recommendation{StudentID: student.ID, TaskID: task.ID}
	if err := store.SaveRecommendation(ctx, rec, true, 20); err != nil {
		t.Fatalf("SaveRecommendation: %v", err)
	}

	// Training with no feedback is a 422
	rr := doJSON(t, router, http.MethodPost, "/api/train", map[string]interface{}{})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("train without feedback status = %d, want 422", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/feedback", map[string]interface{}{
		"recommendation_id": rec.ID,
		"expert":            "methodist",
		"type":              "positive",
		"strength":          "high",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("feedback status = %d: %s", rr.Code, rr.Body.String())
	}
	var fb types.ExpertFeedback
	decode(t, rr, &fb)
	if fb.Reward != 1.0 {
		t.Errorf("reward = %f, want 1.0", fb.Reward)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/train", map[string]interface{}{"name": "pass"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("train status = %d: %s", rr.Code, rr.Body.String())
	}
	var session types.TrainingSession
	decode(t, rr, &session)
	if session.Status != types.TrainingCompleted {
		t.Errorf("session status = %s, want completed", session.Status)
	}
}

func TestBadPayloadIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/skills", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
