package server

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LyoshaGodX/adaptivelearn/internal/progress"
	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/types"
)

// --- Skills and the prerequisite graph ---

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	filter := types.SkillFilter{
		CourseID:   r.URL.Query().Get("course"),
		NameSearch: r.URL.Query().Get("q"),
	}
	skills, err := s.store.ListSkills(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var skill types.Skill
	if err := decodeJSON(r, &skill); err != nil {
		badRequest(w, "invalid skill payload: "+err.Error())
		return
	}
	if err := s.store.CreateSkill(r.Context(), &skill, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	skill, err := s.store.GetSkill(r.Context(), chi.URLParam(r, "skillID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSkill(r.Context(), chi.URLParam(r, "skillID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkillAncestors(w http.ResponseWriter, r *http.Request) {
	s.handleSkillClosure(w, r, true)
}

func (s *Server) handleSkillDescendants(w http.ResponseWriter, r *http.Request) {
	s.handleSkillClosure(w, r, false)
}

func (s *Server) handleSkillClosure(w http.ResponseWriter, r *http.Request, ancestors bool) {
	skillID := chi.URLParam(r, "skillID")
	g, err := s.store.LoadGraph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !g.HasNode(skillID) {
		writeError(w, s.skillNotFound(r, skillID))
		return
	}

	var set map[string]bool
	if ancestors {
		set = g.CollectAncestors(skillID)
	} else {
		set = g.CollectDescendants(skillID)
	}
	delete(set, skillID) // closure includes the node itself; the API reports strict relatives

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, ids)
}

// skillNotFound produces the storage-flavored not-found error for a skill ID
// that exists in the URL but not the graph
func (s *Server) skillNotFound(r *http.Request, skillID string) error {
	_, err := s.store.GetSkill(r.Context(), skillID)
	return err
}

func (s *Server) handleEligiblePrereqs(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skillID")
	g, err := s.store.LoadGraph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !g.HasNode(skillID) {
		writeError(w, s.skillNotFound(r, skillID))
		return
	}
	writeJSON(w, http.StatusOK, g.EligiblePrerequisites(skillID))
}

type prereqRequest struct {
	PrereqID string `json:"prereq_id"`
}

func (s *Server) handleAddPrereq(w http.ResponseWriter, r *http.Request) {
	var req prereqRequest
	if err := decodeJSON(r, &req); err != nil || req.PrereqID == "" {
		badRequest(w, "prereq_id is required")
		return
	}
	skillID := chi.URLParam(r, "skillID")
	if err := s.store.AddPrerequisite(r.Context(), skillID, req.PrereqID, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"skill_id":  skillID,
		"prereq_id": req.PrereqID,
	})
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// handleCheckPrereq is the propose side of edge addition: it reports whether
// the edge would be accepted without committing anything.
func (s *Server) handleCheckPrereq(w http.ResponseWriter, r *http.Request) {
	var req prereqRequest
	if err := decodeJSON(r, &req); err != nil || req.PrereqID == "" {
		badRequest(w, "prereq_id is required")
		return
	}
	g, err := s.store.LoadGraph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := g.CheckAddEdge(chi.URLParam(r, "skillID"), req.PrereqID); err != nil {
		writeJSON(w, http.StatusOK, checkResponse{Allowed: false, Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Allowed: true})
}

func (s *Server) handleRemovePrereq(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemovePrerequisite(r.Context(),
		chi.URLParam(r, "skillID"), chi.URLParam(r, "prereqID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type graphResponse struct {
	Skills []string                 `json:"skills"`
	Edges  []types.PrerequisiteEdge `json:"edges"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.LoadGraph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	edges, err := s.store.ListEdges(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{Skills: g.Nodes(), Edges: edges})
}

func (s *Server) handleGraphCycles(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.LoadGraph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	cycles := g.DetectCycles()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"acyclic": len(cycles) == 0,
		"cycles":  cycles,
	})
}

func (s *Server) handleGraphOrder(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.LoadGraph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	order, ok := g.TopoSort()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"acyclic": ok,
		"order":   order,
	})
}

// --- Tasks ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter := types.TaskFilter{
		SkillID:    r.URL.Query().Get("skill"),
		CourseID:   r.URL.Query().Get("course"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	tasks, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task types.Task
	if err := decodeJSON(r, &task); err != nil {
		badRequest(w, "invalid task payload: "+err.Error())
		return
	}
	if err := s.store.CreateTask(r.Context(), &task, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- Students ---

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var student types.Student
	if err := decodeJSON(r, &student); err != nil {
		badRequest(w, "invalid student payload: "+err.Error())
		return
	}
	if err := s.store.CreateStudent(r.Context(), &student); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.store.GetStudent(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

type courseProgress struct {
	CourseID        string `json:"course_id"`
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
}

type progressResponse struct {
	Summary       progress.Summary `json:"summary"`
	LearningSpeed float64          `json:"learning_speed"`
	Courses       []courseProgress `json:"courses,omitempty"`
}

func (s *Server) handleStudentProgress(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	if _, err := s.store.GetStudent(r.Context(), studentID); err != nil {
		writeError(w, err)
		return
	}

	attempts, err := s.store.ListAttempts(r.Context(), types.AttemptFilter{StudentID: studentID})
	if err != nil {
		writeError(w, err)
		return
	}
	masteries, err := s.store.ListMasteries(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := progressResponse{
		Summary:       progress.Summarize(attempts, masteries),
		LearningSpeed: progress.LearningSpeed(attempts),
	}

	// Per-enrollment progress is recomputed from mastery, not the stored
	// percent, so it is always current.
	enrollments, err := s.store.ListEnrollments(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, e := range enrollments {
		skills, err := s.store.ListSkills(r.Context(), types.SkillFilter{CourseID: e.CourseID})
		if err != nil {
			writeError(w, err)
			return
		}
		ids := make([]string, len(skills))
		for i, sk := range skills {
			ids[i] = sk.ID
		}
		resp.Courses = append(resp.Courses, courseProgress{
			CourseID:        e.CourseID,
			Status:          string(e.Status),
			ProgressPercent: progress.CourseProgress(ids, masteries),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Recommendations, attempts, feedback, training ---

func (s *Server) handleCurrentRecommendation(w http.ResponseWriter, r *http.Request) {
	cur, rec, err := s.mgr.Current(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current":        cur,
		"recommendation": rec,
	})
}

func (s *Server) handleRecommendationHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := s.mgr.History(r.Context(), chi.URLParam(r, "studentID"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type attemptResponse struct {
	Attempt *types.TaskAttempt    `json:"attempt"`
	Next    *types.Recommendation `json:"next,omitempty"`
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var attempt types.TaskAttempt
	if err := decodeJSON(r, &attempt); err != nil {
		badRequest(w, "invalid attempt payload: "+err.Error())
		return
	}
	next, err := s.mgr.HandleAttempt(r.Context(), &attempt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attemptResponse{Attempt: &attempt, Next: next})
}

func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var feedback types.ExpertFeedback
	if err := decodeJSON(r, &feedback); err != nil {
		badRequest(w, "invalid feedback payload: "+err.Error())
		return
	}
	if feedback.Expert == "" {
		feedback.Expert = actorFrom(r)
	}
	if err := s.store.AddFeedback(r.Context(), &feedback); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

type trainRequest struct {
	Name         string  `json:"name,omitempty"`
	Description  string  `json:"description,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`
	BatchSize    int     `json:"batch_size,omitempty"`
	Epochs       int     `json:"epochs,omitempty"`
	ModelPath    string  `json:"model_path,omitempty"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid training payload: "+err.Error())
		return
	}
	trainer := recommender.NewTrainer(s.store, s.mgr.Policy())
	session, err := trainer.Train(r.Context(), recommender.TrainOptions{
		Name:         req.Name,
		Description:  req.Description,
		LearningRate: req.LearningRate,
		BatchSize:    req.BatchSize,
		Epochs:       req.Epochs,
		ModelPath:    req.ModelPath,
		CreatedBy:    actorFrom(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStatistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// actorFrom resolves the audit actor for a request
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
