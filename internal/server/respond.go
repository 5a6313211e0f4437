package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/skillgraph"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinel errors onto HTTP status codes. Edge
// rejections are 409s carrying the reason, so a client can distinguish
// "cycle" from "redundant" without string matching on its side.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate),
		errors.Is(err, storage.ErrAlreadyLinked),
		errors.Is(err, storage.ErrTaskMismatch):
		status = http.StatusConflict
	case errors.Is(err, skillgraph.ErrCycle),
		errors.Is(err, skillgraph.ErrRedundantEdge),
		errors.Is(err, skillgraph.ErrDuplicateEdge),
		errors.Is(err, skillgraph.ErrSelfEdge):
		status = http.StatusConflict
	case errors.Is(err, skillgraph.ErrUnknownSkill):
		status = http.StatusNotFound
	case errors.Is(err, recommender.ErrNoCandidates),
		errors.Is(err, recommender.ErrNoFeedback):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
