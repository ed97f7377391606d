package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"docqa/internal/domain"
)

// RunRequest is the inbound payload: a document (URL or raw text) and
// the questions to answer against it.
type RunRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

// RunResponse carries one answer per question, in request order.
type RunResponse struct {
	Answers []string `json:"answers"`
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Documents == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "documents is required")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "questions must not be empty")
		return
	}

	s.logger.Info("processing run request", "questions", len(req.Questions))
	answers, err := s.runner.Run(r.Context(), req.Documents, req.Questions)
	if err != nil {
		status := http.StatusInternalServerError
		kind := "internal_error"
		if errors.Is(err, domain.ErrDocument) {
			status = http.StatusBadRequest
			kind = "document_error"
		} else if errors.Is(err, domain.ErrEmbedding) {
			kind = "embedding_error"
		}
		s.logger.Error("run request failed", "error", err)
		writeError(w, status, kind, err.Error())
		return
	}

	// One answer per question is part of the API contract.
	if len(answers) != len(req.Questions) {
		s.logger.Error("answer count mismatch", "questions", len(req.Questions), "answers", len(answers))
		writeError(w, http.StatusInternalServerError, "internal_error", "answer count does not match question count")
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Answers: answers})
}
