package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/cormac-larkin/EduChan-sub000/internal/app"
	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

// AttemptHandler is the REST boundary of the grading service.
type AttemptHandler struct {
	grading  *app.GradingService
	resolver MemberResolver
}

func NewAttemptHandler(grading *app.GradingService, resolver MemberResolver) *AttemptHandler {
	return &AttemptHandler{grading: grading, resolver: resolver}
}

// Register mounts the attempt routes on a mux.
func (h *AttemptHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes/{quizID}/attempts", h.submitAttempt)
	mux.HandleFunc("GET /quizzes/{quizID}/report", h.questionReport)
}

type attemptRequest struct {
	QuizAttempt []domain.AttemptQuestion `json:"quizAttempt"`
}

func (h *AttemptHandler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.PathValue("quizID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	member, err := h.resolver.Resolve(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unresolved member")
		return
	}

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "missing or malformed body")
		return
	}

	attemptID, err := h.grading.RecordAttempt(r.Context(), quizID, member.ID, req.QuizAttempt)
	switch {
	case errors.Is(err, domain.ErrEmptyAttempt):
		writeError(w, http.StatusBadRequest, "attempt has no answers")
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
	case err != nil:
		log.Printf("record attempt for quiz %d failed: %v", quizID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]int64{"attemptID": attemptID})
	}
}

func (h *AttemptHandler) questionReport(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.PathValue("quizID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}

	reports, err := h.grading.QuestionReport(r.Context(), quizID)
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
	case err != nil:
		log.Printf("question report for quiz %d failed: %v", quizID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, reports)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
