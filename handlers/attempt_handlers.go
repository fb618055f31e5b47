package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"classcapture-api/db"
	"classcapture-api/quiz"
	"classcapture-api/utils"
)

const msgLastUnanswered = "Please answer the last question!"

// AttemptHandlers exposes the per-session quiz state machine. All state
// lives in the registry; nothing here touches storage except to load the
// questions.
type AttemptHandlers struct {
	db       *db.DB
	attempts *quiz.Registry
}

func NewAttemptHandlers(database *db.DB, attempts *quiz.Registry) *AttemptHandlers {
	return &AttemptHandlers{
		db:       database,
		attempts: attempts,
	}
}

// answerRequest records one option selection.
type answerRequest struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

func (qh *AttemptHandlers) HandleAttempt(w http.ResponseWriter, r *http.Request, studySessionID, action string) {
	switch {
	case action == "" && r.Method == http.MethodGet:
		qh.openAttempt(w, r, studySessionID)
	case action == "" && r.Method == http.MethodDelete:
		qh.discardAttempt(w, r, studySessionID)
	case action == "answer" && r.Method == http.MethodPost:
		qh.selectOption(w, r, studySessionID)
	case action == "advance" && r.Method == http.MethodPost:
		qh.advance(w, r, studySessionID)
	case action == "submit" && r.Method == http.MethodPost:
		qh.submit(w, r, studySessionID)
	case action == "retake" && r.Method == http.MethodPost:
		qh.retake(w, r, studySessionID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// fetchAttempt loads the session's quiz and returns the live attempt,
// creating an empty one on first touch.
func (qh *AttemptHandlers) fetchAttempt(w http.ResponseWriter, r *http.Request, studySessionID string) *quiz.Attempt {
	session := getSessionFromContext(r.Context())

	record, err := qh.db.GetStudySessionByID(studySessionID, session.UserID)
	if err != nil {
		http.Error(w, "Study session not found", http.StatusNotFound)
		return nil
	}

	return qh.attempts.Open(session.ID, studySessionID, record.Quiz)
}

func (qh *AttemptHandlers) openAttempt(w http.ResponseWriter, r *http.Request, studySessionID string) {
	attempt := qh.fetchAttempt(w, r, studySessionID)
	if attempt == nil {
		return
	}

	writeJSON(w, http.StatusOK, attempt.State())
}

func (qh *AttemptHandlers) discardAttempt(w http.ResponseWriter, r *http.Request, studySessionID string) {
	session := getSessionFromContext(r.Context())
	qh.attempts.Discard(session.ID, studySessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (qh *AttemptHandlers) selectOption(w http.ResponseWriter, r *http.Request, studySessionID string) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	attempt := qh.fetchAttempt(w, r, studySessionID)
	if attempt == nil {
		return
	}

	if err := attempt.SelectOption(req.Index, req.Option); err != nil {
		if errors.Is(err, quiz.ErrIndexOutOfRange) {
			http.Error(w, "Question index out of range", http.StatusBadRequest)
			return
		}
		utils.LogError("SelectOption failed for session %s: %v", studySessionID, err)
		http.Error(w, "Could not record answer", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, attempt.State())
}

func (qh *AttemptHandlers) advance(w http.ResponseWriter, r *http.Request, studySessionID string) {
	attempt := qh.fetchAttempt(w, r, studySessionID)
	if attempt == nil {
		return
	}

	if err := attempt.Advance(); err != nil {
		switch {
		case errors.Is(err, quiz.ErrNoNextQuestion):
			jsonError(w, http.StatusConflict, "Already on the last question")
		case errors.Is(err, quiz.ErrAlreadySubmitted):
			jsonError(w, http.StatusConflict, "Quiz already submitted")
		default:
			http.Error(w, "Could not advance", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, attempt.State())
}

func (qh *AttemptHandlers) submit(w http.ResponseWriter, r *http.Request, studySessionID string) {
	attempt := qh.fetchAttempt(w, r, studySessionID)
	if attempt == nil {
		return
	}

	score, err := attempt.Submit()
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrLastUnanswered):
			// Rejected transition: the attempt stays active.
			writeJSON(w, http.StatusConflict, map[string]string{"warning": msgLastUnanswered})
		case errors.Is(err, quiz.ErrAlreadySubmitted):
			jsonError(w, http.StatusConflict, "Quiz already submitted")
		default:
			http.Error(w, "Could not submit quiz", http.StatusInternalServerError)
		}
		return
	}

	results, err := attempt.Results()
	if err != nil {
		utils.LogError("Results unavailable right after submit for %s: %v", studySessionID, err)
		http.Error(w, "Could not build results", http.StatusInternalServerError)
		return
	}

	state := attempt.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"score":   score,
		"total":   state.QuestionCount,
		"results": results,
		"message": scoreMessage(score, state.QuestionCount),
	})
}

func (qh *AttemptHandlers) retake(w http.ResponseWriter, r *http.Request, studySessionID string) {
	attempt := qh.fetchAttempt(w, r, studySessionID)
	if attempt == nil {
		return
	}

	if err := attempt.Retake(); err != nil {
		jsonError(w, http.StatusConflict, "Quiz has not been submitted yet")
		return
	}

	writeJSON(w, http.StatusOK, attempt.State())
}

func scoreMessage(score, total int) string {
	switch {
	case total > 0 && score == total:
		return "Perfect Score!"
	case score > 0:
		return fmt.Sprintf("Good job! %d/%d", score, total)
	default:
		return "Keep studying!"
	}
}
