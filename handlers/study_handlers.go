package handlers

import (
	"net/http"
	"sync"
	"time"

	"classcapture-api/analyzer"
	"classcapture-api/db"
	"classcapture-api/models"
	"classcapture-api/notes"
	"classcapture-api/utils"
)

// maxUploadBytes caps the multipart memory buffer for note photos.
const maxUploadBytes = 32 << 20

const (
	msgAnalysisComplete = "Analysis Complete"
	msgUsingFallback    = "Using fallback summary"
	msgSyncFailed       = "Cloud sync failed. Data visible for this session only."
	msgHistoryFailed    = "Could not load your study history"
)

// StudyHandlers is the dashboard controller: it orchestrates
// upload -> analyze -> normalize -> persist and serves history, profile,
// and export.
type StudyHandlers struct {
	db       *db.DB
	analyzer *analyzer.Client
	guard    uploadGuard
}

func NewStudyHandlers(database *db.DB, analyzerClient *analyzer.Client) *StudyHandlers {
	return &StudyHandlers{
		db:       database,
		analyzer: analyzerClient,
		guard:    uploadGuard{inFlight: make(map[int]bool)},
	}
}

// uploadGuard rejects a second upload by the same user while one is in
// flight. Duplicate submissions used to race each other unguarded.
type uploadGuard struct {
	mu       sync.Mutex
	inFlight map[int]bool
}

func (g *uploadGuard) tryAcquire(userID int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[userID] {
		return false
	}
	g.inFlight[userID] = true
	return true
}

func (g *uploadGuard) release(userID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, userID)
}

func (sh *StudyHandlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sh.getHistory(w, r)
	case http.MethodPost:
		sh.uploadSession(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// uploadSession runs the whole pipeline for one file. Analysis failure is
// not an error here: the fallback payload flows through normalization and
// persistence like a real result. A failed save is also non-fatal and the
// client gets the record back marked as not synced.
func (sh *StudyHandlers) uploadSession(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromContext(r.Context())
	utils.LogHTTP("POST /sessions (user %d)", session.UserID)

	if !sh.guard.tryAcquire(session.UserID) {
		utils.LogHTTP("Rejected concurrent upload for user %d", session.UserID)
		jsonError(w, http.StatusConflict, "An upload is already in progress")
		return
	}
	defer sh.guard.release(session.UserID)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.LogHTTP("Invalid multipart payload: %v", err)
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, usedFallback := sh.analyzer.Analyze(r.Context(), header.Filename, file)

	summary := notes.Format(result.Summary)
	quizQuestions := normalizeQuiz(result.Quiz)

	resp := models.StudySessionResponse{
		Fallback: usedFallback,
		Synced:   true,
		Message:  msgAnalysisComplete,
	}
	if usedFallback {
		resp.Message = msgUsingFallback
	}

	saved, err := sh.db.CreateStudySession(session.UserID, header.Filename, summary, quizQuestions)
	if err != nil {
		utils.LogError("Study session save failed for user %d: %v", session.UserID, err)
		resp.Synced = false
		resp.Message = msgSyncFailed
		resp.Session = &models.StudySession{
			UserID:    session.UserID,
			FileName:  header.Filename,
			Summary:   summary,
			Quiz:      quizQuestions,
			CreatedAt: time.Now(),
		}
	} else {
		resp.Session = saved
	}

	writeJSON(w, http.StatusCreated, resp)
}

// normalizeQuiz runs the text normalizer over every quiz field, so stored
// questions match the stored summary's cleaning.
func normalizeQuiz(raw []models.QuizQuestion) []models.QuizQuestion {
	cleaned := make([]models.QuizQuestion, 0, len(raw))
	for _, q := range raw {
		options := make([]string, len(q.Options))
		for i, opt := range q.Options {
			options[i] = notes.Format(opt)
		}
		cleaned = append(cleaned, models.QuizQuestion{
			Question:    notes.Format(q.Question),
			Options:     options,
			Answer:      notes.Format(q.Answer),
			Explanation: notes.Format(q.Explanation),
		})
	}
	return cleaned
}

// getHistory lists the user's sessions newest-first. A store failure is
// surfaced as a generic message; the diagnostic stays in the log.
func (sh *StudyHandlers) getHistory(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromContext(r.Context())

	sessions, err := sh.db.GetStudySessionsByUser(session.UserID)
	if err != nil {
		utils.LogError("History fetch failed for user %d: %v", session.UserID, err)
		jsonError(w, http.StatusInternalServerError, msgHistoryFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (sh *StudyHandlers) GetSessionByID(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := getSessionFromContext(r.Context())

	record, err := sh.db.GetStudySessionByID(sessionID, session.UserID)
	if err != nil {
		http.Error(w, "Study session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// ExportSession renders the session summary as a downloadable PDF.
func (sh *StudyHandlers) ExportSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := getSessionFromContext(r.Context())

	record, err := sh.db.GetStudySessionByID(sessionID, session.UserID)
	if err != nil {
		http.Error(w, "Study session not found", http.StatusNotFound)
		return
	}

	pdfBytes, err := notes.SummaryPDF(record.Summary)
	if err != nil {
		utils.LogError("PDF export failed for session %s: %v", sessionID, err)
		jsonError(w, http.StatusInternalServerError, "Could not generate PDF")
		return
	}

	utils.LogHTTP("Exported session %s as PDF (%d bytes)", sessionID, len(pdfBytes))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="ClassCapture_Notes.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// GetProfile returns the identity plus stats derived from saved history.
func (sh *StudyHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := getSessionFromContext(r.Context())

	user, err := sh.db.GetUserByID(session.UserID)
	if err != nil {
		utils.LogError("Failed to load user %d for profile: %v", session.UserID, err)
		jsonError(w, http.StatusInternalServerError, "Could not load profile")
		return
	}

	stats, err := sh.db.GetUserStats(session.UserID)
	if err != nil {
		utils.LogError("Failed to load stats for user %d: %v", session.UserID, err)
		jsonError(w, http.StatusInternalServerError, "Could not load profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"stats": stats,
	})
}
