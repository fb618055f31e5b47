package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"classcapture-api/analyzer"
	"classcapture-api/auth"
	"classcapture-api/db"
	"classcapture-api/jobs"
	"classcapture-api/quiz"
	"classcapture-api/utils"
)

// API wrapper to hold all handlers
type API struct {
	authHandlers    *AuthHandlers
	studyHandlers   *StudyHandlers
	attemptHandlers *AttemptHandlers
}

func NewAPI(database *db.DB, sessionStore *auth.SessionStore, attempts *quiz.Registry,
	analyzerClient *analyzer.Client, emailService *auth.EmailService, jobManager *jobs.JobManager) *API {
	return &API{
		authHandlers:    NewAuthHandlers(database, sessionStore, attempts, emailService, jobManager),
		studyHandlers:   NewStudyHandlers(database, analyzerClient),
		attemptHandlers: NewAttemptHandlers(database, attempts),
	}
}

func NewRouter(database *db.DB, sessionStore *auth.SessionStore, attempts *quiz.Registry,
	analyzerClient *analyzer.Client, emailService *auth.EmailService, jobManager *jobs.JobManager) http.Handler {
	api := NewAPI(database, sessionStore, attempts, analyzerClient, emailService, jobManager)

	requireAuth := authMiddleware(sessionStore)

	mux := http.NewServeMux()

	// Health check (no auth required)
	mux.HandleFunc("/health", healthCheck)

	// Auth endpoints (handle their own auth as needed)
	mux.HandleFunc("/auth/", api.authHandlers.HandleAuth)

	// Profile (identity + derived stats)
	mux.HandleFunc("/profile", requireAuth(api.studyHandlers.GetProfile))

	// Study sessions: POST uploads, GET lists history
	mux.HandleFunc("/sessions", requireAuth(api.studyHandlers.HandleSessions))

	// Per-session routes: the record itself, its export, and the quiz attempt
	mux.HandleFunc("/sessions/", requireAuth(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/sessions/")
		parts := strings.SplitN(path, "/", 2)
		sessionID := parts[0]
		if sessionID == "" {
			http.Error(w, "Invalid session ID", http.StatusBadRequest)
			return
		}

		rest := ""
		if len(parts) == 2 {
			rest = parts[1]
		}

		switch {
		case rest == "":
			api.studyHandlers.GetSessionByID(w, r, sessionID)
		case rest == "export":
			api.studyHandlers.ExportSession(w, r, sessionID)
		case rest == "attempt" || strings.HasPrefix(rest, "attempt/"):
			action := strings.TrimPrefix(strings.TrimPrefix(rest, "attempt"), "/")
			api.attemptHandlers.HandleAttempt(w, r, sessionID, action)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	}))

	return corsMiddleware(loggingMiddleware(mux.ServeHTTP))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("Health check requested")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

// writeJSON is the shared success-path encoder.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utils.LogError("Failed to encode response: %v", err)
	}
}

// jsonError keeps user-facing failures in the same JSON shape the clients
// already parse.
func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
