package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"classcapture-api/auth"
	"classcapture-api/db"
	"classcapture-api/jobs"
	"classcapture-api/models"
	"classcapture-api/quiz"
	"classcapture-api/utils"

	"github.com/go-playground/validator/v10"
)

// The fixed set of user-facing auth messages. Anything the store reports
// beyond these collapses into the generic one.
const (
	msgEmailTaken         = "Email already in use"
	msgUsernameTaken      = "Username already in use"
	msgWeakPassword       = "Password is too weak. Use at least 6 characters."
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgGenericAuthError   = "An error occurred. Please try again."
)

type AuthHandlers struct {
	db           *db.DB
	sessionStore *auth.SessionStore
	attempts     *quiz.Registry
	emailService *auth.EmailService
	jobManager   *jobs.JobManager
	validate     *validator.Validate
}

func NewAuthHandlers(database *db.DB, sessionStore *auth.SessionStore, attempts *quiz.Registry,
	emailService *auth.EmailService, jobManager *jobs.JobManager) *AuthHandlers {
	return &AuthHandlers{
		db:           database,
		sessionStore: sessionStore,
		attempts:     attempts,
		emailService: emailService,
		jobManager:   jobManager,
		validate:     validator.New(),
	}
}

func (ah *AuthHandlers) HandleAuth(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/auth/")

	switch {
	case path == "register" && r.Method == http.MethodPost:
		ah.register(w, r)
	case path == "login" && r.Method == http.MethodPost:
		ah.login(w, r)
	case path == "logout" && r.Method == http.MethodPost:
		ah.logout(w, r)
	case path == "me" && r.Method == http.MethodGet:
		ah.getCurrentUserInfo(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func (ah *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("POST /auth/register")

	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.LogHTTP("Invalid JSON in register request: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := ah.validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, registrationMessage(err))
		return
	}

	user, err := ah.db.CreateUser(req)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if strings.Contains(err.Error(), "email") {
				jsonError(w, http.StatusConflict, msgEmailTaken)
			} else if strings.Contains(err.Error(), "username") {
				jsonError(w, http.StatusConflict, msgUsernameTaken)
			} else {
				jsonError(w, http.StatusConflict, msgGenericAuthError)
			}
		} else {
			utils.LogError("Failed to create user: %v", err)
			jsonError(w, http.StatusInternalServerError, msgGenericAuthError)
		}
		return
	}

	subject, body := ah.emailService.BuildWelcomeEmail(user)
	if err := ah.jobManager.QueueWelcomeEmail(user.Email, subject, body, user.ID); err != nil {
		utils.LogError("Failed to queue welcome email: %v", err)
	}

	// Session for immediate login
	session := ah.sessionStore.CreateSession(user)

	utils.LogHTTP("User registered successfully: %s (ID: %d)", user.Username, user.ID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"session": session,
		"message": "Registration successful",
	})
}

func (ah *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("POST /auth/login")

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.LogHTTP("Invalid JSON in login request: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := ah.validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	user, err := ah.db.AuthenticateUser(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			utils.LogHTTP("Login failed for %s", req.Email)
			jsonError(w, http.StatusUnauthorized, msgInvalidCredentials)
		} else {
			utils.LogError("Login error for %s: %v", req.Email, err)
			jsonError(w, http.StatusInternalServerError, msgGenericAuthError)
		}
		return
	}

	session := ah.sessionStore.CreateSession(user)

	utils.LogHTTP("User logged in successfully: %s (ID: %d)", user.Username, user.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"session": session,
		"message": "Login successful",
	})
}

func (ah *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("POST /auth/logout")

	sessionID := extractSessionFromRequest(r)
	if sessionID != "" {
		ah.sessionStore.DeleteSession(sessionID)
		// Quiz attempts are scoped to the login; drop them with it.
		ah.attempts.DropAuthSession(sessionID)
		if len(sessionID) > 8 {
			utils.LogHTTP("Session %s destroyed", sessionID[:8]+"...")
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Signed out successfully",
	})
}

func (ah *AuthHandlers) getCurrentUserInfo(w http.ResponseWriter, r *http.Request) {
	sessionID := extractSessionFromRequest(r)
	if sessionID == "" {
		http.Error(w, "Missing session token", http.StatusUnauthorized)
		return
	}

	session, exists := ah.sessionStore.GetSession(sessionID)
	if !exists {
		http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
		return
	}

	user, err := ah.db.GetUserByID(session.UserID)
	if err != nil {
		utils.LogError("Failed to load user %d: %v", session.UserID, err)
		jsonError(w, http.StatusInternalServerError, msgGenericAuthError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"session": session,
	})
}

// registrationMessage maps validator failures onto the fixed message set.
func registrationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgGenericAuthError
	}

	for _, fe := range verrs {
		switch fe.Field() {
		case "Password":
			return msgWeakPassword
		case "Email":
			return "A valid email address is required"
		case "Username":
			return "Username is required"
		}
	}
	return msgGenericAuthError
}
