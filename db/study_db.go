package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"classcapture-api/models"
	"classcapture-api/utils"
	"github.com/google/uuid"
)

// studyHoursPerScan feeds the profile stats: each saved scan counts as 45
// minutes of study time.
const studyHoursPerScan = 0.75

// CreateStudySession writes a new immutable session record. The store
// assigns the identifier and the creation timestamp; the stored record is
// returned with both merged in.
func (db *DB) CreateStudySession(userID int, fileName, summary string, quizQuestions []models.QuizQuestion) (*models.StudySession, error) {
	utils.LogDB("Creating study session for user %d: %s", userID, fileName)
	start := time.Now()

	quizJSON, err := json.Marshal(quizQuestions)
	if err != nil {
		utils.LogError("Failed to marshal quiz for %s: %v", fileName, err)
		return nil, err
	}

	id := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO study_sessions (id, user_id, file_name, summary, quiz)
		VALUES (?, ?, ?, ?, ?)
	`, id, userID, fileName, summary, string(quizJSON))

	if err != nil {
		duration := time.Since(start)
		utils.LogError("CreateStudySession failed: %v (%v)", err, duration)
		return nil, err
	}

	duration := time.Since(start)
	utils.LogDB("Study session %s created in %v", id, duration)

	return db.GetStudySessionByID(id, userID)
}

// GetStudySessionByID fetches one session, scoped to its owner.
func (db *DB) GetStudySessionByID(id string, userID int) (*models.StudySession, error) {
	utils.LogDB("Getting study session %s for user %d", id, userID)

	var session models.StudySession
	var quizJSON string
	err := db.QueryRow(`
		SELECT id, user_id, file_name, summary, quiz, created_at
		FROM study_sessions WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&session.ID, &session.UserID, &session.FileName,
		&session.Summary, &quizJSON, &session.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			utils.LogDB("Study session %s not found for user %d", id, userID)
		} else {
			utils.LogError("GetStudySessionByID(%s) failed: %v", id, err)
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(quizJSON), &session.Quiz); err != nil {
		utils.LogError("Failed to unmarshal quiz for session %s: %v", id, err)
		return nil, fmt.Errorf("corrupt quiz column for session %s: %w", id, err)
	}

	return &session, nil
}

// GetStudySessionsByUser returns the user's history, newest first. The
// owner filter plus descending time sort is served by the composite index
// created at startup.
func (db *DB) GetStudySessionsByUser(userID int) ([]models.StudySession, error) {
	utils.LogDB("Fetching study history for user %d", userID)
	start := time.Now()

	rows, err := db.Query(`
		SELECT id, user_id, file_name, summary, quiz, created_at
		FROM study_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		utils.LogError("GetStudySessionsByUser(%d) failed: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		var session models.StudySession
		var quizJSON string

		err := rows.Scan(&session.ID, &session.UserID, &session.FileName,
			&session.Summary, &quizJSON, &session.CreatedAt)
		if err != nil {
			utils.LogError("Failed to scan study session row: %v", err)
			return nil, err
		}

		if err := json.Unmarshal([]byte(quizJSON), &session.Quiz); err != nil {
			utils.LogError("Failed to unmarshal quiz for session %s: %v", session.ID, err)
			return nil, fmt.Errorf("corrupt quiz column for session %s: %w", session.ID, err)
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		utils.LogError("Row iteration failed for user %d history: %v", userID, err)
		return nil, err
	}

	duration := time.Since(start)
	utils.LogDB("Fetched %d study sessions for user %d in %v", len(sessions), userID, duration)

	return sessions, nil
}

// GetUserStats derives the profile numbers from the saved history.
func (db *DB) GetUserStats(userID int) (*models.ProfileStats, error) {
	utils.LogDB("Calculating stats for user %d", userID)

	stats := &models.ProfileStats{}
	err := db.QueryRow(`
		SELECT COALESCE(COUNT(*), 0),
		       COALESCE(SUM(json_array_length(quiz)), 0)
		FROM study_sessions WHERE user_id = ?
	`, userID).Scan(&stats.TotalScans, &stats.TotalQuestions)

	if err != nil {
		utils.LogError("GetUserStats(%d) failed: %v", userID, err)
		return nil, err
	}

	stats.StudyHours = float64(stats.TotalScans) * studyHoursPerScan
	return stats, nil
}
