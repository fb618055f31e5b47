package models

import "time"

// QuizQuestion is one multiple-choice question attached to a study session.
// The analysis backend is trusted to keep Answer inside Options; we don't
// re-verify it here.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// AnalysisResult is the payload the analysis backend returns for an upload.
type AnalysisResult struct {
	Summary string         `json:"summary"`
	Quiz    []QuizQuestion `json:"quiz"`
}

// StudySession is one upload-to-quiz study unit. Immutable once stored;
// the quiz length is fixed at creation.
type StudySession struct {
	ID        string         `json:"id"`
	UserID    int            `json:"user_id"`
	FileName  string         `json:"file_name"`
	Summary   string         `json:"summary"`
	Quiz      []QuizQuestion `json:"quiz"`
	CreatedAt time.Time      `json:"created_at"`
}

// StudySessionResponse is what the upload endpoint hands back: the session
// plus the flags the dashboard needs to phrase its notification.
type StudySessionResponse struct {
	Session  *StudySession `json:"session"`
	Fallback bool          `json:"fallback"`
	Synced   bool          `json:"synced"`
	Message  string        `json:"message"`
}

// ProfileStats are derived from the user's saved sessions.
type ProfileStats struct {
	TotalScans     int     `json:"total_scans"`
	TotalQuestions int     `json:"total_questions"`
	StudyHours     float64 `json:"study_hours"`
}
