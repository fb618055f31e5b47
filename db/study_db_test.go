package db

import (
	"path/filepath"
	"testing"
	"time"

	"classcapture-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	database, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func testUser(t *testing.T, database *DB, email string) *models.User {
	t.Helper()

	user, err := database.CreateUser(models.UserRequest{
		Username: "student-" + email,
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func testQuiz() []models.QuizQuestion {
	return []models.QuizQuestion{
		{Question: "Is a cat a mammal?", Options: []string{"Yes", "No"}, Answer: "Yes"},
	}
}

func TestCreateStudySessionAssignsIDAndTimestamp(t *testing.T) {
	database := testDB(t)
	user := testUser(t, database, "a@example.com")

	session, err := database.CreateStudySession(user.ID, "notes.jpg", "• Cats are mammals", testQuiz())
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "notes.jpg", session.FileName)
	assert.False(t, session.CreatedAt.IsZero())
	require.Len(t, session.Quiz, 1)
	assert.Equal(t, "Yes", session.Quiz[0].Answer)
}

func TestGetStudySessionsByUserNewestFirst(t *testing.T) {
	database := testDB(t)
	user := testUser(t, database, "a@example.com")

	first, err := database.CreateStudySession(user.ID, "first.jpg", "first summary", testQuiz())
	require.NoError(t, err)

	// CURRENT_TIMESTAMP has second resolution; spread the rows out.
	time.Sleep(1100 * time.Millisecond)

	second, err := database.CreateStudySession(user.ID, "second.jpg", "second summary", testQuiz())
	require.NoError(t, err)

	sessions, err := database.GetStudySessionsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)
}

func TestStudySessionsAreScopedToOwner(t *testing.T) {
	database := testDB(t)
	owner := testUser(t, database, "owner@example.com")
	other := testUser(t, database, "other@example.com")

	session, err := database.CreateStudySession(owner.ID, "notes.jpg", "summary", testQuiz())
	require.NoError(t, err)

	// The other user can't see it in history or fetch it directly.
	sessions, err := database.GetStudySessionsByUser(other.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = database.GetStudySessionByID(session.ID, other.ID)
	assert.Error(t, err)

	fetched, err := database.GetStudySessionByID(session.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, fetched.ID)
}

func TestGetUserStats(t *testing.T) {
	database := testDB(t)
	user := testUser(t, database, "a@example.com")

	stats, err := database.GetUserStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalScans)
	assert.Equal(t, 0, stats.TotalQuestions)
	assert.Equal(t, 0.0, stats.StudyHours)

	twoQuestions := []models.QuizQuestion{
		{Question: "Q1?", Options: []string{"A", "B"}, Answer: "A"},
		{Question: "Q2?", Options: []string{"A", "B"}, Answer: "B"},
	}
	_, err = database.CreateStudySession(user.ID, "one.jpg", "summary", testQuiz())
	require.NoError(t, err)
	_, err = database.CreateStudySession(user.ID, "two.jpg", "summary", twoQuestions)
	require.NoError(t, err)

	stats, err = database.GetUserStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalScans)
	assert.Equal(t, 3, stats.TotalQuestions)
	assert.InDelta(t, 1.5, stats.StudyHours, 0.0001)
}

func TestAuthenticateUser(t *testing.T) {
	database := testDB(t)
	testUser(t, database, "a@example.com")

	user, err := database.AuthenticateUser("a@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)

	_, err = database.AuthenticateUser("a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = database.AuthenticateUser("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := testDB(t)
	testUser(t, database, "a@example.com")

	_, err := database.CreateUser(models.UserRequest{
		Username: "someone-else",
		Email:    "a@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}
