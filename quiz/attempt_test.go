package quiz

import (
	"testing"
	"time"

	"classcapture-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() []models.QuizQuestion {
	return []models.QuizQuestion{
		{Question: "Is a cat a mammal?", Options: []string{"Yes", "No"}, Answer: "Yes"},
		{Question: "Is a bird a mammal?", Options: []string{"Yes", "No"}, Answer: "No"},
		{Question: "Is a dog a mammal?", Options: []string{"Yes", "No"}, Answer: "Yes"},
	}
}

func TestAttemptScoringCountsExactMatches(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	require.NoError(t, attempt.SelectOption(0, "Yes"))
	require.NoError(t, attempt.SelectOption(1, "Yes")) // wrong
	require.NoError(t, attempt.SelectOption(2, "Yes"))

	score, err := attempt.Submit()
	require.NoError(t, err)
	assert.Equal(t, 2, score)

	state := attempt.State()
	assert.True(t, state.Submitted)
	assert.Equal(t, 2, state.Score)
}

func TestAttemptScoreHiddenBeforeSubmit(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	require.NoError(t, attempt.SelectOption(0, "Yes"))
	require.NoError(t, attempt.SelectOption(2, "Yes"))

	state := attempt.State()
	assert.False(t, state.Submitted)
	assert.Equal(t, 0, state.Score)

	_, err := attempt.Results()
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestAttemptUnansweredEarlierQuestionsScoreAsIncorrect(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	// Only the final question gets an answer.
	require.NoError(t, attempt.SelectOption(2, "Yes"))

	score, err := attempt.Submit()
	require.NoError(t, err)
	assert.Equal(t, 1, score)
}

func TestAttemptSubmitRequiresFinalAnswer(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	require.NoError(t, attempt.SelectOption(0, "Yes"))
	require.NoError(t, attempt.SelectOption(1, "No"))

	_, err := attempt.Submit()
	assert.ErrorIs(t, err, ErrLastUnanswered)

	// Rejected transition: still active, still answerable.
	state := attempt.State()
	assert.False(t, state.Submitted)
	require.NoError(t, attempt.SelectOption(2, "Yes"))

	score, err := attempt.Submit()
	require.NoError(t, err)
	assert.Equal(t, 3, score)
}

func TestAttemptAdvanceStopsAtLastQuestion(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	// Advancing never requires an answer for the current card.
	require.NoError(t, attempt.Advance())
	require.NoError(t, attempt.Advance())
	assert.ErrorIs(t, attempt.Advance(), ErrNoNextQuestion)

	assert.Equal(t, 2, attempt.State().CurrentIndex)
}

func TestAttemptSelectionsIgnoredAfterSubmit(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())
	require.NoError(t, attempt.SelectOption(2, "Yes"))

	_, err := attempt.Submit()
	require.NoError(t, err)

	// Silent no-op, not an error.
	require.NoError(t, attempt.SelectOption(0, "Yes"))
	state := attempt.State()
	assert.NotContains(t, state.Answers, 0)

	assert.ErrorIs(t, attempt.Advance(), ErrAlreadySubmitted)
	_, err = attempt.Submit()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestAttemptRetakeResetsEverything(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	// Retake before submit is invalid.
	assert.ErrorIs(t, attempt.Retake(), ErrNotSubmitted)

	require.NoError(t, attempt.SelectOption(0, "Yes"))
	require.NoError(t, attempt.Advance())
	require.NoError(t, attempt.SelectOption(2, "Yes"))
	_, err := attempt.Submit()
	require.NoError(t, err)

	require.NoError(t, attempt.Retake())

	state := attempt.State()
	assert.False(t, state.Submitted)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Empty(t, state.Answers)
	assert.Equal(t, 0, state.Score)
}

func TestAttemptSelectOptionValidatesIndex(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())

	assert.ErrorIs(t, attempt.SelectOption(-1, "Yes"), ErrIndexOutOfRange)
	assert.ErrorIs(t, attempt.SelectOption(3, "Yes"), ErrIndexOutOfRange)
}

func TestAttemptResultsAfterSubmit(t *testing.T) {
	attempt := NewAttempt(sampleQuiz())
	require.NoError(t, attempt.SelectOption(0, "No")) // wrong
	require.NoError(t, attempt.SelectOption(2, "Yes"))

	_, err := attempt.Submit()
	require.NoError(t, err)

	results, err := attempt.Results()
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].Correct)
	assert.Equal(t, "No", results[0].Selected)
	assert.False(t, results[1].Correct) // unanswered
	assert.Empty(t, results[1].Selected)
	assert.True(t, results[2].Correct)
}

func TestRegistryOpenIsIdempotent(t *testing.T) {
	registry := NewRegistry(time.Hour)

	first := registry.Open("auth-1", "study-1", sampleQuiz())
	require.NoError(t, first.SelectOption(0, "Yes"))

	again := registry.Open("auth-1", "study-1", sampleQuiz())
	assert.Same(t, first, again)
	assert.Contains(t, again.State().Answers, 0)
}

func TestRegistryDiscardAndLogoutDropAttempts(t *testing.T) {
	registry := NewRegistry(time.Hour)

	registry.Open("auth-1", "study-1", sampleQuiz())
	registry.Open("auth-1", "study-2", sampleQuiz())
	registry.Open("auth-2", "study-1", sampleQuiz())

	registry.Discard("auth-1", "study-1")
	_, ok := registry.Get("auth-1", "study-1")
	assert.False(t, ok)
	_, ok = registry.Get("auth-1", "study-2")
	assert.True(t, ok)

	registry.DropAuthSession("auth-1")
	_, ok = registry.Get("auth-1", "study-2")
	assert.False(t, ok)

	// Other logins are untouched.
	_, ok = registry.Get("auth-2", "study-1")
	assert.True(t, ok)
}

func TestRegistrySweepRemovesIdleAttempts(t *testing.T) {
	registry := NewRegistry(time.Nanosecond)

	registry.Open("auth-1", "study-1", sampleQuiz())
	time.Sleep(2 * time.Millisecond)

	removed := registry.SweepExpired()
	assert.Equal(t, 1, removed)
	_, ok := registry.Get("auth-1", "study-1")
	assert.False(t, ok)
}
