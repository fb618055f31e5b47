package quiz

import (
	"errors"
	"sync"
	"time"

	"classcapture-api/models"
)

var (
	// ErrLastUnanswered blocks submission until the final question has an
	// answer. Earlier unanswered questions are tolerated and scored as
	// incorrect.
	ErrLastUnanswered = errors.New("last question has no answer")

	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrNotSubmitted     = errors.New("quiz has not been submitted")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrNoNextQuestion   = errors.New("already on the last question")
)

// Attempt tracks one user's pass through a session's quiz: the current
// card, recorded answers, and the score after submission. Attempts live
// only in the registry and are never persisted.
type Attempt struct {
	mu        sync.Mutex
	questions []models.QuizQuestion
	current   int
	answers   map[int]string
	submitted bool
	score     int
	touchedAt time.Time
}

// AttemptState is a snapshot safe to hand to the view layer. Score is
// meaningful only once Submitted is true.
type AttemptState struct {
	CurrentIndex  int            `json:"current_index"`
	QuestionCount int            `json:"question_count"`
	Answers       map[int]string `json:"answers"`
	Submitted     bool           `json:"submitted"`
	Score         int            `json:"score"`
}

// QuestionResult is the per-question review row available after submission.
type QuestionResult struct {
	Index       int      `json:"index"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Selected    string   `json:"selected"`
	Correct     bool     `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// NewAttempt starts an empty attempt on the first question.
func NewAttempt(questions []models.QuizQuestion) *Attempt {
	return &Attempt{
		questions: questions,
		answers:   make(map[int]string),
		touchedAt: time.Now(),
	}
}

// SelectOption records the answer for a question. Selections after
// submission are silently ignored, matching the locked review view.
func (a *Attempt) SelectOption(index int, option string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touchedAt = time.Now()

	if a.submitted {
		return nil
	}
	if index < 0 || index >= len(a.questions) {
		return ErrIndexOutOfRange
	}

	a.answers[index] = option
	return nil
}

// Advance moves to the next question card. An answer for the current
// question is not required here; the view decides whether to gate the
// control.
func (a *Attempt) Advance() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touchedAt = time.Now()

	if a.submitted {
		return ErrAlreadySubmitted
	}
	if a.current >= len(a.questions)-1 {
		return ErrNoNextQuestion
	}

	a.current++
	return nil
}

// Submit scores the attempt and locks it. The final question must have an
// answer; unanswered earlier questions count as incorrect. No partial
// credit, no negative scoring.
func (a *Attempt) Submit() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touchedAt = time.Now()

	if a.submitted {
		return 0, ErrAlreadySubmitted
	}
	if _, ok := a.answers[len(a.questions)-1]; !ok {
		return 0, ErrLastUnanswered
	}

	score := 0
	for i, q := range a.questions {
		if a.answers[i] == q.Answer {
			score++
		}
	}

	a.score = score
	a.submitted = true
	return score, nil
}

// Retake wipes the attempt back to an empty Active(0) state. Only valid
// after submission.
func (a *Attempt) Retake() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touchedAt = time.Now()

	if !a.submitted {
		return ErrNotSubmitted
	}

	a.answers = make(map[int]string)
	a.current = 0
	a.score = 0
	a.submitted = false
	return nil
}

// State snapshots the attempt for rendering.
func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := make(map[int]string, len(a.answers))
	for k, v := range a.answers {
		answers[k] = v
	}

	return AttemptState{
		CurrentIndex:  a.current,
		QuestionCount: len(a.questions),
		Answers:       answers,
		Submitted:     a.submitted,
		Score:         a.score,
	}
}

// Results builds the review rows. Only available once submitted.
func (a *Attempt) Results() ([]QuestionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.submitted {
		return nil, ErrNotSubmitted
	}

	results := make([]QuestionResult, 0, len(a.questions))
	for i, q := range a.questions {
		selected := a.answers[i]
		results = append(results, QuestionResult{
			Index:       i,
			Question:    q.Question,
			Options:     q.Options,
			Answer:      q.Answer,
			Selected:    selected,
			Correct:     selected == q.Answer,
			Explanation: q.Explanation,
		})
	}
	return results, nil
}

func (a *Attempt) lastTouched() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.touchedAt
}
