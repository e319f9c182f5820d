// Package quiz implements the adaptive question loop: a small state machine
// that walks the difficulty ladder in response to scored answers and cuts
// off after a fixed number of questions.
package quiz

import (
	"errors"
	"fmt"

	"github.com/lecternlabs/lectern/pkg/summary"
)

// Score is the graded outcome of one answer, as reported by the evaluator.
type Score string

const (
	ScoreCorrect   Score = "correct"
	ScorePartial   Score = "partial"
	ScoreIncorrect Score = "incorrect"
)

// ParseScore validates an evaluator-reported score string.
func ParseScore(s string) (Score, error) {
	switch Score(s) {
	case ScoreCorrect, ScorePartial, ScoreIncorrect:
		return Score(s), nil
	default:
		return "", fmt.Errorf("unrecognized score %q", s)
	}
}

// MaxQuestions is the hard cutoff per quiz, regardless of trajectory.
const MaxQuestions = 5

// Engine misuse is a programmer/client error and fails loudly, unlike the
// streaming layer's tolerant posture.
var (
	ErrQuizComplete      = errors.New("quiz is complete")
	ErrQuestionPending   = errors.New("a question is already pending an answer")
	ErrNoQuestionPending = errors.New("no question is pending an answer")
)

// Question is one asked question with the difficulty it was asked at.
type Question struct {
	Text       string        `json:"text"`
	Difficulty summary.Level `json:"difficulty"`
}

// Summary reports the final statistics of a finished (or running) quiz.
type Summary struct {
	Correct         int           `json:"correct"`
	Incorrect       int           `json:"incorrect"`
	Questions       int           `json:"questions"`
	FinalDifficulty summary.Level `json:"final_difficulty"`
}

// Engine is the adaptive quiz state machine. It starts at Complete Beginner
// difficulty and moves one step up or down per scored answer, clamped to the
// 0..4 range. Exactly one Submit may be outstanding at a time; the engine is
// single-writer by contract and performs no locking.
type Engine struct {
	difficulty summary.Level
	history    []Question
	pending    *Question
	correct    int
	incorrect  int
	asked      int
}

// NewEngine returns an engine at difficulty 0 with all counters zero.
func NewEngine() *Engine {
	return &Engine{difficulty: summary.LevelCompleteBeginner}
}

// NextQuestion registers text as the next question at the current
// difficulty. It fails with ErrQuizComplete once MaxQuestions answers have
// been scored, and with ErrQuestionPending while an answer is outstanding.
func (e *Engine) NextQuestion(text string) (Question, error) {
	if e.Done() {
		return Question{}, ErrQuizComplete
	}
	if e.pending != nil {
		return Question{}, ErrQuestionPending
	}

	q := Question{Text: text, Difficulty: e.difficulty}
	e.pending = &q
	return q, nil
}

// Submit scores the pending question and advances the state machine:
// correct moves difficulty up (capped at Expert), incorrect moves it down
// (floored at Complete Beginner), partial leaves it unchanged and counts
// toward neither tally. Every submit consumes one of the MaxQuestions slots
// and appends the asked question to the history.
func (e *Engine) Submit(score Score) error {
	if e.pending == nil {
		return ErrNoQuestionPending
	}
	if _, err := ParseScore(string(score)); err != nil {
		return err
	}

	switch score {
	case ScoreCorrect:
		if e.difficulty < summary.LevelExpert {
			e.difficulty++
		}
		e.correct++
	case ScoreIncorrect:
		if e.difficulty > summary.LevelCompleteBeginner {
			e.difficulty--
		}
		e.incorrect++
	case ScorePartial:
		// difficulty and tallies unchanged
	}

	e.history = append(e.history, *e.pending)
	e.pending = nil
	e.asked++
	return nil
}

// Difficulty returns the level the next question will be asked at.
func (e *Engine) Difficulty() summary.Level {
	return e.difficulty
}

// Done reports whether the question budget is exhausted.
func (e *Engine) Done() bool {
	return e.asked >= MaxQuestions
}

// Pending returns the outstanding question, if any.
func (e *Engine) Pending() (Question, bool) {
	if e.pending == nil {
		return Question{}, false
	}
	return *e.pending, true
}

// History returns the questions answered so far, in order.
func (e *Engine) History() []Question {
	out := make([]Question, len(e.history))
	copy(out, e.history)
	return out
}

// Summary returns the running (or final) statistics.
func (e *Engine) Summary() Summary {
	return Summary{
		Correct:         e.correct,
		Incorrect:       e.incorrect,
		Questions:       e.asked,
		FinalDifficulty: e.difficulty,
	}
}
