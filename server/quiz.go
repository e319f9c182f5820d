package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecternlabs/lectern/pkg/quiz"
	"github.com/lecternlabs/lectern/pkg/summary"
)

// minAnswerChars rejects throwaway answers before spending an evaluation
// round trip on them.
const minAnswerChars = 5

// quizTTL bounds how long an unanswered quiz holds its registry slot (and
// its transcript). Stale entries are swept lazily when a new quiz starts.
const quizTTL = time.Hour

// quizState is one live quiz: the engine plus the transcript it quizzes on
// and a cache of generated questions per difficulty. Question pools are
// filled lazily; the producer hands out several questions per call and the
// pool is drained before asking again.
type quizState struct {
	mu         sync.Mutex
	id         string
	engine     *quiz.Engine
	transcript string
	pools      map[summary.Level][]string
	createdAt  time.Time
}

// nextQuestion pulls a question at the engine's current difficulty,
// refilling the pool from the producer when it runs dry, and registers it
// with the engine.
func (q *quizState) nextQuestion(ctx context.Context, upstream *Upstream) (quiz.Question, error) {
	difficulty := q.engine.Difficulty()

	pool := q.pools[difficulty]
	if len(pool) == 0 {
		questions, err := upstream.GenerateQuestions(ctx, q.transcript, difficulty)
		if err != nil {
			return quiz.Question{}, err
		}
		pool = questions
	}

	text := pool[0]
	question, err := q.engine.NextQuestion(text)
	if err != nil {
		return quiz.Question{}, err
	}
	q.pools[difficulty] = pool[1:]
	return question, nil
}

// quizRequest starts a quiz over raw text or a stored record.
type quizRequest struct {
	Transcript string `json:"transcript"`
	ContentID  string `json:"content_id"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// questionResponse is the shape of a question handed to the client.
type questionResponse struct {
	Text       string        `json:"text"`
	Difficulty summary.Level `json:"difficulty"`
	Number     int           `json:"number"`
	Remaining  int           `json:"remaining"`
}

func newQuestionResponse(q quiz.Question, asked int) questionResponse {
	return questionResponse{
		Text:       q.Text,
		Difficulty: q.Difficulty,
		Number:     asked + 1,
		Remaining:  quiz.MaxQuestions - asked - 1,
	}
}

// handleCreateQuiz starts a quiz session and returns its first question.
func (s *Server) handleCreateQuiz(c *fiber.Ctx) error {
	var req quizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	text, errResp := s.resolveTranscript(c.Context(), req.Transcript, req.ContentID)
	if errResp != nil {
		return c.Status(errResp.status).JSON(errorResponse{Error: errResp.message})
	}

	state := &quizState{
		id:         uuid.NewString(),
		engine:     quiz.NewEngine(),
		transcript: text,
		pools:      make(map[summary.Level][]string),
		createdAt:  time.Now(),
	}

	question, err := state.nextQuestion(c.Context(), s.upstream)
	if err != nil {
		s.logger.Error("failed to generate first question", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "question generation failed"})
	}

	s.mu.Lock()
	s.evictStaleQuizzes()
	s.quizzes[state.id] = state
	s.mu.Unlock()

	s.logger.Info("quiz started", zap.String("quiz_id", state.id))

	return c.JSON(map[string]any{
		"quiz_id":  state.id,
		"question": newQuestionResponse(question, 0),
	})
}

// handleGetQuiz reports the current state of a quiz.
func (s *Server) handleGetQuiz(c *fiber.Ctx) error {
	state, ok := s.lookupQuiz(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "quiz not found"})
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	resp := map[string]any{
		"quiz_id": state.id,
		"done":    state.engine.Done(),
		"summary": state.engine.Summary(),
	}
	if pending, ok := state.engine.Pending(); ok {
		resp["question"] = newQuestionResponse(pending, state.engine.Summary().Questions)
	}
	return c.JSON(resp)
}

// handleAnswer grades the pending answer, advances the difficulty, and
// returns either the next question or the final summary.
func (s *Server) handleAnswer(c *fiber.Ctx) error {
	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if len(strings.TrimSpace(req.Answer)) < minAnswerChars {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "answer is too short to evaluate"})
	}

	state, ok := s.lookupQuiz(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "quiz not found"})
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	pending, ok := state.engine.Pending()
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(errorResponse{Error: "no question is pending an answer"})
	}

	score, feedback, err := s.upstream.EvaluateAnswer(
		c.Context(), pending.Text, req.Answer, state.transcript, pending.Difficulty,
	)
	if err != nil {
		s.logger.Error("answer evaluation failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "answer evaluation failed"})
	}

	if err := state.engine.Submit(score); err != nil {
		s.logger.Error("failed to record score", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to record score"})
	}

	resp := map[string]any{
		"score":    score,
		"feedback": feedback,
	}

	if state.engine.Done() {
		resp["done"] = true
		resp["summary"] = state.engine.Summary()

		s.mu.Lock()
		delete(s.quizzes, state.id)
		s.mu.Unlock()

		s.logger.Info("quiz complete",
			zap.String("quiz_id", state.id),
			zap.Int("correct", state.engine.Summary().Correct),
			zap.Int("incorrect", state.engine.Summary().Incorrect),
		)
		return c.JSON(resp)
	}

	question, err := state.nextQuestion(c.Context(), s.upstream)
	if err != nil {
		s.logger.Error("failed to generate next question", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "question generation failed"})
	}

	resp["done"] = false
	resp["question"] = newQuestionResponse(question, state.engine.Summary().Questions)
	return c.JSON(resp)
}

func (s *Server) lookupQuiz(id string) (*quizState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.quizzes[id]
	if ok && time.Since(state.createdAt) > quizTTL {
		delete(s.quizzes, id)
		return nil, false
	}
	return state, ok
}

// evictStaleQuizzes drops abandoned quizzes. Callers hold s.mu.
func (s *Server) evictStaleQuizzes() {
	for id, state := range s.quizzes {
		if time.Since(state.createdAt) > quizTTL {
			delete(s.quizzes, id)
			s.logger.Debug("evicted stale quiz", zap.String("quiz_id", id))
		}
	}
}
