// Package server provides the lectern HTTP service: it relays the producer's
// summary and transcription event streams to clients while reassembling and
// persisting them, and runs the adaptive quiz loop against the grader.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http/pprof"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lecternlabs/lectern/pkg/store"
	"github.com/lecternlabs/lectern/pkg/summary"
	"github.com/lecternlabs/lectern/pkg/transcript"
)

// errorResponse is the JSON error envelope for all endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

// Server wires the streaming sessions, the content store, and the upstream
// producer client behind a Fiber app. Sessions are created per request and
// share nothing; the only guarded state is the quiz registry.
type Server struct {
	config   Config
	storer   store.Storer
	upstream *Upstream
	logger   *zap.Logger
	app      *fiber.App

	mu      sync.Mutex
	quizzes map[string]*quizState
}

// New creates a new Server.
func New(config Config, logger *zap.Logger) (*Server, error) {
	var storer store.Storer
	var err error

	if config.DBPath != "" {
		storer, err = store.NewSQLiteStorer(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		logger.Info("using SQLite storage", zap.String("path", config.DBPath))
	} else {
		storer = store.NewMemoryStorer()
		logger.Info("using in-memory storage")
	}

	if config.MinTranscriptChars <= 0 {
		config.MinTranscriptChars = DefaultConfig().MinTranscriptChars
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Audio uploads stream straight through to the producer
		StreamRequestBody: true,
		BodyLimit:         200 * 1024 * 1024,
	})

	s := &Server{
		config:   config,
		storer:   storer,
		upstream: NewUpstream(config.UpstreamURL, logger),
		logger:   logger,
		app:      app,
		quizzes:  make(map[string]*quizState),
	}

	// Register routes
	app.Post("/api/summaries/stream", s.handleSummaryStream)
	app.Post("/api/transcriptions/stream", s.handleTranscriptionStream)

	app.Post("/api/quiz", s.handleCreateQuiz)
	app.Get("/api/quiz/:id", s.handleGetQuiz)
	app.Post("/api/quiz/:id/answer", s.handleAnswer)

	app.Get("/api/content", s.handleListContent)
	app.Get("/api/content/:id", s.handleGetContent)
	app.Delete("/api/content/:id", s.handleDeleteContent)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	if config.Debug {
		app.Get("/debug/pprof/", adaptor.HTTPHandlerFunc(pprof.Index))
		app.Get("/debug/pprof/profile", adaptor.HTTPHandlerFunc(pprof.Profile))
		app.Get("/debug/pprof/symbol", adaptor.HTTPHandlerFunc(pprof.Symbol))
		app.Get("/debug/pprof/trace", adaptor.HTTPHandlerFunc(pprof.Trace))
	}

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting lectern server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("upstream", s.config.UpstreamURL),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener; used by tests.
func (s *Server) RunWithListener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close shuts down the server and releases resources.
func (s *Server) Close() error {
	return s.storer.Close()
}

// summaryRequest asks for a five-level summary run over either raw text or a
// previously stored record. LevelFraction in [0,1] picks the tier surfaced
// to this caller; all five are generated and stored regardless.
type summaryRequest struct {
	Transcript    string  `json:"transcript"`
	ContentID     string  `json:"content_id"`
	Title         string  `json:"title"`
	LevelFraction float64 `json:"level_fraction"`
}

// handleSummaryStream relays the producer's summary SSE stream to the client
// verbatim while a session reassembles it, then stores the final snapshot.
func (s *Server) handleSummaryStream(c *fiber.Ctx) error {
	startTime := time.Now()

	var req summaryRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	text, errResp := s.resolveTranscript(c.Context(), req.Transcript, req.ContentID)
	if errResp != nil {
		return c.Status(errResp.status).JSON(errorResponse{Error: errResp.message})
	}

	level := summary.LevelFromFraction(req.LevelFraction)
	s.logger.Debug("starting summary stream",
		zap.Stringer("level", level),
		zap.Int("transcript_chars", len(text)),
	)

	upstream, err := s.upstream.StreamSummaries(c.Context(), text)
	if err != nil {
		s.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "upstream request failed"})
	}

	setStreamHeaders(c)

	title := req.Title
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer upstream.Close()

		sess := summary.NewSession(level, s.logger)
		if err := teeStream(upstream, w, sess); err != nil {
			s.logger.Error("summary stream failed", zap.Error(err))
			return
		}

		snap := sess.Snapshot()
		rec := store.NewRecord(store.KindSummary, title, text, &snap)
		if err := s.storer.Put(context.Background(), rec); err != nil {
			s.logger.Error("failed to store summary", zap.Error(err))
			// Continue - the client already has the stream
		} else {
			s.logger.Info("summary stored",
				zap.String("id", truncate(rec.ID, 16)),
				zap.Duration("duration", time.Since(startTime)),
			)
		}

		final, _ := sess.FinalText()
		s.logger.Debug("summary stream complete",
			zap.Stringer("level", level),
			zap.String("preview", truncate(final, 100)),
		)
	}))

	return nil
}

// handleTranscriptionStream forwards the uploaded audio to the producer as
// opaque bytes and relays the transcription SSE stream back, assembling and
// storing the transcript on completion.
func (s *Server) handleTranscriptionStream(c *fiber.Ctx) error {
	startTime := time.Now()
	filename := c.Query("filename")

	body := c.Context().RequestBodyStream()
	if body == nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "empty request body"})
	}

	upstream, err := s.upstream.StreamTranscription(c.Context(), filename, body)
	if err != nil {
		s.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "upstream request failed"})
	}

	setStreamHeaders(c)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer upstream.Close()

		sess := transcript.NewSession(s.logger)
		if err := teeStream(upstream, w, sess); err != nil {
			s.logger.Error("transcription stream failed", zap.Error(err))
			return
		}

		text, err := sess.FinalText()
		if err != nil {
			s.logger.Error("transcription incomplete", zap.Error(err))
			return
		}

		rec := store.NewRecord(store.KindTranscript, filename, text, nil)
		if err := s.storer.Put(context.Background(), rec); err != nil {
			s.logger.Error("failed to store transcript", zap.Error(err))
		} else {
			s.logger.Info("transcript stored",
				zap.String("id", truncate(rec.ID, 16)),
				zap.Int("segments", sess.Segments()),
				zap.Duration("duration", time.Since(startTime)),
			)
		}
	}))

	return nil
}

// handleListContent returns all stored records, newest first.
func (s *Server) handleListContent(c *fiber.Ctx) error {
	records, err := s.storer.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to list records"})
	}
	return c.JSON(map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// handleGetContent returns a single record by id.
func (s *Server) handleGetContent(c *fiber.Ctx) error {
	rec, err := s.storer.Get(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "record not found"})
	}
	return c.JSON(rec)
}

// handleDeleteContent removes a record by id.
func (s *Server) handleDeleteContent(c *fiber.Ctx) error {
	if err := s.storer.Delete(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "record not found"})
	}
	return c.JSON(map[string]string{"status": "deleted"})
}

type requestError struct {
	status  int
	message string
}

// resolveTranscript returns the lecture text for a request carrying either
// raw text or a stored-content reference, applying the minimum-length rule.
func (s *Server) resolveTranscript(ctx context.Context, text, contentID string) (string, *requestError) {
	if contentID != "" {
		rec, err := s.storer.Get(ctx, contentID)
		if err != nil {
			var notFound store.ErrNotFound
			if errors.As(err, &notFound) {
				return "", &requestError{fiber.StatusNotFound, "content not found"}
			}
			return "", &requestError{fiber.StatusInternalServerError, "failed to load content"}
		}
		text = rec.Text
	}

	if len(strings.TrimSpace(text)) < s.config.MinTranscriptChars {
		return "", &requestError{
			fiber.StatusBadRequest,
			fmt.Sprintf("transcript must be at least %d characters", s.config.MinTranscriptChars),
		}
	}
	return text, nil
}

func setStreamHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
