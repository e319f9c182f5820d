package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lecternlabs/lectern/pkg/quiz"
	"github.com/lecternlabs/lectern/pkg/summary"
)

// Upstream is the client for the AI producer backend. The producer owns the
// model calls; lectern only consumes its streams and JSON responses. Retry
// policy deliberately lives here-or-nowhere: stream faults are surfaced, not
// retried.
type Upstream struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUpstream creates a producer client for baseURL.
func NewUpstream(baseURL string, logger *zap.Logger) *Upstream {
	return &Upstream{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Model calls can be slow, especially five parallel summaries
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// StreamSummaries opens the five-level summary SSE stream for transcript.
// The caller owns the returned body.
func (u *Upstream) StreamSummaries(ctx context.Context, transcript string) (io.ReadCloser, error) {
	body, err := json.Marshal(map[string]string{"transcript": transcript})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return u.openStream(ctx, u.baseURL+"/summaries/stream", "application/json", bytes.NewReader(body))
}

// StreamTranscription opens the transcription SSE stream for the given
// audio, passed through as opaque bytes. Decoding is the producer's problem.
func (u *Upstream) StreamTranscription(ctx context.Context, filename string, audio io.Reader) (io.ReadCloser, error) {
	endpoint := u.baseURL + "/transcriptions/stream"
	if filename != "" {
		endpoint += "?filename=" + url.QueryEscape(filename)
	}
	return u.openStream(ctx, endpoint, "application/octet-stream", audio)
}

func (u *Upstream) openStream(ctx context.Context, endpoint, contentType string, body io.Reader) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")

	u.logger.Debug("opening upstream stream", zap.String("url", endpoint))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(msg))
	}
	return resp.Body, nil
}

// GenerateQuestions asks the producer for open-ended quiz questions pitched
// at the given difficulty.
func (u *Upstream) GenerateQuestions(ctx context.Context, transcript string, difficulty summary.Level) ([]string, error) {
	var resp struct {
		Questions []string `json:"questions"`
	}
	err := u.postJSON(ctx, "/quiz/questions", map[string]any{
		"transcript": transcript,
		"level":      int(difficulty),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Questions) == 0 {
		return nil, fmt.Errorf("upstream returned no questions")
	}
	return resp.Questions, nil
}

// EvaluateAnswer grades a student answer and returns the score plus the
// producer's feedback text.
func (u *Upstream) EvaluateAnswer(ctx context.Context, question, answer, transcript string, difficulty summary.Level) (quiz.Score, string, error) {
	var resp struct {
		Score    string `json:"score"`
		Feedback string `json:"feedback"`
	}
	err := u.postJSON(ctx, "/quiz/evaluate", map[string]any{
		"question":   question,
		"answer":     answer,
		"transcript": transcript,
		"level":      int(difficulty),
	}, &resp)
	if err != nil {
		return "", "", err
	}

	score, err := quiz.ParseScore(resp.Score)
	if err != nil {
		return "", "", fmt.Errorf("upstream evaluation: %w", err)
	}
	return score, resp.Feedback, nil
}

func (u *Upstream) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	u.logger.Debug("forwarding request to upstream",
		zap.String("url", u.baseURL+path),
		zap.Int("body_size", len(body)),
	)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
