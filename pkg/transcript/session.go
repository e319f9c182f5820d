package transcript

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/lecternlabs/lectern/pkg/sse"
)

// SessionStatus is the lifecycle state of one transcription session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionStreaming SessionStatus = "streaming"
	SessionComplete  SessionStatus = "complete"
	SessionError     SessionStatus = "error"
	SessionDiscarded SessionStatus = "discarded"
)

// Terminal reports whether no further events will be processed.
func (s SessionStatus) Terminal() bool {
	return s == SessionComplete || s == SessionError || s == SessionDiscarded
}

// StreamError is the terminal failure signalled by the transcriber via an
// explicit error event.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "transcription stream error: " + e.Message
}

// Session drives one transcription run: raw SSE chunks in, assembled
// transcript text out. Each session owns its decoder and assembler;
// concurrent sessions share nothing.
type Session struct {
	dec       sse.Decoder
	assembler Assembler
	status    SessionStatus
	segments  int
	err       error
	logger    *zap.Logger
}

// NewSession creates a pending transcription session.
func NewSession(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		status: SessionPending,
		logger: logger,
	}
}

// Feed pushes one raw chunk through decode, parse, and assembly. Calls
// after the session reaches a terminal state are dropped.
func (s *Session) Feed(chunk []byte) {
	if s.status.Terminal() {
		return
	}
	for _, frame := range s.dec.Feed(chunk) {
		ev, ok := ParseEvent(frame.Data)
		if !ok {
			s.logger.Debug("skipping malformed transcription frame",
				zap.String("data", frame.Data),
			)
			continue
		}
		s.apply(ev)
		if s.status.Terminal() {
			return
		}
	}
}

func (s *Session) apply(ev Event) {
	switch ev.Status {
	case StatusTranscribing:
		s.status = SessionStreaming

	case StatusSegment:
		s.status = SessionStreaming
		s.assembler.Add(ev.Segment)
		s.segments++

	case StatusComplete:
		s.status = SessionComplete

	case StatusError:
		s.status = SessionError
		s.err = &StreamError{Message: ev.Message}
	}
}

// Run consumes the reader until the stream terminates, one chunk at a time.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			s.Discard()
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			s.Feed(buf[:n])
		}

		switch {
		case s.status == SessionError:
			return s.err
		case s.status == SessionComplete:
			if s.dec.Buffered() > 0 {
				s.logger.Debug("discarding unterminated trailing frame",
					zap.Int("bytes", s.dec.Buffered()),
				)
				s.dec.Reset()
			}
			return nil
		case err == io.EOF:
			s.status = SessionError
			s.err = fmt.Errorf("stream ended before completion")
			return s.err
		case err != nil:
			s.status = SessionError
			s.err = fmt.Errorf("read stream: %w", err)
			return s.err
		}
	}
}

// Discard cancels the session from outside; assembled text is released.
func (s *Session) Discard() {
	if s.status.Terminal() {
		return
	}
	s.status = SessionDiscarded
	s.assembler.Reset()
	s.dec.Reset()
}

// Status returns the current lifecycle state.
func (s *Session) Status() SessionStatus {
	return s.status
}

// Terminal reports whether the session stopped processing events.
func (s *Session) Terminal() bool {
	return s.status.Terminal()
}

// Err returns the terminal failure reason, if any.
func (s *Session) Err() error {
	return s.err
}

// Text returns the transcript assembled so far; partial until completion.
func (s *Session) Text() string {
	return s.assembler.Text()
}

// Segments returns the number of segments applied.
func (s *Session) Segments() int {
	return s.segments
}

// FinalText returns the assembled transcript once the session completed.
func (s *Session) FinalText() (string, error) {
	switch s.status {
	case SessionComplete:
		return s.assembler.Text(), nil
	case SessionError:
		return "", s.err
	default:
		return "", fmt.Errorf("session is %s, not complete", s.status)
	}
}
