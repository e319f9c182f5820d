package summary

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/lecternlabs/lectern/pkg/sse"
)

// Status is the lifecycle state of one streaming session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"

	// StatusDiscarded marks a session cancelled from outside; its buffers
	// are released and no completion result is surfaced.
	StatusDiscarded Status = "discarded"
)

// Terminal reports whether no further events will be processed.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusDiscarded
}

// StreamError is the terminal failure signalled by the producer via an
// explicit error event. The message is propagated verbatim.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "summary stream error: " + e.Message
}

// Session drives one summary-generation run: raw chunks in, aggregated
// five-level text out. Chunks are drained fully, in arrival order, with no
// concurrency inside the session. Each session owns its decoder and buffers;
// concurrent sessions share nothing.
type Session struct {
	dec      sse.Decoder
	levels   *Levels
	selected Level
	status   Status
	err      error
	logger   *zap.Logger
}

// NewSession creates a pending session that will surface the text for the
// selected level on completion.
func NewSession(selected Level, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		levels:   NewLevels(),
		selected: selected,
		status:   StatusPending,
		logger:   logger,
	}
}

// Feed pushes one raw chunk through decode, parse, and aggregation. Calls
// after the session reaches a terminal state are dropped.
func (s *Session) Feed(chunk []byte) {
	if s.status.Terminal() {
		return
	}
	for _, frame := range s.dec.Feed(chunk) {
		ev, ok := ParseEvent(frame.Data)
		if !ok {
			s.logger.Debug("skipping malformed summary frame",
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
	switch ev.Type {
	case EventTest:
		s.status = StatusStreaming
		s.logger.Debug("summary stream started", zap.String("message", ev.Message))

	case EventLevelStart:
		s.status = StatusStreaming
		s.logger.Debug("level started", zap.Stringer("level", ev.Level))

	case EventContent:
		s.status = StatusStreaming
		s.levels.Append(ev.Level, ev.Text)

	case EventSummaries:
		if ev.Data != nil {
			s.levels.Replace(*ev.Data)
		}

	case EventComplete:
		s.status = StatusComplete

	case EventError:
		s.status = StatusError
		s.err = &StreamError{Message: ev.Message}
	}
}

// Run consumes the reader until the stream terminates, one chunk at a time.
// Cancellation moves the session to the discarded state and returns the
// context error. A read failure or an end of stream before a terminal event
// is a transport fault.
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
		case s.status == StatusError:
			return s.err
		case s.status == StatusComplete:
			if s.dec.Buffered() > 0 {
				// Accepted protocol tolerance: at most one unterminated
				// trailing frame is lost.
				s.logger.Debug("discarding unterminated trailing frame",
					zap.Int("bytes", s.dec.Buffered()),
				)
				s.dec.Reset()
			}
			return nil
		case err == io.EOF:
			s.status = StatusError
			s.err = fmt.Errorf("stream ended before completion")
			return s.err
		case err != nil:
			s.status = StatusError
			s.err = fmt.Errorf("read stream: %w", err)
			return s.err
		}
	}
}

// Discard cancels the session from outside: buffers are released and the
// session stops accepting chunks. Terminal states are left untouched.
func (s *Session) Discard() {
	if s.status.Terminal() {
		return
	}
	s.status = StatusDiscarded
	s.levels = NewLevels()
	s.dec.Reset()
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
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

// TextAt returns the aggregated text for level, partial until completion.
func (s *Session) TextAt(level Level) string {
	return s.levels.TextAt(level)
}

// Snapshot copies the current five-level state.
func (s *Session) Snapshot() Snapshot {
	return s.levels.Snapshot()
}

// SelectedLevel returns the tier requested for this run.
func (s *Session) SelectedLevel() Level {
	return s.selected
}

// FinalText returns the selected level's text once the session completed.
func (s *Session) FinalText() (string, error) {
	switch s.status {
	case StatusComplete:
		return s.levels.TextAt(s.selected), nil
	case StatusError:
		return "", s.err
	default:
		return "", fmt.Errorf("session is %s, not complete", s.status)
	}
}
