package transcript_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternlabs/lectern/pkg/transcript"
)

const sampleStream = "data: {\"status\":\"transcribing\"}\n\n" +
	"data: {\"status\":\"segment\",\"text\":\"Hello everyone.\",\"timestamp\":\"[00:00]\",\"is_natural_break\":true,\"is_paragraph_break\":false,\"segment_index\":0,\"total_segments\":3}\n\n" +
	"data: {\"status\":\"segment\",\"text\":\"Today we cover streams.\",\"timestamp\":\"[00:05]\",\"is_natural_break\":false,\"is_paragraph_break\":false,\"segment_index\":1,\"total_segments\":3}\n\n" +
	"data: {\"status\":\"segment\",\"text\":\"New chapter.\",\"timestamp\":\"[01:00]\",\"is_natural_break\":true,\"is_paragraph_break\":true,\"segment_index\":2,\"total_segments\":3}\n\n" +
	"data: {\"status\":\"complete\"}\n\n"

func TestSessionAssemblesSegments(t *testing.T) {
	s := transcript.NewSession(nil)
	err := s.Run(context.Background(), bytes.NewReader([]byte(sampleStream)))
	require.NoError(t, err)

	assert.Equal(t, transcript.SessionComplete, s.Status())
	assert.Equal(t, 3, s.Segments())

	text, err := s.FinalText()
	require.NoError(t, err)
	assert.Equal(t,
		"[00:00] Hello everyone. Today we cover streams.\n\n[01:00] New chapter.",
		text)
}

func TestSessionSplitChunks(t *testing.T) {
	s := transcript.NewSession(nil)
	// Feed the whole stream one byte at a time.
	for i := 0; i < len(sampleStream); i++ {
		s.Feed([]byte{sampleStream[i]})
	}

	assert.Equal(t, transcript.SessionComplete, s.Status())
	assert.Equal(t, 3, s.Segments())
}

func TestSessionErrorEvent(t *testing.T) {
	s := transcript.NewSession(nil)
	s.Feed([]byte("data: {\"status\":\"error\",\"message\":\"whisper crashed\"}\n\n"))

	assert.Equal(t, transcript.SessionError, s.Status())

	var streamErr *transcript.StreamError
	require.ErrorAs(t, s.Err(), &streamErr)
	assert.Equal(t, "whisper crashed", streamErr.Message)

	s.Feed([]byte("data: {\"status\":\"segment\",\"text\":\"late\"}\n\n"))
	assert.Zero(t, s.Segments())
}

func TestSessionMalformedFramesSkipped(t *testing.T) {
	s := transcript.NewSession(nil)
	s.Feed([]byte("data: ???\n\n"))
	s.Feed([]byte("data: {\"status\":\"segment\",\"text\":\"kept\"}\n\n"))

	assert.Equal(t, 1, s.Segments())
	assert.Equal(t, "kept", s.Text())
}

func TestSessionCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := transcript.NewSession(nil)
	err := s.Run(ctx, bytes.NewReader([]byte(sampleStream)))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, transcript.SessionDiscarded, s.Status())
	assert.Empty(t, s.Text())
}

func TestSessionEOFBeforeCompletion(t *testing.T) {
	s := transcript.NewSession(nil)
	err := s.Run(context.Background(), bytes.NewReader([]byte("data: {\"status\":\"transcribing\"}\n\n")))

	require.Error(t, err)
	assert.Equal(t, transcript.SessionError, s.Status())
}
