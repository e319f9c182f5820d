package summary_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternlabs/lectern/pkg/summary"
)

func TestParseContentEvent(t *testing.T) {
	ev, ok := summary.ParseEvent(`{"type":"content","level":1,"text":"Hello"}`)
	require.True(t, ok)
	assert.Equal(t, summary.EventContent, ev.Type)
	assert.Equal(t, summary.LevelBeginner, ev.Level)
	assert.Equal(t, "Hello", ev.Text)
}

func TestParseContentEventStringLevel(t *testing.T) {
	ev, ok := summary.ParseEvent(`{"type":"content","level":"4","text":"dense"}`)
	require.True(t, ok)
	assert.Equal(t, summary.LevelExpert, ev.Level)
}

func TestParseContentEventNullLevel(t *testing.T) {
	ev, ok := summary.ParseEvent(`{"type":"content","level":null,"text":"lost"}`)
	require.True(t, ok)
	assert.False(t, ev.Level.Valid())
}

func TestParseErrorEvent(t *testing.T) {
	ev, ok := summary.ParseEvent(`{"type":"error","message":"upstream blew up"}`)
	require.True(t, ok)
	assert.Equal(t, summary.EventError, ev.Type)
	assert.Equal(t, "upstream blew up", ev.Message)
}

func TestParseMalformedPayload(t *testing.T) {
	for _, raw := range []string{`{"type":"content",`, `not json`, ``} {
		_, ok := summary.ParseEvent(raw)
		assert.False(t, ok, raw)
	}
}

func TestParseUnknownTag(t *testing.T) {
	_, ok := summary.ParseEvent(`{"type":"heartbeat"}`)
	assert.False(t, ok)
}

func TestParseSummariesObjectForm(t *testing.T) {
	ev, ok := summary.ParseEvent(`{"type":"summaries","data":{"0":"a","1":"b","2":"c","3":"d","4":"e"}}`)
	require.True(t, ok)
	require.NotNil(t, ev.Data)
	assert.Equal(t, summary.Snapshot{"a", "b", "c", "d", "e"}, *ev.Data)
}

func TestParseSummariesArrayForm(t *testing.T) {
	ev, ok := summary.ParseEvent(`{"type":"summaries","data":["a","b","c","d","e"]}`)
	require.True(t, ok)
	require.NotNil(t, ev.Data)
	assert.Equal(t, summary.Snapshot{"a", "b", "c", "d", "e"}, *ev.Data)
}
