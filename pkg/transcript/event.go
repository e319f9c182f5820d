// Package transcript implements the audio-transcription stream: typed
// status events decoded from the upstream SSE feed, the segment assembler
// that rebuilds readable text, and the session for one transcription run.
package transcript

import "encoding/json"

// EventStatus discriminates the audio-stream event vocabulary. This is a
// sibling protocol to the summary stream with a disjoint tag set; keeping
// the two as separate closed types prevents field cross-contamination.
type EventStatus string

const (
	StatusTranscribing EventStatus = "transcribing"
	StatusSegment      EventStatus = "segment"
	StatusComplete     EventStatus = "complete"
	StatusError        EventStatus = "error"
)

// Segment is one transcribed span of speech with its break hints.
type Segment struct {
	Text string `json:"text"`

	// Timestamp is the preformatted [MM:SS] start marker.
	Timestamp string `json:"timestamp"`

	// NaturalBreak marks a pause long enough to warrant a timestamp.
	NaturalBreak bool `json:"is_natural_break"`

	// ParagraphBreak marks a pause long enough to start a new paragraph.
	ParagraphBreak bool `json:"is_paragraph_break"`

	Index int `json:"segment_index"`
	Total int `json:"total_segments"`
}

// Event is one decoded audio-stream message.
type Event struct {
	Status  EventStatus `json:"status"`
	Message string      `json:"message,omitempty"`

	// Segment fields are flattened on the wire alongside the status tag.
	Segment Segment `json:"-"`
}

// ParseEvent decodes one frame payload into a transcription event.
// Malformed payloads and unrecognized tags yield false.
func ParseEvent(data string) (Event, bool) {
	var wire struct {
		Status  EventStatus `json:"status"`
		Message string      `json:"message"`
		Segment
	}
	if err := json.Unmarshal([]byte(data), &wire); err != nil {
		return Event{}, false
	}

	switch wire.Status {
	case StatusTranscribing, StatusSegment, StatusComplete, StatusError:
		return Event{
			Status:  wire.Status,
			Message: wire.Message,
			Segment: wire.Segment,
		}, true
	default:
		return Event{}, false
	}
}
