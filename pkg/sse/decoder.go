package sse

import (
	"bytes"
	"strings"
)

// Decoder reassembles SSE events from a chunked byte stream. Bytes that do
// not yet form a complete blank-line-delimited event are carried over between
// Feed calls, so chunk boundaries may fall anywhere, including mid-UTF-8
// sequence or mid-field. The zero value is ready to use.
//
// A Decoder belongs to a single stream and is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// Feed appends chunk to the carry-over buffer and returns every event whose
// terminating blank line has arrived, in stream order. Events with no
// recognized fields (blank separators, comment-only keepalives) are dropped.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		frame, rest, ok := cutFrame(d.buf)
		if !ok {
			break
		}
		d.buf = rest

		if ev, ok := parseFrame(frame); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Buffered returns the number of carry-over bytes awaiting a frame delimiter.
// A non-zero value at stream end means a trailing partial event was dropped.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards any carry-over bytes.
func (d *Decoder) Reset() {
	d.buf = nil
}

// cutFrame slices b at the first blank line. The returned frame excludes the
// blank line itself; rest is everything after it.
func cutFrame(b []byte) (frame, rest []byte, ok bool) {
	i := 0
	for i < len(b) {
		j := bytes.IndexByte(b[i:], '\n')
		if j < 0 {
			return nil, b, false
		}
		line := bytes.TrimSuffix(b[i:i+j], []byte("\r"))
		if len(line) == 0 {
			return b[:i], b[i+j+1:], true
		}
		i += j + 1
	}
	return nil, b, false
}

// parseFrame extracts the SSE fields from one complete frame. It returns
// false when the frame carries nothing actionable.
func parseFrame(frame []byte) (Event, bool) {
	var ev Event
	var data []string
	seen := false

	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		switch {
		case len(line) == 0:
			continue
		case line[0] == ':':
			// comment / keepalive
			continue
		case bytes.HasPrefix(line, []byte("data:")):
			data = append(data, string(fieldValue(line[len("data:"):])))
			seen = true
		case bytes.HasPrefix(line, []byte("event:")):
			ev.Type = string(fieldValue(line[len("event:"):]))
			seen = true
		case bytes.HasPrefix(line, []byte("id:")):
			ev.ID = string(fieldValue(line[len("id:"):]))
			seen = true
		}
	}

	if !seen {
		return Event{}, false
	}
	ev.Data = strings.Join(data, "\n")
	return ev, true
}

// fieldValue strips the single optional space after a field's colon.
func fieldValue(v []byte) []byte {
	if len(v) > 0 && v[0] == ' ' {
		return v[1:]
	}
	return v
}
