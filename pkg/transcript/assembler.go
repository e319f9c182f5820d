package transcript

import "strings"

// Assembler joins streamed segments into readable transcript text.
// Consecutive segments are concatenated with a single space, unless the
// segment opens a new paragraph (blank line first) or follows a natural
// pause (timestamp prefix). Owned by one session; not safe for concurrent
// use. The zero value is ready.
type Assembler struct {
	b       strings.Builder
	started bool
}

// Add appends one segment according to its break hints.
func (a *Assembler) Add(seg Segment) {
	switch {
	case !a.started:
		a.started = true
	case seg.ParagraphBreak:
		a.b.WriteString("\n\n")
	default:
		a.b.WriteString(" ")
	}

	if seg.NaturalBreak && seg.Timestamp != "" {
		a.b.WriteString(seg.Timestamp)
		a.b.WriteString(" ")
	}
	a.b.WriteString(seg.Text)
}

// Text returns the transcript assembled so far.
func (a *Assembler) Text() string {
	return a.b.String()
}

// Reset discards all assembled text.
func (a *Assembler) Reset() {
	a.b.Reset()
	a.started = false
}
