package summary

import "strings"

// Levels accumulates streamed summary text per knowledge tier. Exactly
// NumLevels buffers exist at all times, possibly empty. Levels is owned by a
// single session and is not safe for concurrent use.
type Levels struct {
	bufs [NumLevels]strings.Builder
}

// NewLevels returns an aggregate with five empty buffers.
func NewLevels() *Levels {
	return &Levels{}
}

// Append adds text to the buffer for level. Out-of-range levels are ignored
// rather than rejected; they can only arise from a producer defect.
func (l *Levels) Append(level Level, text string) {
	if !level.Valid() {
		return
	}
	l.bufs[level].WriteString(text)
}

// Replace swaps in a complete snapshot wholesale, superseding whatever the
// incremental stream accumulated. The snapshot is the authoritative final
// state; this guards against drift if incremental assembly miscounted.
func (l *Levels) Replace(snap Snapshot) {
	for i := range l.bufs {
		l.bufs[i].Reset()
		l.bufs[i].WriteString(snap[i])
	}
}

// TextAt returns the current buffer for level. Safe to call mid-stream; the
// result is partial until the session completes. Out-of-range levels read as
// empty.
func (l *Levels) TextAt(level Level) string {
	if !level.Valid() {
		return ""
	}
	return l.bufs[level].String()
}

// Snapshot copies all five buffers.
func (l *Levels) Snapshot() Snapshot {
	var s Snapshot
	for i := range l.bufs {
		s[i] = l.bufs[i].String()
	}
	return s
}
