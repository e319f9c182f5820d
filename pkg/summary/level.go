// Package summary implements the knowledge-level summary stream: typed
// events decoded from the upstream SSE feed, the five-level aggregation
// buffers, and the session that drives one generation run end to end.
package summary

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Level identifies one of the five fixed knowledge tiers.
type Level int

const (
	LevelCompleteBeginner Level = iota
	LevelBeginner
	LevelIntermediate
	LevelAdvanced
	LevelExpert

	// NumLevels is the fixed tier count; every aggregate holds exactly this
	// many buffers.
	NumLevels = 5
)

var levelNames = [NumLevels]string{
	"Complete Beginner",
	"Beginner",
	"Intermediate",
	"Advanced",
	"Expert",
}

func (l Level) String() string {
	if !l.Valid() {
		return "Unknown (" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// Valid reports whether l is within the 0..4 tier range.
func (l Level) Valid() bool {
	return l >= 0 && l < NumLevels
}

// LevelFromFraction maps a requested knowledge fraction in [0,1] to a tier:
// floor(f/0.2), clamped so that 1.0 lands on LevelExpert. Computed as
// floor(f*5) to keep tier boundaries exact under float64.
func LevelFromFraction(f float64) Level {
	if f <= 0 {
		return LevelCompleteBeginner
	}
	l := Level(math.Floor(f * NumLevels))
	if l > LevelExpert {
		return LevelExpert
	}
	return l
}

// UnmarshalJSON accepts both encodings the producer emits: a JSON number and
// a quoted digit. Anything else (null, garbage) decodes to -1, which the
// aggregator ignores as out of range.
func (l *Level) UnmarshalJSON(b []byte) error {
	// Unmarshal treats null as a no-op on an int, which would leave the
	// level at 0; null must land out of range instead.
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*l = -1
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*l = Level(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			*l = Level(n)
			return nil
		}
	}

	*l = -1
	return nil
}
