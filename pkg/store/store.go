// Package store persists lecture content: uploaded transcripts and the
// final five-level summary snapshots produced by streaming sessions.
// Records are content-addressed (SHA-256 of kind and text), so re-submitting
// the same lecture deduplicates automatically and a record id doubles as a
// stable reference in upstream requests.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/lecternlabs/lectern/pkg/summary"
)

// Kind distinguishes what a record holds.
type Kind string

const (
	KindTranscript Kind = "transcript"
	KindSummary    Kind = "summary"
)

// Record is one stored piece of lecture content.
type Record struct {
	// ID is the content-addressed identifier (SHA-256, hex-encoded).
	ID string `json:"id"`

	Kind  Kind   `json:"kind"`
	Title string `json:"title,omitempty"`

	// Text is the transcript or source text the record was built from.
	Text string `json:"text"`

	// Levels holds the final summary snapshot for summary records.
	Levels *summary.Snapshot `json:"levels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a record with its computed content address.
func NewRecord(kind Kind, title, text string, levels *summary.Snapshot) *Record {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(text))

	return &Record{
		ID:        hex.EncodeToString(h.Sum(nil)),
		Kind:      kind,
		Title:     title,
		Text:      text,
		Levels:    levels,
		CreatedAt: time.Now().UTC(),
	}
}

// Storer is the storage driver interface. Put is idempotent by id, so
// content-addressing gives deduplication for free. Implementations must be
// safe for concurrent use.
type Storer interface {
	// Put stores a record. Storing an id that already exists is a no-op.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Record, error)

	// Has checks whether a record exists.
	Has(ctx context.Context, id string) (bool, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a record. Deleting an absent id returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases driver resources.
	Close() error
}

// ErrNotFound is returned when a record doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "record not found"
	}
	return "record not found: " + e.ID
}
