// Package store provides the durable append-only storage consumed by the
// audit chain and the freeze state machine: insert, latest, and ordered
// range queries by sequence, per record kind.
package store

import (
	"github.com/pkg/errors"
)

// Record kinds written by the ledger core.
const (
	KindAudit  = "audit"
	KindFreeze = "freeze"
)

// ErrNotFound is returned when a kind has no entries or a sequence is
// missing.
var ErrNotFound = errors.New("store: not found")

// Entry is one appended record. Sequences start at 1 and are contiguous per
// kind; entries are never mutated once written.
type Entry struct {
	Seq  uint64 `json:"seq"`
	Kind string `json:"kind"`
	Data []byte `json:"data"`
}

// AppendStore is the append-only storage boundary. Insert is the sole write
// path.
type AppendStore interface {
	// Insert appends data under kind and returns the stored entry with its
	// assigned sequence.
	Insert(kind string, data []byte) (*Entry, error)
	// GetLatest returns the highest-sequence entry of kind, or ErrNotFound.
	GetLatest(kind string) (*Entry, error)
	// Range returns entries of kind with from <= seq <= to, ordered by
	// sequence. to == 0 means "to latest".
	Range(kind string, from, to uint64) ([]*Entry, error)
	Close() error
}
