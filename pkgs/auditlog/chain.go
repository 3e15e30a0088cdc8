// Package auditlog implements the append-only tamper-evident hash chain
// every sensitive ledger action is recorded to. Each entry's hash covers the
// previous entry's hash, so mutating any historical entry breaks every link
// after it.
package auditlog

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/store"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

// Entry is one audit record. Entries are never mutated once written; append
// is the sole write path.
type Entry struct {
	Seq          uint64         `json:"seq"`
	EventType    string         `json:"event_type"`
	EventData    map[string]any `json:"event_data"`
	PreviousHash string         `json:"previous_hash"`
	CurrentHash  string         `json:"current_hash"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Chain is a handle over one audit chain instance. The read-latest, compute,
// write sequence is a single critical section; concurrent appenders cannot
// fork the chain.
type Chain struct {
	mu         sync.Mutex
	store      store.AppendStore
	logger     *zap.Logger
	clock      utils.Clock
	latestHash string
	latestSeq  uint64
}

// ChainOpts carries Chain construction parameters.
type ChainOpts struct {
	Store  store.AppendStore
	Logger *zap.Logger
	Clock  utils.Clock
}

// NewChain opens a chain over the store, resuming from the latest persisted
// entry if one exists.
func NewChain(opts ChainOpts) (*Chain, error) {
	if opts.Store == nil {
		return nil, errors.New("auditlog: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = utils.RealClock{}
	}
	c := &Chain{store: opts.Store, logger: logger, clock: clock, latestHash: utils.GenesisHash}
	latest, err := opts.Store.GetLatest(store.KindAudit)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "could not read latest audit entry")
	default:
		entry, err := decode(latest.Data)
		if err != nil {
			return nil, err
		}
		c.latestHash = entry.CurrentHash
		c.latestSeq = entry.Seq
	}
	return c, nil
}

// Append writes a new entry linked to the current chain head.
func (c *Chain) Append(eventType string, eventData map[string]any) (*Entry, error) {
	if eventType == "" {
		return nil, errors.New("auditlog: event type must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	hash, err := entryHash(c.latestHash, eventType, eventData, now)
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		Seq:          c.latestSeq + 1,
		EventType:    eventType,
		EventData:    eventData,
		PreviousHash: c.latestHash,
		CurrentHash:  hash,
		CreatedAt:    now,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode audit entry")
	}
	stored, err := c.store.Insert(store.KindAudit, raw)
	if err != nil {
		return nil, errors.Wrap(err, "could not persist audit entry")
	}
	if stored.Seq != entry.Seq {
		return nil, errors.Errorf("audit store sequence %d does not match chain head %d", stored.Seq, entry.Seq)
	}
	c.latestHash = entry.CurrentHash
	c.latestSeq = entry.Seq
	return entry, nil
}

// Record implements the best-effort audit sink consumed by the governance
// and freeze components.
func (c *Chain) Record(eventType string, eventData map[string]any) error {
	_, err := c.Append(eventType, eventData)
	return err
}

// Entries returns the decoded entries with from <= seq <= to (0 = open end).
func (c *Chain) Entries(from, to uint64) ([]*Entry, error) {
	raw, err := c.store.Range(store.KindAudit, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "could not read audit range")
	}
	out := make([]*Entry, 0, len(raw))
	for _, r := range raw {
		entry, err := decode(r.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// VerifyChain recomputes every hash in [from, to] from stored fields and
// checks link continuity. It returns whether the segment is intact and a
// diagnostic naming the first broken link when it is not.
func (c *Chain) VerifyChain(from, to uint64) (bool, string, error) {
	if from == 0 {
		from = 1
	}
	entries, err := c.Entries(from, to)
	if err != nil {
		return false, "", err
	}
	expectedPrev := utils.GenesisHash
	if from > 1 {
		prev, err := c.Entries(from-1, from-1)
		if err != nil {
			return false, "", err
		}
		if len(prev) != 1 {
			return false, fmt.Sprintf("entry %d preceding the range is missing", from-1), nil
		}
		expectedPrev = prev[0].CurrentHash
	}
	for _, entry := range entries {
		if entry.PreviousHash != expectedPrev {
			return false, fmt.Sprintf("link broken at entry %d: previous hash mismatch", entry.Seq), nil
		}
		recomputed, err := entryHash(entry.PreviousHash, entry.EventType, entry.EventData, entry.CreatedAt)
		if err != nil {
			return false, "", err
		}
		if recomputed != entry.CurrentHash {
			return false, fmt.Sprintf("link broken at entry %d: content hash mismatch", entry.Seq), nil
		}
		expectedPrev = entry.CurrentHash
	}
	return true, "", nil
}

// CheckIntegrity is VerifyChain folded into the typed error taxonomy: it
// returns nil for an intact segment and a ChainIntegrityError otherwise.
func (c *Chain) CheckIntegrity(from, to uint64) error {
	ok, diagnostic, err := c.VerifyChain(from, to)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ChainIntegrity(from, "%s", diagnostic)
	}
	return nil
}

// LatestHash returns the current chain head hash.
func (c *Chain) LatestHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latestHash
}

// entryHash computes H(previous || event_type || canonical(event_data) ||
// timestamp).
func entryHash(previousHash, eventType string, eventData map[string]any, at time.Time) (string, error) {
	canonical, err := utils.CanonicalJSON(eventData)
	if err != nil {
		return "", errors.Wrap(err, "could not canonicalize event data")
	}
	return utils.HashHexParts(
		[]byte(previousHash),
		[]byte(eventType),
		canonical,
		[]byte(at.UTC().Format(time.RFC3339Nano)),
	), nil
}

func decode(data []byte) (*Entry, error) {
	entry := &Entry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, errors.Wrap(err, "could not decode audit entry")
	}
	return entry, nil
}
