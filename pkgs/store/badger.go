package store

import (
	"encoding/binary"
	"sync"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BadgerStore is the production AppendStore on a badger key-value database.
// Keys are kind-prefixed big-endian sequences so a prefix iteration yields
// entries in append order.
type BadgerStore struct {
	mu     sync.Mutex
	db     *badger.DB
	logger *zap.Logger
}

// OpenBadger opens (or creates) the database at path.
func OpenBadger(path string, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "could not open badger database")
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Insert appends data under kind. The read-increment-write of the per-kind
// sequence happens under the store lock so concurrent appenders cannot race
// to the same sequence.
func (s *BadgerStore) Insert(kind string, data []byte) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entry *Entry
	err := s.db.Update(func(txn *badger.Txn) error {
		seq, err := latestSeq(txn, kind)
		if err != nil {
			return err
		}
		next := seq + 1
		if err := txn.Set(entryKey(kind, next), data); err != nil {
			return err
		}
		entry = &Entry{Seq: next, Kind: kind, Data: data}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not append %s entry", kind)
	}
	return entry, nil
}

// GetLatest returns the highest-sequence entry of kind.
func (s *BadgerStore) GetLatest(kind string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		seq, err := latestSeq(txn, kind)
		if err != nil {
			return err
		}
		if seq == 0 {
			return ErrNotFound
		}
		item, err := txn.Get(entryKey(kind, seq))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entry = &Entry{Seq: seq, Kind: kind, Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Range returns entries with from <= seq <= to in sequence order.
func (s *BadgerStore) Range(kind string, from, to uint64) ([]*Entry, error) {
	if from == 0 {
		from = 1
	}
	var out []*Entry
	err := s.db.View(func(txn *badger.Txn) error {
		if to == 0 {
			seq, err := latestSeq(txn, kind)
			if err != nil {
				return err
			}
			to = seq
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(kind + "/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(entryKey(kind, from)); it.Valid(); it.Next() {
			item := it.Item()
			seq := seqFromKey(kind, item.Key())
			if seq == 0 || seq > to {
				break
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, &Entry{Seq: seq, Kind: kind, Data: data})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func entryKey(kind string, seq uint64) []byte {
	key := make([]byte, 0, len(kind)+9)
	key = append(key, []byte(kind+"/")...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}

func seqFromKey(kind string, key []byte) uint64 {
	prefix := len(kind) + 1
	if len(key) != prefix+8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[prefix:])
}

// latestSeq scans backwards over the kind prefix for the highest sequence.
func latestSeq(txn *badger.Txn, kind string) (uint64, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(kind + "/")
	opts.Reverse = true
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()
	// Seek to the end of the prefix space: kind + '/' + max sequence.
	it.Seek(entryKey(kind, ^uint64(0)))
	if !it.Valid() {
		return 0, nil
	}
	return seqFromKey(kind, it.Item().Key()), nil
}
