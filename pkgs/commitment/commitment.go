// Package commitment implements hiding transaction commitments and the
// one-time nullifiers that detect double spends.
package commitment

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/pkg/errors"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

const saltBytes = 32

// Commitment hides a transaction behind a salted hash. The salt is returned
// to the committer so the commitment can be opened later.
type Commitment struct {
	Value string `json:"commitment"`
	Salt  string `json:"salt"`
}

// Create builds a commitment over (sender, receiver, amount). If salt is
// empty a fresh random salt is drawn.
func Create(sender, receiver string, amount int64, salt string) (*Commitment, error) {
	if sender == "" || receiver == "" {
		return nil, errs.Validation("parties", "sender and receiver must not be empty")
	}
	if amount <= 0 {
		return nil, errs.Validation("amount", "must be positive, got %d", amount)
	}
	if salt == "" {
		buf := make([]byte, saltBytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Wrap(err, "could not draw commitment salt")
		}
		salt = hex.EncodeToString(buf)
	}
	return &Commitment{Value: commitmentHash(sender, receiver, amount, salt), Salt: salt}, nil
}

// Verify reports whether the commitment opens to the given transaction.
func Verify(c *Commitment, sender, receiver string, amount int64) bool {
	if c == nil {
		return false
	}
	return commitmentHash(sender, receiver, amount, c.Salt) == c.Value
}

func commitmentHash(sender, receiver string, amount int64, salt string) string {
	payload, _ := utils.CanonicalJSON(map[string]any{
		"sender":   sender,
		"receiver": receiver,
		"amount":   amount,
		"salt":     salt,
	})
	return utils.HashHex(payload)
}

// Nullifier derives the one-time spend token for a commitment. The token is
// deterministic per (commitment, sender, secret), so spending the same
// commitment twice produces the same token.
func Nullifier(commitmentValue, sender, secretKey string) string {
	return utils.HashHexParts([]byte(commitmentValue), []byte(sender), []byte(secretKey))
}

// NullifierSet is the used-token set. Check-and-insert is a single critical
// section; a racing second spend of the same token must lose.
type NullifierSet struct {
	mu   sync.Mutex
	used map[string]bool
}

// NewNullifierSet builds an empty used-token set.
func NewNullifierSet() *NullifierSet {
	return &NullifierSet{used: make(map[string]bool)}
}

// Spend atomically checks and records a nullifier. A second spend of the
// same token returns DoubleSpendError.
func (s *NullifierSet) Spend(nullifier string) error {
	if nullifier == "" {
		return errs.Validation("nullifier", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used[nullifier] {
		return errs.DoubleSpend(nullifier)
	}
	s.used[nullifier] = true
	return nil
}

// IsSpent reports whether a nullifier has been used.
func (s *NullifierSet) IsSpent(nullifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[nullifier]
}

// Count returns the number of spent tokens.
func (s *NullifierSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.used)
}
