// Package groupsig implements anonymous bank voting: a ring-style signature
// proving "some consortium bank signed" without revealing which, plus a
// designated-opener path that lets the regulator identify the signer.
//
// The default scheme is the hash-based Fiat-Shamir construction the ledger
// has always used. It is not a discrete-log ring signature with proven
// unforgeability; lsag.go carries a kyber-backed linkable ring signature
// with the same external shape for deployments that need one.
package groupsig

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sort"

	"github.com/pkg/errors"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

const secretBytes = 32

// BankKey is one bank's keypair. Public = H(secret || group id).
type BankKey struct {
	BankID string `json:"bank_id"`
	Secret string `json:"-"`
	Public string `json:"public"`
}

// GroupKeys holds every bank's keypair plus the designated opener's private
// key. The opener (the regulator) holds all bank secrets, which is what
// makes O(N) opening possible.
type GroupKeys struct {
	GroupID   string              `json:"group_id"`
	Keys      map[string]*BankKey `json:"keys"`
	OpenerKey string              `json:"-"`
}

// Signature is a ring of exactly N components. The true signer's component
// is derived from its secret; the rest are fresh randomness, structurally
// indistinguishable from it.
type Signature struct {
	GroupID    string   `json:"group_id"`
	Ring       []string `json:"ring"`
	Challenge  string   `json:"challenge"`
	OpeningTag string   `json:"opening_tag"`
}

// GenerateGroup creates keys for every bank and a private opener key.
func GenerateGroup(groupID string, bankIDs []string) (*GroupKeys, error) {
	if groupID == "" {
		return nil, errs.Validation("group", "group id must not be empty")
	}
	if len(bankIDs) < 2 {
		return nil, errs.Validation("banks", "a ring needs at least 2 banks, got %d", len(bankIDs))
	}
	keys := make(map[string]*BankKey, len(bankIDs))
	for _, id := range bankIDs {
		if _, dup := keys[id]; dup {
			return nil, errs.Validation("banks", "duplicate bank %s", id)
		}
		secret, err := randomHex()
		if err != nil {
			return nil, errors.Wrap(err, "could not draw bank secret")
		}
		keys[id] = &BankKey{
			BankID: id,
			Secret: secret,
			Public: utils.HashHexParts([]byte(secret), []byte(groupID)),
		}
	}
	opener, err := randomHex()
	if err != nil {
		return nil, errors.Wrap(err, "could not draw opener key")
	}
	return &GroupKeys{GroupID: groupID, Keys: keys, OpenerKey: opener}, nil
}

// Sign produces an anonymous ring signature over message by signerID. The
// ring is ordered by bank id so a verifier cannot infer the signer from
// component position.
func (g *GroupKeys) Sign(message, signerID string) (*Signature, error) {
	signer, ok := g.Keys[signerID]
	if !ok {
		return nil, errs.Validation("signer", "%s is not a group member", signerID)
	}
	ring := make([]string, 0, len(g.Keys))
	for _, id := range g.memberIDs() {
		if id == signerID {
			ring = append(ring, utils.HashHexParts([]byte(signer.Secret), []byte(message)))
			continue
		}
		decoy, err := randomHex()
		if err != nil {
			return nil, errors.Wrap(err, "could not draw decoy component")
		}
		ring = append(ring, utils.HashHex([]byte(decoy)))
	}
	return &Signature{
		GroupID:    g.GroupID,
		Ring:       ring,
		Challenge:  challenge(message, ring, g.GroupID),
		OpeningTag: openingTag(signerID, signer.Secret, message, g.OpenerKey),
	}, nil
}

// Verify recomputes the Fiat-Shamir challenge over the ring components and
// compares. A valid signature proves some registered bank signed message.
func (g *GroupKeys) Verify(sig *Signature, message string) bool {
	if sig == nil || sig.GroupID != g.GroupID || len(sig.Ring) != len(g.Keys) {
		return false
	}
	return sig.Challenge == challenge(message, sig.Ring, g.GroupID)
}

// Open identifies the signer by recomputing the opening tag against every
// bank's secret. Comparison is constant time; the scan is O(N), acceptable
// for consortium sizes.
func (g *GroupKeys) Open(sig *Signature, message string) (string, error) {
	if !g.Verify(sig, message) {
		return "", errs.Validation("signature", "signature does not verify for this group")
	}
	want := []byte(sig.OpeningTag)
	for _, id := range g.memberIDs() {
		got := []byte(openingTag(id, g.Keys[id].Secret, message, g.OpenerKey))
		if subtle.ConstantTimeCompare(want, got) == 1 {
			return id, nil
		}
	}
	return "", errs.Reconstruction("opening tag matches no registered bank")
}

func (g *GroupKeys) memberIDs() []string {
	ids := make([]string, 0, len(g.Keys))
	for id := range g.Keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func challenge(message string, ring []string, groupID string) string {
	parts := make([][]byte, 0, len(ring)+2)
	parts = append(parts, []byte(message))
	for _, c := range ring {
		parts = append(parts, []byte(c))
	}
	parts = append(parts, []byte(groupID))
	return utils.HashHexParts(parts...)
}

func openingTag(bankID, secret, message, openerKey string) string {
	return utils.HashHexParts([]byte(bankID), []byte(secret), []byte(message), []byte(openerKey))
}

func randomHex() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
