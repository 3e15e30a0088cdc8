// Package accumulator implements the dynamic set accumulator behind account
// freezes and the K-of-N proposal governance that gates changes to it.
package accumulator

import (
	"sort"
	"sync"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

// Dynamic is a compact set representation with O(1) membership queries.
// The accumulator value is recomputed over the sorted element set on every
// mutation, so two accumulators holding the same set always hash identically
// regardless of insertion history.
type Dynamic struct {
	mu       sync.Mutex
	value    string
	elements map[string]bool
}

// NewDynamic builds an empty accumulator.
func NewDynamic() *Dynamic {
	d := &Dynamic{elements: make(map[string]bool)}
	d.value = foldSorted(nil)
	return d
}

// Add inserts an element. Re-adding a present element is a no-op.
func (d *Dynamic) Add(element string) error {
	if element == "" {
		return errs.Validation("element", "must not be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.elements[element] {
		return nil
	}
	d.elements[element] = true
	d.value = foldSorted(d.sortedLocked())
	return nil
}

// Remove deletes an element and recomputes the value over the sorted
// remaining elements. Removing an absent element is a no-op.
func (d *Dynamic) Remove(element string) error {
	if element == "" {
		return errs.Validation("element", "must not be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.elements[element] {
		return nil
	}
	delete(d.elements, element)
	d.value = foldSorted(d.sortedLocked())
	return nil
}

// IsMember reports membership in O(1).
func (d *Dynamic) IsMember(element string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elements[element]
}

// Value returns the current accumulator value.
func (d *Dynamic) Value() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Count returns the number of accumulated elements.
func (d *Dynamic) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.elements)
}

// MembershipProof is a snapshot proof of membership. It is not succinct:
// the verifier is assumed to already trust the accumulator holder and only
// checks internal consistency of the snapshot.
type MembershipProof struct {
	Element string   `json:"element"`
	Value   string   `json:"value"`
	Members []string `json:"members"`
}

// CreateMembershipProof snapshots the accumulator state for one element.
func (d *Dynamic) CreateMembershipProof(element string) (*MembershipProof, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.elements[element] {
		return nil, errs.Validation("element", "%s is not a member", element)
	}
	return &MembershipProof{
		Element: element,
		Value:   d.value,
		Members: d.sortedLocked(),
	}, nil
}

// VerifyMembershipProof checks that the snapshot contains the element and
// that refolding the snapshot reproduces the claimed accumulator value.
func VerifyMembershipProof(proof *MembershipProof) bool {
	if proof == nil {
		return false
	}
	found := false
	for _, m := range proof.Members {
		if m == proof.Element {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return foldSorted(proof.Members) == proof.Value
}

func (d *Dynamic) sortedLocked() []string {
	out := make([]string, 0, len(d.elements))
	for e := range d.elements {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// foldSorted chains value = H(value || element) over the sorted elements,
// starting from the empty-set sentinel.
func foldSorted(sorted []string) string {
	value := utils.HashHex([]byte("accumulator:empty"))
	for _, e := range sorted {
		value = utils.HashHexParts([]byte(value), []byte(e))
	}
	return value
}
