// Package merkle implements the batch commitment scheme used by the bank
// consortium: a binary hash tree over canonically-serialized transactions,
// with O(log n) inclusion proofs so each bank can verify its subset of a
// batch without transferring the whole batch.
package merkle

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

// Sibling positions in a proof step.
const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// ProofStep is one sibling hash on the path from a leaf to the root.
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"`
}

// Proof is the ordered sibling path for a single leaf. Folding the steps in
// order reproduces the root iff the leaf and the proof are unaltered.
type Proof struct {
	LeafIndex int         `json:"leaf_index"`
	Steps     []ProofStep `json:"steps"`
}

// Tree is an immutable Merkle tree over a transaction batch. Levels are
// stored bottom-up; odd levels are padded by duplicating the last node.
type Tree struct {
	levels [][]string
	leaves int
}

// LeafHash computes the canonical leaf hash of a transaction record.
func LeafHash(record any) (string, error) {
	return utils.HashCanonical(record)
}

// Build constructs a tree over the ordered transaction batch.
func Build(records []any) (*Tree, error) {
	if len(records) == 0 {
		return nil, errs.Validation("records", "cannot build a tree over an empty batch")
	}
	leaves := make([]string, len(records))
	for i, r := range records {
		h, err := LeafHash(r)
		if err != nil {
			return nil, err
		}
		leaves[i] = h
	}
	return BuildFromLeaves(leaves)
}

// BuildFromLeaves constructs a tree over precomputed leaf hashes.
func BuildFromLeaves(leaves []string) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errs.Validation("leaves", "cannot build a tree without leaves")
	}
	t := &Tree{leaves: len(leaves)}
	level := make([]string, len(leaves))
	copy(level, leaves)
	for {
		if len(level)%2 == 1 && len(level) > 1 {
			level = append(level, level[len(level)-1])
		}
		t.levels = append(t.levels, level)
		if len(level) == 1 {
			break
		}
		level = hashLevel(level)
	}
	return t, nil
}

// hashLevel computes parent hashes for one level. Each pair is independent,
// so pairs are hashed on a bounded worker pool; the result is identical to a
// sequential fold.
func hashLevel(level []string) []string {
	parents := make([]string, len(level)/2)
	workers := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for i := 0; i < len(level); i += 2 {
		i := i
		workers.Go(func() {
			parents[i/2] = parentHash(level[i], level[i+1])
		})
	}
	workers.Wait()
	return parents
}

func parentHash(left, right string) string {
	return utils.HashHexParts([]byte(left), []byte(right))
}

// Root returns the tree's root hash.
func (t *Tree) Root() string {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// LeafCount returns the number of committed transactions (without padding).
func (t *Tree) LeafCount() int { return t.leaves }

// GetProof returns the inclusion proof for the leaf at index.
func (t *Tree) GetProof(index int) (*Proof, error) {
	if index < 0 || index >= t.leaves {
		return nil, errs.Validation("index", "leaf index %d out of range [0,%d)", index, t.leaves)
	}
	proof := &Proof{LeafIndex: index}
	i := index
	for _, level := range t.levels[:len(t.levels)-1] {
		if i%2 == 0 {
			proof.Steps = append(proof.Steps, ProofStep{Hash: level[i+1], Position: PositionRight})
		} else {
			proof.Steps = append(proof.Steps, ProofStep{Hash: level[i-1], Position: PositionLeft})
		}
		i /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the leaf hash of record and folds the proof steps
// in their stated order and position, comparing the result to root.
func VerifyProof(record any, proof *Proof, root string) (bool, error) {
	leaf, err := LeafHash(record)
	if err != nil {
		return false, err
	}
	return VerifyProofForLeaf(leaf, proof, root), nil
}

// VerifyProofForLeaf folds a proof over a precomputed leaf hash.
func VerifyProofForLeaf(leaf string, proof *Proof, root string) bool {
	current := leaf
	for _, step := range proof.Steps {
		switch step.Position {
		case PositionLeft:
			current = parentHash(step.Hash, current)
		case PositionRight:
			current = parentHash(current, step.Hash)
		default:
			return false
		}
	}
	return current == root
}
