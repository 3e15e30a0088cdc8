package merkle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type testTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func batch(n int) []any {
	txs := make([]any, n)
	for i := range txs {
		txs[i] = testTx{From: fmt.Sprintf("idx-%d", i), To: "idx-merchant", Amount: int64(100 + i)}
	}
	return txs
}

func TestProofForEveryLeaf(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 8, 33} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			txs := batch(n)
			tree, err := Build(txs)
			require.NoError(t, err)
			require.Equal(t, n, tree.LeafCount())
			for i := 0; i < n; i++ {
				proof, err := tree.GetProof(i)
				require.NoError(t, err)
				ok, err := VerifyProof(txs[i], proof, tree.Root())
				require.NoError(t, err)
				require.True(t, ok, "leaf %d of %d", i, n)
			}
		})
	}
}

func TestMutatedLeafFailsVerification(t *testing.T) {
	txs := batch(8)
	tree, err := Build(txs)
	require.NoError(t, err)
	proof, err := tree.GetProof(3)
	require.NoError(t, err)

	mutated := testTx{From: "idx-3", To: "idx-merchant", Amount: 999999}
	ok, err := VerifyProof(mutated, proof, tree.Root())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAlteredProofFailsVerification(t *testing.T) {
	txs := batch(8)
	tree, err := Build(txs)
	require.NoError(t, err)
	proof, err := tree.GetProof(3)
	require.NoError(t, err)

	// Flip a sibling position.
	proof.Steps[0].Position = PositionLeft
	ok, err := VerifyProof(txs[3], proof, tree.Root())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProofAgainstWrongRoot(t *testing.T) {
	txs := batch(4)
	tree, err := Build(txs)
	require.NoError(t, err)
	other, err := Build(batch(5))
	require.NoError(t, err)

	proof, err := tree.GetProof(0)
	require.NoError(t, err)
	ok, err := VerifyProof(txs[0], proof, other.Root())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeterministicRoot(t *testing.T) {
	a, err := Build(batch(16))
	require.NoError(t, err)
	b, err := Build(batch(16))
	require.NoError(t, err)
	require.Equal(t, a.Root(), b.Root())
}

func TestBuildValidation(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)

	tree, err := Build(batch(4))
	require.NoError(t, err)
	_, err = tree.GetProof(4)
	require.Error(t, err)
	_, err = tree.GetProof(-1)
	require.Error(t, err)
}

func TestSingleLeafTree(t *testing.T) {
	txs := batch(1)
	tree, err := Build(txs)
	require.NoError(t, err)
	proof, err := tree.GetProof(0)
	require.NoError(t, err)
	require.Empty(t, proof.Steps)
	ok, err := VerifyProof(txs[0], proof, tree.Root())
	require.NoError(t, err)
	require.True(t, ok)
}
