package accumulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddRemoveMembership(t *testing.T) {
	acc := NewDynamic()
	require.False(t, acc.IsMember("idx-alice"))

	require.NoError(t, acc.Add("idx-alice"))
	require.True(t, acc.IsMember("idx-alice"))
	require.Equal(t, 1, acc.Count())

	require.NoError(t, acc.Remove("idx-alice"))
	require.False(t, acc.IsMember("idx-alice"))
	require.Equal(t, 0, acc.Count())
}

func TestAddIsIdempotent(t *testing.T) {
	acc := NewDynamic()
	require.NoError(t, acc.Add("idx-alice"))
	before := acc.Value()

	require.NoError(t, acc.Add("idx-alice"))
	require.Equal(t, 1, acc.Count())
	require.Equal(t, before, acc.Value())
}

func TestValueIndependentOfInsertionOrder(t *testing.T) {
	a := NewDynamic()
	require.NoError(t, a.Add("idx-alice"))
	require.NoError(t, a.Add("idx-bob"))
	require.NoError(t, a.Add("idx-carol"))

	b := NewDynamic()
	require.NoError(t, b.Add("idx-carol"))
	require.NoError(t, b.Add("idx-alice"))
	require.NoError(t, b.Add("idx-bob"))

	require.Equal(t, a.Value(), b.Value())
}

func TestRemoveRecomputesToSameValue(t *testing.T) {
	a := NewDynamic()
	require.NoError(t, a.Add("idx-alice"))
	require.NoError(t, a.Add("idx-bob"))
	withBoth := a.Value()

	require.NoError(t, a.Add("idx-carol"))
	require.NoError(t, a.Remove("idx-carol"))
	require.Equal(t, withBoth, a.Value())

	// Removing an absent element is a no-op.
	require.NoError(t, a.Remove("idx-nobody"))
	require.Equal(t, withBoth, a.Value())
}

func TestEmptyAccumulatorsAgree(t *testing.T) {
	a := NewDynamic()
	b := NewDynamic()
	require.Equal(t, a.Value(), b.Value())

	require.NoError(t, a.Add("x"))
	require.NoError(t, a.Remove("x"))
	require.Equal(t, b.Value(), a.Value())
}

func TestMembershipProof(t *testing.T) {
	acc := NewDynamic()
	require.NoError(t, acc.Add("idx-alice"))
	require.NoError(t, acc.Add("idx-bob"))

	proof, err := acc.CreateMembershipProof("idx-alice")
	require.NoError(t, err)
	require.True(t, VerifyMembershipProof(proof))

	// Proof for a non-member cannot be created.
	_, err = acc.CreateMembershipProof("idx-nobody")
	require.Error(t, err)

	// A tampered snapshot fails verification.
	proof.Members = append(proof.Members, "idx-forged")
	require.False(t, VerifyMembershipProof(proof))

	forged := &MembershipProof{Element: "idx-x", Value: acc.Value(), Members: []string{"idx-alice", "idx-bob"}}
	require.False(t, VerifyMembershipProof(forged))
}
