package groupsig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var consortium = []string{"sbi", "hdfc", "icici", "axis", "kotak"}

func TestSignVerifyOpenEveryMember(t *testing.T) {
	group, err := GenerateGroup("freeze-consortium", consortium)
	require.NoError(t, err)

	msg := "approve proposal 7f3a"
	for _, bank := range consortium {
		sig, err := group.Sign(msg, bank)
		require.NoError(t, err)
		require.Len(t, sig.Ring, len(consortium))
		require.True(t, group.Verify(sig, msg))

		signer, err := group.Open(sig, msg)
		require.NoError(t, err)
		require.Equal(t, bank, signer)
	}
}

func TestVerifyFailsOnAlteredMessage(t *testing.T) {
	group, err := GenerateGroup("freeze-consortium", consortium)
	require.NoError(t, err)

	sig, err := group.Sign("approve proposal 7f3a", "hdfc")
	require.NoError(t, err)
	require.False(t, group.Verify(sig, "approve proposal 9999"))

	_, err = group.Open(sig, "approve proposal 9999")
	require.Error(t, err)
}

func TestVerifyFailsOnTamperedRing(t *testing.T) {
	group, err := GenerateGroup("freeze-consortium", consortium)
	require.NoError(t, err)

	msg := "approve proposal 7f3a"
	sig, err := group.Sign(msg, "hdfc")
	require.NoError(t, err)

	sig.Ring[2] = sig.Ring[3]
	require.False(t, group.Verify(sig, msg))
}

func TestRingSizeIsAlwaysN(t *testing.T) {
	group, err := GenerateGroup("freeze-consortium", consortium)
	require.NoError(t, err)

	msg := "approve proposal 7f3a"
	a, err := group.Sign(msg, "sbi")
	require.NoError(t, err)
	b, err := group.Sign(msg, "kotak")
	require.NoError(t, err)
	require.Equal(t, len(a.Ring), len(b.Ring))

	// A ring of the wrong width must not verify against this group.
	a.Ring = a.Ring[:len(a.Ring)-1]
	require.False(t, group.Verify(a, msg))
}

func TestSignerMustBeMember(t *testing.T) {
	group, err := GenerateGroup("freeze-consortium", consortium)
	require.NoError(t, err)

	_, err = group.Sign("msg", "not-a-bank")
	require.Error(t, err)
}

func TestGenerateGroupValidation(t *testing.T) {
	_, err := GenerateGroup("", consortium)
	require.Error(t, err)
	_, err = GenerateGroup("g", []string{"only-one"})
	require.Error(t, err)
	_, err = GenerateGroup("g", []string{"sbi", "sbi"})
	require.Error(t, err)
}
