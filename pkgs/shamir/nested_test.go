package shamir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triadbank/ledger-core/pkgs/errs"
)

var regulators = []string{"rbi", "fiu", "cbi", "it"}

func TestNestedSplitAndReconstruct(t *testing.T) {
	scheme, err := NewNestedScheme("company", regulators)
	require.NoError(t, err)

	split, err := scheme.Split("decryption-key")
	require.NoError(t, err)
	require.Len(t, split.Regulators, 4)

	// Any single regulator together with the company recovers the secret.
	for _, id := range regulators {
		secret, err := scheme.Reconstruct(split.Company, split.Regulators[id], split.Commitment)
		require.NoError(t, err)
		require.True(t, VerifySecret(secret, "decryption-key"))
	}
}

func TestNestedReconstructWithoutCompany(t *testing.T) {
	scheme, err := NewNestedScheme("company", regulators)
	require.NoError(t, err)
	split, err := scheme.Split("decryption-key")
	require.NoError(t, err)

	var denied *errs.AccessDeniedError
	_, err = scheme.Reconstruct(nil, split.Regulators["rbi"], split.Commitment)
	require.ErrorAs(t, err, &denied)

	// A regulator share in the company position must not pass the check.
	_, err = scheme.Reconstruct(split.Regulators["rbi"], split.Regulators["fiu"], split.Commitment)
	require.ErrorAs(t, err, &denied)
}

func TestNestedReconstructUnanchoredShare(t *testing.T) {
	scheme, err := NewNestedScheme("company", regulators)
	require.NoError(t, err)
	split, err := scheme.Split("decryption-key")
	require.NoError(t, err)

	forged := *split.Regulators["rbi"]
	forged.AnchorX = 0
	var denied *errs.AccessDeniedError
	_, err = scheme.Reconstruct(split.Company, &forged, split.Commitment)
	require.ErrorAs(t, err, &denied)
}

func TestNestedReconstructTamperedRegulatorShare(t *testing.T) {
	scheme, err := NewNestedScheme("company", regulators)
	require.NoError(t, err)
	split, err := scheme.Split("decryption-key")
	require.NoError(t, err)

	tampered := *split.Regulators["cbi"]
	tampered.Y = new(big.Int).Add(tampered.Y, big.NewInt(1))
	var rec *errs.ReconstructionError
	_, err = scheme.Reconstruct(split.Company, &tampered, split.Commitment)
	require.ErrorAs(t, err, &rec)
}

func TestNestedSchemeValidation(t *testing.T) {
	_, err := NewNestedScheme("", regulators)
	require.Error(t, err)

	_, err = NewNestedScheme("company", []string{"rbi", "fiu"})
	require.Error(t, err)

	_, err = NewNestedScheme("company", []string{"rbi", "rbi", "cbi", "it"})
	require.Error(t, err)
}
