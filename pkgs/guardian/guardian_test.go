package guardian_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/accumulator"
	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/guardian"
	"github.com/triadbank/ledger-core/pkgs/store"
	"github.com/triadbank/ledger-core/pkgs/utils"
	"github.com/triadbank/ledger-core/pkgs/wire"
)

var consortiumBanks = []string{"sbi", "hdfc", "icici", "axis", "kotak"}

func newTestSwitch(t *testing.T) *guardian.Switch {
	t.Helper()
	sw, err := guardian.NewSwitch(guardian.SwitchOpts{
		Logger:     zap.NewNop(),
		GuardianID: "rbi-guardian-1",
		Version:    "1.0.2",
		Store:      store.NewMemoryStore(),
		Clock:      utils.FixedClock{T: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		BankIDs:    consortiumBanks,
		Threshold:  3,
	})
	require.NoError(t, err)
	return sw
}

func signedVote(t *testing.T, sw *guardian.Switch, proposalID, bankID string, approve bool) *wire.VoteRequest {
	t.Helper()
	sig, err := sw.Group().Sign(guardian.VoteMessage(proposalID, approve), bankID)
	require.NoError(t, err)
	raw, err := json.Marshal(sig)
	require.NoError(t, err)
	return &wire.VoteRequest{
		ProposalID: proposalID,
		BankID:     bankID,
		Approve:    approve,
		Signature:  raw,
	}
}

func TestFreezeProposalLifecycle(t *testing.T) {
	sw := newTestSwitch(t)

	created, err := sw.CreateProposal(&wire.ProposalRequest{
		Operation: accumulator.OpFreeze,
		Target:    "account-777",
		Reason:    "suspicious transaction pattern",
		Proposer:  "sbi",
	})
	require.NoError(t, err)
	require.Equal(t, accumulator.StatusPending, created.Status)

	for i, bank := range consortiumBanks[:3] {
		resp, err := sw.Vote(signedVote(t, sw, created.ProposalID, bank, true))
		require.NoError(t, err)
		require.Equal(t, i+1, resp.Approvals)
	}

	executed, err := sw.Execute(&wire.ExecuteRequest{ProposalID: created.ProposalID})
	require.NoError(t, err)
	require.Equal(t, accumulator.StatusExecuted, executed.Status)
	require.Equal(t, "account-777", executed.Target)

	query := sw.FreezeQuery(&wire.FreezeQueryRequest{Target: "account-777"})
	require.True(t, query.Frozen)
	require.False(t, sw.FreezeQuery(&wire.FreezeQueryRequest{Target: "account-778"}).Frozen)

	// Every step of the lifecycle landed on the audit chain intact.
	ok, diagnostic, err := sw.Chain().VerifyChain(1, 0)
	require.NoError(t, err)
	require.True(t, ok, diagnostic)
}

func TestUnfreezeClearsInvestigationFreeze(t *testing.T) {
	sw := newTestSwitch(t)

	freezeProp, err := sw.CreateProposal(&wire.ProposalRequest{
		Operation: accumulator.OpFreeze,
		Target:    "account-13",
		Reason:    "court directive",
		Proposer:  "hdfc",
	})
	require.NoError(t, err)
	for _, bank := range consortiumBanks[:3] {
		_, err := sw.Vote(signedVote(t, sw, freezeProp.ProposalID, bank, true))
		require.NoError(t, err)
	}
	_, err = sw.Execute(&wire.ExecuteRequest{ProposalID: freezeProp.ProposalID})
	require.NoError(t, err)
	require.True(t, sw.FreezeQuery(&wire.FreezeQueryRequest{Target: "account-13"}).Frozen)

	unfreezeProp, err := sw.CreateProposal(&wire.ProposalRequest{
		Operation: accumulator.OpUnfreeze,
		Target:    "account-13",
		Reason:    "investigation closed",
		Proposer:  "hdfc",
	})
	require.NoError(t, err)
	for _, bank := range consortiumBanks[:3] {
		_, err := sw.Vote(signedVote(t, sw, unfreezeProp.ProposalID, bank, true))
		require.NoError(t, err)
	}
	_, err = sw.Execute(&wire.ExecuteRequest{ProposalID: unfreezeProp.ProposalID})
	require.NoError(t, err)

	require.False(t, sw.FreezeQuery(&wire.FreezeQueryRequest{Target: "account-13"}).Frozen)
}

func TestRejectedProposalCannotExecute(t *testing.T) {
	sw := newTestSwitch(t)

	created, err := sw.CreateProposal(&wire.ProposalRequest{
		Operation: accumulator.OpFreeze,
		Target:    "account-9",
		Reason:    "report 41-A",
		Proposer:  "icici",
	})
	require.NoError(t, err)

	// 3 rejections out of 5 make the 3-approval quorum unreachable.
	for _, bank := range consortiumBanks[:3] {
		_, err := sw.Vote(signedVote(t, sw, created.ProposalID, bank, false))
		require.NoError(t, err)
	}

	_, err = sw.Execute(&wire.ExecuteRequest{ProposalID: created.ProposalID})
	stateErr := &errs.StateError{}
	require.ErrorAs(t, err, &stateErr)
	require.False(t, sw.FreezeQuery(&wire.FreezeQueryRequest{Target: "account-9"}).Frozen)
}

func TestVoteSignatureChecks(t *testing.T) {
	sw := newTestSwitch(t)

	created, err := sw.CreateProposal(&wire.ProposalRequest{
		Operation: accumulator.OpFreeze,
		Target:    "account-55",
		Reason:    "layering pattern",
		Proposer:  "axis",
	})
	require.NoError(t, err)

	t.Run("signature over wrong message is rejected", func(t *testing.T) {
		sig, err := sw.Group().Sign("some other message", "sbi")
		require.NoError(t, err)
		raw, err := json.Marshal(sig)
		require.NoError(t, err)
		_, err = sw.Vote(&wire.VoteRequest{
			ProposalID: created.ProposalID,
			BankID:     "sbi",
			Approve:    true,
			Signature:  raw,
		})
		valErr := &errs.ValidationError{}
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("signature from a different bank is rejected", func(t *testing.T) {
		req := signedVote(t, sw, created.ProposalID, "hdfc", true)
		req.BankID = "icici"
		_, err := sw.Vote(req)
		valErr := &errs.ValidationError{}
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("well-formed signed vote is accepted", func(t *testing.T) {
		resp, err := sw.Vote(signedVote(t, sw, created.ProposalID, "kotak", true))
		require.NoError(t, err)
		require.Equal(t, 1, resp.Approvals)
	})
}

func TestPongCarriesChainHead(t *testing.T) {
	sw := newTestSwitch(t)
	pong := sw.Pong()
	require.Equal(t, "rbi-guardian-1", pong.GuardianID)
	require.Equal(t, "1.0.2", pong.Version)
	require.Equal(t, sw.Chain().LatestHash(), pong.ChainHead)
}
