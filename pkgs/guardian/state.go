// Package guardian runs a regulator guardian node: the HTTP surface through
// which consortium banks file freeze proposals, vote anonymously, and query
// freeze state. The cryptographic core stays transport-free; this package
// is the shell around it.
package guardian

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/accumulator"
	"github.com/triadbank/ledger-core/pkgs/auditlog"
	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/freeze"
	"github.com/triadbank/ledger-core/pkgs/groupsig"
	"github.com/triadbank/ledger-core/pkgs/store"
	"github.com/triadbank/ledger-core/pkgs/utils"
	"github.com/triadbank/ledger-core/pkgs/wire"
)

// Switch holds one guardian's state: the governance manager, the audit
// chain, the freeze machine and the consortium's ring keys.
type Switch struct {
	Logger     *zap.Logger
	GuardianID string
	Version    string

	chain   *auditlog.Chain
	manager *accumulator.Manager
	machine *freeze.Machine
	group   *groupsig.GroupKeys
}

// SwitchOpts carries guardian state construction parameters.
type SwitchOpts struct {
	Logger     *zap.Logger
	GuardianID string
	Version    string
	Store      store.AppendStore
	Clock      utils.Clock
	BankIDs    []string
	Threshold  int
}

// NewSwitch wires the core components together over one store: the audit
// chain records every governance and freeze event.
func NewSwitch(opts SwitchOpts) (*Switch, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	chain, err := auditlog.NewChain(auditlog.ChainOpts{
		Store:  opts.Store,
		Logger: logger,
		Clock:  opts.Clock,
	})
	if err != nil {
		return nil, err
	}
	manager, err := accumulator.NewManager(accumulator.ManagerOpts{
		Logger:    logger,
		Clock:     opts.Clock,
		Audit:     chain,
		BankIDs:   opts.BankIDs,
		Threshold: opts.Threshold,
	})
	if err != nil {
		return nil, err
	}
	machine, err := freeze.NewMachine(freeze.MachineOpts{
		Logger: logger,
		Clock:  opts.Clock,
		Store:  opts.Store,
		Audit:  chain,
	})
	if err != nil {
		return nil, err
	}
	group, err := groupsig.GenerateGroup("consortium:"+opts.GuardianID, opts.BankIDs)
	if err != nil {
		return nil, err
	}
	return &Switch{
		Logger:     logger,
		GuardianID: opts.GuardianID,
		Version:    opts.Version,
		chain:      chain,
		manager:    manager,
		machine:    machine,
		group:      group,
	}, nil
}

// Group exposes the consortium ring keys so banks can be provisioned.
func (s *Switch) Group() *groupsig.GroupKeys { return s.group }

// Chain exposes the audit chain for integrity checks.
func (s *Switch) Chain() *auditlog.Chain { return s.chain }

// Manager exposes the governance manager.
func (s *Switch) Manager() *accumulator.Manager { return s.manager }

// Machine exposes the freeze state machine.
func (s *Switch) Machine() *freeze.Machine { return s.machine }

// CreateProposal opens a proposal on behalf of a bank.
func (s *Switch) CreateProposal(req *wire.ProposalRequest) (*wire.ProposalResponse, error) {
	id, err := s.manager.CreateProposal(req.Operation, req.Target, req.Reason, req.Proposer)
	if err != nil {
		return nil, err
	}
	p, err := s.manager.GetProposal(id)
	if err != nil {
		return nil, err
	}
	return &wire.ProposalResponse{ProposalID: p.ID, Status: p.Status}, nil
}

// Vote verifies the anonymous ring signature when one is presented, checks
// via designated opening that it was produced by the claiming bank, and
// records the vote.
func (s *Switch) Vote(req *wire.VoteRequest) (*wire.VoteResponse, error) {
	if len(req.Signature) > 0 {
		sig := &groupsig.Signature{}
		if err := json.Unmarshal(req.Signature, sig); err != nil {
			return nil, errs.Validation("signature", "malformed ring signature: %v", err)
		}
		message := VoteMessage(req.ProposalID, req.Approve)
		if !s.group.Verify(sig, message) {
			return nil, errs.Validation("signature", "ring signature does not verify")
		}
		signer, err := s.group.Open(sig, message)
		if err != nil {
			return nil, err
		}
		if signer != req.BankID {
			return nil, errs.Validation("signature", "ring signature was not produced by the claiming bank")
		}
	}
	p, err := s.manager.Vote(req.ProposalID, req.BankID, req.Approve)
	if err != nil {
		return nil, err
	}
	return &wire.VoteResponse{
		ProposalID: p.ID,
		Status:     p.Status,
		Approvals:  p.Approvals,
		Rejections: p.Rejections,
	}, nil
}

// Execute applies an approved proposal and drives the freeze policy layer:
// an executed FREEZE opens an investigation freeze, an executed UNFREEZE
// clears any active freezes for the target.
func (s *Switch) Execute(req *wire.ExecuteRequest) (*wire.ExecuteResponse, error) {
	p, err := s.manager.ExecuteProposal(req.ProposalID)
	if err != nil {
		return nil, err
	}
	switch p.Operation {
	case accumulator.OpFreeze:
		if _, err := s.machine.TriggerFreeze(p.Target, p.ID, p.Reason); err != nil {
			return nil, err
		}
	case accumulator.OpUnfreeze:
		err := s.machine.ManuallyUnfreeze(p.Target, "consortium", p.Reason)
		if err != nil {
			// No active investigation freeze to clear is fine here; the
			// accumulator entry was already removed by the execution.
			var state *errs.StateError
			if !errors.As(err, &state) {
				return nil, err
			}
		}
	}
	return &wire.ExecuteResponse{
		ProposalID: p.ID,
		Status:     p.Status,
		Operation:  p.Operation,
		Target:     p.Target,
	}, nil
}

// FreezeQuery answers whether a target is currently frozen, consulting both
// the consortium accumulator and the investigation freeze machine.
func (s *Switch) FreezeQuery(req *wire.FreezeQueryRequest) *wire.FreezeQueryResponse {
	frozen := s.manager.IsFrozen(req.Target) || s.machine.IsFrozen(req.Target)
	return &wire.FreezeQueryResponse{Target: req.Target, Frozen: frozen}
}

// Pong builds the health-check response.
func (s *Switch) Pong() *wire.Pong {
	return &wire.Pong{
		GuardianID: s.GuardianID,
		Version:    s.Version,
		ChainHead:  s.chain.LatestHash(),
	}
}

// VoteMessage is the canonical string a bank ring-signs when voting.
func VoteMessage(proposalID string, approve bool) string {
	return fmt.Sprintf("vote:%s:%t", proposalID, approve)
}
