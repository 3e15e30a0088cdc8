package accumulator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

// Proposal operations.
const (
	OpFreeze   = "FREEZE"
	OpUnfreeze = "UNFREEZE"
)

// Proposal lifecycle states.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusExecuted = "EXECUTED"
)

// Proposal is one freeze/unfreeze vote in flight. A bank may vote at most
// once; EXECUTED is terminal.
type Proposal struct {
	ID         string          `json:"id"`
	Operation  string          `json:"operation"`
	Target     string          `json:"target"`
	Reason     string          `json:"reason"`
	Proposer   string          `json:"proposer"`
	Votes      map[string]bool `json:"votes"`
	Approvals  int             `json:"approvals"`
	Rejections int             `json:"rejections"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *Proposal) clone() *Proposal {
	votes := make(map[string]bool, len(p.Votes))
	for k, v := range p.Votes {
		votes[k] = v
	}
	c := *p
	c.Votes = votes
	return &c
}

// AuditSink receives governance events. Recording is best effort: a sink
// failure is downgraded to a warning and never blocks the vote itself.
type AuditSink interface {
	Record(eventType string, eventData map[string]any) error
}

// Manager wraps an accumulator with K-of-N bank governance. All vote
// recording and threshold transitions happen under one manager-wide lock;
// proposal volume is low enough that finer locking buys nothing.
type Manager struct {
	mu          sync.Mutex
	logger      *zap.Logger
	clock       utils.Clock
	audit       AuditSink
	accumulator *Dynamic
	banks       map[string]bool
	n           int
	k           int
	proposals   map[string]*Proposal
}

// ManagerOpts carries Manager construction parameters, injected explicitly
// so no instance state is process-global.
type ManagerOpts struct {
	Logger    *zap.Logger
	Clock     utils.Clock
	Audit     AuditSink
	BankIDs   []string
	Threshold int
}

// NewManager builds a K-of-N governance manager over a fresh accumulator.
func NewManager(opts ManagerOpts) (*Manager, error) {
	n := len(opts.BankIDs)
	if n == 0 {
		return nil, errs.Validation("banks", "at least one bank required")
	}
	if opts.Threshold < 1 || opts.Threshold > n {
		return nil, errs.Validation("threshold", "K=%d out of range for N=%d", opts.Threshold, n)
	}
	banks := make(map[string]bool, n)
	for _, id := range opts.BankIDs {
		if banks[id] {
			return nil, errs.Validation("banks", "duplicate bank %s", id)
		}
		banks[id] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Manager{
		logger:      logger,
		clock:       clock,
		audit:       opts.Audit,
		accumulator: NewDynamic(),
		banks:       banks,
		n:           n,
		k:           opts.Threshold,
		proposals:   make(map[string]*Proposal),
	}, nil
}

// CreateProposal opens a PENDING freeze/unfreeze proposal and returns its id.
func (m *Manager) CreateProposal(operation, target, reason, proposer string) (string, error) {
	if operation != OpFreeze && operation != OpUnfreeze {
		return "", errs.Validation("operation", "unknown operation %s", operation)
	}
	if target == "" {
		return "", errs.Validation("target", "must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.banks[proposer] {
		return "", errs.Validation("proposer", "%s is not a consortium bank", proposer)
	}
	p := &Proposal{
		ID:        uuid.NewString(),
		Operation: operation,
		Target:    target,
		Reason:    reason,
		Proposer:  proposer,
		Votes:     make(map[string]bool),
		Status:    StatusPending,
		CreatedAt: m.clock.Now(),
	}
	m.proposals[p.ID] = p
	m.record("proposal_created", map[string]any{
		"proposal_id": p.ID,
		"operation":   p.Operation,
		"target":      p.Target,
		"proposer":    p.Proposer,
	})
	m.logger.Info("proposal created",
		zap.String("id", p.ID),
		zap.String("operation", operation),
		zap.String("target", target))
	return p.ID, nil
}

// Vote records one bank's vote. The proposal transitions to APPROVED once
// approvals reach K, or to REJECTED once rejections exceed N-K and K is
// unreachable. A second vote from the same bank is a state error.
func (m *Manager) Vote(proposalID, bankID string, approve bool) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.banks[bankID] {
		return nil, errs.Validation("bank", "%s is not a consortium bank", bankID)
	}
	p, ok := m.proposals[proposalID]
	if !ok {
		return nil, errs.Validation("proposal", "unknown proposal %s", proposalID)
	}
	if p.Status != StatusPending {
		return nil, errs.State("vote", p.Status)
	}
	if _, voted := p.Votes[bankID]; voted {
		return nil, errs.State("vote twice as "+bankID, p.Status)
	}
	p.Votes[bankID] = approve
	if approve {
		p.Approvals++
	} else {
		p.Rejections++
	}
	if p.Approvals >= m.k {
		p.Status = StatusApproved
	} else if p.Rejections > m.n-m.k {
		p.Status = StatusRejected
	}
	m.record("proposal_vote", map[string]any{
		"proposal_id": p.ID,
		"bank":        bankID,
		"approve":     approve,
		"status":      p.Status,
	})
	m.logger.Info("vote recorded",
		zap.String("id", p.ID),
		zap.String("bank", bankID),
		zap.Bool("approve", approve),
		zap.String("status", p.Status))
	return p.clone(), nil
}

// ExecuteProposal applies an APPROVED proposal to the accumulator and moves
// it to the terminal EXECUTED state. Re-execution is a state error.
func (m *Manager) ExecuteProposal(proposalID string) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[proposalID]
	if !ok {
		return nil, errs.Validation("proposal", "unknown proposal %s", proposalID)
	}
	if p.Status != StatusApproved {
		return nil, errs.State("execute", p.Status)
	}
	var err error
	switch p.Operation {
	case OpFreeze:
		err = m.accumulator.Add(p.Target)
	case OpUnfreeze:
		err = m.accumulator.Remove(p.Target)
	}
	if err != nil {
		return nil, err
	}
	p.Status = StatusExecuted
	m.record("proposal_executed", map[string]any{
		"proposal_id": p.ID,
		"operation":   p.Operation,
		"target":      p.Target,
	})
	m.logger.Info("proposal executed",
		zap.String("id", p.ID),
		zap.String("operation", p.Operation),
		zap.String("target", p.Target))
	return p.clone(), nil
}

// GetProposal returns a copy of the proposal.
func (m *Manager) GetProposal(proposalID string) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[proposalID]
	if !ok {
		return nil, errs.Validation("proposal", "unknown proposal %s", proposalID)
	}
	return p.clone(), nil
}

// Proposals returns copies of all proposals, newest first.
func (m *Manager) Proposals() []*Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Proposal, 0, len(m.proposals))
	for _, p := range m.proposals {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsFrozen reports whether the target is in the freeze accumulator.
func (m *Manager) IsFrozen(target string) bool {
	return m.accumulator.IsMember(target)
}

// Accumulator exposes the underlying accumulator for proof generation.
func (m *Manager) Accumulator() *Dynamic { return m.accumulator }

func (m *Manager) record(eventType string, data map[string]any) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Record(eventType, data); err != nil {
		m.logger.Warn("audit record failed", zap.String("event", eventType), zap.Error(err))
	}
}
