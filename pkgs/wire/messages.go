package wire

import "encoding/json"

// ProposalRequest opens a freeze/unfreeze proposal at the guardian.
type ProposalRequest struct {
	Operation string `json:"operation"`
	Target    string `json:"target"`
	Reason    string `json:"reason"`
	Proposer  string `json:"proposer"`
}

// ProposalResponse returns the assigned proposal id and current status.
type ProposalResponse struct {
	ProposalID string `json:"proposal_id"`
	Status     string `json:"status"`
}

// VoteRequest casts one bank's vote. The ring signature proves the vote
// comes from a consortium bank without naming it; BankID is only presented
// to the guardian, which records it for quorum accounting.
type VoteRequest struct {
	ProposalID string          `json:"proposal_id"`
	BankID     string          `json:"bank_id"`
	Approve    bool            `json:"approve"`
	Signature  json.RawMessage `json:"signature,omitempty"`
}

// VoteResponse reports the proposal state after the vote.
type VoteResponse struct {
	ProposalID string `json:"proposal_id"`
	Status     string `json:"status"`
	Approvals  int    `json:"approvals"`
	Rejections int    `json:"rejections"`
}

// ExecuteRequest applies an approved proposal.
type ExecuteRequest struct {
	ProposalID string `json:"proposal_id"`
}

// ExecuteResponse reports the terminal proposal state.
type ExecuteResponse struct {
	ProposalID string `json:"proposal_id"`
	Status     string `json:"status"`
	Operation  string `json:"operation"`
	Target     string `json:"target"`
}

// FreezeQueryRequest asks whether a target account is frozen.
type FreezeQueryRequest struct {
	Target string `json:"target"`
}

// FreezeQueryResponse answers a freeze query.
type FreezeQueryResponse struct {
	Target string `json:"target"`
	Frozen bool   `json:"frozen"`
}

// Pong is the health-check response, carrying the guardian's version for
// the client-side compatibility check.
type Pong struct {
	GuardianID string `json:"guardian_id"`
	Version    string `json:"version"`
	ChainHead  string `json:"chain_head"`
}

// Err is the error payload written for failed requests.
type Err struct {
	Error string `json:"error"`
}
