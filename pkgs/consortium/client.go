// Package consortium is the bank-side client: it fans requests out to every
// guardian node, collects the responses, and checks version compatibility
// on the health handshake.
package consortium

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	version "github.com/hashicorp/go-version"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/groupsig"
	"github.com/triadbank/ledger-core/pkgs/guardian"
	"github.com/triadbank/ledger-core/pkgs/wire"
)

const (
	requestTimeout = 30 * time.Second
	maxConcurrency = 8
)

// Guardian is one guardian node endpoint.
type Guardian struct {
	ID   string
	Addr string
}

// Client submits consortium operations on behalf of one bank.
type Client struct {
	Logger    *zap.Logger
	BankID    string
	Version   string
	guardians []Guardian
	http      *req.Client
	signer    *groupsig.GroupKeys
}

// ClientOpts carries client construction parameters. Signer is optional;
// when present, votes carry an anonymous ring signature.
type ClientOpts struct {
	Logger    *zap.Logger
	BankID    string
	Version   string
	Guardians []Guardian
	Signer    *groupsig.GroupKeys
}

// New builds a consortium client.
func New(opts ClientOpts) (*Client, error) {
	if opts.BankID == "" {
		return nil, errors.New("consortium: bank id is required")
	}
	if len(opts.Guardians) == 0 {
		return nil, errors.New("consortium: at least one guardian is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Logger:    logger,
		BankID:    opts.BankID,
		Version:   opts.Version,
		guardians: opts.Guardians,
		http:      req.C().SetTimeout(requestTimeout),
		signer:    opts.Signer,
	}, nil
}

// GuardianResponse pairs a guardian with its decoded reply or failure.
type GuardianResponse struct {
	Guardian Guardian
	Body     []byte
	Err      error
}

// Propose files a freeze/unfreeze proposal with every guardian.
func (c *Client) Propose(ctx context.Context, operation, target, reason string) ([]*wire.ProposalResponse, error) {
	payload := &wire.ProposalRequest{
		Operation: operation,
		Target:    target,
		Reason:    reason,
		Proposer:  c.BankID,
	}
	responses, err := c.broadcast(ctx, "/proposal", wire.ProposalMessageType, payload)
	if err != nil {
		return nil, err
	}
	return decodeAll[wire.ProposalResponse](responses)
}

// Vote casts this bank's vote with every guardian. When the client holds
// ring keys the vote is signed anonymously; the guardian opens the
// signature to confirm it came from the claiming bank.
func (c *Client) Vote(ctx context.Context, proposalID string, approve bool) ([]*wire.VoteResponse, error) {
	payload := &wire.VoteRequest{
		ProposalID: proposalID,
		BankID:     c.BankID,
		Approve:    approve,
	}
	if c.signer != nil {
		sig, err := c.signer.Sign(guardian.VoteMessage(proposalID, approve), c.BankID)
		if err != nil {
			return nil, errors.Wrap(err, "could not ring-sign vote")
		}
		raw, err := json.Marshal(sig)
		if err != nil {
			return nil, errors.Wrap(err, "could not encode ring signature")
		}
		payload.Signature = raw
	}
	responses, err := c.broadcast(ctx, "/vote", wire.VoteMessageType, payload)
	if err != nil {
		return nil, err
	}
	return decodeAll[wire.VoteResponse](responses)
}

// Execute applies an approved proposal at every guardian.
func (c *Client) Execute(ctx context.Context, proposalID string) ([]*wire.ExecuteResponse, error) {
	responses, err := c.broadcast(ctx, "/execute", wire.ExecuteMessageType, &wire.ExecuteRequest{ProposalID: proposalID})
	if err != nil {
		return nil, err
	}
	return decodeAll[wire.ExecuteResponse](responses)
}

// FreezeQuery asks every guardian whether target is frozen.
func (c *Client) FreezeQuery(ctx context.Context, target string) ([]*wire.FreezeQueryResponse, error) {
	responses, err := c.broadcast(ctx, "/freeze_query", wire.FreezeQueryMessageType, &wire.FreezeQueryRequest{Target: target})
	if err != nil {
		return nil, err
	}
	return decodeAll[wire.FreezeQueryResponse](responses)
}

// HealthCheck pings every guardian and verifies version compatibility:
// client and guardian must share the same major version.
func (c *Client) HealthCheck(ctx context.Context) ([]*wire.Pong, error) {
	own, err := version.NewVersion(c.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse own version %q", c.Version)
	}
	workers := pool.NewWithResults[*wire.Pong]().WithContext(ctx).WithFirstError().WithMaxGoroutines(maxConcurrency)
	for _, g := range c.guardians {
		g := g
		workers.Go(func(ctx context.Context) (*wire.Pong, error) {
			resp, err := c.http.R().SetContext(ctx).Get(g.Addr + "/health_check")
			if err != nil {
				return nil, errors.Wrapf(err, "guardian %s unreachable", g.ID)
			}
			tr, err := wire.Decode(resp.Bytes())
			if err != nil {
				return nil, errors.Wrapf(err, "guardian %s sent a malformed pong", g.ID)
			}
			pong := &wire.Pong{}
			if err := tr.Payload(pong); err != nil {
				return nil, errors.Wrapf(err, "guardian %s sent a malformed pong", g.ID)
			}
			remote, err := version.NewVersion(pong.Version)
			if err != nil {
				return nil, errors.Wrapf(err, "guardian %s reports unparseable version %q", g.ID, pong.Version)
			}
			if remote.Segments()[0] != own.Segments()[0] {
				return nil, errors.Errorf("guardian %s runs incompatible version %s (client %s)", g.ID, pong.Version, c.Version)
			}
			return pong, nil
		})
	}
	return workers.Wait()
}

// broadcast POSTs one enveloped payload to the same path on every guardian.
func (c *Client) broadcast(ctx context.Context, path string, t wire.MessageType, payload any) ([]*GuardianResponse, error) {
	body, err := wire.Encode(t, c.Version, payload)
	if err != nil {
		return nil, err
	}
	workers := pool.NewWithResults[*GuardianResponse]().WithContext(ctx).WithMaxGoroutines(maxConcurrency)
	for _, g := range c.guardians {
		g := g
		workers.Go(func(ctx context.Context) (*GuardianResponse, error) {
			resp, err := c.http.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetBodyBytes(body).
				Post(g.Addr + path)
			if err != nil {
				c.Logger.Warn("guardian unreachable", zap.String("guardian", g.ID), zap.Error(err))
				return &GuardianResponse{Guardian: g, Err: err}, nil
			}
			if resp.IsErrorState() {
				apiErr := &wire.Err{}
				_ = json.Unmarshal(resp.Bytes(), apiErr)
				return &GuardianResponse{
					Guardian: g,
					Err:      fmt.Errorf("guardian %s: %s", g.ID, apiErr.Error),
				}, nil
			}
			return &GuardianResponse{Guardian: g, Body: resp.Bytes()}, nil
		})
	}
	return workers.Wait()
}

// decodeAll unwraps successful guardian responses, failing if every
// guardian errored.
func decodeAll[T any](responses []*GuardianResponse) ([]*T, error) {
	var out []*T
	var firstErr error
	for _, r := range responses {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		tr, err := wire.Decode(r.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "guardian %s sent a malformed response", r.Guardian.ID)
		}
		payload := new(T)
		if err := tr.Payload(payload); err != nil {
			return nil, errors.Wrapf(err, "guardian %s sent a malformed payload", r.Guardian.ID)
		}
		out = append(out, payload)
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
