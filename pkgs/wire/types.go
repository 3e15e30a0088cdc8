// Package wire defines the messages exchanged between consortium banks and
// guardian nodes. All messages travel as a typed JSON envelope.
package wire

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MessageType tags the payload carried by a Transport envelope.
type MessageType uint64

const (
	ProposalMessageType MessageType = iota
	VoteMessageType
	ExecuteMessageType
	FreezeQueryMessageType
	PingMessageType
	PongMessageType
	ErrorMessageType
)

func (t MessageType) String() string {
	switch t {
	case ProposalMessageType:
		return "ProposalMessageType"
	case VoteMessageType:
		return "VoteMessageType"
	case ExecuteMessageType:
		return "ExecuteMessageType"
	case FreezeQueryMessageType:
		return "FreezeQueryMessageType"
	case PingMessageType:
		return "PingMessageType"
	case PongMessageType:
		return "PongMessageType"
	case ErrorMessageType:
		return "ErrorMessageType"
	default:
		return "UnknownMessageType"
	}
}

// Transport is the envelope for every consortium message.
type Transport struct {
	Type    MessageType     `json:"type"`
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Encode wraps a payload into an envelope of the given type.
func Encode(t MessageType, version string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal payload")
	}
	return json.Marshal(&Transport{Type: t, Version: version, Data: data})
}

// Decode parses an envelope.
func Decode(raw []byte) (*Transport, error) {
	tr := &Transport{}
	if err := json.Unmarshal(raw, tr); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal transport envelope")
	}
	return tr, nil
}

// Payload unmarshals the envelope body into out.
func (tr *Transport) Payload(out any) error {
	return json.Unmarshal(tr.Data, out)
}
