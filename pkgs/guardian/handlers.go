package guardian

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/utils"
	"github.com/triadbank/ledger-core/pkgs/wire"
)

func (s *Server) proposalHandler(writer http.ResponseWriter, request *http.Request) {
	s.Logger.Debug("received a proposal message")
	req := &wire.ProposalRequest{}
	if err := readEnvelope(request, wire.ProposalMessageType, req); err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	resp, err := s.State.CreateProposal(req)
	if err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	s.writeResponse(writer, wire.ProposalMessageType, resp)
}

func (s *Server) voteHandler(writer http.ResponseWriter, request *http.Request) {
	s.Logger.Debug("received a vote message")
	req := &wire.VoteRequest{}
	if err := readEnvelope(request, wire.VoteMessageType, req); err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	resp, err := s.State.Vote(req)
	if err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	s.writeResponse(writer, wire.VoteMessageType, resp)
}

func (s *Server) executeHandler(writer http.ResponseWriter, request *http.Request) {
	s.Logger.Debug("received an execute message")
	req := &wire.ExecuteRequest{}
	if err := readEnvelope(request, wire.ExecuteMessageType, req); err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	resp, err := s.State.Execute(req)
	if err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	s.writeResponse(writer, wire.ExecuteMessageType, resp)
}

func (s *Server) freezeQueryHandler(writer http.ResponseWriter, request *http.Request) {
	req := &wire.FreezeQueryRequest{}
	if err := readEnvelope(request, wire.FreezeQueryMessageType, req); err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusBadRequest)
		return
	}
	s.writeResponse(writer, wire.FreezeQueryMessageType, s.State.FreezeQuery(req))
}

func (s *Server) healthHandler(writer http.ResponseWriter, request *http.Request) {
	s.writeResponse(writer, wire.PongMessageType, s.State.Pong())
}

func (s *Server) auditVerifyHandler(writer http.ResponseWriter, request *http.Request) {
	ok, diagnostic, err := s.State.Chain().VerifyChain(1, 0)
	if err != nil {
		err := &utils.SensitiveError{Err: err, PresentedErr: "failed to verify audit chain"}
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusInternalServerError)
		return
	}
	raw, err := json.Marshal(map[string]any{
		"valid":      ok,
		"diagnostic": diagnostic,
	})
	if err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	if _, err := writer.Write(raw); err != nil {
		s.Logger.Error("error writing response", zap.Error(err))
	}
}

func readEnvelope(request *http.Request, want wire.MessageType, out any) error {
	rawdata, err := io.ReadAll(request.Body)
	if err != nil {
		return errors.Wrap(err, "could not read request body")
	}
	tr, err := wire.Decode(rawdata)
	if err != nil {
		return err
	}
	if tr.Type != want {
		return errors.Errorf("received wrong message type %s, want %s", tr.Type, want)
	}
	return tr.Payload(out)
}

func (s *Server) writeResponse(writer http.ResponseWriter, t wire.MessageType, payload any) {
	raw, err := wire.Encode(t, s.State.Version, payload)
	if err != nil {
		utils.WriteErrorResponse(s.Logger, writer, err, http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	if _, err := writer.Write(raw); err != nil {
		s.Logger.Error("error writing response", zap.Error(err))
	}
}
