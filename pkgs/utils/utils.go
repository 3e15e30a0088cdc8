package utils

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// GenesisHash is the previous-hash sentinel of the first audit chain entry.
const GenesisHash = "GENESIS"

// CanonicalJSON serializes v with deterministic (sorted) key ordering.
// Every structure fed to a hash function goes through here first; changing
// the serialization silently invalidates every proof, signature and chain
// link computed against the old ordering.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	// Round-trip through an untyped value so encoding/json emits map keys
	// sorted regardless of struct field order.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return json.Marshal(generic)
}

// HashHex returns the SHA-256 of data as a lowercase hex string with a 0x
// prefix, the representation used for every hash output in the ledger core.
func HashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hexutil.Encode(h[:])
}

// HashHexParts hashes the concatenation of parts.
func HashHexParts(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hexutil.Encode(h.Sum(nil))
}

// HashCanonical hashes the canonical JSON form of v.
func HashCanonical(v any) (string, error) {
	b, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return HashHex(b), nil
}

// Clock supplies UTC time to time-boxed components so tests can pin it.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T.UTC() }

// SensitiveError carries a sanitized message presented to remote callers
// while the full error goes to the log.
type SensitiveError struct {
	Err          error
	PresentedErr string
}

func (e *SensitiveError) Error() string { return e.Err.Error() }

// WriteErrorResponse logs err and writes its safe representation as JSON.
func WriteErrorResponse(logger *zap.Logger, writer http.ResponseWriter, err error, statusCode int) {
	logger.Error("request failed", zap.Error(err))
	presented := err.Error()
	if sensitive, ok := err.(*SensitiveError); ok {
		presented = sensitive.PresentedErr
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	resp, marshalErr := json.Marshal(map[string]string{"error": presented})
	if marshalErr != nil {
		return
	}
	if _, err := writer.Write(resp); err != nil {
		logger.Error("error writing error response", zap.Error(err))
	}
}
