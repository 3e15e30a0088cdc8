// Package shamir implements threshold secret sharing over a 256-bit prime
// field, with access structures that mix mandatory holders (must always be
// present) and optional holders (any one of many). Reconstruction uses
// Lagrange interpolation at x=0 with Fermat modular inverses.
package shamir

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

// fieldPrime is 2^256 - 189, the smallest 256-bit Mersenne-like prime below
// 2^256. All polynomial arithmetic is carried out modulo this prime.
var fieldPrime, _ = new(big.Int).SetString(
	"115792089237316195423570985008687907853269984665640564039457584007913129639747", 10)

// Prime returns the field modulus.
func Prime() *big.Int { return new(big.Int).Set(fieldPrime) }

// Holder identifies a share holder and its fixed evaluation point.
type Holder struct {
	ID        string
	X         int64
	Mandatory bool
}

// Share is a single point on the secret polynomial together with the access
// structure metadata the holder needs at reconstruction time.
type Share struct {
	HolderID  string   `json:"holder_id"`
	X         int64    `json:"x"`
	Y         *big.Int `json:"y"`
	Threshold int      `json:"threshold"`
	Mandatory bool     `json:"is_mandatory"`
}

// SecretSplit maps holder IDs to their shares. Fewer than Threshold shares,
// or any set missing a mandatory holder, reveal nothing about the secret.
type SecretSplit struct {
	Threshold  int               `json:"threshold"`
	Commitment string            `json:"commitment"`
	Shares     map[string]*Share `json:"shares"`
}

// Scheme is a threshold access structure: every mandatory holder plus at
// least one optional holder, and at least Threshold shares in total.
type Scheme struct {
	threshold int
	mandatory []Holder
	optional  []Holder
}

// NewScheme validates and builds an access structure. Holder evaluation
// points must be distinct and non-zero (x=0 encodes the secret itself).
func NewScheme(threshold int, mandatory, optional []Holder) (*Scheme, error) {
	if threshold < 2 {
		return nil, errs.Validation("threshold", "must be at least 2, got %d", threshold)
	}
	total := len(mandatory) + len(optional)
	if total < threshold {
		return nil, errs.Validation("holders", "%d holders cannot satisfy threshold %d", total, threshold)
	}
	if len(optional) == 0 {
		return nil, errs.Validation("holders", "access structure requires at least one optional holder")
	}
	seen := make(map[int64]string)
	for _, h := range append(append([]Holder{}, mandatory...), optional...) {
		if h.X == 0 {
			return nil, errs.Validation("holders", "holder %s has reserved evaluation point x=0", h.ID)
		}
		if prev, ok := seen[h.X]; ok {
			return nil, errs.Validation("holders", "holders %s and %s share evaluation point %d", prev, h.ID, h.X)
		}
		seen[h.X] = h.ID
	}
	m := make([]Holder, len(mandatory))
	copy(m, mandatory)
	for i := range m {
		m[i].Mandatory = true
	}
	o := make([]Holder, len(optional))
	copy(o, optional)
	for i := range o {
		o[i].Mandatory = false
	}
	return &Scheme{threshold: threshold, mandatory: m, optional: o}, nil
}

// EncodeSecret reduces an arbitrary secret string to a field element via
// SHA-256. Reconstruction recovers this element, not the original string.
func EncodeSecret(secret string) *big.Int {
	digest := sha256.Sum256([]byte(secret))
	return new(big.Int).Mod(new(big.Int).SetBytes(digest[:]), fieldPrime)
}

// Split encodes the secret as the constant term of a random polynomial of
// degree threshold-1 and evaluates it at every holder's point. The returned
// split carries a public commitment to the encoded secret, verified again at
// reconstruction time.
func (s *Scheme) Split(secret string) (*SecretSplit, error) {
	if secret == "" {
		return nil, errs.Validation("secret", "must not be empty")
	}
	encoded := EncodeSecret(secret)
	coeffs, err := randomPolynomial(encoded, s.threshold-1)
	if err != nil {
		return nil, errors.Wrap(err, "could not sample polynomial coefficients")
	}
	split := &SecretSplit{
		Threshold:  s.threshold,
		Commitment: commitTo(encoded),
		Shares:     make(map[string]*Share),
	}
	for _, h := range append(append([]Holder{}, s.mandatory...), s.optional...) {
		split.Shares[h.ID] = &Share{
			HolderID:  h.ID,
			X:         h.X,
			Y:         evalPolynomial(coeffs, big.NewInt(h.X)),
			Threshold: s.threshold,
			Mandatory: h.Mandatory,
		}
	}
	return split, nil
}

// VerifyAccessStructure reports whether the presented shares satisfy the
// scheme: every mandatory holder present, at least one optional holder
// present, and at least threshold shares in total.
func (s *Scheme) VerifyAccessStructure(shares []*Share) error {
	present := make(map[string]bool, len(shares))
	for _, sh := range shares {
		present[sh.HolderID] = true
	}
	if len(present) < s.threshold {
		return errs.AccessDenied("need at least %d distinct shares, got %d", s.threshold, len(present))
	}
	for _, h := range s.mandatory {
		if !present[h.ID] {
			return errs.AccessDenied("mandatory holder %s is missing", h.ID)
		}
	}
	for _, h := range s.optional {
		if present[h.ID] {
			return nil
		}
	}
	return errs.AccessDenied("no optional holder share presented")
}

// Reconstruct checks the access structure first, then interpolates the
// polynomial at x=0 and verifies the result against the commitment stored at
// split time. It returns the encoded secret element.
func (s *Scheme) Reconstruct(shares []*Share, commitment string) (*big.Int, error) {
	if err := s.VerifyAccessStructure(shares); err != nil {
		return nil, err
	}
	points := dedupeByX(shares)
	if len(points) < s.threshold {
		return nil, errs.AccessDenied("need %d distinct evaluation points, got %d", s.threshold, len(points))
	}
	secret, err := InterpolateAtZero(points)
	if err != nil {
		return nil, err
	}
	if commitTo(secret) != commitment {
		return nil, errs.Reconstruction("interpolated secret does not match split commitment")
	}
	return secret, nil
}

// VerifySecret reports whether the reconstructed element corresponds to the
// candidate plaintext secret.
func VerifySecret(reconstructed *big.Int, candidate string) bool {
	return EncodeSecret(candidate).Cmp(reconstructed) == 0
}

// InterpolateAtZero evaluates the unique polynomial through the given points
// at x=0. Inverses are computed via Fermat's little theorem, d^(p-2) mod p.
func InterpolateAtZero(points []*Share) (*big.Int, error) {
	if len(points) == 0 {
		return nil, errs.Validation("shares", "no points to interpolate")
	}
	sum := big.NewInt(0)
	for i, pi := range points {
		num := big.NewInt(1)
		den := big.NewInt(1)
		xi := big.NewInt(pi.X)
		for j, pj := range points {
			if i == j {
				continue
			}
			xj := big.NewInt(pj.X)
			// numerator *= (0 - xj); denominator *= (xi - xj)
			num.Mul(num, new(big.Int).Neg(xj))
			num.Mod(num, fieldPrime)
			den.Mul(den, new(big.Int).Sub(xi, xj))
			den.Mod(den, fieldPrime)
		}
		if den.Sign() == 0 {
			return nil, errs.Validation("shares", "duplicate evaluation point %d", pi.X)
		}
		inv := new(big.Int).Exp(den, new(big.Int).Sub(fieldPrime, big.NewInt(2)), fieldPrime)
		term := new(big.Int).Mul(pi.Y, num)
		term.Mul(term, inv)
		sum.Add(sum, term)
		sum.Mod(sum, fieldPrime)
	}
	return sum, nil
}

func commitTo(secret *big.Int) string {
	return utils.HashHexParts([]byte("shamir-secret-commitment"), secret.Bytes())
}

func randomPolynomial(constant *big.Int, degree int) ([]*big.Int, error) {
	coeffs := make([]*big.Int, degree+1)
	coeffs[0] = new(big.Int).Set(constant)
	for i := 1; i <= degree; i++ {
		c, err := rand.Int(rand.Reader, fieldPrime)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	return coeffs, nil
}

// evalPolynomial uses Horner's rule modulo the field prime.
func evalPolynomial(coeffs []*big.Int, x *big.Int) *big.Int {
	result := big.NewInt(0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, coeffs[i])
		result.Mod(result, fieldPrime)
	}
	return result
}

func dedupeByX(shares []*Share) []*Share {
	seen := make(map[int64]bool, len(shares))
	out := make([]*Share, 0, len(shares))
	for _, sh := range shares {
		if seen[sh.X] {
			continue
		}
		seen[sh.X] = true
		out = append(out, sh)
	}
	return out
}
