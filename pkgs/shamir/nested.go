package shamir

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/triadbank/ledger-core/pkgs/errs"
)

// Evaluation points of the two-layer court access structure. The company
// and the combined court authority form the outer 2-of-2 layer; the four
// regulatory authorities form an inner 1-of-4 layer over the court point.
const (
	CompanyX    int64 = 1
	CourtX      int64 = 2
	regulatorX0 int64 = 3
)

// NestedShare is a share in the two-layer structure. Inner shares carry the
// anchor point that ties them back to the outer polynomial.
type NestedShare struct {
	HolderID string   `json:"holder_id"`
	Inner    bool     `json:"inner"`
	X        int64    `json:"x"`
	Y        *big.Int `json:"y"`
	AnchorX  int64    `json:"anchor_x,omitempty"`
}

// NestedSplit holds the company's outer share and the regulators' inner
// shares. The combined court share itself is never materialized outside
// Split.
type NestedSplit struct {
	Commitment string                  `json:"commitment"`
	Company    *NestedShare            `json:"company"`
	Regulators map[string]*NestedShare `json:"regulators"`
}

// NestedScheme is the fixed two-layer access structure: an outer 2-of-2
// split between the company and a combined court authority, whose share is
// itself split 1-of-4 across the regulatory authorities.
type NestedScheme struct {
	companyID  string
	regulators []string
}

// NewNestedScheme builds the structure for a company and exactly four
// regulatory authorities.
func NewNestedScheme(companyID string, regulators []string) (*NestedScheme, error) {
	if companyID == "" {
		return nil, errs.Validation("company", "must not be empty")
	}
	if len(regulators) != 4 {
		return nil, errs.Validation("regulators", "expected 4 regulatory authorities, got %d", len(regulators))
	}
	seen := map[string]bool{companyID: true}
	for _, r := range regulators {
		if seen[r] {
			return nil, errs.Validation("regulators", "duplicate holder %s", r)
		}
		seen[r] = true
	}
	ids := make([]string, len(regulators))
	copy(ids, regulators)
	return &NestedScheme{companyID: companyID, regulators: ids}, nil
}

// Split performs the outer 2-of-2 split, then re-splits the court's point
// 1-of-4 across the regulators. Each inner share stores the court anchor so
// reconstruction can place it back on the outer polynomial.
func (n *NestedScheme) Split(secret string) (*NestedSplit, error) {
	if secret == "" {
		return nil, errs.Validation("secret", "must not be empty")
	}
	encoded := EncodeSecret(secret)
	coeffs, err := randomPolynomial(encoded, 1)
	if err != nil {
		return nil, errors.Wrap(err, "could not sample outer polynomial")
	}
	companyY := evalPolynomial(coeffs, big.NewInt(CompanyX))
	courtY := evalPolynomial(coeffs, big.NewInt(CourtX))

	split := &NestedSplit{
		Commitment: commitTo(encoded),
		Company: &NestedShare{
			HolderID: n.companyID,
			X:        CompanyX,
			Y:        companyY,
		},
		Regulators: make(map[string]*NestedShare, len(n.regulators)),
	}
	// Inner layer is 1-of-4: a degree-0 polynomial whose constant term is
	// the court point, so any single regulator share recovers it.
	for i, id := range n.regulators {
		split.Regulators[id] = &NestedShare{
			HolderID: id,
			Inner:    true,
			X:        regulatorX0 + int64(i),
			Y:        new(big.Int).Set(courtY),
			AnchorX:  CourtX,
		}
	}
	return split, nil
}

// Reconstruct requires the company share explicitly plus exactly one
// regulatory share anchored to the outer court point. The company check is
// an access-structure rule, not a threshold count.
func (n *NestedScheme) Reconstruct(company, regulator *NestedShare, commitment string) (*big.Int, error) {
	if company == nil || company.HolderID != n.companyID || company.Inner {
		return nil, errs.AccessDenied("company share is required for court-ordered reconstruction")
	}
	if regulator == nil || !regulator.Inner {
		return nil, errs.AccessDenied("a regulatory authority share is required")
	}
	if !n.isRegulator(regulator.HolderID) {
		return nil, errs.AccessDenied("holder %s is not a regulatory authority", regulator.HolderID)
	}
	if regulator.AnchorX != CourtX {
		return nil, errs.AccessDenied("regulatory share is not anchored to the court layer")
	}
	// The inner layer is 1-of-4, so the regulator's value is the court's
	// outer point. Interpolate the outer 2-of-2 line through both points.
	points := []*Share{
		{HolderID: company.HolderID, X: company.X, Y: company.Y},
		{HolderID: regulator.HolderID, X: regulator.AnchorX, Y: regulator.Y},
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

func (n *NestedScheme) isRegulator(id string) bool {
	for _, r := range n.regulators {
		if r == id {
			return true
		}
	}
	return false
}
