package groupsig

import (
	"github.com/drand/kyber"
	"github.com/drand/kyber/group/edwards25519"

	"github.com/triadbank/ledger-core/pkgs/errs"
)

// LSAG is a linkable spontaneous anonymous group signature over
// edwards25519: the cryptographically strong substitute for the hash-based
// scheme. Two signatures by the same bank over any messages share a key
// image, and the regulator (holding the registered secrets) can attribute a
// signature by recomputing key images, which serves as designated opening.

// LSAGMember is one bank's keypair on the curve.
type LSAGMember struct {
	BankID string
	Secret kyber.Scalar
	Public kyber.Point
}

// LSAGGroup fixes the ring ordering and the group context.
type LSAGGroup struct {
	suite   *edwards25519.SuiteEd25519
	groupID string
	members []*LSAGMember
	index   map[string]int
}

// LSAGSignature is the (c0, s_0..s_{n-1}, key image) tuple.
type LSAGSignature struct {
	GroupID  string
	C0       kyber.Scalar
	S        []kyber.Scalar
	KeyImage kyber.Point
}

// NewLSAGGroup generates curve keypairs for the given banks. Ring order
// follows the given id order, which all parties must share.
func NewLSAGGroup(groupID string, bankIDs []string) (*LSAGGroup, error) {
	if len(bankIDs) < 2 {
		return nil, errs.Validation("banks", "a ring needs at least 2 banks, got %d", len(bankIDs))
	}
	suite := edwards25519.NewBlakeSHA256Ed25519()
	g := &LSAGGroup{
		suite:   suite,
		groupID: groupID,
		index:   make(map[string]int, len(bankIDs)),
	}
	for i, id := range bankIDs {
		if _, dup := g.index[id]; dup {
			return nil, errs.Validation("banks", "duplicate bank %s", id)
		}
		secret := suite.Scalar().Pick(suite.RandomStream())
		g.members = append(g.members, &LSAGMember{
			BankID: id,
			Secret: secret,
			Public: suite.Point().Mul(secret, nil),
		})
		g.index[id] = i
	}
	return g, nil
}

// Sign produces an LSAG signature over message by signerID.
func (g *LSAGGroup) Sign(message []byte, signerID string) (*LSAGSignature, error) {
	s, ok := g.index[signerID]
	if !ok {
		return nil, errs.Validation("signer", "%s is not a group member", signerID)
	}
	n := len(g.members)
	signer := g.members[s]

	hp := g.hashToPoint(signer.Public)
	keyImage := g.suite.Point().Mul(signer.Secret, hp)

	c := make([]kyber.Scalar, n)
	ss := make([]kyber.Scalar, n)

	// Close the ring starting at the signer with a fresh nonce.
	u := g.suite.Scalar().Pick(g.suite.RandomStream())
	l := g.suite.Point().Mul(u, nil)
	r := g.suite.Point().Mul(u, hp)
	c[(s+1)%n] = g.ringChallenge(message, l, r)

	for k := 1; k < n; k++ {
		i := (s + k) % n
		ss[i] = g.suite.Scalar().Pick(g.suite.RandomStream())
		c[(i+1)%n] = g.challengeFromStep(message, i, ss[i], c[i], keyImage)
	}
	// s_s = u - c_s * x
	ss[s] = g.suite.Scalar().Sub(u, g.suite.Scalar().Mul(c[s], signer.Secret))

	return &LSAGSignature{GroupID: g.groupID, C0: c[0], S: ss, KeyImage: keyImage}, nil
}

// Verify folds the ring and checks that the challenge chain closes.
func (g *LSAGGroup) Verify(sig *LSAGSignature, message []byte) bool {
	if sig == nil || sig.GroupID != g.groupID || len(sig.S) != len(g.members) {
		return false
	}
	n := len(g.members)
	ci := sig.C0
	for i := 0; i < n; i++ {
		ci = g.challengeFromStep(message, i, sig.S[i], ci, sig.KeyImage)
	}
	return ci.Equal(sig.C0)
}

// Open attributes a verified signature by recomputing every member's key
// image against its registered secret.
func (g *LSAGGroup) Open(sig *LSAGSignature, message []byte) (string, error) {
	if !g.Verify(sig, message) {
		return "", errs.Validation("signature", "signature does not verify for this group")
	}
	for _, m := range g.members {
		image := g.suite.Point().Mul(m.Secret, g.hashToPoint(m.Public))
		if image.Equal(sig.KeyImage) {
			return m.BankID, nil
		}
	}
	return "", errs.Reconstruction("key image matches no registered bank")
}

// Linked reports whether two signatures were produced by the same signer.
func Linked(a, b *LSAGSignature) bool {
	return a != nil && b != nil && a.KeyImage.Equal(b.KeyImage)
}

// ringStep computes L_i = g^{s_i} + P_i^{c_i}, R_i = Hp(P_i)^{s_i} + I^{c_i}.
func (g *LSAGGroup) ringStep(i int, si, ci kyber.Scalar, keyImage kyber.Point) (kyber.Point, kyber.Point) {
	pub := g.members[i].Public
	l := g.suite.Point().Add(
		g.suite.Point().Mul(si, nil),
		g.suite.Point().Mul(ci, pub),
	)
	r := g.suite.Point().Add(
		g.suite.Point().Mul(si, g.hashToPoint(pub)),
		g.suite.Point().Mul(ci, keyImage),
	)
	return l, r
}

func (g *LSAGGroup) challengeFromStep(message []byte, i int, si, ci kyber.Scalar, keyImage kyber.Point) kyber.Scalar {
	l, r := g.ringStep(i, si, ci, keyImage)
	return g.ringChallenge(message, l, r)
}

func (g *LSAGGroup) ringChallenge(message []byte, l, r kyber.Point) kyber.Scalar {
	lb, _ := l.MarshalBinary()
	rb, _ := r.MarshalBinary()
	seed := make([]byte, 0, len(g.groupID)+len(message)+len(lb)+len(rb))
	seed = append(seed, []byte(g.groupID)...)
	seed = append(seed, message...)
	seed = append(seed, lb...)
	seed = append(seed, rb...)
	return g.suite.Scalar().Pick(g.suite.XOF(seed))
}

func (g *LSAGGroup) hashToPoint(pub kyber.Point) kyber.Point {
	pb, _ := pub.MarshalBinary()
	seed := append([]byte("lsag-key-image-base"), pb...)
	return g.suite.Point().Pick(g.suite.XOF(seed))
}
