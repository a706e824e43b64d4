// Package sigma implements the Schnorr proof-of-knowledge and
// Chaum-Pedersen DLEQ sigma protocols (spec.md §4.3). Key derivation uses
// the Schnorr proofs; the DLEQ proof has no caller in this module. It
// mirrors the PoK/CP classes in
// original_source/adkg/adkg.py and the nonce-commitment style of
// protocols/frost/sign/round1.go.
package sigma

import (
	"crypto/rand"

	"github.com/luxfi/adkg/pkg/math/curve"
)

// SchnorrProof is a proof of knowledge of alpha such that y = b^alpha for
// some generator b.
type SchnorrProof struct {
	Challenge curve.Scalar // e
	Response  curve.Scalar // z
}

// ProveSchnorr proves knowledge of alpha for y = b^alpha.
func ProveSchnorr(base curve.Point, alpha curve.Scalar, y curve.Point) SchnorrProof {
	w := randomNonzeroScalar()
	a := w.Act(base)
	e := schnorrChallenge(y, a)
	z := w.Sub(e.Mul(alpha))
	return SchnorrProof{Challenge: e, Response: z}
}

// VerifySchnorr checks a SchnorrProof against y = b^alpha.
func VerifySchnorr(base curve.Point, y curve.Point, proof SchnorrProof) bool {
	// a' = y^e * b^z
	aPrime := proof.Challenge.Act(y).Add(proof.Response.Act(base))
	e := schnorrChallenge(y, aPrime)
	return e.Equal(proof.Challenge)
}

func schnorrChallenge(y, a curve.Point) curve.Scalar {
	yb, _ := y.MarshalBinary()
	ab, _ := a.MarshalBinary()
	return curve.HashScalar(yb, ab)
}

func randomNonzeroScalar() curve.Scalar {
	for {
		s, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			panic(err)
		}
		if !s.IsZero() {
			return s
		}
	}
}
