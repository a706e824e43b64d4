package sigma

import "github.com/luxfi/adkg/pkg/math/curve"

// DLEQProof proves x = g^alpha and y = h^alpha share the same alpha,
// without revealing it (Chaum-Pedersen).
type DLEQProof struct {
	Challenge curve.Scalar // e
	Response  curve.Scalar // z
}

// ProveDLEQ proves knowledge of alpha relating x = g^alpha, y = h^alpha.
func ProveDLEQ(g, h curve.Point, alpha curve.Scalar, x, y curve.Point) DLEQProof {
	w := randomNonzeroScalar()
	a1 := w.Act(g)
	a2 := w.Act(h)
	e := dleqChallenge(x, y, a1, a2)
	z := w.Sub(e.Mul(alpha))
	return DLEQProof{Challenge: e, Response: z}
}

// VerifyDLEQ checks a DLEQProof against x = g^alpha, y = h^alpha.
func VerifyDLEQ(g, h, x, y curve.Point, proof DLEQProof) bool {
	// a1' = x^e * g^z, a2' = y^e * h^z
	a1Prime := proof.Challenge.Act(x).Add(proof.Response.Act(g))
	a2Prime := proof.Challenge.Act(y).Add(proof.Response.Act(h))
	e := dleqChallenge(x, y, a1Prime, a2Prime)
	return e.Equal(proof.Challenge)
}

func dleqChallenge(x, y, a1, a2 curve.Point) curve.Scalar {
	xb, _ := x.MarshalBinary()
	yb, _ := y.MarshalBinary()
	a1b, _ := a1.MarshalBinary()
	a2b, _ := a2.MarshalBinary()
	return curve.HashScalar(xb, yb, a1b, a2b)
}
