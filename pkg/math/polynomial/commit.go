package polynomial

import "github.com/luxfi/adkg/pkg/math/curve"

// FeldmanCommit commits to phi with an unblinded, unary Feldman
// commitment: one g^coefficient per coefficient (spec.md §4.5 step 1,
// commits[0]). Evaluation at x is checked with VerifyFeldman.
func FeldmanCommit(phi *Polynomial) []curve.Point {
	coeffs := phi.Coefficients()
	out := make([]curve.Point, len(coeffs))
	for i, c := range coeffs {
		out[i] = c.ActOnBase()
	}
	return out
}

// VerifyFeldman checks g^phi(x) == prod_i commits[i]^(x^i).
func VerifyFeldman(commits []curve.Point, x curve.Scalar, value curve.Scalar) bool {
	lhs := value.ActOnBase()
	rhs := evalCommitment(commits, x)
	return lhs.Equal(rhs)
}

// PedersenCommit commits to (phi, phiHat) as g^phi_i * h^phiHat_i per
// coefficient pair (spec.md §4.5 step 2, commits[k] for k>=1).
func PedersenCommit(phi, phiHat *Polynomial) []curve.Point {
	a := phi.Coefficients()
	b := phiHat.Coefficients()
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]curve.Point, n)
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	for i := 0; i < n; i++ {
		var ca, cb curve.Scalar
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		out[i] = ca.Act(g).Add(cb.Act(h))
	}
	return out
}

// VerifyPedersen checks g^phi(x) * h^phiHat(x) == prod_i commits[i]^(x^i).
func VerifyPedersen(commits []curve.Point, x curve.Scalar, value, randomness curve.Scalar) bool {
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	lhs := value.Act(g).Add(randomness.Act(h))
	rhs := evalCommitment(commits, x)
	return lhs.Equal(rhs)
}

// evalCommitment computes prod_i commits[i]^(x^i), the commitment-side
// analogue of Polynomial.Evaluate.
func evalCommitment(commits []curve.Point, x curve.Scalar) curve.Point {
	acc := curve.Secp256k1.NewPoint()
	xPow := curve.Secp256k1.NewScalarUInt64(1)
	for _, c := range commits {
		acc = acc.Add(xPow.Act(c))
		xPow = xPow.Mul(x)
	}
	return acc
}
