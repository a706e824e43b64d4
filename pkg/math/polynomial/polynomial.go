// Package polynomial implements dense polynomials over F and the
// Lagrange interpolation used to reconstruct secrets and recovered
// shares, grounded on the teacher's polynomial.NewPolynomial/Evaluate
// API (protocols/lss/keygen/round1.go) and pkg/math/polynomial/lagrange_test.go.
package polynomial

import (
	"errors"

	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/sample"
	"github.com/luxfi/adkg/pkg/party"
)

// ErrTooFewPoints is returned by InterpolateAt and InterpolatePointsAt when
// no points are supplied.
var ErrTooFewPoints = errors.New("polynomial: too few points to interpolate")

// Polynomial is a dense degree-d polynomial over F, coefficients ordered
// from the constant term up.
type Polynomial struct {
	coefficients []curve.Scalar
}

// New builds a random degree-d polynomial with the given constant term.
func New(degree int, constant curve.Scalar) *Polynomial {
	coeffs := make([]curve.Scalar, degree+1)
	coeffs[0] = constant
	for i := 1; i <= degree; i++ {
		coeffs[i] = sample.Scalar(nil)
	}
	return &Polynomial{coefficients: coeffs}
}

// Degree returns the polynomial's degree.
func (p *Polynomial) Degree() int { return len(p.coefficients) - 1 }

// Coefficients exposes the raw coefficient vector (constant term first).
func (p *Polynomial) Coefficients() []curve.Scalar { return p.coefficients }

// Constant returns phi(0).
func (p *Polynomial) Constant() curve.Scalar { return p.coefficients[0] }

// Evaluate computes phi(x) by Horner's method.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	acc := curve.Secp256k1.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(p.coefficients[i])
	}
	return acc
}

// EvaluateForParty evaluates at x = id+1, the convention used for share
// points throughout the spec.
func (p *Polynomial) EvaluateForParty(id party.ID) curve.Scalar {
	return p.Evaluate(id.Scalar(curve.Secp256k1))
}

// Point is an (x, y) pair used as interpolation input.
type Point struct {
	X curve.Scalar
	Y curve.Scalar
}

// InterpolateAt evaluates the Lagrange interpolant through points at x,
// matching adkg.py's poly.interpolate_at(points, x).
func InterpolateAt(points []Point, x curve.Scalar) (curve.Scalar, error) {
	if len(points) == 0 {
		return curve.Scalar{}, ErrTooFewPoints
	}
	result := curve.Secp256k1.NewScalar()
	for i, pi := range points {
		num := curve.Secp256k1.NewScalarUInt64(1)
		den := curve.Secp256k1.NewScalarUInt64(1)
		for j, pj := range points {
			if i == j {
				continue
			}
			num = num.Mul(x.Sub(pj.X))
			den = den.Mul(pi.X.Sub(pj.X))
		}
		lambda := num.Mul(den.Invert())
		result = result.Add(pi.Y.Mul(lambda))
	}
	return result, nil
}

// InterpolatePointsAt is InterpolateAt for points living in G rather than
// F, i.e. Lagrange-in-the-exponent (used to reconstruct pk from per-party
// PoK-verified shares in §4.7 step 7).
func InterpolatePointsAt(points []struct {
	X curve.Scalar
	Y curve.Point
}, x curve.Scalar) (curve.Point, error) {
	if len(points) == 0 {
		return curve.Point{}, ErrTooFewPoints
	}
	acc := curve.Secp256k1.NewPoint()
	for i, pi := range points {
		num := curve.Secp256k1.NewScalarUInt64(1)
		den := curve.Secp256k1.NewScalarUInt64(1)
		for j, pj := range points {
			if i == j {
				continue
			}
			num = num.Mul(x.Sub(pj.X))
			den = den.Mul(pi.X.Sub(pj.X))
		}
		lambda := num.Mul(den.Invert())
		acc = acc.Add(lambda.Act(pi.Y))
	}
	return acc, nil
}
