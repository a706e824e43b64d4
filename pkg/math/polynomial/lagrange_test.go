package polynomial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/party"
)

func TestInterpolateAtReconstructsConstant(t *testing.T) {
	secret := curve.HashScalar([]byte("lagrange-test-secret"))
	degree := 3
	phi := polynomial.New(degree, secret)

	ids := []party.ID{0, 1, 2, 3, 7}
	points := make([]polynomial.Point, len(ids))
	for i, id := range ids {
		x := id.Scalar(curve.Secp256k1)
		points[i] = polynomial.Point{X: x, Y: phi.Evaluate(x)}
	}

	got, err := polynomial.InterpolateAt(points[:degree+1], curve.Secp256k1.NewScalar())
	require.NoError(t, err)
	assert.True(t, secret.Equal(got))

	got, err = polynomial.InterpolateAt(points, curve.Secp256k1.NewScalar())
	require.NoError(t, err)
	assert.True(t, secret.Equal(got))
}

func TestInterpolatePointsAtMatchesExponentiatedInterpolation(t *testing.T) {
	secret := curve.HashScalar([]byte("lagrange-test-exponent"))
	degree := 2
	phi := polynomial.New(degree, secret)

	ids := []party.ID{1, 4, 5, 9}
	points := make([]struct {
		X curve.Scalar
		Y curve.Point
	}, len(ids))
	for i, id := range ids {
		x := id.Scalar(curve.Secp256k1)
		points[i] = struct {
			X curve.Scalar
			Y curve.Point
		}{X: x, Y: phi.Evaluate(x).ActOnBase()}
	}

	got, err := polynomial.InterpolatePointsAt(points, curve.Secp256k1.NewScalar())
	require.NoError(t, err)
	assert.True(t, secret.ActOnBase().Equal(got))
}

func TestInterpolateAtEmptyPoints(t *testing.T) {
	_, err := polynomial.InterpolateAt(nil, curve.Secp256k1.NewScalar())
	assert.ErrorIs(t, err, polynomial.ErrTooFewPoints)
}
