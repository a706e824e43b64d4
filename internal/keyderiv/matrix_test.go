package keyderiv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/internal/keyderiv"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/math/sample"
	"github.com/luxfi/adkg/pkg/party"
)

func TestBuildCombineMatrixShapeAndDeterminism(t *testing.T) {
	n, tt, sc := 5, 1, 3
	m1 := keyderiv.BuildCombineMatrix(n, tt, sc)
	m2 := keyderiv.BuildCombineMatrix(n, tt, sc)

	require.Len(t, m1, sc-1)
	for sec := 0; sec < sc-1; sec++ {
		require.Len(t, m1[sec], n)
		for i := 0; i < n; i++ {
			require.Len(t, m1[sec][i], n)
			for j := 0; j < n; j++ {
				assert.True(t, m1[sec][i][j].Equal(m2[sec][i][j]), "sec=%d i=%d j=%d", sec, i, j)
			}
		}
	}
}

func TestBuildCombineMatrixColumnsAreNonDegenerate(t *testing.T) {
	n, tt, sc := 4, 1, 2
	m := keyderiv.BuildCombineMatrix(n, tt, sc)
	for j := 0; j < n; j++ {
		var nonzero bool
		for i := 0; i < n; i++ {
			if !m[0][i][j].Equal(curve.Secp256k1.NewScalar()) {
				nonzero = true
			}
		}
		assert.True(t, nonzero, "column %d is identically zero", j)
	}
}

// TestBuildCombineMatrixReconstructsDegree2tSecret builds one degree-t
// Pedersen-committed value per dealer (simulating out.Shares.Msg[sec+1]
// and out.Shares.Rand[sec] once each party's own share has already been
// recovered via PREKEY interpolation), runs the combine matrix over them,
// and checks the two properties keyderiv.Run depends on:
//
//  1. The combined per-party values {(x_i, z_i)} lie on a single
//     degree-2t polynomial: interpolating from deg+1 of them reproduces
//     every other party's value exactly.
//  2. The polynomial's value at 0 matches the unweighted sum of the
//     dealt commitments, i.e. g^Q(0)*h^Q'(0) == com0, which is exactly
//     keyderiv.Run's final sanity check.
func TestBuildCombineMatrixReconstructsDegree2tSecret(t *testing.T) {
	n, tt, sc := 7, 2, 2 // rows = sc-1 = 1, deg = 2t = 4, n-t = 5 = deg+1
	deg := 2 * tt
	matrix := keyderiv.BuildCombineMatrix(n, tt, sc)
	require.Len(t, matrix, 1)

	h := curve.Secp256k1.SecondGenerator()

	values := make([]curve.Scalar, n)
	randomness := make([]curve.Scalar, n)
	commits := make([]curve.Point, n)
	for j := 0; j < n; j++ {
		values[j] = sample.Scalar(nil)
		randomness[j] = sample.Scalar(nil)
		commits[j] = values[j].ActOnBase().Add(randomness[j].Act(h))
	}

	dot := func(weights, vals []curve.Scalar) curve.Scalar {
		acc := curve.Secp256k1.NewScalar()
		for i := range weights {
			acc = acc.Add(weights[i].Mul(vals[i]))
		}
		return acc
	}

	z := make([]curve.Scalar, n)
	r := make([]curve.Scalar, n)
	for i := 0; i < n; i++ {
		z[i] = dot(matrix[0][i], values)
		r[i] = dot(matrix[0][i], randomness)
	}

	// Property 1: points 0..deg determine a degree-deg polynomial that
	// must reproduce every later party's value exactly.
	zPoints := make([]polynomial.Point, deg+1)
	rPoints := make([]polynomial.Point, deg+1)
	for i := 0; i <= deg; i++ {
		x := party.ID(i).Scalar(curve.Secp256k1)
		zPoints[i] = polynomial.Point{X: x, Y: z[i]}
		rPoints[i] = polynomial.Point{X: x, Y: r[i]}
	}
	for i := deg + 1; i < n; i++ {
		x := party.ID(i).Scalar(curve.Secp256k1)
		got, err := polynomial.InterpolateAt(zPoints, x)
		require.NoError(t, err)
		assert.True(t, got.Equal(z[i]), "z_%d not on the degree-%d polynomial defined by the first %d shares", i, deg, deg+1)

		gotR, err := polynomial.InterpolateAt(rPoints, x)
		require.NoError(t, err)
		assert.True(t, gotR.Equal(r[i]), "r_%d not on the degree-%d polynomial defined by the first %d shares", i, deg, deg+1)
	}

	// Property 2: the polynomial's value at 0 matches the unweighted sum
	// of the dealt commitments, exactly the pk*rk == com0 check in
	// keyderiv.Run.
	zero := curve.Secp256k1.NewScalar()
	q0, err := polynomial.InterpolateAt(zPoints, zero)
	require.NoError(t, err)
	r0, err := polynomial.InterpolateAt(rPoints, zero)
	require.NoError(t, err)

	com0 := curve.Secp256k1.NewPoint()
	for j := 0; j < n; j++ {
		com0 = com0.Add(commits[j])
	}

	lhs := q0.ActOnBase().Add(r0.Act(h))
	assert.True(t, lhs.Equal(com0), "g^Q(0)*h^Q'(0) does not match the combined commitment")
}
