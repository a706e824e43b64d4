package keyderiv

import (
	"fmt"

	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/party"
)

// BuildCombineMatrix deterministically derives the process-wide public
// combine matrix M (spec.md §4.2: "a process-wide (sc-1) x n x n array of
// field elements, e.g. a super-invertible or hyper-invertible matrix").
//
// Every party computes the same matrix from (n, t, sc) alone, so it never
// needs to be exchanged. For each of the sc-1 slots, every column j (one
// per dealer) is assigned a distinct scalar beta_j, itself derived by
// hashing the slot and column index, and
//
//	M[sec][i][j] = sum_{k=0}^{2t} (beta_j * x_i)^k
//
// where x_i = party i's evaluation point (i+1). Viewed as a polynomial in
// x_i with j's beta_j fixed, this has degree <= 2t and evaluates to 1 at
// x_i = 0 regardless of beta_j. That is exactly what keyderiv.Run needs:
// for any column weights v_0..v_{n-1} (only the master-key-set columns
// nonzero), i -> sum_j M[sec][i][j]*v_j is itself a degree-<=2t
// polynomial in the party index whose value at 0 is sum_j v_j, so the
// deg+1 PREKEY/KEY shares reconstruct to the same secret and the
// pk*rk == com0 sanity check holds. See DESIGN.md for why this
// construction was chosen over a plain Vandermonde matrix.
func BuildCombineMatrix(n, t, sc int) [][][]curve.Scalar {
	deg := 2 * t
	rows := sc - 1
	m := make([][][]curve.Scalar, rows)
	for sec := 0; sec < rows; sec++ {
		betas := make([]curve.Scalar, n)
		for j := 0; j < n; j++ {
			betas[j] = curve.HashScalar([]byte(fmt.Sprintf("luxfi/adkg combine-matrix/%d/%d", sec, j)))
		}
		slot := make([][]curve.Scalar, n)
		for i := 0; i < n; i++ {
			x := party.ID(i).Scalar(curve.Secp256k1)
			row := make([]curve.Scalar, n)
			for j := 0; j < n; j++ {
				row[j] = boundedKernel(betas[j].Mul(x), deg)
			}
			slot[i] = row
		}
		m[sec] = slot
	}
	return m
}

// boundedKernel computes sum_{k=0}^{deg} w^k, i.e. the degree-deg
// truncation of 1/(1-w). Its value at w=0 is always 1.
func boundedKernel(w curve.Scalar, deg int) curve.Scalar {
	acc := curve.Secp256k1.NewScalarUInt64(1)
	term := curve.Secp256k1.NewScalarUInt64(1)
	for k := 1; k <= deg; k++ {
		term = term.Mul(w)
		acc = acc.Add(term)
	}
	return acc
}

func dotProduct(weights, values []curve.Scalar) curve.Scalar {
	acc := curve.Secp256k1.NewScalar()
	for i := range weights {
		acc = acc.Add(weights[i].Mul(values[i]))
	}
	return acc
}
