// Package sample provides randomness helpers shared across the dealer,
// recovery and key-derivation code paths, grounded on the teacher's
// pkg/math/sample usage in protocols/lss/keygen (sample.Scalar(rand.Reader, group)).
package sample

import (
	"io"

	"github.com/luxfi/adkg/pkg/math/curve"
)

// Scalar draws a uniform field element from rnd.
func Scalar(rnd io.Reader) curve.Scalar {
	s, err := curve.RandomScalar(rnd)
	if err != nil {
		// crypto/rand failing is unrecoverable; the teacher's sample
		// package panics in the same situation rather than threading an
		// error through every polynomial constructor.
		panic(err)
	}
	return s
}
