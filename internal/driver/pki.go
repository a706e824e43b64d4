package driver

import (
	"strconv"

	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/party"
)

// bootstrapKeys derives a deterministic keypair per party, matching
// get_avss_params in original_source/apps/tutorial/adkg-tutorial.py: since
// this driver runs every party in a single process for the in-memory
// tutorial bus, there is no real secrecy to protect, so sk_i = F::hash(i)
// plays the role a production deployment would fill with a real PKI.
func bootstrapKeys(n int) (publicKeys map[party.ID]curve.Point, privateKeys map[party.ID]curve.Scalar) {
	publicKeys = make(map[party.ID]curve.Point, n)
	privateKeys = make(map[party.ID]curve.Scalar, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		sk := curve.HashScalar([]byte(strconv.Itoa(i)))
		privateKeys[id] = sk
		publicKeys[id] = sk.ActOnBase()
	}
	return publicKeys, privateKeys
}

// computeSC derives sc, the number of secret slots dealt per ACSS instance
// (spec.md §4.2): ceil((deg+1)/(t+1)) + 1, deg = 2t.
func computeSC(t int) int {
	deg := 2 * t
	num, den := deg+1, t+1
	return (num+den-1)/den + 1
}
