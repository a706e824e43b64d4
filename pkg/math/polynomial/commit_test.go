package polynomial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/party"
)

func TestFeldmanCommitVerifies(t *testing.T) {
	secret := curve.HashScalar([]byte("feldman-secret"))
	phi := polynomial.New(2, secret)
	commits := polynomial.FeldmanCommit(phi)

	id := party.ID(3)
	x := id.Scalar(curve.Secp256k1)
	value := phi.EvaluateForParty(id)
	assert.True(t, polynomial.VerifyFeldman(commits, x, value))
}

func TestFeldmanCommitRejectsWrongValue(t *testing.T) {
	secret := curve.HashScalar([]byte("feldman-secret"))
	phi := polynomial.New(2, secret)
	commits := polynomial.FeldmanCommit(phi)

	id := party.ID(3)
	x := id.Scalar(curve.Secp256k1)
	wrong := phi.EvaluateForParty(id).Add(curve.Secp256k1.NewScalarUInt64(1))
	assert.False(t, polynomial.VerifyFeldman(commits, x, wrong))
}

func TestPedersenCommitVerifies(t *testing.T) {
	secret := curve.HashScalar([]byte("pedersen-secret"))
	blinding := curve.HashScalar([]byte("pedersen-blinding"))
	phi := polynomial.New(2, secret)
	phiHat := polynomial.New(2, blinding)
	commits := polynomial.PedersenCommit(phi, phiHat)

	id := party.ID(5)
	x := id.Scalar(curve.Secp256k1)
	assert.True(t, polynomial.VerifyPedersen(commits, x, phi.EvaluateForParty(id), phiHat.EvaluateForParty(id)))
}

func TestPedersenCommitRejectsMismatchedRandomness(t *testing.T) {
	secret := curve.HashScalar([]byte("pedersen-secret"))
	blinding := curve.HashScalar([]byte("pedersen-blinding"))
	phi := polynomial.New(2, secret)
	phiHat := polynomial.New(2, blinding)
	commits := polynomial.PedersenCommit(phi, phiHat)

	id := party.ID(5)
	x := id.Scalar(curve.Secp256k1)
	wrongRandomness := phiHat.EvaluateForParty(id).Add(curve.Secp256k1.NewScalarUInt64(1))
	assert.False(t, polynomial.VerifyPedersen(commits, x, phi.EvaluateForParty(id), wrongRandomness))
}
