package sigma_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/adkg/pkg/crypto/sigma"
	"github.com/luxfi/adkg/pkg/math/curve"
)

func TestSchnorrProofValid(t *testing.T) {
	g := curve.Secp256k1.Generator()
	alpha := curve.HashScalar([]byte("schnorr-secret"))
	y := alpha.ActOnBase()

	proof := sigma.ProveSchnorr(g, alpha, y)
	assert.True(t, sigma.VerifySchnorr(g, y, proof))
}

func TestSchnorrProofRejectsWrongStatement(t *testing.T) {
	g := curve.Secp256k1.Generator()
	alpha := curve.HashScalar([]byte("schnorr-secret"))
	y := alpha.ActOnBase()
	proof := sigma.ProveSchnorr(g, alpha, y)

	wrongY := curve.HashScalar([]byte("other")).ActOnBase()
	assert.False(t, sigma.VerifySchnorr(g, wrongY, proof))
}

func TestSchnorrProofRejectsTamperedResponse(t *testing.T) {
	g := curve.Secp256k1.Generator()
	alpha := curve.HashScalar([]byte("schnorr-secret"))
	y := alpha.ActOnBase()
	proof := sigma.ProveSchnorr(g, alpha, y)

	proof.Response = proof.Response.Add(curve.Secp256k1.NewScalarUInt64(1))
	assert.False(t, sigma.VerifySchnorr(g, y, proof))
}

func TestDLEQProofValid(t *testing.T) {
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	alpha := curve.HashScalar([]byte("dleq-secret"))
	x := alpha.ActOnBase()
	y := alpha.Act(h)

	proof := sigma.ProveDLEQ(g, h, alpha, x, y)
	assert.True(t, sigma.VerifyDLEQ(g, h, x, y, proof))
}

func TestDLEQProofRejectsUnequalExponents(t *testing.T) {
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	alpha := curve.HashScalar([]byte("dleq-secret"))
	beta := curve.HashScalar([]byte("different-secret"))
	x := alpha.ActOnBase()
	y := beta.Act(h) // not the same exponent as x

	// A proof honestly generated for (alpha, x, y) must fail verification
	// since x and y do not actually share a discrete log.
	proof := sigma.ProveDLEQ(g, h, alpha, x, y)
	assert.False(t, sigma.VerifyDLEQ(g, h, x, y, proof))
}
