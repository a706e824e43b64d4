package curve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/pkg/math/curve"
)

func TestScalarArithmetic(t *testing.T) {
	a := curve.HashScalar([]byte("a"))
	b := curve.HashScalar([]byte("b"))

	assert.True(t, a.Add(b).Sub(b).Equal(a))
	assert.True(t, a.Mul(b).Equal(b.Mul(a)))
	assert.True(t, a.Mul(a.Invert()).Equal(curve.Secp256k1.NewScalarUInt64(1)))
	assert.True(t, curve.Secp256k1.NewScalar().IsZero())
	assert.False(t, a.IsZero())
}

func TestScalarMarshalRoundTrip(t *testing.T) {
	s := curve.HashScalar([]byte("round-trip"))
	data, err := s.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, curve.Secp256k1.ScalarBytes())

	var got curve.Scalar
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, s.Equal(got))
}

func TestPointMarshalRoundTrip(t *testing.T) {
	s := curve.HashScalar([]byte("point"))
	p := s.ActOnBase()
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, curve.Secp256k1.PointBytes())

	var got curve.Point
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, p.Equal(got))
}

func TestIdentityPointRoundTrip(t *testing.T) {
	id := curve.Secp256k1.NewPoint()
	assert.True(t, id.IsIdentity())

	data, err := id.MarshalBinary()
	require.NoError(t, err)

	var got curve.Point
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, got.IsIdentity())
}

func TestGeneratorsAreDistinct(t *testing.T) {
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	assert.False(t, g.Equal(h))
	assert.False(t, g.IsIdentity())
	assert.False(t, h.IsIdentity())
}

func TestHashScalarIsDeterministic(t *testing.T) {
	a := curve.HashScalar([]byte("same"), []byte("input"))
	b := curve.HashScalar([]byte("same"), []byte("input"))
	c := curve.HashScalar([]byte("different"))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestActDistributesOverAdd(t *testing.T) {
	a := curve.HashScalar([]byte("a"))
	b := curve.HashScalar([]byte("b"))
	g := curve.Secp256k1.Generator()

	lhs := a.Add(b).Act(g)
	rhs := a.Act(g).Add(b.Act(g))
	assert.True(t, lhs.Equal(rhs))
}

func TestMultiExp(t *testing.T) {
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	a := curve.HashScalar([]byte("a"))
	b := curve.HashScalar([]byte("b"))

	got := curve.MultiExp([]curve.Point{g, h}, []curve.Scalar{a, b})
	want := a.Act(g).Add(b.Act(h))
	assert.True(t, got.Equal(want))
}

func TestNewScalarUInt64MatchesRepeatedAddition(t *testing.T) {
	one := curve.Secp256k1.NewScalarUInt64(1)
	acc := curve.Secp256k1.NewScalar()
	for i := 0; i < 5; i++ {
		acc = acc.Add(one)
	}
	assert.True(t, acc.Equal(curve.Secp256k1.NewScalarUInt64(5)))
}
