// Package curve provides the scalar field F and group G abstractions that
// the rest of the module is built against, backed by the secp256k1 curve.
//
// This mirrors the teacher's pkg/math/curve split between an opaque
// curve.Scalar/curve.Point pair and a curve.Curve that knows how to build
// and hash into them, except here G carries two independent, nothing-up-
// my-sleeve generators g and h instead of a single signing generator.
package curve

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"
)

// ErrMalformedEncoding is returned when a fixed-width wire value doesn't
// decode to a valid scalar or point.
var ErrMalformedEncoding = errors.New("curve: malformed encoding")

// Scalar is an element of F, the secp256k1 scalar field.
type Scalar struct {
	v secp256k1.ModNScalar
}

// Point is an element of G, the secp256k1 group, held in Jacobian form.
type Point struct {
	v secp256k1.JacobianPoint
}

// Curve is the process-wide secp256k1 instance; it is stateless and safe
// for concurrent use.
type Curve struct{}

// Secp256k1 is the single Curve instance used throughout the module.
var Secp256k1 = Curve{}

// ScalarBytes is f_size from spec.md §4.2.
func (Curve) ScalarBytes() int { return 32 }

// PointBytes is g_size from spec.md §4.2 (compressed SEC1 encoding).
func (Curve) PointBytes() int { return 33 }

// NewScalar returns the additive identity of F.
func (Curve) NewScalar() Scalar { return Scalar{} }

// NewScalarUInt64 builds the scalar with the given small integer value,
// used for party evaluation points x = id+1.
func (Curve) NewScalarUInt64(v uint64) Scalar {
	var s Scalar
	var lo, hi secp256k1.ModNScalar
	lo.SetInt(uint32(v))
	if v>>32 != 0 {
		hi.SetInt(uint32(v >> 32))
		var thirtyTwo secp256k1.ModNScalar
		thirtyTwo.SetInt(1)
		for i := 0; i < 32; i++ {
			thirtyTwo.Add(&thirtyTwo)
		}
		hi.Mul(&thirtyTwo)
		lo.Add(&hi)
	}
	s.v = lo
	return s
}

// NewPoint returns the identity element of G.
func (Curve) NewPoint() Point {
	var p Point
	p.v.X.SetInt(0)
	p.v.Y.SetInt(0)
	p.v.Z.SetInt(0)
	return p
}

// RandomScalar samples a uniform element of F.
func RandomScalar(rnd io.Reader) (Scalar, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	var buf [48]byte // SetByteSlice reduces only the first 32 bytes mod N
	if _, err := io.ReadFull(rnd, buf[:]); err != nil {
		return Scalar{}, err
	}
	var s Scalar
	s.v.SetByteSlice(buf[:])
	return s, nil
}

// hashToScalar implements F::hash(bytes): blake3 the inputs, reduce mod N.
func hashToScalar(parts ...[]byte) Scalar {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	digest := h.Sum(nil)
	var s Scalar
	s.v.SetByteSlice(digest)
	return s
}

// HashScalar is the exported F::hash(bytes) operation.
func HashScalar(parts ...[]byte) Scalar { return hashToScalar(parts...) }

// hashToPoint implements G::hash(label) via try-and-increment: hash the
// label with a counter suffix until the digest decompresses to a valid
// curve point. This gives a generator nobody knows the discrete log of,
// which is exactly the (g, h) setup §6 and the GLOSSARY assume.
func hashToPoint(label string) Point {
	for counter := uint32(0); ; counter++ {
		h := blake3.New()
		_, _ = h.Write([]byte("luxfi/adkg generator/"))
		_, _ = h.Write([]byte(label))
		var ctr [4]byte
		ctr[0] = byte(counter)
		ctr[1] = byte(counter >> 8)
		ctr[2] = byte(counter >> 16)
		ctr[3] = byte(counter >> 24)
		_, _ = h.Write(ctr[:])
		digest := h.Sum(nil)

		var fx secp256k1.FieldVal
		if overflow := fx.SetByteSlice(digest[:32]); overflow {
			continue
		}
		var fy secp256k1.FieldVal
		if !secp256k1.DecompressY(&fx, digest[0]&1 == 1, &fy) {
			continue
		}
		fy.Normalize()
		pub := secp256k1.NewPublicKey(&fx, &fy)
		var p Point
		pub.AsJacobian(&p.v)
		return p
	}
}

var (
	generatorG = hashToPoint("g")
	generatorH = hashToPoint("h")
)

// Generator returns g, derived by hashToPoint from the label "g".
func (Curve) Generator() Point { return generatorG }

// SecondGenerator returns h, independent of g with no known relation.
func (Curve) SecondGenerator() Point { return generatorH }

// --- Scalar arithmetic ---

func (s Scalar) Add(o Scalar) Scalar {
	var r Scalar
	r.v.Set(&s.v)
	r.v.Add(&o.v)
	return r
}

func (s Scalar) Sub(o Scalar) Scalar {
	var neg secp256k1.ModNScalar
	neg.Set(&o.v)
	neg.Negate()
	var r Scalar
	r.v.Set(&s.v)
	r.v.Add(&neg)
	return r
}

func (s Scalar) Mul(o Scalar) Scalar {
	var r Scalar
	r.v.Set(&s.v)
	r.v.Mul(&o.v)
	return r
}

func (s Scalar) Negate() Scalar {
	var r Scalar
	r.v.Set(&s.v)
	r.v.Negate()
	return r
}

// Invert returns s^-1; undefined (returns the zero scalar) if s is zero.
func (s Scalar) Invert() Scalar {
	if s.v.IsZero() {
		return Scalar{}
	}
	var r Scalar
	r.v = *new(secp256k1.ModNScalar).Set(&s.v).InverseValNonConst()
	return r
}

func (s Scalar) IsZero() bool { return s.v.IsZero() }

func (s Scalar) Equal(o Scalar) bool { return s.v.Equals(&o.v) }

func (s Scalar) MarshalBinary() ([]byte, error) {
	b := s.v.Bytes()
	return b[:], nil
}

func (s *Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return ErrMalformedEncoding
	}
	var arr [32]byte
	copy(arr[:], data)
	s.v.SetBytes(&arr)
	return nil
}

// ActOnBase returns g^s.
func (s Scalar) ActOnBase() Point {
	return s.Act(generatorG)
}

// ActOnGenerator returns b^s for an arbitrary generator b (used for h^s).
func (s Scalar) ActOnGenerator(b Point) Point { return s.Act(b) }

// Act returns p^s.
func (s Scalar) Act(p Point) Point {
	var r Point
	secp256k1.ScalarMultNonConst(&s.v, &p.v, &r.v)
	return r
}

// --- Point arithmetic ---

func (p Point) Add(o Point) Point {
	var r Point
	secp256k1.AddNonConst(&p.v, &o.v, &r.v)
	return r
}

func (p Point) Negate() Point {
	aff := p.v
	aff.ToAffine()
	aff.Y.Negate(1)
	aff.Y.Normalize()
	return Point{v: aff}
}

func (p Point) Equal(o Point) bool {
	a, b := p.v, o.v
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

func (p Point) IsIdentity() bool {
	aff := p.v
	aff.ToAffine()
	return aff.X.IsZero() && aff.Y.IsZero()
}

func (p Point) MarshalBinary() ([]byte, error) {
	aff := p.v
	aff.ToAffine()
	if aff.X.IsZero() && aff.Y.IsZero() {
		return make([]byte, 33), nil
	}
	pub := secp256k1.NewPublicKey(&aff.X, &aff.Y)
	return pub.SerializeCompressed(), nil
}

func (p *Point) UnmarshalBinary(data []byte) error {
	if len(data) != 33 {
		return ErrMalformedEncoding
	}
	zero := true
	for _, b := range data {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		p.v.X.SetInt(0)
		p.v.Y.SetInt(0)
		p.v.Z.SetInt(0)
		return nil
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return ErrMalformedEncoding
	}
	pub.AsJacobian(&p.v)
	return nil
}

// MultiExp computes the inner product sum_i bases[i]^exps[i], used by the
// Feldman/Pedersen verifiers and the combine-matrix multiplications in
// key derivation (§4.7).
func MultiExp(bases []Point, exps []Scalar) Point {
	acc := Secp256k1.NewPoint()
	for i := range bases {
		acc = acc.Add(exps[i].Act(bases[i]))
	}
	return acc
}
