// Package keyderiv implements key derivation (spec.md §4.7, C7): combining
// the masking shares dealt by every member of the master key set through
// the public combine matrix, the PREKEY/KEY message exchange, and
// reconstruction of the group public key by Lagrange interpolation in the
// exponent. It is grounded on ADKG.derive_key in
// original_source/adkg/adkg.py.
package keyderiv

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/adkg/internal/acss"
	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/crypto/sigma"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/party"
)

// ErrKeyMismatch is returned if the reconstructed public key fails the
// final sanity check against the combined commitments (spec.md §4.7 step
// 7's assertion).
var ErrKeyMismatch = errors.New("keyderiv: reconstructed pk*rk does not match combined commitment")

type prekeyMsg struct {
	Z []byte
	R []byte
}

type keyMsg struct {
	MX, MY      []byte
	GChal, GRes []byte
	HChal, HRes []byte
}

// Config parameterizes one party's key-derivation run.
type Config struct {
	N, T, SC int
	Self     party.ID
	MKS      []party.ID
	Outputs  map[party.ID]acss.Output
	Matrix   [][][]curve.Scalar // [sc-1][n][n], see BuildCombineMatrix

	Net transport.Network

	PrekeyTag     transport.Tag
	PrekeyInbound <-chan transport.Envelope

	KeyTag     transport.Tag
	KeyInbound <-chan transport.Envelope
}

// Output is the final product of one ADKG run, as seen by a single party.
type Output struct {
	MKS         []party.ID
	SecretShare curve.Scalar // this party's scalar share of the group secret
	PublicKey   curve.Point  // pk = g^sk, reconstructed
}

// Run executes key derivation to completion.
func Run(ctx context.Context, cfg Config) (Output, error) {
	g := curve.Secp256k1.Generator()
	h := curve.Secp256k1.SecondGenerator()
	rows := cfg.SC - 1
	n := cfg.N

	inMKS := make(map[party.ID]bool, len(cfg.MKS))
	for _, id := range cfg.MKS {
		inMKS[id] = true
	}

	secrets := make([][]curve.Scalar, rows)
	randomness := make([][]curve.Scalar, rows)
	commits := make([][]curve.Point, rows)
	for sec := 0; sec < rows; sec++ {
		secrets[sec] = make([]curve.Scalar, n)
		randomness[sec] = make([]curve.Scalar, n)
		commits[sec] = make([]curve.Point, n)
		for node := 0; node < n; node++ {
			secrets[sec][node] = curve.Secp256k1.NewScalar()
			randomness[sec][node] = curve.Secp256k1.NewScalar()
			commits[sec][node] = curve.Secp256k1.NewPoint()
		}
	}
	for _, node := range cfg.MKS {
		out, ok := cfg.Outputs[node]
		if !ok {
			return Output{}, fmt.Errorf("keyderiv: missing acss output for mks member %d", node)
		}
		for sec := 0; sec < rows; sec++ {
			secrets[sec][node] = out.Shares.Msg[sec+1]
			randomness[sec][node] = out.Shares.Rand[sec]
			commits[sec][node] = out.Commits[sec+1][0]
		}
	}

	zShares := make([]curve.Scalar, n)
	rShares := make([]curve.Scalar, n)
	for i := 0; i < n; i++ {
		z := curve.Secp256k1.NewScalar()
		r := curve.Secp256k1.NewScalar()
		for sec := 0; sec < rows; sec++ {
			z = z.Add(dotProduct(cfg.Matrix[sec][i], secrets[sec]))
			r = r.Add(dotProduct(cfg.Matrix[sec][i], randomness[sec]))
		}
		zShares[i], rShares[i] = z, r
	}

	for i := 0; i < n; i++ {
		zb, err := zShares[i].MarshalBinary()
		if err != nil {
			return Output{}, err
		}
		rb, err := rShares[i].MarshalBinary()
		if err != nil {
			return Output{}, err
		}
		payload, err := transport.Marshal(prekeyMsg{Z: zb, R: rb})
		if err != nil {
			return Output{}, err
		}
		if err := cfg.Net.Send(cfg.Self, party.ID(i), cfg.PrekeyTag, payload); err != nil {
			return Output{}, err
		}
	}

	combinedCommit := curve.Secp256k1.NewPoint()
	for sec := 0; sec < rows; sec++ {
		combinedCommit = combinedCommit.Add(curve.MultiExp(commits[sec], cfg.Matrix[sec][cfg.Self]))
	}

	var skShares, rkShares []polynomial.Point
	var secret, random curve.Scalar
	for {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case env := <-cfg.PrekeyInbound:
			var msg prekeyMsg
			if err := transport.Unmarshal(env.Payload, &msg); err != nil {
				continue
			}
			var z, r curve.Scalar
			if err := (&z).UnmarshalBinary(msg.Z); err != nil {
				continue
			}
			if err := (&r).UnmarshalBinary(msg.R); err != nil {
				continue
			}
			x := env.From.Scalar(curve.Secp256k1)
			skShares = append(skShares, polynomial.Point{X: x, Y: z})
			rkShares = append(rkShares, polynomial.Point{X: x, Y: r})
		}

		if len(skShares) < cfg.T+1 {
			continue
		}
		zero := curve.Secp256k1.NewScalar()
		s, err := polynomial.InterpolateAt(skShares, zero)
		if err != nil {
			continue
		}
		rr, err := polynomial.InterpolateAt(rkShares, zero)
		if err != nil {
			continue
		}
		// This interpolates over every point received so far rather than
		// a verified (t+1)-subset: a single bad contribution prevents the
		// check below from ever passing. A real fallback (enumerate
		// (t+1)-subsets, or batch-verify-and-exclude) is not implemented
		// here; see DESIGN.md.
		lhs := s.ActOnBase().Add(rr.Act(h))
		if lhs.Equal(combinedCommit) {
			secret, random = s, rr
			break
		}
	}

	mx := secret.ActOnBase()
	my := random.Act(h)
	gpok := sigma.ProveSchnorr(g, secret, mx)
	hpok := sigma.ProveSchnorr(h, random, my)

	mxb, err := mx.MarshalBinary()
	if err != nil {
		return Output{}, err
	}
	myb, err := my.MarshalBinary()
	if err != nil {
		return Output{}, err
	}
	gchalb, _ := gpok.Challenge.MarshalBinary()
	gresb, _ := gpok.Response.MarshalBinary()
	hchalb, _ := hpok.Challenge.MarshalBinary()
	hresb, _ := hpok.Response.MarshalBinary()

	keyPayload, err := transport.Marshal(keyMsg{
		MX: mxb, MY: myb,
		GChal: gchalb, GRes: gresb,
		HChal: hchalb, HRes: hresb,
	})
	if err != nil {
		return Output{}, err
	}
	for i := 0; i < n; i++ {
		if err := cfg.Net.Send(cfg.Self, party.ID(i), cfg.KeyTag, keyPayload); err != nil {
			return Output{}, err
		}
	}

	selfX := cfg.Self.Scalar(curve.Secp256k1)
	pkShares := []struct {
		X curve.Scalar
		Y curve.Point
	}{{X: selfX, Y: mx}}
	rkShares2 := []struct {
		X curve.Scalar
		Y curve.Point
	}{{X: selfX, Y: my}}

	deg := 2 * cfg.T
	seen := map[party.ID]bool{cfg.Self: true}
	for len(pkShares) <= deg {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case env := <-cfg.KeyInbound:
			if seen[env.From] {
				continue
			}
			var msg keyMsg
			if err := transport.Unmarshal(env.Payload, &msg); err != nil {
				continue
			}
			var x, y curve.Point
			if err := (&x).UnmarshalBinary(msg.MX); err != nil {
				continue
			}
			if err := (&y).UnmarshalBinary(msg.MY); err != nil {
				continue
			}
			var gchal, gres, hchal, hres curve.Scalar
			if (&gchal).UnmarshalBinary(msg.GChal) != nil || (&gres).UnmarshalBinary(msg.GRes) != nil ||
				(&hchal).UnmarshalBinary(msg.HChal) != nil || (&hres).UnmarshalBinary(msg.HRes) != nil {
				continue
			}
			gok := sigma.VerifySchnorr(g, x, sigma.SchnorrProof{Challenge: gchal, Response: gres})
			hok := sigma.VerifySchnorr(h, y, sigma.SchnorrProof{Challenge: hchal, Response: hres})
			if !gok || !hok {
				continue
			}
			seen[env.From] = true
			fx := env.From.Scalar(curve.Secp256k1)
			pkShares = append(pkShares, struct {
				X curve.Scalar
				Y curve.Point
			}{X: fx, Y: x})
			rkShares2 = append(rkShares2, struct {
				X curve.Scalar
				Y curve.Point
			}{X: fx, Y: y})
		}
	}

	zero := curve.Secp256k1.NewScalar()
	pk, err := polynomial.InterpolatePointsAt(pkShares, zero)
	if err != nil {
		return Output{}, err
	}
	rk, err := polynomial.InterpolatePointsAt(rkShares2, zero)
	if err != nil {
		return Output{}, err
	}

	ones := make([]curve.Scalar, n)
	for i := range ones {
		ones[i] = curve.Secp256k1.NewScalarUInt64(1)
	}
	com0 := curve.Secp256k1.NewPoint()
	for sec := 0; sec < rows; sec++ {
		com0 = com0.Add(curve.MultiExp(commits[sec], ones))
	}
	if !pk.Add(rk).Equal(com0) {
		return Output{}, ErrKeyMismatch
	}

	return Output{MKS: cfg.MKS, SecretShare: secret, PublicKey: pk}, nil
}
