package acss

import (
	"errors"

	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/crypto/aead"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/math/sample"
	"github.com/luxfi/adkg/pkg/party"
)

// errShortPlaintext guards bytesToScalars against a malicious dealer whose
// AEAD plaintext decrypts successfully but is too short to hold count
// scalars; callers treat it as a verification failure (IMPLICATE /
// discard), never a panic, matching spec.md §7's no-panic-on-valid-input
// requirement plus the adversarial case of a dealer-controlled ciphertext.
var errShortPlaintext = errors.New("acss: decrypted share plaintext too short")

// DealInput parameterizes one dealer's dispersal (spec.md §4.5 "Dealer side").
type DealInput struct {
	N, T, SC   int
	Self       party.ID
	Values     []curve.Scalar // len SC: Values[0] is the dealer's real secret
	PublicKeys map[party.ID]curve.Point
}

// Deal builds the RBC proposal payload a dealer disperses: Feldman
// commitment to phi_0, Pedersen commitments to phi_1..phi_{sc-1}, and one
// AEAD ciphertext per recipient carrying that recipient's evaluation of
// every polynomial.
func Deal(in DealInput) ([]byte, error) {
	commits := make([][]curve.Point, in.SC)
	polys := make([]*polynomial.Polynomial, in.SC)
	polysHat := make([]*polynomial.Polynomial, in.SC) // index 0 unused

	phi0 := polynomial.New(in.T, in.Values[0])
	polys[0] = phi0
	commits[0] = polynomial.FeldmanCommit(phi0)

	for k := 1; k < in.SC; k++ {
		phik := polynomial.New(in.T, in.Values[k])
		phiHatk := polynomial.New(in.T, sample.Scalar(nil))
		polys[k] = phik
		polysHat[k] = phiHatk
		commits[k] = polynomial.PedersenCommit(phik, phiHatk)
	}

	esk := sample.Scalar(nil)
	epk := esk.ActOnBase()

	ciphertexts := make([][]byte, in.N)
	for j := 0; j < in.N; j++ {
		recipient := party.ID(j)
		sharedKey := esk.Act(in.PublicKeys[recipient])

		x := recipient.Scalar(curve.Secp256k1)
		scalars := make([]curve.Scalar, 0, 2*in.SC-1)
		for k := 0; k < in.SC; k++ {
			scalars = append(scalars, polys[k].Evaluate(x))
		}
		for k := 1; k < in.SC; k++ {
			scalars = append(scalars, polysHat[k].Evaluate(x))
		}
		plaintext, err := scalarsToBytes(scalars)
		if err != nil {
			return nil, err
		}
		ct, err := aead.Encrypt(sharedKey, "acss-dispersal", plaintext)
		if err != nil {
			return nil, err
		}
		ciphertexts[j] = ct
	}

	commitBytes, err := serializeCommits(commits)
	if err != nil {
		return nil, err
	}
	epkBytes, err := epk.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return transport.Marshal(proposalMsg{
		Commits:      commitBytes,
		Ciphertexts:  ciphertexts,
		EphemeralKey: epkBytes,
	})
}

func scalarsToBytes(scalars []curve.Scalar) ([]byte, error) {
	out := make([]byte, 0, len(scalars)*32)
	for _, s := range scalars {
		b, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func bytesToScalars(data []byte, count int) ([]curve.Scalar, error) {
	if len(data) < count*32 {
		return nil, errShortPlaintext
	}
	out := make([]curve.Scalar, count)
	for i := 0; i < count; i++ {
		if err := (&out[i]).UnmarshalBinary(data[i*32 : (i+1)*32]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
