package acss

import (
	"errors"

	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/crypto/aead"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/party"
)

// ErrCommitmentMismatch is the CommitmentMismatch error kind (spec.md §7).
var ErrCommitmentMismatch = errors.New("acss: share does not match commitment")

// decodedProposal is the parsed form of a dealer's RBC payload, cached on
// successful verification for later implicate / recovery handling
// (spec.md DESIGN NOTES open question 1: ciphertexts are owned by and
// referenced from the RBC output, never copied).
type decodedProposal struct {
	Commits     [][]curve.Point
	Ciphertexts [][]byte
	EphemeralKey curve.Point
}

func decodeProposal(raw []byte) (*decodedProposal, error) {
	var msg proposalMsg
	if err := transport.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	commits, err := deserializeCommits(msg.Commits)
	if err != nil {
		return nil, err
	}
	var epk curve.Point
	if err := (&epk).UnmarshalBinary(msg.EphemeralKey); err != nil {
		return nil, err
	}
	return &decodedProposal{Commits: commits, Ciphertexts: msg.Ciphertexts, EphemeralKey: epk}, nil
}

// verifyAsRecipient implements the "Recipient predicate" of spec.md §4.5:
// decrypt this party's ciphertext, deserialize its shares, and verify them
// against the Feldman/Pedersen commitments.
func verifyAsRecipient(dp *decodedProposal, self party.ID, privateKey curve.Scalar, sc int) (Shares, curve.Point, error) {
	sharedKey := privateKey.Act(dp.EphemeralKey)
	if int(self) >= len(dp.Ciphertexts) {
		return Shares{}, curve.Point{}, errors.New("acss: no ciphertext for this party")
	}
	plaintext, err := aead.Decrypt(sharedKey, "acss-dispersal", dp.Ciphertexts[self])
	if err != nil {
		return Shares{}, curve.Point{}, err // DecryptFailure
	}
	scalars, err := bytesToScalars(plaintext, 2*sc-1)
	if err != nil {
		return Shares{}, curve.Point{}, err
	}
	phis := scalars[:sc]
	phisHat := scalars[sc:] // len sc-1, index k corresponds to slot k+1

	x := self.Scalar(curve.Secp256k1)
	if !polynomial.VerifyFeldman(dp.Commits[0], x, phis[0]) {
		return Shares{}, curve.Point{}, ErrCommitmentMismatch
	}
	for k := 1; k < sc; k++ {
		if !polynomial.VerifyPedersen(dp.Commits[k], x, phis[k], phisHat[k-1]) {
			return Shares{}, curve.Point{}, ErrCommitmentMismatch
		}
	}
	return Shares{Msg: phis, Rand: phisHat}, sharedKey, nil
}
