package acss

import (
	"errors"

	"github.com/luxfi/adkg/pkg/crypto/aead"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/party"
)

// ErrInvalidPublicKey is the InvalidPublicKey error kind (spec.md §7):
// g^sk_j != pk_j on an IMPLICATE, ignored silently.
var ErrInvalidPublicKey = errors.New("acss: implicated private key does not match public key")

// handleImplication implements spec.md §4.5 "Implication handling".
// It returns whether the implication is valid (sender's shares from this
// dealer really don't verify), or an error if the implication itself
// should be ignored (bad public key claim).
func handleImplication(dp *decodedProposal, sender party.ID, senderPublicKey curve.Point, senderPrivateKeyBytes []byte, sc int) (bool, error) {
	var sk curve.Scalar
	if err := (&sk).UnmarshalBinary(senderPrivateKeyBytes); err != nil {
		return false, err
	}
	if !sk.ActOnBase().Equal(senderPublicKey) {
		return false, ErrInvalidPublicKey
	}
	sharedKey := sk.Act(dp.EphemeralKey)
	_, _, ok := decryptAndVerifyFor(dp, sender, sharedKey, sc)
	// Valid implication iff the sender's shares do NOT verify.
	return !ok, nil
}

// decryptAndVerifyFor decrypts dp's ciphertext for `who` under sharedKey
// and checks it against dp's commitments. A decryption or format failure
// is treated as "shares invalid" (valid=true for an implication check,
// or a recovery row to discard), matching the DecryptFailure disposition
// in spec.md §7.
func decryptAndVerifyFor(dp *decodedProposal, who party.ID, sharedKey curve.Point, sc int) (phis, phisHat []curve.Scalar, ok bool) {
	plaintext, err := aead.Decrypt(sharedKey, "acss-dispersal", dp.Ciphertexts[who])
	if err != nil {
		return nil, nil, false
	}
	scalars, err := bytesToScalars(plaintext, 2*sc-1)
	if err != nil {
		return nil, nil, false
	}
	phis, phisHat = scalars[:sc], scalars[sc:]
	x := who.Scalar(curve.Secp256k1)
	if !polynomial.VerifyFeldman(dp.Commits[0], x, phis[0]) {
		return phis, phisHat, false
	}
	for k := 1; k < sc; k++ {
		if !polynomial.VerifyPedersen(dp.Commits[k], x, phis[k], phisHat[k-1]) {
			return phis, phisHat, false
		}
	}
	return phis, phisHat, true
}

// recoveryState drives the share-recovery state machine of spec.md §4.5
// once a valid implication has moved the instance into recovery.
type recoveryState struct {
	self       party.ID
	n, t, sc   int
	inRecovery bool
	kdiSent    bool
	allValid   bool
	shares     Shares

	saved map[party.ID][]curve.Scalar // sender -> (phis || phisHat)
}

func (st *recoveryState) handleKDIBroadcast(sender party.ID, sharedKeyBytes []byte, dp *decodedProposal) error {
	var sharedKey curve.Point
	if err := (&sharedKey).UnmarshalBinary(sharedKeyBytes); err != nil {
		return err
	}
	phis, phisHat, ok := decryptAndVerifyFor(dp, sender, sharedKey, st.sc)
	if !ok {
		return errBadRecoveryRow
	}
	if st.saved == nil {
		st.saved = make(map[party.ID][]curve.Scalar)
	}
	if _, already := st.saved[sender]; !already {
		row := make([]curve.Scalar, 0, 2*st.sc-1)
		row = append(row, phis...)
		row = append(row, phisHat...)
		st.saved[sender] = row
	}

	if len(st.saved) >= st.t+1 && !st.allValid {
		msg := make([]curve.Scalar, st.sc)
		for k := 0; k < st.sc; k++ {
			pts := make([]polynomial.Point, 0, len(st.saved))
			for j, row := range st.saved {
				pts = append(pts, polynomial.Point{X: j.Scalar(curve.Secp256k1), Y: row[k]})
			}
			v, err := polynomial.InterpolateAt(pts, st.self.Scalar(curve.Secp256k1))
			if err != nil {
				return err
			}
			msg[k] = v
		}
		rnd := make([]curve.Scalar, st.sc-1)
		for k := 1; k < st.sc; k++ {
			pts := make([]polynomial.Point, 0, len(st.saved))
			for j, row := range st.saved {
				pts = append(pts, polynomial.Point{X: j.Scalar(curve.Secp256k1), Y: row[st.sc+k-1]})
			}
			v, err := polynomial.InterpolateAt(pts, st.self.Scalar(curve.Secp256k1))
			if err != nil {
				return err
			}
			rnd[k-1] = v
		}
		st.shares = Shares{Msg: msg, Rand: rnd}
		st.allValid = true
	}
	return nil
}

var errBadRecoveryRow = errors.New("acss: recovery row failed commitment check")
