// Package acss implements high-threshold asynchronous complete secret
// sharing (spec.md §4.5): dealer dispersal, recipient verification,
// implicate/recover on a bad dealer, and the OK-counted termination rule.
// It is grounded on the ACSS_HT class in
// original_source/adkg/acss_ht.py, translated from its asyncio task/queue
// style into goroutines and channels per DESIGN_NOTES §9.
package acss

import (
	"github.com/luxfi/adkg/pkg/codec"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/party"
)

// Shares is the per-party output of one completed ACSS instance: its
// slice of the dealer's sc secret-sharing polynomials.
type Shares struct {
	// Msg holds phi_k(my_id+1) for k in [0, sc).
	Msg []curve.Scalar
	// Rand holds phi_hat_k(my_id+1) for k in [1, sc), i.e. len(Rand) == sc-1.
	Rand []curve.Scalar
}

// Output is what an honest party eventually produces for a given dealer.
type Output struct {
	Dealer  party.ID
	Shares  Shares
	Commits [][]curve.Point // sc slots, each t+1 long
}

// proposalMsg is the RBC payload a dealer disperses: commitments plus one
// ciphertext per recipient plus the dealer's ephemeral public key,
// matching spec.md §4.5 step 4's Ser(commits)||C_0||...||C_{n-1}||Ser(epk)
// layout, carried as a CBOR envelope instead of a manual byte
// concatenation (see DESIGN.md).
type proposalMsg struct {
	Commits      [][]byte // sc groups of (t+1) serialized points each, flattened
	Ciphertexts  [][]byte // length n
	EphemeralKey []byte
}

func serializeCommits(commits [][]curve.Point) ([][]byte, error) {
	out := make([][]byte, len(commits))
	for i, group := range commits {
		b, err := codec.SerializePoints(group)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func deserializeCommits(raw [][]byte) ([][]curve.Point, error) {
	out := make([][]curve.Point, len(raw))
	for i, b := range raw {
		pts, err := codec.DeserializePoints(b)
		if err != nil {
			return nil, err
		}
		out[i] = pts
	}
	return out, nil
}

// controlKind enumerates the ACSS control-channel tag bytes from
// spec.md §6 (ACSS control message schema).
type controlKind byte

const (
	controlOK           controlKind = 1
	controlImplicate    controlKind = 2
	controlKDIBroadcast controlKind = 7
)

type controlMsg struct {
	Kind       controlKind
	PrivateKey []byte // IMPLICATE: sk_j
	SharedKey  []byte // KDIBROADCAST: K_s, serialized group element
}
