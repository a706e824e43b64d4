// Package codec implements the erasure coding (C1) and bitmap/fixed-width
// serialization (C2) building blocks from spec.md §4.1-4.2.
//
// The original_source/adkg/broadcast/qrbc.py dealer used the zfec binding
// for this; no example repo in the retrieved pack wires an erasure-coding
// library (see DESIGN.md), so this reaches for klauspost/reedsolomon, the
// de-facto Go ecosystem library for Reed-Solomon erasure codes.
package codec

import (
	"errors"

	"github.com/klauspost/reedsolomon"
)

// ErrInsufficientShares is the InsufficientShares error kind (spec.md §7):
// fewer than k stripes were available to reconstruct.
var ErrInsufficientShares = errors.New("codec: insufficient shares to reconstruct")

// ErrLengthMismatch is raised when the supplied stripes are not all the
// same length.
var ErrLengthMismatch = errors.New("codec: stripe length mismatch")

// maxK bounds k the way the python source asserts k <= 256: each pad byte
// holds k-pad, a value in [0, k), which one byte encodes for any k <= 256.
const maxK = 256

// Encode erasure-encodes m into n stripes, any k of which reconstruct m.
func Encode(k, n int, m []byte) ([][]byte, error) {
	if k <= 0 || n < k {
		return nil, errors.New("codec: invalid (k, n)")
	}
	if k > maxK {
		return nil, errors.New("codec: k exceeds 256")
	}

	pad := k - (len(m) % k)
	padded := make([]byte, len(m)+pad)
	copy(padded, m)
	for i := len(m); i < len(padded); i++ {
		padded[i] = byte(k - pad)
	}

	stripeLen := len(padded) / k
	enc, err := reedsolomon.New(k, n-k)
	if err != nil {
		return nil, err
	}
	shards := make([][]byte, n)
	for i := 0; i < k; i++ {
		shards[i] = make([]byte, stripeLen)
		copy(shards[i], padded[i*stripeLen:(i+1)*stripeLen])
	}
	for i := k; i < n; i++ {
		shards[i] = make([]byte, stripeLen)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Decode reconstructs m from a length-n slice of stripes, each either the
// stripe bytes or nil if unavailable. At least k must be present.
func Decode(k, n int, stripes [][]byte) ([]byte, error) {
	if len(stripes) != n {
		return nil, errors.New("codec: stripes length != n")
	}
	present := 0
	stripeLen := -1
	for _, s := range stripes {
		if s == nil {
			continue
		}
		if stripeLen == -1 {
			stripeLen = len(s)
		} else if len(s) != stripeLen {
			return nil, ErrLengthMismatch
		}
		present++
	}
	if present < k {
		return nil, ErrInsufficientShares
	}

	enc, err := reedsolomon.New(k, n-k)
	if err != nil {
		return nil, err
	}
	shards := make([][]byte, n)
	for i, s := range stripes {
		if s != nil {
			shards[i] = s
		}
	}
	if err := enc.Reconstruct(shards); err != nil {
		return nil, err
	}

	padded := make([]byte, 0, stripeLen*k)
	for i := 0; i < k; i++ {
		padded = append(padded, shards[i]...)
	}
	if len(padded) == 0 {
		return nil, ErrLengthMismatch
	}
	padLen := k - int(padded[len(padded)-1])
	if padLen <= 0 || padLen > len(padded) {
		return nil, ErrLengthMismatch
	}
	return padded[:len(padded)-padLen], nil
}
