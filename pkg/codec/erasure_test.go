package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/pkg/codec"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")
	k, n := 4, 7

	stripes, err := codec.Encode(k, n, msg)
	require.NoError(t, err)
	require.Len(t, stripes, n)

	got, err := codec.Decode(k, n, stripes)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecodeToleratesMissingStripes(t *testing.T) {
	msg := []byte("tolerate up to n-k missing stripes without data loss")
	k, n := 3, 6

	stripes, err := codec.Encode(k, n, msg)
	require.NoError(t, err)

	partial := make([][]byte, n)
	copy(partial, stripes)
	partial[0] = nil
	partial[4] = nil
	partial[5] = nil

	got, err := codec.Decode(k, n, partial)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecodeInsufficientShares(t *testing.T) {
	msg := []byte("not enough stripes to reconstruct this")
	k, n := 4, 7

	stripes, err := codec.Encode(k, n, msg)
	require.NoError(t, err)

	partial := make([][]byte, n)
	copy(partial, stripes[:3])

	_, err = codec.Decode(k, n, partial)
	assert.ErrorIs(t, err, codec.ErrInsufficientShares)
}

func TestEncodeDecodeExactMultipleOfK(t *testing.T) {
	// len(msg) % k == 0 exercises the padding edge case where a full dummy
	// block of padding is appended.
	k, n := 4, 6
	msg := make([]byte, k*5)
	for i := range msg {
		msg[i] = byte(i)
	}

	stripes, err := codec.Encode(k, n, msg)
	require.NoError(t, err)

	got, err := codec.Decode(k, n, stripes)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestEncodeDecodeEmptyMessage(t *testing.T) {
	k, n := 3, 5
	stripes, err := codec.Encode(k, n, nil)
	require.NoError(t, err)

	got, err := codec.Decode(k, n, stripes)
	require.NoError(t, err)
	assert.Empty(t, got)
}
