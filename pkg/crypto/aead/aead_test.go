package aead_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/pkg/crypto/aead"
	"github.com/luxfi/adkg/pkg/math/curve"
)

func sharedPoint(label string) curve.Point {
	return curve.HashScalar([]byte(label)).ActOnBase()
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	shared := sharedPoint("shared-secret")
	plaintext := []byte("this is the share bundle being sealed for a recipient")

	ct, err := aead.Encrypt(shared, "acss/share/3", plaintext)
	require.NoError(t, err)

	got, err := aead.Decrypt(shared, "acss/share/3", ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptFailsWithWrongKey(t *testing.T) {
	shared := sharedPoint("shared-secret")
	wrong := sharedPoint("different-secret")
	plaintext := []byte("secret payload")

	ct, err := aead.Encrypt(shared, "info", plaintext)
	require.NoError(t, err)

	_, err = aead.Decrypt(wrong, "info", ct)
	assert.ErrorIs(t, err, aead.ErrDecryptFailure)
}

func TestDecryptFailsWithMismatchedInfo(t *testing.T) {
	shared := sharedPoint("shared-secret")
	plaintext := []byte("secret payload")

	ct, err := aead.Encrypt(shared, "info-a", plaintext)
	require.NoError(t, err)

	_, err = aead.Decrypt(shared, "info-b", ct)
	assert.ErrorIs(t, err, aead.ErrDecryptFailure)
}

func TestDecryptFailsOnTamperedCiphertext(t *testing.T) {
	shared := sharedPoint("shared-secret")
	plaintext := []byte("secret payload")

	ct, err := aead.Encrypt(shared, "info", plaintext)
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xFF

	_, err = aead.Decrypt(shared, "info", ct)
	assert.ErrorIs(t, err, aead.ErrDecryptFailure)
}

func TestDecryptFailsOnTruncatedCiphertext(t *testing.T) {
	shared := sharedPoint("shared-secret")
	_, err := aead.Decrypt(shared, "info", []byte{1, 2, 3})
	assert.ErrorIs(t, err, aead.ErrDecryptFailure)
}
