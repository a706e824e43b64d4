// Package aead wraps the AEAD primitive ACSS uses to encrypt each
// recipient's share bundle under the ephemeral Diffie-Hellman key
// shared_key_j = pk_j^esk (spec.md §4.5 step 3), in the spirit of
// SymmetricCrypto.encrypt/decrypt in original_source/adkg/acss_ht.py.
package aead

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/luxfi/adkg/pkg/math/curve"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"crypto/sha256"
)

// ErrDecryptFailure is the DecryptFailure error kind from spec.md §7.
var ErrDecryptFailure = errors.New("aead: decryption failure")

// deriveKey turns a group element shared secret into a symmetric key via
// HKDF-SHA256, the same "derive then encrypt" shape as the teacher's
// frost nonce derivation (protocols/frost/sign/round1.go blake3.DeriveKey),
// here using the AEAD-oriented HKDF from the x/crypto package instead.
func deriveKey(sharedPoint curve.Point, info string) ([]byte, error) {
	raw, err := sharedPoint.MarshalBinary()
	if err != nil {
		return nil, err
	}
	kdf := hkdf.New(sha256.New, raw, []byte("luxfi/adkg acss"), []byte(info))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext under shared, returning nonce||ciphertext.
func Encrypt(shared curve.Point, info string, plaintext []byte) ([]byte, error) {
	key, err := deriveKey(shared, info)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure (wrong key,
// truncated input, tag mismatch) collapses to ErrDecryptFailure, matching
// §7's DecryptFailure disposition: triggers IMPLICATE on our own
// ciphertext, or validates a peer's implication.
func Decrypt(shared curve.Point, info string, ciphertext []byte) ([]byte, error) {
	key, err := deriveKey(shared, info)
	if err != nil {
		return nil, ErrDecryptFailure
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrDecryptFailure
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrDecryptFailure
	}
	nonce, ct := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecryptFailure
	}
	return plaintext, nil
}
