// Package symcipher provides authenticated symmetric encryption of
// short byte payloads under a 32-byte wire-label key, the primitive the
// garbler uses to doubly-encrypt each row of a garbled gate's table.
package symcipher

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the required length of an encryption key.
const KeySize = 32

// ErrDecrypt is returned by Decrypt when the ciphertext does not
// authenticate under the given key — either it was produced under a
// different key, or it has been corrupted or truncated.
var ErrDecrypt = errors.New("symcipher: decryption failed")

// ErrKeySize is returned when a key is not exactly KeySize bytes.
var ErrKeySize = errors.New("symcipher: key must be 32 bytes")

// Encrypt authenticates and encrypts plaintext under key, returning a
// nonce-prefixed ciphertext. Each call samples a fresh random nonce, so
// encrypting the same plaintext under the same key twice yields
// different ciphertexts.
func Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	var k [KeySize]byte
	copy(k[:], key)

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	out := make([]byte, 24, 24+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plaintext, &nonce, &k), nil
}

// Decrypt verifies and decrypts a ciphertext produced by Encrypt. It
// returns ErrDecrypt if authentication fails, which is the expected
// outcome when an evaluator tries the wrong row of a garbled table.
func Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if len(ciphertext) < 24 {
		return nil, ErrDecrypt
	}
	var k [KeySize]byte
	copy(k[:], key)

	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])

	out, ok := secretbox.Open(nil, ciphertext[24:], &nonce, &k)
	if !ok {
		return nil, ErrDecrypt
	}
	return out, nil
}
