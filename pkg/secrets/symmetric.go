// Package secrets provides the AES-256-GCM cipher used to protect tenant
// partition credentials at rest. The cipher key (the "data key") never
// touches the database; it is supplied through the environment and each
// ciphertext is bound to its owning record via AAD.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	nonceSize    = 12
	tagSize      = 16
	versionMagic = byte('C')
)

// DataKeyEnvVar is the environment variable holding the base64-encoded
// 256-bit data key.
const DataKeyEnvVar = "COMPLYD_DATA_KEY"

// Cipher encrypts and decrypts small payloads. The aad argument binds a
// ciphertext to its context (typically the tenant slug) so values cannot be
// swapped between rows.
type Cipher interface {
	Encrypt(aad, plaintext []byte) ([]byte, error)
	Decrypt(aad, packed []byte) ([]byte, error)
}

type symmetric struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a raw 32-byte key.
func NewCipher(key []byte) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &symmetric{aead: aead}, nil
}

// CipherFromEnv builds a Cipher from the COMPLYD_DATA_KEY environment
// variable.
func CipherFromEnv() (Cipher, error) {
	encoded, ok := os.LookupEnv(DataKeyEnvVar)
	if !ok {
		return nil, fmt.Errorf("%s environment variable is required", DataKeyEnvVar)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", DataKeyEnvVar, err)
	}

	return NewCipher(key)
}

// GenerateDataKey returns a new base64-encoded 256-bit key suitable for
// COMPLYD_DATA_KEY.
func GenerateDataKey() (string, error) {
	key, err := RandomBytes(32)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// RandomBytes returns size cryptographically random bytes.
func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}
	return value, nil
}

// GeneratePassword returns a URL-safe random credential for a newly
// provisioned partition.
func GeneratePassword() (string, error) {
	raw, err := RandomBytes(24)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

func (s *symmetric) Encrypt(aad, plaintext []byte) ([]byte, error) {
	nonce, err := RandomBytes(nonceSize)
	if err != nil {
		return nil, err
	}

	sealed := s.aead.Seal(nil, nonce, plaintext, aad)
	return pack(sealed, nonce), nil
}

func (s *symmetric) Decrypt(aad, packed []byte) ([]byte, error) {
	if len(packed) < 1+tagSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	if packed[0] != versionMagic {
		return nil, errors.New("unknown ciphertext version")
	}

	ciphertext, nonce := unpack(packed)
	return s.aead.Open(nil, nonce, ciphertext, aad)
}

// pack lays a sealed message out as version || tag || nonce || ciphertext.
func pack(sealedWithTag, nonce []byte) []byte {
	tagStart := len(sealedWithTag) - tagSize
	tag := sealedWithTag[tagStart:]
	ciphertext := sealedWithTag[:tagStart]

	data := make([]byte, 1+tagSize+nonceSize+len(ciphertext))
	data[0] = versionMagic
	index := 1

	copy(data[index:], tag)
	index += tagSize

	copy(data[index:], nonce)
	index += nonceSize

	copy(data[index:], ciphertext)
	return data
}

// unpack reverses pack, returning ciphertext||tag (the AEAD open layout)
// and the nonce.
func unpack(packed []byte) ([]byte, []byte) {
	index := 1

	tag := packed[index : index+tagSize]
	index += tagSize

	nonce := packed[index : index+nonceSize]
	index += nonceSize

	ciphertext := packed[index:]

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	return sealed, nonce
}
