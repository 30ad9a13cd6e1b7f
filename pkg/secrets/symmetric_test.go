package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) Cipher {
	key, err := RandomBytes(32)
	require.NoError(t, err)

	c, err := NewCipher(key)
	require.NoError(t, err)
	return c
}

func TestSymmetricRoundTrip(t *testing.T) {
	c := testCipher(t)

	aad := []byte("acme")
	plaintext := []byte("partition-password")

	packed, err := c.Encrypt(aad, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, packed)

	decrypted, err := c.Decrypt(aad, packed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestSymmetricRejectsWrongAAD(t *testing.T) {
	c := testCipher(t)

	packed, err := c.Encrypt([]byte("acme"), []byte("secret"))
	require.NoError(t, err)

	_, err = c.Decrypt([]byte("globex"), packed)
	assert.Error(t, err, "ciphertext bound to one tenant must not decrypt for another")
}

func TestSymmetricRejectsTruncatedCiphertext(t *testing.T) {
	c := testCipher(t)

	_, err := c.Decrypt([]byte("acme"), []byte{versionMagic, 0x01})
	assert.Error(t, err)
}

func TestSymmetricRejectsUnknownVersion(t *testing.T) {
	c := testCipher(t)

	packed, err := c.Encrypt([]byte("acme"), []byte("secret"))
	require.NoError(t, err)

	packed[0] = 'X'
	_, err = c.Decrypt([]byte("acme"), packed)
	assert.Error(t, err)
}

func TestGenerateDataKey(t *testing.T) {
	encoded, err := GenerateDataKey()
	require.NoError(t, err)

	key, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = NewCipher(key)
	assert.NoError(t, err)
}

func TestGeneratePassword(t *testing.T) {
	first, err := GeneratePassword()
	require.NoError(t, err)

	second, err := GeneratePassword()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
