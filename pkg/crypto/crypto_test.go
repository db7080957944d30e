package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestAESRoundtrip(t *testing.T) {
	ciphertext, err := EncryptAES("api-secret-value", "some-key")
	require.NoError(t, err)
	assert.NotEqual(t, "api-secret-value", ciphertext)

	plaintext, err := DecryptAES(ciphertext, "some-key")
	require.NoError(t, err)
	assert.Equal(t, "api-secret-value", plaintext)
}

func TestAESWrongKeyFails(t *testing.T) {
	ciphertext, err := EncryptAES("api-secret-value", "some-key")
	require.NoError(t, err)

	_, err = DecryptAES(ciphertext, "other-key")
	assert.Error(t, err)
}

func TestAESNonceVaries(t *testing.T) {
	a, err := EncryptAES("same-input", "some-key")
	require.NoError(t, err)
	b, err := EncryptAES("same-input", "some-key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := DecryptAES("not-base64!!!", "some-key")
	assert.Error(t, err)

	_, err = DecryptAES("YWJj", "some-key") // too short for a nonce
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
