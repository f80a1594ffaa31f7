package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSealer(t *testing.T) {
	t.Run("valid key size", func(t *testing.T) {
		s, err := NewSealer(make([]byte, KeySize))
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("short key", func(t *testing.T) {
		s, err := NewSealer(make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, s)
	})

	t.Run("base64 key of wrong size", func(t *testing.T) {
		s, err := NewSealerFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 8)))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, s)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := NewSealerFromBase64("%%%")
		assert.Error(t, err)
	})
}

func TestSealOpen(t *testing.T) {
	key, err := GenerateKeyBytes()
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := s.Seal("eyJhbGciOi.token")
		require.NoError(t, err)
		assert.NotEqual(t, "eyJhbGciOi.token", sealed)

		opened, err := s.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, "eyJhbGciOi.token", opened)
	})

	t.Run("empty string passes through", func(t *testing.T) {
		sealed, err := s.Seal("")
		require.NoError(t, err)
		assert.Empty(t, sealed)

		opened, err := s.Open("")
		require.NoError(t, err)
		assert.Empty(t, opened)
	})

	t.Run("nonce differs per seal", func(t *testing.T) {
		a, _ := s.Seal("same")
		b, _ := s.Seal("same")
		assert.NotEqual(t, a, b)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		sealed, err := s.Seal("secret")
		require.NoError(t, err)

		other, err := NewSealer(make([]byte, KeySize))
		require.NoError(t, err)
		_, err = other.Open(sealed)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		_, err := s.Open(base64.StdEncoding.EncodeToString([]byte("abc")))
		assert.ErrorIs(t, err, ErrCiphertextTooShort)
	})
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey([]byte("not-a-32-byte-secret"), "csrf")
	require.NoError(t, err)
	assert.Len(t, a, KeySize)

	again, err := DeriveKey([]byte("not-a-32-byte-secret"), "csrf")
	require.NoError(t, err)
	assert.Equal(t, a, again)

	b, err := DeriveKey([]byte("not-a-32-byte-secret"), "storage")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = DeriveKey(nil, "csrf")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
