package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test key generated with: openssl rand -base64 32
const testKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM=" // "test-key-for-unit-tests-32-bytes"

func TestNewCredentialEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid 32-byte base64 key", key: testKey},
		{name: "empty key", key: "", wantErr: true},
		{name: "passphrase (not base64) - hashed to 32 bytes", key: "my-simple-passphrase"},
		{name: "short base64 key - hashed to 32 bytes", key: base64.StdEncoding.EncodeToString([]byte("sixteen-byte-key"))},
		{name: "long base64 key - hashed to 32 bytes", key: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 64)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewCredentialEncryptor(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, enc)
		})
	}
}

func TestCredentialEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	plaintexts := []string{
		"sk-proj-abc123def456",
		"a",
		strings.Repeat("long-key-", 100),
		"key with spaces and\nnewlines",
	}

	for _, pt := range plaintexts {
		ciphertext, err := enc.Encrypt(pt)
		require.NoError(t, err)
		assert.NotEqual(t, pt, ciphertext)

		got, err := enc.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestCredentialEncryptor_EmptyPassthrough(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	ct, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, ct)

	pt, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, pt)
}

func TestCredentialEncryptor_WrongKey(t *testing.T) {
	enc1, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)
	enc2, err := NewCredentialEncryptor("a-different-passphrase")
	require.NoError(t, err)

	ct, err := enc1.Encrypt("secret-api-key")
	require.NoError(t, err)

	_, err = enc2.Decrypt(ct)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCredentialEncryptor_TamperedCiphertext(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	_, err = enc.Decrypt("not-valid-base64!!!")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
