package keys

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexomega/titan/internal/config"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := Encrypt("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := Decrypt(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "correct")
	require.NoError(t, err)

	_, err = Decrypt(blob, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestEncryptRejectsBadKey(t *testing.T) {
	_, err := Encrypt("not-hex", "pw")
	require.Error(t, err)

	_, err = Encrypt("abcd", "pw") // too short
	require.Error(t, err)

	_, err = Encrypt(testKeyHex, "")
	require.Error(t, err)
}

func TestResolveRawKey(t *testing.T) {
	got, err := Resolve(Source{RawPrivateKey: "0x" + testKeyHex})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestResolveEncryptedFile(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := Resolve(Source{EncryptedKeyPath: path, KeyPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestResolveIgnoresPlaceholder(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	// Placeholder raw key must not shadow a configured encrypted file.
	got, err := Resolve(Source{
		RawPrivateKey:    config.PlaceholderPrivateKey,
		EncryptedKeyPath: path,
		KeyPassword:      "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestResolveNoSource(t *testing.T) {
	_, err := Resolve(Source{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no private key source"))
}
