package fileae

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/securechan/securechan/internal/primitives"
	"github.com/securechan/securechan/keyschedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) keyschedule.Keys {
	t.Helper()
	secret, err := primitives.RandomBytes(32)
	require.NoError(t, err)
	keys, err := keyschedule.Default().Derive(secret)
	require.NoError(t, err)
	return keys
}

func TestEncryptStreamDecryptBufferedRoundTrip(t *testing.T) {
	// P8: decrypt(encrypt(b)) == b for arbitrary file bytes.
	keys := testKeys(t)

	for _, size := range []int{0, 1, 4096, 1 << 20} {
		plaintext := make([]byte, size)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		var blob bytes.Buffer
		require.NoError(t, EncryptStream(&blob, bytes.NewReader(plaintext), keys, nil))

		got, err := DecryptBuffered(blob.Bytes(), keys)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestDecryptBufferedRejectsTamperedCiphertext(t *testing.T) {
	keys := testKeys(t)
	plaintext := []byte("attack at dawn")

	var blob bytes.Buffer
	require.NoError(t, EncryptStream(&blob, bytes.NewReader(plaintext), keys, nil))

	b := blob.Bytes()
	b[len(b)-TagSize-1] ^= 0xFF // flip a ciphertext byte, not the tag itself

	_, err := DecryptBuffered(b, keys)
	assert.ErrorIs(t, err, ErrIntegrityFailure)
}

func TestDecryptStreamRoundTrip(t *testing.T) {
	keys := testKeys(t)
	plaintext := make([]byte, 3*DefaultChunkSize/1000) // about 307 KiB: fits in a single internal chunk
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	var blob bytes.Buffer
	require.NoError(t, EncryptStream(&blob, bytes.NewReader(plaintext), keys, nil))

	reader := bytes.NewReader(blob.Bytes())
	var out bytes.Buffer
	require.NoError(t, DecryptStream(&out, reader, int64(blob.Len()), keys))
	assert.Equal(t, plaintext, out.Bytes())
}

func TestDecryptStreamTamperedNeverReleasesPlaintext(t *testing.T) {
	// S6: a tampered download must fail before any plaintext is written.
	keys := testKeys(t)
	plaintext := []byte("do not leak this")

	var blob bytes.Buffer
	require.NoError(t, EncryptStream(&blob, bytes.NewReader(plaintext), keys, nil))
	b := blob.Bytes()
	b[NonceSize+IVSize] ^= 0xFF

	reader := bytes.NewReader(b)
	var out bytes.Buffer
	err := DecryptStream(&out, reader, int64(len(b)), keys)
	assert.ErrorIs(t, err, ErrIntegrityFailure)
	assert.Equal(t, 0, out.Len())
}

func TestNewFileNonceIsUnique(t *testing.T) {
	a, err := NewFileNonce()
	require.NoError(t, err)
	b, err := NewFileNonce()
	require.NoError(t, err)
	assert.Len(t, a, NonceSize)
	assert.NotEqual(t, a, b)
}
