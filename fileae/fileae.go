// SPDX-License-Identifier: LGPL-3.0-or-later

// Package fileae implements streaming authenticated encryption for file
// payloads: file_nonce(16) || iv(16) || AES-CBC(PKCS7(plaintext)) ||
// HMAC-SHA256(iv||ciphertext). Encryption streams in fixed-size chunks so
// files far larger than memory can be processed; decryption verifies the
// tag before any plaintext is released to the caller.
package fileae

import "github.com/securechan/securechan/internal/primitives"

// DefaultChunkSize is the recommended streaming chunk size, matching the
// reference implementation.
const DefaultChunkSize = 100 * 1024 * 1024

// NonceSize and friends describe the blob's fixed-size framing regions.
const (
	NonceSize = 16
	IVSize    = primitives.AESBlockSize
	TagSize   = 32
)

// NewFileNonce returns a fresh 16-byte file nonce. It is a domain
// separator / replay-protection hook for the storage layer, not a
// cryptographic input to the cipher itself, and MUST be unique per file.
func NewFileNonce() ([]byte, error) {
	return primitives.RandomBytes(NonceSize)
}
