// SPDX-License-Identifier: LGPL-3.0-or-later

// Package primitives collects the low-level cryptographic building blocks
// used by the handshake, session and fileae packages: RSA-OAEP transport,
// ECDSA signatures, AES-CBC framing, HMAC-SHA256 tags and the small helpers
// (padding, encoding, constant-time comparison) those operations depend on.
package primitives

import (
	"crypto/rand"
	"fmt"
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("primitives: random bytes: %w", err)
	}
	return b, nil
}
