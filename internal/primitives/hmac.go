// SPDX-License-Identifier: LGPL-3.0-or-later

package primitives

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
)

// HMACSHA256 returns the HMAC-SHA256 tag of msg under key.
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// NewHMACSHA256 returns a streaming HMAC-SHA256 for large inputs, e.g. the
// file authenticated-encryption pipeline.
func NewHMACSHA256(key []byte) hash.Hash {
	return hmac.New(sha256.New, key)
}
