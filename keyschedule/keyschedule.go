// SPDX-License-Identifier: LGPL-3.0-or-later

// Package keyschedule turns the handshake's 32-byte shared secret KS into
// the pair of session keys (K_enc, K_mac) the session and fileae packages
// use for AES-CBC and HMAC-SHA256.
package keyschedule

import (
	"fmt"

	"github.com/securechan/securechan/internal/primitives"
)

// SecretSize is the length in bytes of the handshake-negotiated shared
// secret KS.
const SecretSize = 32

// KeySize is the length in bytes of each derived key.
const KeySize = 32

// Keys holds the pair of keys derived from KS.
type Keys struct {
	Enc [KeySize]byte
	Mac [KeySize]byte
}

// Deriver turns a shared secret into session keys. Two variants exist:
// HMACDeriver (the module default) and HKDFDeriver, kept for interop with
// peers that expect an HKDF-SHA256 derivation instead.
type Deriver interface {
	Derive(secret []byte) (Keys, error)
}

// Default returns the module's default key-schedule variant.
func Default() Deriver {
	return HMACDeriver{}
}

func validateSecret(secret []byte) error {
	if len(secret) != SecretSize {
		return fmt.Errorf("keyschedule: shared secret must be %d bytes, got %d", SecretSize, len(secret))
	}
	return nil
}

// Zero overwrites k's key material in place.
func (k *Keys) Zero() {
	primitives.ZeroBytes(k.Enc[:])
	primitives.ZeroBytes(k.Mac[:])
}
