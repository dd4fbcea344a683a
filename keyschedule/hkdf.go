// SPDX-License-Identifier: LGPL-3.0-or-later

package keyschedule

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo is the HKDF info parameter: "encryption and mac".
var hkdfInfo = []byte("encryption and mac")

// HKDFDeriver derives a 64-byte HKDF-SHA256 output (empty salt, info
// "encryption and mac") and splits it into K_enc || K_mac. This is Variant B
// from the handshake's key schedule, kept for interop with peers built
// against the HKDF form of the protocol.
type HKDFDeriver struct{}

func (HKDFDeriver) Derive(secret []byte) (Keys, error) {
	var keys Keys
	if err := validateSecret(secret); err != nil {
		return keys, err
	}

	r := hkdf.New(sha256.New, secret, nil, hkdfInfo)
	out := make([]byte, 2*KeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return keys, fmt.Errorf("keyschedule: hkdf expand: %w", err)
	}
	copy(keys.Enc[:], out[:KeySize])
	copy(keys.Mac[:], out[KeySize:])
	return keys, nil
}
