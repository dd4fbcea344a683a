// SPDX-License-Identifier: LGPL-3.0-or-later

package keyschedule

import "github.com/securechan/securechan/internal/primitives"

// HMACDeriver derives K_enc and K_mac as HMAC-SHA256(KS, "enc") and
// HMAC-SHA256(KS, "mac"). This is Variant A from the handshake's key
// schedule and is the module default.
type HMACDeriver struct{}

func (HMACDeriver) Derive(secret []byte) (Keys, error) {
	var keys Keys
	if err := validateSecret(secret); err != nil {
		return keys, err
	}
	copy(keys.Enc[:], primitives.HMACSHA256(secret, []byte("enc")))
	copy(keys.Mac[:], primitives.HMACSHA256(secret, []byte("mac")))
	return keys, nil
}
