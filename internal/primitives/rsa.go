// SPDX-License-Identifier: LGPL-3.0-or-later

package primitives

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// RSAKeyBits is the modulus size required by the handshake's transport keys.
const RSAKeyBits = 3072

// GenerateRSAKey generates a fresh RSAKeyBits-bit RSA key pair.
func GenerateRSAKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("primitives: generate rsa key: %w", err)
	}
	return key, nil
}

// RSAOAEPEncrypt encrypts plaintext for pub using RSA-OAEP with SHA-256 as
// both the hash and the MGF1 hash, and an empty label.
func RSAOAEPEncrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("primitives: rsa-oaep encrypt: %w", err)
	}
	return ct, nil
}

// RSAOAEPDecrypt reverses RSAOAEPEncrypt.
func RSAOAEPDecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("primitives: rsa-oaep decrypt: %w", err)
	}
	return pt, nil
}

// MaxOAEPMessageLen returns the largest plaintext RSA-OAEP/SHA-256 can carry
// for an RSAKeyBits-bit key: k - 2*hLen - 2.
func MaxOAEPMessageLen() int {
	k := RSAKeyBits / 8
	hLen := sha256.Size
	return k - 2*hLen - 2
}
