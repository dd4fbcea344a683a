// SPDX-License-Identifier: LGPL-3.0-or-later

package primitives

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"fmt"
)

// Base64Encode encodes b as standard base64, matching the wire encoding used
// throughout the handshake and framing formats.
func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode decodes standard base64 text.
func Base64Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("primitives: base64 decode: %w", err)
	}
	return b, nil
}

// MarshalRSAPublicKeyDER returns the PKIX/SPKI DER encoding of pub.
func MarshalRSAPublicKeyDER(pub *rsa.PublicKey) ([]byte, error) {
	return x509.MarshalPKIXPublicKey(pub)
}

// MarshalECDSAPublicKeyDER returns the PKIX/SPKI DER encoding of pub.
func MarshalECDSAPublicKeyDER(pub *ecdsa.PublicKey) ([]byte, error) {
	return x509.MarshalPKIXPublicKey(pub)
}

// ParseRSAPublicKeyDER parses a PKIX/SPKI-encoded RSA public key.
func ParseRSAPublicKeyDER(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("primitives: parse rsa public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("primitives: parse rsa public key: not an RSA key")
	}
	return rsaPub, nil
}

// ParseECDSAPublicKeyDER parses a PKIX/SPKI-encoded ECDSA public key.
func ParseECDSAPublicKeyDER(der []byte) (*ecdsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("primitives: parse ecdsa public key: %w", err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("primitives: parse ecdsa public key: not an ECDSA key")
	}
	return ecPub, nil
}

// MarshalPrivateKeyDER returns the PKCS#8 DER encoding of an RSA or ECDSA
// private key, for round-tripping ephemeral server handshake state through
// a PendingStore between /handshake/init and /handshake/finalize.
func MarshalPrivateKeyDER(key interface{}) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: marshal private key: %w", err)
	}
	return der, nil
}

// ParseRSAPrivateKeyDER parses a PKCS#8-encoded RSA private key.
func ParseRSAPrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("primitives: parse rsa private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("primitives: parse rsa private key: not an RSA key")
	}
	return rsaKey, nil
}

// ParseECDSAPrivateKeyDER parses a PKCS#8-encoded ECDSA private key.
func ParseECDSAPrivateKeyDER(der []byte) (*ecdsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("primitives: parse ecdsa private key: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("primitives: parse ecdsa private key: not an ECDSA key")
	}
	return ecKey, nil
}

// ConstantTimeEqual reports whether a and b are equal using a constant-time
// comparison. All MAC and signature-adjacent comparisons in this module go
// through this helper rather than ==, bytes.Equal or a hand-rolled loop.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ZeroBytes overwrites b with zeroes in place. It is best-effort: the Go
// garbage collector and compiler give no hard guarantee that no other copy
// of the bytes exists, but it matches the zeroing discipline the rest of
// this codebase follows for ephemeral secrets.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
