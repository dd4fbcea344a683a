// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/securechan/securechan/internal/primitives"
)

// FrameWire is the JSON shape posted to /session/test and similar
// session-message endpoints.
type FrameWire struct {
	EncryptedMessage string `json:"encrypted_message"`
	ClientSignature  string `json:"client_signature"`
}

// ReplayChecker tracks (client_id, nonce) pairs already accepted for a
// session. *NonceCache implements it.
type ReplayChecker interface {
	Seen(clientID, nonce string) bool
}

// NewMemoryReplayChecker returns an in-memory ReplayChecker with the given
// nonce retention TTL.
func NewMemoryReplayChecker(ttl time.Duration) ReplayChecker {
	return NewNonceCache(ttl)
}

// Build assembles and signs an outbound session frame carrying payload:
// timestamp || nonce(16) are prefixed to the payload, PKCS#7-padded,
// AES-CBC encrypted under K_enc, tagged with HMAC-SHA256 under K_mac, and
// the iv||ciphertext||tag package is signed with this session's key.
func (s *Session) Build(payload []byte) (FrameWire, error) {
	if s.IsExpired() {
		return FrameWire{}, fmt.Errorf("session: build: session %s is expired or closed", s.clientID)
	}

	nonce, err := primitives.RandomBytes(16)
	if err != nil {
		return FrameWire{}, fmt.Errorf("session: build: nonce: %w", err)
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixMilli()))

	plaintext := concatFrame(ts[:], nonce, payload)

	iv, ciphertext, err := primitives.AESCBCEncrypt(s.keys.Enc[:], plaintext)
	if err != nil {
		return FrameWire{}, fmt.Errorf("session: build: encrypt: %w", err)
	}
	tag := primitives.HMACSHA256(s.keys.Mac[:], concatFrame(iv, ciphertext))

	pkg := concatFrame(iv, ciphertext, tag)
	sig, err := primitives.ECDSASign(s.signKey, pkg)
	if err != nil {
		return FrameWire{}, fmt.Errorf("session: build: sign: %w", err)
	}

	s.touch()
	return FrameWire{
		EncryptedMessage: primitives.Base64Encode(pkg),
		ClientSignature:  primitives.Base64Encode(sig),
	}, nil
}

// Parse verifies and decrypts an inbound frame in the order the protocol
// requires: signature, then MAC, then decrypt/unpad, then freshness, then
// replay. It returns the original payload and the sender-claimed timestamp.
func (s *Session) Parse(wire FrameWire, seen ReplayChecker, skew time.Duration) ([]byte, time.Time, error) {
	if skew <= 0 {
		skew = DefaultSkew
	}

	pkg, err := primitives.Base64Decode(wire.EncryptedMessage)
	if err != nil {
		return nil, time.Time{}, ErrFrameRejected
	}
	sig, err := primitives.Base64Decode(wire.ClientSignature)
	if err != nil {
		return nil, time.Time{}, ErrFrameRejected
	}

	if !primitives.ECDSAVerify(s.verifyKey, pkg, sig) {
		return nil, time.Time{}, ErrProtocolViolation
	}

	const (
		ivLen  = primitives.AESBlockSize
		tagLen = 32
	)
	if len(pkg) < ivLen+tagLen {
		return nil, time.Time{}, ErrFrameRejected
	}
	iv := pkg[:ivLen]
	ciphertext := pkg[ivLen : len(pkg)-tagLen]
	tag := pkg[len(pkg)-tagLen:]

	expectedTag := primitives.HMACSHA256(s.keys.Mac[:], concatFrame(iv, ciphertext))
	if !primitives.ConstantTimeEqual(tag, expectedTag) {
		return nil, time.Time{}, ErrFrameRejected
	}

	plaintext, err := primitives.AESCBCDecrypt(s.keys.Enc[:], iv, ciphertext)
	if err != nil {
		return nil, time.Time{}, ErrFrameRejected
	}
	if len(plaintext) < 8+16 {
		return nil, time.Time{}, ErrFrameRejected
	}

	tsMillis := binary.BigEndian.Uint64(plaintext[:8])
	ts := time.UnixMilli(int64(tsMillis))
	nonce := plaintext[8:24]
	payload := plaintext[24:]

	now := time.Now()
	if ts.Before(now.Add(-skew)) || ts.After(now.Add(skew)) {
		return nil, time.Time{}, ErrStale
	}

	if seen != nil && seen.Seen(s.clientID, primitives.Base64Encode(nonce)) {
		return nil, time.Time{}, ErrReplay
	}

	s.touch()
	return payload, ts, nil
}

func concatFrame(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
