// SPDX-License-Identifier: LGPL-3.0-or-later

package handshake

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/securechan/securechan/internal/primitives"
)

// ClientHandshake drives one client-side handshake attempt. It is not
// safe for concurrent use — one handshake is one logical flow, per the
// protocol's concurrency model.
type ClientHandshake struct {
	state State

	key KeyMaterial

	nonce1 [8]byte
	nonce2 [8]byte
	nonce3 [8]byte

	clientID string

	serverRSAPub   *rsa.PublicKey
	serverECDSAPub *ecdsa.PublicKey

	ks [32]byte
}

// NewClientHandshake generates a fresh ephemeral RSA-3072/ECDSA-P256
// keypair and returns a handshake ready to build M1.
func NewClientHandshake() (*ClientHandshake, error) {
	rsaKey, err := primitives.GenerateRSAKey()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate client rsa key: %w", err)
	}
	ecKey, err := primitives.GenerateECDSAKey()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate client ecdsa key: %w", err)
	}
	return &ClientHandshake{
		state: Idle,
		key:   KeyMaterial{RSA: rsaKey, ECDSA: ecKey},
	}, nil
}

// State returns the handshake's current state.
func (h *ClientHandshake) State() State { return h.state }

// Init builds M1: the client's public keys, a fresh nonce1, and
// signature1 over rsa_pub_client_der || ecdsa_pub_client_der || nonce1.
func (h *ClientHandshake) Init() (InitRequest, error) {
	if h.state != Idle {
		return InitRequest{}, ErrWrongState
	}

	rsaDER, err := primitives.MarshalRSAPublicKeyDER(&h.key.RSA.PublicKey)
	if err != nil {
		h.fail()
		return InitRequest{}, fmt.Errorf("handshake: marshal client rsa pub: %w", err)
	}
	ecDER, err := primitives.MarshalECDSAPublicKeyDER(&h.key.ECDSA.PublicKey)
	if err != nil {
		h.fail()
		return InitRequest{}, fmt.Errorf("handshake: marshal client ecdsa pub: %w", err)
	}

	nonce1, err := primitives.RandomBytes(8)
	if err != nil {
		h.fail()
		return InitRequest{}, fmt.Errorf("handshake: nonce1: %w", err)
	}
	copy(h.nonce1[:], nonce1)

	toSign := concat(rsaDER, ecDER, h.nonce1[:])
	sig1, err := primitives.ECDSASign(h.key.ECDSA, toSign)
	if err != nil {
		h.fail()
		return InitRequest{}, fmt.Errorf("handshake: sign m1: %w", err)
	}

	h.state = AwaitInitResp
	return InitRequest{
		RSAPubClient:   primitives.Base64Encode(rsaDER),
		ECDSAPubClient: primitives.Base64Encode(ecDER),
		Nonce1:         primitives.Base64Encode(h.nonce1[:]),
		Signature1:     primitives.Base64Encode(sig1),
	}, nil
}

// Finalize consumes the server's M1 response, verifies signature2, and
// builds M2: a fresh session secret KS encrypted under the server's RSA
// public key, plus signature3 sent alongside it.
func (h *ClientHandshake) Finalize(resp InitResponse) (FinalizeRequest, error) {
	if h.state != AwaitInitResp {
		return FinalizeRequest{}, ErrWrongState
	}

	rsaDER, err := primitives.Base64Decode(resp.RSAPubServer)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: decode rsa_pub_server: %v", ErrProtocolViolation, err)
	}
	ecDER, err := primitives.Base64Decode(resp.ECDSAPubServer)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: decode ecdsa_pub_server: %v", ErrProtocolViolation, err)
	}
	nonce2, err := primitives.Base64Decode(resp.Nonce2)
	if err != nil || len(nonce2) != 8 {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: decode nonce2", ErrProtocolViolation)
	}
	sig2, err := primitives.Base64Decode(resp.Signature2)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: decode signature2: %v", ErrProtocolViolation, err)
	}

	serverRSAPub, err := primitives.ParseRSAPublicKeyDER(rsaDER)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: parse rsa_pub_server: %v", ErrProtocolViolation, err)
	}
	serverECDSAPub, err := primitives.ParseECDSAPublicKeyDER(ecDER)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: parse ecdsa_pub_server: %v", ErrProtocolViolation, err)
	}

	covered := concat(rsaDER, ecDER, nonce2, h.nonce1[:], []byte(resp.ClientID))
	if !primitives.ECDSAVerify(serverECDSAPub, covered, sig2) {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("%w: signature2 verification failed", ErrProtocolViolation)
	}

	h.serverRSAPub = serverRSAPub
	h.serverECDSAPub = serverECDSAPub
	h.clientID = resp.ClientID
	copy(h.nonce2[:], nonce2)

	ks, err := primitives.RandomBytes(32)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("handshake: generate KS: %w", err)
	}
	copy(h.ks[:], ks)
	primitives.ZeroBytes(ks)

	nonce3, err := primitives.RandomBytes(8)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("handshake: nonce3: %w", err)
	}
	copy(h.nonce3[:], nonce3)

	blob := concat(h.ks[:], h.nonce3[:], h.nonce2[:])
	if len(blob) > primitives.MaxOAEPMessageLen() {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("handshake: m2 blob (%d bytes) exceeds RSA-OAEP capacity", len(blob))
	}

	encrypted, err := primitives.RSAOAEPEncrypt(h.serverRSAPub, blob)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("handshake: encrypt m2 blob: %w", err)
	}

	sig3, err := primitives.ECDSASign(h.key.ECDSA, blob)
	if err != nil {
		h.fail()
		return FinalizeRequest{}, fmt.Errorf("handshake: sign m2 blob: %w", err)
	}

	h.state = AwaitFinalizeResp
	return FinalizeRequest{
		Encrypted:  primitives.Base64Encode(encrypted),
		Signature3: primitives.Base64Encode(sig3),
	}, nil
}

// Complete consumes the server's M2 response, verifies signature4, and
// hands off the established session's secret and signing key.
func (h *ClientHandshake) Complete(resp FinalizeResponse) (Result, error) {
	if h.state != AwaitFinalizeResp {
		return Result{}, ErrWrongState
	}

	sig4, err := primitives.Base64Decode(resp.Signature4)
	if err != nil {
		h.fail()
		return Result{}, fmt.Errorf("%w: decode signature4: %v", ErrProtocolViolation, err)
	}

	covered := concat(h.ks[:], h.nonce3[:], h.nonce2[:])
	if !primitives.ECDSAVerify(h.serverECDSAPub, covered, sig4) {
		h.fail()
		return Result{}, fmt.Errorf("%w: signature4 verification failed", ErrProtocolViolation)
	}

	result := Result{
		ClientID:        h.clientID,
		SharedSecret:    h.ks,
		ClientSignKey:   h.key.ECDSA,
		ServerVerifyKey: h.serverECDSAPub,
	}

	// KS has been copied into result; the RSA transport key is no longer
	// needed once the handshake is established.
	primitives.ZeroBytes(h.ks[:])
	h.key.RSA = nil
	h.state = Established
	return result, nil
}

// fail transitions the handshake to Failed and discards ephemeral secret
// material. Per the protocol's failure policy, a failed handshake is never
// retried in place — the caller must start a new one.
func (h *ClientHandshake) fail() {
	h.state = Failed
	primitives.ZeroBytes(h.ks[:])
	h.key.RSA = nil
	h.key.ECDSA = nil
}

func concat(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}
