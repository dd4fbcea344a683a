// SPDX-License-Identifier: LGPL-3.0-or-later

package handshake

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/securechan/securechan/internal/primitives"
)

// ServerHandshake drives one server-side handshake attempt for a single
// client_id. Like ClientHandshake, it is not safe for concurrent use — the
// reference server keeps one instance per in-flight client_id, never
// shared across goroutines; concurrency across distinct client_ids is the
// caller's responsibility (internal/store guards that).
type ServerHandshake struct {
	clientID string
	key      KeyMaterial

	clientRSAPub   *rsa.PublicKey
	clientECDSAPub *ecdsa.PublicKey

	nonce1 [8]byte
	nonce2 [8]byte
}

// NewServerHandshake generates a fresh ephemeral RSA-3072/ECDSA-P256
// keypair for clientID and returns a handshake ready to process M1.
func NewServerHandshake(clientID string) (*ServerHandshake, error) {
	rsaKey, err := primitives.GenerateRSAKey()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate server rsa key: %w", err)
	}
	ecKey, err := primitives.GenerateECDSAKey()
	if err != nil {
		return nil, fmt.Errorf("handshake: generate server ecdsa key: %w", err)
	}
	return &ServerHandshake{
		clientID: clientID,
		key:      KeyMaterial{RSA: rsaKey, ECDSA: ecKey},
	}, nil
}

// ProcessInit validates M1's signature1 and builds the M1 response (InitResponse):
// the server's ephemeral public keys, a fresh nonce2, and signature2 over
// rsa_pub_server_der || ecdsa_pub_server_der || nonce2 || nonce1 ||
// client_id.
func (h *ServerHandshake) ProcessInit(req InitRequest) (InitResponse, error) {
	rsaClientDER, err := primitives.Base64Decode(req.RSAPubClient)
	if err != nil {
		return InitResponse{}, fmt.Errorf("%w: decode rsa_pub_client: %v", ErrProtocolViolation, err)
	}
	ecClientDER, err := primitives.Base64Decode(req.ECDSAPubClient)
	if err != nil {
		return InitResponse{}, fmt.Errorf("%w: decode ecdsa_pub_client: %v", ErrProtocolViolation, err)
	}
	nonce1, err := primitives.Base64Decode(req.Nonce1)
	if err != nil || len(nonce1) != 8 {
		return InitResponse{}, fmt.Errorf("%w: decode nonce1", ErrProtocolViolation)
	}
	sig1, err := primitives.Base64Decode(req.Signature1)
	if err != nil {
		return InitResponse{}, fmt.Errorf("%w: decode signature1: %v", ErrProtocolViolation, err)
	}

	clientRSAPub, err := primitives.ParseRSAPublicKeyDER(rsaClientDER)
	if err != nil {
		return InitResponse{}, fmt.Errorf("%w: parse rsa_pub_client: %v", ErrProtocolViolation, err)
	}
	clientECDSAPub, err := primitives.ParseECDSAPublicKeyDER(ecClientDER)
	if err != nil {
		return InitResponse{}, fmt.Errorf("%w: parse ecdsa_pub_client: %v", ErrProtocolViolation, err)
	}

	covered := concat(rsaClientDER, ecClientDER, nonce1)
	if !primitives.ECDSAVerify(clientECDSAPub, covered, sig1) {
		return InitResponse{}, fmt.Errorf("%w: signature1 verification failed", ErrProtocolViolation)
	}

	h.clientRSAPub = clientRSAPub
	h.clientECDSAPub = clientECDSAPub
	copy(h.nonce1[:], nonce1)

	rsaServerDER, err := primitives.MarshalRSAPublicKeyDER(&h.key.RSA.PublicKey)
	if err != nil {
		return InitResponse{}, fmt.Errorf("handshake: marshal server rsa pub: %w", err)
	}
	ecServerDER, err := primitives.MarshalECDSAPublicKeyDER(&h.key.ECDSA.PublicKey)
	if err != nil {
		return InitResponse{}, fmt.Errorf("handshake: marshal server ecdsa pub: %w", err)
	}

	nonce2, err := primitives.RandomBytes(8)
	if err != nil {
		return InitResponse{}, fmt.Errorf("handshake: nonce2: %w", err)
	}
	copy(h.nonce2[:], nonce2)

	toSign := concat(rsaServerDER, ecServerDER, h.nonce2[:], h.nonce1[:], []byte(h.clientID))
	sig2, err := primitives.ECDSASign(h.key.ECDSA, toSign)
	if err != nil {
		return InitResponse{}, fmt.Errorf("handshake: sign m1 response: %w", err)
	}

	return InitResponse{
		ClientID:       h.clientID,
		RSAPubServer:   primitives.Base64Encode(rsaServerDER),
		ECDSAPubServer: primitives.Base64Encode(ecServerDER),
		Nonce2:         primitives.Base64Encode(nonce2),
		Signature2:     primitives.Base64Encode(sig2),
	}, nil
}

// ProcessFinalize decrypts M2's RSA-OAEP blob, verifies signature3 against
// it, and produces M2's response: signature4 over the same blob, and the
// now-established shared secret KS for the caller to hand to the key
// schedule and session layers.
func (h *ServerHandshake) ProcessFinalize(req FinalizeRequest) (FinalizeResponse, Result, error) {
	if h.clientRSAPub == nil || h.clientECDSAPub == nil {
		return FinalizeResponse{}, Result{}, ErrWrongState
	}

	encrypted, err := primitives.Base64Decode(req.Encrypted)
	if err != nil {
		return FinalizeResponse{}, Result{}, fmt.Errorf("%w: decode encrypted: %v", ErrProtocolViolation, err)
	}
	sig3, err := primitives.Base64Decode(req.Signature3)
	if err != nil {
		return FinalizeResponse{}, Result{}, fmt.Errorf("%w: decode signature3: %v", ErrProtocolViolation, err)
	}

	blob, err := primitives.RSAOAEPDecrypt(h.key.RSA, encrypted)
	if err != nil {
		return FinalizeResponse{}, Result{}, fmt.Errorf("%w: rsa-oaep decrypt failed: %v", ErrProtocolViolation, err)
	}
	if len(blob) != 32+8+8 {
		return FinalizeResponse{}, Result{}, fmt.Errorf("%w: m2 blob has unexpected length %d", ErrProtocolViolation, len(blob))
	}

	var ks [32]byte
	copy(ks[:], blob[:32])
	nonce3 := blob[32:40]
	nonce2 := blob[40:48]

	if !primitives.ConstantTimeEqual(nonce2, h.nonce2[:]) {
		primitives.ZeroBytes(ks[:])
		return FinalizeResponse{}, Result{}, fmt.Errorf("%w: nonce2 mismatch in m2 blob", ErrProtocolViolation)
	}

	if !primitives.ECDSAVerify(h.clientECDSAPub, blob, sig3) {
		primitives.ZeroBytes(ks[:])
		return FinalizeResponse{}, Result{}, fmt.Errorf("%w: signature3 verification failed", ErrProtocolViolation)
	}

	sig4, err := primitives.ECDSASign(h.key.ECDSA, blob)
	if err != nil {
		primitives.ZeroBytes(ks[:])
		return FinalizeResponse{}, Result{}, fmt.Errorf("handshake: sign signature4: %w", err)
	}

	result := Result{
		ClientID:        h.clientID,
		SharedSecret:    ks,
		ClientSignKey:   nil, // server never holds the client's private key
		ServerVerifyKey: &h.key.ECDSA.PublicKey,
	}
	copy(result.Nonce3[:], nonce3)

	h.key.RSA = nil
	return FinalizeResponse{Signature4: primitives.Base64Encode(sig4)}, result, nil
}

// ClientVerifyKey returns the client's ephemeral ECDSA public key, learned
// from M1, for the caller to stash in the established Session so inbound
// frames can be verified against it.
func (h *ServerHandshake) ClientVerifyKey() *ecdsa.PublicKey {
	return h.clientECDSAPub
}

// SignKey returns the server's ephemeral ECDSA private key, for the caller
// to use when signing outbound session frames.
func (h *ServerHandshake) SignKey() *ecdsa.PrivateKey {
	return h.key.ECDSA
}

// ClientID returns the client_id this handshake was created for.
func (h *ServerHandshake) ClientID() string { return h.clientID }

// RSAPrivateKey returns the server's ephemeral RSA private key, or nil once
// ProcessFinalize has consumed it.
func (h *ServerHandshake) RSAPrivateKey() *rsa.PrivateKey { return h.key.RSA }

// ECDSAPrivateKey returns the server's ephemeral ECDSA private key.
func (h *ServerHandshake) ECDSAPrivateKey() *ecdsa.PrivateKey { return h.key.ECDSA }

// ClientRSAPub returns the client's ephemeral RSA public key, learned from
// M1.
func (h *ServerHandshake) ClientRSAPub() *rsa.PublicKey { return h.clientRSAPub }

// Nonce1 returns the client's M1 nonce.
func (h *ServerHandshake) Nonce1() [8]byte { return h.nonce1 }

// Nonce2 returns the server's M1-response nonce.
func (h *ServerHandshake) Nonce2() [8]byte { return h.nonce2 }

// RestoreServerHandshake rebuilds a ServerHandshake from state persisted
// between /handshake/init and /handshake/finalize — the HTTP binding is
// stateless per request, so the reference server round-trips this state
// through internal/store.PendingStore rather than keeping it in memory
// tied to a single request's goroutine.
func RestoreServerHandshake(
	clientID string,
	rsaPriv *rsa.PrivateKey,
	ecdsaPriv *ecdsa.PrivateKey,
	clientRSAPub *rsa.PublicKey,
	clientECDSAPub *ecdsa.PublicKey,
	nonce1, nonce2 [8]byte,
) *ServerHandshake {
	return &ServerHandshake{
		clientID:       clientID,
		key:            KeyMaterial{RSA: rsaPriv, ECDSA: ecdsaPriv},
		clientRSAPub:   clientRSAPub,
		clientECDSAPub: clientECDSAPub,
		nonce1:         nonce1,
		nonce2:         nonce2,
	}
}
