// SPDX-License-Identifier: LGPL-3.0-or-later

package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/securechan/securechan/handshake"
	"github.com/securechan/securechan/internal/logger"
	"github.com/securechan/securechan/internal/metrics"
	"github.com/securechan/securechan/internal/primitives"
	"github.com/securechan/securechan/internal/store"
)

// handleInit processes /handshake/init: it mints a fresh client_id,
// validates signature1 and builds the M1 response (InitResponse), then persists enough
// state in the PendingStore to reconstruct the handshake when the matching
// /handshake/finalize request arrives — the HTTP binding is stateless per
// request, so nothing is kept tied to this goroutine.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.HandshakesInitiated.WithLabelValues("server").Inc()

	var req handshake.InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode init request: %v", ErrProtocolViolation, err))
		return
	}

	// Invariant 2: a nonce1 already in flight (or recently completed) is a
	// replay of a prior M1, regardless of what client_id gets minted below.
	if err := s.checkNonceReplay(r.Context(), "nonce1:"+req.Nonce1); err != nil {
		s.log.Debug("handshake: nonce1 replay detected", logger.Error(err))
		metrics.HandshakesFailed.WithLabelValues("replay").Inc()
		writeError(w, fmt.Errorf("%w: nonce1 already used", ErrReplay))
		return
	}

	clientID := uuid.NewString()
	sh, err := handshake.NewServerHandshake(clientID)
	if err != nil {
		s.log.Error("handshake: generate server keys", logger.Error(err))
		writeError(w, fmt.Errorf("%w: key generation", ErrTransport))
		return
	}

	resp, err := sh.ProcessInit(req)
	if err != nil {
		s.log.Debug("handshake: process init failed", logger.Error(err), logger.String("client_id", clientID))
		metrics.HandshakesFailed.WithLabelValues("protocol_violation").Inc()
		writeError(w, err)
		return
	}

	if err := s.savePending(r, sh); err != nil {
		s.log.Error("handshake: save pending state", logger.Error(err))
		writeError(w, fmt.Errorf("%w: store pending handshake", ErrTransport))
		return
	}

	metrics.HandshakeDuration.WithLabelValues("process_m1").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

// handleFinalize processes /handshake/finalize: reconstructs the pending
// ServerHandshake from store state, verifies signature3, and establishes a
// session.Session keyed by client_id, seeded from the derived K_enc/K_mac.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	clientID := r.Header.Get("X-Client-ID")
	if clientID == "" {
		writeError(w, fmt.Errorf("%w: missing X-Client-ID", ErrProtocolViolation))
		return
	}

	var req handshake.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode finalize request: %v", ErrProtocolViolation, err))
		return
	}

	sh, err := s.loadPending(r, clientID)
	if err != nil {
		writeError(w, fmt.Errorf("%w: unknown or expired client_id", ErrProtocolViolation))
		return
	}

	resp, result, err := sh.ProcessFinalize(req)
	if err != nil {
		s.log.Debug("handshake: process finalize failed", logger.Error(err), logger.String("client_id", clientID))
		metrics.HandshakesFailed.WithLabelValues("protocol_violation").Inc()
		_ = s.store.Pending().Delete(r.Context(), clientID)
		writeError(w, err)
		return
	}

	// Invariant 2: reject a reused nonce3 the same way as a reused nonce1.
	nonce3Key := "nonce3:" + primitives.Base64Encode(result.Nonce3[:])
	if err := s.checkNonceReplay(r.Context(), nonce3Key); err != nil {
		s.log.Debug("handshake: nonce3 replay detected", logger.Error(err), logger.String("client_id", clientID))
		metrics.HandshakesFailed.WithLabelValues("replay").Inc()
		_ = s.store.Pending().Delete(r.Context(), clientID)
		writeError(w, fmt.Errorf("%w: nonce3 already used", ErrReplay))
		return
	}

	keys, err := s.deriver.Derive(result.SharedSecret[:])
	primitives.ZeroBytes(result.SharedSecret[:])
	if err != nil {
		s.log.Error("handshake: derive session keys", logger.Error(err))
		writeError(w, fmt.Errorf("%w: key derivation", ErrTransport))
		return
	}

	if _, err := s.sessMgr.CreateSession(clientID, keys, sh.ECDSAPrivateKey(), sh.ClientVerifyKey()); err != nil {
		s.log.Error("handshake: create session", logger.Error(err), logger.String("client_id", clientID))
		writeError(w, fmt.Errorf("%w: duplicate client_id", ErrProtocolViolation))
		return
	}
	metrics.SessionsCreated.WithLabelValues("success").Inc()
	metrics.SessionsActive.Inc()
	metrics.HandshakesCompleted.WithLabelValues("success").Inc()

	_ = s.store.Pending().Delete(r.Context(), clientID)
	metrics.HandshakeDuration.WithLabelValues("finalize").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

// savePending DER-encodes the handshake's ephemeral keys and client public
// keys and persists them so handleFinalize can rebuild the same
// ServerHandshake from a different request.
func (s *Server) savePending(r *http.Request, sh *handshake.ServerHandshake) error {
	rsaDER, err := primitives.MarshalPrivateKeyDER(sh.RSAPrivateKey())
	if err != nil {
		return err
	}
	ecDER, err := primitives.MarshalPrivateKeyDER(sh.ECDSAPrivateKey())
	if err != nil {
		return err
	}
	clientRSADER, err := primitives.MarshalRSAPublicKeyDER(sh.ClientRSAPub())
	if err != nil {
		return err
	}
	clientECDSADER, err := primitives.MarshalECDSAPublicKeyDER(sh.ClientVerifyKey())
	if err != nil {
		return err
	}
	nonce1 := sh.Nonce1()
	nonce2 := sh.Nonce2()

	now := time.Now()
	return s.store.Pending().Create(r.Context(), &store.PendingHandshake{
		ClientID:       sh.ClientID(),
		RSAPrivDER:     rsaDER,
		ECDSAPrivDER:   ecDER,
		RSAPubClient:   clientRSADER,
		ECDSAPubClient: clientECDSADER,
		Nonce1:         nonce1[:],
		Nonce2:         nonce2[:],
		CreatedAt:      now,
		ExpiresAt:      now.Add(pendingTTL),
	})
}

// loadPending reverses savePending.
func (s *Server) loadPending(r *http.Request, clientID string) (*handshake.ServerHandshake, error) {
	p, err := s.store.Pending().Get(r.Context(), clientID)
	if err != nil {
		return nil, err
	}

	rsaPriv, err := primitives.ParseRSAPrivateKeyDER(p.RSAPrivDER)
	if err != nil {
		return nil, err
	}
	ecPriv, err := primitives.ParseECDSAPrivateKeyDER(p.ECDSAPrivDER)
	if err != nil {
		return nil, err
	}
	clientRSAPub, err := primitives.ParseRSAPublicKeyDER(p.RSAPubClient)
	if err != nil {
		return nil, err
	}
	clientECDSAPub, err := primitives.ParseECDSAPublicKeyDER(p.ECDSAPubClient)
	if err != nil {
		return nil, err
	}

	var nonce1, nonce2 [8]byte
	copy(nonce1[:], p.Nonce1)
	copy(nonce2[:], p.Nonce2)

	return handshake.RestoreServerHandshake(clientID, rsaPriv, ecPriv, clientRSAPub, clientECDSAPub, nonce1, nonce2), nil
}

// checkNonceReplay records key in the nonce store, failing if it was
// already recorded within its TTL. Backs invariant 2's (client_id, nonce1)
// and (client_id, nonce3) uniqueness by scoping the stored key to which of
// the two it is — nonce1 has no client_id yet when it arrives, so the key
// alone is what stands in for "already used server-side".
func (s *Server) checkNonceReplay(ctx context.Context, key string) error {
	return s.store.Nonces().CheckAndStore(ctx, key, time.Now().Add(s.cfg.NonceTTL))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
