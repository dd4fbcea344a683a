// SPDX-License-Identifier: LGPL-3.0-or-later

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/securechan/securechan/internal/logger"
	"github.com/securechan/securechan/internal/metrics"
	"github.com/securechan/securechan/session"
)

// handleSessionTest processes /session/test: an echo endpoint that parses
// an inbound frame against the caller's established session and returns
// its plaintext. Real endpoints would route the decrypted payload to
// application logic instead of echoing it back.
func (s *Server) handleSessionTest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	clientID := r.Header.Get("X-Client-ID")
	if clientID == "" {
		writeError(w, fmt.Errorf("%w: missing X-Client-ID", ErrProtocolViolation))
		return
	}

	sess, ok := s.sessMgr.GetSession(clientID)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown or expired session", ErrAuthentication))
		return
	}

	var wire session.FrameWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, fmt.Errorf("%w: decode frame: %v", ErrProtocolViolation, err))
		return
	}

	payload, _, err := sess.Parse(wire, s.sessMgr.ReplayChecker(), s.cfg.FrameSkew)
	metrics.FrameProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Debug("session: parse frame failed", logger.Error(err), logger.String("client_id", clientID))
		metrics.FramesProcessed.WithLabelValues("rejected").Inc()
		if errors.Is(err, session.ErrReplay) {
			metrics.ReplayAttacksDetected.Inc()
		}
		writeError(w, err)
		return
	}
	metrics.FramesProcessed.WithLabelValues("accepted").Inc()

	writeJSON(w, http.StatusOK, struct {
		Plaintext string `json:"plaintext"`
	}{Plaintext: string(payload)})
}
