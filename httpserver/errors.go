// SPDX-License-Identifier: LGPL-3.0-or-later

// Package httpserver is the reference HTTP peer for the securechan
// handshake, session-frame and file-AE protocols: a gorilla/mux router
// wiring /handshake/init, /handshake/finalize, /session/test and
// /files/one/encrypted to the handshake, session and fileae packages.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/securechan/securechan/fileae"
	"github.com/securechan/securechan/handshake"
	"github.com/securechan/securechan/session"
)

// Error taxonomy per the protocol's error handling design. Each is wrapped
// with fmt.Errorf("...: %w", ErrX) at the point of detection and mapped to
// an HTTP status by statusFor below.
var (
	ErrProtocolViolation = errors.New("securechan: protocol violation")
	ErrReplay            = errors.New("securechan: replay detected")
	ErrAuthentication    = errors.New("securechan: authentication failed")
	ErrRateLimited       = errors.New("securechan: rate limited")
	ErrTransport         = errors.New("securechan: transport error")
	ErrNotFound          = errors.New("securechan: resource not found")
)

// errorResponse is the JSON body written alongside a non-200 status. It
// deliberately carries only a generic message — the specific failing step
// is never disclosed to the remote peer, per the taxonomy's "do not leak
// which step failed" rule.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to a status code via the taxonomy and writes a JSON
// error body. The caller's logger.Debug call (not here) is where the full
// underlying cause belongs; this function only ever writes the generic
// message budgeted for the wire.
func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrReplay):
		return http.StatusConflict, "replay detected"
	case errors.Is(err, ErrAuthentication):
		return http.StatusForbidden, "authentication failed"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate limited"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ErrProtocolViolation),
		errors.Is(err, handshake.ErrProtocolViolation),
		errors.Is(err, handshake.ErrWrongState),
		errors.Is(err, session.ErrProtocolViolation),
		errors.Is(err, session.ErrFrameRejected),
		errors.Is(err, session.ErrStale),
		errors.Is(err, fileae.ErrIntegrityFailure):
		return http.StatusBadRequest, "malformed or rejected request"
	case errors.Is(err, session.ErrReplay):
		return http.StatusConflict, "replay detected"
	case errors.Is(err, ErrTransport):
		return http.StatusBadGateway, "transport error"
	default:
		return http.StatusBadRequest, "bad request"
	}
}
