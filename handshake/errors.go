// SPDX-License-Identifier: LGPL-3.0-or-later

package handshake

import "errors"

// ErrWrongState is returned when a handshake method is called out of
// sequence (e.g. Finalize before Init, or any method after Failed).
var ErrWrongState = errors.New("handshake: called out of sequence")

// ErrProtocolViolation covers signature verification failures, malformed
// DER, and OAEP decrypt failures — any of which is fatal for the current
// handshake attempt.
var ErrProtocolViolation = errors.New("handshake: protocol violation")
