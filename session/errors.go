// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import "errors"

// ErrProtocolViolation covers a frame's client_signature failing
// verification against the sender's known ECDSA public key.
var ErrProtocolViolation = errors.New("session: protocol violation")

// ErrFrameRejected is returned for a MAC mismatch, a padding error, or any
// other malformed-ciphertext condition. These are deliberately not
// distinguished from one another: separate error messages for MAC vs.
// padding failures would give an attacker a decryption oracle.
var ErrFrameRejected = errors.New("session: frame rejected")

// ErrReplay is returned when a frame's (client_id, nonce) pair has already
// been accepted.
var ErrReplay = errors.New("session: replay detected")

// ErrStale is returned when a frame's timestamp falls outside the
// configured freshness skew.
var ErrStale = errors.New("session: frame outside freshness window")
