// SPDX-License-Identifier: LGPL-3.0-or-later

package fileae

import "errors"

// ErrIntegrityFailure is returned for a tag mismatch, truncated blob, or
// padding error on decrypt. As with session frames, these are not
// distinguished from one another to avoid giving an attacker an oracle.
var ErrIntegrityFailure = errors.New("fileae: integrity failure")
