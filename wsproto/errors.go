// File: wsproto/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsproto

import "errors"

// ErrMessageTooBig is wrapped into any error returned because a single
// frame's payload, or a fragmented message's assembled total, exceeds the
// configured size limit. Callers use errors.Is against this sentinel to
// tell an oversize condition apart from other protocol errors, since the
// two must close the connection with different codes (spec.md §4.8):
// CloseMessageTooBig (1009) instead of CloseProtocolError (1002).
var ErrMessageTooBig = errors.New("wsproto: message exceeds size limit")
