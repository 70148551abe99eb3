// File: wsproto/write.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsproto

import (
	"crypto/rand"
	"encoding/binary"
	"unicode/utf8"
)

// EncodeFrame serializes a single frame with the given opcode and payload.
// mask selects client framing (masked, with a freshly drawn key) versus
// server framing (unmasked), per spec.md §4.8 "Write framing".
func EncodeFrame(opcode Opcode, payload []byte, mask bool) ([]byte, error) {
	plen := len(payload)
	b0 := byte(finBit) | byte(opcode&0x0F)

	var hdr []byte
	switch {
	case plen <= 125:
		b1 := byte(plen)
		if mask {
			b1 |= maskBit
		}
		hdr = []byte{b0, b1}
	case plen <= 0xFFFF:
		b1 := byte(126)
		if mask {
			b1 |= maskBit
		}
		hdr = make([]byte, 4)
		hdr[0], hdr[1] = b0, b1
		binary.BigEndian.PutUint16(hdr[2:], uint16(plen))
	default:
		b1 := byte(127)
		if mask {
			b1 |= maskBit
		}
		hdr = make([]byte, 10)
		hdr[0], hdr[1] = b0, b1
		binary.BigEndian.PutUint64(hdr[2:], uint64(plen))
	}

	var maskKey [4]byte
	if mask {
		if _, err := rand.Read(maskKey[:]); err != nil {
			return nil, err
		}
		hdr = append(hdr, maskKey[:]...)
	}

	out := make([]byte, len(hdr)+plen)
	copy(out, hdr)
	if mask {
		for i, b := range payload {
			out[len(hdr)+i] = b ^ maskKey[i%4]
		}
	} else {
		copy(out[len(hdr):], payload)
	}
	return out, nil
}

// EncodeClose builds a close frame carrying code and reason, truncating
// the combined payload to the 125-byte control-frame limit (spec.md §4.8).
func EncodeClose(code int, reason string, mask bool) ([]byte, error) {
	payload := make([]byte, 2, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	payload = append(payload, reason...)
	if len(payload) > MaxControlPayload {
		payload = payload[:MaxControlPayload]
	}
	return EncodeFrame(OpClose, payload, mask)
}

// ParseCloseReceived interprets a received close frame's payload per the
// receiver-side close protocol in spec.md §4.8, returning the close code
// this endpoint should echo back.
func ParseCloseReceived(payload []byte) (echoCode int) {
	switch {
	case len(payload) == 0:
		return CloseNormal
	case len(payload) == 1:
		return CloseProtocolError
	default:
		code := int(binary.BigEndian.Uint16(payload[:2]))
		if !validCloseCodeToSend(code) {
			return CloseProtocolError
		}
		if len(payload) == 2 {
			return CloseNormal
		}
		if !utf8.Valid(payload[2:]) {
			return CloseProtocolError
		}
		return CloseNormal
	}
}
