package wsproto

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeFrameUnmaskedHasNoMaskBit(t *testing.T) {
	raw, err := EncodeFrame(OpText, []byte("hi"), false)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if raw[1]&maskBit != 0 {
		t.Fatalf("unmasked frame must not set mask bit")
	}
}

func TestEncodeFrameMaskedSetsMaskBitAndObscuresPayload(t *testing.T) {
	payload := []byte("secret")
	raw, err := EncodeFrame(OpText, payload, true)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if raw[1]&maskBit == 0 {
		t.Fatalf("masked frame must set mask bit")
	}
	wireStart := 2 + 4
	if bytes.Equal(raw[wireStart:], payload) {
		t.Fatalf("masked payload should not equal plaintext on the wire")
	}
}

func TestEncodeFrameRoundTripsThroughFrameParser(t *testing.T) {
	for _, mask := range []bool{false, true} {
		raw, err := EncodeFrame(OpBinary, []byte("round trip payload"), mask)
		if err != nil {
			t.Fatalf("EncodeFrame(mask=%v): %v", mask, err)
		}
		p := NewFrameParser(1024)
		if _, err := p.Consume(raw); err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if !p.Done() {
			t.Fatalf("expected frame complete")
		}
		f := p.Frame()
		if string(f.Payload) != "round trip payload" {
			t.Fatalf("mask=%v: payload mismatch %q", mask, f.Payload)
		}
		if f.Masked != mask {
			t.Fatalf("mask=%v: Masked flag mismatch", mask)
		}
	}
}

func TestEncodeFrameChoosesLengthEncodingByPayloadSize(t *testing.T) {
	small, _ := EncodeFrame(OpBinary, make([]byte, 10), false)
	if len(small) != 2+10 {
		t.Fatalf("small frame header should be 2 bytes, got total len %d", len(small))
	}

	medium, _ := EncodeFrame(OpBinary, make([]byte, 200), false)
	if medium[1] != 126 {
		t.Fatalf("medium frame should use 126 length prefix, got %d", medium[1])
	}

	large, _ := EncodeFrame(OpBinary, make([]byte, 70000), false)
	if large[1] != 127 {
		t.Fatalf("large frame should use 127 length prefix, got %d", large[1])
	}
}

func TestEncodeCloseTruncatesReasonToControlLimit(t *testing.T) {
	longReason := string(make([]byte, 200))
	raw, err := EncodeClose(CloseNormal, longReason, false)
	if err != nil {
		t.Fatalf("EncodeClose: %v", err)
	}
	p := NewFrameParser(1024)
	if _, err := p.Consume(raw); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	f := p.Frame()
	if len(f.Payload) > MaxControlPayload {
		t.Fatalf("close payload %d exceeds control limit %d", len(f.Payload), MaxControlPayload)
	}
}

func TestEncodeCloseEncodesCodeBigEndian(t *testing.T) {
	raw, err := EncodeClose(CloseGoingAway, "bye", false)
	if err != nil {
		t.Fatalf("EncodeClose: %v", err)
	}
	p := NewFrameParser(1024)
	if _, err := p.Consume(raw); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	f := p.Frame()
	code := binary.BigEndian.Uint16(f.Payload[:2])
	if int(code) != CloseGoingAway {
		t.Fatalf("code mismatch: got %d want %d", code, CloseGoingAway)
	}
	if string(f.Payload[2:]) != "bye" {
		t.Fatalf("reason mismatch: %q", f.Payload[2:])
	}
}

func TestParseCloseReceivedEmptyPayloadIsNormal(t *testing.T) {
	if got := ParseCloseReceived(nil); got != CloseNormal {
		t.Fatalf("expected CloseNormal for empty payload, got %d", got)
	}
}

func TestParseCloseReceivedSingleByteIsProtocolError(t *testing.T) {
	if got := ParseCloseReceived([]byte{1}); got != CloseProtocolError {
		t.Fatalf("expected CloseProtocolError for truncated code, got %d", got)
	}
}

func TestParseCloseReceivedRejectsInvalidCodeToSend(t *testing.T) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, 1005) // CloseNoStatus must never appear on the wire
	if got := ParseCloseReceived(payload); got != CloseProtocolError {
		t.Fatalf("expected CloseProtocolError for reserved code, got %d", got)
	}
}

func TestParseCloseReceivedRejectsReservedCode1004(t *testing.T) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, 1004) // reserved, must never appear on the wire
	if got := ParseCloseReceived(payload); got != CloseProtocolError {
		t.Fatalf("expected CloseProtocolError for reserved code 1004, got %d", got)
	}
}

func TestParseCloseReceivedRejectsInvalidUTF8Reason(t *testing.T) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, CloseNormal)
	payload = append(payload, 0xff, 0xfe) // invalid UTF-8
	if got := ParseCloseReceived(payload); got != CloseProtocolError {
		t.Fatalf("expected CloseProtocolError for invalid UTF-8 reason, got %d", got)
	}
}

func TestParseCloseReceivedValidCodeAndReason(t *testing.T) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, CloseNormal)
	payload = append(payload, "done"...)
	if got := ParseCloseReceived(payload); got != CloseNormal {
		t.Fatalf("expected CloseNormal, got %d", got)
	}
}
