package wsproto

import (
	"strings"
	"testing"
)

func TestHeadersCompleteDetectsTerminator(t *testing.T) {
	if HeadersComplete([]byte("GET / HTTP/1.1\r\nHost: x\r\n")) {
		t.Fatalf("should not be complete without trailing CRLF CRLF")
	}
	if !HeadersComplete([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")) {
		t.Fatalf("should be complete with trailing CRLF CRLF")
	}
}

func TestParseRequestSucceedsOnValidUpgrade(t *testing.T) {
	key, err := NewClientKey()
	if err != nil {
		t.Fatalf("NewClientKey: %v", err)
	}
	raw := BuildUpgradeRequest("example.com", "/chat", key)
	gotKey, headerLen, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if gotKey != key {
		t.Fatalf("key mismatch: got %q want %q", gotKey, key)
	}
	if headerLen != len(raw) {
		t.Fatalf("headerLen %d != full request length %d", headerLen, len(raw))
	}
}

func TestParseRequestRejectsMissingUpgradeHeader(t *testing.T) {
	raw := []byte("GET /chat HTTP/1.1\r\nHost: example.com\r\nSec-WebSocket-Key: abc\r\nSec-WebSocket-Version: 13\r\nConnection: Upgrade\r\n\r\n")
	_, _, err := ParseRequest(raw)
	if err == nil {
		t.Fatalf("expected error for missing Upgrade header")
	}
}

func TestParseRequestRejectsWrongVersion(t *testing.T) {
	raw := []byte("GET /chat HTTP/1.1\r\nHost: example.com\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: abc\r\nSec-WebSocket-Version: 8\r\n\r\n")
	_, _, err := ParseRequest(raw)
	if err == nil {
		t.Fatalf("expected error for unsupported version")
	}
}

func TestParseRequestRejectsIncompleteBuffer(t *testing.T) {
	raw := []byte("GET /chat HTTP/1.1\r\nHost: example.com\r\n")
	_, _, err := ParseRequest(raw)
	if err == nil {
		t.Fatalf("expected error for incomplete header block")
	}
}

func TestParseResponseSucceedsWithMatchingAcceptKey(t *testing.T) {
	key, _ := NewClientKey()
	raw := BuildUpgradeResponse(key)
	headerLen, err := ParseResponse(raw, key)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if headerLen != len(raw) {
		t.Fatalf("headerLen mismatch: got %d want %d", headerLen, len(raw))
	}
}

func TestParseResponseRejectsMismatchedAcceptKey(t *testing.T) {
	key, _ := NewClientKey()
	raw := BuildUpgradeResponse(key)
	otherKey, _ := NewClientKey()
	_, err := ParseResponse(raw, otherKey)
	if err == nil {
		t.Fatalf("expected error for Sec-WebSocket-Accept mismatch")
	}
}

func TestAcceptKeyMatchesRFC6455Example(t *testing.T) {
	// The canonical example from RFC 6455 §1.3.
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("AcceptKey mismatch: got %q want %q", got, want)
	}
}

func TestBuildBadRequestIncludesReason(t *testing.T) {
	raw := BuildBadRequest("missing key")
	if !strings.Contains(string(raw), "400 Bad Request") {
		t.Fatalf("expected 400 status line in %q", raw)
	}
	if !strings.HasSuffix(string(raw), "missing key") {
		t.Fatalf("expected body to contain reason, got %q", raw)
	}
}
