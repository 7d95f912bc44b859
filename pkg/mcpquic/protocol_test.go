package mcpquic

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMagicBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := SendMagicBytes(&buf); err != nil {
		t.Fatalf("SendMagicBytes: %v", err)
	}
	if buf.String() != MagicBytesMCP {
		t.Fatalf("wrote %q", buf.String())
	}
	if err := ValidateMagicBytes(&buf); err != nil {
		t.Fatalf("ValidateMagicBytes: %v", err)
	}
}

func TestValidateMagicBytes_Wrong(t *testing.T) {
	err := ValidateMagicBytes(strings.NewReader("GET / HTTP/1.1"))
	if !errors.Is(err, ErrInvalidMagicBytes) {
		t.Fatalf("expected ErrInvalidMagicBytes, got %v", err)
	}
}

func TestValidateMagicBytes_Short(t *testing.T) {
	if err := ValidateMagicBytes(strings.NewReader("MC")); err == nil {
		t.Fatal("expected error for short preamble")
	}
}

func TestMessageScanner(t *testing.T) {
	sc := NewMessageScanner(strings.NewReader("{\"a\":1}\n\n{\"b\":2}"))
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{`{"a":1}`, "", `{"b":2}`}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMessageScanner_TooLarge(t *testing.T) {
	big := strings.Repeat("x", MaxMessageSize+1) + "\n"
	sc := NewMessageScanner(strings.NewReader(big))
	for sc.Scan() {
	}
	if !errors.Is(sc.Err(), bufio.ErrTooLong) {
		t.Fatalf("expected bufio.ErrTooLong, got %v", sc.Err())
	}
}

func TestClientTLSConfig(t *testing.T) {
	cfg := ClientTLSConfig(false)
	if len(cfg.NextProtos) != 1 || cfg.NextProtos[0] != ALPNProtocolMCP {
		t.Fatalf("NextProtos = %v", cfg.NextProtos)
	}
	if cfg.InsecureSkipVerify {
		t.Fatal("secure config should verify certificates")
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient("127.0.0.1:1", nil, "test")
	if _, err := c.ListTools(t.Context()); err == nil {
		t.Fatal("expected error before Connect")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
