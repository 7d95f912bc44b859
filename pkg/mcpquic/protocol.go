// Package mcpquic carries MCP JSON-RPC over a single bidirectional QUIC
// stream. The client opens the stream, writes the magic bytes, then both
// sides exchange newline-delimited JSON messages.
package mcpquic

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	ALPNProtocolMCP    = "wikipron-mcp-v1"
	MagicBytesMCP      = "MCP1"
	MaxMessageSize     = 4 * 1024 * 1024
	DefaultIdleTimeout = 5 * time.Minute
	DefaultKeepAlive   = 30 * time.Second
)

// QUIC stream-level error codes
const (
	StreamErrorNoError           quic.StreamErrorCode = 0x00
	StreamErrorProtocolConfusion quic.StreamErrorCode = 0x02
	StreamErrorMessageTooLarge   quic.StreamErrorCode = 0x03
)

// QUIC connection-level error codes
const (
	ConnErrorNoError           quic.ApplicationErrorCode = 0x00
	ConnErrorUnsupportedALPN   quic.ApplicationErrorCode = 0x01
	ConnErrorProtocolViolation quic.ApplicationErrorCode = 0x03
)

var (
	ErrInvalidMagicBytes = errors.New("invalid magic bytes")
	ErrUnsupportedALPN   = errors.New("ALPN negotiation failed: " + ALPNProtocolMCP + " not selected")
)

// QUICConfig returns the transport settings shared by server and client.
func QUICConfig() *quic.Config {
	return &quic.Config{
		MaxStreamReceiveWindow:     10 * 1024 * 1024,
		MaxConnectionReceiveWindow: 50 * 1024 * 1024,
		MaxIdleTimeout:             DefaultIdleTimeout,
		KeepAlivePeriod:            DefaultKeepAlive,
	}
}

// ClientTLSConfig returns a TLS 1.3 config negotiating the MCP ALPN.
// insecure skips certificate verification, for self-signed development servers.
func ClientTLSConfig(insecure bool) *tls.Config {
	return &tls.Config{
		NextProtos:         []string{ALPNProtocolMCP},
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: insecure,
	}
}

// ValidateMagicBytes reads the stream preamble and checks it.
func ValidateMagicBytes(r io.Reader) error {
	magic := make([]byte, len(MagicBytesMCP))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read magic bytes: %w", err)
	}
	if !bytes.Equal(magic, []byte(MagicBytesMCP)) {
		return fmt.Errorf("%w: got %q", ErrInvalidMagicBytes, magic)
	}
	return nil
}

// NewMessageScanner splits r into newline-delimited messages of at most
// MaxMessageSize bytes. Longer messages stop the scan with bufio.ErrTooLong.
func NewMessageScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	return sc
}

// SendMagicBytes writes the stream preamble. The client sends it right after
// opening the stream.
func SendMagicBytes(w io.Writer) error {
	if _, err := io.WriteString(w, MagicBytesMCP); err != nil {
		return fmt.Errorf("write magic bytes: %w", err)
	}
	return nil
}
