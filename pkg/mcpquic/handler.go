package mcpquic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hazyhaar/wikipron/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
)

// Handler serves MCP sessions on QUIC connections accepted elsewhere. The
// chassis hands it every connection that negotiated ALPNProtocolMCP.
type Handler struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewHandler creates an MCP connection handler.
func NewHandler(mcpSrv *server.MCPServer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mcpServer: mcpSrv, logger: logger}
}

// ServeConn handles a single QUIC connection as one MCP session. It returns
// when the client closes its stream or ctx is canceled.
func (h *Handler) ServeConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		h.logger.Error("mcp: accept stream failed", "remote", remote, "error", err)
		conn.CloseWithError(ConnErrorProtocolViolation, "stream accept failed")
		return
	}

	if err := ValidateMagicBytes(stream); err != nil {
		h.logger.Warn("mcp: bad preamble", "remote", remote, "error", err)
		stream.CancelWrite(StreamErrorProtocolConfusion)
		stream.CancelRead(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "invalid magic bytes")
		return
	}

	sess := newSession("quic_"+uuid.NewString(), stream)
	if err := h.mcpServer.RegisterSession(ctx, sess); err != nil {
		h.logger.Error("mcp: session register failed", "session", sess.id, "error", err)
		stream.Close()
		return
	}
	defer h.mcpServer.UnregisterSession(ctx, sess.id)
	h.logger.Info("mcp session started", "session", sess.id, "remote", remote)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = kit.WithTransport(ctx, "mcp_quic")
	ctx = h.mcpServer.WithContext(ctx, sess)
	go sess.forwardNotifications(ctx)

	sc := NewMessageScanner(stream)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		response := h.mcpServer.HandleMessage(ctx, json.RawMessage(line))
		if response == nil {
			continue
		}
		if err := sess.write(response); err != nil {
			h.logger.Error("mcp: write failed", "session", sess.id, "error", err)
			break
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		if errors.Is(err, bufio.ErrTooLong) {
			stream.CancelRead(StreamErrorMessageTooLarge)
		}
		h.logger.Warn("mcp: read failed", "session", sess.id, "error", err)
	}

	stream.Close()
	h.logger.Info("mcp session ended", "session", sess.id, "remote", remote)
}

// session implements server.ClientSession for one QUIC stream. Responses and
// notifications share the stream, so writes are serialized.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	mu     sync.Mutex
	stream *quic.Stream
}

func newSession(id string, stream *quic.Stream) *session {
	return &session{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		stream:        stream,
	}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.stream.Write(data)
	return err
}

func (s *session) forwardNotifications(ctx context.Context) {
	for {
		select {
		case n := <-s.notifications:
			if err := s.write(n); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
