// Package chassis runs the wikipron HTTP surface and, with TLS, the QUIC
// transports on the same port:
//   - TCP: HTTP/1.1 + HTTP/2 (REST API and MCP over streamable HTTP)
//   - UDP: QUIC demuxed by ALPN, "h3" to HTTP/3 and mcpquic.ALPNProtocolMCP
//     to MCP over a QUIC stream
//
// Plaintext mode serves HTTP/1.1 on TCP only.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hazyhaar/wikipron/pkg/mcpquic"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string // TCP and UDP listen address, e.g. ":8420"
	Plaintext bool
	TLS       *tls.Config // nil = load CertFile/KeyFile, or a self-signed cert
	CertFile  string
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	// ShutdownTimeout bounds the graceful stop once the context is done.
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server is the unified chassis.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	tlsCfg     *tls.Config
	mcpHandler *mcpquic.Handler

	mu        sync.Mutex
	tcpLn     net.Listener
	quicLn    *quic.Listener
	tcpServer *http.Server
	h3Server  *http3.Server
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	if cfg.Plaintext {
		return s, nil
	}

	s.tlsCfg = cfg.TLS
	if s.tlsCfg == nil {
		var err error
		if cfg.CertFile != "" && cfg.KeyFile != "" {
			if s.tlsCfg, err = ProductionTLSConfig(cfg.CertFile, cfg.KeyFile); err != nil {
				return nil, fmt.Errorf("load TLS cert: %w", err)
			}
			s.logger.Info("TLS: certificate loaded", "cert", cfg.CertFile)
		} else {
			host, _, _ := net.SplitHostPort(cfg.Addr)
			if s.tlsCfg, err = DevelopmentTLSConfig(host); err != nil {
				return nil, fmt.Errorf("generate dev TLS: %w", err)
			}
			s.logger.Warn("TLS: using a self-signed development certificate")
		}
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, s.logger)
	}
	return s, nil
}

// Listen binds the TCP listener and, unless plaintext, the QUIC listener on
// the same port.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handler := securityHeaders(s.cfg.Handler)
	s.tcpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tcpLn, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	if s.cfg.Plaintext {
		s.tcpLn = tcpLn
		return nil
	}

	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	s.tcpLn = tls.NewListener(tcpLn, tcpTLS)

	port := tcpLn.Addr().(*net.TCPAddr).Port
	host, _, _ := net.SplitHostPort(s.cfg.Addr)
	udpAddr := net.JoinHostPort(host, strconv.Itoa(port))
	quicLn, err := quic.ListenAddr(udpAddr, s.tlsCfg, mcpquic.QUICConfig())
	if err != nil {
		tcpLn.Close()
		return fmt.Errorf("QUIC listen: %w", err)
	}
	s.quicLn = quicLn
	s.h3Server = &http3.Server{Handler: handler}
	s.tcpServer.Handler = altSvcMiddleware(port, handler)
	return nil
}

// Addr returns the bound TCP address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tcpLn == nil {
		return nil
	}
	return s.tcpLn.Addr()
}

// Run listens if needed and serves until ctx is canceled or a listener
// fails, then shuts everything down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.tcpServer.Serve(s.tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("TCP: %w", err)
		}
		return nil
	})
	if s.quicLn != nil {
		g.Go(func() error { return s.acceptQUIC(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	proto := "HTTP/1.1"
	if !s.cfg.Plaintext {
		proto = "HTTP/1.1+HTTP/2 (TLS), QUIC (HTTP/3 + MCP)"
	}
	s.logger.Info("chassis started", "addr", s.Addr().String(), "proto", proto)
	return g.Wait()
}

// acceptQUIC demuxes QUIC connections by negotiated ALPN.
func (s *Server) acceptQUIC(ctx context.Context) error {
	for {
		conn, err := s.quicLn.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("QUIC accept: %w", err)
		}

		switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
		case http3.NextProtoH3:
			go func() {
				if err := s.h3Server.ServeQUICConn(conn); err != nil {
					s.logger.Debug("HTTP/3 conn done", "remote", conn.RemoteAddr(), "error", err)
				}
			}()
		case mcpquic.ALPNProtocolMCP:
			if s.mcpHandler == nil {
				conn.CloseWithError(mcpquic.ConnErrorUnsupportedALPN, "MCP not enabled")
				continue
			}
			go s.mcpHandler.ServeConn(ctx, conn)
		default:
			s.logger.Warn("unknown ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
			conn.CloseWithError(mcpquic.ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
		}
	}
}

func (s *Server) shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.tcpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("TCP shutdown: %w", err))
	}
	if s.quicLn != nil {
		if err := s.quicLn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("QUIC close: %w", err))
		}
	}
	if s.h3Server != nil {
		if err := s.h3Server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("HTTP/3 close: %w", err))
		}
	}
	s.logger.Info("chassis stopped")
	return errors.Join(errs...)
}

// securityHeaders adds the standard headers of an API-only service.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// altSvcMiddleware advertises HTTP/3 on the same port.
func altSvcMiddleware(port int, next http.Handler) http.Handler {
	altSvc := fmt.Sprintf(`h3=":%d"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", altSvc)
		next.ServeHTTP(w, r)
	})
}
