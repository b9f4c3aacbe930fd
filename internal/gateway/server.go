package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sunggeunkim/haya/internal/agent"
	"github.com/sunggeunkim/haya/internal/auth"
	"github.com/sunggeunkim/haya/internal/channels"
	"github.com/sunggeunkim/haya/internal/config"
	"github.com/sunggeunkim/haya/internal/cron"
	"github.com/sunggeunkim/haya/internal/ratelimit"
	"github.com/sunggeunkim/haya/internal/sessions"
)

// Server is the WebSocket RPC gateway (C11). A single Server owns one
// listener, the auth rate limiter, and references to the runtime components
// it exposes over RPC.
type Server struct {
	cfg    config.GatewayConfig
	logger *slog.Logger

	runtime   *agent.Runtime
	sessions  sessions.Store
	channels  *channels.Registry
	scheduler *cron.Scheduler

	upgrader       websocket.Upgrader
	limiter        *ratelimit.FailureWindow
	trustedProxies []*net.IPNet

	httpServer *http.Server

	mu    sync.Mutex
	conns map[*connection]struct{}
}

// Option customizes a Server at construction time.
type Option func(*Server)

// WithScheduler attaches the cron scheduler exposed by cron.list|status|add|remove.
func WithScheduler(s *cron.Scheduler) Option {
	return func(srv *Server) { srv.scheduler = s }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// NewServer constructs a gateway Server bound to the given runtime, session
// store, and channel registry.
func NewServer(cfg config.GatewayConfig, runtime *agent.Runtime, store sessions.Store, registry *channels.Registry, opts ...Option) *Server {
	srv := &Server{
		cfg:      cfg,
		logger:   slog.Default(),
		runtime:  runtime,
		sessions: store,
		channels: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		limiter: ratelimit.NewFailureWindow(ratelimit.DefaultLockoutConfig()),
		conns:   map[*connection]struct{}{},
	}
	srv.trustedProxies = ratelimit.ParseTrustedProxies(cfg.TrustedProxies)
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func (s *Server) addr() string {
	host := "127.0.0.1"
	switch s.cfg.Bind {
	case "lan":
		host = "0.0.0.0"
	case "custom":
		host = s.cfg.Host
	}
	return fmt.Sprintf("%s:%d", host, s.cfg.Port)
}

// ListenAndServe starts the HTTP/WebSocket listener. It blocks until ctx is
// canceled or the listener fails. TLS is bootstrapped (self-signing if
// necessary) whenever the config requires it.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/chat", s.handleUpgrade)

	s.httpServer = &http.Server{
		Addr:              s.addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		if s.tlsRequired() {
			cert, err := EnsureSelfSignedCert(s.cfg.TLS.CertPath, s.cfg.TLS.KeyPath, s.hostForCert())
			if err != nil {
				errCh <- err
				return
			}
			s.httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
			errCh <- s.httpServer.ListenAndServeTLS("", "")
			return
		}
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) tlsRequired() bool {
	return s.cfg.TLS.Enabled || s.cfg.Bind == "lan" || s.cfg.Bind == "custom"
}

func (s *Server) hostForCert() string {
	if s.cfg.Host != "" {
		return s.cfg.Host
	}
	return "127.0.0.1"
}

func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.limiter.Prune(now)
		}
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	securityHeaders(w, s.tlsRequired())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("haya gateway\n"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	securityHeaders(w, s.tlsRequired())
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleUpgrade authenticates the inbound request, checks the rate limiter,
// and on success upgrades to a WebSocket connection served by a connection
// loop (§4.8).
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	nonce := securityHeaders(w, s.tlsRequired())
	_ = nonce

	clientIP := ratelimit.ResolveClientIP(r, s.trustedProxies)
	if allowed, retryAfter := s.limiter.Check(clientIP, time.Now()); !allowed {
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	allowInsecureHeader := !s.tlsRequired() && ratelimit.IsLoopback(r.RemoteAddr)
	token := auth.ExtractGatewayToken(r, allowInsecureHeader)
	if s.cfg.Auth.Token != "" && !auth.TokenEqual(token, s.cfg.Auth.Token) {
		s.limiter.RecordFailure(clientIP, time.Now())
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.limiter.ClearLockout(clientIP)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("gateway: websocket upgrade failed", "error", err)
		return
	}

	conn := newConnection(s, ws)
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		conn.serve(r.Context())
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()
}

// Broadcast sends an event frame to every connected client, used by the
// processor to push chat.delta/chat.response events for channel-originated
// traffic mirrored into the gateway.
func (s *Server) Broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.sendEvent(event)
	}
}
