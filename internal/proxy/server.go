package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/gallery/internal/discovery"
	"github.com/muurk/gallery/internal/logging"
	"github.com/muurk/gallery/internal/version"
)

const (
	// DefaultListen matches the port the web client expects
	DefaultListen = ":3001"

	// DefaultPathPrefix is stripped before forwarding
	DefaultPathPrefix = "/api"

	// shutdownTimeout bounds graceful shutdown
	shutdownTimeout = 10 * time.Second
)

// Config holds the proxy configuration
type Config struct {
	Listen         string   // Listen address (e.g. ":3001")
	Target         string   // Upstream base URL
	PathPrefix     string   // Mount point stripped before forwarding
	AllowedOrigins []string // Empty means any origin
	Advertise      bool     // Register over mDNS
	ServiceName    string   // mDNS instance name
}

// Server is the CORS forwarding proxy
type Server struct {
	config  Config
	target  *url.URL
	hub     *Hub
	handler http.Handler
	started time.Time

	httpServer *http.Server
	ad         *discovery.Advertisement
}

// New validates config and builds the router
func New(config Config) (*Server, error) {
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	if config.PathPrefix == "" {
		config.PathPrefix = DefaultPathPrefix
	}
	if !strings.HasPrefix(config.PathPrefix, "/") {
		config.PathPrefix = "/" + config.PathPrefix
	}
	config.PathPrefix = strings.TrimRight(config.PathPrefix, "/")
	if config.PathPrefix == "" {
		return nil, fmt.Errorf("path prefix cannot be the root path")
	}

	target, err := ParseTarget(config.Target)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:  config,
		target:  target,
		hub:     NewHub(originChecker(config.AllowedOrigins)),
		started: time.Now(),
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the event hub
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/events", s.hub)

	forwarder := NewForwarder(s.target, s.config.PathPrefix, s.hub)
	r.Group(func(r chi.Router) {
		r.Use(CORS(s.config.AllowedOrigins), s.logRequests)
		r.Handle(s.config.PathPrefix, forwarder)
		r.Handle(s.config.PathPrefix+"/*", forwarder)
	})

	return r
}

// logRequests logs and publishes each proxied request and its response
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := RequestIDFromContext(r.Context())
		path := r.URL.Path
		start := time.Now()

		logging.LogProxyRequest(rid, r.RemoteAddr, r.Method, path)
		s.hub.Publish(Event{Type: EventRequest, RequestID: rid, Method: r.Method, Path: path})

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		logging.LogProxyResponse(rid, status, path, elapsed)
		s.hub.Publish(Event{
			Type:       EventResponse,
			RequestID:  rid,
			Method:     r.Method,
			Path:       path,
			Status:     status,
			DurationMS: elapsed.Milliseconds(),
		})
	})
}

// HealthStatus is the /healthz response body
type HealthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Target      string `json:"target"`
	PathPrefix  string `json:"path_prefix"`
	Subscribers int    `json:"subscribers"`
	Uptime      string `json:"uptime"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status:      "ok",
		Version:     version.Version,
		Target:      s.target.String(),
		PathPrefix:  s.config.PathPrefix,
		Subscribers: s.hub.Subscribers(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	})
}

// Start listens on the configured address and blocks until a shutdown signal
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Set up before the serve goroutine so Shutdown never races it
	if s.config.Advertise {
		s.advertise(ln.Addr())
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(ln)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping proxy...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			return err
		}
		return <-errChan
	case err := <-errChan:
		return err
	}
}

// Serve handles connections on ln until Shutdown is called. A Serve that
// starts after Shutdown returns nil at once.
func (s *Server) Serve(ln net.Listener) error {
	logging.Info("Gallery proxy listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("prefix", s.config.PathPrefix),
		zap.String("target", s.target.String()),
	)

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// advertise registers the proxy over mDNS. Failure is logged, not fatal.
func (s *Server) advertise(addr net.Addr) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return
	}

	name := s.config.ServiceName
	if name == "" {
		name = "gallery-proxy"
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		name = fmt.Sprintf("%s on %s", name, host)
	}

	ad, err := discovery.Advertise(name, tcpAddr.Port, map[string]string{
		discovery.TXTPath:    s.config.PathPrefix,
		discovery.TXTVersion: version.Version,
		discovery.TXTTarget:  s.target.Host,
	})
	if err != nil {
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}
	s.ad = ad
	logging.Info("Advertising over mDNS",
		zap.String("instance", name),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", tcpAddr.Port),
	)
}

// Shutdown withdraws the advertisement, closes subscribers and drains requests
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down proxy...")

	s.ad.Shutdown()
	s.hub.Close()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
	}

	logging.Sync()
	return err
}
