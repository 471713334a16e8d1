// Package callback receives the authorization response on a loopback redirect URI
// (RFC 8252 §7.3), so a native client does not need the user to paste it back.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-oauth-client/authcode"
	"github.com/rs/zerolog/log"
)

// ErrNotLoopback is returned for redirect URIs that cannot be served locally.
var ErrNotLoopback = errors.New("redirect URI is not an http loopback URI")

type result struct {
	params *authcode.AuthorizationResponseParams
	err    error
}

// Server listens on the host and port of a loopback redirect URI and captures the
// first callback delivered to its path.
type Server struct {
	mux      *http.ServeMux
	routes   []string
	addr     string
	path     string
	listener net.Listener
	http     *http.Server
	results  chan result
	done     atomic.Bool
}

func New(redirectURI string) (*Server, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotLoopback, err)
	}
	if u.Scheme != "http" || !isLoopback(u.Hostname()) {
		return nil, ErrNotLoopback
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		addr:    net.JoinHostPort(u.Hostname(), port),
		path:    path,
		results: make(chan result, 1),
	}
	s.http = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+s.path, ChainMiddleware(s.CallbackHandler(), s.LoggingMiddleware, s.RecoverMiddleware, s.NoStoreMiddleware))
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("net.Listen %s: %w", s.addr, err)
	}
	s.listener = listener
	go s.serve()
	log.Debug().Str("addr", listener.Addr().String()).Strs("routes", s.routes).Msg("Callback server listening")
	return nil
}

func (s *Server) serve() {
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.deliver(result{err: fmt.Errorf("callback server: %w", err)})
	}
}

// Addr returns the bound address, with the actual port when the redirect URI used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Wait blocks until a callback arrives or ctx is done. The state of the returned
// params has not been checked.
func (s *Server) Wait(ctx context.Context) (*authcode.AuthorizationResponseParams, error) {
	select {
	case r := <-s.results:
		return r.params, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

// deliver keeps the first result only.
func (s *Server) deliver(r result) bool {
	if !s.done.CompareAndSwap(false, true) {
		return false
	}
	s.results <- r
	return true
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
