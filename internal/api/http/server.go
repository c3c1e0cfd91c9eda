package httpapi

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/spawny/internal/api"
	"github.com/Paintersrp/spawny/internal/metrics"
)

const shutdownGrace = 2 * time.Second

// Server publishes the state of the running chain set on /api/v1/status and
// the process metrics on /metrics.
type Server struct {
	ctrl     api.Controller
	listener net.Listener
	srv      *http.Server
}

// Listen binds addr and returns a server ready to Serve. A missing host binds
// to the loopback interface so --listen :port stays local.
func Listen(addr string, ctrl api.Controller) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("status server requires a controller")
	}
	if host, port, err := net.SplitHostPort(addr); err == nil && host == "" {
		addr = net.JoinHostPort("127.0.0.1", port)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return newServer(ln, ctrl), nil
}

func newServer(ln net.Listener, ctrl api.Controller) *Server {
	s := &Server{ctrl: ctrl, listener: ln}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.status)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve answers requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx stdcontext.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	report, err := s.ctrl.Status(r.Context())
	switch {
	case errors.Is(err, api.ErrNoActiveRun):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
