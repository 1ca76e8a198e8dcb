package infra

import (
	"context"
	"net/http"
	"time"
)

// ServerTimeouts carries the deadlines applied to every connection the API
// server accepts. Handlers that stream longer than WriteTimeout lift their
// own deadline through http.ResponseController.
type ServerTimeouts struct {
	Read       time.Duration
	ReadHeader time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// HTTPServer wraps http.Server with the start and graceful-stop shape the
// binaries expect.
type HTTPServer struct {
	server *http.Server
}

func NewHTTPServer(addr string, handler http.Handler, timeouts ServerTimeouts) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       timeouts.Read,
		ReadHeaderTimeout: timeouts.ReadHeader,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}}
}

// Start blocks serving connections until Shutdown or a listener error.
func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
