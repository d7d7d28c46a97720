package devserver

import (
	"io"
	"log/slog"
	"net/http"
)

// ServerBuilderOption is a functional option for configuring a Server via NewServer.
type ServerBuilderOption func(*Server)

// WithLogger sets the logger for server diagnostics.
//
// Parameters:
//   - logger: the logger, nil keeps the shared default
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) ServerBuilderOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAccessLog sets where the Apache-style access log is written (default stdout).
//
// Parameters:
//   - w: the access log destination, io.Discard to disable
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithAccessLog(w io.Writer) ServerBuilderOption {
	return func(s *Server) {
		if w != nil {
			s.accessLog = w
		}
	}
}

// WithCheckOrigin sets the websocket origin check. The default accepts same-origin
// requests only.
//
// Parameters:
//   - check: reports whether a websocket upgrade request is allowed
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithCheckOrigin(check func(r *http.Request) bool) ServerBuilderOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}
