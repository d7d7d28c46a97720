// Package devserver serves a game build over HTTP for browser hosts and live editing:
// the processed shader, its manifest and the raw asset files, plus a websocket that
// pushes an event after every rebuild.
package devserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Event types pushed on the websocket.
const (
	EventBuilt  = "built"
	EventFailed = "failed"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	sendQueue    = 8
)

// Event is the JSON message pushed to websocket clients after a build.
type Event struct {
	Type  string    `json:"type"`
	Title string    `json:"title,omitempty"`
	Time  time.Time `json:"time"`
	Error string    `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server serves one game.
type Server struct {
	game      engine.Game
	logger    *slog.Logger
	accessLog io.Writer
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
	last    []byte
}

// NewServer creates a Server for game with the given options applied.
//
// Parameters:
//   - game: the game to serve, built at least once before requests for the shader succeed
//   - options: functional options for server configuration
//
// Returns:
//   - *Server: the new server
func NewServer(game engine.Game, options ...ServerBuilderOption) *Server {
	s := &Server{
		game:      game,
		logger:    common.Logger(),
		accessLog: os.Stdout,
		clients:   make(map[*client]bool),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with every route, wrapped in panic recovery and
// access logging.
//
// Returns:
//   - http.Handler: the router
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/shader.wgsl", s.handleShader).Methods(http.MethodGet)
	r.HandleFunc("/metadata.json", s.handleManifest(metadata.Manifest.WriteJSON, "application/json")).Methods(http.MethodGet)
	r.HandleFunc("/metadata.yaml", s.handleManifest(metadata.Manifest.WriteYAML, "application/yaml")).Methods(http.MethodGet)
	r.HandleFunc("/assets/{name:.+}", s.handleAsset).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebsocket)

	h := handlers.RecoveryHandler()(r)
	return handlers.LoggingHandler(s.accessLog, h)
}

// Run serves on addr and rebuilds the game on file changes until ctx is cancelled.
// Archive games are served without watching.
//
// Parameters:
//   - ctx: stops the server
//   - addr: the listen address
//
// Returns:
//   - error: the listener error, nil after a clean shutdown
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		err := s.game.Watch(ctx, s.Notify)
		if err != nil && !errors.Is(err, engine.ErrNotWatchable) {
			s.logger.Warn("watch stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	s.logger.Info("dev server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "dev server")
	}
	return nil
}

// Notify pushes a build result to every connected websocket client. Clients that
// cannot keep up are dropped.
//
// Parameters:
//   - b: the build, nil if it failed
//   - err: the build error
func (s *Server) Notify(b *engine.Build, err error) {
	ev := Event{Type: EventBuilt, Time: time.Now()}
	if err != nil {
		ev.Type = EventFailed
		ev.Error = err.Error()
	} else if b != nil {
		ev.Title = b.Metadata.Title
		ev.Time = b.Time
	}
	data, mErr := json.Marshal(ev)
	if mErr != nil {
		s.logger.Warn("failed to encode event", "err", mErr)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = data
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			delete(s.clients, c)
			close(c.send)
		}
	}
}

func (s *Server) handleShader(w http.ResponseWriter, r *http.Request) {
	b := s.game.Current()
	if b == nil {
		http.Error(w, "game not built", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/wgsl; charset=utf-8")
	_, _ = io.WriteString(w, b.Source)
}

func (s *Server) handleManifest(write func(metadata.Manifest, io.Writer) error, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := s.game.Current()
		if b == nil {
			http.Error(w, "game not built", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", contentType)
		if err := write(metadata.NewManifest(b.Metadata), w); err != nil {
			s.logger.Warn("failed to write manifest", "err", err)
		}
	}
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, err := s.game.Source().ReadBytes(name)
	switch {
	case errors.Is(err, source.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}

	s.mu.Lock()
	s.clients[c] = true
	if s.last != nil {
		c.send <- s.last
	}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// writePump sends queued events and periodic pings until the send channel closes or a
// write fails.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and unregisters the client once the connection
// is closed.
func (s *Server) readPump(c *client) {
	defer s.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}
