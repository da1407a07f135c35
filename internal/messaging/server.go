package messaging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/playerregistry/internal/services/stream"
)

// Config holds websocket connection settings
type Config struct {
	// WriteWait bounds a single frame write
	WriteWait time.Duration
	// PongWait is how long the peer may stay silent before the connection is dropped
	PongWait time.Duration
	// PingPeriod must be shorter than PongWait
	PingPeriod time.Duration
	// MaxMessageSize limits inbound frames
	MaxMessageSize int64
	// SendBufferSize is the per-connection outbound frame queue
	SendBufferSize int
}

// DefaultConfig returns sensible defaults for the messaging channel
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 256,
	}
}

// Server upgrades HTTP requests to the websocket messaging channel
type Server struct {
	controller *stream.Controller
	cfg        Config
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a messaging server backed by the stream controller
func NewServer(controller *stream.Controller, cfg Config, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaults.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaults.SendBufferSize
	}

	return &Server{
		controller: controller,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "messaging")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		conns: make(map[*conn]struct{}),
	}
}

// ServeHTTP upgrades the request and serves frames until the peer disconnects
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := newConn(s, ws)
	if !s.track(c) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(s.cfg.WriteWait))
		_ = ws.Close()
		return
	}
	defer s.untrack(c)

	c.logger.Info("messaging connection opened", slog.String("remote", r.RemoteAddr))
	c.serve()
	c.logger.Info("messaging connection closed")
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// StreamCount returns the number of in-flight streams across all connections
func (s *Server) StreamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for c := range s.conns {
		total += c.activeStreams()
	}
	return total
}

// Close disconnects every open connection, cancelling their streams, and
// refuses new ones. It waits for connection handlers to finish.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.shutdown()
	}
	s.wg.Wait()
}
