package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/pitchcontrol/internal/config"
	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/pkg/generic"
)

// Server streams control fields computed from provider tracking frames
type Server struct {
	// Core components
	engine  *pitch.Engine
	cache   *pitch.GridCache
	buffers *generic.Pool[*bytes.Buffer]

	// Transport
	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener

	// Session management
	mu       sync.RWMutex
	sessions map[string]*Session

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	// Configuration and logging
	cfg    config.ServerConfig
	logger log.Log
}

// NewServer creates a server whose sessions default to engine. Sessions asking for another surface
// get their own engine with grids taken from cache.
func NewServer(cfg config.ServerConfig, engine *pitch.Engine, cache *pitch.GridCache, logger log.Log) *Server {
	if cache == nil {
		cache = pitch.NewGridCache()
	}

	s := &Server{
		engine: engine,
		cache:  cache,
		buffers: generic.NewHotPool(func() *bytes.Buffer {
			return bytes.NewBuffer(make([]byte, 0, 64*1024))
		}, 4).WithReset(func(b *bytes.Buffer) { b.Reset() }),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBuffer,
			WriteBufferSize: cfg.WriteBuffer,
		},
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   logger.With(log.String("component", "server")),
	}

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.ListenAddr),
		log.Int("max_sessions", cfg.MaxSessions))

	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped unexpectedly", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))

	return nil
}

// Addr returns the bound address once the server is running.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and closes every session.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	err := s.httpServer.Shutdown(ctx)
	s.closeSessions()

	s.logger.Info("Server stopped")

	return err
}

// Close closes the server and releases all resources
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}

	s.logger.Info("Closing server")

	if atomic.LoadInt32(&s.running) == 1 {
		_ = s.Stop(context.Background())
	}
	s.closeSessions()

	s.logger.Info("Server closed")

	return nil
}

// CreateSession registers a new session. Surface overrides in req get a dedicated engine.
func (s *Server) CreateSession(req SessionRequest) (*Session, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return nil, ErrServerClosed
	}

	engine, err := s.engineFor(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.cfg.MaxSessions {
		return nil, ErrMaxSessionsReached
	}

	session := newSession(uuid.NewString(), engine, s.cfg.SummaryBand, s.cfg.WriteTimeout, s.buffers, s.logger)
	s.sessions[session.ID] = session

	p := engine.Params()
	session.logger.Info("Session created",
		log.Float64("length", p.Length),
		log.Float64("width", p.Width),
		log.Float64("resolution", p.Resolution),
		log.Int("total_sessions", len(s.sessions)))

	return session, nil
}

func (s *Server) engineFor(req SessionRequest) (*pitch.Engine, error) {
	if req == (SessionRequest{}) {
		return s.engine, nil
	}

	params := s.engine.Params()
	if req.Length != 0 {
		params.Length = req.Length
	}
	if req.Width != 0 {
		params.Width = req.Width
	}
	if req.Resolution != 0 {
		params.Resolution = req.Resolution
	}
	if params == s.engine.Params() {
		return s.engine, nil
	}

	engine, err := pitch.NewEngine(params, pitch.WithLogger(s.logger), pitch.WithGridCache(s.cache))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return engine, nil
}

// Session returns the session with id.
func (s *Server) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return session, nil
}

// Sessions returns all sessions ordered by creation time.
func (s *Server) Sessions() []*Session {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// DeleteSession closes the session and disconnects its clients.
func (s *Server) DeleteSession(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	total := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	session.close()
	session.logger.Info("Session deleted", log.Int("total_sessions", total))
	return nil
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
}
