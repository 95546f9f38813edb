package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/lox/klondike/internal/game"
	"github.com/lox/klondike/internal/gameid"
	"github.com/lox/klondike/internal/randutil"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAddr         = ":8080"
	DefaultIdleTimeout  = 30 * time.Minute
	DefaultReapInterval = time.Minute

	requestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Config controls how the server listens and how long idle games live
type Config struct {
	Addr         string
	IdleTimeout  time.Duration
	ReapInterval time.Duration
	// Seed makes the sequence of dealt games reproducible when set
	Seed *int64
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = DefaultReapInterval
	}
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock used for idle tracking and the reaper
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// Server hosts game sessions over a JSON REST API and a WebSocket
type Server struct {
	cfg      Config
	logger   *log.Logger
	clock    quartz.Clock
	store    *Store
	ids      *gameid.Generator
	upgrader websocket.Upgrader
	router   chi.Router

	mu          sync.Mutex
	rng         *rand.Rand
	connections map[*Connection]struct{}
	httpServer  *http.Server
}

// NewServer creates a server for cfg
func NewServer(cfg Config, logger *log.Logger, opts ...Option) *Server {
	cfg.applyDefaults()

	s := &Server{
		cfg:    cfg,
		logger: logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The browser front-end may be served from anywhere
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if cfg.Seed != nil {
		s.rng = randutil.New(*cfg.Seed)
	}
	s.store = NewStore(s.clock)
	s.ids = gameid.NewGenerator(s.clock, nil)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the session store
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/games", func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(chimw.AllowContentType("application/json"))

		r.Post("/", s.handleCreateGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Delete("/", s.handleDeleteGame)
			r.Post("/draw", s.handleAction(func(sess *game.Session) *ErrorData {
				if !sess.Draw() {
					return errNothingToDraw
				}
				return nil
			}))
			r.Post("/redeal", s.handleAction(func(sess *game.Session) *ErrorData {
				if !sess.Redeal() {
					return errRedealRefused
				}
				return nil
			}))
			r.Post("/undo", s.handleAction(func(sess *game.Session) *ErrorData {
				if !sess.Undo() {
					return errNothingToUndo
				}
				return nil
			}))
			r.Post("/move", s.handleMove)
			r.Post("/hints", s.handleHints)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "No route for "+r.URL.Path)
	})
	return r
}

// requestLogger logs each request at debug level once it completes
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.clock.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", s.clock.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// nextSeed picks the seed for a new session's random source
func (s *Server) nextSeed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		return randutil.Seed()
	}
	return int64(s.rng.Uint64() >> 1)
}

// createSession deals a new game and stores it
func (s *Server) createSession(seed *int64) *sessionEntry {
	sess := game.NewSession(
		game.WithLogger(s.logger),
		game.WithRNG(randutil.New(s.nextSeed())),
		game.WithIDGenerator(s.ids),
	)
	if seed != nil {
		sess.NewGameWithSeed(*seed)
	}
	id := s.store.Add(sess)
	s.logger.Info("Created game", "id", id, "seed", sess.Seed())

	e, _ := s.store.Get(id)
	return e
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body")
		return
	}

	e := s.createSession(req.Seed)
	var view GameView
	e.With(func(sess *game.Session) { view = newGameView(e.id, sess) })
	writeJSON(w, http.StatusCreated, view)
}

// findGame returns the stored game for id. Malformed ids are not found.
func (s *Server) findGame(id string) (*sessionEntry, error) {
	if err := gameid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameNotFound, err)
	}
	return s.store.Get(id)
}

// lookup finds the game named in the URL, writing a 404 if there is none
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*sessionEntry, bool) {
	id := chi.URLParam(r, "id")
	e, err := s.findGame(id)
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Game %s: %v", id, err))
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var view GameView
	e.With(func(sess *game.Session) { view = newGameView(e.id, sess) })
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, ok := s.store.Delete(id)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Game %s not found", id))
		return
	}
	e.closeConnections()
	s.logger.Info("Deleted game", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleAction runs fn against the game and replies with its new state, or
// 409 when fn refuses.
func (s *Server) handleAction(fn func(*game.Session) *ErrorData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.lookup(w, r)
		if !ok {
			return
		}
		var (
			view    GameView
			refused *ErrorData
		)
		e.With(func(sess *game.Session) {
			refused = fn(sess)
			view = newGameView(e.id, sess)
		})
		if refused != nil {
			writeError(w, http.StatusConflict, refused.Code, refused.Message)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid move: "+err.Error())
		return
	}
	if req.Dest == nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid move: dest is required")
		return
	}
	s.handleAction(func(sess *game.Session) *ErrorData {
		if !move(sess, req) {
			return errIllegalMove
		}
		return nil
	})(w, r)
}

// handleHints reports legal destinations for a card without touching the
// session's own selection
func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	var req CardRefData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid card reference: "+err.Error())
		return
	}
	if req.Source == nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid card reference: source is required")
		return
	}
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var hints game.Hints
	e.With(func(sess *game.Session) {
		state := sess.State()
		sel := selection(state, *req.Source, req.CardIndex)
		hints = game.ComputeHints(state, &sel)
	})
	writeJSON(w, http.StatusOK, newHintsView(hints))
}

// handleWebSocket attaches a client to the game named by ?game=, dealing a
// new one when none is given
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var e *sessionEntry
	if id := r.URL.Query().Get("game"); id != "" {
		var err error
		if e, err = s.findGame(id); err != nil {
			writeError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Game %s: %v", id, err))
			return
		}
	} else {
		e = s.createSession(nil)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, e, s.logger)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "game", c.entry.id, "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "game", c.entry.id, "total", total)
}

// ConnectionCount returns the number of attached WebSocket clients
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// reap drops sessions idle for longer than the configured timeout
func (s *Server) reap() error {
	for _, id := range s.store.ReapIdle(s.cfg.IdleTimeout) {
		s.logger.Info("Reaped idle game", "id", id)
	}
	return nil
}

// startReaper schedules reap every ReapInterval until ctx is done
func (s *Server) startReaper(ctx context.Context) quartz.Waiter {
	return s.clock.TickerFunc(ctx, s.cfg.ReapInterval, s.reap, "reaper")
}

// Start listens on the configured address and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: requestTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "addr", ln.Addr().String(), "idle_timeout", s.cfg.IdleTimeout)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := s.startReaper(ctx).Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to reap idle games: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown closes every WebSocket client and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	srv := s.httpServer
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close() // Ignore close errors during shutdown
	}

	if srv == nil {
		return nil
	}
	s.logger.Info("Shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
