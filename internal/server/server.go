// Package server exposes the engine over websockets and a small HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"homestead/internal/database"
	"homestead/internal/game"
	"homestead/internal/protocol"
	"homestead/pkg/layouts"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	Registry game.ActionRegistry
	Rules    game.Rules
	// DB records the journal and serves history. Nil keeps games in memory only.
	DB     *database.DB
	Logger *zap.Logger
}

// Server is the game server.
type Server struct {
	engine   *game.Engine
	db       *database.DB
	hub      *Hub
	handlers *Handlers
	router   *mux.Router
	server   *http.Server
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New creates a new server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ecfg := game.EngineConfig{
		Registry: cfg.Registry,
		Rules:    cfg.Rules,
		Logger:   cfg.Logger.Named("engine"),
	}
	if cfg.DB != nil {
		ecfg.Journal = cfg.DB
	}
	engine, err := game.NewEngine(ecfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if err := layouts.LoadAll(); err != nil {
		return nil, err
	}

	s := &Server{
		engine:   engine,
		db:       cfg.DB,
		log:      cfg.Logger,
		sessions: make(map[string]*sync.Mutex),
	}
	s.hub = NewHub(s.log.Named("hub"))
	s.handlers = NewHandlers(s)

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/games", s.handleListGames).Methods(http.MethodGet)
	r.HandleFunc("/api/games/{id}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/layouts", s.handleListLayouts).Methods(http.MethodGet)
	s.router = r

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Engine returns the engine the server drives.
func (s *Server) Engine() *game.Engine { return s.engine }

// Hub returns the connection hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.hub.Run(ctx)
	})
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// session returns the lock serializing requests against one game.
func (s *Server) session(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[gameID]
	if !ok {
		m = &sync.Mutex{}
		s.sessions[gameID] = m
	}
	return m
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := NewClient(s.hub, conn, s.log)
	if !s.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer s.hub.Unregister(client)

	client.Send(mustMessage(protocol.TypeWelcome, "", protocol.WelcomePayload{ClientID: client.ID()}))

	if err := client.Serve(r.Context(), s.handlers.Handle); err != nil {
		s.log.Debug("connection closed", zap.String("client", client.ID()), zap.Error(err))
	}
	if client.GameID() != "" && s.db != nil {
		if err := s.db.SetPlayerConnected(client.GameID(), client.PlayerID(), false); err != nil {
			s.log.Debug("failed to record disconnect", zap.Error(err))
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"games": s.engine.Games()})
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]layouts.Info{"layouts": layouts.List()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "history is not recorded", http.StatusServiceUnavailable)
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := s.db.GetGame(id); err != nil {
		if errors.Is(err, database.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		s.log.Error("failed to load game", zap.String("game", id), zap.Error(err))
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}

	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "bad after parameter", http.StatusBadRequest)
			return
		}
		after = n
	}

	entries, err := s.history(id, after)
	if err != nil {
		s.log.Error("failed to load history", zap.String("game", id), zap.Error(err))
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, protocol.GameHistoryPayload{GameID: id, AfterID: after, Events: entries})
}

func (s *Server) history(gameID string, after int64) ([]protocol.HistoryEntry, error) {
	events, err := s.db.GetGameHistorySince(gameID, after)
	if err != nil {
		return nil, err
	}
	entries := make([]protocol.HistoryEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, protocol.HistoryEntry{
			ID:        e.ID,
			Round:     e.Round,
			Phase:     e.Phase,
			Player:    e.PlayerID,
			Type:      e.EventType,
			Message:   e.Message,
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
		})
	}
	return entries, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// mustMessage builds a reply envelope. Payloads are package types that always
// marshal.
func mustMessage(t protocol.MessageType, replyTo string, payload any) *protocol.Message {
	msg, err := protocol.NewMessage(t, payload)
	if err != nil {
		msg = &protocol.Message{Type: protocol.TypeError, Timestamp: time.Now().UnixMilli()}
	}
	if replyTo != "" {
		msg.ID = replyTo
	}
	return msg
}
