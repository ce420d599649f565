// Package server is the self-hosted remote document store: the three
// primitives the sync core depends on (realtime subscribe-by-collection,
// atomic batched writes, an independently addressed settings document)
// served over HTTP and websockets, backed by sqlite.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/daygrid/daygrid/internal/remote"
)

type Server struct {
	store    *DocStore
	hub      *hub
	engine   *gin.Engine
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func New(store *DocStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		store: store,
		hub:   newHub(),
		log:   logger,
		upgrader: websocket.Upgrader{
			// Single-operator sync across the user's own devices; the
			// server binds to a trusted interface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	v1 := engine.Group("/api/v1")
	v1.POST("/commit", s.handleCommit)
	v1.GET("/ws/:collection", s.handleSubscribe)
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests over httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("document store listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func validCollection(c remote.Collection) bool {
	for _, known := range remote.Collections {
		if c == known {
			return true
		}
	}
	return false
}

// handleCommit applies one atomic batch and then pushes fresh snapshots of
// every touched collection to its subscribers.
func (s *Server) handleCommit(c *gin.Context) {
	var req remote.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Ops) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}
	touched := make(map[remote.Collection]bool)
	for _, op := range req.Ops {
		if !validCollection(op.Collection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown collection " + string(op.Collection)})
			return
		}
		touched[op.Collection] = true
	}

	if err := s.store.Apply(c.Request.Context(), req.Ops); err != nil {
		s.log.Error("apply batch", "error", err, "ops", len(req.Ops))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch not applied"})
		return
	}

	for collection := range touched {
		ev, err := s.store.Snapshot(c.Request.Context(), collection)
		if err != nil {
			s.log.Error("snapshot after commit", "collection", string(collection), "error", err)
			continue
		}
		s.hub.broadcast(ev)
	}
	c.Status(http.StatusNoContent)
}

// handleSubscribe upgrades to a websocket and streams full-collection
// snapshots: one immediately, then one after every commit that touches the
// collection.
func (s *Server) handleSubscribe(c *gin.Context) {
	collection := remote.Collection(c.Param("collection"))
	if !validCollection(collection) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection " + string(collection)})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	sub := s.hub.subscribe(collection)
	defer s.hub.unsubscribe(collection, sub)
	defer conn.Close()

	initial, err := s.store.Snapshot(c.Request.Context(), collection)
	if err != nil {
		s.log.Error("initial snapshot", "collection", string(collection), "error", err)
		return
	}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	// Reader loop only notices disconnects; clients never send data.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev := <-sub.events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
