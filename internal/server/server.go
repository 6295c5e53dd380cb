// Package server binds the core to its two request-style entry points and
// the health probe. It is a thin I/O layer: validation, error mapping, and
// JSON shapes only.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/greenlens/greenlens/internal/agent"
	"github.com/greenlens/greenlens/internal/receipts"
)

// ReceiptProcessor is the receipt-processing entry point contract.
type ReceiptProcessor interface {
	Process(ctx context.Context, userID string, imageBytes []byte) (*receipts.Result, error)
}

// ChatAgent is the chat entry point contract.
type ChatAgent interface {
	Turn(ctx context.Context, req agent.Request) (agent.Result, error)
}

// AgentProvider resolves the chat agent on demand so the heavy model client
// is created lazily on the first chat request.
type AgentProvider func() (ChatAgent, error)

// Server hosts the HTTP API.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	receipts ReceiptProcessor
	agentFor AgentProvider
	logger   *slog.Logger
}

// Config holds server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates the server and registers all routes.
func New(cfg Config, processor ReceiptProcessor, agentFor AgentProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Model calls dominate chat latency.
		cfg.WriteTimeout = 120 * time.Second
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{
		engine:   engine,
		receipts: processor,
		agentFor: agentFor,
		logger:   logger,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/receipts/process", s.processReceipt)
		v1.POST("/chat", s.chat)
	}
}

// Handler exposes the router; used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
