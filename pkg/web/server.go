// Package web serves the folio HTTP API and the chat widget WebSocket.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-folio/internal/config"
	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/contact"
	"github.com/teslashibe/go-folio/pkg/hub"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	// Gateway answers chat widget turns.
	Gateway assistant.Client

	// Assistant serves POST /api/assistant.
	Assistant *assistant.Service

	// Relay serves POST /api/contact. Nil disables the endpoint.
	Relay *contact.Relay

	Logger *slog.Logger
}

// Server is the folio web server.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	hub      *hub.Hub
	sessions *Sessions

	assistant *assistant.Service
	relay     *contact.Relay
	logger    *slog.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(cfg config.Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		hub:       hub.New(log),
		assistant: deps.Assistant,
		relay:     deps.Relay,
		logger:    log.With("component", "web"),
	}
	s.sessions = NewSessions(cfg.Chat.SessionTTL, s.sessionFactory(deps.Gateway), log)

	app := fiber.New(fiber.Config{
		AppName:               "folio",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if cfg.Server.Debug {
		app.Use(logger.New())
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/site", s.handleSite)
	api.Post("/assistant", s.handleAssistant)
	api.Post("/contact", s.handleContact)

	chat := api.Group("/chat/sessions")
	chat.Post("/", s.handleCreateSession)
	chat.Get("/:id", s.handleGetSession)
	chat.Delete("/:id", s.handleDeleteSession)
	chat.Post("/:id/messages", s.handleSendMessage)
	chat.Post("/:id/audio", s.handleSetAudio)
	chat.Post("/:id/chat", s.handleSetChat)
	chat.Post("/:id/voice", s.handleSetVoice)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat/:id", websocket.New(s.handleChatWS))

	s.app = app
	return s
}

// App returns the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Start runs the hub and the session reaper, then listens on the
// configured address. It blocks until the listener stops.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("web: listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)
	go s.sessions.Run(ctx)

	s.logger.Info("web server listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown closes every session and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll()
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return s.app.ShutdownWithContext(ctx)
}
