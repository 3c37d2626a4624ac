// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/gshashi/mailpilot/internal/assistant"
	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/store"
)

// Server wraps the Fiber app with its dependencies.
type Server struct {
	app       *fiber.App
	assistant *assistant.Assistant
	store     *store.Client
	dialer    mailbox.Dialer
	jwtSecret string
	logger    *slog.Logger
}

// New builds the HTTP server and registers all routes.
func New(a *assistant.Assistant, st *store.Client, dialer mailbox.Dialer, jwtSecret string, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "mailpilot",
		ErrorHandler: errorHandler,
	})

	s := &Server{
		app:       app,
		assistant: a,
		store:     st,
		dialer:    dialer,
		jwtSecret: jwtSecret,
		logger:    logger,
	}

	app.Use(RequestLogger(logger))

	app.Get("/healthz", s.handleHealth)

	v1 := app.Group("/api/v1", AuthMiddleware(jwtSecret))
	v1.Get("/stats", s.handleStats)

	chat := v1.Group("/chat")
	chat.Post("/message", s.handleChatMessage)
	chat.Get("/history", s.handleChatHistory)
	chat.Post("/generate-reply", s.handleGenerateReply)
	chat.Post("/action-items", s.handleActionItems)
	chat.Get("/suggestions", s.handleSuggestions)

	emails := v1.Group("/emails")
	emails.Get("/", s.handleListEmails)
	emails.Get("/recent", s.handleListEmails)
	emails.Get("/search", s.handleSearchEmails)
	emails.Get("/categories", s.handleCategories)
	emails.Get("/digest", s.handleDigest)
	emails.Post("/send", s.handleSendEmail)
	emails.Get("/:id", s.handleGetEmail)
	emails.Delete("/:id", s.handleDeleteEmail)

	return s
}

// Listen blocks serving HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("starting HTTP server", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App returns the underlying Fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// errorHandler renders every handler error as a JSON envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
