package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/gshashi/mailpilot/internal/assistant"
	"github.com/gshashi/mailpilot/internal/mailbox"
	"github.com/gshashi/mailpilot/internal/models"
	"github.com/gshashi/mailpilot/internal/store"
)

const (
	defaultHistoryLimit = 20
	defaultEmailCount   = 10
)

type chatMessageRequest struct {
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id"`
	RecentContext  []models.Email `json:"recent_context"`
}

type generateReplyRequest struct {
	EmailID string `json:"email_id"`
}

type sendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.assistant.Stats())
}

func (s *Server) handleChatMessage(c *fiber.Ctx) error {
	var req chatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	s.logger.Debug("chat message received",
		"owner", owner(c),
		"conversation_id", req.ConversationID,
		"message", truncate(req.Message, maxBodyLogLen))

	result, err := s.assistant.HandleMessage(c.Context(), assistant.Request{
		Utterance:      req.Message,
		ConversationID: req.ConversationID,
		Owner:          owner(c),
		Credential:     credential(c),
		RecentContext:  req.RecentContext,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

func (s *Server) handleChatHistory(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", defaultHistoryLimit)

	if id := c.Query("conversation_id"); id != "" {
		turns, err := s.store.RecentTurns(c.Context(), id, owner(c), limit)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"turns":   turns,
		})
	}

	conversations, err := s.store.History(c.Context(), owner(c), limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"conversations": conversations,
	})
}

func (s *Server) handleGenerateReply(c *fiber.Ctx) error {
	var req generateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.EmailID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email_id is required")
	}

	draft, err := s.assistant.SuggestReply(c.Context(), credential(c), req.EmailID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reply":   draft,
	})
}

func (s *Server) handleActionItems(c *fiber.Ctx) error {
	var req generateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.EmailID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email_id is required")
	}

	items, err := s.assistant.ActionItems(c.Context(), credential(c), req.EmailID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"action_items": items,
	})
}

func (s *Server) handleSuggestions(c *fiber.Ctx) error {
	suggestions, err := s.assistant.Suggestions(c.Context(), credential(c))
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"suggestions": suggestions,
	})
}

func (s *Server) handleListEmails(c *fiber.Ctx) error {
	count := queryInt(c, "count", defaultEmailCount)

	emails, err := s.mailboxFor(c).ListRecent(c.Context(), count)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"emails":  emails,
		"count":   len(emails),
	})
}

func (s *Server) handleSearchEmails(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q is required")
	}
	count := queryInt(c, "count", defaultEmailCount)

	emails, err := s.mailboxFor(c).Search(c.Context(), query, count)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"emails":  emails,
		"count":   len(emails),
	})
}

func (s *Server) handleCategories(c *fiber.Ctx) error {
	count := queryInt(c, "count", defaultEmailCount)

	buckets, err := s.assistant.Categorize(c.Context(), credential(c), count)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"categories": buckets,
	})
}

func (s *Server) handleDigest(c *fiber.Ctx) error {
	count := queryInt(c, "count", defaultEmailCount)

	digest, err := s.assistant.Digest(c.Context(), credential(c), count)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"digest":  digest,
	})
}

func (s *Server) handleGetEmail(c *fiber.Ctx) error {
	email, err := s.mailboxFor(c).Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"email":   email,
	})
}

func (s *Server) handleSendEmail(c *fiber.Ctx) error {
	var req sendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.To == "" {
		return fiber.NewError(fiber.StatusBadRequest, "to is required")
	}
	if req.Body == "" {
		return fiber.NewError(fiber.StatusBadRequest, "body is required")
	}

	receipt, err := s.mailboxFor(c).Send(c.Context(), req.To, req.Subject, req.Body)
	if err != nil {
		return mapError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"receipt": receipt,
	})
}

func (s *Server) handleDeleteEmail(c *fiber.Ctx) error {
	if err := s.mailboxFor(c).Trash(c.Context(), c.Params("id")); err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// mailboxFor binds the request's mailbox credential to a service.
func (s *Server) mailboxFor(c *fiber.Ctx) mailbox.Service {
	return s.dialer.WithCredential(credential(c))
}

// mapError converts sentinel errors into HTTP status codes.
func mapError(err error) error {
	switch {
	case errors.Is(err, assistant.ErrInvalidUtterance):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, mailbox.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, mailbox.ErrPermission):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return err
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
