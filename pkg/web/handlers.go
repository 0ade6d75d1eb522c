package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/contact"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"version":   Version,
		"sessions":  s.sessions.Len(),
		"connected": s.hub.Topics(),
		"time":      time.Now().UTC(),
	})
}

func (s *Server) handleSite(c *fiber.Ctx) error {
	return c.JSON(s.cfg.Site)
}

// handleAssistant answers one chat message with the server-side backend.
func (s *Server) handleAssistant(c *fiber.Ctx) error {
	if s.assistant == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Assistant not configured"})
	}

	var req assistant.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	answer, err := s.assistant.Answer(c.UserContext(), req)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}
	if err != nil {
		s.logger.Error("assistant request failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate response"})
	}
	return c.JSON(answer)
}

// handleContact relays a contact form submission.
func (s *Server) handleContact(c *fiber.Ctx) error {
	if s.relay == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Contact form not configured"})
	}

	var sub contact.Submission
	if err := c.BodyParser(&sub); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	id, err := s.relay.Send(c.UserContext(), sub)
	if err != nil {
		var ve *contact.ValidationError
		switch {
		case errors.As(err, &ve):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid form data",
				"details": ve.Fields,
			})
		case errors.Is(err, contact.ErrSpam):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		case errors.Is(err, contact.ErrExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Request expired"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send email"})
	}

	return c.JSON(fiber.Map{"success": true, "id": id})
}

// Chat session handlers

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Create()
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":   sess.ID,
		"view": sess.Widget.View(),
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	return c.JSON(fiber.Map{
		"id":       sess.ID,
		"view":     sess.Widget.View(),
		"messages": sess.Controller.Messages(),
	})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if !s.sessions.Remove(c.Params("id")) {
		return notFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	if err := sess.Controller.Submit(body.Text); err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(sess.Widget.View())
}

func (s *Server) handleSetAudio(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil || body.Enabled == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enabled is required"})
	}

	if err := sess.Controller.SetAudio(*body.Enabled); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sess.Widget.View())
}

func (s *Server) handleSetChat(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := c.BodyParser(&body); err != nil || body.Visible == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "visible is required"})
	}

	if err := sess.Controller.SetChatVisible(*body.Visible); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sess.Widget.View())
}

func (s *Server) handleSetVoice(c *fiber.Ctx) error {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	if err := sess.Controller.SetVoice(body.Name); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(sess.Widget.View())
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "session not found",
		"code":  "session_not_found",
	})
}

// fail maps a controller error onto an HTTP response.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("chat request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
