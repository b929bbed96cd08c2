package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// ChatHandler serves the assistant endpoint.
type ChatHandler struct {
	chat ChatResponder
}

// NewChatHandler constructs handler.
func NewChatHandler(chat ChatResponder) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat POST /api/chat. Complaint replies carry the suggested department and put the
// text under "message"; every other type uses "reply".
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request format", nil)
	}
	reply, err := h.chat.Reply(c.UserContext(), service.ChatInput{Message: req.Message, IsFollowUp: req.FollowUp()})
	if err != nil {
		return err
	}
	if reply.Type == domain.ChatReplyComplaint {
		return c.JSON(fiber.Map{
			"success":    true,
			"type":       reply.Type,
			"department": reply.Department,
			"message":    reply.Reply,
		})
	}
	return c.JSON(fiber.Map{"success": true, "type": reply.Type, "reply": reply.Reply})
}
