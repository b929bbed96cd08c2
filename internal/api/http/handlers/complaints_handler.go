package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// ComplaintsHandler serves the citizen portal endpoints.
type ComplaintsHandler struct {
	intake     ComplaintIntake
	complaints ComplaintQueries
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(intake ComplaintIntake, complaints ComplaintQueries) *ComplaintsHandler {
	return &ComplaintsHandler{intake: intake, complaints: complaints}
}

// Submit POST /api/submit_complaint.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request format", nil)
	}
	result, err := h.intake.Submit(c.UserContext(), service.IntakeInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Complaint: req.Complaint,
		Address:   req.Address,
		Image:     req.Image,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Complaint submitted successfully.",
		"ticket_number": result.TicketNumber,
		"department":    result.Department,
	})
}

// Track POST /api/track_complaint.
func (h *ComplaintsHandler) Track(c *fiber.Ctx) error {
	var req dto.TrackComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request format", nil)
	}
	view, err := h.complaints.Track(c.UserContext(), req.TicketNumber)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "complaint": dto.NewComplaintTrack(view)})
}
