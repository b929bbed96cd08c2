package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// CookieConfig controls the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	auth       AdminAuthenticator
	complaints ComplaintQueries
	cookie     CookieConfig
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authenticator AdminAuthenticator, complaints ComplaintQueries, cookie CookieConfig) *AdminHandler {
	return &AdminHandler{auth: authenticator, complaints: complaints, cookie: cookie}
}

// Login POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request format", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Login successful",
		"admin_username": result.Session.Username,
	})
}

// Logout POST /api/admin/logout.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.LogoutToken(c.UserContext(), c.Cookies(h.cookie.Name)); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
}

// Session GET /api/admin/session.
func (h *AdminHandler) Session(c *fiber.Ctx) error {
	session, ok := auth.SessionFromFiber(c)
	if !ok {
		return apperrors.NewAuthRequired("")
	}
	admin, err := h.auth.CurrentAdmin(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":         true,
		"admin_id":        admin.ID,
		"admin_username":  admin.Username,
		"department_name": admin.DepartmentName,
	})
}

// ListComplaints GET /api/admin/complaints.
func (h *AdminHandler) ListComplaints(c *fiber.Ctx) error {
	filter := service.ComplaintListFilter{
		Department: c.Query("department"),
		Status:     c.Query("status"),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	views, err := h.complaints.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(views))
	for i := range views {
		items = append(items, dto.NewComplaintSummary(&views[i]))
	}
	return c.JSON(fiber.Map{"success": true, "complaints": items})
}

// GetComplaint GET /api/admin/complaints/:id.
func (h *AdminHandler) GetComplaint(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid complaint id", map[string]any{"id": c.Params("id")})
	}
	view, err := h.complaints.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "complaint": dto.NewComplaintDetail(view)})
}

// UpdateStatus POST /api/admin/update_status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	session, ok := auth.SessionFromFiber(c)
	if !ok {
		return apperrors.NewAuthRequired("")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request format", nil)
	}
	updated, err := h.complaints.UpdateStatus(c.UserContext(), session, req.ComplaintID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Complaint status updated to " + string(updated.Status),
	})
}

// ListDepartments GET /api/admin/departments.
func (h *AdminHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.complaints.Departments(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentItem, 0, len(departments))
	for _, d := range departments {
		items = append(items, dto.DepartmentItem{ID: d.ID, Name: d.Name})
	}
	return c.JSON(fiber.Map{"success": true, "departments": items})
}

// Reports GET /api/admin/reports.
func (h *AdminHandler) Reports(c *fiber.Ctx) error {
	report, err := h.complaints.Report(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.NewReportResponse(report)
	return c.JSON(fiber.Map{
		"success":    true,
		"statistics": resp.Statistics,
		"chartData":  resp.ChartData,
		"statusData": resp.StatusData,
	})
}
