package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// SubmitComplaintRequest payload for the citizen portal form.
type SubmitComplaintRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Complaint string `json:"complaint"`
	Address   string `json:"address"`
	Image     string `json:"image"`
}

// TrackComplaintRequest payload.
type TrackComplaintRequest struct {
	TicketNumber string `json:"ticket_number"`
}

// ComplaintTrack is the citizen-facing view of a complaint.
type ComplaintTrack struct {
	TicketNumber string    `json:"ticket_number"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	Address      string    `json:"address"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ComplaintSummary is a row in the admin complaint list.
type ComplaintSummary struct {
	ID           int64     `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	Department   string    `json:"department"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ComplaintDetail adds the image reference and address to a summary.
type ComplaintDetail struct {
	ComplaintSummary
	Address   string  `json:"address"`
	ImagePath *string `json:"image_path"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	ComplaintID int64  `json:"complaint_id"`
	Status      string `json:"status"`
}

// DepartmentItem is a department in admin listings.
type DepartmentItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewComplaintTrack maps a complaint view for tracking.
func NewComplaintTrack(v *domain.ComplaintView) ComplaintTrack {
	return ComplaintTrack{
		TicketNumber: v.TicketNumber,
		Description:  v.Description,
		Status:       string(v.Status),
		Address:      v.Address,
		Department:   v.DepartmentName,
		CreatedAt:    v.CreatedAt.UTC(),
		UpdatedAt:    v.UpdatedAt.UTC(),
	}
}

// NewComplaintSummary maps a complaint view for the admin list.
func NewComplaintSummary(v *domain.ComplaintView) ComplaintSummary {
	return ComplaintSummary{
		ID:           v.ID,
		TicketNumber: v.TicketNumber,
		Description:  v.Description,
		Status:       string(v.Status),
		Department:   v.DepartmentName,
		UserName:     v.UserName,
		UserEmail:    v.UserEmail,
		CreatedAt:    v.CreatedAt.UTC(),
		UpdatedAt:    v.UpdatedAt.UTC(),
	}
}

// NewComplaintDetail maps a complaint view for the admin detail page.
func NewComplaintDetail(v *domain.ComplaintView) ComplaintDetail {
	return ComplaintDetail{
		ComplaintSummary: NewComplaintSummary(v),
		Address:          v.Address,
		ImagePath:        v.ImagePath,
	}
}
