package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const (
	msgTicketNotFound    = "Ticket number not found. Please check and try again."
	msgComplaintNotFound = "Complaint not found"
	msgInvalidStatus     = "Invalid status. Status must be Pending, In Progress, or Resolved."
)

// ComplaintService serves complaint lookups and admin workflows.
type ComplaintService struct {
	complaints  repository.ComplaintRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// ComplaintDependencies bundles repositories for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo  repository.ComplaintRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// ComplaintListFilter narrows the admin complaint listing. Empty fields match everything.
type ComplaintListFilter struct {
	Department string
	Status     string
	Limit      int
	Offset     int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints:  deps.ComplaintRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// Track returns the public view of a complaint by ticket number.
func (s *ComplaintService) Track(ctx context.Context, ticketNumber string) (*domain.ComplaintView, error) {
	ticketNumber = strings.ToUpper(strings.TrimSpace(ticketNumber))
	if ticketNumber == "" {
		return nil, apperrors.NewValidationError("Ticket number is required", map[string]any{"field": "ticket_number"})
	}
	view, err := s.complaints.GetByTicket(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundMessage(msgTicketNotFound, map[string]any{"ticket_number": ticketNumber})
		}
		return nil, err
	}
	return view, nil
}

// List returns complaints newest first, filtered by exact department name and status.
func (s *ComplaintService) List(ctx context.Context, filter ComplaintListFilter) ([]domain.ComplaintView, error) {
	repoFilter := repository.ComplaintFilter{Limit: filter.Limit, Offset: filter.Offset}
	if dept := strings.TrimSpace(filter.Department); dept != "" {
		repoFilter.Department = &dept
	}
	if raw := strings.TrimSpace(filter.Status); raw != "" {
		status := domain.ComplaintStatus(raw)
		if !status.Valid() {
			return nil, apperrors.NewValidationError(msgInvalidStatus, map[string]any{"status": raw})
		}
		repoFilter.Status = &status
	}
	return s.complaints.ListWithFilter(ctx, repoFilter)
}

// Get returns the admin detail view of a complaint.
func (s *ComplaintService) Get(ctx context.Context, id int64) (*domain.ComplaintView, error) {
	view, err := s.complaints.GetViewByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundMessage(msgComplaintNotFound, map[string]any{"complaint_id": id})
		}
		return nil, err
	}
	return view, nil
}

// UpdateStatus moves a complaint to one of the closed set of statuses. Values outside
// the set are rejected before the store is touched.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *domain.Session, id int64, raw string) (*domain.Complaint, error) {
	status := domain.ComplaintStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return nil, apperrors.NewValidationError(msgInvalidStatus, map[string]any{"status": raw})
	}
	if id <= 0 {
		return nil, apperrors.NewValidationError("complaint_id is required", map[string]any{"field": "complaint_id"})
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.complaints.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundMessage(msgComplaintNotFound, map[string]any{"complaint_id": id})
		}
		return nil, fmt.Errorf("update complaint status: %w", err)
	}

	actorMeta := events.Actor{Type: events.ActorAdmin}
	if actor != nil {
		adminID := actor.AdminID
		actorMeta.AdminID = &adminID
		actorMeta.Username = actor.Username
	}
	s.logger.Info("complaint status updated",
		zap.Int64("complaint_id", id),
		zap.String("ticket_number", updated.TicketNumber),
		zap.String("old_status", string(current.Status)),
		zap.String("new_status", string(status)),
		zap.String("admin", actorMeta.Username))

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:         events.EventComplaintStatusChanged,
		TicketNumber: updated.TicketNumber,
		ComplaintID:  updated.ID,
		Actor:        actorMeta,
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: status,
			UserEmail: current.UserEmail,
		},
	})
	return updated, nil
}

// Departments lists routing departments by name.
func (s *ComplaintService) Departments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.List(ctx)
}

// Report aggregates complaint counts for the dashboard.
func (s *ComplaintService) Report(ctx context.Context) (*domain.Report, error) {
	return s.complaints.Report(ctx)
}
