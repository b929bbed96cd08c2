package handlers

import (
	"context"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
)

// ComplaintIntake accepts complaint submissions.
type ComplaintIntake interface {
	Submit(ctx context.Context, in service.IntakeInput) (*service.IntakeResult, error)
}

// ComplaintQueries serves complaint reads and admin updates.
type ComplaintQueries interface {
	Track(ctx context.Context, ticketNumber string) (*domain.ComplaintView, error)
	List(ctx context.Context, filter service.ComplaintListFilter) ([]domain.ComplaintView, error)
	Get(ctx context.Context, id int64) (*domain.ComplaintView, error)
	UpdateStatus(ctx context.Context, actor *domain.Session, id int64, status string) (*domain.Complaint, error)
	Departments(ctx context.Context) ([]domain.Department, error)
	Report(ctx context.Context) (*domain.Report, error)
}

// AdminAuthenticator manages admin sessions.
type AdminAuthenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	LogoutToken(ctx context.Context, token string) error
	CurrentAdmin(ctx context.Context, session *domain.Session) (*domain.Admin, error)
}

// ChatResponder answers citizen chat messages.
type ChatResponder interface {
	Reply(ctx context.Context, in service.ChatInput) (*domain.ChatReply, error)
}
