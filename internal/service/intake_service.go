package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/relevance"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/storage"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// Rejection messages returned to citizens.
const (
	MsgNotAComplaint = "Your message does not appear to be a valid complaint. Please describe the issue you are facing."
	msgImageRejected = "Irrelevant image attached. Similarity score: %.2f. Complaint rejected."
)

// ComplaintClassifier decides the routing department for complaint text.
type ComplaintClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// ImageScorer judges whether an image matches complaint text. It never fails; an
// unverifiable image comes back as not relevant with score 0.
type ImageScorer interface {
	Score(ctx context.Context, image []byte, text string) domain.RelevanceVerdict
}

// IntakeInput is a citizen's complaint submission. Image is an optional base64 payload,
// with or without a data URI prefix.
type IntakeInput struct {
	Name      string `validate:"required,max=100"`
	Email     string `validate:"required,email,max=100"`
	Phone     string `validate:"required,max=20"`
	Complaint string `validate:"required"`
	Address   string `validate:"required"`
	Image     string
}

// IntakeResult is returned for an accepted complaint.
type IntakeResult struct {
	ComplaintID  int64
	TicketNumber string
	Department   string
	ImagePath    *string
}

// IntakeService runs the complaint submission pipeline.
type IntakeService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	complaints  repository.ComplaintRepository
	classifier  ComplaintClassifier
	scorer      ImageScorer
	tickets     TicketSource
	blobs       storage.BlobStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	validate    *validator.Validate
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	ComplaintRepo  repository.ComplaintRepository
	Classifier     ComplaintClassifier
	Scorer         ImageScorer
	Tickets        TicketSource
	Blobs          storage.BlobStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tickets := deps.Tickets
	if tickets == nil {
		tickets = NewTicketAllocator()
	}
	return &IntakeService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		complaints:  deps.ComplaintRepo,
		classifier:  deps.Classifier,
		scorer:      deps.Scorer,
		tickets:     tickets,
		blobs:       deps.Blobs,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		metrics:     deps.Metrics,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit validates, classifies, verifies and stores a complaint. Steps run strictly in
// order; a rejection or validation failure never leaves a complaint row or image blob.
// The submitter row may survive a later rejection.
func (s *IntakeService) Submit(ctx context.Context, in IntakeInput) (*IntakeResult, error) {
	ctx, span := observability.StartSpan(ctx, "intake.Submit")
	defer span.End()

	in = normalizeIntake(in)
	if err := s.validateInput(in); err != nil {
		s.metrics.RecordIntake(observability.OutcomeInvalid)
		return nil, err
	}
	image, err := DecodeImage(in.Image)
	if err != nil {
		s.metrics.RecordIntake(observability.OutcomeInvalid)
		return nil, apperrors.NewValidationError("image must be a base64 encoded image or data URI", map[string]any{"field": "image"})
	}

	user := &domain.User{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return nil, s.fail("resolve submitter", err)
	}

	verdict, err := s.classifier.Classify(ctx, in.Complaint)
	if err != nil {
		return nil, s.fail("classify complaint", err)
	}
	if verdict.Casual {
		s.metrics.RecordIntake(observability.OutcomeRejectedCasual)
		s.logger.Info("complaint rejected as casual", zap.String("email", in.Email))
		return nil, apperrors.NewRejected(apperrors.CodeComplaintRejected, MsgNotAComplaint, nil)
	}

	department, err := s.resolveDepartment(ctx, verdict.Department)
	if err != nil {
		return nil, s.fail("resolve department", err)
	}
	span.SetAttributes(attribute.String("department", department.Name))

	if image != nil {
		match := s.scorer.Score(ctx, image, in.Complaint)
		if !match.Relevant {
			s.metrics.RecordIntake(observability.OutcomeRejectedImage)
			s.logger.Info("complaint rejected for irrelevant image",
				zap.String("email", in.Email),
				zap.Float64("similarity_score", match.Score))
			return nil, apperrors.NewRejected(apperrors.CodeImageRejected,
				fmt.Sprintf(msgImageRejected, match.Score),
				map[string]any{"similarity_score": match.Score})
		}
	}

	ticket := s.tickets.Next()
	complaint := &domain.Complaint{
		TicketNumber: ticket,
		UserID:       user.ID,
		DepartmentID: department.ID,
		Description:  in.Complaint,
		Address:      in.Address,
		Status:       domain.ComplaintStatusPending,
	}

	var blobKey string
	if image != nil {
		blobKey = imageBlobKey(ticket, image)
		if err := s.blobs.Put(ctx, blobKey, image); err != nil {
			return nil, s.fail("store image", err)
		}
		ref := storage.PublicPath(blobKey)
		complaint.ImagePath = &ref
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		if blobKey != "" {
			s.discardBlob(ctx, blobKey)
		}
		return nil, s.fail("insert complaint", err)
	}

	s.metrics.RecordIntake(observability.OutcomeAccepted)
	s.logger.Info("complaint accepted",
		zap.String("ticket_number", ticket),
		zap.String("department", department.Name),
		zap.Bool("has_image", image != nil))

	s.publishEvent(ctx, events.Event{
		Type:         events.EventComplaintSubmitted,
		TicketNumber: ticket,
		ComplaintID:  complaint.ID,
		Actor:        events.Actor{Type: events.ActorCitizen, Email: user.Email},
		Payload: events.ComplaintSubmittedPayload{
			Department: department.Name,
			UserEmail:  user.Email,
			HasImage:   image != nil,
		},
	})

	return &IntakeResult{
		ComplaintID:  complaint.ID,
		TicketNumber: ticket,
		Department:   department.Name,
		ImagePath:    complaint.ImagePath,
	}, nil
}

func (s *IntakeService) validateInput(in IntakeInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid submission", nil)
	}
	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return apperrors.NewValidationError("name, email, phone, complaint and address are required", map[string]any{"fields": fields})
}

// resolveDepartment maps the classifier's answer to a stored department, falling back
// to the default department when the name is unknown.
func (s *IntakeService) resolveDepartment(ctx context.Context, name string) (*domain.Department, error) {
	if name != "" {
		dept, err := s.departments.GetByName(ctx, name)
		if err == nil {
			return dept, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		s.logger.Info("classified department unknown, using default",
			zap.String("department", name),
			zap.String("fallback", domain.DefaultDepartmentName))
	}
	dept, err := s.departments.GetByName(ctx, domain.DefaultDepartmentName)
	if err != nil {
		return nil, fmt.Errorf("default department %q: %w", domain.DefaultDepartmentName, err)
	}
	return dept, nil
}

func (s *IntakeService) discardBlob(ctx context.Context, key string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.blobs.Delete(cleanupCtx, key); err != nil {
		s.logger.Error("orphaned complaint image", zap.String("key", key), zap.Error(err))
	}
}

func (s *IntakeService) fail(step string, err error) error {
	s.metrics.RecordIntake(observability.OutcomeFailed)
	s.logger.Error("complaint intake failed", zap.String("step", step), zap.Error(err))
	return apperrors.NewInternalError(fmt.Errorf("%s: %w", step, err))
}

func (s *IntakeService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

// DecodeImage decodes an optional base64 image, accepting a data URI prefix such as
// "data:image/jpeg;base64,". An empty payload returns nil without error.
func DecodeImage(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}
	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, errors.New("malformed data URI")
		}
		payload = data
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("empty image")
	}
	return raw, nil
}

func imageBlobKey(ticket string, image []byte) string {
	format, err := relevance.DetectFormat(image)
	if err != nil {
		format = ""
	}
	return storage.ImageKey(ticket, format)
}

func normalizeIntake(in IntakeInput) IntakeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Complaint = strings.TrimSpace(in.Complaint)
	in.Address = strings.TrimSpace(in.Address)
	return in
}
