package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/storage"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type intakeFixture struct {
	db         *memDB
	blobs      *memBlobs
	classifier *mockClassifier
	scorer     *stubScorer
	metrics    *observability.Metrics
	events     *[]events.Event
	intake     *IntakeService
	complaints *ComplaintService
}

func newIntakeFixture(t *testing.T, tickets TicketSource) *intakeFixture {
	t.Helper()
	db := newMemDB(domain.ClassifierDepartments...)
	dispatcher, recorded := recordedEvents()
	f := &intakeFixture{
		db:         db,
		blobs:      newMemBlobs(),
		classifier: &mockClassifier{},
		scorer:     &stubScorer{verdict: domain.RelevanceVerdict{Relevant: true, Score: 31.2}},
		metrics:    observability.NewMetrics(),
		events:     recorded,
	}
	f.intake = NewIntakeService(IntakeDependencies{
		UserRepo:       memUsers{db},
		DepartmentRepo: memDepartments{db},
		ComplaintRepo:  memComplaints{db},
		Classifier:     f.classifier,
		Scorer:         f.scorer,
		Tickets:        tickets,
		Blobs:          f.blobs,
		Dispatcher:     dispatcher,
		Metrics:        f.metrics,
	})
	f.complaints = NewComplaintService(ComplaintDependencies{
		ComplaintRepo:  memComplaints{db},
		DepartmentRepo: memDepartments{db},
		Dispatcher:     dispatcher,
	})
	return f
}

func (f *intakeFixture) outcome(name string) float64 {
	return testutil.ToFloat64(f.metrics.IntakeTotal.WithLabelValues(name))
}

func streetlightInput() IntakeInput {
	return IntakeInput{
		Name:      "A",
		Email:     "a@x.com",
		Phone:     "555-0100",
		Complaint: "Streetlight broken on 5th Ave",
		Address:   "5th Ave",
	}
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func assertCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code, "unexpected error: %v", err)
	return domainErr
}

func TestSubmitWithoutImageIsStoredPending(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	in := streetlightInput()
	f.classifier.On("Classify", mock.Anything, in.Complaint).
		Return(domain.Classification{Department: "Electrical"}, nil).Once()

	result, err := f.intake.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, ValidTicketNumber(result.TicketNumber), result.TicketNumber)
	assert.Equal(t, "Electrical", result.Department)
	assert.Nil(t, result.ImagePath)
	assert.Zero(t, f.scorer.calls)
	assert.Empty(t, f.blobs.keys())

	tracked, err := f.complaints.Track(context.Background(), result.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, tracked.Status)
	assert.Equal(t, "Electrical", tracked.DepartmentName)
	assert.Equal(t, "5th Ave", tracked.Address)

	require.Len(t, *f.events, 1)
	event := (*f.events)[0]
	assert.Equal(t, events.EventComplaintSubmitted, event.Type)
	assert.Equal(t, result.TicketNumber, event.TicketNumber)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, 1.0, f.outcome(observability.OutcomeAccepted))
	f.classifier.AssertExpectations(t)
}

func TestSubmitCasualIsRejectedWithoutComplaint(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	in := streetlightInput()
	in.Complaint = "hi there"
	f.classifier.On("Classify", mock.Anything, "hi there").
		Return(domain.Classification{Casual: true}, nil).Once()

	_, err := f.intake.Submit(context.Background(), in)
	domainErr := assertCode(t, err, apperrors.CodeComplaintRejected)
	assert.Equal(t, 400, domainErr.HTTPStatus)
	assert.Equal(t, MsgNotAComplaint, domainErr.Message)

	assert.Empty(t, f.db.complaints)
	assert.Len(t, f.db.users, 1, "submitter may be recorded before the rejection")
	assert.Empty(t, *f.events)
	assert.Equal(t, 1.0, f.outcome(observability.OutcomeRejectedCasual))
}

func TestSubmitClassifierFailureIsInternal(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Classification{}, errors.New("model unreachable")).Once()

	_, err := f.intake.Submit(context.Background(), streetlightInput())
	domainErr := assertCode(t, err, apperrors.CodeInternal)
	assert.Equal(t, 500, domainErr.HTTPStatus)
	assert.NotContains(t, domainErr.Message, "unreachable")
	assert.Empty(t, f.db.complaints)
	assert.Equal(t, 1.0, f.outcome(observability.OutcomeFailed))
}

func TestSubmitInfrastructureFailuresAreInternal(t *testing.T) {
	cases := []struct {
		name     string
		breakDB  func(db *memDB)
		classify bool
	}{
		{
			name:    "submitter upsert fails",
			breakDB: func(db *memDB) { db.upsertErr = errors.New("connection reset") },
		},
		{
			name:     "department lookup fails",
			breakDB:  func(db *memDB) { db.lookupErr = errors.New("connection reset") },
			classify: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newIntakeFixture(t, NewTicketAllocator())
			tc.breakDB(f.db)
			if tc.classify {
				f.classifier.On("Classify", mock.Anything, mock.Anything).
					Return(domain.Classification{Department: "Electrical"}, nil).Once()
			}
			in := streetlightInput()
			in.Image = pngDataURI(t)

			_, err := f.intake.Submit(context.Background(), in)
			domainErr := assertCode(t, err, apperrors.CodeInternal)
			assert.Equal(t, 500, domainErr.HTTPStatus)
			assert.NotContains(t, domainErr.Message, "connection reset")
			assert.Empty(t, f.db.complaints)
			assert.Empty(t, f.blobs.keys())
			assert.Zero(t, f.scorer.calls)
			assert.Empty(t, *f.events)
			assert.Equal(t, 1.0, f.outcome(observability.OutcomeFailed))
			f.classifier.AssertExpectations(t)
		})
	}
}

func TestSubmitUnknownDepartmentFallsBackToAdministration(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Classification{Department: "Parks & Recreation"}, nil).Once()

	result, err := f.intake.Submit(context.Background(), streetlightInput())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDepartmentName, result.Department)
	require.Len(t, f.db.complaints, 1)
	assert.Equal(t, "Administration", f.db.departmentName(f.db.complaints[0].DepartmentID))
}

func TestSubmitIrrelevantImageIsRejected(t *testing.T) {
	cases := []struct {
		name  string
		score float64
		msg   string
	}{
		{"well below", 12.34, "Irrelevant image attached. Similarity score: 12.34. Complaint rejected."},
		{"at threshold", 25.0, "Irrelevant image attached. Similarity score: 25.00. Complaint rejected."},
		{"scoring failed", 0, "Irrelevant image attached. Similarity score: 0.00. Complaint rejected."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newIntakeFixture(t, NewTicketAllocator())
			f.scorer.verdict = domain.RelevanceVerdict{Relevant: false, Score: tc.score}
			f.classifier.On("Classify", mock.Anything, mock.Anything).
				Return(domain.Classification{Department: "Electrical"}, nil).Once()

			in := streetlightInput()
			in.Image = pngDataURI(t)
			_, err := f.intake.Submit(context.Background(), in)

			domainErr := assertCode(t, err, apperrors.CodeImageRejected)
			assert.Equal(t, 400, domainErr.HTTPStatus)
			assert.Equal(t, tc.msg, domainErr.Message)
			assert.Equal(t, tc.score, domainErr.Details["similarity_score"])
			assert.Empty(t, f.db.complaints)
			assert.Empty(t, f.blobs.keys())
			assert.Equal(t, 1.0, f.outcome(observability.OutcomeRejectedImage))
		})
	}
}

func TestSubmitRelevantImageStoresOneBlob(t *testing.T) {
	f := newIntakeFixture(t, &fixedTickets{numbers: []string{"TKT-1A2B3C4D"}})
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Classification{Department: "Electrical"}, nil).Once()

	in := streetlightInput()
	in.Image = pngDataURI(t)
	result, err := f.intake.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"TKT-1A2B3C4D.png"}, f.blobs.keys())
	require.NotNil(t, result.ImagePath)
	assert.Equal(t, "uploads/TKT-1A2B3C4D.png", *result.ImagePath)

	require.Len(t, f.db.complaints, 1)
	stored := f.db.complaints[0]
	require.NotNil(t, stored.ImagePath)
	assert.Equal(t, "TKT-1A2B3C4D.png", storage.KeyFromPublicPath(*stored.ImagePath))
	assert.Equal(t, 1, f.scorer.calls)
}

func TestSubmitInsertFailureRemovesStoredImage(t *testing.T) {
	f := newIntakeFixture(t, &fixedTickets{numbers: []string{"TKT-00000001"}})
	f.db.createErr = errors.New("connection reset")
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Classification{Department: "Water"}, nil).Once()

	in := streetlightInput()
	in.Image = pngDataURI(t)
	_, err := f.intake.Submit(context.Background(), in)

	assertCode(t, err, apperrors.CodeInternal)
	assert.Empty(t, f.blobs.keys())
	assert.Empty(t, *f.events)
}

func TestSubmitBlobFailureStoresNothing(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	f.blobs.putErr = errors.New("bucket unavailable")
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Classification{Department: "Water"}, nil).Once()

	in := streetlightInput()
	in.Image = pngDataURI(t)
	_, err := f.intake.Submit(context.Background(), in)

	assertCode(t, err, apperrors.CodeInternal)
	assert.Empty(t, f.db.complaints)
}

func TestSubmitReusesSubmitterByEmail(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	f.classifier.On("Classify", mock.Anything, mock.Anything).
		Return(domain.Classification{Department: "Water"}, nil).Twice()

	first := streetlightInput()
	second := streetlightInput()
	second.Name = "Someone Else"
	second.Email = "  A@X.com "
	second.Complaint = "No water supply since Monday"

	_, err := f.intake.Submit(context.Background(), first)
	require.NoError(t, err)
	_, err = f.intake.Submit(context.Background(), second)
	require.NoError(t, err)

	require.Len(t, f.db.users, 1)
	require.Len(t, f.db.complaints, 2)
	assert.Equal(t, f.db.complaints[0].UserID, f.db.complaints[1].UserID)
	assert.Equal(t, "A", f.db.users["a@x.com"].Name, "first submission keeps its name")
}

func TestSubmitValidation(t *testing.T) {
	cases := map[string]func(*IntakeInput){
		"missing complaint": func(in *IntakeInput) { in.Complaint = "   " },
		"missing name":      func(in *IntakeInput) { in.Name = "" },
		"bad email":         func(in *IntakeInput) { in.Email = "not-an-email" },
		"missing phone":     func(in *IntakeInput) { in.Phone = "" },
		"missing address":   func(in *IntakeInput) { in.Address = "" },
		"malformed image":   func(in *IntakeInput) { in.Image = "data:image/png;base64,@@@not-base64@@@" },
		"data uri no comma": func(in *IntakeInput) { in.Image = "data:image/png;base64" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newIntakeFixture(t, NewTicketAllocator())
			in := streetlightInput()
			mutate(&in)

			_, err := f.intake.Submit(context.Background(), in)
			domainErr := assertCode(t, err, apperrors.CodeValidationFailed)
			assert.Equal(t, 400, domainErr.HTTPStatus)
			assert.Empty(t, f.db.users)
			assert.Empty(t, f.db.complaints)
			f.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
		})
	}
}

func TestTicketAllocatorFormatAndUniqueness(t *testing.T) {
	alloc := NewTicketAllocator()
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		ticket := alloc.Next()
		require.True(t, ValidTicketNumber(ticket), ticket)
		_, dup := seen[ticket]
		require.False(t, dup, "duplicate ticket %s", ticket)
		seen[ticket] = struct{}{}
	}
}

func TestTicketAllocatorDerivesFromUUID(t *testing.T) {
	alloc := &TicketAllocator{newID: func() string { return "1a2b3c4d-5e6f-4a00-8b00-000000000000" }}
	assert.Equal(t, "TKT-1A2B3C4D", alloc.Next())
	assert.False(t, ValidTicketNumber("TKT-1a2b3c4d"))
	assert.False(t, ValidTicketNumber("TCK-1A2B3C4D"))
}

func TestDecodeImage(t *testing.T) {
	raw, err := DecodeImage("")
	require.NoError(t, err)
	assert.Nil(t, raw)

	payload := base64.StdEncoding.EncodeToString([]byte("hello"))
	raw, err = DecodeImage(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	raw, err = DecodeImage("data:image/jpeg;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	raw, err = DecodeImage(base64.RawStdEncoding.EncodeToString([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	_, err = DecodeImage("data:image/png,plain")
	assert.Error(t, err)
	_, err = DecodeImage("%%%")
	assert.Error(t, err)
}
