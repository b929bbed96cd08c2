package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

func submitOne(t *testing.T, f *intakeFixture, department, text string) *IntakeResult {
	t.Helper()
	f.classifier.On("Classify", mock.Anything, text).
		Return(domain.Classification{Department: department}, nil).Once()
	in := streetlightInput()
	in.Complaint = text
	result, err := f.intake.Submit(context.Background(), in)
	require.NoError(t, err)
	return result
}

func TestUpdateStatusIsVisibleThroughTracking(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	submitted := submitOne(t, f, "Electrical", "Streetlight broken on 5th Ave")
	admin := &domain.Session{AdminID: 7, Username: "root"}

	updated, err := f.complaints.UpdateStatus(context.Background(), admin, submitted.ComplaintID, "Resolved")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, updated.Status)

	tracked, err := f.complaints.Track(context.Background(), submitted.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, tracked.Status)
	assert.True(t, tracked.UpdatedAt.After(tracked.CreatedAt))

	require.Len(t, *f.events, 2)
	changed := (*f.events)[1]
	assert.Equal(t, events.EventComplaintStatusChanged, changed.Type)
	require.NotNil(t, changed.Actor.AdminID)
	assert.Equal(t, int64(7), *changed.Actor.AdminID)
	payload, ok := changed.Payload.(events.ComplaintStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.ComplaintStatusPending, payload.OldStatus)
	assert.Equal(t, domain.ComplaintStatusResolved, payload.NewStatus)
	assert.Equal(t, "a@x.com", payload.UserEmail)
}

func TestUpdateStatusRejectsValuesOutsideEnum(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	submitted := submitOne(t, f, "Water", "Pipe burst near the school")

	for _, status := range []string{"Closed", "resolved", "", "In-Progress"} {
		_, err := f.complaints.UpdateStatus(context.Background(), nil, submitted.ComplaintID, status)
		domainErr := assertCode(t, err, apperrors.CodeValidationFailed)
		assert.Equal(t, msgInvalidStatus, domainErr.Message)
	}

	tracked, err := f.complaints.Track(context.Background(), submitted.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, tracked.Status)
	assert.Equal(t, tracked.CreatedAt, tracked.UpdatedAt)
	assert.Len(t, *f.events, 1)
}

func TestUpdateStatusUnknownComplaint(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	_, err := f.complaints.UpdateStatus(context.Background(), nil, 999, "In Progress")
	domainErr := assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, 404, domainErr.HTTPStatus)
}

func TestTrackErrors(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())

	_, err := f.complaints.Track(context.Background(), "  ")
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = f.complaints.Track(context.Background(), "TKT-DEADBEEF")
	domainErr := assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, msgTicketNotFound, domainErr.Message)
}

func TestTrackNormalizesTicketCase(t *testing.T) {
	f := newIntakeFixture(t, &fixedTickets{numbers: []string{"TKT-ABCDEF01"}})
	submitOne(t, f, "Water", "Low water pressure")

	tracked, err := f.complaints.Track(context.Background(), " tkt-abcdef01 ")
	require.NoError(t, err)
	assert.Equal(t, "TKT-ABCDEF01", tracked.TicketNumber)
}

func TestListFiltersAndOrdering(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	first := submitOne(t, f, "Water", "Pipe burst near the school")
	second := submitOne(t, f, "Electrical", "Transformer sparking")
	third := submitOne(t, f, "Water", "Sewage overflow on Main St")
	_, err := f.complaints.UpdateStatus(context.Background(), nil, third.ComplaintID, "In Progress")
	require.NoError(t, err)

	all, err := f.complaints.List(context.Background(), ComplaintListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.TicketNumber, second.TicketNumber, first.TicketNumber},
		[]string{all[0].TicketNumber, all[1].TicketNumber, all[2].TicketNumber})

	water, err := f.complaints.List(context.Background(), ComplaintListFilter{Department: "Water"})
	require.NoError(t, err)
	assert.Len(t, water, 2)

	inProgress, err := f.complaints.List(context.Background(), ComplaintListFilter{Department: "Water", Status: "In Progress"})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, third.TicketNumber, inProgress[0].TicketNumber)
	assert.Equal(t, "a@x.com", inProgress[0].UserEmail)

	_, err = f.complaints.List(context.Background(), ComplaintListFilter{Status: "Done"})
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestGetComplaintDetail(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	submitted := submitOne(t, f, "Civil", "Cracked footpath")

	view, err := f.complaints.Get(context.Background(), submitted.ComplaintID)
	require.NoError(t, err)
	assert.Equal(t, "Civil", view.DepartmentName)
	assert.Equal(t, "A", view.UserName)

	_, err = f.complaints.Get(context.Background(), submitted.ComplaintID+100)
	domainErr := assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, msgComplaintNotFound, domainErr.Message)
}

func TestReportAndDepartments(t *testing.T) {
	f := newIntakeFixture(t, NewTicketAllocator())
	submitOne(t, f, "Water", "Pipe burst near the school")
	resolved := submitOne(t, f, "Water", "Leaking hydrant")
	_, err := f.complaints.UpdateStatus(context.Background(), nil, resolved.ComplaintID, "Resolved")
	require.NoError(t, err)

	report, err := f.complaints.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Statistics.TotalComplaints)
	assert.Equal(t, int64(1), report.Statistics.PendingComplaints)
	assert.Equal(t, int64(1), report.Statistics.ResolvedComplaints)

	departments, err := f.complaints.Departments(context.Background())
	require.NoError(t, err)
	assert.Len(t, departments, len(domain.ClassifierDepartments))
	assert.Equal(t, "Administration", departments[0].Name)
}
