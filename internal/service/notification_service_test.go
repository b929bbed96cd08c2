package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
)

func TestNotificationServiceEmailsSubmitterOnStatusChange(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "noreply@example.com"})
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:         events.EventComplaintStatusChanged,
		TicketNumber: "TKT-0000BEEF",
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: domain.ComplaintStatusPending,
			NewStatus: domain.ComplaintStatusResolved,
			UserEmail: "citizen@example.com",
		},
	}))

	emails := logs.FilterMessage("status notification email queued").All()
	require.Len(t, emails, 1)
	fields := emails[0].ContextMap()
	assert.Equal(t, "citizen@example.com", fields["to"])
	assert.Equal(t, "TKT-0000BEEF", fields["ticket_number"])
	assert.Empty(t, logs.FilterMessage("sendWebhookNotificationStub").All())
}

func TestNotificationServiceWithoutSender(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{WebhookURL: "http://hooks.local/complaints"})
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventComplaintSubmitted,
		Payload: events.ComplaintSubmittedPayload{Department: "Water", UserEmail: "c@example.com"},
	}))

	assert.Empty(t, logs.FilterMessage("status notification email queued").All())
	assert.Len(t, logs.FilterMessage("sendWebhookNotificationStub").All(), 1)
	assert.Len(t, logs.FilterMessage("ComplaintSubmitted").All(), 1)
}
