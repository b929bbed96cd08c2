package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventComplaintSubmitted, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketNumber)
		return errors.New("boom")
	})
	d.Subscribe(EventComplaintSubmitted, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketNumber)
		return nil
	})
	d.Subscribe(EventComplaintStatusChanged, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventComplaintSubmitted, TicketNumber: "TKT-0000ABCD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:TKT-0000ABCD", "second:TKT-0000ABCD"}, got)
}

func TestDispatcherWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventComplaintStatusChanged}))
}
