package realtime

import (
	"context"
	"testing"

	"github.com/UkralStul/trip-comments-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToTripSubscribersOnly(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe("trip-1")
	defer cancelA()
	b, cancelB := h.Subscribe("trip-2")
	defer cancelB()

	require.NoError(t, h.Publish(context.Background(), events.Event{Type: events.CommentAdded, TripID: "trip-1"}))

	select {
	case ev := <-a:
		assert.Equal(t, events.CommentAdded, ev.Type)
	default:
		t.Fatal("expected event for trip-1 subscriber")
	}
	assert.Empty(t, b)
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("trip-1")
	assert.Equal(t, 1, h.Subscribers("trip-1"))

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers("trip-1"))

	_, open := <-ch
	assert.False(t, open)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("trip-1")
	defer cancel()

	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, h.Publish(context.Background(), events.Event{Type: events.LikeChanged, TripID: "trip-1"}))
	}
}
