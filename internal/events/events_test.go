package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := NewPublisher(client, "listings:events", zerolog.Nop())
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Event{
		Type:        ListingApproved,
		ListingID:   "l1",
		ListingName: "Book",
		OwnerID:     "u1",
		State:       "Approved",
		At:          at,
	})
	require.NoError(t, err)

	entries, err := client.XRange(context.Background(), "listings:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ev, err := Decode(entries[0].Values)
	require.NoError(t, err)
	assert.Equal(t, ListingApproved, ev.Type)
	assert.Equal(t, "l1", ev.ListingID)
	assert.Equal(t, "Book", ev.ListingName)
	assert.Equal(t, "u1", ev.OwnerID)
	assert.Equal(t, "Approved", ev.State)
	assert.True(t, at.Equal(ev.At))
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ListingDeleted}))

	p = NewPublisher(nil, "listings:events", zerolog.Nop())
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ListingDeleted}))
}

func TestDecodeRejectsBadEntries(t *testing.T) {
	_, err := Decode(map[string]any{"listingId": "l1"})
	assert.Error(t, err)

	_, err = Decode(map[string]any{"type": "review.reminder", "pending": "many"})
	assert.Error(t, err)

	ev, err := Decode(map[string]any{"type": "review.reminder", "pending": "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Pending)
}
