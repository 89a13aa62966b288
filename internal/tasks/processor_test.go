package tasks

import (
	"bytes"
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimart/internal/events"
)

func TestProcessorNotifies(t *testing.T) {
	cases := []struct {
		event    events.Event
		audience string
		text     string
	}{
		{events.Event{Type: events.ListingSubmitted, ListingID: "l1", ListingName: "Book"}, `"audience":"admins"`, "listing awaits review"},
		{events.Event{Type: events.ListingApproved, ListingID: "l1", OwnerID: "u1"}, `"audience":"seller"`, "your listing is live"},
		{events.Event{Type: events.ListingRejected, ListingID: "l1", OwnerID: "u1"}, `"audience":"seller"`, "your listing was rejected"},
		{events.Event{Type: events.ReviewReminder, Pending: 4}, `"pending":4`, "listings are waiting for review"},
	}

	for _, tc := range cases {
		t.Run(string(tc.event.Type), func(t *testing.T) {
			var buf bytes.Buffer
			p := NewProcessor(zerolog.New(&buf))

			err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: tc.event.Values()})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tc.audience)
			assert.Contains(t, buf.String(), tc.text)
		})
	}
}

func TestProcessorRejectsUndecodableEntries(t *testing.T) {
	p := NewProcessor(zerolog.Nop())
	err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{"listingId": "x"}})
	assert.Error(t, err)

	err = p.Handle(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]any{"type": "something.else"}})
	assert.NoError(t, err)
}
