package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Type string

const (
	ListingSubmitted Type = "listing.submitted"
	ListingUpdated   Type = "listing.updated"
	ListingApproved  Type = "listing.approved"
	ListingRejected  Type = "listing.rejected"
	ListingDeleted   Type = "listing.deleted"
	ReviewReminder   Type = "review.reminder"
)

// Event is one entry of the listings stream. Listing fields are empty for
// review reminders, which carry Pending instead.
type Event struct {
	Type        Type
	ListingID   string
	ListingName string
	OwnerID     string
	State       string
	Pending     int
	At          time.Time
}

func (e Event) Values() map[string]any {
	return map[string]any{
		"type":        string(e.Type),
		"listingId":   e.ListingID,
		"listingName": e.ListingName,
		"ownerId":     e.OwnerID,
		"state":       e.State,
		"pending":     strconv.Itoa(e.Pending),
		"at":          e.At.UTC().Format(time.RFC3339),
	}
}

// Decode rebuilds an event from a stream entry.
func Decode(values map[string]any) (Event, error) {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return ""
	}

	ev := Event{
		Type:        Type(str("type")),
		ListingID:   str("listingId"),
		ListingName: str("listingName"),
		OwnerID:     str("ownerId"),
		State:       str("state"),
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	if raw := str("pending"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Event{}, fmt.Errorf("pending count: %w", err)
		}
		ev.Pending = n
	}
	if raw := str("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Event{}, fmt.Errorf("event time: %w", err)
		}
		ev.At = at
	}
	return ev, nil
}

// Publisher appends events to a Redis stream. A nil Publisher, or one
// without a client, drops events silently.
type Publisher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client, stream string, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		log:    log,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil || p.client == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: ev.Values(),
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}

	p.log.Debug().Str("stream", p.stream).Str("entry", id).Str("type", string(ev.Type)).Msg("event published")
	return nil
}
