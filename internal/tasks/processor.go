package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"unimart/internal/events"
)

// Processor turns listing events into seller and admin notifications. The
// notifications are written to the log.
type Processor struct {
	logger zerolog.Logger
}

func NewProcessor(logger zerolog.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	ev, err := events.Decode(msg.Values)
	if err != nil {
		return fmt.Errorf("decode event %s: %w", msg.ID, err)
	}

	switch ev.Type {
	case events.ListingSubmitted, events.ListingUpdated:
		p.notifyAdmins(ev, "listing awaits review")
	case events.ListingApproved:
		p.notifySeller(ev, "your listing is live")
	case events.ListingRejected:
		p.notifySeller(ev, "your listing was rejected")
	case events.ListingDeleted:
		p.logger.Info().Str("listing_id", ev.ListingID).Str("owner_id", ev.OwnerID).Msg("listing removed by seller")
	case events.ReviewReminder:
		p.logger.Info().Str("audience", "admins").Int("pending", ev.Pending).Msg("listings are waiting for review")
	default:
		p.logger.Warn().Str("type", string(ev.Type)).Str("message_id", msg.ID).Msg("unknown event type")
	}
	return nil
}

func (p *Processor) notifySeller(ev events.Event, text string) {
	p.logger.Info().
		Str("audience", "seller").
		Str("owner_id", ev.OwnerID).
		Str("listing_id", ev.ListingID).
		Str("listing", ev.ListingName).
		Msg(text)
}

func (p *Processor) notifyAdmins(ev events.Event, text string) {
	p.logger.Info().
		Str("audience", "admins").
		Str("listing_id", ev.ListingID).
		Str("listing", ev.ListingName).
		Str("state", ev.State).
		Msg(text)
}
