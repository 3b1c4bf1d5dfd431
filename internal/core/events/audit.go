package events

import (
	"context"
	"log/slog"
)

// RegisterAuditLogger logs every campaign event at info level.
func RegisterAuditLogger(bus *EventBus, logger *slog.Logger) {
	handler := func(ctx context.Context, event Event) error {
		logger.Info("campaign event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}
	for _, t := range CampaignEventTypes {
		bus.Subscribe(t, handler)
	}
}
