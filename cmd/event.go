package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/campaign-management/internal/core/events"
	"github.com/frahmantamala/campaign-management/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the campaign event pipeline: publish test events through the bus and the configured broker.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event through the audit logger and, when events.amqp_url is set, the broker forwarder`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(cmd.Context(), args[0])
	},
}

var eventData string

func publishTestEvent(ctx context.Context, eventType string) {
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	events.RegisterAuditLogger(eventBus, lg)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if cfg.Events.AMQPURL != "" {
		fwd, err := events.DialAMQPForwarder(cfg.Events.AMQPURL, cfg.Events.Exchange, lg)
		if err != nil {
			log.Fatalf("failed to connect event broker: %v", err)
		}
		defer fwd.Close()
		fwd.Attach(eventBus, eventType)
	}

	testEvent := events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	if err := eventBus.PublishSync(ctx, testEvent); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	fmt.Println("test event published:", testEvent.ID)
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
