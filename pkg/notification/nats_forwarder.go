package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/finance/internal/config"
	"github.com/klokku/finance/internal/event_bus"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Publisher is the part of a NATS connection the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the JSON message published for every forwarded event.
type Envelope struct {
	EventId   string              `json:"eventId"`
	EventType event_bus.EventType `json:"eventType"`
	Timestamp time.Time           `json:"timestamp"`
	Source    string              `json:"source"`
	Payload   any                 `json:"payload"`
}

// NatsForwarder republishes recurring processing events to NATS subjects
// named <prefix>.<event type>.
type NatsForwarder struct {
	publisher Publisher
	prefix    string
}

func NewNatsForwarder(publisher Publisher, prefix string) *NatsForwarder {
	return &NatsForwarder{publisher: publisher, prefix: prefix}
}

func (f *NatsForwarder) Subscribe(bus *event_bus.EventBus) {
	for _, eventType := range []event_bus.EventType{
		event_bus.RecurringProcessed,
		event_bus.RecurringConfirmationNeeded,
		event_bus.RecurringProcessingFailed,
	} {
		bus.Subscribe(eventType, f.forward)
	}
}

func (f *NatsForwarder) forward(e event_bus.Event) error {
	subject := f.prefix + "." + string(e.Type)
	data, err := json.Marshal(Envelope{
		EventId:   uuid.NewString(),
		EventType: e.Type,
		Timestamp: e.Timestamp,
		Source:    "finance",
		Payload:   e.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	if err := f.publisher.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}
	log.WithFields(log.Fields{
		"subject": subject,
		"size":    len(data),
	}).Debug("Published message to NATS")
	return nil
}

// ConnectNats opens the NATS connection used by the forwarder.
func ConnectNats(cfg config.Nats) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("finance"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	nc, err := nats.Connect(cfg.Url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.WithField("servers", cfg.Url).Info("Connected to NATS")
	return nc, nil
}
