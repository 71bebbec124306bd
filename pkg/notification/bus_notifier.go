package notification

import (
	"context"

	"github.com/klokku/finance/internal/event_bus"
	"github.com/klokku/finance/pkg/recurring"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// BusNotifier publishes recurring processing outcomes on the event bus.
// Subscriber failures are logged only, processing never waits on them.
type BusNotifier struct {
	bus *event_bus.EventBus
}

func NewBusNotifier(bus *event_bus.EventBus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) NotifySummary(ctx context.Context, count int, total decimal.Decimal) {
	userId, ok := n.currentUser(ctx)
	if !ok {
		return
	}
	n.publish(ctx, event_bus.RecurringProcessed, event_bus.RecurringProcessedSummary{
		UserId:      userId,
		Count:       count,
		TotalAmount: total,
	})
}

func (n *BusNotifier) NotifyConfirmationNeeded(ctx context.Context, count int, total decimal.Decimal) {
	userId, ok := n.currentUser(ctx)
	if !ok {
		return
	}
	n.publish(ctx, event_bus.RecurringConfirmationNeeded, event_bus.RecurringConfirmationNeededPayload{
		UserId:      userId,
		Count:       count,
		TotalAmount: total,
	})
}

func (n *BusNotifier) NotifyFailure(ctx context.Context, def recurring.Definition, reason string) {
	userId, ok := n.currentUser(ctx)
	if !ok {
		return
	}
	n.publish(ctx, event_bus.RecurringProcessingFailed, event_bus.RecurringProcessingFailedPayload{
		UserId:      userId,
		RecurringId: def.Id,
		Description: def.Description,
		Reason:      reason,
	})
}

func (n *BusNotifier) currentUser(ctx context.Context) (int, bool) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		log.Errorf("cannot notify without a user: %v", err)
		return 0, false
	}
	return userId, true
}

func (n *BusNotifier) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	// a cancelled request must not swallow the notification
	ctx = context.WithoutCancel(ctx)
	if err := n.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("notification %s was not fully delivered: %v", eventType, err)
	}
}
