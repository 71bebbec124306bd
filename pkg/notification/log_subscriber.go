package notification

import (
	"github.com/klokku/finance/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// SubscribeLogger writes every recurring processing outcome to the log.
func SubscribeLogger(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.RecurringProcessed, func(e event_bus.EventT[event_bus.RecurringProcessedSummary]) error {
		log.WithFields(log.Fields{
			"userId": e.Data.UserId,
			"count":  e.Data.Count,
			"total":  e.Data.TotalAmount.StringFixed(2),
		}).Info("Recurring transactions processed")
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.RecurringConfirmationNeeded, func(e event_bus.EventT[event_bus.RecurringConfirmationNeededPayload]) error {
		log.WithFields(log.Fields{
			"userId": e.Data.UserId,
			"count":  e.Data.Count,
			"total":  e.Data.TotalAmount.StringFixed(2),
		}).Info("Recurring transactions wait for confirmation")
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.RecurringProcessingFailed, func(e event_bus.EventT[event_bus.RecurringProcessingFailedPayload]) error {
		log.WithFields(log.Fields{
			"userId":      e.Data.UserId,
			"recurringId": e.Data.RecurringId,
			"reason":      e.Data.Reason,
		}).Warn("Recurring transaction processing failed")
		return nil
	})
}
