package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/klokku/finance/internal/event_bus"
	"github.com/klokku/finance/internal/utils"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
)

type Service interface {
	List(ctx context.Context) ([]Notification, error)
	Dismiss(ctx context.Context, id string) error
}

// ServiceImpl is the notification inbox. It fills itself from recurring
// processing events.
type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewService(repo Repository, clock utils.Clock, bus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{repo: repo, clock: clock}
	event_bus.SubscribeTyped(bus, event_bus.RecurringProcessed, func(e event_bus.EventT[event_bus.RecurringProcessedSummary]) error {
		return s.store(e.Context(), e.Data.UserId, Notification{
			Kind:    KindProcessed,
			Title:   "Recurring transactions processed",
			Message: fmt.Sprintf("%s processed, total %s", plural(e.Data.Count), e.Data.TotalAmount.StringFixed(2)),
			Count:   e.Data.Count,
			Amount:  e.Data.TotalAmount,
		})
	})
	event_bus.SubscribeTyped(bus, event_bus.RecurringConfirmationNeeded, func(e event_bus.EventT[event_bus.RecurringConfirmationNeededPayload]) error {
		return s.store(e.Context(), e.Data.UserId, Notification{
			Kind:    KindConfirmationRequired,
			Title:   "Recurring transactions need confirmation",
			Message: fmt.Sprintf("%s totaling %s are due and wait for your confirmation", plural(e.Data.Count), e.Data.TotalAmount.StringFixed(2)),
			Count:   e.Data.Count,
			Amount:  e.Data.TotalAmount,
		})
	})
	event_bus.SubscribeTyped(bus, event_bus.RecurringProcessingFailed, func(e event_bus.EventT[event_bus.RecurringProcessingFailedPayload]) error {
		return s.store(e.Context(), e.Data.UserId, Notification{
			Kind:    KindFailed,
			Title:   "Recurring transaction failed",
			Message: fmt.Sprintf("%s: %s", e.Data.Description, e.Data.Reason),
			Count:   1,
			Amount:  decimal.Zero,
		})
	})
	return s
}

func (s *ServiceImpl) store(ctx context.Context, userId int, n Notification) error {
	n.Id = uuid.NewString()
	n.Created = s.clock.Now()
	return s.repo.Store(ctx, userId, n)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Notification, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) Dismiss(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}

func plural(count int) string {
	if count == 1 {
		return "1 recurring transaction"
	}
	return fmt.Sprintf("%d recurring transactions", count)
}
