package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/finance/internal/config"
	"github.com/klokku/finance/internal/event_bus"
	"github.com/klokku/finance/internal/utils"
	"github.com/klokku/finance/pkg/autoprocess"
	"github.com/klokku/finance/pkg/notification"
	"github.com/klokku/finance/pkg/recurring"
	"github.com/klokku/finance/pkg/scheduler"
	"github.com/klokku/finance/pkg/transaction"
	"github.com/klokku/finance/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	TransactionRepo    transaction.Repository
	TransactionService transaction.Service
	TransactionHandler *transaction.Handler

	SettingsService autoprocess.Service
	SettingsHandler *autoprocess.Handler

	NotificationService *notification.ServiceImpl
	NotificationHandler *notification.Handler

	RecurringService *recurring.ServiceImpl
	RecurringHandler *recurring.Handler

	Scheduler *scheduler.Scheduler
}

// BuildDependencies initializes and wires all application services and handlers.
// A nil publisher disables forwarding notifications to NATS.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application, publisher notification.Publisher) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.TransactionRepo = transaction.NewRepository(db)
	deps.TransactionService = transaction.NewService(deps.TransactionRepo, deps.Clock)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService)

	deps.SettingsService = autoprocess.NewService(autoprocess.NewRepository(db))
	deps.SettingsHandler = autoprocess.NewHandler(deps.SettingsService)

	deps.NotificationService = notification.NewService(notification.NewRepository(db), deps.Clock, deps.EventBus)
	deps.NotificationHandler = notification.NewHandler(deps.NotificationService)
	notification.SubscribeLogger(deps.EventBus)
	if publisher != nil {
		notification.NewNatsForwarder(publisher, cfg.Nats.SubjectPrefix).Subscribe(deps.EventBus)
	}

	deps.RecurringService = recurring.NewService(
		recurring.NewRepository(db),
		deps.TransactionRepo,
		deps.SettingsService,
		notification.NewBusNotifier(deps.EventBus),
		deps.Clock,
		cfg.Scheduler.Interval,
	)
	deps.RecurringHandler = recurring.NewHandler(deps.RecurringService)

	deps.Scheduler = scheduler.NewScheduler(deps.RecurringService, deps.UserService, cfg.Scheduler.Interval, cfg.Scheduler.StartupDelay)

	return deps
}
