package recurring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/finance/internal/utils"
	"github.com/klokku/finance/pkg/autoprocess"
	"github.com/klokku/finance/pkg/transaction"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotLinked = errors.New("transaction was not produced by this recurring transaction")

type Service interface {
	List(ctx context.Context) ([]Definition, error)
	Get(ctx context.Context, id string) (Definition, error)
	Create(ctx context.Context, def Definition) (Definition, error)
	Update(ctx context.Context, def Definition) (Definition, error)
	Delete(ctx context.Context, id string) error
	ListDue(ctx context.Context) ([]Definition, error)
	ListUpcoming(ctx context.Context, days int) ([]UpcomingItem, error)
	Summary(ctx context.Context) (Summary, error)
	ProcessOne(ctx context.Context, id string) (transaction.Transaction, error)
	ProcessAllDue(ctx context.Context) ([]transaction.Transaction, error)
	ProcessSelected(ctx context.Context, ids []string) (BulkResult, error)
	// RunAutoProcessing applies the current user's auto-processing settings to
	// the due definitions.
	RunAutoProcessing(ctx context.Context) (AutoRunResult, error)
	// Undo reverses one processing of a definition.
	Undo(ctx context.Context, recurringId, transactionId string) (Definition, error)
	History(ctx context.Context, recurringId string) ([]HistoryEntry, error)
}

type ServiceImpl struct {
	repo             Repository
	transactions     transaction.Repository
	settings         autoprocess.Service
	notifier         Notifier
	clock            utils.Clock
	locks            *utils.KeyedMutex
	processingWindow time.Duration
}

// NewService creates the recurring transaction service. processingWindow is the
// width of the daily auto-processing window and should match the scheduler interval.
func NewService(
	repo Repository,
	transactions transaction.Repository,
	settings autoprocess.Service,
	notifier Notifier,
	clock utils.Clock,
	processingWindow time.Duration,
) *ServiceImpl {
	return &ServiceImpl{
		repo:             repo,
		transactions:     transactions,
		settings:         settings,
		notifier:         notifier,
		clock:            clock,
		locks:            utils.NewKeyedMutex(),
		processingWindow: processingWindow,
	}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Definition, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Definition, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) Create(ctx context.Context, def Definition) (Definition, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to get current user: %w", err)
	}
	def = normalize(def)
	if err := checkEditable(def); err != nil {
		return Definition{}, err
	}
	def.Id = uuid.NewString()
	def.ProcessCount = 0
	def.LastProcessed = nil
	def.LastUndone = nil
	def.HasError = false
	def.LastError = ""
	def.LastErrorDate = nil

	created, err := s.repo.Create(ctx, userId, def)
	if err != nil {
		return Definition{}, err
	}
	log.Infof("recurring transaction %s created for user %d", created.Id, userId)
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, def Definition) (Definition, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to get current user: %w", err)
	}
	def = normalize(def)
	if err := checkEditable(def); err != nil {
		return Definition{}, err
	}
	unlock := s.locks.Lock(lockKey(userId, def.Id))
	defer unlock()
	return s.repo.Update(ctx, userId, def)
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	unlock := s.locks.Lock(lockKey(userId, id))
	defer unlock()
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDefinitionNotFound
	}
	return nil
}

func (s *ServiceImpl) ListDue(ctx context.Context) ([]Definition, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterDue(defs, s.clock.Now()), nil
}

func (s *ServiceImpl) ListUpcoming(ctx context.Context, days int) ([]UpcomingItem, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Upcoming(defs, s.clock.Now(), days), nil
}

func (s *ServiceImpl) Summary(ctx context.Context) (Summary, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	now := s.clock.Now()
	twelve := decimal.NewFromInt(12)
	summary := Summary{
		MonthlyIncome:   decimal.Zero,
		MonthlyExpenses: decimal.Zero,
	}
	for _, def := range defs {
		if !def.IsActive {
			continue
		}
		summary.ActiveCount++
		if IsDue(def, now) {
			summary.DueCount++
		}
		monthly := def.Amount.Mul(decimal.NewFromInt(def.Frequency.PeriodsPerYear())).Div(twelve)
		switch def.Type {
		case transaction.Income:
			summary.MonthlyIncome = summary.MonthlyIncome.Add(monthly)
		case transaction.Expense:
			summary.MonthlyExpenses = summary.MonthlyExpenses.Add(monthly)
		}
	}
	summary.MonthlyIncome = summary.MonthlyIncome.Round(2)
	summary.MonthlyExpenses = summary.MonthlyExpenses.Round(2)
	summary.MonthlyNet = summary.MonthlyIncome.Sub(summary.MonthlyExpenses)
	return summary, nil
}

func (s *ServiceImpl) ProcessOne(ctx context.Context, id string) (transaction.Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	def, err := s.repo.Get(ctx, userId, id)
	if err != nil {
		return transaction.Transaction{}, err
	}
	return s.process(ctx, userId, def)
}

func (s *ServiceImpl) ProcessAllDue(ctx context.Context) ([]transaction.Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	defs, err := s.repo.List(ctx, userId)
	if err != nil {
		return nil, err
	}
	processed, _ := s.processBatch(ctx, userId, FilterDue(defs, s.clock.Now()))
	return processed, nil
}

func (s *ServiceImpl) ProcessSelected(ctx context.Context, ids []string) (BulkResult, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to get current user: %w", err)
	}
	result := BulkResult{
		Processed: make([]transaction.Transaction, 0),
		Errors:    make([]BulkError, 0),
	}
	seen := make(map[string]bool, len(ids))
	defs := make([]Definition, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		def, err := s.repo.Get(ctx, userId, id)
		if err != nil {
			result.Errors = append(result.Errors, BulkError{RecurringId: id, Error: err.Error()})
			continue
		}
		defs = append(defs, def)
	}
	processed, errs := s.processBatch(ctx, userId, defs)
	result.Processed = append(result.Processed, processed...)
	result.Errors = append(result.Errors, errs...)
	return result, nil
}

func (s *ServiceImpl) RunAutoProcessing(ctx context.Context) (AutoRunResult, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return AutoRunResult{}, fmt.Errorf("failed to get current user: %w", err)
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return AutoRunResult{}, fmt.Errorf("failed to load auto-processing settings: %w", err)
	}
	if !settings.Enabled {
		return AutoRunResult{Skipped: SkipDisabled}, nil
	}

	loc, err := user.CurrentLocation(ctx)
	if err != nil {
		return AutoRunResult{Skipped: SkipConfigurationError}, &autoprocess.ConfigurationError{Field: "timezone", Reason: err.Error()}
	}
	now := s.clock.Now()
	localNow := now.In(loc)
	if settings.WeekendsOnly && !autoprocess.IsWeekend(localNow) {
		return AutoRunResult{Skipped: SkipNotWeekend}, nil
	}
	inWindow, err := settings.InProcessingWindow(localNow, s.processingWindow)
	if err != nil {
		return AutoRunResult{Skipped: SkipConfigurationError}, err
	}
	if !inWindow {
		return AutoRunResult{Skipped: SkipOutsideWindow}, nil
	}

	defs, err := s.repo.List(ctx, currentUser.Id)
	if err != nil {
		return AutoRunResult{}, err
	}
	eligible := make([]Definition, 0)
	for _, def := range defs {
		if IsAutoEligible(def, now, settings) {
			eligible = append(eligible, def)
		}
	}
	result := AutoRunResult{Processed: make([]transaction.Transaction, 0), Eligible: len(eligible)}
	if len(eligible) == 0 {
		return result, nil
	}

	if settings.RequireConfirmation {
		total := decimal.Zero
		for _, def := range eligible {
			total = total.Add(def.Amount)
		}
		first, err := s.settings.MarkConfirmationRequested(ctx, localNow)
		if err != nil {
			log.Warnf("could not mark confirmation request of user %d: %v", currentUser.Id, err)
			first = true
		}
		if first {
			log.Infof("%d recurring transactions of user %d wait for confirmation", len(eligible), currentUser.Id)
			s.notifier.NotifyConfirmationNeeded(ctx, len(eligible), total)
		} else {
			log.Debugf("user %d was already asked to confirm today", currentUser.Id)
		}
		result.Skipped = SkipConfirmationRequired
		return result, nil
	}

	result.Processed, _ = s.processBatch(ctx, currentUser.Id, eligible)
	return result, nil
}

func (s *ServiceImpl) Undo(ctx context.Context, recurringId, transactionId string) (Definition, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to get current user: %w", err)
	}
	unlock := s.locks.Lock(lockKey(userId, recurringId))
	defer unlock()

	def, err := s.repo.Get(ctx, userId, recurringId)
	if err != nil {
		return Definition{}, err
	}
	t, err := s.transactions.Get(ctx, userId, transactionId)
	switch {
	case errors.Is(err, transaction.ErrTransactionNotFound):
		log.Warnf("transaction %s is already gone, rewinding recurring transaction %s only", transactionId, recurringId)
	case err != nil:
		return Definition{}, err
	case t.RecurringId != recurringId:
		return Definition{}, ErrTransactionNotLinked
	}

	anchor, err := localDueDate(ctx, def)
	if err != nil {
		return Definition{}, err
	}

	reverted, err := s.repo.Revert(ctx, userId, Reversal{
		RecurringId:         recurringId,
		TransactionId:       transactionId,
		ExpectedNextDueDate: def.NextDueDate,
		PreviousDueDate:     PreviousDueDate(def.Frequency, anchor).UTC(),
		UndoneAt:            s.clock.Now(),
	})
	if err != nil {
		return Definition{}, err
	}
	log.Infof("recurring transaction %s undone, next due date back to %s", recurringId, reverted.NextDueDate.Format(time.DateOnly))
	return reverted, nil
}

func (s *ServiceImpl) History(ctx context.Context, recurringId string) ([]HistoryEntry, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.repo.Get(ctx, userId, recurringId); err != nil {
		return nil, err
	}
	transactions, err := s.transactions.ListByRecurringId(ctx, userId, recurringId)
	if err != nil {
		return nil, err
	}
	history := make([]HistoryEntry, 0, len(transactions))
	for _, t := range transactions {
		history = append(history, HistoryEntry{
			Id:          t.Id,
			Amount:      t.Amount,
			Date:        t.Date,
			Description: t.Description,
		})
	}
	return history, nil
}

// processBatch processes defs one by one, continuing past failures, and sends
// one summary notification when anything was processed.
func (s *ServiceImpl) processBatch(ctx context.Context, userId int, defs []Definition) ([]transaction.Transaction, []BulkError) {
	processed := make([]transaction.Transaction, 0, len(defs))
	errs := make([]BulkError, 0)
	total := decimal.Zero
	for _, def := range defs {
		t, err := s.process(ctx, userId, def)
		if err != nil {
			log.Warnf("failed to process recurring transaction %s: %v", def.Id, err)
			errs = append(errs, BulkError{RecurringId: def.Id, Error: err.Error()})
			continue
		}
		processed = append(processed, t)
		total = total.Add(t.Amount)
	}
	if len(processed) > 0 {
		s.notifier.NotifySummary(ctx, len(processed), total)
	}
	return processed, errs
}

// process materializes the occurrence of snapshot. The snapshot's due date is
// the one the caller decided on; a definition that moved since is not processed.
func (s *ServiceImpl) process(ctx context.Context, userId int, snapshot Definition) (transaction.Transaction, error) {
	unlock := s.locks.Lock(lockKey(userId, snapshot.Id))
	defer unlock()

	def, err := s.repo.Get(ctx, userId, snapshot.Id)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if !def.NextDueDate.Equal(snapshot.NextDueDate) {
		return transaction.Transaction{}, ErrAlreadyProcessed
	}

	now := s.clock.Now()
	if result := Validate(def); !result.Valid {
		validationErr := &ValidationError{Errors: result.Errors}
		s.recordFailure(ctx, userId, def, validationErr, now)
		return transaction.Transaction{}, validationErr
	}

	anchor, err := localDueDate(ctx, def)
	if err != nil {
		s.recordFailure(ctx, userId, def, err, now)
		return transaction.Transaction{}, err
	}

	created, err := s.repo.Materialize(ctx, userId, Occurrence{
		RecurringId:         def.Id,
		ExpectedNextDueDate: def.NextDueDate,
		NextDueDate:         NextDueDate(def.Frequency, anchor).UTC(),
		ProcessedAt:         now,
		Transaction: transaction.Transaction{
			Id:          uuid.NewString(),
			RecurringId: def.Id,
			Type:        def.Type,
			Amount:      def.Amount,
			Category:    def.Category,
			Description: def.Description + AutoSuffix,
			Date:        now,
		},
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrDefinitionNotFound) {
			return transaction.Transaction{}, err
		}
		s.recordFailure(ctx, userId, def, err, now)
		return transaction.Transaction{}, fmt.Errorf("failed to process recurring transaction %s: %w", def.Id, err)
	}
	log.Debugf("recurring transaction %s processed into transaction %s", def.Id, created.Id)
	return created, nil
}

// localDueDate places the due date on the user's calendar, so month and week
// shifts keep the local day and time across offsets and DST changes.
func localDueDate(ctx context.Context, def Definition) (time.Time, error) {
	loc, err := user.CurrentLocation(ctx)
	if err != nil {
		return time.Time{}, &autoprocess.ConfigurationError{Field: "timezone", Reason: err.Error()}
	}
	return def.NextDueDate.In(loc), nil
}

func (s *ServiceImpl) recordFailure(ctx context.Context, userId int, def Definition, cause error, at time.Time) {
	if err := s.repo.RecordFailure(ctx, userId, def.Id, cause.Error(), at); err != nil {
		log.Errorf("failed to record failure of recurring transaction %s: %v", def.Id, err)
	}
	s.notifier.NotifyFailure(ctx, def, cause.Error())
}

func lockKey(userId int, id string) string {
	return fmt.Sprintf("%d/%s", userId, id)
}

func normalize(def Definition) Definition {
	def.Description = strings.TrimSpace(def.Description)
	def.Category = strings.TrimSpace(def.Category)
	return def
}

// checkEditable validates the fields a user can set, regardless of IsActive.
func checkEditable(def Definition) error {
	active := def
	active.IsActive = true
	errs := Validate(active).Errors
	if !def.Type.Valid() {
		errs = append(errs, "type must be income or expense")
	}
	if def.Frequency != "" && !def.Frequency.Valid() {
		errs = append(errs, fmt.Sprintf("frequency %q is not supported", def.Frequency))
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
