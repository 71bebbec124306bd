package recurring

import (
	"time"

	"github.com/klokku/finance/pkg/transaction"
	"github.com/shopspring/decimal"
)

// AutoSuffix marks descriptions of transactions produced from a definition.
const AutoSuffix = " (Auto)"

// Definition is a template that produces a transaction every time its due date passes.
type Definition struct {
	Id            string
	Type          transaction.Type
	Amount        decimal.Decimal
	Description   string
	Category      string
	Frequency     Frequency
	NextDueDate   time.Time
	IsActive      bool
	ProcessCount  int
	LastProcessed *time.Time
	LastUndone    *time.Time
	HasError      bool
	LastError     string
	LastErrorDate *time.Time
}

type UpcomingItem struct {
	Definition   Definition
	DaysUntilDue int
}

type HistoryEntry struct {
	Id          string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

type BulkError struct {
	RecurringId string
	Error       string
}

type BulkResult struct {
	Processed []transaction.Transaction
	Errors    []BulkError
}

type SkipReason string

const (
	SkipNone                 SkipReason = ""
	SkipDisabled             SkipReason = "disabled"
	SkipNotWeekend           SkipReason = "not_weekend"
	SkipOutsideWindow        SkipReason = "outside_processing_window"
	SkipConfirmationRequired SkipReason = "confirmation_required"
	SkipConfigurationError   SkipReason = "configuration_error"
)

type AutoRunResult struct {
	Processed []transaction.Transaction
	Skipped   SkipReason
	// Eligible counts the definitions that passed the auto-processing filters.
	Eligible int
}

// Summary projects the active definitions onto a monthly budget.
type Summary struct {
	ActiveCount     int
	DueCount        int
	MonthlyIncome   decimal.Decimal
	MonthlyExpenses decimal.Decimal
	MonthlyNet      decimal.Decimal
}
