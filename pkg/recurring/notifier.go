package recurring

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier tells the user about processing outcomes. Implementations must not
// block processing; delivery problems are theirs to log.
type Notifier interface {
	NotifySummary(ctx context.Context, count int, total decimal.Decimal)
	NotifyConfirmationNeeded(ctx context.Context, count int, total decimal.Decimal)
	NotifyFailure(ctx context.Context, def Definition, reason string)
}
