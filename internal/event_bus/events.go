package event_bus

import "github.com/shopspring/decimal"

// RecurringProcessedSummary is published after a batch materialized at least one transaction.
type RecurringProcessedSummary struct {
	UserId      int             `json:"userId"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// RecurringConfirmationNeededPayload is published when automatic processing found
// eligible definitions but the user requires confirmation first.
type RecurringConfirmationNeededPayload struct {
	UserId      int             `json:"userId"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type RecurringProcessingFailedPayload struct {
	UserId      int    `json:"userId"`
	RecurringId string `json:"recurringId"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}
