package notification

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindProcessed            Kind = "processed"
	KindConfirmationRequired Kind = "confirmation_required"
	KindFailed               Kind = "failed"
)

// Notification is an inbox entry shown to the user until dismissed.
type Notification struct {
	Id      string
	Kind    Kind
	Title   string
	Message string
	Count   int
	Amount  decimal.Decimal
	Created time.Time
}
