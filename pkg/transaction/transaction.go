package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	Income  Type = "income"
	Expense Type = "expense"
)

func (t Type) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a concrete ledger entry. RecurringId is empty for entries
// entered by hand and otherwise points (weakly) to the definition that produced it.
type Transaction struct {
	Id          string
	RecurringId string
	Type        Type
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}
