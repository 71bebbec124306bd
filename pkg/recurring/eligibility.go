package recurring

import (
	"math"
	"sort"
	"time"

	"github.com/klokku/finance/pkg/autoprocess"
	"github.com/klokku/finance/pkg/transaction"
)

const DefaultUpcomingDays = 7

func IsDue(def Definition, now time.Time) bool {
	return def.IsActive && !def.NextDueDate.After(now)
}

func FilterDue(defs []Definition, now time.Time) []Definition {
	due := make([]Definition, 0)
	for _, def := range defs {
		if IsDue(def, now) {
			due = append(due, def)
		}
	}
	return due
}

// Upcoming returns the active definitions due within the next days, soonest first.
func Upcoming(defs []Definition, now time.Time, days int) []UpcomingItem {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	until := now.AddDate(0, 0, days)
	items := make([]UpcomingItem, 0)
	for _, def := range defs {
		if !def.IsActive || def.NextDueDate.Before(now) || def.NextDueDate.After(until) {
			continue
		}
		daysUntil := int(math.Ceil(def.NextDueDate.Sub(now).Hours() / 24))
		items = append(items, UpcomingItem{Definition: def, DaysUntilDue: daysUntil})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Definition.NextDueDate.Before(items[j].Definition.NextDueDate)
	})
	return items
}

// IsAutoEligible reports whether def may be processed without the user asking for it.
func IsAutoEligible(def Definition, now time.Time, settings autoprocess.Settings) bool {
	if !IsDue(def, now) {
		return false
	}
	if def.Amount.GreaterThan(settings.MaxAmount) {
		return false
	}
	if settings.IsExcluded(def.Category) {
		return false
	}
	switch def.Type {
	case transaction.Income:
		return settings.AutoProcessIncome
	case transaction.Expense:
		return settings.AutoProcessExpenses
	}
	return false
}
