package autoprocess

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the per-user policy for unattended processing of recurring transactions.
type Settings struct {
	Enabled             bool
	AutoProcessIncome   bool
	AutoProcessExpenses bool
	MaxAmount           decimal.Decimal
	ExcludeCategories   []string
	// ProcessingTime is "HH:MM" in the user's timezone, empty meaning any time of day.
	ProcessingTime      string
	WeekendsOnly        bool
	RequireConfirmation bool
}

// DefaultSettings keeps automatic processing off and, once enabled, lets only
// income through until expenses are explicitly allowed.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             false,
		AutoProcessIncome:   true,
		AutoProcessExpenses: false,
		MaxAmount:           decimal.NewFromInt(10000),
		ExcludeCategories:   []string{},
		ProcessingTime:      "09:00",
		WeekendsOnly:        false,
		RequireConfirmation: false,
	}
}

// ConfigurationError reports settings that cannot be applied. Unattended
// processing treats it as a reason to skip the run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid auto-processing setting %s: %s", e.Field, e.Reason)
}

func (s Settings) IsExcluded(category string) bool {
	category = strings.TrimSpace(category)
	for _, excluded := range s.ExcludeCategories {
		if strings.EqualFold(strings.TrimSpace(excluded), category) {
			return true
		}
	}
	return false
}

// ParseProcessingTime returns the offset of ProcessingTime from midnight.
func (s Settings) ParseProcessingTime() (time.Duration, error) {
	parsed, err := time.Parse("15:04", s.ProcessingTime)
	if err != nil {
		return 0, &ConfigurationError{Field: "processingTime", Reason: fmt.Sprintf("%q is not a HH:MM time", s.ProcessingTime)}
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// InProcessingWindow reports whether localNow falls into
// [ProcessingTime, ProcessingTime+window) of its own day. An empty
// ProcessingTime is always inside the window.
func (s Settings) InProcessingWindow(localNow time.Time, window time.Duration) (bool, error) {
	if s.ProcessingTime == "" {
		return true, nil
	}
	offset, err := s.ParseProcessingTime()
	if err != nil {
		return false, err
	}
	year, month, day := localNow.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, localNow.Location()).Add(offset)
	if localNow.Before(start) {
		// a window crossing midnight started yesterday
		start = start.AddDate(0, 0, -1)
	}
	return !localNow.Before(start) && localNow.Before(start.Add(window)), nil
}

func IsWeekend(localNow time.Time) bool {
	weekday := localNow.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// Validate normalizes the settings and returns the first configuration problem found.
func (s Settings) Validate() (Settings, error) {
	if s.MaxAmount.IsNegative() {
		return Settings{}, &ConfigurationError{Field: "maxAmount", Reason: "must not be negative"}
	}
	if s.ProcessingTime != "" {
		if _, err := s.ParseProcessingTime(); err != nil {
			return Settings{}, err
		}
	}
	categories := make([]string, 0, len(s.ExcludeCategories))
	for _, category := range s.ExcludeCategories {
		category = strings.TrimSpace(category)
		if category == "" {
			return Settings{}, &ConfigurationError{Field: "excludeCategories", Reason: "must not contain empty categories"}
		}
		categories = append(categories, category)
	}
	s.ExcludeCategories = categories
	return s, nil
}
