package recurring

import (
	"fmt"
	"strings"
)

type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidationError is returned when a definition cannot be processed.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recurring transaction: %s", strings.Join(e.Errors, "; "))
}

// Validate lists every reason why def cannot be processed.
func Validate(def Definition) ValidationResult {
	errs := make([]string, 0)
	if !def.IsActive {
		errs = append(errs, "recurring transaction is not active")
	}
	if !def.Amount.IsPositive() {
		errs = append(errs, "amount must be greater than zero")
	}
	if strings.TrimSpace(def.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(def.Category) == "" {
		errs = append(errs, "category is required")
	}
	if def.Frequency == "" {
		errs = append(errs, "frequency is required")
	}
	if def.NextDueDate.IsZero() {
		errs = append(errs, "next due date is required")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
