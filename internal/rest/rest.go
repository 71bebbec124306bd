package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// decimals are validated by their numeric value, so tags like gt=0 work on them
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags of a decoded request body. The returned
// messages list every violated rule.
func Validate(body any) []string {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s", fieldErr.Field(), fieldErr.Tag()))
		}
	}
	return messages
}

// DecodeAndValidate decodes a JSON request body into target and validates it.
// On failure the error response is already written and false is returned.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body format"})
		return false
	}
	if details := Validate(target); len(details) > 0 {
		WriteError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: details})
		return false
	}
	return true
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, status int, body ErrorResponse) {
	WriteJSON(w, status, body)
}
