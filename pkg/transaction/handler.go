package transaction

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/finance/internal/rest"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TransactionDTO struct {
	Id          string          `json:"id"`
	RecurringId string          `json:"recurringId,omitempty"`
	Type        Type            `json:"type" validate:"required,oneof=income expense"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Category    string          `json:"category" validate:"required,max=128"`
	Description string          `json:"description" validate:"required,max=512"`
	Date        *time.Time      `json:"date,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List transactions
// @Description Newest first, optionally only those produced by one recurring definition
// @Tags Transaction
// @Produce json
// @Param recurringId query string false "Recurring definition ID"
// @Success 200 {array} TransactionDTO
// @Router /api/transaction [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing transactions")
	var (
		transactions []Transaction
		err          error
	)
	if recurringId := r.URL.Query().Get("recurringId"); recurringId != "" {
		transactions, err = h.service.ListByRecurringId(r.Context(), recurringId)
	} else {
		transactions, err = h.service.List(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		result = append(result, ToDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// Get godoc
// @Summary Get a transaction
// @Tags Transaction
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} TransactionDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/transaction/{transactionId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), mux.Vars(r)["transactionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(t))
}

// Create godoc
// @Summary Create a transaction
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transaction body TransactionDTO true "Transaction"
// @Success 201 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/transaction [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating transaction")
	var body TransactionDTO
	if !rest.DecodeAndValidate(w, r, &body) {
		return
	}
	t := Transaction{
		Type:        body.Type,
		Amount:      body.Amount,
		Category:    body.Category,
		Description: body.Description,
	}
	if body.Date != nil {
		t.Date = *body.Date
	}

	created, err := h.service.Create(r.Context(), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// Delete godoc
// @Summary Delete a transaction
// @Tags Transaction
// @Param transactionId path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/transaction/{transactionId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["transactionId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidTransaction):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, rest.ErrorResponse{Error: err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ToDTO(t Transaction) TransactionDTO {
	date := t.Date
	return TransactionDTO{
		Id:          t.Id,
		RecurringId: t.RecurringId,
		Type:        t.Type,
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        &date,
	}
}
