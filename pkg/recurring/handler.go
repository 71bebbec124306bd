package recurring

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/finance/internal/rest"
	"github.com/klokku/finance/pkg/autoprocess"
	"github.com/klokku/finance/pkg/transaction"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type DefinitionDTO struct {
	Id            string           `json:"id"`
	Type          transaction.Type `json:"type" validate:"required,oneof=income expense"`
	Amount        decimal.Decimal  `json:"amount" validate:"gt=0"`
	Description   string           `json:"description" validate:"required,max=512"`
	Category      string           `json:"category" validate:"required,max=128"`
	Frequency     Frequency        `json:"frequency" validate:"required,oneof=daily weekly bi-weekly monthly quarterly yearly"`
	NextDueDate   time.Time        `json:"nextDueDate" validate:"required"`
	IsActive      *bool            `json:"isActive,omitempty"`
	ProcessCount  int              `json:"processCount"`
	LastProcessed *time.Time       `json:"lastProcessed,omitempty"`
	LastUndone    *time.Time       `json:"lastUndone,omitempty"`
	HasError      bool             `json:"hasError"`
	LastError     string           `json:"lastError,omitempty"`
	LastErrorDate *time.Time       `json:"lastErrorDate,omitempty"`
}

type UpcomingDTO struct {
	DefinitionDTO
	DaysUntilDue int `json:"daysUntilDue"`
}

type SummaryDTO struct {
	ActiveCount     int             `json:"activeCount"`
	DueCount        int             `json:"dueCount"`
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
	MonthlyNet      decimal.Decimal `json:"monthlyNet"`
}

type ProcessSelectedRequest struct {
	Ids []string `json:"ids" validate:"required,min=1,dive,required"`
}

type BulkErrorDTO struct {
	RecurringId string `json:"recurringId"`
	Error       string `json:"error"`
}

type BulkResultDTO struct {
	Processed []transaction.TransactionDTO `json:"processed"`
	Errors    []BulkErrorDTO               `json:"errors"`
}

type AutoRunResultDTO struct {
	Processed []transaction.TransactionDTO `json:"processed"`
	Skipped   SkipReason                   `json:"skipped,omitempty"`
	Eligible  int                          `json:"eligible"`
}

type UndoRequest struct {
	TransactionId string `json:"transactionId" validate:"required"`
}

type HistoryEntryDTO struct {
	Id          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List recurring transactions
// @Tags Recurring
// @Produce json
// @Success 200 {array} DefinitionDTO
// @Router /api/recurring [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(defs))
}

// Get godoc
// @Summary Get a recurring transaction
// @Tags Recurring
// @Produce json
// @Param recurringId path string true "Recurring transaction ID"
// @Success 200 {object} DefinitionDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/recurring/{recurringId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.Get(r.Context(), mux.Vars(r)["recurringId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(def))
}

// Create godoc
// @Summary Create a recurring transaction
// @Description New recurring transactions are active unless isActive is false
// @Tags Recurring
// @Accept json
// @Produce json
// @Param recurring body DefinitionDTO true "Recurring transaction"
// @Success 201 {object} DefinitionDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/recurring [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating recurring transaction")
	var body DefinitionDTO
	if !rest.DecodeAndValidate(w, r, &body) {
		return
	}
	def := fromDTO(body)
	if body.IsActive == nil {
		def.IsActive = true
	}
	created, err := h.service.Create(r.Context(), def)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// Update godoc
// @Summary Update a recurring transaction
// @Description Replaces the editable fields and clears a recorded processing error. A missing isActive keeps the current state.
// @Tags Recurring
// @Accept json
// @Produce json
// @Param recurringId path string true "Recurring transaction ID"
// @Param recurring body DefinitionDTO true "Recurring transaction"
// @Success 200 {object} DefinitionDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/recurring/{recurringId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body DefinitionDTO
	if !rest.DecodeAndValidate(w, r, &body) {
		return
	}
	def := fromDTO(body)
	def.Id = mux.Vars(r)["recurringId"]
	if body.IsActive == nil {
		current, err := h.service.Get(r.Context(), def.Id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		def.IsActive = current.IsActive
	}
	updated, err := h.service.Update(r.Context(), def)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// Delete godoc
// @Summary Delete a recurring transaction
// @Description Transactions produced earlier are kept
// @Tags Recurring
// @Param recurringId path string true "Recurring transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/recurring/{recurringId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["recurringId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDue godoc
// @Summary List due recurring transactions
// @Tags Recurring
// @Produce json
// @Success 200 {array} DefinitionDTO
// @Router /api/recurring/due [get]
// @Security XUserId
func (h *Handler) ListDue(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.ListDue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(defs))
}

// ListUpcoming godoc
// @Summary List recurring transactions due soon
// @Tags Recurring
// @Produce json
// @Param days query int false "Look-ahead in days, 7 by default"
// @Success 200 {array} UpcomingDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/recurring/upcoming [get]
// @Security XUserId
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	days := DefaultUpcomingDays
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "days must be a positive number"})
			return
		}
		days = parsed
	}
	items, err := h.service.ListUpcoming(r.Context(), days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result := make([]UpcomingDTO, 0, len(items))
	for _, item := range items {
		result = append(result, UpcomingDTO{DefinitionDTO: ToDTO(item.Definition), DaysUntilDue: item.DaysUntilDue})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// Summary godoc
// @Summary Monthly projection of recurring transactions
// @Tags Recurring
// @Produce json
// @Success 200 {object} SummaryDTO
// @Router /api/recurring/summary [get]
// @Security XUserId
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SummaryDTO{
		ActiveCount:     summary.ActiveCount,
		DueCount:        summary.DueCount,
		MonthlyIncome:   summary.MonthlyIncome,
		MonthlyExpenses: summary.MonthlyExpenses,
		MonthlyNet:      summary.MonthlyNet,
	})
}

// ProcessOne godoc
// @Summary Process a recurring transaction now
// @Description Creates the transaction of the current occurrence and advances the next due date, even before it is due
// @Tags Recurring
// @Produce json
// @Param recurringId path string true "Recurring transaction ID"
// @Success 201 {object} transaction.TransactionDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/recurring/{recurringId}/process [post]
// @Security XUserId
func (h *Handler) ProcessOne(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.ProcessOne(r.Context(), mux.Vars(r)["recurringId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, transaction.ToDTO(created))
}

// ProcessAllDue godoc
// @Summary Process every due recurring transaction
// @Tags Recurring
// @Produce json
// @Success 200 {array} transaction.TransactionDTO
// @Router /api/recurring/process-due [post]
// @Security XUserId
func (h *Handler) ProcessAllDue(w http.ResponseWriter, r *http.Request) {
	processed, err := h.service.ProcessAllDue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTransactionDTOs(processed))
}

// ProcessSelected godoc
// @Summary Process the selected recurring transactions
// @Tags Recurring
// @Accept json
// @Produce json
// @Param request body ProcessSelectedRequest true "Recurring transaction IDs"
// @Success 200 {object} BulkResultDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/recurring/process-selected [post]
// @Security XUserId
func (h *Handler) ProcessSelected(w http.ResponseWriter, r *http.Request) {
	var body ProcessSelectedRequest
	if !rest.DecodeAndValidate(w, r, &body) {
		return
	}
	result, err := h.service.ProcessSelected(r.Context(), body.Ids)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	errs := make([]BulkErrorDTO, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, BulkErrorDTO{RecurringId: e.RecurringId, Error: e.Error})
	}
	rest.WriteJSON(w, http.StatusOK, BulkResultDTO{
		Processed: toTransactionDTOs(result.Processed),
		Errors:    errs,
	})
}

// RunAutoProcessing godoc
// @Summary Run automatic processing now
// @Description Applies the auto-processing settings exactly like the scheduler does
// @Tags Recurring
// @Produce json
// @Success 200 {object} AutoRunResultDTO
// @Failure 422 {object} rest.ErrorResponse
// @Router /api/recurring/auto-run [post]
// @Security XUserId
func (h *Handler) RunAutoProcessing(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunAutoProcessing(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AutoRunResultDTO{
		Processed: toTransactionDTOs(result.Processed),
		Skipped:   result.Skipped,
		Eligible:  result.Eligible,
	})
}

// Undo godoc
// @Summary Undo one processing of a recurring transaction
// @Description Deletes the produced transaction and moves the next due date one period back
// @Tags Recurring
// @Accept json
// @Produce json
// @Param recurringId path string true "Recurring transaction ID"
// @Param request body UndoRequest true "Produced transaction"
// @Success 200 {object} DefinitionDTO
// @Failure 404 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/recurring/{recurringId}/undo [post]
// @Security XUserId
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	var body UndoRequest
	if !rest.DecodeAndValidate(w, r, &body) {
		return
	}
	def, err := h.service.Undo(r.Context(), mux.Vars(r)["recurringId"], body.TransactionId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(def))
}

// History godoc
// @Summary Transactions produced by a recurring transaction
// @Tags Recurring
// @Produce json
// @Param recurringId path string true "Recurring transaction ID"
// @Success 200 {array} HistoryEntryDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/recurring/{recurringId}/history [get]
// @Security XUserId
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), mux.Vars(r)["recurringId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result := make([]HistoryEntryDTO, 0, len(history))
	for _, entry := range history {
		result = append(result, HistoryEntryDTO{
			Id:          entry.Id,
			Amount:      entry.Amount,
			Date:        entry.Date,
			Description: entry.Description,
		})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var configErr *autoprocess.ConfigurationError
	switch {
	case errors.As(err, &validationErr):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: "Invalid recurring transaction", Details: validationErr.Errors})
	case errors.As(err, &configErr):
		rest.WriteError(w, http.StatusUnprocessableEntity, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrDefinitionNotFound):
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrAlreadyProcessed), errors.Is(err, ErrTransactionNotLinked):
		rest.WriteError(w, http.StatusConflict, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, rest.ErrorResponse{Error: err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ToDTO(def Definition) DefinitionDTO {
	isActive := def.IsActive
	return DefinitionDTO{
		Id:            def.Id,
		Type:          def.Type,
		Amount:        def.Amount,
		Description:   def.Description,
		Category:      def.Category,
		Frequency:     def.Frequency,
		NextDueDate:   def.NextDueDate,
		IsActive:      &isActive,
		ProcessCount:  def.ProcessCount,
		LastProcessed: def.LastProcessed,
		LastUndone:    def.LastUndone,
		HasError:      def.HasError,
		LastError:     def.LastError,
		LastErrorDate: def.LastErrorDate,
	}
}

func fromDTO(dto DefinitionDTO) Definition {
	def := Definition{
		Id:          dto.Id,
		Type:        dto.Type,
		Amount:      dto.Amount,
		Description: dto.Description,
		Category:    dto.Category,
		Frequency:   dto.Frequency,
		NextDueDate: dto.NextDueDate,
	}
	if dto.IsActive != nil {
		def.IsActive = *dto.IsActive
	}
	return def
}

func toDTOs(defs []Definition) []DefinitionDTO {
	result := make([]DefinitionDTO, 0, len(defs))
	for _, def := range defs {
		result = append(result, ToDTO(def))
	}
	return result
}

func toTransactionDTOs(transactions []transaction.Transaction) []transaction.TransactionDTO {
	result := make([]transaction.TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		result = append(result, transaction.ToDTO(t))
	}
	return result
}
