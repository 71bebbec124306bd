package notification

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/finance/internal/rest"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
)

type NotificationDTO struct {
	Id      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Amount  decimal.Decimal `json:"amount"`
	Created time.Time       `json:"created"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List notifications
// @Tags Notification
// @Produce json
// @Success 200 {array} NotificationDTO
// @Router /api/notification [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, NotificationDTO{
			Id:      n.Id,
			Kind:    n.Kind,
			Title:   n.Title,
			Message: n.Message,
			Count:   n.Count,
			Amount:  n.Amount,
			Created: n.Created,
		})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// Dismiss godoc
// @Summary Dismiss a notification
// @Tags Notification
// @Param notificationId path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/notification/{notificationId} [delete]
// @Security XUserId
func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Dismiss(r.Context(), mux.Vars(r)["notificationId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, rest.ErrorResponse{Error: err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
