package autoprocess

import (
	"errors"
	"net/http"

	"github.com/klokku/finance/internal/rest"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
)

type SettingsDTO struct {
	Enabled             bool            `json:"enabled"`
	AutoProcessIncome   bool            `json:"autoProcessIncome"`
	AutoProcessExpenses bool            `json:"autoProcessExpenses"`
	MaxAmount           decimal.Decimal `json:"maxAmount" validate:"gte=0"`
	ExcludeCategories   []string        `json:"excludeCategories" validate:"dive,required"`
	ProcessingTime      string          `json:"processingTime"`
	WeekendsOnly        bool            `json:"weekendsOnly"`
	RequireConfirmation bool            `json:"requireConfirmation"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetSettings godoc
// @Summary Get auto-processing settings
// @Tags Recurring
// @Produce json
// @Success 200 {object} SettingsDTO
// @Router /api/recurring/settings [get]
// @Security XUserId
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(settings))
}

// UpdateSettings godoc
// @Summary Update auto-processing settings
// @Description Fields missing from the body keep their current value, or the default when nothing was saved yet.
// @Tags Recurring
// @Accept json
// @Produce json
// @Param settings body SettingsDTO true "Settings"
// @Success 200 {object} SettingsDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/recurring/settings [put]
// @Security XUserId
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Load(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	body := ToDTO(current)
	if !rest.DecodeAndValidate(w, r, &body) {
		return
	}
	saved, err := h.service.Save(r.Context(), FromDTO(body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(saved))
}

func writeServiceError(w http.ResponseWriter, err error) {
	var configErr *ConfigurationError
	switch {
	case errors.As(err, &configErr):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, rest.ErrorResponse{Error: err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ToDTO(s Settings) SettingsDTO {
	excluded := s.ExcludeCategories
	if excluded == nil {
		excluded = []string{}
	}
	return SettingsDTO{
		Enabled:             s.Enabled,
		AutoProcessIncome:   s.AutoProcessIncome,
		AutoProcessExpenses: s.AutoProcessExpenses,
		MaxAmount:           s.MaxAmount,
		ExcludeCategories:   excluded,
		ProcessingTime:      s.ProcessingTime,
		WeekendsOnly:        s.WeekendsOnly,
		RequireConfirmation: s.RequireConfirmation,
	}
}

func FromDTO(dto SettingsDTO) Settings {
	return Settings{
		Enabled:             dto.Enabled,
		AutoProcessIncome:   dto.AutoProcessIncome,
		AutoProcessExpenses: dto.AutoProcessExpenses,
		MaxAmount:           dto.MaxAmount,
		ExcludeCategories:   dto.ExcludeCategories,
		ProcessingTime:      dto.ProcessingTime,
		WeekendsOnly:        dto.WeekendsOnly,
		RequireConfirmation: dto.RequireConfirmation,
	}
}
