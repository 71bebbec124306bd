package user

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/finance/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid         string      `json:"uid"`
	Username    string      `json:"username" validate:"required,max=64"`
	DisplayName string      `json:"displayName" validate:"required,max=128"`
	Settings    SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone string `json:"timezone"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Create a new user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Username taken"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating user")

	var userDTO UserDTO
	if !rest.DecodeAndValidate(w, r, &userDTO) {
		return
	}

	createdUser, err := h.userService.CreateUser(r.Context(), dtoToUser(userDTO))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrUsernameTaken):
			rest.WriteError(w, http.StatusConflict, rest.ErrorResponse{Error: err.Error()})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	log.Tracef("Created user: %+v", createdUser)

	rest.WriteJSON(w, http.StatusCreated, userToDTO(createdUser))
}

// CurrentUser godoc
// @Summary Get current user
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 404 {string} string "User Not Found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) || errors.Is(err, ErrUserNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(currentUser))
}

// UpdateUser godoc
// @Summary Update current user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user/current [put]
// @Security XUserId
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var userDTO UserDTO
	if !rest.DecodeAndValidate(w, r, &userDTO) {
		return
	}

	updated, err := h.userService.UpdateUser(r.Context(), dtoToUser(userDTO))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrNoUser), errors.Is(err, ErrUserNotFound):
			rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{Error: err.Error()})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

// GetAvailableUsers godoc
// @Summary List users
// @Tags User
// @Produce json
// @Success 200 {array} UserDTO
// @Router /api/user [get]
func (h *Handler) GetAvailableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	usersDTO := make([]UserDTO, 0, len(users))
	for _, u := range users {
		usersDTO = append(usersDTO, userToDTO(u))
	}
	rest.WriteJSON(w, http.StatusOK, usersDTO)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags User
// @Param userUid path string true "User UID"
// @Success 204 "No Content"
// @Failure 404 {string} string "User Not Found"
// @Router /api/user/{userUid} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["userUid"]
	if err := h.userService.DeleteUser(r.Context(), uid); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Uid:         user.Uid,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Settings:    SettingsDTO{Timezone: user.Settings.Timezone},
	}
}

func dtoToUser(userDTO UserDTO) User {
	return User{
		Uid:         userDTO.Uid,
		Username:    userDTO.Username,
		DisplayName: userDTO.DisplayName,
		Settings:    Settings{Timezone: userDTO.Settings.Timezone},
	}
}
