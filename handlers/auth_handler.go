package handlers

import (
	"net/http"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterHandler godoc
// @Summary Register a new player account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.Registration true "Registration payload"
// @Success 201 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var input models.Registration
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, token, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player, "token": token}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LoginHandler godoc
// @Summary Log in with phone and password
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.Credentials true "Login payload"
// @Success 200 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player, "token": token}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
