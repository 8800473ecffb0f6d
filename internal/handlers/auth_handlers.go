package handlers

import (
	"net/http"

	"cellendar/internal/handlers/dto"
	"cellendar/internal/logger"
	"cellendar/internal/middleware"
	"cellendar/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{AuthService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CredentialsRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, tokens, err := h.AuthService.Register(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP: Пользователь зарегистрирован", zap.String("user_id", u.ID.String()))
	responseWithData(w, http.StatusCreated, dto.AuthResponse{User: u, Session: tokens}, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CredentialsRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, tokens, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, dto.AuthResponse{User: u, Session: tokens}, "Login successful")
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RefreshRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	tokens, err := h.AuthService.Refresh(r.Context(), request.RefreshToken)
	if err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, dto.AuthResponse{Session: tokens}, "Token refreshed successfully")
}

// Logout отзывает сессию токена из заголовка Authorization.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	token := middleware.BearerToken(r)
	if token == "" {
		responseWithError(w, http.StatusUnauthorized, service.CodeAuth, "Требуется токен доступа")
		return
	}
	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		handleError(w, r, err)
		return
	}
	responseWithData(w, http.StatusOK, nil, "Logout successful")
}

// Profile владелец токена. Маршрут стоит за middleware.Auth.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, service.CodeAuth, "Требуется токен доступа")
		return
	}
	responseWithData(w, http.StatusOK, dto.AuthResponse{User: u}, "")
}
