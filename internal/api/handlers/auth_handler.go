package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mkowalczyk/magazyn/internal/api/middleware"
	"github.com/mkowalczyk/magazyn/internal/api/response"
	"github.com/mkowalczyk/magazyn/internal/auth"
	"github.com/mkowalczyk/magazyn/internal/domain"
	"github.com/mkowalczyk/magazyn/internal/service"
)

type AuthHandler struct {
	userSvc *service.UserService
	jwtMgr  *auth.JWTManager
}

func NewAuthHandler(userSvc *service.UserService, jwtMgr *auth.JWTManager) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, jwtMgr: jwtMgr}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"session_token"`
	ExpiresAt string      `json:"expires_at"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userSvc.Login(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	principal := domain.Principal{UserID: user.UserID, Name: user.Name, Role: user.Role}
	token, expiresAt, err := h.jwtMgr.Generate(principal)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.Principal(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userSvc.Logout(r.Context(), principal, r.RemoteAddr); err != nil {
		response.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.Principal(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userSvc.GetByID(r.Context(), principal.UserID)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}
