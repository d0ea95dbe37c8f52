package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doublemoney-pro/doublemoney/internal/service"
)

// AuthHandler handles registration and login for users and admins.
type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	CountryCode  string `json:"country_code"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterRequest{
		CountryCode:  req.CountryCode,
		Phone:        req.Phone,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneTaken):
			RespondError(w, r, http.StatusConflict, "auth/phone-taken", err.Error())
		case errors.Is(err, service.ErrInvalidReferral):
			RespondError(w, r, http.StatusBadRequest, "auth/invalid-referral-code", err.Error())
		default:
			if status, problemType, message, ok := mapDBError(err); ok {
				RespondError(w, r, status, problemType, message)
				return
			}
			RespondError(w, r, http.StatusBadRequest, "auth/registration-failed", err.Error())
		}
		return
	}

	RespondJSON(w, http.StatusCreated, user)
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "Invalid phone or password")
		case errors.Is(err, service.ErrAccountDisabled):
			RespondError(w, r, http.StatusForbidden, "auth/account-disabled", "Account is disabled")
		default:
			RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Login failed")
		}
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// AdminLoginRequest represents the request body for admin login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin handles POST /v1/admin/auth/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	admin, token, err := h.users.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "Invalid username or password")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Login failed")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": admin,
	})
}

// Me handles GET /v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}
	user, err := h.users.GetUser(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "User not found")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "user/lookup-failed", "Failed to load user")
		return
	}
	RespondJSON(w, http.StatusOK, user)
}
