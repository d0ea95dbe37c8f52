package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doublemoney-pro/doublemoney/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminHandler handles the back-office dashboard, user and wallet management.
type AdminHandler struct {
	admin *service.AdminService
	users *service.UserService
}

func NewAdminHandler(admin *service.AdminService, users *service.UserService) *AdminHandler {
	return &AdminHandler{admin: admin, users: users}
}

// Dashboard handles GET /v1/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard(r.Context())
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "admin/dashboard-failed", "Failed to load dashboard")
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

// ListUsers handles GET /v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	users, err := h.users.ListUsers(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "admin/users-failed", "Failed to list users")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetUser handles GET /v1/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	detail, err := h.admin.GetUserDetail(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "User not found")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "admin/user-failed", "Failed to load user")
		return
	}
	RespondJSON(w, http.StatusOK, detail)
}

// ToggleUser handles POST /v1/admin/users/{id}/toggle
func (h *AdminHandler) ToggleUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	active, err := h.users.ToggleUserActive(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "User not found")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "admin/toggle-failed", "Failed to toggle user")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"is_active": active})
}

// ResetPasswordRequest represents the request body for an admin password reset.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword handles POST /v1/admin/users/{id}/reset-password
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if err := h.users.ResetPassword(r.Context(), userID, req.Password); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "User not found")
			return
		}
		RespondError(w, r, http.StatusBadRequest, "admin/reset-password-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

// ListWallets handles GET /v1/admin/wallets
func (h *AdminHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.admin.ListWallets(r.Context())
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "admin/wallets-failed", "Failed to list wallets")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"wallets": wallets})
}

// AddWalletRequest represents the request body for registering a wallet.
type AddWalletRequest struct {
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

// AddWallet handles POST /v1/admin/wallets
func (h *AdminHandler) AddWallet(w http.ResponseWriter, r *http.Request) {
	var req AddWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	wallet, err := h.admin.AddWallet(r.Context(), service.AddWalletRequest{
		Address:  req.Address,
		Currency: req.Currency,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedCurrency) {
			RespondError(w, r, http.StatusBadRequest, "wallet/unsupported-currency", err.Error())
			return
		}
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusBadRequest, "wallet/create-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, wallet)
}

// ToggleWallet handles POST /v1/admin/wallets/{id}/toggle
func (h *AdminHandler) ToggleWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "Invalid wallet id")
		return
	}
	active, err := h.admin.ToggleWalletActive(r.Context(), walletID)
	if err != nil {
		if errors.Is(err, service.ErrWalletNotFound) {
			RespondError(w, r, http.StatusNotFound, "wallet/not-found", "Wallet not found")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "admin/toggle-failed", "Failed to toggle wallet")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"is_active": active})
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid user id")
		return uuid.Nil, false
	}
	return userID, true
}
