package handler

import (
	"errors"
	"net/http"

	"github.com/doublemoney-pro/doublemoney/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReferralHandler handles HTTP requests for the referral program.
type ReferralHandler struct {
	referrals *service.ReferralService
}

func NewReferralHandler(referrals *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// GetStatus handles GET /v1/referrals/status
func (h *ReferralHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}
	status, err := h.referrals.Status(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "User not found")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "referral/status-failed", "Failed to load referral status")
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

// ListEarnings handles GET /v1/referrals/earnings
func (h *ReferralHandler) ListEarnings(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}
	earnings, err := h.referrals.ListEarningsForUser(r.Context(), actorID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "referral/earnings-failed", "Failed to list earnings")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"earnings": earnings})
}

// AdminListEarnings handles GET /v1/admin/earnings
func (h *ReferralHandler) AdminListEarnings(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	earnings, err := h.referrals.ListEarnings(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "referral/earnings-failed", "Failed to list earnings")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"earnings": earnings})
}

// AdminApproveEarning handles POST /v1/admin/earnings/{id}/approve
func (h *ReferralHandler) AdminApproveEarning(w http.ResponseWriter, r *http.Request) {
	earningID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-earning-id", "Invalid earning id")
		return
	}
	earning, err := h.referrals.ApproveEarning(r.Context(), earningID)
	if err != nil {
		h.respondEarningError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, earning)
}

// AdminPayEarning handles POST /v1/admin/earnings/{id}/pay
func (h *ReferralHandler) AdminPayEarning(w http.ResponseWriter, r *http.Request) {
	earningID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-earning-id", "Invalid earning id")
		return
	}
	earning, err := h.referrals.PayEarning(r.Context(), earningID)
	if err != nil {
		h.respondEarningError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, earning)
}

func (h *ReferralHandler) respondEarningError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEarningNotFound):
		RespondError(w, r, http.StatusNotFound, "earning/not-found", "Referral earning not found")
	case errors.Is(err, service.ErrPayoutDateNotDue):
		RespondError(w, r, http.StatusConflict, "earning/payout-date-not-due", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		RespondError(w, r, http.StatusConflict, "earning/invalid-transition", err.Error())
	default:
		RespondError(w, r, http.StatusInternalServerError, "earning/operation-failed", "Earning operation failed")
	}
}
