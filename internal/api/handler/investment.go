package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// InvestmentHandler handles HTTP requests for the deposit lifecycle.
type InvestmentHandler struct {
	investments *service.InvestmentService
}

func NewInvestmentHandler(investments *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

// DepositRequest represents the request body for opening a deposit.
type DepositRequest struct {
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	WithdrawalWallet string `json:"withdrawal_wallet"`
}

// CreateDeposit handles POST /v1/deposits
func (h *InvestmentHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	amountMicros, err := domain.ParseAmount(req.Amount)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "Invalid amount")
		return
	}

	investment, wallet, err := h.investments.Deposit(r.Context(), service.DepositRequest{
		UserID:           actorID,
		AmountMicros:     amountMicros,
		Currency:         req.Currency,
		WithdrawalWallet: req.WithdrawalWallet,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAmountOutOfRange):
			RespondError(w, r, http.StatusBadRequest, "deposit/amount-out-of-range", err.Error())
		case errors.Is(err, service.ErrUnsupportedCurrency):
			RespondError(w, r, http.StatusBadRequest, "deposit/unsupported-currency", err.Error())
		case errors.Is(err, service.ErrWalletNotFound):
			RespondError(w, r, http.StatusServiceUnavailable, "deposit/no-active-wallet", err.Error())
		default:
			if status, problemType, message, ok := mapDBError(err); ok {
				RespondError(w, r, status, problemType, message)
				return
			}
			RespondError(w, r, http.StatusBadRequest, "deposit/failed", err.Error())
		}
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"investment":     investment,
		"deposit_wallet": wallet,
	})
}

// ListInvestments handles GET /v1/investments
func (h *InvestmentHandler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}
	investments, err := h.investments.ListByUser(r.Context(), actorID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "investment/list-failed", "Failed to list investments")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"investments": investments})
}

// GetStatus handles GET /v1/investments/{id}/status
func (h *InvestmentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	actorID, investmentID, ok := h.actorAndInvestment(w, r)
	if !ok {
		return
	}
	status, err := h.investments.Status(r.Context(), actorID, investmentID)
	if err != nil {
		h.respondInvestmentError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

// GetDepositWallet handles GET /v1/investments/{id}/wallet
func (h *InvestmentHandler) GetDepositWallet(w http.ResponseWriter, r *http.Request) {
	actorID, investmentID, ok := h.actorAndInvestment(w, r)
	if !ok {
		return
	}
	wallet, err := h.investments.DepositWallet(r.Context(), actorID, investmentID)
	if err != nil {
		h.respondInvestmentError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// ConfirmSentRequest carries the depositor's optional transaction reference.
type ConfirmSentRequest struct {
	TransactionHash string `json:"transaction_hash,omitempty"`
}

// ConfirmSent handles POST /v1/investments/{id}/confirm-sent
func (h *InvestmentHandler) ConfirmSent(w http.ResponseWriter, r *http.Request) {
	actorID, investmentID, ok := h.actorAndInvestment(w, r)
	if !ok {
		return
	}
	var req ConfirmSentRequest
	// The body is optional; an empty or absent body means no hash reported.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := h.investments.MarkUserConfirmed(r.Context(), actorID, investmentID, req.TransactionHash); err != nil {
		h.respondInvestmentError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "confirmed_sent"})
}

// AdminListInvestments handles GET /v1/admin/investments
func (h *InvestmentHandler) AdminListInvestments(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	investments, err := h.investments.List(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "investment/list-failed", "Failed to list investments")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"investments": investments})
}

// AdminConfirm handles POST /v1/admin/investments/{id}/confirm
func (h *InvestmentHandler) AdminConfirm(w http.ResponseWriter, r *http.Request) {
	investmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-investment-id", "Invalid investment id")
		return
	}
	investment, err := h.investments.Confirm(r.Context(), investmentID)
	if err != nil {
		h.respondInvestmentError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, investment)
}

// AdminCancel handles POST /v1/admin/investments/{id}/cancel
func (h *InvestmentHandler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	investmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-investment-id", "Invalid investment id")
		return
	}
	investment, err := h.investments.Cancel(r.Context(), investmentID)
	if err != nil {
		h.respondInvestmentError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, investment)
}

func (h *InvestmentHandler) actorAndInvestment(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	investmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-investment-id", "Invalid investment id")
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, investmentID, true
}

func (h *InvestmentHandler) respondInvestmentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvestmentNotFound):
		RespondError(w, r, http.StatusNotFound, "investment/not-found", "Investment not found")
	case errors.Is(err, service.ErrInvalidTransition):
		RespondError(w, r, http.StatusConflict, "investment/invalid-transition", err.Error())
	case errors.Is(err, service.ErrNotUserConfirmed):
		RespondError(w, r, http.StatusConflict, "investment/not-user-confirmed", err.Error())
	default:
		RespondError(w, r, http.StatusInternalServerError, "investment/operation-failed", "Investment operation failed")
	}
}
