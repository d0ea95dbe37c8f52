package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID  `json:"id"`
	Phone               string     `json:"phone"`
	CountryCode         string     `json:"country_code"`
	PasswordHash        string     `json:"-"`
	WithdrawalWallet    *string    `json:"withdrawal_wallet,omitempty"`
	ReferralCode        string     `json:"referral_code"`
	ReferredBy          *uuid.UUID `json:"referred_by,omitempty"` // immutable after creation
	IsActive            bool       `json:"is_active"`
	HasActiveInvestment bool       `json:"has_active_investment"`
	CreatedAt           time.Time  `json:"created_at"`
}

type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

type Wallet struct {
	ID        uuid.UUID `json:"id"`
	Address   string    `json:"address"`
	Currency  string    `json:"currency"` // USDC or USDT
	Network   string    `json:"network"`  // ERC20 or TRC20
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Investment struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	WalletID          uuid.UUID  `json:"wallet_id"`
	AmountMicros      int64      `json:"amount_micros"`
	TransactionHash   *string    `json:"transaction_hash,omitempty"`
	Status            string     `json:"status"` // pending, confirmed, completed, cancelled
	UserConfirmed     bool       `json:"user_confirmed"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	CompletionDate    *time.Time `json:"completion_date,omitempty"`
	FinalAmountMicros *int64     `json:"final_amount_micros,omitempty"`
	IsCompleted       bool       `json:"is_completed"`
	CreatedAt         time.Time  `json:"created_at"`
}

// TimeRemaining returns the time left until maturation, clamped to zero once
// elapsed or whenever the investment is not in confirmed status.
func (i *Investment) TimeRemaining(now time.Time) time.Duration {
	if i.CompletionDate != nil && i.Status == "confirmed" {
		if remaining := i.CompletionDate.Sub(now); remaining > 0 {
			return remaining
		}
	}
	return 0
}

type ReferralEarning struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`      // beneficiary (the referrer)
	FromUserID   uuid.UUID  `json:"from_user_id"` // the referred investor
	InvestmentID uuid.UUID  `json:"investment_id"`
	AmountMicros int64      `json:"amount_micros"`
	Percentage   int        `json:"percentage"`
	Status       string     `json:"status"` // pending, approved, paid
	PayoutDate   time.Time  `json:"payout_date"`
	CreatedAt    time.Time  `json:"created_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}
