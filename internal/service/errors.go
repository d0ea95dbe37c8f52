package service

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrEarningNotFound    = errors.New("referral earning not found")
	ErrWalletNotFound     = errors.New("no active wallet for currency")

	ErrInvalidTransition = errors.New("invalid state transition")

	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidReferral    = errors.New("invalid referral code")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrAmountOutOfRange    = errors.New("amount outside deposit limits")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNotUserConfirmed    = errors.New("user has not confirmed the transfer")
	ErrPayoutDateNotDue    = errors.New("payout date has not been reached")
)
