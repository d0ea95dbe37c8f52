package domain

const (
	// Investment statuses
	InvestmentStatusPending   = "pending"
	InvestmentStatusConfirmed = "confirmed"
	InvestmentStatusCompleted = "completed"
	InvestmentStatusCancelled = "cancelled"

	// Referral earning statuses
	EarningStatusPending  = "pending"
	EarningStatusApproved = "approved"
	EarningStatusPaid     = "paid"

	// Auth roles
	RoleUser  = "user"
	RoleAdmin = "admin"

	// Supported deposit currencies and their networks
	CurrencyUSDC = "USDC"
	CurrencyUSDT = "USDT"

	NetworkERC20 = "ERC20"
	NetworkTRC20 = "TRC20"
)

// NetworkForCurrency maps a deposit currency to the network its platform
// wallets live on. Unknown currencies map to an empty string.
func NetworkForCurrency(currency string) string {
	switch currency {
	case CurrencyUSDC:
		return NetworkERC20
	case CurrencyUSDT:
		return NetworkTRC20
	default:
		return ""
	}
}
