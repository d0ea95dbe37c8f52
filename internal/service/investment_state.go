package service

import (
	"fmt"
	"strings"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
)

// investmentTransitions is the full lattice of legal investment status moves.
// completed and cancelled are terminal.
var investmentTransitions = map[string]map[string]struct{}{
	domain.InvestmentStatusPending: {
		domain.InvestmentStatusConfirmed: {},
		domain.InvestmentStatusCancelled: {},
	},
	domain.InvestmentStatusConfirmed: {
		domain.InvestmentStatusCompleted: {},
		domain.InvestmentStatusCancelled: {},
	},
	domain.InvestmentStatusCompleted: {},
	domain.InvestmentStatusCancelled: {},
}

// earningTransitions is the legal referral earning status moves.
// paid is terminal.
var earningTransitions = map[string]map[string]struct{}{
	domain.EarningStatusPending: {
		domain.EarningStatusApproved: {},
	},
	domain.EarningStatusApproved: {
		domain.EarningStatusPaid: {},
	},
	domain.EarningStatusPaid: {},
}

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

func canTransition(transitions map[string]map[string]struct{}, current, next string) bool {
	current = normalizeState(current)
	next = normalizeState(next)
	nextStates, ok := transitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

func invalidTransition(entity, current, next string) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, current, next)
}
