// Package services contains stateless domain services for the capsule bounded context.
// They operate purely on domain types and have no infrastructure dependencies.
package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// BidPremium is the factor a new bid must reach over the standing bid.
var BidPremium = decimal.RequireFromString("1.1")

// MinimumBid returns the smallest acceptable next bid. The floor counts as a
// standing bid, so the baseline is the larger of current and floor. The
// product is rounded up to the storable precision so no accepted bid falls
// below baseline × 1.1.
func MinimumBid(current, floor models.Amount) models.Amount {
	return current.Max(floor).MulCeil(BidPremium)
}

// ValidateBid accepts proposed iff it is at least 110% of the baseline.
// A rejection is a *BidTooLowError carrying the minimum.
func ValidateBid(current, proposed, floor models.Amount) error {
	if !proposed.IsPositive() {
		return fmt.Errorf("%w: bid amount must be positive", capsuledomain.ErrValidation)
	}
	minimum := MinimumBid(current, floor)
	if proposed.LessThan(minimum) {
		return &capsuledomain.BidTooLowError{Minimum: minimum}
	}
	return nil
}
