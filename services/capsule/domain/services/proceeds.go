package services

import (
	"github.com/shopspring/decimal"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

const basisPoints = 10_000

// SplitProceeds divides an accepted bid between creator and platform.
// The fee is truncated so the creator share absorbs any remainder.
func SplitProceeds(amount models.Amount, feeBps int64) models.Proceeds {
	if feeBps < 0 {
		feeBps = 0
	}
	if feeBps > basisPoints {
		feeBps = basisPoints
	}
	fee := amount.Mul(decimal.New(feeBps, 0).Div(decimal.New(basisPoints, 0)))
	return models.Proceeds{
		CreatorShare: amount.Sub(fee),
		PlatformFee:  fee,
	}
}
