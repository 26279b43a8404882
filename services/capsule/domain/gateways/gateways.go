// Package gateways declares the external side effects the capsule engine depends on.
package gateways

import (
	"context"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// PaymentGateway pays the creation fee from the caller's wallet and blocks
// until the transfer is confirmed. Failures are *domain.PaymentError.
type PaymentGateway interface {
	Pay(ctx context.Context, recipient string, amount models.Amount, network models.Network) (txID string, err error)
}

// ContentStore uploads capsule content and returns a locator. Failures are
// *domain.StorageError.
type ContentStore interface {
	Store(ctx context.Context, content models.Content) (models.ContentRef, error)
}
