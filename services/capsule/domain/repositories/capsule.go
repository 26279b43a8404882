package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// CapsuleRepository is the persistence interface for the Capsule aggregate and its bids.
// The domain layer owns this interface; infrastructure implements it.
type CapsuleRepository interface {
	// Insert persists a new LOCKED capsule. Returns ErrCapsuleAlreadyExists when
	// the ID or payment transaction is already stored.
	Insert(ctx context.Context, capsule *models.Capsule) (*models.Capsule, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Capsule, error)

	// RecordBid stores bid and raises the capsule's current bid atomically, but
	// only if the capsule's current bid still equals baseline. Otherwise it
	// returns ErrConcurrencyConflict and stores nothing.
	RecordBid(ctx context.Context, bid *models.Bid, baseline models.Amount) (*models.Bid, error)

	GetBid(ctx context.Context, capsuleID, bidID uuid.UUID) (*models.Bid, error)

	// ListBids returns a capsule's bids ordered by amount descending, earliest first on ties.
	ListBids(ctx context.Context, capsuleID uuid.UUID) ([]*models.Bid, error)

	// Resolve accepts or rejects a PENDING bid. Accepting opens the capsule and
	// rejects every other PENDING bid in the same transaction.
	Resolve(ctx context.Context, capsuleID, bidID uuid.UUID, accept bool, at time.Time) (*models.Capsule, *models.Bid, error)

	// OpenScheduled opens a LOCKED capsule whose scheduled time has passed.
	// An already OPEN capsule is returned unchanged.
	OpenScheduled(ctx context.Context, id uuid.UUID, at time.Time) (*models.Capsule, error)
}
