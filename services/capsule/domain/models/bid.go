package models

import (
	"time"

	"github.com/google/uuid"
)

// BidStatus tracks whether the creator has acted on a bid.
type BidStatus string

const (
	BidPending  BidStatus = "PENDING"
	BidAccepted BidStatus = "ACCEPTED"
	BidRejected BidStatus = "REJECTED"
)

// Bid is an offer to pay for early access to a capsule. Amount never changes after creation.
type Bid struct {
	ID         uuid.UUID
	CapsuleID  uuid.UUID
	BidderID   uuid.UUID
	Amount     Amount
	Status     BidStatus
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// NewBid constructs a PENDING bid with generated ID and current timestamp.
func NewBid(capsuleID, bidderID uuid.UUID, amount Amount) *Bid {
	return &Bid{
		ID:        uuid.New(),
		CapsuleID: capsuleID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    BidPending,
		CreatedAt: time.Now().UTC(),
	}
}

func (b *Bid) Pending() bool { return b.Status == BidPending }

// Proceeds is the split of an accepted bid between creator and platform.
type Proceeds struct {
	CreatorShare Amount
	PlatformFee  Amount
}
