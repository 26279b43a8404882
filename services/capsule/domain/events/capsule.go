package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics published by the capsule repository inside its write transaction.
const (
	TopicCapsuleCreated = "capsule.created"
	TopicBidPlaced      = "capsule.bid_placed"
	TopicBidResolved    = "capsule.bid_resolved"
	TopicCapsuleOpened  = "capsule.opened"

	// TopicCapsuleAbandoned is published by the worker, outside any write
	// transaction, when a paid capsule could not be stored.
	TopicCapsuleAbandoned = "capsule.reconcile_abandoned"
)

// CapsuleCreatedEvent is published after a new capsule is persisted.
type CapsuleCreatedEvent struct {
	EventID         uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version         int       `json:"version"`  // Schema version; increment on breaking changes
	CapsuleID       uuid.UUID `json:"capsule_id"`
	CreatorID       uuid.UUID `json:"creator_id"`
	Network         string    `json:"network"`
	PaymentTxID     string    `json:"payment_tx_id"`
	AuctionEnabled  bool      `json:"auction_enabled"`
	ScheduledOpenAt time.Time `json:"scheduled_open_at"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type BidPlacedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	CapsuleID  uuid.UUID `json:"capsule_id"`
	BidID      uuid.UUID `json:"bid_id"`
	BidderID   uuid.UUID `json:"bidder_id"`
	Amount     string    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BidResolvedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	CapsuleID  uuid.UUID `json:"capsule_id"`
	BidID      uuid.UUID `json:"bid_id"`
	Accepted   bool      `json:"accepted"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CapsuleOpenedEvent is published on the LOCKED -> OPEN transition, whether
// triggered by the schedule or by an accepted bid.
type CapsuleOpenedEvent struct {
	EventID    uuid.UUID  `json:"event_id"`
	Version    int        `json:"version"`
	CapsuleID  uuid.UUID  `json:"capsule_id"`
	Trigger    string     `json:"trigger"` // "schedule" or "bid"
	BidID      *uuid.UUID `json:"bid_id,omitempty"`
	OpenedAt   time.Time  `json:"opened_at"`
	OccurredAt time.Time  `json:"occurred_at"`
}

const (
	OpenTriggerSchedule = "schedule"
	OpenTriggerBid      = "bid"
)

// CapsuleAbandonedEvent reports a confirmed creation fee whose capsule was never
// stored. Consumers own the refund; the payment_tx_id identifies the transfer.
type CapsuleAbandonedEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	Version     int       `json:"version"`
	CapsuleID   uuid.UUID `json:"capsule_id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	Network     string    `json:"network"`
	PaymentTxID string    `json:"payment_tx_id"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error"`
	OccurredAt  time.Time `json:"occurred_at"`
}
