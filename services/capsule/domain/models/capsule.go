package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the capsule lifecycle state. LOCKED -> OPEN is the only transition.
type Status string

const (
	StatusLocked Status = "LOCKED"
	StatusOpen   Status = "OPEN"
)

// Capsule is the core aggregate for this bounded context.
type Capsule struct {
	ID              uuid.UUID
	Name            CapsuleName
	CreatorID       uuid.UUID
	ContentRef      *ContentRef // nil when content storage failed or when redacted
	ScheduledOpenAt time.Time
	ActualOpenAt    *time.Time
	AuctionEnabled  bool
	Status          Status
	FloorBid        Amount
	CurrentBid      Amount
	HighestBidderID *uuid.UUID
	Network         Network
	PaymentTxID     string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewCapsuleParams carries the creator-supplied fields of a new capsule.
type NewCapsuleParams struct {
	Name            CapsuleName
	CreatorID       uuid.UUID
	ContentRef      *ContentRef
	ScheduledOpenAt time.Time
	AuctionEnabled  bool
	FloorBid        Amount
	Network         Network
	PaymentTxID     string
}

// NewCapsule constructs a LOCKED capsule whose current bid starts at the floor.
func NewCapsule(p NewCapsuleParams) *Capsule {
	now := time.Now().UTC()
	return &Capsule{
		ID:              uuid.New(),
		Name:            p.Name,
		CreatorID:       p.CreatorID,
		ContentRef:      p.ContentRef,
		ScheduledOpenAt: p.ScheduledOpenAt.UTC(),
		AuctionEnabled:  p.AuctionEnabled,
		Status:          StatusLocked,
		FloorBid:        p.FloorBid,
		CurrentBid:      p.FloorBid,
		Network:         p.Network,
		PaymentTxID:     p.PaymentTxID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (c *Capsule) IsOpen() bool { return c.Status == StatusOpen }

// DueAt reports whether a LOCKED capsule has reached its scheduled unlock time.
func (c *Capsule) DueAt(now time.Time) bool {
	return c.Status == StatusLocked && !now.Before(c.ScheduledOpenAt)
}

// Open moves the capsule to OPEN. Calling it on an OPEN capsule changes nothing.
func (c *Capsule) Open(at time.Time) {
	if c.IsOpen() {
		return
	}
	at = at.UTC()
	c.Status = StatusOpen
	c.ActualOpenAt = &at
	c.Version++
	c.UpdatedAt = at
}

// Redacted returns a copy safe to show any viewer: content is hidden until OPEN.
func (c *Capsule) Redacted() *Capsule {
	cp := *c
	if !c.IsOpen() {
		cp.ContentRef = nil
	}
	return &cp
}
