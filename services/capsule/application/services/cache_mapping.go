package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgcache "github.com/ghuser/timecapsule/pkg/cache"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

func toCached(c *models.Capsule) *pkgcache.CachedCapsule {
	cc := &pkgcache.CachedCapsule{
		ID:              c.ID,
		Name:            c.Name.String(),
		CreatorID:       c.CreatorID,
		ScheduledOpenAt: c.ScheduledOpenAt,
		AuctionEnabled:  c.AuctionEnabled,
		Status:          string(c.Status),
		FloorBid:        c.FloorBid.String(),
		CurrentBid:      c.CurrentBid.String(),
		Network:         c.Network.String(),
		PaymentTxID:     c.PaymentTxID,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.ContentRef != nil {
		cc.ContentRef = c.ContentRef.String()
	}
	if c.ActualOpenAt != nil {
		cc.ActualOpenAt = c.ActualOpenAt.UTC().Format(time.RFC3339Nano)
	}
	if c.HighestBidderID != nil {
		cc.HighestBidderID = c.HighestBidderID.String()
	}
	return cc
}

func fromCached(cc *pkgcache.CachedCapsule) (*models.Capsule, error) {
	floor, err := models.NewAmount(cc.FloorBid)
	if err != nil {
		return nil, fmt.Errorf("floor_bid: %w", err)
	}
	current, err := models.NewAmount(cc.CurrentBid)
	if err != nil {
		return nil, fmt.Errorf("current_bid: %w", err)
	}
	network, err := models.ParseNetwork(cc.Network)
	if err != nil {
		return nil, err
	}

	c := &models.Capsule{
		ID:              cc.ID,
		Name:            models.CapsuleName(cc.Name),
		CreatorID:       cc.CreatorID,
		ScheduledOpenAt: cc.ScheduledOpenAt.UTC(),
		AuctionEnabled:  cc.AuctionEnabled,
		Status:          models.Status(cc.Status),
		FloorBid:        floor,
		CurrentBid:      current,
		Network:         network,
		PaymentTxID:     cc.PaymentTxID,
		Version:         cc.Version,
		CreatedAt:       cc.CreatedAt.UTC(),
		UpdatedAt:       cc.UpdatedAt.UTC(),
	}
	if cc.ContentRef != "" {
		ref := models.ContentRef(cc.ContentRef)
		c.ContentRef = &ref
	}
	if cc.ActualOpenAt != "" {
		at, err := time.Parse(time.RFC3339Nano, cc.ActualOpenAt)
		if err != nil {
			return nil, fmt.Errorf("actual_open_at: %w", err)
		}
		c.ActualOpenAt = &at
	}
	if cc.HighestBidderID != "" {
		id, err := uuid.Parse(cc.HighestBidderID)
		if err != nil {
			return nil, fmt.Errorf("highest_bidder_id: %w", err)
		}
		c.HighestBidderID = &id
	}
	return c, nil
}
