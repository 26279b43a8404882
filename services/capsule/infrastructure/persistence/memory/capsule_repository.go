// Package memory is an in-process CapsuleRepository. It honours the same
// compare-and-swap bid contract as the Postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

type CapsuleRepository struct {
	mu       sync.RWMutex
	capsules map[uuid.UUID]*models.Capsule
	bids     map[uuid.UUID][]*models.Bid
	txIDs    map[string]uuid.UUID
	locks    map[uuid.UUID]*sync.Mutex
}

func NewCapsuleRepository() *CapsuleRepository {
	return &CapsuleRepository{
		capsules: make(map[uuid.UUID]*models.Capsule),
		bids:     make(map[uuid.UUID][]*models.Bid),
		txIDs:    make(map[string]uuid.UUID),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lock serialises writers on one capsule, standing in for SELECT ... FOR UPDATE.
func (r *CapsuleRepository) lock(id uuid.UUID) func() {
	r.mu.Lock()
	m, ok := r.locks[id]
	if !ok {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (r *CapsuleRepository) Insert(_ context.Context, c *models.Capsule) (*models.Capsule, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	saved := *c
	saved.Status = models.StatusLocked
	saved.CurrentBid = c.FloorBid
	saved.HighestBidderID = nil
	saved.ActualOpenAt = nil
	saved.Version = 1
	saved.UpdatedAt = c.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.capsules[saved.ID]; ok {
		return nil, capsuledomain.ErrCapsuleAlreadyExists
	}
	if _, ok := r.txIDs[saved.PaymentTxID]; ok {
		return nil, capsuledomain.ErrCapsuleAlreadyExists
	}
	r.capsules[saved.ID] = &saved
	r.txIDs[saved.PaymentTxID] = saved.ID
	return cloneCapsule(&saved), nil
}

func (r *CapsuleRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Capsule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capsules[id]
	if !ok {
		return nil, capsuledomain.ErrCapsuleNotFound
	}
	return cloneCapsule(c), nil
}

func (r *CapsuleRepository) RecordBid(_ context.Context, bid *models.Bid, baseline models.Amount) (*models.Bid, error) {
	unlock := r.lock(bid.CapsuleID)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.capsules[bid.CapsuleID]
	switch {
	case !ok:
		return nil, capsuledomain.ErrCapsuleNotFound
	case c.IsOpen():
		return nil, capsuledomain.ErrCapsuleAlreadyOpen
	case !c.AuctionEnabled:
		return nil, capsuledomain.ErrAuctionDisabled
	case !c.CurrentBid.Equal(baseline):
		return nil, capsuledomain.ErrConcurrencyConflict
	}

	saved := *bid
	saved.Status = models.BidPending
	saved.ResolvedAt = nil
	r.bids[c.ID] = append(r.bids[c.ID], &saved)

	bidder := saved.BidderID
	c.CurrentBid = saved.Amount
	c.HighestBidderID = &bidder
	c.Version++
	c.UpdatedAt = saved.CreatedAt
	return cloneBid(&saved), nil
}

func (r *CapsuleRepository) GetBid(_ context.Context, capsuleID, bidID uuid.UUID) (*models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bids[capsuleID] {
		if b.ID == bidID {
			return cloneBid(b), nil
		}
	}
	return nil, capsuledomain.ErrBidNotFound
}

func (r *CapsuleRepository) ListBids(_ context.Context, capsuleID uuid.UUID) ([]*models.Bid, error) {
	r.mu.RLock()
	out := make([]*models.Bid, 0, len(r.bids[capsuleID]))
	for _, b := range r.bids[capsuleID] {
		out = append(out, cloneBid(b))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CapsuleRepository) Resolve(_ context.Context, capsuleID, bidID uuid.UUID, accept bool, at time.Time) (*models.Capsule, *models.Bid, error) {
	at = at.UTC()
	unlock := r.lock(capsuleID)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.capsules[capsuleID]
	if !ok {
		return nil, nil, capsuledomain.ErrCapsuleNotFound
	}
	if c.IsOpen() {
		return nil, nil, capsuledomain.ErrCapsuleAlreadyOpen
	}

	var target *models.Bid
	for _, b := range r.bids[capsuleID] {
		if b.ID == bidID {
			target = b
			break
		}
	}
	if target == nil {
		return nil, nil, capsuledomain.ErrBidNotFound
	}
	if !target.Pending() {
		return nil, nil, capsuledomain.ErrBidAlreadyResolved
	}

	resolvedAt := at
	if !accept {
		target.Status = models.BidRejected
		target.ResolvedAt = &resolvedAt
		return cloneCapsule(c), cloneBid(target), nil
	}

	target.Status = models.BidAccepted
	target.ResolvedAt = &resolvedAt
	for _, b := range r.bids[capsuleID] {
		if b != target && b.Pending() {
			b.Status = models.BidRejected
			b.ResolvedAt = &resolvedAt
		}
	}
	c.Open(at)
	return cloneCapsule(c), cloneBid(target), nil
}

func (r *CapsuleRepository) OpenScheduled(_ context.Context, id uuid.UUID, at time.Time) (*models.Capsule, error) {
	unlock := r.lock(id)
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.capsules[id]
	if !ok {
		return nil, capsuledomain.ErrCapsuleNotFound
	}
	if c.IsOpen() {
		return cloneCapsule(c), nil
	}
	if !c.DueAt(at) {
		return nil, capsuledomain.ErrNotYetDue
	}
	c.Open(at)
	return cloneCapsule(c), nil
}

func cloneCapsule(c *models.Capsule) *models.Capsule {
	cp := *c
	if c.ContentRef != nil {
		ref := *c.ContentRef
		cp.ContentRef = &ref
	}
	if c.ActualOpenAt != nil {
		t := *c.ActualOpenAt
		cp.ActualOpenAt = &t
	}
	if c.HighestBidderID != nil {
		id := *c.HighestBidderID
		cp.HighestBidderID = &id
	}
	return &cp
}

func cloneBid(b *models.Bid) *models.Bid {
	cp := *b
	if b.ResolvedAt != nil {
		t := *b.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}
