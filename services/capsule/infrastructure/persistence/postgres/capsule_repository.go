package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/pkg/database"
	"github.com/ghuser/timecapsule/pkg/events"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	domainevents "github.com/ghuser/timecapsule/services/capsule/domain/events"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
	"github.com/ghuser/timecapsule/services/capsule/infrastructure/persistence/postgres/db"
)

// CapsuleRepository implements repositories.CapsuleRepository against PostgreSQL.
// Every mutation publishes its domain event inside the same transaction.
type CapsuleRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewCapsuleRepository returns a CapsuleRepository backed by the given pool and
// event bus. A nil bus disables event publishing.
func NewCapsuleRepository(database *database.Database, bus *events.EventBus) *CapsuleRepository {
	return &CapsuleRepository{db: database, bus: bus}
}

// Insert persists a new LOCKED capsule whose current bid equals its floor.
// Returns ErrCapsuleAlreadyExists on unique constraint violations.
func (r *CapsuleRepository) Insert(ctx context.Context, c *models.Capsule) (*models.Capsule, error) {
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

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InsertCapsule(ctx, db.InsertCapsuleParams{
			ID:              saved.ID,
			Name:            saved.Name.String(),
			CreatorID:       saved.CreatorID,
			ContentRef:      nullRef(saved.ContentRef),
			ScheduledOpenAt: saved.ScheduledOpenAt,
			AuctionEnabled:  saved.AuctionEnabled,
			FloorBid:        saved.FloorBid.String(),
			Network:         db.CapsuleNetwork(saved.Network),
			PaymentTxID:     saved.PaymentTxID,
			CreatedAt:       saved.CreatedAt,
		}); err != nil {
			if database.HasCode(err, database.CodeUniqueViolation) {
				return capsuledomain.ErrCapsuleAlreadyExists
			}
			return fmt.Errorf("insert capsule: %w", err)
		}

		return r.publish(ctx, tx, domainevents.TopicCapsuleCreated, func(id uuid.UUID) any {
			return domainevents.CapsuleCreatedEvent{
				EventID:         id,
				Version:         1,
				CapsuleID:       saved.ID,
				CreatorID:       saved.CreatorID,
				Network:         saved.Network.String(),
				PaymentTxID:     saved.PaymentTxID,
				AuctionEnabled:  saved.AuctionEnabled,
				ScheduledOpenAt: saved.ScheduledOpenAt,
				OccurredAt:      saved.CreatedAt,
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetByID retrieves a capsule. Returns ErrCapsuleNotFound if not found.
func (r *CapsuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Capsule, error) {
	row, err := db.New(r.db.DB()).GetCapsuleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, capsuledomain.ErrCapsuleNotFound
		}
		return nil, fmt.Errorf("query capsule: %w", err)
	}
	return rowToCapsule(row)
}

// RecordBid locks the capsule row, checks the bid is still applicable against
// baseline, then stores the bid and raises the current bid.
func (r *CapsuleRepository) RecordBid(ctx context.Context, bid *models.Bid, baseline models.Amount) (*models.Bid, error) {
	saved := *bid
	saved.Status = models.BidPending
	saved.ResolvedAt = nil

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		c, err := r.lockCapsule(ctx, q, bid.CapsuleID)
		if err != nil {
			return err
		}
		switch {
		case c.IsOpen():
			return capsuledomain.ErrCapsuleAlreadyOpen
		case !c.AuctionEnabled:
			return capsuledomain.ErrAuctionDisabled
		case !c.CurrentBid.Equal(baseline):
			return capsuledomain.ErrConcurrencyConflict
		}

		if err := q.InsertBid(ctx, db.InsertBidParams{
			ID:        saved.ID,
			CapsuleID: saved.CapsuleID,
			BidderID:  saved.BidderID,
			Amount:    saved.Amount.String(),
			CreatedAt: saved.CreatedAt,
		}); err != nil {
			return mapWriteErr("insert bid", err)
		}
		if err := q.UpdateCapsuleBid(ctx, db.UpdateCapsuleBidParams{
			ID:              saved.CapsuleID,
			CurrentBid:      saved.Amount.String(),
			HighestBidderID: uuid.NullUUID{UUID: saved.BidderID, Valid: true},
			UpdatedAt:       saved.CreatedAt,
		}); err != nil {
			return mapWriteErr("update capsule bid", err)
		}

		return r.publish(ctx, tx, domainevents.TopicBidPlaced, func(id uuid.UUID) any {
			return domainevents.BidPlacedEvent{
				EventID:    id,
				Version:    1,
				CapsuleID:  saved.CapsuleID,
				BidID:      saved.ID,
				BidderID:   saved.BidderID,
				Amount:     saved.Amount.String(),
				OccurredAt: saved.CreatedAt,
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetBid retrieves one bid of a capsule. Returns ErrBidNotFound if not found.
func (r *CapsuleRepository) GetBid(ctx context.Context, capsuleID, bidID uuid.UUID) (*models.Bid, error) {
	row, err := db.New(r.db.DB()).GetBid(ctx, db.GetBidParams{ID: bidID, CapsuleID: capsuleID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, capsuledomain.ErrBidNotFound
		}
		return nil, fmt.Errorf("query bid: %w", err)
	}
	return rowToBid(row)
}

// ListBids returns bids ranked by amount descending, earliest first on ties.
func (r *CapsuleRepository) ListBids(ctx context.Context, capsuleID uuid.UUID) ([]*models.Bid, error) {
	rows, err := db.New(r.db.DB()).ListBidsByCapsule(ctx, capsuleID)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	bids := make([]*models.Bid, 0, len(rows))
	for _, row := range rows {
		b, err := rowToBid(row)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// Resolve accepts or rejects a PENDING bid. Accepting also rejects every other
// PENDING bid and opens the capsule, all in one transaction.
func (r *CapsuleRepository) Resolve(ctx context.Context, capsuleID, bidID uuid.UUID, accept bool, at time.Time) (*models.Capsule, *models.Bid, error) {
	at = at.UTC()
	var (
		capsule *models.Capsule
		bid     *models.Bid
	)
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		c, err := r.lockCapsule(ctx, q, capsuleID)
		if err != nil {
			return err
		}
		if c.IsOpen() {
			return capsuledomain.ErrCapsuleAlreadyOpen
		}

		row, err := q.GetBidForUpdate(ctx, db.GetBidForUpdateParams{ID: bidID, CapsuleID: capsuleID})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return capsuledomain.ErrBidNotFound
			}
			return mapWriteErr("lock bid", err)
		}
		b, err := rowToBid(row)
		if err != nil {
			return err
		}
		if !b.Pending() {
			return capsuledomain.ErrBidAlreadyResolved
		}

		b.Status = models.BidRejected
		if accept {
			b.Status = models.BidAccepted
		}
		b.ResolvedAt = &at
		if err := q.SetBidStatus(ctx, db.SetBidStatusParams{
			ID:         b.ID,
			Status:     db.BidStatus(b.Status),
			ResolvedAt: sql.NullTime{Time: at, Valid: true},
		}); err != nil {
			return mapWriteErr("set bid status", err)
		}

		if err := r.publish(ctx, tx, domainevents.TopicBidResolved, func(id uuid.UUID) any {
			return domainevents.BidResolvedEvent{
				EventID:    id,
				Version:    1,
				CapsuleID:  capsuleID,
				BidID:      b.ID,
				Accepted:   accept,
				OccurredAt: at,
			}
		}); err != nil {
			return err
		}

		if accept {
			if _, err := q.RejectOtherPendingBids(ctx, db.RejectOtherPendingBidsParams{
				CapsuleID:  capsuleID,
				ResolvedAt: sql.NullTime{Time: at, Valid: true},
				ID:         b.ID,
			}); err != nil {
				return mapWriteErr("reject other bids", err)
			}
			if err := r.open(ctx, tx, q, c, at, domainevents.OpenTriggerBid, &b.ID); err != nil {
				return err
			}
		}

		capsule, bid = c, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return capsule, bid, nil
}

// OpenScheduled opens a LOCKED capsule whose scheduled time has been reached.
// Returns ErrNotYetDue if at is before the schedule; an OPEN capsule is returned as-is.
func (r *CapsuleRepository) OpenScheduled(ctx context.Context, id uuid.UUID, at time.Time) (*models.Capsule, error) {
	at = at.UTC()
	var capsule *models.Capsule
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		c, err := r.lockCapsule(ctx, q, id)
		if err != nil {
			return err
		}
		capsule = c
		if c.IsOpen() {
			return nil
		}
		if !c.DueAt(at) {
			return capsuledomain.ErrNotYetDue
		}
		return r.open(ctx, tx, q, c, at, domainevents.OpenTriggerSchedule, nil)
	})
	if err != nil {
		return nil, err
	}
	return capsule, nil
}

// open performs the LOCKED -> OPEN update on a row already locked by the caller
// and mutates c to match.
func (r *CapsuleRepository) open(ctx context.Context, tx *sql.Tx, q *db.Queries, c *models.Capsule, at time.Time, trigger string, bidID *uuid.UUID) error {
	n, err := q.OpenCapsule(ctx, db.OpenCapsuleParams{ID: c.ID, ActualOpenAt: sql.NullTime{Time: at, Valid: true}})
	if err != nil {
		return mapWriteErr("open capsule", err)
	}
	if n != 1 {
		return capsuledomain.ErrCapsuleAlreadyOpen
	}
	c.Open(at)

	return r.publish(ctx, tx, domainevents.TopicCapsuleOpened, func(id uuid.UUID) any {
		return domainevents.CapsuleOpenedEvent{
			EventID:    id,
			Version:    1,
			CapsuleID:  c.ID,
			Trigger:    trigger,
			BidID:      bidID,
			OpenedAt:   at,
			OccurredAt: at,
		}
	})
}

func (r *CapsuleRepository) lockCapsule(ctx context.Context, q *db.Queries, id uuid.UUID) (*models.Capsule, error) {
	row, err := q.GetCapsuleForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, capsuledomain.ErrCapsuleNotFound
		}
		return nil, mapWriteErr("lock capsule", err)
	}
	return rowToCapsule(row)
}

// publish builds the event with a fresh event ID and writes it to the outbox
// within tx. No-op without a bus.
func (r *CapsuleRepository) publish(ctx context.Context, tx *sql.Tx, topic string, build func(eventID uuid.UUID) any) error {
	if r.bus == nil {
		return nil
	}
	eventID := uuid.New()
	msg, err := events.NewJSONMessage(eventID.String(), 1, build(eventID))
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	if err := r.bus.PublishTx(ctx, tx, topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// mapWriteErr turns lock contention into ErrConcurrencyConflict so the engine
// re-reads and retries.
func mapWriteErr(op string, err error) error {
	if database.HasCode(err, database.CodeSerializationFailure, database.CodeDeadlockDetected, database.CodeLockNotAvailable) {
		return fmt.Errorf("%s: %w", op, capsuledomain.ErrConcurrencyConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullRef(ref *models.ContentRef) sql.NullString {
	if ref == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: ref.String(), Valid: true}
}

// rowToCapsule maps a db.Capsule to a domain models.Capsule.
func rowToCapsule(row db.Capsule) (*models.Capsule, error) {
	floor, err := models.NewAmount(row.FloorBid)
	if err != nil {
		return nil, fmt.Errorf("parse floor_bid: %w", err)
	}
	current, err := models.NewAmount(row.CurrentBid)
	if err != nil {
		return nil, fmt.Errorf("parse current_bid: %w", err)
	}
	c := &models.Capsule{
		ID:              row.ID,
		Name:            models.CapsuleName(row.Name),
		CreatorID:       row.CreatorID,
		ScheduledOpenAt: row.ScheduledOpenAt.UTC(),
		AuctionEnabled:  row.AuctionEnabled,
		Status:          models.Status(row.Status),
		FloorBid:        floor,
		CurrentBid:      current,
		Network:         models.Network(row.Network),
		PaymentTxID:     row.PaymentTxID,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.ContentRef.Valid {
		ref := models.ContentRef(row.ContentRef.String)
		c.ContentRef = &ref
	}
	if row.ActualOpenAt.Valid {
		t := row.ActualOpenAt.Time.UTC()
		c.ActualOpenAt = &t
	}
	if row.HighestBidderID.Valid {
		id := row.HighestBidderID.UUID
		c.HighestBidderID = &id
	}
	return c, nil
}

// rowToBid maps a db.CapsuleBid to a domain models.Bid.
func rowToBid(row db.CapsuleBid) (*models.Bid, error) {
	amount, err := models.NewAmount(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse bid amount: %w", err)
	}
	b := &models.Bid{
		ID:        row.ID,
		CapsuleID: row.CapsuleID,
		BidderID:  row.BidderID,
		Amount:    amount,
		Status:    models.BidStatus(row.Status),
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.ResolvedAt.Valid {
		t := row.ResolvedAt.Time.UTC()
		b.ResolvedAt = &t
	}
	return b, nil
}
