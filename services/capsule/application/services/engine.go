package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/timecapsule/pkg/cache"
	"github.com/ghuser/timecapsule/pkg/config"
	"github.com/ghuser/timecapsule/pkg/identity"
	"github.com/ghuser/timecapsule/pkg/logger"
	"github.com/ghuser/timecapsule/pkg/telemetry"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/events"
	"github.com/ghuser/timecapsule/services/capsule/domain/gateways"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
	"github.com/ghuser/timecapsule/services/capsule/domain/repositories"
	domainsvcs "github.com/ghuser/timecapsule/services/capsule/domain/services"
)

// CapsuleCache is the read-model cache. *pkgcache.CapsuleCache implements it.
type CapsuleCache interface {
	Get(ctx context.Context, id uuid.UUID) (*pkgcache.CachedCapsule, error)
	Set(ctx context.Context, cc *pkgcache.CachedCapsule) (bool, error)
	Invalidate(ctx context.Context, id uuid.UUID, version int64) error
}

// OrphanQueue receives paid capsules that could not be persisted.
type OrphanQueue interface {
	Push(ctx context.Context, o *pkgcache.OrphanedCapsule) error
}

// IncidentReporter escalates failures that need a human, such as a sunk payment.
type IncidentReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// EngineConfig holds the business parameters of the capsule lifecycle.
type EngineConfig struct {
	Recipient       string
	CreationFees    map[models.Network]models.Amount
	FloorBid        models.Amount
	PlatformFeeBps  int64
	BidAttempts     int
	PersistAttempts int
	PersistBackoff  time.Duration
}

// EngineConfigFromConfig parses amounts from cfg and applies retry defaults.
func EngineConfigFromConfig(cfg *config.Config) (EngineConfig, error) {
	floor, err := positiveAmount("FLOOR_BID", cfg.FloorBid)
	if err != nil {
		return EngineConfig{}, err
	}
	bnbFee, err := positiveAmount("BNB_CREATION_FEE", cfg.BNBCreationFee)
	if err != nil {
		return EngineConfig{}, err
	}
	ethFee, err := positiveAmount("ETH_CREATION_FEE", cfg.ETHCreationFee)
	if err != nil {
		return EngineConfig{}, err
	}
	return EngineConfig{
		Recipient: cfg.PaymentRecipient,
		CreationFees: map[models.Network]models.Amount{
			models.NetworkBNB: bnbFee,
			models.NetworkETH: ethFee,
		},
		FloorBid:        floor,
		PlatformFeeBps:  cfg.PlatformFeeBasisPt,
		BidAttempts:     3,
		PersistAttempts: 3,
		PersistBackoff:  200 * time.Millisecond,
	}, nil
}

func positiveAmount(name, raw string) (models.Amount, error) {
	a, err := models.NewAmount(raw)
	if err != nil {
		return models.Amount{}, fmt.Errorf("%s: %w", name, err)
	}
	if !a.IsPositive() {
		return models.Amount{}, fmt.Errorf("%s: must be greater than zero, got %s", name, a)
	}
	return a, nil
}

// EngineDeps are the collaborators of an Engine. Cache, Orphans, Incidents and
// Metrics may be nil.
type EngineDeps struct {
	Repo      repositories.CapsuleRepository
	Payments  gateways.PaymentGateway
	Content   gateways.ContentStore
	Cache     CapsuleCache
	Orphans   OrphanQueue
	Incidents IncidentReporter
	Metrics   *telemetry.CapsuleMetrics
	Log       logger.Logger
}

// Engine orchestrates the capsule lifecycle: paid creation, bidding, bid
// resolution and unlocking. All persisted state goes through the repository.
type Engine struct {
	repo      repositories.CapsuleRepository
	payments  gateways.PaymentGateway
	content   gateways.ContentStore
	cache     CapsuleCache
	orphans   OrphanQueue
	incidents IncidentReporter
	metrics   *telemetry.CapsuleMetrics
	log       logger.Logger
	cfg       EngineConfig
	now       func() time.Time
}

// NewEngine builds an Engine. Attempt counts below one are raised to one and a
// nil logger discards output.
func NewEngine(deps EngineDeps, cfg EngineConfig) *Engine {
	if cfg.BidAttempts < 1 {
		cfg.BidAttempts = 1
	}
	if cfg.PersistAttempts < 1 {
		cfg.PersistAttempts = 1
	}
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		repo:      deps.Repo,
		payments:  deps.Payments,
		content:   deps.Content,
		cache:     deps.Cache,
		orphans:   deps.Orphans,
		incidents: deps.Incidents,
		metrics:   deps.Metrics,
		log:       log,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is what a creator submits. At most one of Message and Image is set.
type CreateInput struct {
	Name           string
	OpenAt         time.Time
	Network        string
	AuctionEnabled bool
	Message        string
	Image          []byte
}

// Creation is the result of a paid capsule creation.
type Creation struct {
	Capsule *models.Capsule
	TxID    string
	// ContentDegraded is set when content was supplied but could not be stored.
	ContentDegraded bool
}

// Create validates input, pays the creation fee, stores content and persists
// a LOCKED capsule, in that order. Nothing is persisted unless payment was
// confirmed. A content store failure degrades to a capsule without content.
// A persistence failure after payment returns *PersistenceError and queues
// the capsule for reconciliation.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Creation, error) {
	requestedAt := e.now()

	caller, err := identity.FromCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrUnauthenticated, err)
	}
	if !caller.WalletConnected() {
		return nil, fmt.Errorf("%w: wallet not connected", capsuledomain.ErrValidation)
	}

	name, err := models.NewCapsuleName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrValidation, err)
	}
	network, err := models.ParseNetwork(in.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrValidation, err)
	}
	capsule := models.NewCapsule(models.NewCapsuleParams{
		Name:            name,
		CreatorID:       caller.UserID,
		ScheduledOpenAt: in.OpenAt,
		AuctionEnabled:  in.AuctionEnabled,
		FloorBid:        e.cfg.FloorBid,
		Network:         network,
	})
	// Everything but the payment reference is checked before money moves.
	if err := domainsvcs.ValidateCapsuleDraft(capsule, requestedAt); err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrValidation, err)
	}
	content, hasContent, err := buildContent(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrValidation, err)
	}
	fee, ok := e.cfg.CreationFees[network]
	if !ok {
		return nil, fmt.Errorf("no creation fee configured for %s", network)
	}

	txID, err := e.payments.Pay(ctx, e.cfg.Recipient, fee, network)
	if err != nil {
		var pe *capsuledomain.PaymentError
		reason := "unknown"
		if errors.As(err, &pe) {
			reason = string(pe.Reason)
		}
		e.metrics.PaymentFailed(ctx, network.String(), reason)
		return nil, fmt.Errorf("pay creation fee: %w", err)
	}

	// The fee is spent from here on. Finish even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	log := e.log.With("tx_id", txID, "network", network.String())

	capsule.PaymentTxID = txID
	degraded := false
	if hasContent {
		stored, err := e.content.Store(ctx, content)
		if err != nil {
			log.WarnContext(ctx, "content store failed, creating capsule without content", "error", err)
			degraded = true
		} else {
			capsule.ContentRef = &stored
		}
	}

	if err := domainsvcs.ValidateCapsuleForCreation(capsule, requestedAt); err != nil {
		return nil, e.orphan(ctx, capsule, fmt.Errorf("%w: %w", capsuledomain.ErrValidation, err))
	}

	saved, err := e.persist(ctx, capsule)
	if err != nil {
		return nil, e.orphan(ctx, capsule, err)
	}

	e.metrics.CapsuleCreated(ctx, network.String())
	e.warm(ctx, saved)
	log.InfoContext(ctx, "capsule created", "capsule_id", saved.ID, "content_degraded", degraded)

	return &Creation{Capsule: saved.Redacted(), TxID: txID, ContentDegraded: degraded}, nil
}

func buildContent(in CreateInput) (models.Content, bool, error) {
	hasMessage := strings.TrimSpace(in.Message) != ""
	switch {
	case hasMessage && len(in.Image) > 0:
		return models.Content{}, false, errors.New("provide either a message or an image, not both")
	case len(in.Image) > 0:
		c, err := models.NewImageContent(in.Image)
		return c, err == nil, err
	case hasMessage:
		c, err := models.NewTextContent(in.Message)
		return c, err == nil, err
	default:
		return models.Content{}, false, nil
	}
}

// persist inserts with bounded retries. An ErrCapsuleAlreadyExists on retry
// means an earlier attempt committed, so the stored row is returned.
func (e *Engine) persist(ctx context.Context, c *models.Capsule) (*models.Capsule, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.PersistAttempts; attempt++ {
		saved, err := e.repo.Insert(ctx, c)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, capsuledomain.ErrCapsuleAlreadyExists) && attempt > 1 {
			existing, getErr := e.repo.GetByID(ctx, c.ID)
			if getErr == nil && existing.PaymentTxID == c.PaymentTxID {
				return existing, nil
			}
		}
		if errors.Is(err, capsuledomain.ErrCapsuleAlreadyExists) {
			return nil, fmt.Errorf("insert capsule: %w", err)
		}

		lastErr = err
		e.log.WarnContext(ctx, "capsule insert failed", "attempt", attempt, "capsule_id", c.ID, "error", err)
		if attempt < e.cfg.PersistAttempts {
			time.Sleep(e.cfg.PersistBackoff * time.Duration(attempt))
		}
	}
	return nil, fmt.Errorf("insert capsule after %d attempts: %w", e.cfg.PersistAttempts, lastErr)
}

// orphan records a paid but unpersisted capsule and builds the caller's error.
func (e *Engine) orphan(ctx context.Context, c *models.Capsule, cause error) error {
	perr := &capsuledomain.PersistenceError{TxID: c.PaymentTxID, Err: cause}

	e.metrics.CapsuleOrphaned(ctx)
	e.log.ErrorContext(ctx, "paid capsule not persisted", "capsule_id", c.ID, "tx_id", c.PaymentTxID, "error", cause)
	if e.incidents != nil {
		e.incidents.Report(ctx, perr, map[string]string{
			"capsule_id": c.ID.String(),
			"tx_id":      c.PaymentTxID,
			"network":    c.Network.String(),
		})
	}
	if e.orphans != nil {
		o := &pkgcache.OrphanedCapsule{
			Capsule:    *toCached(c),
			Attempts:   e.cfg.PersistAttempts,
			LastError:  cause.Error(),
			EnqueuedAt: e.now(),
		}
		if err := e.orphans.Push(ctx, o); err != nil {
			e.log.ErrorContext(ctx, "reconcile enqueue failed", "capsule_id", c.ID, "tx_id", c.PaymentTxID, "error", err)
		}
	}
	return perr
}

// Reconcile retries persistence of an orphaned capsule. A capsule that is
// already stored counts as reconciled. An orphan that can never be stored
// fails with ErrValidation and should not be retried.
func (e *Engine) Reconcile(ctx context.Context, o *pkgcache.OrphanedCapsule) error {
	c, err := fromCached(&o.Capsule)
	if err != nil {
		return fmt.Errorf("%w: decode orphan: %w", capsuledomain.ErrValidation, err)
	}
	if err := domainsvcs.ValidateOrphanedCapsule(c); err != nil {
		return fmt.Errorf("%w: orphan %s: %w", capsuledomain.ErrValidation, c.ID, err)
	}
	saved, err := e.repo.Insert(ctx, c)
	if errors.Is(err, capsuledomain.ErrCapsuleAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile capsule %s: %w", c.ID, err)
	}
	e.metrics.CapsuleCreated(ctx, saved.Network.String())
	e.log.InfoContext(ctx, "orphaned capsule reconciled", "capsule_id", saved.ID, "tx_id", saved.PaymentTxID)
	return nil
}

// PlaceBid records a bid from the authenticated caller. The bid is validated
// against the live current bid and written with a compare-and-swap on that
// baseline; a lost race re-reads and re-validates up to BidAttempts times.
func (e *Engine) PlaceBid(ctx context.Context, capsuleID uuid.UUID, amount models.Amount) (*models.Bid, error) {
	caller, err := identity.FromCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrUnauthenticated, err)
	}

	for attempt := 1; attempt <= e.cfg.BidAttempts; attempt++ {
		c, err := e.load(ctx, capsuleID)
		if err != nil {
			return nil, err
		}
		if c.IsOpen() {
			return nil, capsuledomain.ErrCapsuleAlreadyOpen
		}
		if !c.AuctionEnabled {
			return nil, capsuledomain.ErrAuctionDisabled
		}
		if c.CreatorID == caller.UserID {
			return nil, capsuledomain.ErrSelfBid
		}
		if err := domainsvcs.ValidateBid(c.CurrentBid, amount, c.FloorBid); err != nil {
			if errors.Is(err, capsuledomain.ErrBidTooLow) {
				e.metrics.BidRejected(ctx)
			}
			return nil, err
		}

		bid, err := e.repo.RecordBid(ctx, models.NewBid(c.ID, caller.UserID, amount), c.CurrentBid)
		if errors.Is(err, capsuledomain.ErrConcurrencyConflict) {
			e.metrics.BidConflict(ctx)
			e.log.DebugContext(ctx, "bid lost race, retrying", "capsule_id", capsuleID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("record bid: %w", err)
		}

		e.metrics.BidAccepted(ctx)
		// The swap succeeded on c, so the stored version is at least c.Version+1.
		e.invalidate(ctx, capsuleID, c.Version+1)
		return bid, nil
	}
	return nil, fmt.Errorf("place bid after %d attempts: %w", e.cfg.BidAttempts, capsuledomain.ErrConcurrencyConflict)
}

// Resolution is the outcome of a creator's decision on a bid.
// Proceeds is set only when the bid was accepted.
type Resolution struct {
	Capsule  *models.Capsule
	Bid      *models.Bid
	Proceeds *models.Proceeds
}

// ResolveBid accepts or rejects a pending bid. Only the creator may resolve.
// Accepting opens the capsule immediately and rejects the remaining bids.
func (e *Engine) ResolveBid(ctx context.Context, capsuleID, bidID uuid.UUID, accept bool) (*Resolution, error) {
	caller, err := identity.FromCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capsuledomain.ErrUnauthenticated, err)
	}

	c, err := e.repo.GetByID(ctx, capsuleID)
	if err != nil {
		return nil, fmt.Errorf("get capsule: %w", err)
	}
	if c.CreatorID != caller.UserID {
		return nil, capsuledomain.ErrNotCreator
	}
	if c.IsOpen() {
		return nil, capsuledomain.ErrCapsuleAlreadyOpen
	}

	capsule, bid, err := e.repo.Resolve(ctx, capsuleID, bidID, accept, e.now())
	if err != nil {
		return nil, fmt.Errorf("resolve bid: %w", err)
	}
	e.invalidate(ctx, capsuleID, capsule.Version)

	res := &Resolution{Capsule: capsule.Redacted(), Bid: bid}
	if accept {
		p := domainsvcs.SplitProceeds(bid.Amount, e.cfg.PlatformFeeBps)
		res.Proceeds = &p
		e.metrics.CapsuleOpened(ctx, events.OpenTriggerBid)
		e.log.InfoContext(ctx, "bid accepted, capsule opened",
			"capsule_id", capsuleID,
			"bid_id", bidID,
			"amount", bid.Amount.String(),
			"creator_share", p.CreatorShare.String(),
			"platform_fee", p.PlatformFee.String(),
		)
	}
	return res, nil
}

// Get returns a capsule with content redacted unless it is OPEN. A LOCKED
// capsule past its scheduled time is opened first.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*models.Capsule, error) {
	if e.cache != nil {
		cached, err := e.cache.Get(ctx, id)
		switch {
		case err == nil:
			c, decodeErr := fromCached(cached)
			if decodeErr == nil && !c.DueAt(e.now()) {
				return c.Redacted(), nil
			}
		case !errors.Is(err, redis.Nil):
			e.log.WarnContext(ctx, "capsule cache read failed", "capsule_id", id, "error", err)
		}
	}

	c, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	e.warm(ctx, c)
	return c.Redacted(), nil
}

// ListBids returns a capsule's bids, highest first.
func (e *Engine) ListBids(ctx context.Context, capsuleID uuid.UUID) ([]*models.Bid, error) {
	if _, err := e.repo.GetByID(ctx, capsuleID); err != nil {
		return nil, fmt.Errorf("get capsule: %w", err)
	}
	bids, err := e.repo.ListBids(ctx, capsuleID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return bids, nil
}

// OpenScheduled performs the time-based unlock. opened reports whether this
// call made the transition; an already OPEN capsule is returned unchanged.
func (e *Engine) OpenScheduled(ctx context.Context, id uuid.UUID) (capsule *models.Capsule, opened bool, err error) {
	c, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get capsule: %w", err)
	}
	if c.IsOpen() {
		return c, false, nil
	}
	now := e.now()
	if !c.DueAt(now) {
		return nil, false, fmt.Errorf("open capsule %s before %s: %w", id, c.ScheduledOpenAt.Format(time.RFC3339), capsuledomain.ErrNotYetDue)
	}

	c, err = e.repo.OpenScheduled(ctx, id, now)
	if err != nil {
		return nil, false, fmt.Errorf("open capsule: %w", err)
	}
	e.metrics.CapsuleOpened(ctx, events.OpenTriggerSchedule)
	e.invalidate(ctx, id, c.Version)
	e.log.InfoContext(ctx, "capsule opened on schedule", "capsule_id", id)
	return c, true, nil
}

// load reads a capsule and applies a due scheduled unlock.
func (e *Engine) load(ctx context.Context, id uuid.UUID) (*models.Capsule, error) {
	c, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get capsule: %w", err)
	}
	if !c.DueAt(e.now()) {
		return c, nil
	}
	opened, _, err := e.OpenScheduled(ctx, id)
	if err != nil {
		return nil, err
	}
	return opened, nil
}

func (e *Engine) warm(ctx context.Context, c *models.Capsule) {
	if e.cache == nil {
		return
	}
	if _, err := e.cache.Set(ctx, toCached(c)); err != nil {
		e.log.WarnContext(ctx, "capsule cache write failed", "capsule_id", c.ID, "error", err)
	}
}

// invalidate drops the cached view after a write that produced version, and
// fences out slower readers still holding an older view.
func (e *Engine) invalidate(ctx context.Context, id uuid.UUID, version int64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, id, version); err != nil {
		e.log.WarnContext(ctx, "capsule cache invalidation failed", "capsule_id", id, "error", err)
	}
}
