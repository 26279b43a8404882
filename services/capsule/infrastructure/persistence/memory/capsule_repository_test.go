package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

func seed(t *testing.T, r *CapsuleRepository, auction bool, openAt time.Time) *models.Capsule {
	t.Helper()
	c, err := r.Insert(context.Background(), models.NewCapsule(models.NewCapsuleParams{
		Name:            "Seeded",
		CreatorID:       uuid.New(),
		ScheduledOpenAt: openAt,
		AuctionEnabled:  auction,
		FloorBid:        models.MustAmount("0.1"),
		Network:         models.NetworkBNB,
		PaymentTxID:     uuid.NewString(),
	}))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

func TestInsert_DuplicatePaymentTx(t *testing.T) {
	r := NewCapsuleRepository()
	c := seed(t, r, true, time.Now().Add(time.Hour))

	dup := models.NewCapsule(models.NewCapsuleParams{Name: "Dup", CreatorID: uuid.New(), FloorBid: models.MustAmount("0.1"), Network: models.NetworkBNB, PaymentTxID: c.PaymentTxID})
	if _, err := r.Insert(context.Background(), dup); !errors.Is(err, capsuledomain.ErrCapsuleAlreadyExists) {
		t.Fatalf("expected ErrCapsuleAlreadyExists, got %v", err)
	}
}

func TestRecordBid_CompareAndSwap(t *testing.T) {
	r := NewCapsuleRepository()
	ctx := context.Background()
	c := seed(t, r, true, time.Now().Add(time.Hour))

	if _, err := r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.2")), c.CurrentBid); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	// Stale baseline: the first bid already moved current_bid to 0.2.
	if _, err := r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.3")), c.CurrentBid); !errors.Is(err, capsuledomain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	got, _ := r.GetByID(ctx, c.ID)
	if got.CurrentBid.String() != "0.2" || got.Version != 2 {
		t.Fatalf("unexpected capsule after bids: current=%s version=%d", got.CurrentBid, got.Version)
	}
}

func TestRecordBid_ConcurrentSameBaseline(t *testing.T) {
	r := NewCapsuleRepository()
	ctx := context.Background()
	c := seed(t, r, true, time.Now().Add(time.Hour))

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("1")), c.CurrentBid)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("exactly one writer may win a baseline, got %d", accepted)
	}
	bids, _ := r.ListBids(ctx, c.ID)
	if len(bids) != 1 {
		t.Fatalf("losing writers must store nothing, got %d bids", len(bids))
	}
}

func TestResolve_AcceptClosesAuction(t *testing.T) {
	r := NewCapsuleRepository()
	ctx := context.Background()
	c := seed(t, r, true, time.Now().Add(time.Hour))

	low, _ := r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.2")), models.MustAmount("0.1"))
	high, _ := r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.3")), models.MustAmount("0.2"))

	now := time.Now()
	opened, bid, err := r.Resolve(ctx, c.ID, low.ID, true, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !opened.IsOpen() || bid.Status != models.BidAccepted {
		t.Fatalf("expected OPEN capsule and ACCEPTED bid, got %s/%s", opened.Status, bid.Status)
	}
	other, _ := r.GetBid(ctx, c.ID, high.ID)
	if other.Status != models.BidRejected {
		t.Fatalf("other pending bids must be rejected, got %s", other.Status)
	}

	if _, _, err := r.Resolve(ctx, c.ID, high.ID, true, now); !errors.Is(err, capsuledomain.ErrCapsuleAlreadyOpen) {
		t.Fatalf("expected ErrCapsuleAlreadyOpen, got %v", err)
	}
}

func TestResolve_RejectKeepsBid(t *testing.T) {
	r := NewCapsuleRepository()
	ctx := context.Background()
	c := seed(t, r, true, time.Now().Add(time.Hour))
	b, _ := r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.2")), models.MustAmount("0.1"))

	capsule, bid, err := r.Resolve(ctx, c.ID, b.ID, false, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if capsule.IsOpen() || bid.Status != models.BidRejected {
		t.Fatalf("unexpected result %s/%s", capsule.Status, bid.Status)
	}
	bids, _ := r.ListBids(ctx, c.ID)
	if len(bids) != 1 {
		t.Fatal("rejected bid must be retained")
	}
	if _, _, err := r.Resolve(ctx, c.ID, b.ID, true, time.Now()); !errors.Is(err, capsuledomain.ErrBidAlreadyResolved) {
		t.Fatalf("expected ErrBidAlreadyResolved, got %v", err)
	}
}

func TestListBids_OrderAndIsolation(t *testing.T) {
	r := NewCapsuleRepository()
	ctx := context.Background()
	c := seed(t, r, true, time.Now().Add(time.Hour))
	_, _ = r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.2")), models.MustAmount("0.1"))
	_, _ = r.RecordBid(ctx, models.NewBid(c.ID, uuid.New(), models.MustAmount("0.5")), models.MustAmount("0.2"))

	bids, _ := r.ListBids(ctx, c.ID)
	if bids[0].Amount.String() != "0.5" || bids[1].Amount.String() != "0.2" {
		t.Fatalf("expected amount-descending order, got %s, %s", bids[0].Amount, bids[1].Amount)
	}

	bids[0].Status = models.BidAccepted
	again, _ := r.ListBids(ctx, c.ID)
	if again[0].Status != models.BidPending {
		t.Fatal("returned bids must not alias stored state")
	}
}

func TestOpenScheduled(t *testing.T) {
	r := NewCapsuleRepository()
	ctx := context.Background()
	openAt := time.Now().Add(time.Hour)
	c := seed(t, r, false, openAt)

	if _, err := r.OpenScheduled(ctx, c.ID, time.Now()); !errors.Is(err, capsuledomain.ErrNotYetDue) {
		t.Fatalf("expected ErrNotYetDue, got %v", err)
	}
	opened, err := r.OpenScheduled(ctx, c.ID, openAt)
	if err != nil || !opened.IsOpen() {
		t.Fatalf("expected OPEN at schedule, got %v / %v", opened, err)
	}
	again, err := r.OpenScheduled(ctx, c.ID, openAt.Add(time.Hour))
	if err != nil || !again.ActualOpenAt.Equal(*opened.ActualOpenAt) {
		t.Fatal("second open must be a no-op")
	}
}
