package main

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/pkg/app"
	"github.com/ghuser/timecapsule/pkg/cache"
	"github.com/ghuser/timecapsule/pkg/events"
	"github.com/ghuser/timecapsule/pkg/logger"
	capsuleEvents "github.com/ghuser/timecapsule/services/capsule/domain/events"
)

type recordingPublisher struct {
	topic string
	msgs  []*message.Message
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)
	return p.err
}

func TestAbandonOrphan_PublishesEvent(t *testing.T) {
	a := &app.Application{Logger: logger.Discard()}
	pub := &recordingPublisher{}
	orphan := &cache.OrphanedCapsule{
		Capsule: cache.CachedCapsule{
			ID:          uuid.New(),
			CreatorID:   uuid.New(),
			Network:     "ETH",
			PaymentTxID: "0xpaid",
		},
		Attempts:  20,
		LastError: "connection refused",
	}

	if err := abandonOrphan(context.Background(), a, pub, orphan, errors.New("connection refused")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.topic != capsuleEvents.TopicCapsuleAbandoned || len(pub.msgs) != 1 {
		t.Fatalf("published %d messages to %q", len(pub.msgs), pub.topic)
	}

	evt, err := events.Decode[capsuleEvents.CapsuleAbandonedEvent](pub.msgs[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if evt.CapsuleID != orphan.Capsule.ID || evt.PaymentTxID != "0xpaid" || evt.Attempts != 20 || evt.Network != "ETH" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if got := pub.msgs[0].Metadata.Get(events.MetaEventID); got != evt.EventID.String() {
		t.Fatalf("event_id metadata = %q, want %q", got, evt.EventID)
	}
}

func TestAbandonOrphan_PublishError(t *testing.T) {
	a := &app.Application{Logger: logger.Discard()}
	pub := &recordingPublisher{err: errors.New("outbox down")}
	orphan := &cache.OrphanedCapsule{Capsule: cache.CachedCapsule{ID: uuid.New(), PaymentTxID: "0xpaid"}}

	if err := abandonOrphan(context.Background(), a, pub, orphan, errors.New("boom")); err == nil {
		t.Fatal("expected publish error")
	}
}
