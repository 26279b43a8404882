package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const capsuleMeterName = "github.com/ghuser/timecapsule/capsule"

// CapsuleMetrics holds the domain counters for the capsule lifecycle.
// A nil *CapsuleMetrics is valid and records nothing.
type CapsuleMetrics struct {
	created        metric.Int64Counter
	paymentsFailed metric.Int64Counter
	bidsAccepted   metric.Int64Counter
	bidsRejected   metric.Int64Counter
	bidConflicts   metric.Int64Counter
	opened         metric.Int64Counter
	orphaned       metric.Int64Counter
}

// NewCapsuleMetrics registers the counters on the global MeterProvider.
// Call after Setup so they are exported through /metrics.
func NewCapsuleMetrics() (*CapsuleMetrics, error) {
	meter := otel.Meter(capsuleMeterName)
	m := &CapsuleMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.created, "capsules_created_total", "Capsules persisted after a confirmed payment"},
		{&m.paymentsFailed, "capsule_payments_failed_total", "Creation fee payments that did not confirm"},
		{&m.bidsAccepted, "capsule_bids_accepted_total", "Bids that passed validation and were recorded"},
		{&m.bidsRejected, "capsule_bids_rejected_total", "Bids rejected for being below the minimum"},
		{&m.bidConflicts, "capsule_bid_conflicts_total", "Bid writes that lost a concurrent race"},
		{&m.opened, "capsules_opened_total", "LOCKED to OPEN transitions"},
		{&m.orphaned, "capsules_orphaned_total", "Paid capsules that could not be persisted"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *CapsuleMetrics) CapsuleCreated(ctx context.Context, network string) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("network", network)))
}

func (m *CapsuleMetrics) PaymentFailed(ctx context.Context, network, reason string) {
	if m == nil {
		return
	}
	m.paymentsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("network", network),
		attribute.String("reason", reason),
	))
}

func (m *CapsuleMetrics) BidAccepted(ctx context.Context) {
	if m == nil {
		return
	}
	m.bidsAccepted.Add(ctx, 1)
}

func (m *CapsuleMetrics) BidRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.bidsRejected.Add(ctx, 1)
}

func (m *CapsuleMetrics) BidConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.bidConflicts.Add(ctx, 1)
}

// CapsuleOpened records a transition; trigger is "schedule" or "bid".
func (m *CapsuleMetrics) CapsuleOpened(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.opened.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

func (m *CapsuleMetrics) CapsuleOrphaned(ctx context.Context) {
	if m == nil {
		return
	}
	m.orphaned.Add(ctx, 1)
}
