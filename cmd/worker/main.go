package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/timecapsule/pkg/app"
	"github.com/ghuser/timecapsule/pkg/cache"
	"github.com/ghuser/timecapsule/pkg/config"
	"github.com/ghuser/timecapsule/pkg/database"
	"github.com/ghuser/timecapsule/pkg/events"
	"github.com/ghuser/timecapsule/pkg/logger"
	"github.com/ghuser/timecapsule/pkg/telemetry"
	"github.com/ghuser/timecapsule/pkg/workflows"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
	capsuleflows "github.com/ghuser/timecapsule/services/capsule/application/workflows"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	capsuleEvents "github.com/ghuser/timecapsule/services/capsule/domain/events"
)

const (
	reconcilePollTimeout = 5 * time.Second
	maxReconcileAttempts = 20
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	metrics, err := telemetry.NewCapsuleMetrics()
	if err != nil {
		log.Error("failed to register capsule metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	pool, err := database.NewPool(ctx, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	temporalClient, err := workflows.NewTemporalClient(ctx, cfg.TemporalHostPort, cfg.TemporalNamespace, cfg.TemporalTaskQueue, log)
	if err != nil {
		log.Error("failed to initialize temporal client", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer temporalClient.Close()

	appConfig := &app.Application{
		Config:         cfg,
		Db:             pool,
		Logger:         log,
		EventBus:       eventBus,
		Redis:          redisClient,
		TemporalClient: temporalClient,
		Metrics:        metrics,
	}

	engineCfg, err := appsvcs.EngineConfigFromConfig(cfg)
	if err != nil {
		log.Error("invalid engine config", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	// The worker opens and reconciles capsules but never creates them, so it
	// carries no payment or content gateways.
	svcs := appsvcs.New(appConfig, appsvcs.Gateways{}, engineCfg)

	w := temporalClient.NewWorker()
	capsuleflows.Register(w, capsuleflows.NewActivities(svcs.Engine))
	if err := w.Start(); err != nil {
		log.Error("failed to start temporal worker", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer w.Stop()
	log.Info("temporal worker started", "task_queue", temporalClient.TaskQueue)

	if err := registerSubscribers(ctx, appConfig, svcs); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	reconcileCtx, cancelReconcile := context.WithCancel(ctx)
	go runReconciler(reconcileCtx, appConfig, svcs.Engine, cache.NewReconcileQueue(redisClient), eventBus)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancelReconcile()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// registerSubscribers wires all capsule event handlers.
func registerSubscribers(ctx context.Context, a *app.Application, svcs *appsvcs.Services) error {
	capsuleCache := cache.NewCapsuleCache(a.Redis)
	handlers := map[string]func(context.Context, *message.Message) error{
		capsuleEvents.TopicCapsuleCreated: handleCapsuleCreated(a, svcs),
		capsuleEvents.TopicBidPlaced:      invalidateOn[capsuleEvents.BidPlacedEvent](a, capsuleCache, func(e capsuleEvents.BidPlacedEvent) uuid.UUID { return e.CapsuleID }),
		capsuleEvents.TopicBidResolved:    invalidateOn[capsuleEvents.BidResolvedEvent](a, capsuleCache, func(e capsuleEvents.BidResolvedEvent) uuid.UUID { return e.CapsuleID }),
		capsuleEvents.TopicCapsuleOpened:  invalidateOn[capsuleEvents.CapsuleOpenedEvent](a, capsuleCache, func(e capsuleEvents.CapsuleOpenedEvent) uuid.UUID { return e.CapsuleID }),
	}

	topics := make([]string, 0, len(handlers))
	for topic, handler := range handlers {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(topic)
		topics = append(topics, topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// handleCapsuleCreated schedules the durable unlock and warms the read-model cache.
// Handlers must be idempotent; EventBus retries up to 3x on failure. The
// workflow ID is derived from the capsule, so a redelivery keeps the existing run.
func handleCapsuleCreated(a *app.Application, svcs *appsvcs.Services) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		evt, err := events.Decode[capsuleEvents.CapsuleCreatedEvent](msg)
		if err != nil {
			return err
		}

		runID, err := capsuleflows.ScheduleUnlock(ctx, a.TemporalClient.Client, a.TemporalClient.TaskQueue, capsuleflows.UnlockCapsuleInput{
			CapsuleID:       evt.CapsuleID,
			ScheduledOpenAt: evt.ScheduledOpenAt,
		})
		if err != nil {
			return err
		}
		a.Logger.InfoContext(ctx, "unlock scheduled",
			"capsule_id", evt.CapsuleID, "open_at", evt.ScheduledOpenAt, "run_id", runID)

		// Cache warming is best-effort; log but do not fail the handler.
		if _, err := svcs.Engine.Get(ctx, evt.CapsuleID); err != nil {
			a.Logger.WarnContext(ctx, "cache warm failed for capsule.created",
				"capsule_id", evt.CapsuleID, "error", err)
		}
		return nil
	}
}

// invalidateOn drops the cached view of the capsule an event refers to.
func invalidateOn[T any](a *app.Application, c *cache.CapsuleCache, capsuleID func(T) uuid.UUID) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		evt, err := events.Decode[T](msg)
		if err != nil {
			return err
		}
		id := capsuleID(evt)
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
		a.Logger.DebugContext(ctx, "capsule cache invalidated", "capsule_id", id, "event_id", msg.UUID)
		return nil
	}
}

type eventPublisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// abandonOrphan escalates a paid capsule that will never be stored: an incident
// for operators and a capsule.reconcile_abandoned event for refund handling.
func abandonOrphan(ctx context.Context, a *app.Application, pub eventPublisher, orphan *cache.OrphanedCapsule, cause error) error {
	a.Incidents.Report(ctx, fmt.Errorf("reconcile abandoned: %w", cause), map[string]string{
		"capsule_id": orphan.Capsule.ID.String(),
		"tx_id":      orphan.Capsule.PaymentTxID,
	})

	evt := capsuleEvents.CapsuleAbandonedEvent{
		EventID:     uuid.New(),
		Version:     1,
		CapsuleID:   orphan.Capsule.ID,
		CreatorID:   orphan.Capsule.CreatorID,
		Network:     orphan.Capsule.Network,
		PaymentTxID: orphan.Capsule.PaymentTxID,
		Attempts:    orphan.Attempts,
		LastError:   orphan.LastError,
		OccurredAt:  time.Now().UTC(),
	}
	msg, err := events.NewJSONMessage(evt.EventID.String(), evt.Version, evt)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, capsuleEvents.TopicCapsuleAbandoned, msg)
}

// runReconciler drains the reconciliation queue of paid capsules whose insert
// failed, retrying each until it is stored or gives up. Runs until ctx is cancelled.
func runReconciler(ctx context.Context, a *app.Application, engine *appsvcs.Engine, queue *cache.ReconcileQueue, pub eventPublisher) {
	for {
		orphan, err := queue.Pop(ctx, reconcilePollTimeout)
		switch {
		case err != nil && ctx.Err() != nil:
			a.Logger.Info("reconciler shutting down")
			return
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			a.Logger.ErrorContext(ctx, "reconcile queue read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// A popped orphan is only in memory; finish with it even during shutdown.
		workCtx := context.WithoutCancel(ctx)
		log := a.Logger.With("capsule_id", orphan.Capsule.ID, "tx_id", orphan.Capsule.PaymentTxID)
		if err := engine.Reconcile(workCtx, orphan); err != nil {
			orphan.Attempts++
			orphan.LastError = err.Error()
			if errors.Is(err, capsuledomain.ErrValidation) || orphan.Attempts >= maxReconcileAttempts {
				log.ErrorContext(workCtx, "giving up on orphaned capsule", "attempts", orphan.Attempts, "error", err)
				if err := abandonOrphan(workCtx, a, pub, orphan, err); err != nil {
					log.ErrorContext(workCtx, "abandon event not published", "error", err)
				}
				continue
			}
			log.WarnContext(workCtx, "reconcile failed, requeueing", "attempts", orphan.Attempts, "error", err)
			time.Sleep(time.Duration(orphan.Attempts) * time.Second)
			if err := queue.Push(workCtx, orphan); err != nil {
				log.ErrorContext(workCtx, "requeue failed", "error", err)
			}
			continue
		}
		log.InfoContext(workCtx, "orphaned capsule reconciled")
	}
}
