package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/timecapsule/pkg/cache"
	"github.com/ghuser/timecapsule/pkg/config"
	"github.com/ghuser/timecapsule/pkg/database"
	"github.com/ghuser/timecapsule/pkg/events"
	"github.com/ghuser/timecapsule/pkg/logger"
	"github.com/ghuser/timecapsule/pkg/telemetry"
	"github.com/ghuser/timecapsule/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to each service's route registration during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context methods
// and trace_id, span_id, request_id and user_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "bid recorded", "capsule_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	TemporalClient *workflows.TemporalClient
	SessionStore   sessions.Store // Redis-backed session store; nil in worker process
	Metrics        *telemetry.CapsuleMetrics
	Incidents      telemetry.SentryReporter
}
