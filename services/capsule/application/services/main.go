package services

import (
	"github.com/ghuser/timecapsule/pkg/app"
	"github.com/ghuser/timecapsule/pkg/cache"
	"github.com/ghuser/timecapsule/services/capsule/domain/gateways"
	"github.com/ghuser/timecapsule/services/capsule/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Engine *Engine
}

// Gateways are the external side effects, built by the process that owns them.
type Gateways struct {
	Payments gateways.PaymentGateway
	Content  gateways.ContentStore
}

// New wires the capsule engine with infrastructure from the Application container.
func New(a *app.Application, gw Gateways, cfg EngineConfig) *Services {
	deps := EngineDeps{
		Repo:      postgres.NewCapsuleRepository(a.Db, a.EventBus),
		Payments:  gw.Payments,
		Content:   gw.Content,
		Incidents: a.Incidents,
		Metrics:   a.Metrics,
		Log:       a.Logger,
	}
	if a.Redis != nil {
		deps.Cache = cache.NewCapsuleCache(a.Redis)
		deps.Orphans = cache.NewReconcileQueue(a.Redis)
	}
	return &Services{
		Engine: NewEngine(deps, cfg),
	}
}
