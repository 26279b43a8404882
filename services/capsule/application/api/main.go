package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/timecapsule/pkg/app"
	"github.com/ghuser/timecapsule/pkg/config"
	"github.com/ghuser/timecapsule/services/capsule/application/handlers"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
)

// CapsuleRoutes registers capsule endpoints on the provided chi router.
func CapsuleRoutes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	Mount(r, svcs, a.Config.Environment == config.EnvProduction)
}

// Mount registers the capsule routes for svcs. Callers apply authentication.
func Mount(r chi.Router, svcs *appsvcs.Services, production bool) {
	r.Route("/capsules", func(r chi.Router) {
		r.Post("/", handlers.NewPostCapsuleHandler(svcs, production).Execute)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.NewGetCapsuleHandler(svcs, production).Execute)
			r.Get("/bids", handlers.NewGetBidsHandler(svcs, production).Execute)
			r.Post("/bids", handlers.NewPostBidHandler(svcs, production).Execute)
			r.Post("/bids/{bidID}/resolve", handlers.NewPostResolveHandler(svcs, production).Execute)
		})
	})
}
