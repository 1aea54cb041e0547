package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/sqlrealm/pkg/api/auth"
	"github.com/marmos91/sqlrealm/pkg/api/handlers"
	"github.com/marmos91/sqlrealm/pkg/api/middleware"
	"github.com/marmos91/sqlrealm/pkg/datasource"
	"github.com/marmos91/sqlrealm/pkg/realm"
)

// Dependencies are the components the router serves.
type Dependencies struct {
	Realm       *realm.Realm
	DataSources datasource.Set

	// Gatherer enables GET /metrics when non-nil.
	Gatherer prometheus.Gatherer

	// Tokens enables bearer authentication on /api/v1 when non-nil.
	Tokens *auth.TokenService
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET  /health
//   - GET  /health/ready
//   - GET  /health/datasources
//   - GET  /metrics
//   - GET  /api/v1/credentials/support?type=
//   - GET  /api/v1/identities/{name}/credentials/support?type=
//   - GET  /api/v1/identities/{name}/attributes
//   - POST /api/v1/identities/{name}/verify
func NewRouter(deps Dependencies, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	healthHandler := handlers.NewHealthHandler(deps.Realm, deps.DataSources)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
		r.Get("/datasources", healthHandler.DataSources)
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if deps.Realm != nil {
		realmHandler := handlers.NewRealmHandler(deps.Realm)
		r.Route("/api/v1", func(r chi.Router) {
			if deps.Tokens != nil {
				r.Use(middleware.BearerAuth(deps.Tokens))
			}
			r.Get("/credentials/support", realmHandler.RealmSupport)
			r.Route("/identities/{name}", func(r chi.Router) {
				r.Get("/credentials/support", realmHandler.IdentitySupport)
				r.Get("/attributes", realmHandler.Attributes)
				r.Post("/verify", realmHandler.Verify)
			})
		})
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}
