package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carins/carins-backend/api/controllers"
	"github.com/carins/carins-backend/api/middleware"
	"github.com/carins/carins-backend/internal/cars"
	"github.com/carins/carins-backend/internal/claims"
	"github.com/carins/carins-backend/internal/owners"
	"github.com/carins/carins-backend/internal/policies"
	pkgAuth "github.com/carins/carins-backend/pkg/auth"
	"github.com/carins/carins-backend/pkg/config"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readyChecks map[string]db.Pinger,
	metricsHandler http.Handler,
	carService cars.Service,
	ownerService owners.Service,
	policyService policies.Service,
	claimService claims.Service,
	checker controllers.ValidityChecker,
	detector controllers.ExpiryRunner,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if len(cfg.App.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyChecks))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/cars", func(r chi.Router) {
			r.Get("/", controllers.CarList(carService, logg))
			r.Post("/", controllers.CarCreate(carService, logg))
			r.Route("/{carId}", func(r chi.Router) {
				r.Get("/", controllers.CarGet(carService, logg))
				r.Put("/", controllers.CarUpdate(carService, logg))
				r.Get("/insurance-valid", controllers.CarInsuranceValid(checker, logg))
				r.Get("/insurances", controllers.CarInsurances(policyService, logg))
				r.Get("/history", controllers.CarHistory(claimService, logg))
				r.Post("/claims", controllers.ClaimCreate(claimService, logg))
			})
		})

		r.Get("/claims/{claimId}", controllers.ClaimGet(claimService, logg))

		r.Route("/owners", func(r chi.Router) {
			r.Post("/", controllers.OwnerCreate(ownerService, logg))
			r.Get("/{ownerId}", controllers.OwnerGet(ownerService, logg))
			r.Put("/{ownerId}", controllers.OwnerUpdate(ownerService, logg))
		})

		r.Route("/insurances", func(r chi.Router) {
			r.Get("/", controllers.InsuranceList(policyService, logg))
			r.Post("/", controllers.InsuranceCreate(policyService, logg))
			r.Get("/{policyId}", controllers.InsuranceGet(policyService, logg))
			r.Put("/{policyId}", controllers.InsuranceUpdate(policyService, logg))
		})
	})

	// the admin surface only exists when tokens can be verified
	if cfg.JWT.Enabled() {
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(pkgAuth.RoleAdmin, logg))
			r.Post("/v1/expiry/run", controllers.AdminExpiryRun(detector, logg))
		})
	}

	return r
}
