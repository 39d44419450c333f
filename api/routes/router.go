package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/controllers"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/middleware"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/audit"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/catalog"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/orders"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/readers"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/registry"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/internal/tracking"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/db"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	trackingSvc *tracking.Service,
	readersSvc *readers.Service,
	catalogSvc *catalog.Service,
	ordersSvc *orders.Service,
	registrySvc *registry.Service,
	auditRec audit.Recorder,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	scanPolicy := middleware.NewReaderRateLimitPolicy(
		cfg.ReaderLimit.Window,
		cfg.ReaderLimit.IPLimit,
		cfg.ReaderLimit.ReaderLimit,
	)
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/ardloc", func(r chi.Router) {
		r.Get("/last-uid", controllers.LastUID(readersSvc, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.ReaderAuth(readersSvc, logg))
			if redisClient != nil {
				r.Use(middleware.ReaderRateLimit(scanPolicy, redisClient, logg))
			}
			r.Post("/event", controllers.ScanEvent(trackingSvc, readersSvc, logg))
			r.Post("/push-uid", controllers.PushUID(readersSvc, logg))
		})
	})

	r.Route("/api/rfid", func(r chi.Router) {
		r.Post("/bind", controllers.BindTag(trackingSvc, logg))
		r.Post("/unbind", controllers.UnbindTag(trackingSvc, logg))
		r.Get("/bindings", controllers.ListBindings(trackingSvc, logg))
		r.Get("/bindings/current", controllers.CurrentBind(trackingSvc, logg))

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", controllers.ListTags(registrySvc, logg))
			r.Post("/", controllers.RegisterTag(registrySvc, logg))
			r.Post("/reserve-code", controllers.ReserveTagCode(registrySvc, logg))
			r.Get("/{uid}", controllers.GetTag(registrySvc, logg))
			r.Delete("/{uid}", controllers.DeleteTag(registrySvc, logg))
		})

		r.Route("/readers", func(r chi.Router) {
			r.Get("/", controllers.ListReaders(readersSvc, logg))
			r.Post("/", controllers.UpsertReader(readersSvc, logg))
			r.Post("/{code}/reset-key", controllers.ResetReaderKey(readersSvc, logg))
			r.Delete("/{code}", controllers.DeactivateReader(readersSvc, logg))
		})
	})

	r.Route("/api/locations", func(r chi.Router) {
		r.Get("/", controllers.ListLocations(catalogSvc, logg))
		r.Post("/", controllers.CreateLocation(catalogSvc, logg))
		r.Get("/{id}", controllers.GetLocation(catalogSvc, logg))
		r.Put("/{id}", controllers.UpdateLocation(catalogSvc, logg))
		r.Delete("/{id}", controllers.DeactivateLocation(catalogSvc, logg))
		r.Post("/{id}/reactivate", controllers.ReactivateLocation(catalogSvc, logg))
	})

	r.Get("/api/statuses", controllers.ListStatuses(catalogSvc, logg))

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", controllers.ListOrders(ordersSvc, logg))
		r.Post("/", controllers.CreateOrder(ordersSvc, logg))
		r.Get("/{id}", controllers.GetOrder(ordersSvc, logg))
		r.Put("/{id}", controllers.UpdateOrder(ordersSvc, logg))
		r.Delete("/{id}", controllers.DeleteOrder(ordersSvc, logg))
		r.Post("/{id}/reactivate", controllers.ReactivateOrder(ordersSvc, logg))
	})

	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", controllers.ListCustomers(registrySvc, logg))
		r.Post("/", controllers.CreateCustomer(registrySvc, logg))
		r.Get("/{id}", controllers.GetCustomer(registrySvc, logg))
		r.Put("/{id}", controllers.UpdateCustomer(registrySvc, logg))
		r.Delete("/{id}", controllers.DeactivateCustomer(registrySvc, logg))
		r.Post("/{id}/reactivate", controllers.ReactivateCustomer(registrySvc, logg))
	})

	r.Route("/api/equipment", func(r chi.Router) {
		r.Get("/", controllers.ListEquipment(registrySvc, logg))
		r.Post("/", controllers.CreateEquipment(registrySvc, logg))
		r.Get("/{id}", controllers.GetEquipment(registrySvc, logg))
		r.Put("/{id}", controllers.UpdateEquipment(registrySvc, logg))
		r.Delete("/{id}", controllers.DeactivateEquipment(registrySvc, logg))
		r.Post("/{id}/reactivate", controllers.ReactivateEquipment(registrySvc, logg))
	})

	r.Route("/api/technicians", func(r chi.Router) {
		r.Get("/", controllers.ListTechnicians(registrySvc, logg))
		r.Post("/", controllers.CreateTechnician(registrySvc, logg))
		r.Put("/{id}", controllers.UpdateTechnician(registrySvc, logg))
		r.Delete("/{id}", controllers.DeactivateTechnician(registrySvc, logg))
		r.Post("/{id}/reactivate", controllers.ReactivateTechnician(registrySvc, logg))
	})

	r.Get("/api/audit/{entity}/{id}", controllers.AuditTrail(auditRec, logg))

	return r
}
