package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradecert/tradecert-backend/api/controllers"
	"github.com/tradecert/tradecert-backend/api/middleware"
	"github.com/tradecert/tradecert-backend/internal/calculations"
	"github.com/tradecert/tradecert-backend/internal/evidence"
	"github.com/tradecert/tradecert-backend/internal/invoices"
	"github.com/tradecert/tradecert-backend/internal/materials"
	"github.com/tradecert/tradecert-backend/internal/projects"
	"github.com/tradecert/tradecert-backend/internal/quotes"
	"github.com/tradecert/tradecert-backend/internal/wholesaler"
	"github.com/tradecert/tradecert-backend/pkg/config"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
	"github.com/tradecert/tradecert-backend/pkg/redis"
	"github.com/tradecert/tradecert-backend/pkg/storage/s3"
)

// Cache is the redis surface the router needs.
type Cache interface {
	redis.IdempotencyStore
	redis.Pinger
}

// Infra carries the shared clients behind health, metrics and idempotency.
type Infra struct {
	DB          db.Pinger
	Cache       Cache
	S3          s3.Pinger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

// Services carries the domain services exposed over HTTP.
type Services struct {
	Projects     projects.Service
	Calculations calculations.Service
	Materials    materials.Service
	Quotes       quotes.Service
	Wholesaler   wholesaler.Service
	Gate         wholesaler.Gate
	Invoices     invoices.Service
	Evidence     evidence.Service
	InvoicePDF   controllers.InvoiceRenderer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.HTTPMetrics),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	ready := map[string]controllers.Pinger{}
	if infra.DB != nil {
		ready["database"] = infra.DB
	}
	if infra.Cache != nil {
		ready["redis"] = infra.Cache
	}
	if infra.S3 != nil {
		ready["s3"] = infra.S3
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})

	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public/v1/wholesaler-quotes/{token}", func(r chi.Router) {
		r.Get("/", controllers.PublicWholesalerQuote(svc.Gate, logg))
		r.Post("/price", controllers.PublicPriceWholesalerQuote(svc.Gate, logg))
	})

	var idempotencyStore redis.IdempotencyStore
	if infra.Cache != nil {
		idempotencyStore = infra.Cache
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		// mounted per route: only POSTs that create documents or send email need a key
		documentOnce := middleware.Idempotency(idempotencyStore, logg, middleware.DocumentIdempotencyTTL)
		requestOnce := middleware.Idempotency(idempotencyStore, logg, middleware.RequestIdempotencyTTL)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ListProjects(svc.Projects, logg))
			r.Post("/", controllers.CreateProject(svc.Projects, logg))

			r.Route("/{projectId}", func(r chi.Router) {
				r.Get("/", controllers.GetProject(svc.Projects, logg))
				r.Patch("/", controllers.UpdateProject(svc.Projects, logg))
				r.Delete("/", controllers.DeleteProject(svc.Projects, logg))

				r.Get("/calculations", controllers.ListCalculations(svc.Calculations, logg))
				r.Post("/calculations", controllers.CreateCalculation(svc.Calculations, logg))
				r.Get("/calculations/{calculationId}", controllers.GetCalculation(svc.Calculations, logg))
				r.Delete("/calculations/{calculationId}", controllers.DeleteCalculation(svc.Calculations, logg))

				r.Get("/materials", controllers.ListMaterials(svc.Materials, logg))
				r.Post("/materials", controllers.CreateMaterial(svc.Materials, logg))
				r.Patch("/materials/{materialId}", controllers.UpdateMaterial(svc.Materials, logg))
				r.Delete("/materials/{materialId}", controllers.DeleteMaterial(svc.Materials, logg))

				r.Get("/quotes", controllers.ListProjectQuotes(svc.Quotes, logg))
				r.With(documentOnce).Post("/quotes", controllers.CreateQuote(svc.Quotes, logg))

				r.Get("/wholesaler-quotes", controllers.ListWholesalerQuotes(svc.Wholesaler, logg))
				r.With(requestOnce).Post("/wholesaler-quotes", controllers.CreateWholesalerQuote(svc.Wholesaler, logg))
				r.Post("/wholesaler-quotes/{wholesalerQuoteId}/apply", controllers.ApplyWholesalerPricing(svc.Wholesaler, logg))

				r.Post("/evidence-pack", controllers.GenerateEvidencePack(svc.Evidence, logg))
				r.Get("/evidence-pack", controllers.FetchEvidencePack(svc.Evidence, logg))
			})
		})

		r.Route("/quotes/{quoteId}", func(r chi.Router) {
			r.Get("/", controllers.GetQuote(svc.Quotes, logg))
			r.Patch("/", controllers.UpdateQuote(svc.Quotes, logg))
			r.Delete("/", controllers.DeleteQuote(svc.Quotes, logg))
			r.Post("/send", controllers.SendQuote(svc.Quotes, logg))
			r.Post("/labour", controllers.AddLabour(svc.Quotes, logg))
			r.Patch("/labour/{labourId}", controllers.UpdateLabour(svc.Quotes, logg))
			r.Delete("/labour/{labourId}", controllers.DeleteLabour(svc.Quotes, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.With(documentOnce).Post("/from-quote", controllers.CreateInvoiceFromQuote(svc.Invoices, logg))
			r.Get("/", controllers.ListInvoices(svc.Invoices, logg))
			r.Get("/{invoiceId}", controllers.GetInvoice(svc.Invoices, logg))
			r.Patch("/{invoiceId}", controllers.UpdateInvoice(svc.Invoices, logg))
			r.Delete("/{invoiceId}", controllers.DeleteInvoice(svc.Invoices, logg))
			r.Post("/{invoiceId}/status", controllers.ChangeInvoiceStatus(svc.Invoices, logg))
			r.Post("/{invoiceId}/payment", controllers.RecordInvoicePayment(svc.Invoices, logg))
			r.Get("/{invoiceId}/pdf", controllers.InvoicePDF(svc.Invoices, svc.InvoicePDF, logg))
		})
	})

	return r
}
