package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/campaign"
	"github.com/frahmantamala/campaign-management/internal/invoice"
	"github.com/frahmantamala/campaign-management/internal/transport/middleware"
	"github.com/frahmantamala/campaign-management/internal/transport/swagger"
	"github.com/frahmantamala/campaign-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Campaign *campaign.Handler
	Invoice  *invoice.Handler
}

type RouterOptions struct {
	AllowedOrigins string
	// OpenAPIPath is served on /openapi.yml when non-empty.
	OpenAPIPath string
	// HealthChecks are reported by /health next to the database.
	HealthChecks map[string]ComponentCheck
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, opts RouterOptions, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, opts.HealthChecks)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if opts.OpenAPIPath != "" {
		router.Get(swagger.SpecRoute, swagger.SpecHandler(opts.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Campaign != nil {
				pr.Route("/campaigns", func(cr chi.Router) {
					cr.Post("/upload", h.Campaign.UploadCampaigns)
					cr.Get("/", h.Campaign.ListCampaigns)
					cr.Get("/mine", h.Campaign.ListMyCampaigns)
					cr.Get("/{id}", h.Campaign.GetCampaign)
					cr.Patch("/{id}", h.Campaign.EditCampaign)
					cr.Delete("/{id}/rows", h.Campaign.DeleteCampaignRow)

					cr.Group(func(ar chi.Router) {
						ar.Use(middleware.RequireAdmin)
						ar.Post("/{id}/status", h.Campaign.SetCampaignStatus)
						ar.Get("/{id}/export", h.Campaign.ExportCampaign)
					})
				})
			}

			if h.Invoice != nil {
				pr.Get("/invoices", h.Invoice.ListInvoices)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND","code":"ROUTE_NOT_FOUND","message":"Route not found"}}`))
	})
}
