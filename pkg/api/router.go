// Package api exposes the audit manager over a JSON HTTP API built on chi.
// Write endpoints validate their bodies through the form descriptors of
// pkg/forms.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/rgaa-audit/audit-manager/pkg/cache"
	"github.com/rgaa-audit/audit-manager/pkg/forms"
	"github.com/rgaa-audit/audit-manager/pkg/store"
)

// RouterConfig configures Router.
type RouterConfig struct {
	// CORSOrigins lists the allowed origins. "*" allows any.
	CORSOrigins []string
	Logger      *zap.Logger
	// Cache serves the reference endpoints. Nil disables caching.
	Cache *cache.Manager
}

// Router creates the chi.Router serving the whole API.
func Router(st *store.Store, reg *forms.Registry, cfg RouterConfig) chi.Router {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(cfg.Cache.FormsMiddleware()).Get("/forms", ListFormsHandler(reg))
		r.With(cfg.Cache.FormsMiddleware()).Get("/forms/{name}", GetFormHandler(reg))
		r.With(cfg.Cache.CriteriaMiddleware()).Get("/visual-error-criteria", ListVisualErrorCriteriaHandler(st))

		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware(st.Users))

			r.Get("/projects", ListProjectsHandler(st))
			r.Post("/projects", CreateProjectHandler(st, reg))
			r.Get("/projects/{projectId}", GetProjectHandler(st))
			r.Put("/projects/{projectId}", UpdateProjectHandler(st, reg))
			r.Delete("/projects/{projectId}", DeleteProjectHandler(st))
			r.Get("/projects/{projectId}/campaigns", ListCampaignsHandler(st))
			r.Post("/projects/{projectId}/campaigns", CreateCampaignHandler(st, reg))

			r.Get("/campaigns/{campaignId}", GetCampaignHandler(st))
			r.Post("/campaigns/{campaignId}/refresh", RefreshCampaignHandler(st))
			r.Get("/campaigns/{campaignId}/action-plans", ListActionPlansHandler(st))
			r.Post("/campaigns/{campaignId}/action-plans", CreateActionPlanHandler(st, reg))

			r.Post("/visual-error-criteria/{errorType}/detections", RecordDetectionHandler(st, cfg.Cache))
		})
	})

	return r
}
