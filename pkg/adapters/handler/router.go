package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linkshala/linkshala-api/pkg/config"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/linkshala/linkshala-api/pkg/validation"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Services bundles what the router dispatches to.
type Services struct {
	Links      ports.LinkService
	Categories ports.CategoryService
	Bulk       ports.BulkService
	Stats      ports.StatsService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	v := validation.New()

	lh := NewLinkHandler(svc.Links, svc.Categories)
	ch := NewCategoryHandler(svc.Categories, v)
	ah := NewAdminHandler(svc.Links, svc.Bulk, svc.Stats, v)
	authHandler := NewAuthHandler(cfg, v)

	mw := NewMiddleware(cfg)
	loginLimiter := NewKeyedRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRatePerMinute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("req_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.NotFound("route not found"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public Routes
		r.Get("/links", lh.List)
		r.Get("/links/stats/categories", ah.CategoryStats)
		r.Get("/links/{id}", lh.Visit)
		r.Post("/links/{id}/share", lh.Share)
		r.Get("/categories", ch.ListPublic)

		r.Route("/admin", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login", authHandler.Login)

			// Protected Routes
			r.Group(func(r chi.Router) {
				r.Use(mw.AuthMiddleware)

				r.Get("/verify", authHandler.Verify)

				r.Get("/links", lh.AdminList)
				r.Post("/links", lh.Create)
				r.Post("/links/delete-bulk", ah.BulkDelete)
				r.Post("/links/create-bulk", ah.BulkCreate)
				r.Post("/links/move-category", ah.MoveCategory)
				r.Post("/links/remove-duplicates", ah.RemoveDuplicates)
				r.Get("/links/{id}", lh.Get)
				r.Put("/links/{id}", lh.Update)
				r.Delete("/links/{id}", lh.Delete)

				r.Get("/categories", ch.List)
				r.Post("/categories", ch.Create)
				r.Put("/categories/{id}", ch.Update)
				r.Delete("/categories/{id}", ch.Delete)

				r.Get("/stats", ah.Stats)
			})
		})
	})

	return r
}
