package http

import (
	"net/http"

	"podsum/internal/auth"
	"podsum/internal/config"
	"podsum/internal/http/handler"
	mw "podsum/internal/http/middleware"
	"podsum/internal/pipeline"
	"podsum/internal/podcast"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, store podcast.Store, engine *pipeline.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"podsum"}`))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/api/auth/login", ah.Login)

	ph := &handler.PodcastHandler{Store: store, Engine: engine}

	r.Route("/api/podcasts", func(r chi.Router) {
		r.Use(auth.WithIdentity(jwtSvc))

		r.Get("/", ph.List)
		r.Post("/", ph.Submit)

		r.Get("/{id}", ph.Get)
		r.Get("/{id}/status", ph.Status)
		r.Post("/{id}/reprocess", ph.Reprocess)
		r.Delete("/{id}", ph.Delete)
	})

	return r
}
