package http

import (
	"net/http"

	"studio/internal/auth"
	"studio/internal/config"
	"studio/internal/http/handler"
	mw "studio/internal/http/middleware"
	"studio/internal/studio/session"
	"studio/internal/upload"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, uploads *upload.Store, sessions *session.Registry, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", ah.Register)
		r.Post("/login", ah.Login)
		r.Post("/logout", ah.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtSvc))
			r.Get("/me", ah.Me)
			r.Post("/onboarding", ah.Onboarding)
			r.Put("/preferences", ah.UpdatePreferences)
		})
	})

	ch := &handler.ChatHandler{DB: db, Sessions: sessions, Cfg: cfg, Logger: logger.Named("chat")}
	r.With(auth.OptionalAuth(jwtSvc)).Post("/api/chat", ch.Chat)

	sh := &handler.SupplyHandler{DB: db}
	r.Route("/api/supplies", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", sh.List)
		r.Post("/", sh.Create)
		r.Get("/low-stock", sh.LowStock)
		r.Get("/{id}", sh.Get)
		r.Put("/{id}", sh.Update)
		r.Delete("/{id}", sh.Delete)
	})

	ph := &handler.ProjectHandler{DB: db}
	r.Route("/api/projects", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", ph.List)
		r.Post("/", ph.Create)
		r.Get("/{id}", ph.Get)
		r.Put("/{id}", ph.Update)
		r.Delete("/{id}", ph.Delete)
		r.Post("/{id}/steps", ph.AddStep)
		r.Put("/{id}/steps", ph.UpdateStep)
		r.Post("/{id}/notes", ph.AddNotes)
	})

	pf := &handler.PortfolioHandler{DB: db, Uploads: uploads, Logger: logger.Named("uploads")}
	r.Route("/api/portfolio", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", pf.List)
		r.Post("/", pf.Create)
		r.Get("/{id}", pf.Get)
		r.Put("/{id}", pf.Update)
		r.Delete("/{id}", pf.Delete)
	})
	r.With(auth.OptionalAuth(jwtSvc)).Get("/uploads/*", pf.ServeUpload)

	cv := &handler.ConversationHandler{DB: db}
	r.Route("/api/conversations", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", cv.List)
		r.Post("/", cv.Create)
		r.Get("/{id}", cv.Get)
		r.Put("/{id}", cv.Update)
		r.Delete("/{id}", cv.Delete)
		r.Get("/{id}/messages", cv.Messages)
	})

	ih := &handler.IdeaHandler{DB: db}
	r.Route("/api/ideas", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", ih.List)
		r.Post("/", ih.Create)
		r.Get("/categories", ih.Categories)
		r.Get("/{id}", ih.Get)
		r.Put("/{id}", ih.Update)
		r.Delete("/{id}", ih.Delete)
		r.Post("/{id}/favorite", ih.ToggleFavorite)
		r.Post("/{id}/archive", ih.ToggleArchive)
	})

	return r
}
