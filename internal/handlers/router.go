package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio/internal/ratelimit"
)

// Routes constructs the chi router containing all API endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	allowed := s.origins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	// coarse per-IP backstop; the named buckets below enforce the real
	// per-route caps
	r.Use(httprate.LimitByIP(300, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(s.rateLimit(ratelimit.BucketAuth))
			pub.Post("/auth/login", s.handleLogin)
		})

		api.Group(func(pub chi.Router) {
			pub.Use(s.rateLimit(ratelimit.BucketDefault))

			pub.Post("/auth/logout", s.handleLogout)

			pub.Get("/blog", s.handleListPosts)
			pub.Get("/blog/search", s.handleSearchPosts)
			pub.Get("/blog/tag/{tag}", s.handlePostsByTag)
			pub.Get("/blog/id/{id}", s.handleGetPostByID)
			pub.Get("/blog/{slug}", s.handleGetPostBySlug)

			pub.Get("/projects", s.handleListProjects)
			pub.Get("/projects/featured", s.handleFeaturedProjects)
			pub.Get("/projects/{id}", s.handleGetProject)

			pub.Get("/experience", s.handleListExperience)
			pub.Get("/experience/{id}", s.handleGetExperience)

			pub.Group(func(priv chi.Router) {
				priv.Use(s.edgeAuth, s.sessionAuth)

				priv.Get("/auth/me", s.handleMe)

				priv.Group(func(admin chi.Router) {
					admin.Use(s.requireAdmin)

					admin.Post("/blog", s.handleCreatePost)
					admin.Put("/blog/id/{id}", s.handleUpdatePost)
					admin.Delete("/blog/id/{id}", s.handleDeletePost)

					admin.Post("/projects", s.handleCreateProject)
					admin.Post("/projects/reorder", s.handleReorderProjects)
					admin.Put("/projects/{id}", s.handleUpdateProject)
					admin.Delete("/projects/{id}", s.handleDeleteProject)

					admin.Post("/experience", s.handleCreateExperience)
					admin.Post("/experience/reorder", s.handleReorderExperience)
					admin.Put("/experience/{id}", s.handleUpdateExperience)
					admin.Delete("/experience/{id}", s.handleDeleteExperience)

					admin.Get("/users", s.handleListUsers)
					admin.Post("/users", s.handleCreateUser)
					admin.Get("/users/{id}", s.handleGetUser)
					admin.Put("/users/{id}", s.handleUpdateUser)
					admin.Delete("/users/{id}", s.handleDeleteUser)

					admin.Post("/media/upload", s.handleUpload)
				})
			})
		})
	})

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
