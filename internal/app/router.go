package app

import (
	"net/http"

	"cellendar/internal/handlers"
	"cellendar/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func (a *App) newRouter(svc services, verifier middleware.TokenVerifier) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.auth)
	cultureHandler := handlers.NewCultureHandler(svc.cultures, svc.tasks.Now)
	taskHandler := handlers.NewTaskHandler(svc.tasks)
	notificationHandler := handlers.NewNotificationHandler(svc.notification)
	dataHandler := handlers.NewDataHandler(svc.data)
	healthHandler := handlers.NewHealthHandler(a.health)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	r.Get("/health", healthHandler.HealthCheck)
	r.Handle("/metrics", a.metrics.Handler())

	requireUser := middleware.Auth(verifier)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register) // POST /api/auth/register
			r.Post("/login", authHandler.Login)       // POST /api/auth/login
			r.Post("/refresh", authHandler.Refresh)   // POST /api/auth/refresh
			r.Post("/logout", authHandler.Logout)     // POST /api/auth/logout
			r.With(requireUser).Get("/profile", authHandler.Profile)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/cultures", func(r chi.Router) {
				r.Get("/", cultureHandler.List)
				r.Post("/", cultureHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cultureHandler.Get)
					r.Put("/", cultureHandler.Update)
					r.Delete("/", cultureHandler.Delete)

					r.Post("/passage", cultureHandler.Passage) // POST /api/cultures/{id}/passage
					r.Get("/tasks", cultureHandler.Tasks)      // GET /api/cultures/{id}/tasks
				})
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)

				r.Get("/today/list", taskHandler.Today)     // GET /api/tasks/today/list
				r.Get("/overdue/list", taskHandler.Overdue) // GET /api/tasks/overdue/list

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)

					r.Post("/complete", taskHandler.Complete) // POST /api/tasks/{id}/complete
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/settings", notificationHandler.GetSettings)
				r.Put("/settings", notificationHandler.UpdateSettings)
				r.Get("/scheduled", notificationHandler.Scheduled)
				r.Post("/reschedule", notificationHandler.Reschedule)
				r.Post("/daily-summary", notificationHandler.DailySummary)
			})

			r.Get("/dashboard", taskHandler.Dashboard)

			r.Route("/data", func(r chi.Router) {
				r.Get("/export", dataHandler.Export)
				r.Post("/import", dataHandler.Import)
				r.Delete("/", dataHandler.Clear)

				r.Post("/backups", dataHandler.Backup)
				r.Get("/backups", dataHandler.ListBackups)
				r.Post("/backups/restore", dataHandler.Restore)
			})
		})
	})

	return otelhttp.NewHandler(r, "cellendar")
}
