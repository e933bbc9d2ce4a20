package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/handler"
	"github.com/RevinPahlevi/Uvent-Backend/internal/config"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Handler  *handler.Handler
	Verifier TokenVerifier
	Config   *config.Config
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(d Deps) *chi.Mux {
	cfg := d.Config
	h := d.Handler

	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	auth := Authenticator(d.Verifier)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/docs/doc.json", openAPIDocument)
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.RegisterUser)
			r.Post("/login", h.Login)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.With(auth).Post("/", h.CreateEvent)
			r.With(auth).Get("/my/{userId}", h.MyEvents)
			r.Get("/{id}", h.GetEvent)
		})

		// Enrollment is open to guests; the rest of the registration
		// surface is too, matching the enrollment model.
		r.Route("/registrations", func(r chi.Router) {
			r.With(OptionalAuthenticator(d.Verifier)).Post("/", h.CreateRegistration)
			r.Get("/check-nim", h.CheckNIM)
			r.Get("/user/{userId}", h.RegistrationsByUser)
			r.Get("/{nim}", h.RegistrationsByNIM)
			r.Delete("/{id}", h.CancelRegistration)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Get("/event/{eventId}", h.FeedbackByEvent)
			r.With(auth).Post("/", h.CreateFeedback)
			r.With(auth).Put("/{id}", h.UpdateFeedback)
			r.With(auth).Delete("/{id}", h.DeleteFeedback)
		})

		r.Route("/documentations", func(r chi.Router) {
			r.Get("/event/{eventId}", h.DocumentationByEvent)
			r.With(auth).Post("/", h.CreateDocumentation)
			r.With(auth).Delete("/{id}", h.DeleteDocumentation)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(auth)
			r.Post("/fcm-token", h.SaveFCMToken)
			r.Get("/user/{userId}", h.NotificationsByUser)
			r.Put("/user/{userId}/read-all", h.MarkAllNotificationsRead)
			r.Put("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth, RequireAdmin)
			r.Get("/events/pending", h.PendingEvents)
			r.Put("/events/{id}/approve", h.ApproveEvent)
			r.Put("/events/{id}/reject", h.RejectEvent)
		})
	})

	return r
}

func openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(openAPISpec)
}
