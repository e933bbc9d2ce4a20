// Package handler provides HTTP handlers for all API endpoints. Handlers
// depend on narrow store interfaces so tests can run against fakes.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	"github.com/RevinPahlevi/Uvent-Backend/internal/cache"
	docs "github.com/RevinPahlevi/Uvent-Backend/internal/documentation"
	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
	"github.com/RevinPahlevi/Uvent-Backend/internal/feedback"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
	"github.com/RevinPahlevi/Uvent-Backend/internal/registration"
	"github.com/RevinPahlevi/Uvent-Backend/internal/user"
)

// EventStore is the event surface the handlers need.
type EventStore interface {
	Create(ctx context.Context, e event.NewEvent) (int, error)
	Approved(ctx context.Context) ([]event.Event, error)
	ByCreator(ctx context.Context, userID int) ([]event.Event, error)
	Pending(ctx context.Context) ([]event.Event, error)
	ByID(ctx context.Context, id int) (*event.Event, error)
	SetStatus(ctx context.Context, id int, status string) error
}

type RegistrationStore interface {
	Create(ctx context.Context, r registration.NewRegistration) (int, error)
	ByNIM(ctx context.Context, nim string) ([]registration.Registration, error)
	ByUser(ctx context.Context, userID int) ([]registration.Registration, error)
	Cancel(ctx context.Context, id int) error
	NIMAvailableForEdit(ctx context.Context, eventID int, nim string, registrationID int) (bool, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, eventID, userID, rating int, review, photoURI *string) (int, error)
	ByEvent(ctx context.Context, eventID int) ([]feedback.Feedback, error)
	Update(ctx context.Context, id, userID int, rating *int, review, photoURI *string) error
	Delete(ctx context.Context, id, userID int) error
}

type DocumentationStore interface {
	Create(ctx context.Context, eventID, userID int, description, photoURI *string) (int, error)
	ByEvent(ctx context.Context, eventID int) ([]docs.Documentation, error)
	Delete(ctx context.Context, id, userID int) error
}

type NotificationStore interface {
	ByUser(ctx context.Context, userID, limit, offset int) ([]notifications.Notification, int, error)
	MarkRead(ctx context.Context, id int) (bool, error)
	MarkAllRead(ctx context.Context, userID int) (int64, error)
	Delete(ctx context.Context, id int) (bool, error)
	SaveToken(ctx context.Context, userID int, token string, deviceID, deviceType, appVersion *string) error
}

type UserService interface {
	Register(ctx context.Context, name, email, password, phone string, isAdmin bool) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, string, error)
}

// Notifier delivers one-off notifications triggered by API actions, such as
// the approval decision sent back to an event's creator.
type Notifier interface {
	SendOne(ctx context.Context, rec notifications.Record) notifications.Outcome
}

// Pinger reports database connectivity for the health endpoint.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	events        EventStore
	registrations RegistrationStore
	feedbacks     FeedbackStore
	docs          DocumentationStore
	ledger        NotificationStore
	users         UserService
	notifier      Notifier
	db            Pinger
	cache         *cache.Cache
	validate      *validator.Validate
}

// Deps bundles the handler dependencies.
type Deps struct {
	Events        EventStore
	Registrations RegistrationStore
	Feedbacks     FeedbackStore
	Docs          DocumentationStore
	Ledger        NotificationStore
	Users         UserService
	Notifier      Notifier
	DB            Pinger
	Cache         *cache.Cache
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	return &Handler{
		events:        d.Events,
		registrations: d.Registrations,
		feedbacks:     d.Feedbacks,
		docs:          d.Docs,
		ledger:        d.Ledger,
		users:         d.Users,
		notifier:      d.Notifier,
		db:            d.DB,
		cache:         d.Cache,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.Success(w, http.StatusOK, "Uvent API", map[string]interface{}{
		"name":    "Uvent Backend",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.Success(w, http.StatusOK, "", map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.FailData(w, http.StatusServiceUnavailable, "Database connection check failed", map[string]interface{}{
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.Success(w, http.StatusOK, "", map[string]interface{}{
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.Success(w, http.StatusOK, "", map[string]interface{}{
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// urlID extracts a positive integer path parameter.
func urlID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fieldErrors flattens validator errors into a field->tag map; handlers
// return it as fail data so clients can highlight inputs.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
