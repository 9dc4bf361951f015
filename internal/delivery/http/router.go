package http

import (
	"log/slog"
	"net/http"

	"academicevents/config"
	"academicevents/internal/delivery/http/controllers"
	"academicevents/internal/delivery/http/middleware"
	"academicevents/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth         *controllers.AuthController
	Event        *controllers.EventController
	Registration *controllers.RegistrationController
	Profile      *controllers.ProfileController
	Notification *controllers.NotificationController
	Certificate  *controllers.CertificateController
	Dashboard    *controllers.DashboardController
	Health       *controllers.HealthController
}

// RouterConfig carries the cross-cutting dependencies of the route table.
type RouterConfig struct {
	Verifier  domain.TokenVerifier
	Limiter   middleware.Limiter
	RateLimit config.RateLimitConfig
	Logger    *slog.Logger
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	optional := middleware.OptionalAuth(cfg.Verifier)
	manager := func(next http.HandlerFunc) http.HandlerFunc {
		return authed(middleware.RequireRole(domain.RoleOrganizer, domain.RoleAdmin)(next))
	}
	limited := func(route string, next http.HandlerFunc) http.HandlerFunc {
		return middleware.RateLimit(cfg.Limiter, cfg.RateLimit, route, cfg.Logger)(next)
	}

	// Auth
	mux.HandleFunc("POST /auth/signup", limited("signup", c.Auth.SignUp))
	mux.HandleFunc("POST /auth/login", limited("login", c.Auth.Login))
	mux.HandleFunc("PUT /admin/users/{userID}/roles", authed(middleware.RequireRole(domain.RoleAdmin)(c.Auth.AssignRole)))

	// Catalogue
	mux.HandleFunc("GET /categories", c.Event.ListCategories)
	mux.HandleFunc("GET /events", c.Event.ListEvents)
	mux.HandleFunc("GET /events/featured", c.Event.ListFeatured)
	mux.HandleFunc("GET /events/{id}", optional(c.Event.GetEvent))

	// Event management
	mux.HandleFunc("POST /events", manager(c.Event.CreateEvent))
	mux.HandleFunc("PUT /events/{id}", manager(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{id}", manager(c.Event.DeleteEvent))
	mux.HandleFunc("POST /events/{id}/sessions", manager(c.Event.AddSession))

	// Registrations
	mux.HandleFunc("POST /events/{id}/registrations", authed(limited("register", c.Registration.Register)))
	mux.HandleFunc("GET /events/{id}/registrations", manager(c.Registration.ListEventRegistrations))
	mux.HandleFunc("GET /users/{userID}/registrations", authed(c.Registration.ListUserRegistrations))
	mux.HandleFunc("GET /registrations/{id}", authed(c.Registration.GetRegistration))
	mux.HandleFunc("DELETE /registrations/{id}", authed(c.Registration.Cancel))
	mux.HandleFunc("POST /registrations/{id}/check-in", manager(c.Registration.CheckIn))
	mux.HandleFunc("POST /registrations/{id}/check-out", manager(c.Registration.CheckOut))
	mux.HandleFunc("POST /registrations/bulk-check-in", manager(c.Registration.BulkCheckIn))

	// Certificates
	mux.HandleFunc("GET /certificates", authed(c.Certificate.ListMine))
	mux.HandleFunc("GET /certificates/verify/{code}", c.Certificate.Verify)

	// Notifications
	mux.HandleFunc("GET /notifications", authed(c.Notification.List))
	mux.HandleFunc("POST /notifications/{id}/read", authed(c.Notification.MarkAsRead))

	// Profile
	mux.HandleFunc("GET /profile", authed(c.Profile.GetProfile))
	mux.HandleFunc("PUT /profile", authed(c.Profile.UpdateProfile))
	mux.HandleFunc("PUT /profile/password", authed(c.Profile.ChangePassword))
	mux.HandleFunc("PUT /profile/email", authed(c.Profile.ChangeEmail))
	mux.HandleFunc("PUT /profile/notification-preferences", authed(c.Profile.UpdateNotificationPreferences))
	mux.HandleFunc("GET /profile/activity", authed(c.Profile.ListActivity))

	// Organizer dashboard
	mux.HandleFunc("GET /dashboard/stats", manager(c.Dashboard.Stats))
	mux.HandleFunc("GET /dashboard/upcoming-events", manager(c.Dashboard.UpcomingEvents))
	mux.HandleFunc("GET /dashboard/recent-activity", manager(c.Dashboard.RecentActivity))

	// Operational
	mux.HandleFunc("GET /health", c.Health.Health)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with the global middleware chain:
// request ID, access log, then CORS.
func NewHandler(mux http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.RequestID(middleware.LoggingMiddleware(logger, middleware.CORS(allowedOrigins, mux)))
}
