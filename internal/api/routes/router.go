package routes

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/api/handlers"
	"github.com/careconnect/backend/internal/api/middleware"
	"github.com/careconnect/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	functionHandler    *handlers.FunctionHandler
	appointmentHandler *handlers.AppointmentHandler
	profileHandler     *handlers.ProfileHandler
	sseHandler         *handlers.SSEHandler

	verifier       middleware.TokenVerifier
	allowedOrigins []string
	metrics        *observability.Metrics
	logger         zerolog.Logger
}

// NewRouter creates a new router. The local handlers and the stream handler
// are optional; a nil handler leaves its routes unregistered.
func NewRouter(
	functionHandler *handlers.FunctionHandler,
	appointmentHandler *handlers.AppointmentHandler,
	profileHandler *handlers.ProfileHandler,
	sseHandler *handlers.SSEHandler,
	verifier middleware.TokenVerifier,
	allowedOrigins []string,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		functionHandler:    functionHandler,
		appointmentHandler: appointmentHandler,
		profileHandler:     profileHandler,
		sseHandler:         sseHandler,
		verifier:           verifier,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
		logger:             logger,
	}
}

// handle registers h so the observability middleware can label it by pattern
func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, middleware.MarkRoute(h))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Backend callables
	r.handle("POST /api/functions/{name}", r.functionHandler.Invoke)

	// The local surface and the change stream carry PHI: every route needs a
	// caller, and destructive or administrative routes need an ADMIN caller.

	// Local appointment repository
	if h := r.appointmentHandler; h != nil {
		r.handle("GET /api/local/appointments", middleware.RequireCaller(h.ListAppointments))
		r.handle("POST /api/local/appointments", middleware.RequireCaller(h.CreateAppointment))
		r.handle("DELETE /api/local/appointments", middleware.RequireAdmin(h.DeleteAllAppointments))
		r.handle("GET /api/local/appointments/{id}", middleware.RequireCaller(h.GetAppointment))
		r.handle("PATCH /api/local/appointments/{id}", middleware.RequireCaller(h.UpdateAppointment))
		r.handle("POST /api/local/appointments/{id}/cancel", middleware.RequireCaller(h.CancelAppointment))
		r.handle("POST /api/local/appointments/{id}/complete", middleware.RequireCaller(h.CompleteAppointment))
	}

	// Local profiles, preferences, notifications and session
	if h := r.profileHandler; h != nil {
		r.handle("GET /api/local/users", middleware.RequireAdmin(h.ListUsers))
		r.handle("GET /api/local/users/{id}", middleware.RequireCaller(h.GetUser))
		r.handle("PUT /api/local/users/{id}", middleware.RequireCaller(h.SaveUser))
		r.handle("PATCH /api/local/users/{id}", middleware.RequireCaller(h.PatchUser))
		r.handle("POST /api/local/users/{id}/active", middleware.RequireAdmin(h.SetUserActive))

		r.handle("GET /api/local/doctors", middleware.RequireCaller(h.FindDoctors))
		r.handle("GET /api/local/doctors/{id}", middleware.RequireCaller(h.GetDoctor))
		r.handle("PUT /api/local/doctors/{id}", middleware.RequireCaller(h.SaveDoctor))
		r.handle("PATCH /api/local/doctors/{id}", middleware.RequireCaller(h.PatchDoctor))
		r.handle("POST /api/local/doctors/{id}/verification", middleware.RequireAdmin(h.SetDoctorVerification))

		r.handle("GET /api/local/patients/{id}", middleware.RequireCaller(h.GetPatient))
		r.handle("PUT /api/local/patients/{id}", middleware.RequireCaller(h.SavePatient))
		r.handle("PATCH /api/local/patients/{id}", middleware.RequireCaller(h.PatchPatient))

		r.handle("GET /api/local/session", middleware.RequireCaller(h.GetSession))
		r.handle("PUT /api/local/session", middleware.RequireCaller(h.SetSession))
		r.handle("DELETE /api/local/session", middleware.RequireCaller(h.ClearSession))

		r.handle("GET /api/local/preferences/{userId}", middleware.RequireCaller(h.GetPreferences))
		r.handle("PUT /api/local/preferences/{userId}", middleware.RequireCaller(h.SavePreferences))

		r.handle("GET /api/local/notifications", middleware.RequireCaller(h.ListNotifications))
		r.handle("POST /api/local/notifications", middleware.RequireCaller(h.CreateNotification))
		r.handle("POST /api/local/notifications/read-all", middleware.RequireCaller(h.MarkAllNotificationsRead))
		r.handle("POST /api/local/notifications/{id}/read", middleware.RequireCaller(h.MarkNotificationRead))
	}

	// Change stream for other views
	if r.sseHandler != nil {
		r.handle("GET /api/stream/changes", middleware.RequireCaller(r.sseHandler.StreamChanges))
		r.handle("GET /api/stream/stats", middleware.RequireCaller(r.sseHandler.Stats))
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so preflight requests never reach auth.
	var handler http.Handler = r.mux
	handler = middleware.AuthMiddleware(r.verifier, r.logger)(handler)
	handler = middleware.LoggingMiddleware(r.logger)(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
