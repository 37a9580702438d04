package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/careconnect/backend/internal/api/middleware"
	"github.com/careconnect/backend/internal/application/services"
	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// Callable function names.
const (
	FunctionGetMyAppointments = "get-my-appointments"
	FunctionRegisterUser      = "register-user"
	FunctionFindDoctors       = "find-doctors"
)

// AppointmentQuerier answers get-my-appointments
type AppointmentQuerier interface {
	GetMyAppointments(ctx context.Context, caller *entities.Caller, req services.GetMyAppointmentsRequest) (*services.GetMyAppointmentsResponse, error)
}

// Registrar answers register-user
type Registrar interface {
	RegisterUser(ctx context.Context, req services.RegisterUserRequest) (*services.RegisterUserResponse, error)
}

// DoctorFinder answers find-doctors
type DoctorFinder interface {
	FindDoctors(ctx context.Context, req services.FindDoctorsRequest) (*services.FindDoctorsResponse, error)
}

// FunctionHandler dispatches POST /api/functions/{name} to registered callables
type FunctionHandler struct {
	functions    map[string]Callable
	authRequired map[string]bool
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// NewFunctionHandler creates a function handler with no functions registered
func NewFunctionHandler(metrics *observability.Metrics, logger zerolog.Logger) *FunctionHandler {
	return &FunctionHandler{
		functions:    make(map[string]Callable),
		authRequired: make(map[string]bool),
		metrics:      metrics,
		logger:       logger,
	}
}

// NewBackendFunctions registers the backend callables. Nil services are skipped.
func NewBackendFunctions(appointments AppointmentQuerier, registrar Registrar, doctors DoctorFinder, metrics *observability.Metrics, logger zerolog.Logger) *FunctionHandler {
	h := NewFunctionHandler(metrics, logger)
	if appointments != nil {
		h.RegisterAuthenticated(FunctionGetMyAppointments, Bind(appointments.GetMyAppointments))
	}
	if registrar != nil {
		h.Register(FunctionRegisterUser, Bind(func(ctx context.Context, _ *entities.Caller, req services.RegisterUserRequest) (*services.RegisterUserResponse, error) {
			return registrar.RegisterUser(ctx, req)
		}))
	}
	if doctors != nil {
		h.Register(FunctionFindDoctors, Bind(func(ctx context.Context, _ *entities.Caller, req services.FindDoctorsRequest) (*services.FindDoctorsResponse, error) {
			return doctors.FindDoctors(ctx, req)
		}))
	}
	return h
}

// Register adds or replaces a callable open to anonymous callers
func (h *FunctionHandler) Register(name string, fn Callable) {
	h.functions[name] = fn
	delete(h.authRequired, name)
}

// RegisterAuthenticated adds or replaces a callable that rejects anonymous
// callers before the request body is read
func (h *FunctionHandler) RegisterAuthenticated(name string, fn Callable) {
	h.functions[name] = fn
	h.authRequired[name] = true
}

// Names lists the registered callables
func (h *FunctionHandler) Names() []string {
	names := make([]string, 0, len(h.functions))
	for name := range h.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke handles POST /api/functions/{name}
func (h *FunctionHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	fn, ok := h.functions[name]
	if !ok {
		writeCallableError(w, apperrors.NewNotFoundError("function "+name+" not found"))
		return
	}

	ctx, span := observability.StartSpan(r.Context(), "callable "+name)
	defer span.End()
	start := time.Now()

	caller := middleware.CallerFromContext(ctx)
	if caller == nil && h.authRequired[name] {
		h.finish(ctx, w, name, start, nil, apperrors.NewUnauthenticatedError("authentication is required"))
		return
	}

	var body callableRequest
	if err := decodeJSON(r, &body); err != nil {
		err = apperrors.NewValidationError("invalid request body", map[string]string{"data": "body must be a JSON object with a data field"})
		h.finish(ctx, w, name, start, nil, err)
		return
	}

	result, err := fn(ctx, caller, body.Data)

	observability.SetSpanAttributes(span, attribute.String("callable.name", name))
	if err != nil {
		observability.RecordError(span, err)
	}
	h.finish(ctx, w, name, start, result, err)
}

func (h *FunctionHandler) finish(ctx context.Context, w http.ResponseWriter, name string, start time.Time, result any, err error) {
	code := "ok"
	if err != nil {
		code = errorCode(err)
	}
	observability.RecordFunctionMetric(ctx, h.metrics, name, code, time.Since(start))

	if err != nil {
		if code == "internal" {
			logger := observability.WithTrace(ctx, h.logger)
			logger.Error().Err(err).Str("function", name).Msg("callable failed")
		}
		writeCallableError(w, err)
		return
	}
	writeCallableResult(w, result)
}
