package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// GetMyAppointmentsRequest is the input of get-my-appointments
type GetMyAppointmentsRequest struct {
	StatusFilter string `json:"statusFilter,omitempty"`
	DateFilter   string `json:"dateFilter,omitempty"`
}

// GetMyAppointmentsResponse is the output of get-my-appointments
type GetMyAppointmentsResponse struct {
	Appointments []*entities.Appointment `json:"appointments"`
}

// AppointmentQueryService answers the authenticated caller's appointment list
type AppointmentQueryService struct {
	appointments repositories.AppointmentStore
	users        repositories.UserStore
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAppointmentQueryService creates a new appointment query service
func NewAppointmentQueryService(
	appointments repositories.AppointmentStore,
	users repositories.UserStore,
	logger zerolog.Logger,
) *AppointmentQueryService {
	return &AppointmentQueryService{
		appointments: appointments,
		users:        users,
		logger:       logger.With().Str("function", "get-my-appointments").Logger(),
		now:          time.Now,
	}
}

// GetMyAppointments lists the caller's appointments as patient or doctor
func (s *AppointmentQueryService) GetMyAppointments(ctx context.Context, caller *entities.Caller, req GetMyAppointmentsRequest) (*GetMyAppointmentsResponse, error) {
	start := time.Now()

	if caller == nil || caller.UserID == "" {
		s.logger.Warn().Msg("rejected unauthenticated call")
		return nil, apperrors.NewUnauthenticatedError("authentication is required")
	}

	logger := s.logger.With().
		Str("caller_id", caller.UserID).
		Str("status_filter", req.StatusFilter).
		Str("date_filter", req.DateFilter).
		Logger()

	query, err := parseAppointmentFilters(req)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected invalid input")
		return nil, err
	}

	userType, err := s.users.GetUserType(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			logger.Warn().Msg("caller has no user record")
			return nil, apperrors.NewNotFoundError("user type could not be resolved")
		}
		logger.Error().Err(err).Msg("user type lookup failed")
		return nil, apperrors.NewInternalError("failed to fetch appointments", err)
	}

	switch userType {
	case entities.UserTypePatient:
		query.Role = repositories.AppointmentRolePatient
	case entities.UserTypeDoctor:
		query.Role = repositories.AppointmentRoleDoctor
	default:
		logger.Warn().Str("user_type", string(userType)).Msg("caller has no appointment role")
		return nil, apperrors.NewNotFoundError("user type could not be resolved")
	}
	query.UserID = caller.UserID
	query.Now = s.now()

	appointments, err := s.appointments.ListForUser(ctx, query)
	if err != nil {
		logger.Error().Err(err).Msg("appointment query failed")
		return nil, apperrors.NewInternalError("failed to fetch appointments", err)
	}

	logger.Info().
		Str("user_type", string(userType)).
		Int("count", len(appointments)).
		Dur("duration", time.Since(start)).
		Msg("fetched appointments")

	return &GetMyAppointmentsResponse{Appointments: appointments}, nil
}

func parseAppointmentFilters(req GetMyAppointmentsRequest) (repositories.AppointmentListQuery, error) {
	var query repositories.AppointmentListQuery
	fields := make(map[string]string)

	if req.StatusFilter != "" {
		status := entities.AppointmentStatus(req.StatusFilter)
		if status.IsValid() {
			query.Status = status
		} else {
			fields["statusFilter"] = "must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED_BY_PATIENT, CANCELLED_BY_DOCTOR, NO_SHOW, SCHEDULED"
		}
	}

	switch repositories.DateWindow(req.DateFilter) {
	case repositories.DateWindowAny, repositories.DateWindowUpcoming, repositories.DateWindowPast:
		query.Window = repositories.DateWindow(req.DateFilter)
	default:
		fields["dateFilter"] = "must be 'upcoming' or 'past'"
	}

	if len(fields) > 0 {
		return query, apperrors.NewValidationError("invalid appointment filters", fields)
	}
	return query, nil
}
