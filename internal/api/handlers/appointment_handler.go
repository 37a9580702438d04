package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/careconnect/backend/internal/adapters/local"
	"github.com/careconnect/backend/internal/domain/entities"
)

// AppointmentService defines the local appointment operations served over HTTP
type AppointmentService interface {
	GetAppointments(ctx context.Context, userID string, userType entities.UserType, filter local.AppointmentFilter) []*entities.Appointment
	GetAppointmentByID(ctx context.Context, id string) *entities.Appointment
	CreateAppointment(ctx context.Context, appointment *entities.Appointment) *entities.Appointment
	UpdateAppointment(ctx context.Context, id string, patch entities.AppointmentPatch) *entities.Appointment
	CancelAppointment(ctx context.Context, id string, cancelledBy entities.UserType, reason string) bool
	CompleteAppointment(ctx context.Context, id string, notes string) bool
	DeleteAll(ctx context.Context) bool
}

// AppointmentHandler serves the local appointment repository
type AppointmentHandler struct {
	service AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

type cancelRequest struct {
	CancelledBy string `json:"cancelledBy"`
	Reason      string `json:"reason,omitempty"`
}

type completeRequest struct {
	Notes string `json:"notes,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// ListAppointments handles GET /api/local/appointments?userId=&userType=&status=&from=&to=
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userID := query.Get("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}
	userType, ok := entities.ParseUserType(query.Get("userType"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "userType must be PATIENT, DOCTOR or ADMIN")
		return
	}

	var filter local.AppointmentFilter
	if raw := query.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := entities.ParseAppointmentStatus(part)
			if !ok {
				respondWithError(w, http.StatusBadRequest, "invalid status "+part)
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	var err error
	if filter.From, err = parseDateParam(query.Get("from"), false); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid from date format (use RFC3339 or YYYY-MM-DD)")
		return
	}
	if filter.To, err = parseDateParam(query.Get("to"), true); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid to date format (use RFC3339 or YYYY-MM-DD)")
		return
	}

	appointments := h.service.GetAppointments(r.Context(), userID, userType, filter)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// GetAppointment handles GET /api/local/appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment := h.service.GetAppointmentByID(r.Context(), r.PathValue("id"))
	if appointment == nil {
		respondWithError(w, http.StatusNotFound, "appointment not found")
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// CreateAppointment handles POST /api/local/appointments
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var appointment entities.Appointment
	if err := decodeJSON(r, &appointment); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if appointment.PatientID == "" || appointment.DoctorID == "" || appointment.AppointmentDate.IsZero() {
		respondWithError(w, http.StatusBadRequest, "patientId, doctorId and appointmentDate are required")
		return
	}
	if appointment.Status != "" && !appointment.Status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "invalid status")
		return
	}

	created := h.service.CreateAppointment(r.Context(), &appointment)
	if created == nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save appointment")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateAppointment handles PATCH /api/local/appointments/{id}
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var patch entities.AppointmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "invalid status")
		return
	}

	updated := h.service.UpdateAppointment(r.Context(), r.PathValue("id"), patch)
	if updated == nil {
		respondWithError(w, http.StatusNotFound, "appointment not found")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// CancelAppointment handles POST /api/local/appointments/{id}/cancel
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	cancelledBy, ok := entities.ParseUserType(req.CancelledBy)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "cancelledBy must be PATIENT, DOCTOR or ADMIN")
		return
	}

	if !h.service.CancelAppointment(r.Context(), r.PathValue("id"), cancelledBy, req.Reason) {
		respondWithError(w, http.StatusNotFound, "appointment not found")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// CompleteAppointment handles POST /api/local/appointments/{id}/complete
func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if !h.service.CompleteAppointment(r.Context(), r.PathValue("id"), req.Notes) {
		respondWithError(w, http.StatusNotFound, "appointment not found")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteAllAppointments handles DELETE /api/local/appointments
func (h *AppointmentHandler) DeleteAllAppointments(w http.ResponseWriter, r *http.Request) {
	if !h.service.DeleteAll(r.Context()) {
		respondWithError(w, http.StatusInternalServerError, "failed to delete appointments")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// parseDateParam accepts RFC3339 or a bare date; empty yields nil. With
// endOfDay a bare date covers the whole day, so to=YYYY-MM-DD is inclusive.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
