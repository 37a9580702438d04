package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/careconnect/backend/internal/adapters/local"
	"github.com/careconnect/backend/internal/api/middleware"
	"github.com/careconnect/backend/internal/domain/entities"
)

// ProfileService defines the local profile operations served over HTTP
type ProfileService interface {
	GetUserProfile(ctx context.Context, id string) *entities.UserProfile
	SaveUserProfile(ctx context.Context, profile *entities.UserProfile) *entities.UserProfile
	UpdateUserProfile(ctx context.Context, id string, patch entities.UserProfilePatch) *entities.UserProfile
	ListUserProfiles(ctx context.Context, userType entities.UserType) []*entities.UserProfile
	SetUserActive(ctx context.Context, id string, active bool) bool
	GetDoctorProfile(ctx context.Context, userID string) *entities.DoctorProfile
	SaveDoctorProfile(ctx context.Context, profile *entities.DoctorProfile) *entities.DoctorProfile
	UpdateDoctorProfile(ctx context.Context, userID string, patch entities.DoctorProfilePatch) *entities.DoctorProfile
	SetDoctorVerification(ctx context.Context, userID string, status entities.VerificationStatus, notes string) bool
	FindDoctors(ctx context.Context, query local.DoctorQuery) []*entities.DoctorProfile
	GetPatientProfile(ctx context.Context, userID string) *entities.PatientProfile
	SavePatientProfile(ctx context.Context, profile *entities.PatientProfile) *entities.PatientProfile
	UpdatePatientProfile(ctx context.Context, userID string, patch entities.PatientProfilePatch) *entities.PatientProfile
	GetCurrentUser(ctx context.Context) *entities.UserProfile
	SetCurrentUser(ctx context.Context, user *entities.UserProfile) bool
	ClearCurrentUser(ctx context.Context) bool
}

// PreferencesService defines the local preference operations
type PreferencesService interface {
	GetPreferences(ctx context.Context, userID string) *entities.UserPreferences
	SavePreferences(ctx context.Context, prefs *entities.UserPreferences) bool
}

// NotificationService defines the local notification operations
type NotificationService interface {
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) []*entities.Notification
	UnreadCount(ctx context.Context, userID string) int
	CreateNotification(ctx context.Context, notification *entities.Notification) *entities.Notification
	MarkAsRead(ctx context.Context, id string) bool
	MarkAllAsRead(ctx context.Context, userID string) int
}

// ProfileHandler serves the local profile, preference and notification repositories
type ProfileHandler struct {
	profiles      ProfileService
	preferences   PreferencesService
	notifications NotificationService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService, preferences PreferencesService, notifications NotificationService) *ProfileHandler {
	return &ProfileHandler{
		profiles:      profiles,
		preferences:   preferences,
		notifications: notifications,
	}
}

// ListUsers handles GET /api/local/users?userType=
func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var userType entities.UserType
	if raw := r.URL.Query().Get("userType"); raw != "" {
		parsed, ok := entities.ParseUserType(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "userType must be PATIENT, DOCTOR or ADMIN")
			return
		}
		userType = parsed
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"users": h.profiles.ListUserProfiles(r.Context(), userType),
	})
}

// GetUser handles GET /api/local/users/{id}
func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	respondWithEntity(w, h.profiles.GetUserProfile(r.Context(), r.PathValue("id")), "user profile not found")
}

// SaveUser handles PUT /api/local/users/{id}. The stored userType of an
// existing profile is never changed, and only admins may create admins.
func (h *ProfileHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var profile entities.UserProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	profile.ID = r.PathValue("id")
	if profile.UserType != "" {
		userType, ok := entities.ParseUserType(string(profile.UserType))
		if !ok {
			respondWithError(w, http.StatusBadRequest, "userType must be PATIENT, DOCTOR or ADMIN")
			return
		}
		profile.UserType = userType
	}
	if profile.UserType == entities.UserTypeAdmin && !middleware.CallerFromContext(r.Context()).IsAdmin() {
		respondWithError(w, http.StatusForbidden, "only admins may create admin profiles")
		return
	}
	respondWithSaved(w, h.profiles.SaveUserProfile(r.Context(), &profile))
}

// PatchUser handles PATCH /api/local/users/{id}; absent fields are left alone
func (h *ProfileHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	var patch entities.UserProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	respondWithEntity(w, h.profiles.UpdateUserProfile(r.Context(), r.PathValue("id"), patch), "user profile not found")
}

// SetUserActive handles POST /api/local/users/{id}/active
func (h *ProfileHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !h.profiles.SetUserActive(r.Context(), r.PathValue("id"), req.Active) {
		respondWithError(w, http.StatusNotFound, "user profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// FindDoctors handles GET /api/local/doctors?specialty=&location=
func (h *ProfileHandler) FindDoctors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	doctors := h.profiles.FindDoctors(r.Context(), local.DoctorQuery{
		Specialty: query.Get("specialty"),
		Location:  query.Get("location"),
	})
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// GetDoctor handles GET /api/local/doctors/{id}
func (h *ProfileHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	respondWithEntity(w, h.profiles.GetDoctorProfile(r.Context(), r.PathValue("id")), "doctor profile not found")
}

// SaveDoctor handles PUT /api/local/doctors/{id}. Verification fields are
// only honoured for admins and only when the profile is created.
func (h *ProfileHandler) SaveDoctor(w http.ResponseWriter, r *http.Request) {
	var profile entities.DoctorProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	profile.UserID = r.PathValue("id")
	if !middleware.CallerFromContext(r.Context()).IsAdmin() {
		profile.VerificationStatus = ""
		profile.VerificationNotes = ""
	}
	if profile.VerificationStatus != "" {
		status, ok := entities.ParseVerificationStatus(string(profile.VerificationStatus))
		if !ok {
			respondWithError(w, http.StatusBadRequest, "verificationStatus must be PENDING, VERIFIED or REJECTED")
			return
		}
		profile.VerificationStatus = status
	}
	respondWithSaved(w, h.profiles.SaveDoctorProfile(r.Context(), &profile))
}

// PatchDoctor handles PATCH /api/local/doctors/{id}
func (h *ProfileHandler) PatchDoctor(w http.ResponseWriter, r *http.Request) {
	var patch entities.DoctorProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	respondWithEntity(w, h.profiles.UpdateDoctorProfile(r.Context(), r.PathValue("id"), patch), "doctor profile not found")
}

// SetDoctorVerification handles POST /api/local/doctors/{id}/verification
func (h *ProfileHandler) SetDoctorVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	status, ok := entities.ParseVerificationStatus(req.Status)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "status must be PENDING, VERIFIED or REJECTED")
		return
	}
	if !h.profiles.SetDoctorVerification(r.Context(), r.PathValue("id"), status, req.Notes) {
		respondWithError(w, http.StatusNotFound, "doctor profile not found")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// GetPatient handles GET /api/local/patients/{id}
func (h *ProfileHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	respondWithEntity(w, h.profiles.GetPatientProfile(r.Context(), r.PathValue("id")), "patient profile not found")
}

// SavePatient handles PUT /api/local/patients/{id}
func (h *ProfileHandler) SavePatient(w http.ResponseWriter, r *http.Request) {
	var profile entities.PatientProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	profile.UserID = r.PathValue("id")
	respondWithSaved(w, h.profiles.SavePatientProfile(r.Context(), &profile))
}

// PatchPatient handles PATCH /api/local/patients/{id}
func (h *ProfileHandler) PatchPatient(w http.ResponseWriter, r *http.Request) {
	var patch entities.PatientProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	respondWithEntity(w, h.profiles.UpdatePatientProfile(r.Context(), r.PathValue("id"), patch), "patient profile not found")
}

// GetSession handles GET /api/local/session
func (h *ProfileHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondWithEntity(w, h.profiles.GetCurrentUser(r.Context()), "no current user")
}

// SetSession handles PUT /api/local/session
func (h *ProfileHandler) SetSession(w http.ResponseWriter, r *http.Request) {
	var user entities.UserProfile
	if err := decodeJSON(r, &user); err != nil || user.ID == "" {
		respondWithError(w, http.StatusBadRequest, "a user profile with an id is required")
		return
	}
	if !h.profiles.SetCurrentUser(r.Context(), &user) {
		respondWithError(w, http.StatusInternalServerError, "failed to save current user")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// ClearSession handles DELETE /api/local/session
func (h *ProfileHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if !h.profiles.ClearCurrentUser(r.Context()) {
		respondWithError(w, http.StatusInternalServerError, "failed to clear current user")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// GetPreferences handles GET /api/local/preferences/{userId}
func (h *ProfileHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.preferences.GetPreferences(r.Context(), r.PathValue("userId")))
}

// SavePreferences handles PUT /api/local/preferences/{userId}
func (h *ProfileHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs entities.UserPreferences
	if err := decodeJSON(r, &prefs); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	prefs.UserID = r.PathValue("userId")
	if !h.preferences.SavePreferences(r.Context(), &prefs) {
		respondWithError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}
	respondWithJSON(w, http.StatusOK, prefs)
}

// ListNotifications handles GET /api/local/notifications?userId=&unreadOnly=
func (h *ProfileHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unreadOnly"))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.notifications.ListNotifications(r.Context(), userID, unreadOnly),
		"unread":        h.notifications.UnreadCount(r.Context(), userID),
	})
}

// CreateNotification handles POST /api/local/notifications
func (h *ProfileHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var notification entities.Notification
	if err := decodeJSON(r, &notification); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if notification.UserID == "" || notification.Title == "" {
		respondWithError(w, http.StatusBadRequest, "userId and title are required")
		return
	}
	respondWithSaved(w, h.notifications.CreateNotification(r.Context(), &notification))
}

// MarkNotificationRead handles POST /api/local/notifications/{id}/read
func (h *ProfileHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if !h.notifications.MarkAsRead(r.Context(), r.PathValue("id")) {
		respondWithError(w, http.StatusNotFound, "notification not found")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// MarkAllNotificationsRead handles POST /api/local/notifications/read-all
func (h *ProfileHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{
		"updated": h.notifications.MarkAllAsRead(r.Context(), req.UserID),
	})
}

// respondWithEntity writes v, or a 404 when the repository returned nil
func respondWithEntity[T any](w http.ResponseWriter, v *T, notFound string) {
	if v == nil {
		respondWithError(w, http.StatusNotFound, notFound)
		return
	}
	respondWithJSON(w, http.StatusOK, v)
}

// respondWithSaved writes v, or a 500 when persistence failed
func respondWithSaved[T any](w http.ResponseWriter, v *T) {
	if v == nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save")
		return
	}
	respondWithJSON(w, http.StatusOK, v)
}
