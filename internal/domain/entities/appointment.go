package entities

import (
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending            AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed          AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted          AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelledByPatient AppointmentStatus = "CANCELLED_BY_PATIENT"
	AppointmentStatusCancelledByDoctor  AppointmentStatus = "CANCELLED_BY_DOCTOR"
	AppointmentStatusNoShow             AppointmentStatus = "NO_SHOW"
	AppointmentStatusScheduled          AppointmentStatus = "SCHEDULED"
)

// AppointmentStatuses lists every known status.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelledByPatient,
	AppointmentStatusCancelledByDoctor,
	AppointmentStatusNoShow,
	AppointmentStatusScheduled,
}

// IsValid reports whether s is a known status.
func (s AppointmentStatus) IsValid() bool {
	for _, known := range AppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsCancelled reports whether s is one of the cancelled statuses.
func (s AppointmentStatus) IsCancelled() bool {
	return s == AppointmentStatusCancelledByPatient || s == AppointmentStatusCancelledByDoctor
}

// ParseAppointmentStatus canonicalizes casing and separators ("no-show" -> NO_SHOW)
// and reports whether the result is a known status.
func ParseAppointmentStatus(raw string) (AppointmentStatus, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	status := AppointmentStatus(s)
	return status, status.IsValid()
}

// AppointmentType is the consultation mode
type AppointmentType string

const (
	AppointmentTypeInPerson AppointmentType = "in-person"
	AppointmentTypeVideo    AppointmentType = "video"
)

// ParseAppointmentType accepts the spellings found in stored documents.
func ParseAppointmentType(raw string) (AppointmentType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in-person", "in_person", "inperson", "in person", "in_clinic", "clinic":
		return AppointmentTypeInPerson, true
	case "video", "virtual", "telehealth", "online":
		return AppointmentTypeVideo, true
	}
	return "", false
}

// Appointment is a scheduled encounter between a patient and a doctor.
type Appointment struct {
	ID              string            `json:"id" db:"id"`
	PatientID       string            `json:"patientId" db:"patient_id"`
	DoctorID        string            `json:"doctorId" db:"doctor_id"`
	AppointmentDate time.Time         `json:"appointmentDate" db:"appointment_date"`
	StartTime       string            `json:"startTime" db:"start_time"`
	EndTime         string            `json:"endTime" db:"end_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Reason          string            `json:"reason,omitempty" db:"reason"`
	Notes           string            `json:"notes,omitempty" db:"notes"`
	AppointmentType AppointmentType   `json:"appointmentType,omitempty" db:"appointment_type"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`
}

// AppointmentPatch carries the fields of a partial update; nil fields are left untouched.
type AppointmentPatch struct {
	PatientID       *string            `json:"patientId,omitempty"`
	DoctorID        *string            `json:"doctorId,omitempty"`
	AppointmentDate *time.Time         `json:"appointmentDate,omitempty"`
	StartTime       *string            `json:"startTime,omitempty"`
	EndTime         *string            `json:"endTime,omitempty"`
	Status          *AppointmentStatus `json:"status,omitempty"`
	Reason          *string            `json:"reason,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	AppointmentType *AppointmentType   `json:"appointmentType,omitempty"`
}

// Apply merges the patch into a.
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.PatientID != nil {
		a.PatientID = *p.PatientID
	}
	if p.DoctorID != nil {
		a.DoctorID = *p.DoctorID
	}
	if p.AppointmentDate != nil {
		a.AppointmentDate = *p.AppointmentDate
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Reason != nil {
		a.Reason = *p.Reason
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.AppointmentType != nil {
		a.AppointmentType = *p.AppointmentType
	}
}
