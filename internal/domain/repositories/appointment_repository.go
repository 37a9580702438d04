package repositories

import (
	"context"
	"time"

	"github.com/careconnect/backend/internal/domain/entities"
)

// AppointmentRole selects which foreign key identifies the caller
type AppointmentRole string

const (
	AppointmentRolePatient AppointmentRole = "patient_id"
	AppointmentRoleDoctor  AppointmentRole = "doctor_id"
)

// DateWindow restricts appointments relative to a reference instant
type DateWindow string

const (
	DateWindowAny      DateWindow = ""
	DateWindowUpcoming DateWindow = "upcoming"
	DateWindowPast     DateWindow = "past"
)

// AppointmentListQuery is the single-collection query behind get-my-appointments
type AppointmentListQuery struct {
	Role   AppointmentRole
	UserID string
	Status entities.AppointmentStatus
	Window DateWindow
	// Now is the reference instant for Window.
	Now time.Time
}

// AppointmentStore is the authoritative server-side appointment collection
type AppointmentStore interface {
	// ListForUser runs the filtered, ordered query for one user
	ListForUser(ctx context.Context, query AppointmentListQuery) ([]*entities.Appointment, error)

	// InsertBatch writes all appointments in one committed batch
	InsertBatch(ctx context.Context, appointments []*entities.Appointment) error
}
