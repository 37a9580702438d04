package local

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/adapters/storage"
	"github.com/careconnect/backend/internal/domain/entities"
)

// AppointmentFilter narrows GetAppointments. Zero values do not filter.
type AppointmentFilter struct {
	// Statuses keeps appointments whose status is any of the listed values.
	Statuses []entities.AppointmentStatus
	// From and To bound AppointmentDate, both inclusive.
	From *time.Time
	To   *time.Time
}

// AppointmentRepository manages the appointments collection of the local data layer
type AppointmentRepository struct {
	store  *storage.JSONStore
	events notifier
	logger zerolog.Logger
	now    func() time.Time
}

// NewAppointmentRepository creates an appointment repository; publisher may be nil
func NewAppointmentRepository(store *storage.JSONStore, publisher ChangePublisher, logger zerolog.Logger) *AppointmentRepository {
	logger = logger.With().Str("repository", "appointments").Logger()
	return &AppointmentRepository{
		store:  store,
		events: notifier{publisher: publisher, logger: logger},
		logger: logger,
		now:    timeNow,
	}
}

func (r *AppointmentRepository) load(ctx context.Context) []*entities.Appointment {
	return storage.Load(ctx, r.store, KeyAppointments, []*entities.Appointment{})
}

// GetAppointments returns the appointments where userID is the patient
// (PATIENT) or the doctor (DOCTOR), newest first. Other user types match nothing.
func (r *AppointmentRepository) GetAppointments(ctx context.Context, userID string, userType entities.UserType, filter AppointmentFilter) []*entities.Appointment {
	result := make([]*entities.Appointment, 0)
	for _, a := range r.load(ctx) {
		if a == nil {
			continue
		}
		switch userType {
		case entities.UserTypePatient:
			if a.PatientID != userID {
				continue
			}
		case entities.UserTypeDoctor:
			if a.DoctorID != userID {
				continue
			}
		default:
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, a.Status) {
			continue
		}
		if filter.From != nil && a.AppointmentDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.AppointmentDate.After(*filter.To) {
			continue
		}
		result = append(result, a)
	}

	slices.SortStableFunc(result, func(a, b *entities.Appointment) int {
		return b.AppointmentDate.Compare(a.AppointmentDate)
	})
	return result
}

// GetAppointmentByID returns the appointment or nil
func (r *AppointmentRepository) GetAppointmentByID(ctx context.Context, id string) *entities.Appointment {
	for _, a := range r.load(ctx) {
		if a != nil && a.ID == id {
			return a
		}
	}
	return nil
}

// CreateAppointment stores a copy of appointment under a new id. It does not
// check the doctor's slot for overlaps. Returns nil when the write failed.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment *entities.Appointment) *entities.Appointment {
	created := *appointment
	created.ID = uuid.NewString()
	now := r.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Status == "" {
		created.Status = entities.AppointmentStatusPending
	}

	err := storage.Mutate(ctx, r.store, KeyAppointments, []*entities.Appointment{},
		func(all []*entities.Appointment) ([]*entities.Appointment, error) {
			return append(all, &created), nil
		})
	if err != nil {
		return nil
	}

	r.logger.Debug().Str("appointment_id", created.ID).Msg("appointment created")
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeAppointments, KeyAppointments, created.ID, entities.ChangeOpCreated, &created))
	return &created
}

// update applies fn to the appointment with id and persists the collection.
func (r *AppointmentRepository) update(ctx context.Context, id string, fn func(a *entities.Appointment)) *entities.Appointment {
	var updated *entities.Appointment
	err := storage.Mutate(ctx, r.store, KeyAppointments, []*entities.Appointment{},
		func(all []*entities.Appointment) ([]*entities.Appointment, error) {
			idx := slices.IndexFunc(all, func(a *entities.Appointment) bool { return a != nil && a.ID == id })
			if idx < 0 {
				return nil, errNotFound
			}
			a := *all[idx]
			fn(&a)
			a.UpdatedAt = r.now()
			all[idx] = &a
			updated = &a
			return all, nil
		})
	if err != nil {
		if errors.Is(err, errNotFound) {
			r.logger.Debug().Str("appointment_id", id).Msg("appointment not found")
		}
		return nil
	}

	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeAppointments, KeyAppointments, id, entities.ChangeOpUpdated, updated))
	return updated
}

// UpdateAppointment merges the non-nil fields of patch. Returns nil when the
// appointment does not exist or the write failed.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, id string, patch entities.AppointmentPatch) *entities.Appointment {
	return r.update(ctx, id, patch.Apply)
}

// CancelAppointment marks the appointment cancelled by the patient or, for any
// other canceller, by the doctor. A non-empty reason is appended to the notes
// on its own line; existing notes are kept.
func (r *AppointmentRepository) CancelAppointment(ctx context.Context, id string, cancelledBy entities.UserType, reason string) bool {
	return r.update(ctx, id, func(a *entities.Appointment) {
		if cancelledBy == entities.UserTypePatient {
			a.Status = entities.AppointmentStatusCancelledByPatient
		} else {
			a.Status = entities.AppointmentStatusCancelledByDoctor
		}
		if reason == "" {
			return
		}
		line := "Cancellation reason: " + reason
		if a.Notes == "" {
			a.Notes = line
		} else {
			a.Notes += "\n" + line
		}
	}) != nil
}

// CompleteAppointment marks the appointment completed. Non-empty notes replace
// the existing notes.
func (r *AppointmentRepository) CompleteAppointment(ctx context.Context, id string, notes string) bool {
	return r.update(ctx, id, func(a *entities.Appointment) {
		a.Status = entities.AppointmentStatusCompleted
		if notes != "" {
			a.Notes = notes
		}
	}) != nil
}

// DeleteAll drops the whole collection. Development resets only.
func (r *AppointmentRepository) DeleteAll(ctx context.Context) bool {
	if !r.store.Remove(ctx, KeyAppointments) {
		return false
	}
	r.logger.Warn().Msg("all local appointments deleted")
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeAppointments, KeyAppointments, "", entities.ChangeOpRefresh, nil))
	return true
}
