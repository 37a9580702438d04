package local_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/adapters/local"
	"github.com/careconnect/backend/internal/domain/entities"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newAppointmentRepo() (*local.AppointmentRepository, *recordingPublisher) {
	store, _ := newStore()
	publisher := &recordingPublisher{}
	return local.NewAppointmentRepository(store, publisher, zerolog.Nop()), publisher
}

func TestAppointmentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo, publisher := newAppointmentRepo()

	input := &entities.Appointment{
		PatientID:       "p1",
		DoctorID:        "d1",
		AppointmentDate: date(2025, time.June, 1),
		StartTime:       "09:00",
		EndTime:         "09:30",
		Reason:          "checkup",
		AppointmentType: entities.AppointmentTypeVideo,
	}

	created := repo.CreateAppointment(ctx, input)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, entities.AppointmentStatusPending, created.Status)
	assert.Empty(t, input.ID, "input is not modified")

	fetched := repo.GetAppointmentByID(ctx, created.ID)
	require.NotNil(t, fetched)
	assert.Equal(t, input.PatientID, fetched.PatientID)
	assert.Equal(t, input.DoctorID, fetched.DoctorID)
	assert.True(t, input.AppointmentDate.Equal(fetched.AppointmentDate))
	assert.Equal(t, input.StartTime, fetched.StartTime)
	assert.Equal(t, input.EndTime, fetched.EndTime)
	assert.Equal(t, input.Reason, fetched.Reason)
	assert.Equal(t, input.AppointmentType, fetched.AppointmentType)

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entities.ChangeTypeAppointments, events[0].Type)
	assert.Equal(t, entities.ChangeOpCreated, events[0].Op)
	assert.Equal(t, created.ID, events[0].EntityID)

	var payload entities.Appointment
	require.NoError(t, events[0].DecodePayload(&payload))
	assert.Equal(t, created.ID, payload.ID)
}

func TestAppointmentRepository_GetByIDMissing(t *testing.T) {
	repo, _ := newAppointmentRepo()
	assert.Nil(t, repo.GetAppointmentByID(context.Background(), "missing"))
}

func TestAppointmentRepository_GetAppointments(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by role without cross-leakage", func(t *testing.T) {
		// Arrange
		repo, _ := newAppointmentRepo()
		a := repo.CreateAppointment(ctx, &entities.Appointment{
			PatientID:       "p1",
			DoctorID:        "d1",
			AppointmentDate: date(2025, time.June, 1),
			Status:          entities.AppointmentStatusPending,
		})
		require.NotNil(t, a)
		repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p2", DoctorID: "d2", AppointmentDate: date(2025, time.June, 2)})
		// A doctor id that collides with a patient id must not leak across roles.
		repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "x", DoctorID: "p1", AppointmentDate: date(2025, time.June, 3)})

		// Act
		forPatient := repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{})
		forDoctor := repo.GetAppointments(ctx, "d1", entities.UserTypeDoctor, local.AppointmentFilter{})
		forOther := repo.GetAppointments(ctx, "p2", entities.UserTypePatient, local.AppointmentFilter{})
		forAdmin := repo.GetAppointments(ctx, "p1", entities.UserTypeAdmin, local.AppointmentFilter{})

		// Assert
		require.Len(t, forPatient, 1)
		assert.Equal(t, a.ID, forPatient[0].ID)
		require.Len(t, forDoctor, 1)
		assert.Equal(t, a.ID, forDoctor[0].ID)
		for _, appt := range forOther {
			assert.Equal(t, "p2", appt.PatientID)
			assert.NotEqual(t, a.ID, appt.ID)
		}
		assert.Empty(t, forAdmin)
	})

	t.Run("sorts newest first", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		for _, d := range []time.Time{date(2025, 1, 10), date(2025, 3, 1), date(2024, 12, 31)} {
			repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1", AppointmentDate: d})
		}

		result := repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{})

		require.Len(t, result, 3)
		assert.True(t, result[0].AppointmentDate.Equal(date(2025, 3, 1)))
		assert.True(t, result[1].AppointmentDate.Equal(date(2025, 1, 10)))
		assert.True(t, result[2].AppointmentDate.Equal(date(2024, 12, 31)))
	})

	t.Run("status set and inclusive date window", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", AppointmentDate: date(2025, 5, 1), Status: entities.AppointmentStatusConfirmed})
		repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", AppointmentDate: date(2025, 5, 15), Status: entities.AppointmentStatusPending})
		repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", AppointmentDate: date(2025, 5, 31), Status: entities.AppointmentStatusCompleted})

		from, to := date(2025, 5, 1), date(2025, 5, 15)
		windowed := repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{From: &from, To: &to})
		assert.Len(t, windowed, 2)

		byStatus := repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{
			Statuses: []entities.AppointmentStatus{entities.AppointmentStatusPending, entities.AppointmentStatusCompleted},
		})
		require.Len(t, byStatus, 2)
		assert.Equal(t, entities.AppointmentStatusCompleted, byStatus[0].Status)
		assert.Equal(t, entities.AppointmentStatusPending, byStatus[1].Status)
	})

	t.Run("window excluding everything returns empty slice", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", AppointmentDate: date(2025, 5, 1)})

		from, to := date(2030, 1, 1), date(2030, 12, 31)
		result := repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{From: &from, To: &to})

		assert.NotNil(t, result)
		assert.Empty(t, result)
	})
}

func TestAppointmentRepository_UpdateAppointment(t *testing.T) {
	ctx := context.Background()
	repo, _ := newAppointmentRepo()
	created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1", StartTime: "09:00"})
	require.NotNil(t, created)

	start := "10:00"
	status := entities.AppointmentStatusConfirmed
	updated := repo.UpdateAppointment(ctx, created.ID, entities.AppointmentPatch{StartTime: &start, Status: &status})

	require.NotNil(t, updated)
	assert.Equal(t, "10:00", updated.StartTime)
	assert.Equal(t, entities.AppointmentStatusConfirmed, updated.Status)
	assert.Equal(t, "p1", updated.PatientID)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	assert.Nil(t, repo.UpdateAppointment(ctx, "missing", entities.AppointmentPatch{StartTime: &start}))
}

func TestAppointmentRepository_CancelAppointment(t *testing.T) {
	ctx := context.Background()

	t.Run("doctor cancellation appends reason", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1", Notes: "Bring records"})
		require.NotNil(t, created)

		ok := repo.CancelAppointment(ctx, created.ID, entities.UserTypeDoctor, "scheduling conflict")

		assert.True(t, ok)
		got := repo.GetAppointmentByID(ctx, created.ID)
		assert.Equal(t, entities.AppointmentStatusCancelledByDoctor, got.Status)
		assert.Contains(t, got.Notes, "scheduling conflict")
		assert.Equal(t, "Bring records\nCancellation reason: scheduling conflict", got.Notes)
	})

	t.Run("patient cancellation is idempotent", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1"})

		assert.True(t, repo.CancelAppointment(ctx, created.ID, entities.UserTypePatient, "feeling better"))
		assert.True(t, repo.CancelAppointment(ctx, created.ID, entities.UserTypePatient, ""))

		got := repo.GetAppointmentByID(ctx, created.ID)
		assert.Equal(t, entities.AppointmentStatusCancelledByPatient, got.Status)
		assert.Equal(t, "Cancellation reason: feeling better", got.Notes)
	})

	t.Run("reason supplied twice is appended twice", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1"})

		repo.CancelAppointment(ctx, created.ID, entities.UserTypePatient, "travel")
		repo.CancelAppointment(ctx, created.ID, entities.UserTypePatient, "travel")

		got := repo.GetAppointmentByID(ctx, created.ID)
		assert.Equal(t, "Cancellation reason: travel\nCancellation reason: travel", got.Notes)
	})

	t.Run("admin cancellation counts as doctor", func(t *testing.T) {
		repo, _ := newAppointmentRepo()
		created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1"})

		repo.CancelAppointment(ctx, created.ID, entities.UserTypeAdmin, "")

		assert.Equal(t, entities.AppointmentStatusCancelledByDoctor, repo.GetAppointmentByID(ctx, created.ID).Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo, publisher := newAppointmentRepo()
		assert.False(t, repo.CancelAppointment(ctx, "missing", entities.UserTypePatient, "x"))
		assert.Empty(t, publisher.Events())
	})
}

func TestAppointmentRepository_CompleteAppointment(t *testing.T) {
	ctx := context.Background()
	repo, _ := newAppointmentRepo()
	created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1", Notes: "Initial notes"})
	require.NotNil(t, created)

	assert.True(t, repo.CompleteAppointment(ctx, created.ID, "Patient advised to rest"))

	got := repo.GetAppointmentByID(ctx, created.ID)
	assert.Equal(t, entities.AppointmentStatusCompleted, got.Status)
	assert.Equal(t, "Patient advised to rest", got.Notes)

	assert.True(t, repo.CompleteAppointment(ctx, created.ID, ""))
	assert.Equal(t, "Patient advised to rest", repo.GetAppointmentByID(ctx, created.ID).Notes)

	assert.False(t, repo.CompleteAppointment(ctx, "missing", "notes"))
}

func TestAppointmentRepository_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store, kv := newStore()
	publisher := &recordingPublisher{}
	repo := local.NewAppointmentRepository(store, publisher, zerolog.Nop())
	created := repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1", DoctorID: "d1"})
	require.NotNil(t, created)

	kv.FailWith(errors.New("quota exceeded"))

	assert.Nil(t, repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1"}))
	assert.False(t, repo.CancelAppointment(ctx, created.ID, entities.UserTypePatient, ""))
	assert.Nil(t, repo.GetAppointmentByID(ctx, created.ID))
	assert.Empty(t, repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{}))
	assert.Len(t, publisher.Events(), 1)
}

func TestAppointmentRepository_DeleteAll(t *testing.T) {
	ctx := context.Background()
	repo, publisher := newAppointmentRepo()
	repo.CreateAppointment(ctx, &entities.Appointment{PatientID: "p1"})

	assert.True(t, repo.DeleteAll(ctx))
	assert.Empty(t, repo.GetAppointments(ctx, "p1", entities.UserTypePatient, local.AppointmentFilter{}))

	events := publisher.Events()
	assert.Equal(t, entities.ChangeOpRefresh, events[len(events)-1].Op)
}

func TestAppointmentRepository_NilPublisher(t *testing.T) {
	store, _ := newStore()
	repo := local.NewAppointmentRepository(store, nil, zerolog.Nop())

	assert.NotNil(t, repo.CreateAppointment(context.Background(), &entities.Appointment{PatientID: "p1"}))
}
