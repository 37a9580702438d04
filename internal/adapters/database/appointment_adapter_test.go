package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

var appointmentRowColumns = []string{
	"id", "patient_id", "doctor_id", "appointment_date", "start_time", "end_time",
	"status", "reason", "notes", "appointment_type", "created_at", "updated_at",
}

func TestAppointmentAdapter_ListForUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("patient upcoming ascending", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewAppointmentAdapter(client)

		rows := sqlmock.NewRows(appointmentRowColumns).
			AddRow("a1", "p1", "d1", now.Add(24*time.Hour), "09:00", "09:30", "CONFIRMED", "checkup", nil, "video", now, now).
			AddRow("a2", "p1", "d2", now.Add(48*time.Hour), "10:00", "10:30", "PENDING", nil, "bring scans", nil, now, now)
		mock.ExpectQuery(`FROM "appointments" WHERE .*"patient_id" = 'p1'.*"appointment_date" >= .*ORDER BY "appointment_date" ASC`).
			WillReturnRows(rows)

		result, err := adapter.ListForUser(context.Background(), repositories.AppointmentListQuery{
			Role:   repositories.AppointmentRolePatient,
			UserID: "p1",
			Window: repositories.DateWindowUpcoming,
			Now:    now,
		})

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "a1", result[0].ID)
		assert.Equal(t, entities.AppointmentStatusConfirmed, result[0].Status)
		assert.Equal(t, entities.AppointmentTypeVideo, result[0].AppointmentType)
		assert.Empty(t, result[0].Notes)
		assert.Equal(t, "bring scans", result[1].Notes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("doctor past with status descending", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewAppointmentAdapter(client)

		mock.ExpectQuery(`WHERE .*"doctor_id" = 'd1'.*"status" = 'COMPLETED'.*"appointment_date" < .*ORDER BY "appointment_date" DESC`).
			WillReturnRows(sqlmock.NewRows(appointmentRowColumns))

		result, err := adapter.ListForUser(context.Background(), repositories.AppointmentListQuery{
			Role:   repositories.AppointmentRoleDoctor,
			UserID: "d1",
			Status: entities.AppointmentStatusCompleted,
			Window: repositories.DateWindowPast,
			Now:    now,
		})

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no window orders descending", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewAppointmentAdapter(client)

		mock.ExpectQuery(`WHERE \("patient_id" = 'p1'\) ORDER BY "appointment_date" DESC`).
			WillReturnRows(sqlmock.NewRows(appointmentRowColumns))

		_, err := adapter.ListForUser(context.Background(), repositories.AppointmentListQuery{
			Role:   repositories.AppointmentRolePatient,
			UserID: "p1",
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown role is rejected before querying", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewAppointmentAdapter(client)

		_, err := adapter.ListForUser(context.Background(), repositories.AppointmentListQuery{Role: "admin_id", UserID: "x"})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database failure is internal", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewAppointmentAdapter(client)
		mock.ExpectQuery(`FROM "appointments"`).WillReturnError(errors.New("connection reset"))

		_, err := adapter.ListForUser(context.Background(), repositories.AppointmentListQuery{
			Role:   repositories.AppointmentRolePatient,
			UserID: "p1",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	})
}

func TestAppointmentAdapter_InsertBatch(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewAppointmentAdapter(client)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO "appointments" .* VALUES .*'a1'.*'a2'`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := adapter.InsertBatch(context.Background(), []*entities.Appointment{
		{ID: "a1", PatientID: "p1", DoctorID: "d1", AppointmentDate: now, Status: entities.AppointmentStatusPending, CreatedAt: now, UpdatedAt: now},
		{ID: "a2", PatientID: "p2", DoctorID: "d1", AppointmentDate: now, Status: entities.AppointmentStatusScheduled, CreatedAt: now, UpdatedAt: now},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, adapter.InsertBatch(context.Background(), nil))
}
