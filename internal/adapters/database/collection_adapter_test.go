package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/domain/repositories"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

func TestCollectionAdapter_Clear(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewCollectionAdapter(client)
	mock.ExpectExec(`DELETE FROM "appointments"`).WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := adapter.Clear(context.Background(), repositories.CollectionAppointments)

	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}

func TestCollectionAdapter_UnknownCollection(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewCollectionAdapter(client)

	_, err := adapter.Clear(context.Background(), "pg_catalog")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = adapter.Scan(context.Background(), "secrets", nil, "", 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionAdapter_Scan(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewCollectionAdapter(client)

	mock.ExpectQuery(`SELECT "user_id" AS "doc_id", "verification_status" FROM "doctor_profiles" WHERE \("user_id" > 'd1'\) ORDER BY "user_id" ASC LIMIT 2`).
		WillReturnRows(sqlmock.NewRows([]string{"doc_id", "verification_status"}).
			AddRow("d2", []byte("approved")).
			AddRow("d3", "VERIFIED"))

	docs, err := adapter.Scan(context.Background(), repositories.CollectionDoctorProfiles, []string{"verification_status"}, "d1", 2)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID)
	assert.Equal(t, map[string]any{"verification_status": "approved"}, docs[0].Fields)
	assert.Equal(t, "VERIFIED", docs[1].Fields["verification_status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionAdapter_ApplyBatch(t *testing.T) {
	t.Run("commits every update", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewCollectionAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "appointments" SET "status"='CONFIRMED' WHERE \("id" = 'a1'\)`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "appointments" SET "status"='NO_SHOW' WHERE \("id" = 'a2'\)`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.ApplyBatch(context.Background(), repositories.CollectionAppointments, []repositories.DocumentUpdate{
			{ID: "a1", Fields: map[string]any{"status": "CONFIRMED"}},
			{ID: "a2", Fields: map[string]any{"status": "NO_SHOW"}},
			{ID: "a3"},
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewCollectionAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "users"`).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := adapter.ApplyBatch(context.Background(), repositories.CollectionUsers, []repositories.DocumentUpdate{
			{ID: "u1", Fields: map[string]any{"user_type": "PATIENT"}},
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
