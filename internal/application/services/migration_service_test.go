package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/application/services"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/pkg/batch"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

func TestNormalizeCollection_Appointments(t *testing.T) {
	admin := new(MockCollectionAdmin)
	svc := services.NewMigrationService(admin, zerolog.Nop())

	docs := []repositories.Document{
		{ID: "a1", Fields: map[string]any{"status": "confirmed", "appointment_type": "virtual", "start_time": "9:00", "end_time": "9:30 AM"}},
		{ID: "a2", Fields: map[string]any{"status": "PENDING", "appointment_type": "video", "start_time": "10:00", "end_time": "10:30"}},
		{ID: "a3", Fields: map[string]any{"status": "lost", "appointment_type": nil, "start_time": "", "end_time": ""}},
	}
	admin.On("Scan", mock.Anything, repositories.CollectionAppointments, mock.Anything, "", batch.MaxSize).Return(docs, nil)
	admin.On("ApplyBatch", mock.Anything, repositories.CollectionAppointments, []repositories.DocumentUpdate{
		{ID: "a1", Fields: map[string]any{"status": "CONFIRMED", "appointment_type": "video", "start_time": "09:00", "end_time": "09:30"}},
	}).Return(nil)

	tally, err := svc.NormalizeCollection(context.Background(), repositories.CollectionAppointments, false)
	require.NoError(t, err)
	assert.Equal(t, services.MigrationTally{Scanned: 3, Updated: 1, Skipped: 1, Errored: 1}, *tally)
	admin.AssertExpectations(t)
}

func TestNormalizeCollection_PagesByLastID(t *testing.T) {
	admin := new(MockCollectionAdmin)
	svc := services.NewMigrationService(admin, zerolog.Nop())

	firstPage := make([]repositories.Document, batch.MaxSize)
	for i := range firstPage {
		firstPage[i] = repositories.Document{
			ID:     fmt.Sprintf("doc-%04d", i),
			Fields: map[string]any{"verification_status": "APPROVED", "specialty": "Cardiology", "location": "Lagos"},
		}
	}
	lastID := firstPage[len(firstPage)-1].ID
	secondPage := []repositories.Document{
		{ID: "zz", Fields: map[string]any{"verification_status": "VERIFIED", "specialty": "Cardiology", "location": nil}},
	}

	admin.On("Scan", mock.Anything, repositories.CollectionDoctorProfiles, mock.Anything, "", batch.MaxSize).Return(firstPage, nil)
	admin.On("Scan", mock.Anything, repositories.CollectionDoctorProfiles, mock.Anything, lastID, batch.MaxSize).Return(secondPage, nil)
	admin.On("ApplyBatch", mock.Anything, repositories.CollectionDoctorProfiles, mock.MatchedBy(func(updates []repositories.DocumentUpdate) bool {
		return len(updates) == batch.MaxSize && updates[0].Fields["verification_status"] == "VERIFIED"
	})).Return(nil).Once()

	tally, err := svc.NormalizeCollection(context.Background(), repositories.CollectionDoctorProfiles, false)
	require.NoError(t, err)
	assert.Equal(t, batch.MaxSize+1, tally.Scanned)
	assert.Equal(t, batch.MaxSize, tally.Updated)
	assert.Equal(t, 1, tally.Skipped)
	admin.AssertExpectations(t)
}

func TestNormalizeCollection_DryRunWritesNothing(t *testing.T) {
	admin := new(MockCollectionAdmin)
	svc := services.NewMigrationService(admin, zerolog.Nop())

	admin.On("Scan", mock.Anything, repositories.CollectionUsers, mock.Anything, "", batch.MaxSize).Return([]repositories.Document{
		{ID: "u1", Fields: map[string]any{"email": " Ada@Example.com", "user_type": "patient", "first_name": "Ada", "last_name": "Obi"}},
		{ID: "u2", Fields: map[string]any{"email": "", "user_type": "PATIENT", "first_name": "", "last_name": ""}},
	}, nil)

	tally, err := svc.NormalizeCollection(context.Background(), repositories.CollectionUsers, true)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Updated)
	assert.Equal(t, 1, tally.Errored)
	admin.AssertNotCalled(t, "ApplyBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalizeCollection_Errors(t *testing.T) {
	admin := new(MockCollectionAdmin)
	svc := services.NewMigrationService(admin, zerolog.Nop())

	_, err := svc.NormalizeCollection(context.Background(), repositories.CollectionNotifications, false)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	admin.On("Scan", mock.Anything, repositories.CollectionUsers, mock.Anything, "", batch.MaxSize).Return(nil, errors.New("db down"))
	_, err = svc.NormalizeCollection(context.Background(), repositories.CollectionUsers, false)
	assert.Error(t, err)
}
