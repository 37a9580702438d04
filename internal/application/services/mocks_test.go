package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/providers"
	"github.com/careconnect/backend/internal/domain/repositories"
)

type MockAppointmentStore struct {
	mock.Mock
}

func (m *MockAppointmentStore) ListForUser(ctx context.Context, query repositories.AppointmentListQuery) ([]*entities.Appointment, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}

func (m *MockAppointmentStore) InsertBatch(ctx context.Context, appointments []*entities.Appointment) error {
	args := m.Called(ctx, appointments)
	return args.Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetUserType(ctx context.Context, userID string) (entities.UserType, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entities.UserType), args.Error(1)
}

func (m *MockUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) CreateUser(ctx context.Context, registration *entities.Registration) error {
	args := m.Called(ctx, registration)
	return args.Error(0)
}

func (m *MockUserStore) ListUserIDs(ctx context.Context, userType entities.UserType, limit int) ([]string, error) {
	args := m.Called(ctx, userType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserStore) FindDoctors(ctx context.Context, query repositories.DoctorListQuery) ([]*repositories.DoctorListing, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.DoctorListing), args.Error(1)
}

func (m *MockUserStore) GetDoctors(ctx context.Context, userIDs []string) ([]*repositories.DoctorListing, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.DoctorListing), args.Error(1)
}

func (m *MockUserStore) InsertUsers(ctx context.Context, users []*entities.UserProfile) error {
	args := m.Called(ctx, users)
	return args.Error(0)
}

func (m *MockUserStore) InsertDoctors(ctx context.Context, doctors []*entities.DoctorProfile) error {
	args := m.Called(ctx, doctors)
	return args.Error(0)
}

func (m *MockUserStore) InsertPatients(ctx context.Context, patients []*entities.PatientProfile) error {
	args := m.Called(ctx, patients)
	return args.Error(0)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Notification), args.Error(1)
}

func (m *MockNotificationStore) InsertBatch(ctx context.Context, notifications []*entities.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

type MockCollectionAdmin struct {
	mock.Mock
}

func (m *MockCollectionAdmin) Clear(ctx context.Context, collection string) (int64, error) {
	args := m.Called(ctx, collection)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollectionAdmin) Scan(ctx context.Context, collection string, fields []string, afterID string, limit int) ([]repositories.Document, error) {
	args := m.Called(ctx, collection, fields, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.Document), args.Error(1)
}

func (m *MockCollectionAdmin) ApplyBatch(ctx context.Context, collection string, updates []repositories.DocumentUpdate) error {
	args := m.Called(ctx, collection, updates)
	return args.Error(0)
}

type MockDoctorSearch struct {
	mock.Mock
}

func (m *MockDoctorSearch) Index(ctx context.Context, doctor *entities.DoctorProfile, user *entities.UserProfile) error {
	args := m.Called(ctx, doctor, user)
	return args.Error(0)
}

func (m *MockDoctorSearch) Search(ctx context.Context, query providers.DoctorSearchQuery) ([]string, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
