package repositories

import (
	"context"

	"github.com/careconnect/backend/internal/domain/entities"
)

// DoctorListQuery filters doctor profiles; empty fields do not filter
type DoctorListQuery struct {
	Specialty    string
	Location     string
	VerifiedOnly bool
	Limit        int
}

// DoctorListing is a doctor profile joined with its account
type DoctorListing struct {
	User   *entities.UserProfile   `json:"user"`
	Doctor *entities.DoctorProfile `json:"doctor"`
}

// UserStore is the authoritative server-side account collection
type UserStore interface {
	// GetUserType resolves a user's role; not-found AppError when absent
	GetUserType(ctx context.Context, userID string) (entities.UserType, error)

	// EmailExists reports whether an account already uses email
	EmailExists(ctx context.Context, email string) (bool, error)

	// CreateUser writes the account and its role profile in one transaction
	CreateUser(ctx context.Context, registration *entities.Registration) error

	// ListUserIDs returns up to limit ids of existing accounts of a type
	ListUserIDs(ctx context.Context, userType entities.UserType, limit int) ([]string, error)

	// FindDoctors lists doctors by case-insensitive substring match
	FindDoctors(ctx context.Context, query DoctorListQuery) ([]*DoctorListing, error)

	// GetDoctors loads the listings for the given user ids, in that order
	GetDoctors(ctx context.Context, userIDs []string) ([]*DoctorListing, error)

	// InsertUsers writes accounts in one committed batch
	InsertUsers(ctx context.Context, users []*entities.UserProfile) error

	// InsertDoctors writes doctor profiles in one committed batch
	InsertDoctors(ctx context.Context, doctors []*entities.DoctorProfile) error

	// InsertPatients writes patient profiles in one committed batch
	InsertPatients(ctx context.Context, patients []*entities.PatientProfile) error
}

// NotificationStore is the authoritative server-side notification collection
type NotificationStore interface {
	// ListByUser returns a user's notifications, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Notification, error)

	// InsertBatch writes notifications in one committed batch
	InsertBatch(ctx context.Context, notifications []*entities.Notification) error
}
