package providers

import (
	"context"

	"github.com/careconnect/backend/internal/domain/entities"
)

// DoctorSearchQuery filters the doctor directory. Empty fields do not filter.
type DoctorSearchQuery struct {
	Specialty    string
	Location     string
	VerifiedOnly bool
	Limit        int
}

// DoctorSearchProvider is an external full-text index over doctor profiles
type DoctorSearchProvider interface {
	// Index upserts a doctor into the index
	Index(ctx context.Context, doctor *entities.DoctorProfile, user *entities.UserProfile) error

	// Search returns the user ids of matching doctors, best match first
	Search(ctx context.Context, query DoctorSearchQuery) ([]string, error)
}
