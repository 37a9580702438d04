package repositories

import "context"

// Collection names shared by the seeding and migration utilities.
const (
	CollectionUsers           = "users"
	CollectionDoctorProfiles  = "doctor_profiles"
	CollectionPatientProfiles = "patient_profiles"
	CollectionAppointments    = "appointments"
	CollectionNotifications   = "notifications"
)

// Document is one stored record reduced to the fields a migration inspects
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentUpdate sets the given fields on one document
type DocumentUpdate struct {
	ID     string
	Fields map[string]any
}

// CollectionAdmin exposes bulk maintenance operations on whole collections
type CollectionAdmin interface {
	// Clear deletes every document of a collection and returns the count removed
	Clear(ctx context.Context, collection string) (int64, error)

	// Scan returns up to limit documents ordered by id, starting after afterID
	Scan(ctx context.Context, collection string, fields []string, afterID string, limit int) ([]Document, error)

	// ApplyBatch writes all updates in one committed batch
	ApplyBatch(ctx context.Context, collection string, updates []DocumentUpdate) error
}
