package local

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/adapters/storage"
	"github.com/careconnect/backend/internal/domain/entities"
)

// DoctorQuery filters FindDoctors by case-insensitive substring. Empty fields do not filter.
type DoctorQuery struct {
	Specialty string
	Location  string
}

// ProfileRepository manages user, doctor and patient profiles and the
// signed-in user record of the local data layer.
type ProfileRepository struct {
	store  *storage.JSONStore
	events notifier
	logger zerolog.Logger
	now    func() time.Time
}

// NewProfileRepository creates a profile repository; publisher may be nil
func NewProfileRepository(store *storage.JSONStore, publisher ChangePublisher, logger zerolog.Logger) *ProfileRepository {
	logger = logger.With().Str("repository", "profiles").Logger()
	return &ProfileRepository{
		store:  store,
		events: notifier{publisher: publisher, logger: logger},
		logger: logger,
		now:    timeNow,
	}
}

// upsert inserts item into the collection under key or replaces the record
// with the same id through replace. It returns the stored record, nil on failure.
func upsert[T any](ctx context.Context, r *ProfileRepository, key string, item *T, id func(*T) string, replace func(dst, src *T), stamp func(*T, time.Time, bool)) (*T, entities.ChangeOp) {
	var stored *T
	op := entities.ChangeOpCreated
	err := storage.Mutate(ctx, r.store, key, []*T{}, func(all []*T) ([]*T, error) {
		now := r.now()
		idx := slices.IndexFunc(all, func(existing *T) bool { return existing != nil && id(existing) == id(item) })
		if idx < 0 {
			created := *item
			stamp(&created, now, true)
			stored = &created
			op = entities.ChangeOpCreated
			return append(all, &created), nil
		}
		replaced := *all[idx]
		replace(&replaced, item)
		stamp(&replaced, now, false)
		all[idx] = &replaced
		stored = &replaced
		op = entities.ChangeOpUpdated
		return all, nil
	})
	if err != nil {
		return nil, op
	}
	return stored, op
}

// update applies edit to the record with the given id under key. It returns
// the stored record, nil when absent or on failure.
func update[T any](ctx context.Context, r *ProfileRepository, key, recordID string, id func(*T) string, edit func(*T, time.Time)) *T {
	var stored *T
	err := storage.Mutate(ctx, r.store, key, []*T{}, func(all []*T) ([]*T, error) {
		idx := slices.IndexFunc(all, func(existing *T) bool { return existing != nil && id(existing) == recordID })
		if idx < 0 {
			return nil, errNotFound
		}
		edited := *all[idx]
		edit(&edited, r.now())
		all[idx] = &edited
		stored = &edited
		return all, nil
	})
	if err != nil {
		return nil
	}
	return stored
}

// find returns the record of the collection under key matching pred.
func find[T any](ctx context.Context, r *ProfileRepository, key string, pred func(*T) bool) *T {
	for _, item := range storage.Load(ctx, r.store, key, []*T{}) {
		if item != nil && pred(item) {
			return item
		}
	}
	return nil
}

// GetUserProfile returns the account or nil
func (r *ProfileRepository) GetUserProfile(ctx context.Context, id string) *entities.UserProfile {
	return find(ctx, r, KeyUserProfiles, func(u *entities.UserProfile) bool { return u.ID == id })
}

// SaveUserProfile upserts a complete account record. On update profile
// replaces the stored record except ID, UserType and CreatedAt, which never
// change after creation, and IsActive, which only SetUserActive changes. Use
// UpdateUserProfile for partial edits.
func (r *ProfileRepository) SaveUserProfile(ctx context.Context, profile *entities.UserProfile) *entities.UserProfile {
	stored, op := upsert(ctx, r, KeyUserProfiles, profile,
		func(u *entities.UserProfile) string { return u.ID },
		replaceUserProfile,
		func(u *entities.UserProfile, now time.Time, created bool) {
			if created {
				u.CreatedAt = now
			}
			u.UpdatedAt = now
		})
	if stored != nil {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyUserProfiles, stored.ID, op, stored))
	}
	return stored
}

// UpdateUserProfile merges the fields present in patch into an existing
// account; nil when the account does not exist
func (r *ProfileRepository) UpdateUserProfile(ctx context.Context, id string, patch entities.UserProfilePatch) *entities.UserProfile {
	stored := update(ctx, r, KeyUserProfiles, id,
		func(u *entities.UserProfile) string { return u.ID },
		func(u *entities.UserProfile, now time.Time) {
			patch.Apply(u)
			u.UpdatedAt = now
		})
	if stored != nil {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyUserProfiles, id, entities.ChangeOpUpdated, stored))
	}
	return stored
}

// ListUserProfiles returns the accounts of one type, or all when userType is empty
func (r *ProfileRepository) ListUserProfiles(ctx context.Context, userType entities.UserType) []*entities.UserProfile {
	result := make([]*entities.UserProfile, 0)
	for _, u := range storage.Load(ctx, r.store, KeyUserProfiles, []*entities.UserProfile{}) {
		if u != nil && (userType == "" || u.UserType == userType) {
			result = append(result, u)
		}
	}
	return result
}

// SetUserActive deactivates or reactivates an account
func (r *ProfileRepository) SetUserActive(ctx context.Context, id string, active bool) bool {
	var updated *entities.UserProfile
	err := storage.Mutate(ctx, r.store, KeyUserProfiles, []*entities.UserProfile{},
		func(all []*entities.UserProfile) ([]*entities.UserProfile, error) {
			idx := slices.IndexFunc(all, func(u *entities.UserProfile) bool { return u != nil && u.ID == id })
			if idx < 0 {
				return nil, errNotFound
			}
			u := *all[idx]
			u.IsActive = active
			u.UpdatedAt = r.now()
			all[idx] = &u
			updated = &u
			return all, nil
		})
	if err != nil {
		return false
	}

	r.logger.Info().Str("user_id", id).Bool("active", active).Msg("account activation changed")
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyUserProfiles, id, entities.ChangeOpUpdated, updated))
	return true
}

// GetDoctorProfile returns the doctor profile of a user or nil
func (r *ProfileRepository) GetDoctorProfile(ctx context.Context, userID string) *entities.DoctorProfile {
	return find(ctx, r, KeyDoctorProfiles, func(d *entities.DoctorProfile) bool { return d.UserID == userID })
}

// SaveDoctorProfile upserts a complete doctor profile keyed by UserID. A new
// profile without a verification status starts PENDING; on update the stored
// verification status and notes are kept, since only SetDoctorVerification
// changes them.
func (r *ProfileRepository) SaveDoctorProfile(ctx context.Context, profile *entities.DoctorProfile) *entities.DoctorProfile {
	stored, op := upsert(ctx, r, KeyDoctorProfiles, profile,
		func(d *entities.DoctorProfile) string { return d.UserID },
		replaceDoctorProfile,
		func(d *entities.DoctorProfile, now time.Time, created bool) {
			if created {
				d.CreatedAt = now
				if d.VerificationStatus == "" {
					d.VerificationStatus = entities.VerificationStatusPending
				}
			}
			d.UpdatedAt = now
		})
	if stored != nil {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyDoctorProfiles, stored.UserID, op, stored))
	}
	return stored
}

// UpdateDoctorProfile merges the fields present in patch into an existing
// doctor profile; nil when the profile does not exist
func (r *ProfileRepository) UpdateDoctorProfile(ctx context.Context, userID string, patch entities.DoctorProfilePatch) *entities.DoctorProfile {
	stored := update(ctx, r, KeyDoctorProfiles, userID,
		func(d *entities.DoctorProfile) string { return d.UserID },
		func(d *entities.DoctorProfile, now time.Time) {
			patch.Apply(d)
			d.UpdatedAt = now
		})
	if stored != nil {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyDoctorProfiles, userID, entities.ChangeOpUpdated, stored))
	}
	return stored
}

// SetDoctorVerification records an admin verification decision
func (r *ProfileRepository) SetDoctorVerification(ctx context.Context, userID string, status entities.VerificationStatus, notes string) bool {
	var updated *entities.DoctorProfile
	err := storage.Mutate(ctx, r.store, KeyDoctorProfiles, []*entities.DoctorProfile{},
		func(all []*entities.DoctorProfile) ([]*entities.DoctorProfile, error) {
			idx := slices.IndexFunc(all, func(d *entities.DoctorProfile) bool { return d != nil && d.UserID == userID })
			if idx < 0 {
				return nil, errNotFound
			}
			d := *all[idx]
			d.VerificationStatus = status
			d.VerificationNotes = notes
			d.UpdatedAt = r.now()
			all[idx] = &d
			updated = &d
			return all, nil
		})
	if err != nil {
		return false
	}

	r.logger.Info().Str("user_id", userID).Str("status", string(status)).Msg("doctor verification changed")
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyDoctorProfiles, userID, entities.ChangeOpUpdated, updated))
	return true
}

// FindDoctors filters doctor profiles by specialty and location. Verification
// status is not checked.
func (r *ProfileRepository) FindDoctors(ctx context.Context, query DoctorQuery) []*entities.DoctorProfile {
	specialty := strings.ToLower(query.Specialty)
	location := strings.ToLower(query.Location)

	result := make([]*entities.DoctorProfile, 0)
	for _, d := range storage.Load(ctx, r.store, KeyDoctorProfiles, []*entities.DoctorProfile{}) {
		if d == nil {
			continue
		}
		if specialty != "" && !strings.Contains(strings.ToLower(d.Specialty), specialty) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(d.Location), location) {
			continue
		}
		result = append(result, d)
	}
	return result
}

// GetPatientProfile returns the patient profile of a user or nil
func (r *ProfileRepository) GetPatientProfile(ctx context.Context, userID string) *entities.PatientProfile {
	return find(ctx, r, KeyPatientProfiles, func(p *entities.PatientProfile) bool { return p.UserID == userID })
}

// SavePatientProfile upserts a complete patient profile keyed by UserID; on
// update profile replaces the stored record except CreatedAt
func (r *ProfileRepository) SavePatientProfile(ctx context.Context, profile *entities.PatientProfile) *entities.PatientProfile {
	stored, op := upsert(ctx, r, KeyPatientProfiles, profile,
		func(p *entities.PatientProfile) string { return p.UserID },
		replacePatientProfile,
		func(p *entities.PatientProfile, now time.Time, created bool) {
			if created {
				p.CreatedAt = now
			}
			p.UpdatedAt = now
		})
	if stored != nil {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyPatientProfiles, stored.UserID, op, stored))
	}
	return stored
}

// UpdatePatientProfile merges the fields present in patch into an existing
// patient profile; nil when the profile does not exist
func (r *ProfileRepository) UpdatePatientProfile(ctx context.Context, userID string, patch entities.PatientProfilePatch) *entities.PatientProfile {
	stored := update(ctx, r, KeyPatientProfiles, userID,
		func(p *entities.PatientProfile) string { return p.UserID },
		func(p *entities.PatientProfile, now time.Time) {
			patch.Apply(p)
			p.UpdatedAt = now
		})
	if stored != nil {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeProfiles, KeyPatientProfiles, userID, entities.ChangeOpUpdated, stored))
	}
	return stored
}

// GetCurrentUser returns the signed-in account or nil
func (r *ProfileRepository) GetCurrentUser(ctx context.Context) *entities.UserProfile {
	return storage.Load[*entities.UserProfile](ctx, r.store, KeyCurrentUser, nil)
}

// SetCurrentUser records the signed-in account
func (r *ProfileRepository) SetCurrentUser(ctx context.Context, user *entities.UserProfile) bool {
	if user == nil {
		return r.ClearCurrentUser(ctx)
	}
	if !r.store.Save(ctx, KeyCurrentUser, user) {
		return false
	}
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeCurrentUser, KeyCurrentUser, user.ID, entities.ChangeOpUpdated, user))
	return true
}

// ClearCurrentUser forgets the signed-in account
func (r *ProfileRepository) ClearCurrentUser(ctx context.Context) bool {
	if !r.store.Remove(ctx, KeyCurrentUser) {
		return false
	}
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeCurrentUser, KeyCurrentUser, "", entities.ChangeOpDeleted, nil))
	return true
}

// The replace functions keep what a re-save may not change and take
// everything else from src.

func replaceUserProfile(dst, src *entities.UserProfile) {
	kept := *dst
	*dst = *src
	dst.ID = kept.ID
	dst.UserType = kept.UserType
	dst.IsActive = kept.IsActive
	dst.CreatedAt = kept.CreatedAt
}

func replaceDoctorProfile(dst, src *entities.DoctorProfile) {
	kept := *dst
	*dst = *src
	dst.UserID = kept.UserID
	dst.VerificationStatus = kept.VerificationStatus
	dst.VerificationNotes = kept.VerificationNotes
	dst.CreatedAt = kept.CreatedAt
}

func replacePatientProfile(dst, src *entities.PatientProfile) {
	kept := *dst
	*dst = *src
	dst.UserID = kept.UserID
	dst.CreatedAt = kept.CreatedAt
}
