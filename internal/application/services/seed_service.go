package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/pkg/batch"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

const (
	// DefaultSeedCount is used for collections without an explicit count.
	DefaultSeedCount = 10

	// linkedUserLimit caps how many existing accounts --link-auth-users pulls in per role.
	linkedUserLimit = 200
)

// SeedCollections lists the seedable collections in write order.
var SeedCollections = []string{
	repositories.CollectionUsers,
	repositories.CollectionDoctorProfiles,
	repositories.CollectionPatientProfiles,
	repositories.CollectionAppointments,
	repositories.CollectionNotifications,
}

// countedCollections accept an explicit count; profiles follow the generated users.
var countedCollections = []string{
	repositories.CollectionUsers,
	repositories.CollectionAppointments,
	repositories.CollectionNotifications,
}

// SeedOptions controls one seeding run
type SeedOptions struct {
	// Count applies to every counted collection without an entry in Counts.
	Count  int
	Counts map[string]int
	// Collections restricts the run; empty means all of SeedCollections.
	Collections []string
	Clear       bool
	// LinkAuthUsers makes generated appointments and notifications reference
	// existing accounts as well as generated ones.
	LinkAuthUsers bool
}

// SeedReport summarizes a seeding run
type SeedReport struct {
	Cleared map[string]int64
	Written map[string]int
}

// SeedService generates synthetic data and writes it in committed batches
type SeedService struct {
	users         repositories.UserStore
	appointments  repositories.AppointmentStore
	notifications repositories.NotificationStore
	admin         repositories.CollectionAdmin
	logger        zerolog.Logger
	rng           *rand.Rand
	now           func() time.Time
}

// NewSeedService creates a new seed service. A zero seed uses a random one.
func NewSeedService(
	users repositories.UserStore,
	appointments repositories.AppointmentStore,
	notifications repositories.NotificationStore,
	admin repositories.CollectionAdmin,
	seed uint64,
	logger zerolog.Logger,
) *SeedService {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &SeedService{
		users:         users,
		appointments:  appointments,
		notifications: notifications,
		admin:         admin,
		logger:        logger,
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:           time.Now,
	}
}

// ParseCounts parses "coll:n,coll:n" into per-collection counts
func ParseCounts(raw string) (map[string]int, error) {
	counts := make(map[string]int)
	if strings.TrimSpace(raw) == "" {
		return counts, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid count %q: expected collection:n", part)
		}
		name = strings.TrimSpace(name)
		if !slices.Contains(countedCollections, name) {
			return nil, fmt.Errorf("invalid count %q: collection must be one of %s", part, strings.Join(countedCollections, ", "))
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid count %q: n must be a non-negative integer", part)
		}
		counts[name] = n
	}
	return counts, nil
}

// ParseCollections parses "a,b,c" and rejects unknown collection names
func ParseCollections(raw string) ([]string, error) {
	var collections []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if !slices.Contains(SeedCollections, name) {
			return nil, fmt.Errorf("unknown collection %q: must be one of %s", name, strings.Join(SeedCollections, ", "))
		}
		if !slices.Contains(collections, name) {
			collections = append(collections, name)
		}
	}
	return collections, nil
}

func (o SeedOptions) selected(collection string) bool {
	return len(o.Collections) == 0 || slices.Contains(o.Collections, collection)
}

func (o SeedOptions) count(collection string) int {
	if n, ok := o.Counts[collection]; ok {
		return n
	}
	if o.Count > 0 {
		return o.Count
	}
	return DefaultSeedCount
}

// Seed clears (optionally) and fills the selected collections
func (s *SeedService) Seed(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	report := &SeedReport{Cleared: map[string]int64{}, Written: map[string]int{}}

	if opts.Clear {
		// dependents first
		for i := len(SeedCollections) - 1; i >= 0; i-- {
			collection := SeedCollections[i]
			if !opts.selected(collection) {
				continue
			}
			deleted, err := s.admin.Clear(ctx, collection)
			if err != nil {
				return report, err
			}
			report.Cleared[collection] = deleted
			s.logger.Info().Str("collection", collection).Int64("deleted", deleted).Msg("cleared collection")
		}
	}

	var patients, doctors []*entities.UserProfile
	if opts.selected(repositories.CollectionUsers) {
		patients, doctors = s.generateUsers(opts.count(repositories.CollectionUsers))
		accounts := append(slices.Clone(patients), doctors...)
		if err := seedWrite(ctx, s, report, repositories.CollectionUsers, accounts, s.users.InsertUsers); err != nil {
			return report, err
		}
	}

	if opts.selected(repositories.CollectionDoctorProfiles) {
		profiles := make([]*entities.DoctorProfile, 0, len(doctors))
		for _, doctor := range doctors {
			profiles = append(profiles, s.generateDoctorProfile(doctor))
		}
		if err := seedWrite(ctx, s, report, repositories.CollectionDoctorProfiles, profiles, s.users.InsertDoctors); err != nil {
			return report, err
		}
	}

	if opts.selected(repositories.CollectionPatientProfiles) {
		profiles := make([]*entities.PatientProfile, 0, len(patients))
		for _, patient := range patients {
			profiles = append(profiles, s.generatePatientProfile(patient))
		}
		if err := seedWrite(ctx, s, report, repositories.CollectionPatientProfiles, profiles, s.users.InsertPatients); err != nil {
			return report, err
		}
	}

	patientIDs := userIDs(patients)
	doctorIDs := userIDs(doctors)
	if opts.LinkAuthUsers {
		linkedPatients, err := s.users.ListUserIDs(ctx, entities.UserTypePatient, linkedUserLimit)
		if err != nil {
			return report, err
		}
		linkedDoctors, err := s.users.ListUserIDs(ctx, entities.UserTypeDoctor, linkedUserLimit)
		if err != nil {
			return report, err
		}
		patientIDs = mergeIDs(patientIDs, linkedPatients)
		doctorIDs = mergeIDs(doctorIDs, linkedDoctors)
		s.logger.Info().
			Int("linked_patients", len(linkedPatients)).
			Int("linked_doctors", len(linkedDoctors)).
			Msg("linked existing accounts")
	}

	var appointments []*entities.Appointment
	if opts.selected(repositories.CollectionAppointments) {
		n := opts.count(repositories.CollectionAppointments)
		if n > 0 && (len(patientIDs) == 0 || len(doctorIDs) == 0) {
			return report, apperrors.NewValidationError("appointments need at least one patient and one doctor",
				map[string]string{"collections": "seed users or use --link-auth-users"})
		}
		for range n {
			appointments = append(appointments, s.generateAppointment(pick(s.rng, patientIDs), pick(s.rng, doctorIDs)))
		}
		if err := seedWrite(ctx, s, report, repositories.CollectionAppointments, appointments, s.appointments.InsertBatch); err != nil {
			return report, err
		}
	}

	if opts.selected(repositories.CollectionNotifications) {
		n := opts.count(repositories.CollectionNotifications)
		recipients := mergeIDs(slices.Clone(patientIDs), doctorIDs)
		if n > 0 && len(recipients) == 0 {
			return report, apperrors.NewValidationError("notifications need at least one user",
				map[string]string{"collections": "seed users or use --link-auth-users"})
		}
		notifications := make([]*entities.Notification, 0, n)
		for range n {
			notifications = append(notifications, s.generateNotification(pick(s.rng, recipients), appointments))
		}
		if err := seedWrite(ctx, s, report, repositories.CollectionNotifications, notifications, s.notifications.InsertBatch); err != nil {
			return report, err
		}
	}

	return report, nil
}

// seedWrite commits items in batches of at most batch.MaxSize and records the tally
func seedWrite[T any](ctx context.Context, s *SeedService, report *SeedReport, collection string, items []T, commit func(context.Context, []T) error) error {
	written, err := batch.Write(ctx, items, func(ctx context.Context, chunk []T) error {
		if err := commit(ctx, chunk); err != nil {
			return err
		}
		s.logger.Debug().Str("collection", collection).Int("batch", len(chunk)).Msg("committed batch")
		return nil
	})
	report.Written[collection] = written
	if err != nil {
		s.logger.Error().Err(err).Str("collection", collection).Int("written", written).Msg("seeding failed")
		return err
	}
	s.logger.Info().Str("collection", collection).Int("written", written).Msg("seeded collection")
	return nil
}
