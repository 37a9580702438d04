package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/pkg/batch"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// Normalizer maps one document's fields to the changes that bring it to the
// target shape. An empty result means the document already conforms.
type Normalizer func(fields map[string]any) (map[string]any, error)

type normalization struct {
	fields    []string
	normalize Normalizer
}

var normalizations = map[string]normalization{
	repositories.CollectionAppointments: {
		fields:    []string{"status", "appointment_type", "start_time", "end_time"},
		normalize: normalizeAppointment,
	},
	repositories.CollectionUsers: {
		fields:    []string{"email", "user_type", "first_name", "last_name"},
		normalize: normalizeUser,
	},
	repositories.CollectionDoctorProfiles: {
		fields:    []string{"verification_status", "specialty", "location"},
		normalize: normalizeDoctorProfile,
	},
}

// MigratableCollections lists the collections NormalizeCollection accepts.
func MigratableCollections() []string {
	names := make([]string, 0, len(normalizations))
	for name := range normalizations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MigrationTally counts the outcome per document
type MigrationTally struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// MigrationService re-normalizes stored documents field by field
type MigrationService struct {
	admin    repositories.CollectionAdmin
	logger   zerolog.Logger
	pageSize int
}

// NewMigrationService creates a new migration service
func NewMigrationService(admin repositories.CollectionAdmin, logger zerolog.Logger) *MigrationService {
	return &MigrationService{
		admin:    admin,
		logger:   logger,
		pageSize: batch.MaxSize,
	}
}

// NormalizeCollection pages through collection and writes every changed
// document, one committed batch per page. With dryRun nothing is written.
func (s *MigrationService) NormalizeCollection(ctx context.Context, collection string, dryRun bool) (*MigrationTally, error) {
	n, ok := normalizations[collection]
	if !ok {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("collection %q cannot be normalized", collection),
			map[string]string{"collection": "must be one of " + strings.Join(MigratableCollections(), ", ")},
		)
	}

	logger := s.logger.With().Str("collection", collection).Bool("dry_run", dryRun).Logger()
	tally := &MigrationTally{}
	afterID := ""

	for {
		documents, err := s.admin.Scan(ctx, collection, n.fields, afterID, s.pageSize)
		if err != nil {
			return tally, err
		}
		if len(documents) == 0 {
			break
		}

		updates := make([]repositories.DocumentUpdate, 0, len(documents))
		for _, doc := range documents {
			tally.Scanned++
			changes, err := n.normalize(doc.Fields)
			switch {
			case err != nil:
				tally.Errored++
				logger.Warn().Err(err).Str("document_id", doc.ID).Msg("document cannot be normalized")
			case len(changes) == 0:
				tally.Skipped++
			default:
				updates = append(updates, repositories.DocumentUpdate{ID: doc.ID, Fields: changes})
			}
		}

		if len(updates) > 0 && !dryRun {
			if err := s.admin.ApplyBatch(ctx, collection, updates); err != nil {
				logger.Error().Err(err).Int("batch", len(updates)).Msg("batch commit failed")
				return tally, err
			}
		}
		tally.Updated += len(updates)

		logger.Info().
			Int("scanned", tally.Scanned).
			Int("updated", tally.Updated).
			Int("skipped", tally.Skipped).
			Int("errored", tally.Errored).
			Msg("migration progress")

		if len(documents) < s.pageSize {
			break
		}
		afterID = documents[len(documents)-1].ID
	}

	return tally, nil
}

func normalizeAppointment(fields map[string]any) (map[string]any, error) {
	changes := make(map[string]any)

	raw := stringField(fields, "status")
	status, ok := entities.ParseAppointmentStatus(raw)
	if raw == "" {
		status, ok = entities.AppointmentStatusPending, true
	}
	if !ok {
		return nil, fmt.Errorf("unknown status %q", raw)
	}
	setChanged(changes, fields, "status", string(status))

	if raw := stringField(fields, "appointment_type"); raw != "" {
		appointmentType, ok := entities.ParseAppointmentType(raw)
		if !ok {
			return nil, fmt.Errorf("unknown appointment type %q", raw)
		}
		setChanged(changes, fields, "appointment_type", string(appointmentType))
	}

	for _, key := range []string{"start_time", "end_time"} {
		raw := stringField(fields, key)
		if raw == "" {
			continue
		}
		clock, err := normalizeClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		setChanged(changes, fields, key, clock)
	}
	return changes, nil
}

func normalizeUser(fields map[string]any) (map[string]any, error) {
	changes := make(map[string]any)

	email := strings.ToLower(strings.TrimSpace(stringField(fields, "email")))
	if email == "" {
		return nil, fmt.Errorf("missing email")
	}
	setChanged(changes, fields, "email", email)

	raw := stringField(fields, "user_type")
	userType, ok := entities.ParseUserType(raw)
	if !ok {
		return nil, fmt.Errorf("unknown user type %q", raw)
	}
	setChanged(changes, fields, "user_type", string(userType))

	setChanged(changes, fields, "first_name", strings.TrimSpace(stringField(fields, "first_name")))
	setChanged(changes, fields, "last_name", strings.TrimSpace(stringField(fields, "last_name")))
	return changes, nil
}

func normalizeDoctorProfile(fields map[string]any) (map[string]any, error) {
	changes := make(map[string]any)

	raw := stringField(fields, "verification_status")
	status, ok := entities.ParseVerificationStatus(raw)
	if raw == "" {
		status, ok = entities.VerificationStatusPending, true
	}
	if !ok {
		return nil, fmt.Errorf("unknown verification status %q", raw)
	}
	setChanged(changes, fields, "verification_status", string(status))

	setChanged(changes, fields, "specialty", strings.TrimSpace(stringField(fields, "specialty")))
	if _, present := fields["location"]; present && fields["location"] != nil {
		setChanged(changes, fields, "location", strings.TrimSpace(stringField(fields, "location")))
	}
	return changes, nil
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm", "15.04"}

// normalizeClock rewrites a wall-clock time as zero-padded HH:MM
func normalizeClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("unrecognized time %q", raw)
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func setChanged(changes, fields map[string]any, key, value string) {
	if stringField(fields, key) != value {
		changes[key] = value
	}
}
