package local

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
)

// Storage keys of the local data layer.
const (
	KeyAppointments      = "appointments"
	KeyUserProfiles      = "user_profiles"
	KeyDoctorProfiles    = "doctor_profiles"
	KeyPatientProfiles   = "patient_profiles"
	KeyNotifications     = "notifications"
	KeyCurrentUser       = "current_user"
	KeyPreferencesPrefix = "user_preferences_"
)

// errNotFound aborts a mutation whose target record does not exist.
var errNotFound = errors.New("record not found")

// ChangePublisher announces successful mutations to other views
type ChangePublisher interface {
	Publish(ctx context.Context, event *entities.ChangeEvent) error
}

// notifier publishes change events when a publisher is configured.
type notifier struct {
	publisher ChangePublisher
	logger    zerolog.Logger
}

func (n notifier) notify(ctx context.Context, event *entities.ChangeEvent) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn().Err(err).
			Str("type", event.Type).
			Str("entity_id", event.EntityID).
			Msg("failed to publish change event")
	}
}

func timeNow() time.Time {
	return time.Now().UTC()
}
