package local

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/adapters/storage"
	"github.com/careconnect/backend/internal/domain/entities"
)

// PreferencesRepository stores one UserPreferences record per user
type PreferencesRepository struct {
	store  *storage.JSONStore
	events notifier
}

// NewPreferencesRepository creates a preferences repository; publisher may be nil
func NewPreferencesRepository(store *storage.JSONStore, publisher ChangePublisher, logger zerolog.Logger) *PreferencesRepository {
	logger = logger.With().Str("repository", "preferences").Logger()
	return &PreferencesRepository{
		store:  store,
		events: notifier{publisher: publisher, logger: logger},
	}
}

func preferencesKey(userID string) string {
	return KeyPreferencesPrefix + userID
}

// GetPreferences returns the user's preferences, persisting the defaults on first read.
func (r *PreferencesRepository) GetPreferences(ctx context.Context, userID string) *entities.UserPreferences {
	key := preferencesKey(userID)
	if prefs := storage.Load[*entities.UserPreferences](ctx, r.store, key, nil); prefs != nil {
		return prefs
	}

	prefs := entities.DefaultPreferences(userID)
	r.store.Save(ctx, key, prefs)
	return prefs
}

// SavePreferences overwrites the user's preferences wholesale
func (r *PreferencesRepository) SavePreferences(ctx context.Context, prefs *entities.UserPreferences) bool {
	if prefs == nil || prefs.UserID == "" {
		return false
	}
	if !r.store.Save(ctx, preferencesKey(prefs.UserID), prefs) {
		return false
	}
	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypePreferences, preferencesKey(prefs.UserID), prefs.UserID, entities.ChangeOpUpdated, prefs))
	return true
}
