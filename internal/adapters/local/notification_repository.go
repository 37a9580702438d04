package local

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/adapters/storage"
	"github.com/careconnect/backend/internal/domain/entities"
)

// NotificationRepository manages the notifications collection of the local data layer
type NotificationRepository struct {
	store  *storage.JSONStore
	events notifier
	now    func() time.Time
}

// NewNotificationRepository creates a notification repository; publisher may be nil
func NewNotificationRepository(store *storage.JSONStore, publisher ChangePublisher, logger zerolog.Logger) *NotificationRepository {
	logger = logger.With().Str("repository", "notifications").Logger()
	return &NotificationRepository{
		store:  store,
		events: notifier{publisher: publisher, logger: logger},
		now:    timeNow,
	}
}

func (r *NotificationRepository) load(ctx context.Context) []*entities.Notification {
	return storage.Load(ctx, r.store, KeyNotifications, []*entities.Notification{})
}

// ListNotifications returns a user's notifications, newest first
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) []*entities.Notification {
	result := make([]*entities.Notification, 0)
	for _, n := range r.load(ctx) {
		if n == nil || n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		result = append(result, n)
	}
	slices.SortStableFunc(result, func(a, b *entities.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result
}

// UnreadCount counts a user's unread notifications
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) int {
	count := 0
	for _, n := range r.load(ctx) {
		if n != nil && n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count
}

// CreateNotification stores a copy of notification under a new id. Returns
// nil when the write failed.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification *entities.Notification) *entities.Notification {
	created := *notification
	created.ID = uuid.NewString()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.now()
	}

	err := storage.Mutate(ctx, r.store, KeyNotifications, []*entities.Notification{},
		func(all []*entities.Notification) ([]*entities.Notification, error) {
			return append(all, &created), nil
		})
	if err != nil {
		return nil
	}

	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeNotifications, KeyNotifications, created.ID, entities.ChangeOpCreated, &created))
	return &created
}

// MarkAsRead flags one notification as read
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) bool {
	var updated *entities.Notification
	err := storage.Mutate(ctx, r.store, KeyNotifications, []*entities.Notification{},
		func(all []*entities.Notification) ([]*entities.Notification, error) {
			idx := slices.IndexFunc(all, func(n *entities.Notification) bool { return n != nil && n.ID == id })
			if idx < 0 {
				return nil, errNotFound
			}
			n := *all[idx]
			n.IsRead = true
			all[idx] = &n
			updated = &n
			return all, nil
		})
	if err != nil {
		return false
	}

	r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeNotifications, KeyNotifications, id, entities.ChangeOpUpdated, updated))
	return true
}

// MarkAllAsRead flags every unread notification of a user and returns how many changed
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID string) int {
	changed := 0
	err := storage.Mutate(ctx, r.store, KeyNotifications, []*entities.Notification{},
		func(all []*entities.Notification) ([]*entities.Notification, error) {
			changed = 0
			for i, n := range all {
				if n == nil || n.UserID != userID || n.IsRead {
					continue
				}
				read := *n
				read.IsRead = true
				all[i] = &read
				changed++
			}
			return all, nil
		})
	if err != nil {
		return 0
	}

	if changed > 0 {
		r.events.notify(ctx, entities.NewChangeEvent(entities.ChangeTypeNotifications, KeyNotifications, "", entities.ChangeOpRefresh, nil))
	}
	return changed
}
