package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// NotificationAdapter implements the NotificationStore interface
type NotificationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.NotificationStore = (*NotificationAdapter)(nil)

// NewNotificationAdapter creates a new notification adapter
func NewNotificationAdapter(client *postgres.Client) *NotificationAdapter {
	return &NotificationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// notificationRow mirrors the notifications table, where related_id is nullable
type notificationRow struct {
	ID        string                    `db:"id"`
	UserID    string                    `db:"user_id"`
	Type      entities.NotificationType `db:"type"`
	Title     string                    `db:"title"`
	Message   string                    `db:"message"`
	IsRead    bool                      `db:"is_read"`
	RelatedID *string                   `db:"related_id"`
	CreatedAt time.Time                 `db:"created_at"`
}

// ListByUser returns a user's notifications, newest first
func (a *NotificationAdapter) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Notification, error) {
	ds := a.db.Select("id", "user_id", "type", "title", "message", "is_read", "related_id", "created_at").
		From("notifications").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []notificationRow
	if err := a.client.DBx().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list notifications", err)
	}

	notifications := make([]*entities.Notification, 0, len(rows))
	for _, row := range rows {
		n := &entities.Notification{
			ID:        row.ID,
			UserID:    row.UserID,
			Type:      row.Type,
			Title:     row.Title,
			Message:   row.Message,
			IsRead:    row.IsRead,
			CreatedAt: row.CreatedAt,
		}
		if row.RelatedID != nil {
			n.RelatedID = *row.RelatedID
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// InsertBatch writes notifications with one multi-row insert
func (a *NotificationAdapter) InsertBatch(ctx context.Context, notifications []*entities.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	rows := make([]any, 0, len(notifications))
	for _, n := range notifications {
		var relatedID any
		if n.RelatedID != "" {
			relatedID = n.RelatedID
		}
		rows = append(rows, goqu.Record{
			"id":         n.ID,
			"user_id":    n.UserID,
			"type":       n.Type,
			"title":      n.Title,
			"message":    n.Message,
			"is_read":    n.IsRead,
			"related_id": relatedID,
			"created_at": n.CreatedAt,
		})
	}

	query, args, err := a.db.Insert("notifications").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert notifications", err)
	}
	return nil
}
