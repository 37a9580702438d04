package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// collectionKeys maps each maintained collection to its primary key column
var collectionKeys = map[string]string{
	repositories.CollectionUsers:           "id",
	repositories.CollectionDoctorProfiles:  "user_id",
	repositories.CollectionPatientProfiles: "user_id",
	repositories.CollectionAppointments:    "id",
	repositories.CollectionNotifications:   "id",
}

// CollectionAdapter implements the CollectionAdmin interface over the
// Postgres tables backing each collection
type CollectionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CollectionAdmin = (*CollectionAdapter)(nil)

// NewCollectionAdapter creates a new collection adapter
func NewCollectionAdapter(client *postgres.Client) *CollectionAdapter {
	return &CollectionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func keyColumn(collection string) (string, error) {
	key, ok := collectionKeys[collection]
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown collection %q", collection), map[string]string{"collection": "unknown collection"})
	}
	return key, nil
}

// Clear deletes every document of a collection
func (a *CollectionAdapter) Clear(ctx context.Context, collection string) (int64, error) {
	if _, err := keyColumn(collection); err != nil {
		return 0, err
	}

	query, args, err := a.db.Delete(collection).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to clear "+collection, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return deleted, nil
}

// Scan returns up to limit documents ordered by key, starting after afterID
func (a *CollectionAdapter) Scan(ctx context.Context, collection string, fields []string, afterID string, limit int) ([]repositories.Document, error) {
	key, err := keyColumn(collection)
	if err != nil {
		return nil, err
	}

	columns := []any{goqu.I(key).As("doc_id")}
	for _, field := range fields {
		columns = append(columns, goqu.I(field))
	}

	ds := a.db.Select(columns...).From(collection).Order(goqu.I(key).Asc())
	if afterID != "" {
		ds = ds.Where(goqu.I(key).Gt(afterID))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build scan query", err)
	}

	rows, err := a.client.DBx().QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan "+collection, err)
	}
	defer rows.Close()

	var documents []repositories.Document
	for rows.Next() {
		values := make(map[string]any)
		if err := rows.MapScan(values); err != nil {
			return nil, apperrors.NewInternalError("failed to read document", err)
		}
		for column, value := range values {
			if raw, ok := value.([]byte); ok {
				values[column] = string(raw)
			}
		}
		id, _ := values["doc_id"].(string)
		delete(values, "doc_id")
		documents = append(documents, repositories.Document{ID: id, Fields: values})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read "+collection, err)
	}
	return documents, nil
}

// ApplyBatch writes all updates in one transaction
func (a *CollectionAdapter) ApplyBatch(ctx context.Context, collection string, updates []repositories.DocumentUpdate) error {
	key, err := keyColumn(collection)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	err = tx.Wrap(func() error {
		for _, update := range updates {
			if len(update.Fields) == 0 {
				continue
			}
			_, err := tx.Update(collection).
				Set(goqu.Record(update.Fields)).
				Where(goqu.Ex{key: update.ID}).
				Executor().
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("update %s: %w", update.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.NewInternalError("failed to apply batch to "+collection, err)
	}
	return nil
}
