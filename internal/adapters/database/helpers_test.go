package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
)

func setupMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })
	return postgres.Wrap(mockDB), mock
}
