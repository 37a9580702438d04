package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/careconnect/backend/pkg/config"
	"github.com/careconnect/backend/pkg/retry"
)

const (
	DoctorsCollection = "doctors"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
	logger zerolog.Logger
}

// NewClient creates a new Typesense client and waits for the server with backoff
func NewClient(ctx context.Context, cfg *config.TypesenseConfig, logger zerolog.Logger) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.Connect(ctx, retry.DefaultConfig(), "typesense", logger, func(ctx context.Context) error {
		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		healthy, err := client.Health(healthCtx, 2*time.Second)
		if err != nil {
			return err
		}
		if !healthy {
			return fmt.Errorf("typesense reports unhealthy")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense: %w", err)
	}

	logger.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client, logger: logger}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the doctors collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == DoctorsCollection {
			c.logger.Debug().Str("collection", DoctorsCollection).Msg("typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, DoctorsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	c.logger.Info().Str("collection", DoctorsCollection).Msg("created typesense collection")
	return nil
}

// DoctorsSchema describes the doctor directory documents
func DoctorsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: DoctorsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "specialty", Type: "string", Facet: pointer.True()},
			{Name: "location", Type: "string", Optional: pointer.True()},
			{Name: "languages", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "verification_status", Type: "string", Facet: pointer.True()},
			{Name: "years_of_experience", Type: "int32"},
			{Name: "consultation_fee", Type: "float", Optional: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}
