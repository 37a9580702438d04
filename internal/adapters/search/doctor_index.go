package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/providers"
	tsclient "github.com/careconnect/backend/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 50

// DoctorIndex implements doctor directory search using Typesense
type DoctorIndex struct {
	client *tsclient.Client
}

var _ providers.DoctorSearchProvider = (*DoctorIndex)(nil)

// NewDoctorIndex creates a new Typesense doctor index
func NewDoctorIndex(client *tsclient.Client) *DoctorIndex {
	return &DoctorIndex{client: client}
}

// Index upserts a doctor document
func (i *DoctorIndex) Index(ctx context.Context, doctor *entities.DoctorProfile, user *entities.UserProfile) error {
	_, err := i.client.Client().Collection(tsclient.DoctorsCollection).Documents().Upsert(ctx, doctorDocument(doctor, user))
	if err != nil {
		return fmt.Errorf("failed to index doctor: %w", err)
	}
	return nil
}

// Search returns matching doctor ids, best match first
func (i *DoctorIndex) Search(ctx context.Context, query providers.DoctorSearchQuery) ([]string, error) {
	result, err := i.client.Client().Collection(tsclient.DoctorsCollection).Documents().Search(ctx, searchParams(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}

	ids := make([]string, 0)
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func doctorDocument(doctor *entities.DoctorProfile, user *entities.UserProfile) map[string]interface{} {
	languages := doctor.Languages
	if languages == nil {
		languages = []string{}
	}
	document := map[string]interface{}{
		"id":                  doctor.UserID,
		"specialty":           doctor.Specialty,
		"location":            doctor.Location,
		"languages":           languages,
		"verification_status": string(doctor.VerificationStatus),
		"years_of_experience": doctor.YearsOfExperience,
		"consultation_fee":    doctor.ConsultationFee,
		"created_at":          doctor.CreatedAt.Unix(),
		"is_active":           true,
		"name":                "",
	}
	if user != nil {
		document["name"] = user.FullName()
		document["is_active"] = user.IsActive
	}
	return document
}

func searchParams(query providers.DoctorSearchQuery) *api.SearchCollectionParams {
	q := strings.TrimSpace(query.Specialty + " " + query.Location)
	if q == "" {
		q = "*"
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("specialty,location,name"),
		PerPage: pointer.Int(limit),
	}
	if query.VerifiedOnly {
		params.FilterBy = pointer.String("verification_status:=" + string(entities.VerificationStatusVerified))
	}
	return params
}
