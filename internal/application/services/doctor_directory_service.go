package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/providers"
	"github.com/careconnect/backend/internal/domain/repositories"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// DefaultDoctorLimit caps find-doctors results when the caller sets no limit.
const DefaultDoctorLimit = 50

// FindDoctorsRequest is the input of find-doctors
type FindDoctorsRequest struct {
	Specialty    string `json:"specialty,omitempty"`
	Location     string `json:"location,omitempty"`
	VerifiedOnly bool   `json:"verifiedOnly,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// FindDoctorsResponse is the output of find-doctors
type FindDoctorsResponse struct {
	Doctors []*repositories.DoctorListing `json:"doctors"`
}

// DoctorDirectoryService searches doctors through the index when one is
// configured and through the database otherwise
type DoctorDirectoryService struct {
	users  repositories.UserStore
	search providers.DoctorSearchProvider
	logger zerolog.Logger
}

// NewDoctorDirectoryService creates a new doctor directory service. search may be nil.
func NewDoctorDirectoryService(
	users repositories.UserStore,
	search providers.DoctorSearchProvider,
	logger zerolog.Logger,
) *DoctorDirectoryService {
	return &DoctorDirectoryService{
		users:  users,
		search: search,
		logger: logger.With().Str("function", "find-doctors").Logger(),
	}
}

// FindDoctors lists doctors matching the request
func (s *DoctorDirectoryService) FindDoctors(ctx context.Context, req FindDoctorsRequest) (*FindDoctorsResponse, error) {
	start := time.Now()

	if req.Limit < 0 {
		return nil, apperrors.NewValidationError("invalid doctor query", map[string]string{"limit": "must not be negative"})
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultDoctorLimit
	}

	specialty := strings.TrimSpace(req.Specialty)
	location := strings.TrimSpace(req.Location)
	logger := s.logger.With().
		Str("specialty", specialty).
		Str("location", location).
		Bool("verified_only", req.VerifiedOnly).
		Logger()

	var (
		doctors []*repositories.DoctorListing
		source  = "database"
		err     error
	)

	if s.search != nil {
		var ids []string
		ids, err = s.search.Search(ctx, providers.DoctorSearchQuery{
			Specialty:    specialty,
			Location:     location,
			VerifiedOnly: req.VerifiedOnly,
			Limit:        limit,
		})
		if err == nil {
			source = "index"
			doctors, err = s.users.GetDoctors(ctx, ids)
		} else {
			logger.Warn().Err(err).Msg("doctor index unavailable, querying database")
		}
	}

	if source == "database" {
		doctors, err = s.users.FindDoctors(ctx, repositories.DoctorListQuery{
			Specialty:    specialty,
			Location:     location,
			VerifiedOnly: req.VerifiedOnly,
			Limit:        limit,
		})
	}
	if err != nil {
		logger.Error().Err(err).Str("source", source).Msg("doctor query failed")
		return nil, apperrors.NewInternalError("failed to find doctors", err)
	}

	logger.Info().
		Str("source", source).
		Int("count", len(doctors)).
		Dur("duration", time.Since(start)).
		Msg("found doctors")

	return &FindDoctorsResponse{Doctors: doctors}, nil
}
