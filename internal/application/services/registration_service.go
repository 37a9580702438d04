package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/providers"
	"github.com/careconnect/backend/internal/domain/repositories"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// MinPasswordLength is the shortest password register-user accepts.
const MinPasswordLength = 6

// RegisterUserRequest is the input of register-user, discriminated by UserType
type RegisterUserRequest struct {
	UserType  string `json:"userType"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`

	// DOCTOR only
	Specialty         string   `json:"specialty,omitempty"`
	LicenseNumber     string   `json:"licenseNumber,omitempty"`
	YearsOfExperience int      `json:"yearsOfExperience,omitempty"`
	Education         string   `json:"education,omitempty"`
	Bio               string   `json:"bio,omitempty"`
	Location          string   `json:"location,omitempty"`
	Languages         []string `json:"languages,omitempty"`
	ConsultationFee   float64  `json:"consultationFee,omitempty"`

	// PATIENT only
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	BloodType   string `json:"bloodType,omitempty"`
}

// RegisterUserResponse is the output of register-user
type RegisterUserResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// RegistrationService creates accounts with their role profile
type RegistrationService struct {
	users  repositories.UserStore
	search providers.DoctorSearchProvider
	logger zerolog.Logger
	cost   int
	now    func() time.Time
}

// NewRegistrationService creates a new registration service. search may be nil.
func NewRegistrationService(
	users repositories.UserStore,
	search providers.DoctorSearchProvider,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		users:  users,
		search: search,
		logger: logger.With().Str("function", "register-user").Logger(),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// RegisterUser validates the request and persists the account
func (s *RegistrationService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*RegisterUserResponse, error) {
	start := time.Now()

	userType, err := validateRegistration(&req)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_type", req.UserType).Msg("rejected invalid input")
		return nil, err
	}

	logger := s.logger.With().Str("user_type", string(userType)).Logger()

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		logger.Error().Err(err).Msg("email lookup failed")
		return nil, apperrors.NewInternalError("failed to register user", err)
	}
	if exists {
		logger.Warn().Msg("email already registered")
		return nil, apperrors.NewAlreadyExistsError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		logger.Error().Err(err).Msg("password hashing failed")
		return nil, apperrors.NewInternalError("failed to register user", err)
	}

	registration := s.buildRegistration(req, userType, string(hash))
	if err := s.users.CreateUser(ctx, registration); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeAlreadyExists) {
			logger.Warn().Msg("email already registered")
			return nil, err
		}
		logger.Error().Err(err).Msg("account creation failed")
		return nil, apperrors.NewInternalError("failed to register user", err)
	}

	userID := registration.User.ID
	if registration.Doctor != nil && s.search != nil {
		if err := s.search.Index(ctx, registration.Doctor, registration.User); err != nil {
			// the account exists; the directory falls back to the database
			logger.Warn().Err(err).Str("user_id", userID).Msg("failed to index doctor")
		}
	}

	logger.Info().
		Str("user_id", userID).
		Dur("duration", time.Since(start)).
		Msg("registered user")

	return &RegisterUserResponse{Success: true, UserID: userID}, nil
}

func (s *RegistrationService) buildRegistration(req RegisterUserRequest, userType entities.UserType, hash string) *entities.Registration {
	now := s.now().UTC()
	user := &entities.UserProfile{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserType:  userType,
		IsActive:  true,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	registration := &entities.Registration{User: user, PasswordHash: hash}
	switch userType {
	case entities.UserTypeDoctor:
		registration.Doctor = &entities.DoctorProfile{
			UserID:             user.ID,
			Specialty:          req.Specialty,
			LicenseNumber:      req.LicenseNumber,
			YearsOfExperience:  req.YearsOfExperience,
			Education:          req.Education,
			Bio:                req.Bio,
			VerificationStatus: entities.VerificationStatusPending,
			Location:           req.Location,
			Languages:          req.Languages,
			ConsultationFee:    req.ConsultationFee,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
	case entities.UserTypePatient:
		registration.Patient = &entities.PatientProfile{
			UserID:      user.ID,
			DateOfBirth: req.DateOfBirth,
			Gender:      req.Gender,
			BloodType:   req.BloodType,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return registration
}

// validateRegistration trims the request in place and returns the parsed user type
func validateRegistration(req *RegisterUserRequest) (entities.UserType, error) {
	fields := make(map[string]string)

	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Specialty = strings.TrimSpace(req.Specialty)
	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)

	userType, ok := entities.ParseUserType(req.UserType)
	if !ok || userType == entities.UserTypeAdmin {
		fields["userType"] = "must be PATIENT or DOCTOR"
	}

	if req.Email == "" {
		fields["email"] = "is required"
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		fields["email"] = "must be a valid email address"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	} else if len(req.Password) < MinPasswordLength {
		fields["password"] = "must be at least 6 characters"
	}
	if req.FirstName == "" {
		fields["firstName"] = "is required"
	}
	if req.LastName == "" {
		fields["lastName"] = "is required"
	}

	if userType == entities.UserTypeDoctor {
		if req.Specialty == "" {
			fields["specialty"] = "is required"
		}
		if req.LicenseNumber == "" {
			fields["licenseNumber"] = "is required"
		}
		if req.YearsOfExperience < 0 {
			fields["yearsOfExperience"] = "must not be negative"
		}
		if req.ConsultationFee < 0 {
			fields["consultationFee"] = "must not be negative"
		}
	}

	if len(fields) > 0 {
		return "", apperrors.NewValidationError("invalid registration", fields)
	}
	return userType, nil
}
