package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/repositories"
	"github.com/careconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/backend/pkg/errors"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

var doctorListingColumns = []any{
	"u.id", "u.email", "u.first_name", "u.last_name", "u.user_type", "u.is_active",
	"u.email_verified", "u.phone_verified", "u.phone", "u.created_at", "u.updated_at",
	"d.specialty", "d.license_number", "d.years_of_experience", "d.education", "d.bio",
	"d.verification_status", "d.verification_notes", "d.location", "d.languages",
	"d.consultation_fee", "d.profile_picture_url", "d.license_document_url",
	"d.certificate_url", "d.weekly_schedule", "d.created_at", "d.updated_at",
}

// UserAdapter implements the UserStore interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.UserStore = (*UserAdapter)(nil)

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) *UserAdapter {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetUserType resolves a user's role
func (a *UserAdapter) GetUserType(ctx context.Context, userID string) (entities.UserType, error) {
	query, args, err := a.db.Select("user_type").
		From("users").
		Where(goqu.Ex{"id": userID}).
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build query", err)
	}

	var userType string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&userType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", userID))
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to get user type", err)
	}

	parsed, _ := entities.ParseUserType(userType)
	return parsed, nil
}

// EmailExists reports whether an account already uses email
func (a *UserAdapter) EmailExists(ctx context.Context, email string) (bool, error) {
	query, args, err := a.db.Select(goqu.L("1")).
		From("users").
		Where(goqu.Func("LOWER", goqu.C("email")).Eq(strings.ToLower(email))).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var one int
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewInternalError("failed to check email", err)
	}
	return true, nil
}

// CreateUser writes the account and its role profile in one transaction
func (a *UserAdapter) CreateUser(ctx context.Context, registration *entities.Registration) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	err = tx.Wrap(func() error {
		account := userRecord(registration.User)
		account["password_hash"] = registration.PasswordHash
		if _, err := tx.Insert("users").Rows(account).Executor().ExecContext(ctx); err != nil {
			return err
		}

		if registration.Doctor != nil {
			record, err := doctorRecord(registration.Doctor)
			if err != nil {
				return err
			}
			if _, err := tx.Insert("doctor_profiles").Rows(record).Executor().ExecContext(ctx); err != nil {
				return err
			}
		}
		if registration.Patient != nil {
			if _, err := tx.Insert("patient_profiles").Rows(patientRecord(registration.Patient)).Executor().ExecContext(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewAlreadyExistsError("an account with this email already exists")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

// ListUserIDs returns up to limit ids of existing accounts of a type, oldest first
func (a *UserAdapter) ListUserIDs(ctx context.Context, userType entities.UserType, limit int) ([]string, error) {
	ds := a.db.Select("id").
		From("users").
		Where(goqu.Ex{"user_type": userType}).
		Order(goqu.I("created_at").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read users", err)
	}
	return ids, nil
}

func (a *UserAdapter) doctorListings() *goqu.SelectDataset {
	return a.db.Select(doctorListingColumns...).
		From(goqu.T("doctor_profiles").As("d")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("d.user_id"))))
}

// FindDoctors lists doctors by case-insensitive substring match on
// specialty and location
func (a *UserAdapter) FindDoctors(ctx context.Context, q repositories.DoctorListQuery) ([]*repositories.DoctorListing, error) {
	var conditions []exp.Expression
	if q.Specialty != "" {
		conditions = append(conditions, goqu.I("d.specialty").ILike(containsPattern(q.Specialty)))
	}
	if q.Location != "" {
		conditions = append(conditions, goqu.I("d.location").ILike(containsPattern(q.Location)))
	}
	if q.VerifiedOnly {
		conditions = append(conditions, goqu.I("d.verification_status").Eq(entities.VerificationStatusVerified))
	}

	ds := a.doctorListings().Where(conditions...).Order(goqu.I("u.last_name").Asc(), goqu.I("u.id").Asc())
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	return a.queryDoctorListings(ctx, ds)
}

// GetDoctors loads the listings for the given user ids, in that order.
// Unknown ids are skipped.
func (a *UserAdapter) GetDoctors(ctx context.Context, userIDs []string) ([]*repositories.DoctorListing, error) {
	if len(userIDs) == 0 {
		return []*repositories.DoctorListing{}, nil
	}

	listings, err := a.queryDoctorListings(ctx, a.doctorListings().Where(goqu.I("d.user_id").In(userIDs)))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*repositories.DoctorListing, len(listings))
	for _, listing := range listings {
		byID[listing.User.ID] = listing
	}
	ordered := make([]*repositories.DoctorListing, 0, len(listings))
	for _, id := range userIDs {
		if listing, ok := byID[id]; ok {
			ordered = append(ordered, listing)
		}
	}
	return ordered, nil
}

func (a *UserAdapter) queryDoctorListings(ctx context.Context, ds *goqu.SelectDataset) ([]*repositories.DoctorListing, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build doctor query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	listings := make([]*repositories.DoctorListing, 0)
	for rows.Next() {
		user := &entities.UserProfile{}
		doctor := &entities.DoctorProfile{}
		var phone, education, bio, notes, location, picture, license, certificate sql.NullString
		var schedule []byte

		err := rows.Scan(
			&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.UserType, &user.IsActive,
			&user.EmailVerified, &user.PhoneVerified, &phone, &user.CreatedAt, &user.UpdatedAt,
			&doctor.Specialty, &doctor.LicenseNumber, &doctor.YearsOfExperience, &education, &bio,
			&doctor.VerificationStatus, &notes, &location, pq.Array(&doctor.Languages),
			&doctor.ConsultationFee, &picture, &license,
			&certificate, &schedule, &doctor.CreatedAt, &doctor.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}

		user.Phone = phone.String
		doctor.UserID = user.ID
		doctor.Education = education.String
		doctor.Bio = bio.String
		doctor.VerificationNotes = notes.String
		doctor.Location = location.String
		doctor.ProfilePictureURL = picture.String
		doctor.LicenseDocumentURL = license.String
		doctor.CertificateURL = certificate.String
		if len(schedule) > 0 {
			if err := json.Unmarshal(schedule, &doctor.WeeklySchedule); err != nil {
				return nil, apperrors.NewInternalError("failed to decode weekly schedule", err)
			}
		}

		listings = append(listings, &repositories.DoctorListing{User: user, Doctor: doctor})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read doctors", err)
	}
	return listings, nil
}

// InsertUsers writes accounts with one multi-row insert
func (a *UserAdapter) InsertUsers(ctx context.Context, users []*entities.UserProfile) error {
	rows := make([]any, 0, len(users))
	for _, user := range users {
		rows = append(rows, userRecord(user))
	}
	return a.insertRows(ctx, "users", rows)
}

// InsertDoctors writes doctor profiles with one multi-row insert
func (a *UserAdapter) InsertDoctors(ctx context.Context, doctors []*entities.DoctorProfile) error {
	rows := make([]any, 0, len(doctors))
	for _, doctor := range doctors {
		record, err := doctorRecord(doctor)
		if err != nil {
			return apperrors.NewInternalError("failed to encode doctor profile", err)
		}
		rows = append(rows, record)
	}
	return a.insertRows(ctx, "doctor_profiles", rows)
}

// InsertPatients writes patient profiles with one multi-row insert
func (a *UserAdapter) InsertPatients(ctx context.Context, patients []*entities.PatientProfile) error {
	rows := make([]any, 0, len(patients))
	for _, patient := range patients {
		rows = append(rows, patientRecord(patient))
	}
	return a.insertRows(ctx, "patient_profiles", rows)
}

func (a *UserAdapter) insertRows(ctx context.Context, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}
	query, args, err := a.db.Insert(table).Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert into "+table, err)
	}
	return nil
}

func userRecord(user *entities.UserProfile) goqu.Record {
	return goqu.Record{
		"id":             user.ID,
		"email":          strings.ToLower(user.Email),
		"first_name":     user.FirstName,
		"last_name":      user.LastName,
		"user_type":      user.UserType,
		"is_active":      user.IsActive,
		"email_verified": user.EmailVerified,
		"phone_verified": user.PhoneVerified,
		"phone":          user.Phone,
		"created_at":     user.CreatedAt,
		"updated_at":     user.UpdatedAt,
	}
}

func doctorRecord(doctor *entities.DoctorProfile) (goqu.Record, error) {
	var schedule any
	if len(doctor.WeeklySchedule) > 0 {
		data, err := json.Marshal(doctor.WeeklySchedule)
		if err != nil {
			return nil, err
		}
		schedule = string(data)
	}
	languages := doctor.Languages
	if languages == nil {
		languages = []string{}
	}

	return goqu.Record{
		"user_id":              doctor.UserID,
		"specialty":            doctor.Specialty,
		"license_number":       doctor.LicenseNumber,
		"years_of_experience":  doctor.YearsOfExperience,
		"education":            doctor.Education,
		"bio":                  doctor.Bio,
		"verification_status":  doctor.VerificationStatus,
		"verification_notes":   doctor.VerificationNotes,
		"location":             doctor.Location,
		"languages":            pq.Array(languages),
		"consultation_fee":     doctor.ConsultationFee,
		"profile_picture_url":  doctor.ProfilePictureURL,
		"license_document_url": doctor.LicenseDocumentURL,
		"certificate_url":      doctor.CertificateURL,
		"weekly_schedule":      schedule,
		"created_at":           doctor.CreatedAt,
		"updated_at":           doctor.UpdatedAt,
	}, nil
}

func patientRecord(patient *entities.PatientProfile) goqu.Record {
	return goqu.Record{
		"user_id":         patient.UserID,
		"date_of_birth":   patient.DateOfBirth,
		"gender":          patient.Gender,
		"blood_type":      patient.BloodType,
		"medical_history": patient.MedicalHistory,
		"created_at":      patient.CreatedAt,
		"updated_at":      patient.UpdatedAt,
	}
}

// containsPattern builds an ILIKE pattern matching term anywhere, with the
// pattern metacharacters in term escaped.
func containsPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
