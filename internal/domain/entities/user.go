package entities

import (
	"strings"
	"time"
)

// UserType is the role of an account holder
type UserType string

const (
	UserTypePatient UserType = "PATIENT"
	UserTypeDoctor  UserType = "DOCTOR"
	UserTypeAdmin   UserType = "ADMIN"
)

// ParseUserType canonicalizes casing and reports whether raw is a known user type.
func ParseUserType(raw string) (UserType, bool) {
	t := UserType(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case UserTypePatient, UserTypeDoctor, UserTypeAdmin:
		return t, true
	}
	return t, false
}

// VerificationStatus gates doctor discoverability in principle; enforcement is
// left to each caller.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

// ParseVerificationStatus canonicalizes casing and maps APPROVED to VERIFIED.
func ParseVerificationStatus(raw string) (VerificationStatus, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "APPROVED" {
		s = string(VerificationStatusVerified)
	}
	v := VerificationStatus(s)
	switch v {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return v, true
	}
	return v, false
}

// UserProfile represents an account holder
type UserProfile struct {
	ID            string    `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	FirstName     string    `json:"firstName" db:"first_name"`
	LastName      string    `json:"lastName" db:"last_name"`
	UserType      UserType  `json:"userType" db:"user_type"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	PhoneVerified bool      `json:"phoneVerified" db:"phone_verified"`
	Phone         string    `json:"phone,omitempty" db:"phone"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName returns "First Last".
func (u *UserProfile) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TimeSlot is a bookable wall-clock window, e.g. 09:00-09:30.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DoctorProfile extends a DOCTOR UserProfile; UserID is also its key.
type DoctorProfile struct {
	UserID             string                `json:"userId" db:"user_id"`
	Specialty          string                `json:"specialty" db:"specialty"`
	LicenseNumber      string                `json:"licenseNumber" db:"license_number"`
	YearsOfExperience  int                   `json:"yearsOfExperience" db:"years_of_experience"`
	Education          string                `json:"education,omitempty" db:"education"`
	Bio                string                `json:"bio,omitempty" db:"bio"`
	VerificationStatus VerificationStatus    `json:"verificationStatus" db:"verification_status"`
	VerificationNotes  string                `json:"verificationNotes,omitempty" db:"verification_notes"`
	Location           string                `json:"location,omitempty" db:"location"`
	Languages          []string              `json:"languages,omitempty" db:"languages"`
	ConsultationFee    float64               `json:"consultationFee" db:"consultation_fee"`
	ProfilePictureURL  string                `json:"profilePictureUrl,omitempty" db:"profile_picture_url"`
	LicenseDocumentURL string                `json:"licenseDocumentUrl,omitempty" db:"license_document_url"`
	CertificateURL     string                `json:"certificateUrl,omitempty" db:"certificate_url"`
	WeeklySchedule     map[string][]TimeSlot `json:"weeklySchedule,omitempty" db:"weekly_schedule"`
	CreatedAt          time.Time             `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time             `json:"updatedAt" db:"updated_at"`
}

// PatientProfile extends a PATIENT UserProfile.
type PatientProfile struct {
	UserID         string    `json:"userId" db:"user_id"`
	DateOfBirth    string    `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Gender         string    `json:"gender,omitempty" db:"gender"`
	BloodType      string    `json:"bloodType,omitempty" db:"blood_type"`
	MedicalHistory string    `json:"medicalHistory,omitempty" db:"medical_history"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// UserProfilePatch carries a self-service account edit; nil fields are left
// untouched. UserType and activation are not editable here.
type UserProfilePatch struct {
	Email         *string `json:"email,omitempty"`
	FirstName     *string `json:"firstName,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
	EmailVerified *bool   `json:"emailVerified,omitempty"`
	PhoneVerified *bool   `json:"phoneVerified,omitempty"`
	Phone         *string `json:"phone,omitempty"`
}

// Apply merges the patch into u.
func (p UserProfilePatch) Apply(u *UserProfile) {
	setIfPresent(&u.Email, p.Email)
	setIfPresent(&u.FirstName, p.FirstName)
	setIfPresent(&u.LastName, p.LastName)
	setIfPresent(&u.EmailVerified, p.EmailVerified)
	setIfPresent(&u.PhoneVerified, p.PhoneVerified)
	setIfPresent(&u.Phone, p.Phone)
}

// DoctorProfilePatch carries a self-service doctor profile edit; nil fields are
// left untouched. Verification is changed only by the admin verification action.
type DoctorProfilePatch struct {
	Specialty          *string                `json:"specialty,omitempty"`
	LicenseNumber      *string                `json:"licenseNumber,omitempty"`
	YearsOfExperience  *int                   `json:"yearsOfExperience,omitempty"`
	Education          *string                `json:"education,omitempty"`
	Bio                *string                `json:"bio,omitempty"`
	Location           *string                `json:"location,omitempty"`
	Languages          *[]string              `json:"languages,omitempty"`
	ConsultationFee    *float64               `json:"consultationFee,omitempty"`
	ProfilePictureURL  *string                `json:"profilePictureUrl,omitempty"`
	LicenseDocumentURL *string                `json:"licenseDocumentUrl,omitempty"`
	CertificateURL     *string                `json:"certificateUrl,omitempty"`
	WeeklySchedule     *map[string][]TimeSlot `json:"weeklySchedule,omitempty"`
}

// Apply merges the patch into d.
func (p DoctorProfilePatch) Apply(d *DoctorProfile) {
	setIfPresent(&d.Specialty, p.Specialty)
	setIfPresent(&d.LicenseNumber, p.LicenseNumber)
	setIfPresent(&d.YearsOfExperience, p.YearsOfExperience)
	setIfPresent(&d.Education, p.Education)
	setIfPresent(&d.Bio, p.Bio)
	setIfPresent(&d.Location, p.Location)
	setIfPresent(&d.Languages, p.Languages)
	setIfPresent(&d.ConsultationFee, p.ConsultationFee)
	setIfPresent(&d.ProfilePictureURL, p.ProfilePictureURL)
	setIfPresent(&d.LicenseDocumentURL, p.LicenseDocumentURL)
	setIfPresent(&d.CertificateURL, p.CertificateURL)
	setIfPresent(&d.WeeklySchedule, p.WeeklySchedule)
}

// PatientProfilePatch carries a self-service patient profile edit; nil fields
// are left untouched.
type PatientProfilePatch struct {
	DateOfBirth    *string `json:"dateOfBirth,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	BloodType      *string `json:"bloodType,omitempty"`
	MedicalHistory *string `json:"medicalHistory,omitempty"`
}

// Apply merges the patch into profile.
func (p PatientProfilePatch) Apply(profile *PatientProfile) {
	setIfPresent(&profile.DateOfBirth, p.DateOfBirth)
	setIfPresent(&profile.Gender, p.Gender)
	setIfPresent(&profile.BloodType, p.BloodType)
	setIfPresent(&profile.MedicalHistory, p.MedicalHistory)
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Registration is everything the register-user flow persists for one account.
type Registration struct {
	User         *UserProfile
	PasswordHash string
	Doctor       *DoctorProfile
	Patient      *PatientProfile
}

// Caller is the authenticated identity attached to a request. UserType is the
// role asserted by the token issuer and may be empty.
type Caller struct {
	UserID   string
	Email    string
	UserType UserType
}

// IsAdmin reports whether the caller holds the ADMIN role
func (c *Caller) IsAdmin() bool {
	return c != nil && c.UserType == UserTypeAdmin
}
