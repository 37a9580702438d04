package services

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/backend/internal/domain/entities"
)

var (
	seedFirstNames  = []string{"Amara", "Chidi", "Fatima", "Kwame", "Ngozi", "Tunde", "Aisha", "Emeka", "Zainab", "Femi", "Grace", "Ibrahim"}
	seedLastNames   = []string{"Okafor", "Adeyemi", "Bello", "Mensah", "Eze", "Balogun", "Ogunleye", "Danjuma", "Nwosu", "Abubakar"}
	seedSpecialties = []string{"Cardiology", "Dermatology", "Pediatrics", "Neurology", "Orthopedics", "General Practice", "Psychiatry", "Ophthalmology"}
	seedLocations   = []string{"Lagos", "Abuja", "Port Harcourt", "Ibadan", "Kano", "Enugu", "Accra", "Nairobi"}
	seedLanguages   = []string{"English", "Yoruba", "Igbo", "Hausa", "French", "Swahili"}
	seedReasons     = []string{"Routine check-up", "Follow-up consultation", "Persistent headache", "Skin rash", "Chest pain", "Prescription renewal"}
	seedBloodTypes  = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	seedGenders     = []string{"female", "male"}
	seedDays        = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	seedStatuses    = []entities.AppointmentStatus{
		entities.AppointmentStatusPending,
		entities.AppointmentStatusConfirmed,
		entities.AppointmentStatusCompleted,
		entities.AppointmentStatusCancelledByPatient,
		entities.AppointmentStatusCancelledByDoctor,
		entities.AppointmentStatusScheduled,
	}
	seedNotificationTypes = []entities.NotificationType{
		entities.NotificationAppointmentBooked,
		entities.NotificationAppointmentReminder,
		entities.NotificationAppointmentCancelled,
		entities.NotificationSystem,
	}
)

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

func userIDs(users []*entities.UserProfile) []string {
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids
}

func mergeIDs(ids, more []string) []string {
	for _, id := range more {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// generateUsers splits n accounts between patients and doctors, patients first
func (s *SeedService) generateUsers(n int) (patients, doctors []*entities.UserProfile) {
	now := s.now().UTC()
	for i := range n {
		userType := entities.UserTypePatient
		if i%2 == 1 {
			userType = entities.UserTypeDoctor
		}
		id := uuid.NewString()
		first := pick(s.rng, seedFirstNames)
		last := pick(s.rng, seedLastNames)
		user := &entities.UserProfile{
			ID:            id,
			Email:         fmt.Sprintf("seed.%s.%s@example.com", id[:8], first),
			FirstName:     first,
			LastName:      last,
			UserType:      userType,
			IsActive:      true,
			EmailVerified: s.rng.IntN(4) != 0,
			Phone:         fmt.Sprintf("+234%010d", s.rng.Int64N(10_000_000_000)),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if userType == entities.UserTypeDoctor {
			doctors = append(doctors, user)
		} else {
			patients = append(patients, user)
		}
	}
	return patients, doctors
}

func (s *SeedService) generateDoctorProfile(user *entities.UserProfile) *entities.DoctorProfile {
	status := entities.VerificationStatusVerified
	if s.rng.IntN(4) == 0 {
		status = entities.VerificationStatusPending
	}

	schedule := make(map[string][]entities.TimeSlot)
	for _, day := range seedDays {
		if s.rng.IntN(3) == 0 {
			continue
		}
		schedule[day] = []entities.TimeSlot{{Start: "09:00", End: "12:00"}, {Start: "13:00", End: "17:00"}}
	}

	languages := []string{"English"}
	if extra := pick(s.rng, seedLanguages); extra != "English" {
		languages = append(languages, extra)
	}

	return &entities.DoctorProfile{
		UserID:             user.ID,
		Specialty:          pick(s.rng, seedSpecialties),
		LicenseNumber:      fmt.Sprintf("MDCN-%06d", s.rng.IntN(1_000_000)),
		YearsOfExperience:  1 + s.rng.IntN(30),
		Bio:                fmt.Sprintf("Dr. %s is a seeded test doctor.", user.LastName),
		VerificationStatus: status,
		Location:           pick(s.rng, seedLocations),
		Languages:          languages,
		ConsultationFee:    float64(5+s.rng.IntN(96)) * 1000,
		WeeklySchedule:     schedule,
		CreatedAt:          user.CreatedAt,
		UpdatedAt:          user.UpdatedAt,
	}
}

func (s *SeedService) generatePatientProfile(user *entities.UserProfile) *entities.PatientProfile {
	birth := time.Date(1950+s.rng.IntN(55), time.Month(1+s.rng.IntN(12)), 1+s.rng.IntN(28), 0, 0, 0, 0, time.UTC)
	return &entities.PatientProfile{
		UserID:      user.ID,
		DateOfBirth: birth.Format(time.DateOnly),
		Gender:      pick(s.rng, seedGenders),
		BloodType:   pick(s.rng, seedBloodTypes),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// generateAppointment spreads dates across the 60 days either side of now
func (s *SeedService) generateAppointment(patientID, doctorID string) *entities.Appointment {
	now := s.now().UTC()
	day := now.AddDate(0, 0, s.rng.IntN(121)-60).Truncate(24 * time.Hour)
	hour := 9 + s.rng.IntN(8)

	status := pick(s.rng, seedStatuses)
	if day.Before(now) && (status == entities.AppointmentStatusPending || status == entities.AppointmentStatusScheduled) {
		status = entities.AppointmentStatusCompleted
	}
	appointmentType := entities.AppointmentTypeInPerson
	if s.rng.IntN(3) == 0 {
		appointmentType = entities.AppointmentTypeVideo
	}

	return &entities.Appointment{
		ID:              uuid.NewString(),
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: day.Add(time.Duration(hour) * time.Hour),
		StartTime:       fmt.Sprintf("%02d:00", hour),
		EndTime:         fmt.Sprintf("%02d:30", hour),
		Status:          status,
		Reason:          pick(s.rng, seedReasons),
		AppointmentType: appointmentType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// generateNotification links to one of the recipient's appointments when there is one
func (s *SeedService) generateNotification(userID string, appointments []*entities.Appointment) *entities.Notification {
	notificationType := pick(s.rng, seedNotificationTypes)
	notification := &entities.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      notificationType,
		IsRead:    s.rng.IntN(2) == 0,
		CreatedAt: s.now().UTC().Add(-time.Duration(s.rng.IntN(72*60)) * time.Minute),
	}

	for _, appointment := range appointments {
		if appointment.PatientID == userID || appointment.DoctorID == userID {
			notification.RelatedID = appointment.ID
			break
		}
	}

	switch {
	case notificationType == entities.NotificationSystem || notification.RelatedID == "":
		notification.Type = entities.NotificationSystem
		notification.Title = "Welcome to CareConnect"
		notification.Message = "Your account is ready."
		notification.RelatedID = ""
	case notificationType == entities.NotificationAppointmentReminder:
		notification.Title = "Upcoming appointment"
		notification.Message = "You have an appointment coming up."
	case notificationType == entities.NotificationAppointmentCancelled:
		notification.Title = "Appointment cancelled"
		notification.Message = "One of your appointments was cancelled."
	default:
		notification.Title = "Appointment booked"
		notification.Message = "Your appointment request was received."
	}
	return notification
}
