package entities

import "time"

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationAppointmentBooked    NotificationType = "APPOINTMENT_BOOKED"
	NotificationAppointmentCancelled NotificationType = "APPOINTMENT_CANCELLED"
	NotificationAppointmentCompleted NotificationType = "APPOINTMENT_COMPLETED"
	NotificationAppointmentReminder  NotificationType = "APPOINTMENT_REMINDER"
	NotificationVerificationUpdate   NotificationType = "VERIFICATION_UPDATE"
	NotificationSystem               NotificationType = "SYSTEM"
)

// Notification is a message addressed to one user
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	RelatedID string           `json:"relatedId,omitempty" db:"related_id"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// UserPreferences holds per-user UI settings
type UserPreferences struct {
	UserID               string `json:"userId"`
	Theme                string `json:"theme"`
	FontSize             string `json:"fontSize"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	Language             string `json:"language"`
}

// DefaultPreferences returns the record used before a user saves their own.
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:               userID,
		Theme:                "light",
		FontSize:             "medium",
		NotificationsEnabled: true,
		Language:             "en",
	}
}
