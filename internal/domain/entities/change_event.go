package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChangeOp is the kind of mutation a ChangeEvent reports
type ChangeOp string

const (
	ChangeOpCreated ChangeOp = "created"
	ChangeOpUpdated ChangeOp = "updated"
	ChangeOpDeleted ChangeOp = "deleted"
	// ChangeOpRefresh carries no payload; receivers should re-read the collection.
	ChangeOpRefresh ChangeOp = "refresh"
)

// Change event types, one per observed collection.
const (
	ChangeTypeAppointments  = "appointments:changed"
	ChangeTypeProfiles      = "profiles:changed"
	ChangeTypePreferences   = "preferences:changed"
	ChangeTypeNotifications = "notifications:changed"
	ChangeTypeCurrentUser   = "current_user:changed"
	ChangeTypeStorage       = "storage:refresh"
)

// ChangeEvent tells other views that a stored collection changed.
// On the wire it is the {type, payload} message of the broadcast channel.
type ChangeEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	EntityID   string          `json:"entityId,omitempty"`
	Op         ChangeOp        `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Origin     string          `json:"origin,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewChangeEvent builds an event whose payload is the JSON form of entity.
// A nil entity or an unencodable one yields an event without payload.
func NewChangeEvent(eventType, collection, entityID string, op ChangeOp, entity any) *ChangeEvent {
	event := &ChangeEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Collection: collection,
		EntityID:   entityID,
		Op:         op,
		Timestamp:  time.Now(),
	}
	if entity != nil {
		if data, err := json.Marshal(entity); err == nil {
			event.Payload = data
		}
	}
	return event
}

// DecodePayload unmarshals the payload into v.
func (e *ChangeEvent) DecodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}
