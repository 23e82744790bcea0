package events

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventServiceRequestCreated   EventType = "service_request_created"
	EventServiceRequestCancelled EventType = "service_request_cancelled"
	EventServiceRequestUpdated   EventType = "service_request_updated"
	EventServiceRequestDeleted   EventType = "service_request_deleted"
	EventUserBanChanged          EventType = "user_ban_changed"
)

// ActorRole says who triggered an event.
type ActorRole string

const (
	ActorOwner ActorRole = "owner"
	ActorAdmin ActorRole = "admin"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   ActorRole `json:"role"`
	UserID string    `json:"user_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ServiceRequestPayload carries the request snapshot after the change.
type ServiceRequestPayload struct {
	OwnerID   string                `json:"owner_id"`
	Package   domain.ServicePackage `json:"package"`
	Status    domain.ServiceStatus  `json:"status"`
	OldStatus domain.ServiceStatus  `json:"old_status,omitempty"`
}

// UserBanPayload payload.
type UserBanPayload struct {
	IsBanned bool `json:"is_banned"`
}
