package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryRegistry covers events that change the registry: publishes and claims.
	CategoryRegistry EventCategory = "registry"
	// CategorySecurity covers sign-in failures and denied claims.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Subject   string        `json:"subject"`
	ContentID string        `json:"content_id,omitempty"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventIPORPublished     AuditEvent = "ipor_published"
	EventPublishFailed     AuditEvent = "ipor_publish_failed"
	EventOwnershipClaimed  AuditEvent = "ownership_claimed"
	EventOwnershipDenied   AuditEvent = "ownership_denied"
	EventOwnershipMirrored AuditEvent = "ownership_mirrored"
	EventIdentityCreated   AuditEvent = "identity_created"
	EventSessionCreated    AuditEvent = "session_created"
	EventSessionEnded      AuditEvent = "session_ended"
	EventSigninFailed      AuditEvent = "signin_failed"
	EventSigninLocked      AuditEvent = "signin_locked"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventIPORPublished:     CategoryRegistry,
	EventOwnershipClaimed:  CategoryRegistry,
	EventOwnershipMirrored: CategoryRegistry,
	EventIdentityCreated:   CategoryRegistry,
	EventOwnershipDenied:   CategorySecurity,
	EventSigninFailed:      CategorySecurity,
	EventSigninLocked:      CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Publisher is the sink services emit audit events to.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NewEvent builds an Event with category and timestamp filled from the action.
func NewEvent(action AuditEvent, subject string, now time.Time) Event {
	return Event{
		Category:  action.Category(),
		Timestamp: now,
		Action:    string(action),
		Subject:   subject,
	}
}
