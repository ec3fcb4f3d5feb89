package audit

import (
	"time"

	id "onboard/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: registration milestones, data submission, completion.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: rejected navigation, invalid tokens, expired sessions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	// Examples: session restores, token rotations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	// Step is the onboarding step the event relates to, when there is one.
	Step   string
	Reason string
	// Email is masked before it reaches an event; raw addresses never enter
	// the audit pipeline.
	Email     string
	RequestID string
	// Device is the human-readable device name derived from the request's
	// user agent.
	Device string
}

type AuditEvent string

const (
	// Registration milestones
	EventRegistrationStarted   AuditEvent = "registration_started"
	EventEmailVerified         AuditEvent = "email_verified"
	EventPersonalInfoSubmitted AuditEvent = "personal_info_submitted"
	EventOrganizationSubmitted AuditEvent = "organization_submitted"
	EventObjectivesSubmitted   AuditEvent = "objectives_submitted"
	EventRegistrationCompleted AuditEvent = "registration_completed"

	// Session lifecycle
	EventSessionRestored AuditEvent = "session_restored"
	EventSessionExpired  AuditEvent = "session_expired"
	EventTokenRotated    AuditEvent = "token_rotated"

	// Rejections
	EventStepRejected AuditEvent = "step_rejected"
)

// eventCategories maps each audit event to its category.
// Compliance: regulatory significance, long retention required.
// Security: monitoring and alerting.
// Operations: routine activity, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventEmailVerified:         CategoryCompliance,
	EventPersonalInfoSubmitted: CategoryCompliance,
	EventOrganizationSubmitted: CategoryCompliance,
	EventObjectivesSubmitted:   CategoryCompliance,
	EventRegistrationCompleted: CategoryCompliance,

	EventSessionExpired: CategorySecurity,
	EventStepRejected:   CategorySecurity,

	EventRegistrationStarted: CategoryOperations,
	EventSessionRestored:     CategoryOperations,
	EventTokenRotated:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// -----------------------------------------------------------------------------
// Right-sized event types for tri-publisher architecture
// -----------------------------------------------------------------------------

// ComplianceEvent captures regulatory-significant registration actions
// requiring guaranteed persistence. Use with the compliance publisher for
// fail-closed semantics.
type ComplianceEvent struct {
	Timestamp time.Time // When the event occurred (set automatically if zero)
	UserID    id.UserID // The registering user, when known
	Subject   string    // Session identifier
	Action    string    // The action taken (e.g., "email_verified")
	Step      string    // Step the action applies to
	Email     string    // Masked email for traceability
	RequestID string    // Correlation ID for request tracing
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the generic Event type for stores and sinks.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:  CategoryCompliance,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.Subject,
		Action:    e.Action,
		Step:      e.Step,
		Email:     e.Email,
		RequestID: e.RequestID,
	}
}

// SecurityEvent captures security-relevant actions for SIEM and alerting.
// Events are processed asynchronously with buffering.
type SecurityEvent struct {
	Timestamp time.Time // When the event occurred (set automatically if zero)
	Subject   string    // Session identifier or client IP
	Action    string    // Security action (e.g., "step_rejected")
	Step      string    // Step involved, when there is one
	Reason    string    // Why this happened (e.g., "forward_navigation")
	Device    string    // Device name from the request's user agent
	RequestID string    // Correlation ID
	Severity  Severity  // "info", "warning", "critical" for SIEM routing
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category returns CategorySecurity (always).
func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

// ToEvent converts to the generic Event type for stores and sinks.
func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:  CategorySecurity,
		Timestamp: e.Timestamp,
		Subject:   e.Subject,
		Action:    e.Action,
		Step:      e.Step,
		Reason:    e.Reason,
		Device:    e.Device,
		RequestID: e.RequestID,
	}
}

// OpsEvent captures operational events with minimal overhead.
// Events are fire-and-forget with optional sampling.
type OpsEvent struct {
	Timestamp time.Time // When the event occurred (set automatically if zero)
	Subject   string    // Session identifier
	Action    string    // Operational action (e.g., "token_rotated")
	Step      string    // Step involved, when there is one
	RequestID string    // Correlation ID
}

// Category returns CategoryOperations (always).
func (e OpsEvent) Category() EventCategory { return CategoryOperations }

// ToEvent converts to the generic Event type for stores and sinks.
func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		Subject:   e.Subject,
		Action:    e.Action,
		Step:      e.Step,
		RequestID: e.RequestID,
	}
}
