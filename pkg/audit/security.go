// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventContactViolation is logged when the contact detection engine
	// finds contact-channel patterns in user text.
	EventContactViolation SecurityEventType = "contact_violation"
	// EventMessageBlocked is logged when a send is rejected at the
	// escalation block threshold.
	EventMessageBlocked SecurityEventType = "message_blocked"
	// EventInjectionAttempt is logged when libinjection flags a free-text
	// request field.
	EventInjectionAttempt SecurityEventType = "injection_attempt"
)

// SecurityEvent represents an auditable security event with all relevant
// context for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	UserID    uuid.UUID         `json:"user_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// ContactViolationDetails contains specifics of a detected contact-sharing attempt.
// MaskedValue is already masked by the detection engine; raw values never
// reach the log.
type ContactViolationDetails struct {
	PatternType    string `json:"pattern_type"`
	MaskedValue    string `json:"masked_value"`
	ActionTaken    string `json:"action_taken"`
	ViolationCount int    `json:"violation_count"`
}

// InjectionDetails contains specifics of a flagged request field.
type InjectionDetails struct {
	FieldName   string `json:"field_name"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger
// namespace ("security_audit") for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogContactViolation records a detected contact-sharing attempt.
// WARNING/FLAGGED actions log at WARN; BLOCKED logs at ERROR via
// LogMessageBlocked instead.
func (a *SecurityAuditor) LogContactViolation(tenantID, userID uuid.UUID, details ContactViolationDetails) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventContactViolation,
		TenantID:  tenantID,
		UserID:    userID,
		Details:   details,
		Severity:  "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Contact pattern detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("pattern_type", details.PatternType),
		zap.String("action_taken", details.ActionTaken),
		zap.Int("violation_count", details.ViolationCount),
		zap.String("severity", "warning"),
	)
}

// LogMessageBlocked records a send rejected at the block threshold.
// Logged at ERROR level with "critical" severity: a blocked send must never
// silently succeed, and SIEM alerting keys off this event.
func (a *SecurityAuditor) LogMessageBlocked(tenantID, userID uuid.UUID, violationCount int) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventMessageBlocked,
		TenantID:  tenantID,
		UserID:    userID,
		Details: map[string]int{
			"violation_count": violationCount,
		},
		Severity: "critical",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Error("Message blocked by contact policy",
		zap.String("event_json", string(eventJSON)),
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("violation_count", violationCount),
		zap.String("severity", "critical"),
	)
}

// LogInjectionAttempt records a libinjection hit on a free-text request field.
func (a *SecurityAuditor) LogInjectionAttempt(tenantID, userID uuid.UUID, details InjectionDetails) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventInjectionAttempt,
		TenantID:  tenantID,
		UserID:    userID,
		Details:   details,
		Severity:  "critical",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Error("Injection pattern in request field",
		zap.String("event_json", string(eventJSON)),
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("field_name", details.FieldName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", "critical"),
	)
}
