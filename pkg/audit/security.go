// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventXSSAttempt is logged when libinjection detects script injection
	// patterns in user-supplied document content.
	EventXSSAttempt SecurityEventType = "xss_attempt"
	// EventLoginFailure is logged for failed authentication attempts.
	EventLoginFailure SecurityEventType = "login_failure"
	// EventAdminMutation is logged when an admin creates, modifies, or
	// deletes another account.
	EventAdminMutation SecurityEventType = "admin_user_mutation"
	// EventAPIKeyUpdate is logged when a user replaces their upstream
	// credential.
	EventAPIKeyUpdate SecurityEventType = "api_key_update"
)

// SecurityEvent represents an auditable security event with all relevant
// context for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// XSSDetails contains specifics of detected script injection content.
type XSSDetails struct {
	SOPID     string `json:"sop_id"`
	FieldName string `json:"field_name"`
	Snippet   string `json:"snippet"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger
// namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// ScanContent checks user-supplied document content for script injection
// patterns and logs a warning event when found. Detection never blocks the
// write; generated SOPs are legitimate HTML and the scan exists for review,
// not enforcement.
func (a *SecurityAuditor) ScanContent(ctx context.Context, sopID uuid.UUID, fieldName, content string) bool {
	if !libinjection.IsXSS(content) {
		return false
	}

	snippet := content
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	a.log(ctx, SecurityEvent{
		EventType: EventXSSAttempt,
		Details: XSSDetails{
			SOPID:     sopID.String(),
			FieldName: fieldName,
			Snippet:   snippet,
		},
		Severity: "warning",
	})
	return true
}

// LogLoginFailure records a failed authentication attempt.
func (a *SecurityAuditor) LogLoginFailure(ctx context.Context, email, clientIP string) {
	a.log(ctx, SecurityEvent{
		EventType: EventLoginFailure,
		ClientIP:  clientIP,
		Details:   map[string]string{"email": email},
		Severity:  "warning",
	})
}

// LogAdminMutation records an admin operation on another account.
func (a *SecurityAuditor) LogAdminMutation(ctx context.Context, action string, targetUserID uuid.UUID) {
	a.log(ctx, SecurityEvent{
		EventType: EventAdminMutation,
		Details:   map[string]string{"action": action, "target_user_id": targetUserID.String()},
		Severity:  "info",
	})
}

// LogAPIKeyUpdate records a credential change.
func (a *SecurityAuditor) LogAPIKeyUpdate(ctx context.Context, userID uuid.UUID) {
	a.log(ctx, SecurityEvent{
		EventType: EventAPIKeyUpdate,
		Details:   map[string]string{"target_user_id": userID.String()},
		Severity:  "info",
	})
}

func (a *SecurityAuditor) log(ctx context.Context, event SecurityEvent) {
	event.Timestamp = time.Now().UTC()
	if event.UserID == "" {
		if id, ok := auth.UserIDFromContext(ctx); ok {
			event.UserID = id.String()
		}
	}

	// Marshaling known types never fails.
	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("severity", event.Severity),
		zap.String("user_id", event.UserID),
	}

	switch event.Severity {
	case "critical":
		a.logger.Error(string(event.EventType), fields...)
	case "warning":
		a.logger.Warn(string(event.EventType), fields...)
	default:
		a.logger.Info(string(event.EventType), fields...)
	}
}
