package entity

import (
	"time"

	"github.com/google/uuid"
)

// Template names understood by the mail renderer.
const (
	TemplateNewLeadAdmin             = "new-lead-admin"
	TemplateWelcomeLead              = "welcome-lead"
	TemplateRefinanceWelcome         = "refinance-welcome"
	TemplateStatusUpdate             = "status-update"
	TemplateStatusPreApproved        = "status-pre-approved"
	TemplateStatusApproved           = "status-approved"
	TemplateStatusDocumentsRequested = "status-documents-requested"
	TemplateStatusUnderReview        = "status-under-review"
	TemplateStatusDenied             = "status-denied"
	TemplateStatusClosed             = "status-closed"
	TemplateMessageToLO              = "message-to-lo"
	TemplateCallScheduled            = "call-scheduled"
	TemplateRateAlertSubscribed      = "rate-alert-subscribed"
	TemplateLOAssignment             = "lo-assignment"
	TemplatePasswordReset            = "password-reset"
)

// Notification is a queued email job.
type Notification struct {
	ID         string         `json:"id"`
	Template   string         `json:"template"`
	To         string         `json:"to"`
	Subject    string         `json:"subject"`
	LeadID     string         `json:"lead_id,omitempty"`
	Data       map[string]any `json:"data"`
	Attempts   int            `json:"attempts"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

func NewNotification(template, to, subject, leadID string, data map[string]any) Notification {
	if data == nil {
		data = map[string]any{}
	}
	return Notification{
		ID:         uuid.New().String(),
		Template:   template,
		To:         to,
		Subject:    subject,
		LeadID:     leadID,
		Data:       data,
		EnqueuedAt: time.Now(),
	}
}
