package usecase

import (
	"context"
	"strings"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

var statusTemplates = map[string]string{
	"pre-approved":        entity.TemplateStatusPreApproved,
	"approved":            entity.TemplateStatusApproved,
	"documents-requested": entity.TemplateStatusDocumentsRequested,
	"under-review":        entity.TemplateStatusUnderReview,
	"denied":              entity.TemplateStatusDenied,
	"closed":              entity.TemplateStatusClosed,
}

// borrower-facing names for the pipeline statuses that have a dedicated email
var leadStatusToEmailStatus = map[entity.LeadStatus]string{
	entity.LeadStatusQualified:  "pre-approved",
	entity.LeadStatusInProgress: "under-review",
	entity.LeadStatusRejected:   "denied",
	entity.LeadStatusClosed:     "closed",
}

// TemplateForStatus maps an application status to its email template.
// Unknown statuses get the generic status-update template.
func TemplateForStatus(status string) string {
	if t, ok := statusTemplates[status]; ok {
		return t
	}
	return entity.TemplateStatusUpdate
}

// EmailStatus returns the borrower-facing status name for a lead status.
func EmailStatus(s entity.LeadStatus) string {
	if v, ok := leadStatusToEmailStatus[s]; ok {
		return v
	}
	return string(s)
}

// NotificationDispatcher turns domain events into queued emails. Delivery
// problems are logged and never returned to the caller.
type NotificationDispatcher struct {
	Publisher  NotificationPublisher
	Logger     *logging.Logger
	AdminEmail string
	AdminURL   string
}

func NewNotificationDispatcher(publisher NotificationPublisher, logger *logging.Logger, adminEmail, adminURL string) *NotificationDispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NotificationDispatcher{
		Publisher:  publisher,
		Logger:     logger,
		AdminEmail: adminEmail,
		AdminURL:   strings.TrimRight(adminURL, "/"),
	}
}

// LeadCreated notifies the admin inbox and welcomes the applicant.
func (d *NotificationDispatcher) LeadCreated(ctx context.Context, lead *entity.Lead) {
	subject := "New Lead: " + lead.FirstName + " " + lead.LastName
	d.Send(ctx, entity.TemplateNewLeadAdmin, d.AdminEmail, subject, lead.ID, d.leadData(lead))

	welcome := entity.TemplateWelcomeLead
	if lead.RefinanceData != nil {
		welcome = entity.TemplateRefinanceWelcome
	}
	d.Send(ctx, welcome, lead.Email, "Thank You for Your Mortgage Application", lead.ID, d.leadData(lead))
}

// StatusChanged sends the status email that matches the new lead status.
func (d *NotificationDispatcher) StatusChanged(ctx context.Context, lead *entity.Lead, status entity.LeadStatus, message string) {
	emailStatus := EmailStatus(status)
	subject := "Your Mortgage Application: " + capitalize(strings.ReplaceAll(emailStatus, "_", " "))

	data := d.leadData(lead)
	data["status"] = emailStatus
	data["message"] = message
	d.Send(ctx, TemplateForStatus(emailStatus), lead.Email, subject, lead.ID, data)
}

// Assigned tells a loan officer a lead was routed to them.
func (d *NotificationDispatcher) Assigned(ctx context.Context, lead *entity.Lead, officer *entity.User) {
	data := d.leadData(lead)
	data["officerName"] = officer.FullName()
	d.Send(ctx, entity.TemplateLOAssignment, officer.Email, "New Lead Assigned: "+lead.FullName(), lead.ID, data)
}

// Send queues one email. It never fails the caller.
func (d *NotificationDispatcher) Send(ctx context.Context, template, to, subject, leadID string, data map[string]any) {
	if d == nil || d.Publisher == nil || to == "" {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["subject"] = subject

	n := entity.NewNotification(template, to, subject, leadID, data)
	// the job must be queued even if the request that triggered it is cancelled
	if err := d.Publisher.Publish(context.WithoutCancel(ctx), n); err != nil {
		d.Logger.Errorw("notification delivery failed",
			"lead_id", leadID,
			"template", template,
			"recipient", to,
			"error", err,
		)
	}
}

func (d *NotificationDispatcher) leadData(lead *entity.Lead) map[string]any {
	return map[string]any{
		"leadId":        lead.ID,
		"firstName":     lead.FirstName,
		"lastName":      lead.LastName,
		"fullName":      lead.FullName(),
		"email":         lead.Email,
		"phone":         lead.Phone,
		"loanPurpose":   lead.LoanPurpose,
		"propertyType":  lead.PropertyType,
		"propertyValue": lead.PropertyValue,
		"loanAmount":    lead.LoanAmount,
		"creditScore":   lead.CreditScore,
		"status":        string(lead.Status),
		"leadUrl":       d.AdminURL + "/leads/" + lead.ID,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
