package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

const (
	estimatedClosingDays = 30
	creditReportScore    = 750
	disclosuresPath      = "/api/documents/disclosures.pdf"
)

var creditFactors = []string{
	"Payment history is excellent",
	"Credit utilization is low",
	"Length of credit history is good",
}

var teamRoleTitles = map[entity.Role]string{
	entity.RoleLoanOfficer: "Loan Officer",
	entity.RoleProcessor:   "Loan Processor",
}

// DashboardUseCase serves the signed-in borrower's view of their applications.
type DashboardUseCase struct {
	Leads      entity.LeadRepositoryInterface
	Users      entity.UserRepositoryInterface
	Documents  entity.DocumentRepositoryInterface
	Blobs      entity.BlobStore
	Rates      CurrentRates
	Manage     *ManageLeadUseCase
	Notifier   *NotificationDispatcher
	Logger     *logging.Logger
	AdminEmail string
	MaxUpload  int64
	now        func() time.Time
}

type DashboardDeps struct {
	Leads      entity.LeadRepositoryInterface
	Users      entity.UserRepositoryInterface
	Documents  entity.DocumentRepositoryInterface
	Blobs      entity.BlobStore
	Rates      CurrentRates
	Manage     *ManageLeadUseCase
	Notifier   *NotificationDispatcher
	Logger     *logging.Logger
	AdminEmail string
	MaxUpload  int64
}

func NewDashboardUseCase(d DashboardDeps) *DashboardUseCase {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	return &DashboardUseCase{
		Leads:      d.Leads,
		Users:      d.Users,
		Documents:  d.Documents,
		Blobs:      d.Blobs,
		Rates:      d.Rates,
		Manage:     d.Manage,
		Notifier:   d.Notifier,
		Logger:     d.Logger,
		AdminEmail: d.AdminEmail,
		MaxUpload:  d.MaxUpload,
		now:        time.Now,
	}
}

// Applications lists the leads submitted with the user's email, newest first.
func (uc *DashboardUseCase) Applications(ctx context.Context, actor Actor) ([]entity.Lead, error) {
	user, err := uc.currentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	leads, _, err := uc.Leads.List(ctx, entity.LeadFilter{
		Email:    user.Email,
		SortBy:   defaultSortField,
		SortDesc: true,
	})
	if err != nil {
		return nil, dbError("failed to load applications", err)
	}
	if leads == nil {
		leads = []entity.Lead{}
	}
	return leads, nil
}

func (uc *DashboardUseCase) ApplicationDetails(ctx context.Context, actor Actor, id string) (*ApplicationDetails, error) {
	lead, err := uc.ownedLead(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	docs, err := uc.Documents.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, dbError("failed to load documents", err)
	}
	steps := applicationSteps(lead, len(docs) > 0)

	complete := 0
	for _, s := range steps {
		if s.Status == "complete" {
			complete++
		}
	}

	rate := defaultRate30Year
	if uc.Rates != nil {
		if rates, err := uc.Rates.Current(ctx); err == nil {
			if r, ok := thirtyYearFixed(rates); ok {
				rate = r
			}
		} else {
			uc.Logger.Warnw("rate table unavailable for payment estimate", "error", err)
		}
	}

	return &ApplicationDetails{
		Lead:             lead,
		Steps:            steps,
		Progress:         int(math.Round(float64(complete) / float64(len(steps)) * 100)),
		MonthlyPayment:   MonthlyPayment(lead.LoanAmount, rate, defaultTermYears),
		InterestRate:     rate,
		TermYears:        defaultTermYears,
		EstimatedClosing: uc.now().AddDate(0, 0, estimatedClosingDays),
		LoanOfficer:      lead.Assignee,
	}, nil
}

// applicationSteps marks steps complete from what the lead already carries; the
// first unfinished step is current.
func applicationSteps(lead *entity.Lead, hasDocuments bool) []ProgressStep {
	reviewed := lead.Status == entity.LeadStatusInProgress ||
		lead.Status == entity.LeadStatusQualified ||
		lead.Status == entity.LeadStatusClosed
	approved := lead.Status == entity.LeadStatusQualified || lead.Status == entity.LeadStatusClosed

	done := []bool{true, true, lead.AnnualIncome > 0, hasDocuments, reviewed, approved}
	steps := []ProgressStep{
		{ID: "personal_info", Title: "Personal Information"},
		{ID: "property_details", Title: "Property Details"},
		{ID: "financial_info", Title: "Financial Information"},
		{ID: "document_upload", Title: "Document Upload"},
		{ID: "review", Title: "Review & Submit"},
		{ID: "approval", Title: "Approval"},
	}

	current := false
	for i := range steps {
		switch {
		case done[i]:
			steps[i].Status = "complete"
		case !current:
			steps[i].Status = "current"
			current = true
		default:
			steps[i].Status = "upcoming"
		}
	}
	return steps
}

// WithdrawApplication is the only status change a borrower may make.
func (uc *DashboardUseCase) WithdrawApplication(ctx context.Context, actor Actor, id, status string) (*entity.Lead, error) {
	if entity.LeadStatus(status) != entity.LeadStatusClosed {
		return nil, fieldError("status", "Applications can only be withdrawn")
	}
	if _, err := uc.ownedLead(ctx, actor, id); err != nil {
		return nil, err
	}
	return uc.Manage.UpdateStatus(ctx, id, status, actor)
}

// UploadDocument stores the file bytes, then the metadata row. A failed row
// insert removes the stored blob.
func (uc *DashboardUseCase) UploadDocument(ctx context.Context, actor Actor, in UploadDocumentInput) (*entity.Document, error) {
	if in.Body == nil || in.FileName == "" {
		return nil, fieldError("document", "Please upload a file")
	}
	if uc.MaxUpload > 0 && in.Size > uc.MaxUpload {
		return nil, fieldError("document", "File is too large")
	}
	if in.ApplicationID != "" {
		if _, err := uc.ownedLead(ctx, actor, in.ApplicationID); err != nil {
			return nil, err
		}
	}

	doc, err := entity.NewDocument(actor.UserID, in.ApplicationID, strings.TrimSpace(in.DocumentType), in.FileName, in.Size)
	if errors.Is(err, entity.ErrFileTypeForbidden) {
		return nil, fieldError("document", "Only images, PDFs, and Word documents are allowed")
	}
	if err != nil {
		return nil, err
	}
	doc.UploadedAt = uc.now()

	tx := NewTransaction(uc.Logger)
	tx.AddOperation("store_blob", func(ctx context.Context) error {
		return uc.Blobs.Put(ctx, doc.StorageKey, doc.ContentType, in.Body, in.Size)
	})
	tx.AddCompensation("delete_blob", func(ctx context.Context) error {
		return uc.Blobs.Delete(ctx, doc.StorageKey)
	})
	tx.AddOperation("create_document", func(ctx context.Context) error {
		return uc.Documents.Create(ctx, doc)
	})
	if err := tx.Execute(ctx); err != nil {
		return nil, &TechnicalError{Code: CodeUpstream, Message: "failed to store document", Err: err}
	}

	uc.Logger.Infow("document uploaded", "document_id", doc.ID, "user_id", actor.UserID, "size", doc.Size)
	return doc, nil
}

func (uc *DashboardUseCase) ListDocuments(ctx context.Context, actor Actor) ([]entity.Document, error) {
	docs, err := uc.Documents.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, dbError("failed to load documents", err)
	}
	if docs == nil {
		docs = []entity.Document{}
	}
	return docs, nil
}

// DeleteDocument removes one of the user's documents. Other users' documents read as not found.
func (uc *DashboardUseCase) DeleteDocument(ctx context.Context, actor Actor, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &DomainError{Code: CodeInvalidID, Message: "Invalid document ID"}
	}
	doc, err := uc.Documents.FindByID(ctx, id)
	if errors.Is(err, entity.ErrDocumentNotFound) || (err == nil && doc.UserID != actor.UserID) {
		return notFound("Document")
	}
	if err != nil {
		return dbError("failed to load document", err)
	}

	if err := uc.Documents.Delete(ctx, id); err != nil {
		return dbError("failed to delete document", err)
	}
	if err := uc.Blobs.Delete(ctx, doc.StorageKey); err != nil {
		uc.Logger.Warnw("document blob left behind", "document_id", id, "key", doc.StorageKey, "error", err)
	}
	return nil
}

func (uc *DashboardUseCase) LoanTeam(ctx context.Context) ([]TeamMember, error) {
	users, err := uc.Users.ListByRoles(ctx, entity.RoleLoanOfficer, entity.RoleProcessor)
	if err != nil {
		return nil, dbError("failed to load loan team", err)
	}
	team := make([]TeamMember, 0, len(users))
	for _, u := range users {
		team = append(team, TeamMember{
			ID:     u.ID,
			Name:   u.FullName(),
			Role:   teamRoleTitles[u.Role],
			Phone:  u.Phone,
			Email:  u.Email,
			Avatar: initials(u.FirstName, u.LastName),
		})
	}
	return team, nil
}

// SendMessage forwards a borrower message to the officer on the application, or
// to the admin inbox when nobody is assigned.
func (uc *DashboardUseCase) SendMessage(ctx context.Context, actor Actor, in SendMessageInput) error {
	var errs []ValidationError
	requiredMax(&errs, "subject", "Subject", in.Subject, 200)
	requiredMax(&errs, "message", "Message", in.Message, 5000)
	if len(errs) > 0 {
		return newValidationError(errs)
	}

	user, err := uc.currentUser(ctx, actor)
	if err != nil {
		return err
	}

	to := uc.AdminEmail
	if in.ApplicationID != "" {
		lead, err := uc.ownedLead(ctx, actor, in.ApplicationID)
		if err != nil {
			return err
		}
		if lead.Assignee != nil && lead.Assignee.Email != "" {
			to = lead.Assignee.Email
		}
	}

	subject := "Message from " + user.FullName() + ": " + strings.TrimSpace(in.Subject)
	uc.Notifier.Send(ctx, entity.TemplateMessageToLO, to, subject, in.ApplicationID, map[string]any{
		"userName":      user.FullName(),
		"userEmail":     user.Email,
		"message":       strings.TrimSpace(in.Message),
		"applicationId": in.ApplicationID,
	})
	return nil
}

func (uc *DashboardUseCase) ScheduleCall(ctx context.Context, actor Actor, in ScheduleCallInput) error {
	var errs []ValidationError
	if strings.TrimSpace(in.PreferredDate) == "" {
		errs = append(errs, ValidationError{Field: "preferredDate", Message: "Preferred date is required"})
	}
	if strings.TrimSpace(in.PreferredTime) == "" {
		errs = append(errs, ValidationError{Field: "preferredTime", Message: "Preferred time is required"})
	}
	if len(errs) > 0 {
		return newValidationError(errs)
	}

	user, err := uc.currentUser(ctx, actor)
	if err != nil {
		return err
	}

	uc.Notifier.Send(ctx, entity.TemplateCallScheduled, user.Email, "Call Scheduled - Mortgage Application", in.ApplicationID, map[string]any{
		"userName":      user.FullName(),
		"preferredDate": in.PreferredDate,
		"preferredTime": in.PreferredTime,
		"reason":        in.Reason,
		"applicationId": in.ApplicationID,
	})
	return nil
}

func (uc *DashboardUseCase) Disclosures() Disclosure {
	return Disclosure{URL: disclosuresPath}
}

// CreditReport is a fixed placeholder until a bureau integration exists.
func (uc *DashboardUseCase) CreditReport() CreditReport {
	return CreditReport{
		Score:       creditReportScore,
		LastUpdated: uc.now(),
		Factors:     append([]string(nil), creditFactors...),
	}
}

func (uc *DashboardUseCase) currentUser(ctx context.Context, actor Actor) (*entity.User, error) {
	user, err := uc.Users.FindByID(ctx, actor.UserID)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, &DomainError{Code: CodeUnauthorized, Message: "Not authorized to access this route"}
	}
	if err != nil {
		return nil, dbError("failed to load user", err)
	}
	return user, nil
}

// ownedLead loads a lead only if it was submitted with the user's email.
func (uc *DashboardUseCase) ownedLead(ctx context.Context, actor Actor, id string) (*entity.Lead, error) {
	user, err := uc.currentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	lead, err := loadLead(ctx, uc.Leads, uc.Users, id)
	var de *DomainError
	if errors.As(err, &de) && de.Code == CodeNotFound {
		return nil, notFound("Application")
	}
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(lead.Email, user.Email) {
		return nil, notFound("Application")
	}
	return lead, nil
}

func initials(first, last string) string {
	var b strings.Builder
	for _, s := range []string{first, last} {
		if s = strings.TrimSpace(s); s != "" {
			r, _ := utf8.DecodeRuneInString(s)
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
