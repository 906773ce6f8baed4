package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

type ManageLeadUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Users    entity.UserRepositoryInterface
	Notifier *NotificationDispatcher
	Logger   *logging.Logger
	now      func() time.Time
}

func NewManageLeadUseCase(
	repo entity.LeadRepositoryInterface,
	users entity.UserRepositoryInterface,
	notifier *NotificationDispatcher,
	logger *logging.Logger,
) *ManageLeadUseCase {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ManageLeadUseCase{Repo: repo, Users: users, Notifier: notifier, Logger: logger, now: time.Now}
}

// AddNote appends a note and marks the lead as contacted now.
func (uc *ManageLeadUseCase) AddNote(ctx context.Context, leadID string, in AddNoteInput, actor Actor) (*entity.Note, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fieldError("content", "Note content is required")
	}
	if _, err := loadLead(ctx, uc.Repo, nil, leadID); err != nil {
		return nil, err
	}

	isInternal := true
	if in.IsInternal != nil {
		isInternal = *in.IsInternal
	}
	now := uc.now()
	note := &entity.Note{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		Content:    content,
		CreatedBy:  actor.authorID(),
		IsInternal: isInternal,
		CreatedAt:  now,
	}
	if err := uc.Repo.AddNote(ctx, note); err != nil {
		return nil, dbError("failed to add note", err)
	}
	if err := uc.Repo.TouchLastContacted(ctx, leadID, now); err != nil {
		return nil, dbError("failed to update last contacted", err)
	}
	return note, nil
}

const statusMessage = "Status must be one of new, contacted, in_progress, qualified, closed, rejected"

// Update applies the editable fields. A status in the body goes through UpdateStatus;
// assignment and identity fields are ignored here.
func (uc *ManageLeadUseCase) Update(ctx context.Context, leadID string, in UpdateLeadInput, actor Actor) (*entity.Lead, error) {
	lead, err := loadLead(ctx, uc.Repo, nil, leadID)
	if err != nil {
		return nil, err
	}

	patch := patchFromInput(in)
	errs := ValidateLeadPatch(patch)
	if in.Status != nil && !entity.LeadStatus(strings.TrimSpace(*in.Status)).Valid() {
		errs = append(errs, ValidationError{Field: "status", Message: statusMessage})
	}
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if patch.LoanPurpose != nil && *patch.LoanPurpose != "refinance" && lead.RefinanceData != nil {
		patch.ClearRefinanceData = true
	}

	if !patch.IsEmpty() {
		err := uc.Repo.Update(ctx, leadID, patch)
		if errors.Is(err, entity.ErrDuplicateContact) {
			return nil, duplicateLead("")
		}
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, notFound("Lead")
		}
		if err != nil {
			return nil, dbError("failed to update lead", err)
		}
	}

	if in.Status != nil {
		return uc.UpdateStatus(ctx, leadID, *in.Status, actor)
	}
	return loadLead(ctx, uc.Repo, uc.Users, leadID)
}

// UpdateStatus moves a lead through the pipeline, records a note and emails the applicant.
func (uc *ManageLeadUseCase) UpdateStatus(ctx context.Context, leadID, status string, actor Actor) (*entity.Lead, error) {
	next := entity.LeadStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, fieldError("status", statusMessage)
	}

	lead, err := loadLead(ctx, uc.Repo, uc.Users, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == next {
		return lead, nil
	}

	if err := uc.Repo.UpdateStatus(ctx, leadID, next); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, notFound("Lead")
		}
		return nil, dbError("failed to update status", err)
	}

	note := &entity.Note{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		Content:    "Status changed to " + string(next),
		CreatedBy:  actor.authorID(),
		IsInternal: true,
		CreatedAt:  uc.now(),
	}
	if err := uc.Repo.AddNote(ctx, note); err != nil {
		return nil, dbError("failed to record status note", err)
	}

	lead.Status = next
	lead.Notes = append(lead.Notes, *note)

	uc.Logger.Infow("lead status changed", "lead_id", leadID, "status", next, "actor", actor.UserID)
	if uc.Notifier != nil {
		uc.Notifier.StatusChanged(ctx, lead, next, "")
	}
	return lead, nil
}

// Assign routes a lead to a staff member. An empty userID clears the assignment.
func (uc *ManageLeadUseCase) Assign(ctx context.Context, leadID, userID string, actor Actor) (*entity.Lead, error) {
	lead, err := loadLead(ctx, uc.Repo, nil, leadID)
	if err != nil {
		return nil, err
	}

	var officer *entity.User
	if userID != "" {
		officer, err = uc.Users.FindByID(ctx, userID)
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, notFound("User")
		}
		if err != nil {
			return nil, dbError("failed to load user", err)
		}
		if !officer.Role.IsStaff() {
			return nil, fieldError("userId", "Leads can only be assigned to staff members")
		}
	}

	var assignee *string
	content := "Assignment cleared"
	if officer != nil {
		assignee = &officer.ID
		content = "Assigned to " + officer.FullName()
	}
	if err := uc.Repo.Assign(ctx, leadID, assignee); err != nil {
		return nil, dbError("failed to assign lead", err)
	}
	note := &entity.Note{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		Content:    content,
		CreatedBy:  actor.authorID(),
		IsInternal: true,
		CreatedAt:  uc.now(),
	}
	if err := uc.Repo.AddNote(ctx, note); err != nil {
		return nil, dbError("failed to record assignment note", err)
	}

	if officer != nil && uc.Notifier != nil {
		uc.Notifier.Assigned(ctx, lead, officer)
	}
	return loadLead(ctx, uc.Repo, uc.Users, leadID)
}

func (uc *ManageLeadUseCase) Delete(ctx context.Context, leadID string) error {
	if _, err := uuid.Parse(leadID); err != nil {
		return &DomainError{Code: CodeInvalidID, Message: "Invalid lead ID"}
	}
	err := uc.Repo.Delete(ctx, leadID)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return notFound("Lead")
	}
	if err != nil {
		return dbError("failed to delete lead", err)
	}
	uc.Logger.Infow("lead deleted", "lead_id", leadID)
	return nil
}

func patchFromInput(in UpdateLeadInput) entity.LeadPatch {
	p := entity.LeadPatch{
		FirstName:              trimmed(in.FirstName),
		MiddleName:             trimmed(in.MiddleName),
		LastName:               trimmed(in.LastName),
		LoanPurpose:            trimmed(in.LoanPurpose),
		PropertyType:           trimmed(in.PropertyType),
		PropertyValue:          in.PropertyValue,
		CurrentMortgageBalance: in.CurrentMortgageBalance,
		LoanAmount:             in.LoanAmount,
		LoanType:               trimmed(in.LoanType),
		EmploymentStatus:       trimmed(in.EmploymentStatus),
		EmployerName:           trimmed(in.EmployerName),
		JobTitle:               trimmed(in.JobTitle),
		YearsAtJob:             in.YearsAtJob,
		AnnualIncome:           in.AnnualIncome,
		AdditionalIncome:       in.AdditionalIncome,
		CreditScore:            trimmed(in.CreditScore),
		AdditionalNotes:        trimmed(in.AdditionalNotes),
		NextFollowUp:           in.NextFollowUp,
	}
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		p.Email = &e
	}
	if in.Phone != nil {
		ph := strings.TrimSpace(*in.Phone)
		p.Phone = &ph
	}
	if in.PropertyAddress != nil {
		a := *in.PropertyAddress
		a.Street = strings.TrimSpace(a.Street)
		a.City = strings.TrimSpace(a.City)
		a.State = strings.ToUpper(strings.TrimSpace(a.State))
		a.ZipCode = strings.TrimSpace(a.ZipCode)
		p.PropertyAddress = &a
	}
	if in.Tags != nil {
		p.Tags = entity.NormalizeTags(in.Tags)
	}
	return p
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
