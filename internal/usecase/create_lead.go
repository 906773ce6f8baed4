package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

const intakeNote = "Lead created through website form"

type CreateLeadUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Rates    CurrentRates
	Notifier *NotificationDispatcher
	Logger   *logging.Logger
	now      func() time.Time
}

func NewCreateLeadUseCase(
	repo entity.LeadRepositoryInterface,
	rates CurrentRates,
	notifier *NotificationDispatcher,
	logger *logging.Logger,
) *CreateLeadUseCase {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CreateLeadUseCase{
		Repo:     repo,
		Rates:    rates,
		Notifier: notifier,
		Logger:   logger,
		now:      time.Now,
	}
}

// Execute validates and stores a website lead, rejecting contacts that are already on file.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput, meta RequestMeta) (*entity.Lead, error) {
	NormalizeLeadInput(&input)

	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	lead := uc.buildLead(input, entity.SourceWebsite, meta)
	return uc.persist(ctx, lead, intakeNote)
}

// ExecuteRefinance stores a lead from the refinance page along with its refinance data.
func (uc *CreateLeadUseCase) ExecuteRefinance(ctx context.Context, input CreateRefinanceLeadInput, meta RequestMeta) (*entity.Lead, error) {
	input.LoanPurpose = "refinance"
	NormalizeLeadInput(&input.CreateLeadInput)

	errs := ValidateRefinanceInput(input)
	errs = append(errs, ValidateCreateLeadInput(input.CreateLeadInput)...)
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	lead := uc.buildLead(input.CreateLeadInput, entity.SourceRefinance, meta)
	rd := &entity.RefinanceData{
		CurrentBalance:        *input.CurrentBalance,
		CurrentRate:           *input.CurrentRate,
		CurrentMonthlyPayment: valueOr(input.CurrentMonthlyPayment, 0),
		RefinanceType:         input.RefinanceType,
		EstimatedSavings:      valueOr(input.EstimatedSavings, 0),
		RefinanceDate:         lead.SubmittedAt,
	}
	if input.RefinanceDate != nil {
		rd.RefinanceDate = *input.RefinanceDate
	}
	estimateRefinance(rd, uc.marketRate(ctx))
	lead.RefinanceData = rd

	note := fmt.Sprintf("Refinance lead created through refinance page. Type: %s, Current Rate: %s%%, Estimated Savings: $%s",
		rd.RefinanceType, formatNumber(rd.CurrentRate), formatNumber(rd.EstimatedSavings))

	return uc.persist(ctx, lead, note)
}

func (uc *CreateLeadUseCase) persist(ctx context.Context, lead *entity.Lead, noteText string) (*entity.Lead, error) {
	existing, err := uc.Repo.FindByContact(ctx, lead.Email, lead.PhoneDigits)
	if err != nil && !errors.Is(err, entity.ErrLeadNotFound) {
		return nil, dbError("failed to check for existing lead", err)
	}
	if existing != nil {
		return nil, duplicateLead(existing.ID)
	}

	note := &entity.Note{
		ID:         uuid.New().String(),
		LeadID:     lead.ID,
		Content:    noteText,
		IsInternal: true,
		CreatedAt:  lead.SubmittedAt,
	}

	tx := NewTransaction(uc.Logger)
	tx.AddOperation("create_lead", func(ctx context.Context) error {
		return uc.Repo.Create(ctx, lead)
	})
	tx.AddCompensation("delete_lead", func(ctx context.Context) error {
		return uc.Repo.Delete(ctx, lead.ID)
	})
	tx.AddOperation("add_intake_note", func(ctx context.Context) error {
		return uc.Repo.AddNote(ctx, note)
	})

	if err := tx.Execute(ctx); err != nil {
		if errors.Is(err, entity.ErrDuplicateContact) {
			// lost the race against a concurrent submission with the same contact
			if other, findErr := uc.Repo.FindByContact(ctx, lead.Email, lead.PhoneDigits); findErr == nil && other != nil {
				return nil, duplicateLead(other.ID)
			}
			return nil, duplicateLead("")
		}
		return nil, dbError("failed to create lead", err)
	}

	lead.Notes = append(lead.Notes, *note)

	uc.Logger.Infow("lead created",
		"lead_id", lead.ID,
		"source", lead.Source,
		"loan_purpose", lead.LoanPurpose,
	)

	if uc.Notifier != nil {
		uc.Notifier.LeadCreated(ctx, lead)
	}
	return lead, nil
}

func (uc *CreateLeadUseCase) buildLead(in CreateLeadInput, source string, meta RequestMeta) *entity.Lead {
	lead := entity.NewLead(source, uc.now())

	lead.FirstName = in.FirstName
	lead.MiddleName = in.MiddleName
	lead.LastName = in.LastName
	lead.Email = in.Email
	lead.Phone = entity.FormatPhone(in.Phone)
	lead.PhoneDigits = entity.NormalizePhoneDigits(in.Phone)

	lead.LoanPurpose = in.LoanPurpose
	lead.PropertyType = in.PropertyType
	lead.PropertyAddress = in.PropertyAddress
	lead.PropertyValue = valueOr(in.PropertyValue, 0)
	lead.CurrentMortgageBalance = valueOr(in.CurrentMortgageBalance, 0)
	lead.LoanAmount = valueOr(in.LoanAmount, 0)
	if in.LoanType != "" {
		lead.LoanType = in.LoanType
	}

	lead.EmploymentStatus = in.EmploymentStatus
	lead.EmployerName = in.EmployerName
	lead.JobTitle = in.JobTitle
	lead.YearsAtJob = valueOr(in.YearsAtJob, 0)
	lead.AnnualIncome = valueOr(in.AnnualIncome, 0)
	lead.AdditionalIncome = valueOr(in.AdditionalIncome, 0)
	lead.CreditScore = in.CreditScore

	lead.HasBankruptcy = in.HasBankruptcy
	if in.HasBankruptcy {
		lead.BankruptcyDetails = in.BankruptcyDetails
	}
	lead.HasForeclosure = in.HasForeclosure
	lead.HasLatePayments = in.HasLatePayments
	if in.HasLatePayments {
		lead.LatePaymentsDetails = in.LatePaymentsDetails
	}
	lead.AdditionalNotes = in.AdditionalNotes
	lead.Tags = in.Tags
	if lead.Tags == nil {
		lead.Tags = []string{}
	}

	lead.IPAddress = meta.IPAddress
	lead.UserAgent = meta.UserAgent
	return lead
}

// marketRate is the current 30-year fixed rate, or 0 when the rate table is unavailable.
func (uc *CreateLeadUseCase) marketRate(ctx context.Context) float64 {
	if uc.Rates == nil {
		return 0
	}
	rates, err := uc.Rates.Current(ctx)
	if err != nil {
		uc.Logger.Warnw("rate table unavailable for refinance estimate", "error", err)
		return 0
	}
	rate, _ := thirtyYearFixed(rates)
	return rate
}

func duplicateLead(existingID string) *DomainError {
	return &DomainError{
		Code:       CodeDuplicateLead,
		Message:    "A lead with this email or phone already exists",
		ExistingID: existingID,
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
