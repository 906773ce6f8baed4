package wizard

import (
	"strings"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

type Step int

const (
	StepBasicInfo Step = iota
	StepProperty
	StepLoan
	StepFinancial
	StepReview
)

// StepCount is the number of wizard steps.
const StepCount = int(StepReview) + 1

var stepNames = [StepCount]string{
	"Basic Information",
	"Property Details",
	"Loan Information",
	"Financial Details",
	"Review & Submit",
}

func (s Step) String() string {
	if s < 0 || int(s) >= StepCount {
		return "Unknown"
	}
	return stepNames[s]
}

type StepState string

const (
	StateComplete StepState = "complete"
	StateCurrent  StepState = "current"
	StateUpcoming StepState = "upcoming"
)

type StepStatus struct {
	Step  Step      `json:"step"`
	Name  string    `json:"name"`
	State StepState `json:"state"`
}

// StepData is one of BasicInfo, PropertyInfo, LoanInfo or FinancialInfo.
type StepData interface {
	step() Step
	apply(d *Draft)
}

type BasicInfo struct {
	FirstName        string `json:"firstName"`
	MiddleName       string `json:"middleName,omitempty"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	PreferredContact string `json:"preferredContact,omitempty"`
	BestTimeToCall   string `json:"bestTimeToCall,omitempty"`
}

type PropertyInfo struct {
	Address      entity.Address `json:"address"`
	PropertyType string         `json:"propertyType"`
	PropertyUse  string         `json:"propertyUse,omitempty"`
}

// LoanInfo also carries the refinance fields; they are only checked when
// LoanPurpose is refinance.
type LoanInfo struct {
	LoanPurpose            string   `json:"loanPurpose"`
	LoanAmount             *float64 `json:"loanAmount,omitempty"`
	PropertyValue          *float64 `json:"propertyValue,omitempty"`
	CurrentMortgageBalance *float64 `json:"currentMortgageBalance,omitempty"`
	LoanType               string   `json:"loanType,omitempty"`
	CurrentRate            *float64 `json:"currentRate,omitempty"`
	CurrentMonthlyPayment  *float64 `json:"currentMonthlyPayment,omitempty"`
	RefinanceType          string   `json:"refinanceType,omitempty"`
}

type FinancialInfo struct {
	EmploymentStatus    string                      `json:"employmentStatus"`
	EmployerName        string                      `json:"employerName,omitempty"`
	JobTitle            string                      `json:"jobTitle,omitempty"`
	YearsAtJob          *float64                    `json:"yearsAtJob,omitempty"`
	AnnualIncome        *float64                    `json:"annualIncome,omitempty"`
	AdditionalIncome    *float64                    `json:"additionalIncome,omitempty"`
	CreditScore         string                      `json:"creditScore"`
	HasBankruptcy       bool                        `json:"hasBankruptcy"`
	BankruptcyDetails   *entity.BankruptcyDetails   `json:"bankruptcyDetails,omitempty"`
	HasForeclosure      bool                        `json:"hasForeclosure"`
	HasLatePayments     bool                        `json:"hasLatePayments"`
	LatePaymentsDetails *entity.LatePaymentsDetails `json:"latePaymentsDetails,omitempty"`
	AdditionalNotes     string                      `json:"additionalNotes,omitempty"`
}

func (BasicInfo) step() Step     { return StepBasicInfo }
func (PropertyInfo) step() Step  { return StepProperty }
func (LoanInfo) step() Step      { return StepLoan }
func (FinancialInfo) step() Step { return StepFinancial }

func (b BasicInfo) apply(d *Draft)     { d.Basic = b }
func (p PropertyInfo) apply(d *Draft)  { d.Property = p }
func (l LoanInfo) apply(d *Draft)      { d.Loan = l }
func (f FinancialInfo) apply(d *Draft) { d.Financial = f }

// Draft is the application as entered so far. It is what gets persisted.
type Draft struct {
	Basic     BasicInfo     `json:"basicInfo"`
	Property  PropertyInfo  `json:"propertyInfo"`
	Loan      LoanInfo      `json:"loanInfo"`
	Financial FinancialInfo `json:"financialInfo"`
}

// IsRefinance reports whether the draft submits through the refinance intake.
func (d Draft) IsRefinance() bool {
	return strings.TrimSpace(d.Loan.LoanPurpose) == "refinance"
}

// LeadInput packages the draft for the intake service.
func (d Draft) LeadInput() usecase.CreateLeadInput {
	in := usecase.CreateLeadInput{
		FirstName:              d.Basic.FirstName,
		MiddleName:             d.Basic.MiddleName,
		LastName:               d.Basic.LastName,
		Email:                  d.Basic.Email,
		Phone:                  d.Basic.Phone,
		LoanPurpose:            d.Loan.LoanPurpose,
		PropertyType:           d.Property.PropertyType,
		PropertyAddress:        d.Property.Address,
		PropertyValue:          d.Loan.PropertyValue,
		CurrentMortgageBalance: d.Loan.CurrentMortgageBalance,
		LoanAmount:             d.Loan.LoanAmount,
		LoanType:               d.Loan.LoanType,
		EmploymentStatus:       d.Financial.EmploymentStatus,
		EmployerName:           d.Financial.EmployerName,
		JobTitle:               d.Financial.JobTitle,
		YearsAtJob:             d.Financial.YearsAtJob,
		AnnualIncome:           d.Financial.AnnualIncome,
		AdditionalIncome:       d.Financial.AdditionalIncome,
		CreditScore:            d.Financial.CreditScore,
		HasBankruptcy:          d.Financial.HasBankruptcy,
		HasForeclosure:         d.Financial.HasForeclosure,
		HasLatePayments:        d.Financial.HasLatePayments,
		AdditionalNotes:        d.Financial.AdditionalNotes,
	}
	if d.Financial.HasBankruptcy {
		in.BankruptcyDetails = d.Financial.BankruptcyDetails
	}
	if d.Financial.HasLatePayments {
		in.LatePaymentsDetails = d.Financial.LatePaymentsDetails
	}
	usecase.NormalizeLeadInput(&in)
	return in
}

// RefinanceInput is LeadInput plus the refinance fields. The current mortgage
// balance doubles as the refinance balance.
func (d Draft) RefinanceInput() usecase.CreateRefinanceLeadInput {
	return usecase.CreateRefinanceLeadInput{
		CreateLeadInput:       d.LeadInput(),
		CurrentBalance:        d.Loan.CurrentMortgageBalance,
		CurrentRate:           d.Loan.CurrentRate,
		CurrentMonthlyPayment: d.Loan.CurrentMonthlyPayment,
		RefinanceType:         strings.TrimSpace(d.Loan.RefinanceType),
	}
}

// StepErrors maps a field name to its message.
type StepErrors map[string]string

// fieldSteps places every validated field on the step that collects it.
var fieldSteps = map[string]Step{
	"firstName":  StepBasicInfo,
	"middleName": StepBasicInfo,
	"lastName":   StepBasicInfo,
	"email":      StepBasicInfo,
	"phone":      StepBasicInfo,

	"propertyType":            StepProperty,
	"propertyAddress.street":  StepProperty,
	"propertyAddress.city":    StepProperty,
	"propertyAddress.state":   StepProperty,
	"propertyAddress.zipCode": StepProperty,

	"loanPurpose":            StepLoan,
	"propertyValue":          StepLoan,
	"currentMortgageBalance": StepLoan,
	"loanAmount":             StepLoan,
	"loanType":               StepLoan,
	"currentBalance":         StepLoan,
	"currentRate":            StepLoan,
	"currentMonthlyPayment":  StepLoan,
	"refinanceType":          StepLoan,
	"estimatedSavings":       StepLoan,

	"employmentStatus":          StepFinancial,
	"employerName":              StepFinancial,
	"jobTitle":                  StepFinancial,
	"yearsAtJob":                StepFinancial,
	"annualIncome":              StepFinancial,
	"additionalIncome":          StepFinancial,
	"creditScore":               StepFinancial,
	"bankruptcyDetails.chapter": StepFinancial,
	"latePaymentsDetails.count": StepFinancial,
	"additionalNotes":           StepFinancial,
}

// Validate runs the intake rules against the draft and keeps the errors that
// belong to step. The review step reports every error.
func (d Draft) Validate(step Step) StepErrors {
	var errs []usecase.ValidationError
	if d.IsRefinance() {
		in := d.RefinanceInput()
		errs = append(usecase.ValidateCreateLeadInput(in.CreateLeadInput), usecase.ValidateRefinanceInput(in)...)
	} else {
		errs = usecase.ValidateCreateLeadInput(d.LeadInput())
	}

	out := StepErrors{}
	for _, e := range errs {
		owner, ok := fieldSteps[e.Field]
		if !ok {
			owner = StepReview
		}
		if step != StepReview && owner != step {
			continue
		}
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// FirstInvalid returns the earliest step with errors, or StepReview when every
// step is valid.
func (d Draft) FirstInvalid() Step {
	all := d.Validate(StepReview)
	first := StepReview
	for field := range all {
		if s, ok := fieldSteps[field]; ok && s < first {
			first = s
		}
	}
	return first
}
