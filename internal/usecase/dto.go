package usecase

import (
	"io"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

// CreateLeadInput is the body of a public lead submission.
type CreateLeadInput struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`

	LoanPurpose            string         `json:"loanPurpose"`
	PropertyType           string         `json:"propertyType"`
	PropertyAddress        entity.Address `json:"propertyAddress"`
	PropertyValue          *float64       `json:"propertyValue"`
	CurrentMortgageBalance *float64       `json:"currentMortgageBalance,omitempty"`
	LoanAmount             *float64       `json:"loanAmount"`
	LoanType               string         `json:"loanType,omitempty"`

	EmploymentStatus string   `json:"employmentStatus"`
	EmployerName     string   `json:"employerName,omitempty"`
	JobTitle         string   `json:"jobTitle,omitempty"`
	YearsAtJob       *float64 `json:"yearsAtJob,omitempty"`
	AnnualIncome     *float64 `json:"annualIncome"`
	AdditionalIncome *float64 `json:"additionalIncome,omitempty"`
	CreditScore      string   `json:"creditScore"`

	HasBankruptcy       bool                        `json:"hasBankruptcy"`
	BankruptcyDetails   *entity.BankruptcyDetails   `json:"bankruptcyDetails,omitempty"`
	HasForeclosure      bool                        `json:"hasForeclosure"`
	HasLatePayments     bool                        `json:"hasLatePayments"`
	LatePaymentsDetails *entity.LatePaymentsDetails `json:"latePaymentsDetails,omitempty"`
	AdditionalNotes     string                      `json:"additionalNotes,omitempty"`
	Tags                []string                    `json:"tags,omitempty"`
}

// CreateRefinanceLeadInput carries the refinance fields next to the regular lead fields.
type CreateRefinanceLeadInput struct {
	CreateLeadInput
	CurrentBalance        *float64 `json:"currentBalance"`
	CurrentRate           *float64 `json:"currentRate"`
	CurrentMonthlyPayment *float64 `json:"currentMonthlyPayment,omitempty"`
	RefinanceType         string   `json:"refinanceType"`
	EstimatedSavings      *float64 `json:"estimatedSavings,omitempty"`
	// RefinanceDate defaults to the submission time.
	RefinanceDate *time.Time `json:"refinanceDate,omitempty"`
}

// RequestMeta is captured from the HTTP request that submitted a lead.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID string
	Role   entity.Role
	Email  string
}

// SystemActor authors notes written by the application itself.
var SystemActor = Actor{}

func (a Actor) authorID() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

type ListLeadsInput struct {
	Page         int
	Limit        int
	SortBy       string
	Order        string
	Status       string
	LoanPurpose  string
	PropertyType string
	CreditScore  string
	StartDate    string
	EndDate      string
	Search       string
}

type ListLeadsOutput struct {
	Count           int           `json:"count"`
	Total           int           `json:"total"`
	Page            int           `json:"page"`
	Pages           int           `json:"pages"`
	HasNextPage     bool          `json:"hasNextPage"`
	HasPreviousPage bool          `json:"hasPreviousPage"`
	Data            []entity.Lead `json:"data"`
}

// LeadSummary is the projection returned by quick search.
type LeadSummary struct {
	ID           string            `json:"id"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Status       entity.LeadStatus `json:"status"`
	LoanPurpose  string            `json:"loanPurpose"`
	PropertyType string            `json:"propertyType"`
}

type LeadStats struct {
	TotalLeads          int                  `json:"totalLeads"`
	StatusCount         []entity.CountBucket `json:"statusCount"`
	LoanPurposeCount    []entity.CountBucket `json:"loanPurposeCount"`
	MonthlyApplications []MonthlyCount       `json:"monthlyApplications"`
}

type MonthlyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type RefinanceStats struct {
	TotalRefinances   int                  `json:"totalRefinances"`
	MonthlyRefinances int                  `json:"monthlyRefinances"`
	RefinanceTypes    []entity.CountBucket `json:"refinanceTypes"`
	AverageSavings    float64              `json:"averageSavings"`
	TotalSavings      float64              `json:"totalSavings"`
}

// UpdateLeadInput is the body of PUT /api/leads/{id}. Status and assignment are
// routed to their own paths; the identity fields are never writable.
type UpdateLeadInput struct {
	FirstName              *string         `json:"firstName,omitempty"`
	MiddleName             *string         `json:"middleName,omitempty"`
	LastName               *string         `json:"lastName,omitempty"`
	Email                  *string         `json:"email,omitempty"`
	Phone                  *string         `json:"phone,omitempty"`
	LoanPurpose            *string         `json:"loanPurpose,omitempty"`
	PropertyType           *string         `json:"propertyType,omitempty"`
	PropertyAddress        *entity.Address `json:"propertyAddress,omitempty"`
	PropertyValue          *float64        `json:"propertyValue,omitempty"`
	CurrentMortgageBalance *float64        `json:"currentMortgageBalance,omitempty"`
	LoanAmount             *float64        `json:"loanAmount,omitempty"`
	LoanType               *string         `json:"loanType,omitempty"`
	EmploymentStatus       *string         `json:"employmentStatus,omitempty"`
	EmployerName           *string         `json:"employerName,omitempty"`
	JobTitle               *string         `json:"jobTitle,omitempty"`
	YearsAtJob             *float64        `json:"yearsAtJob,omitempty"`
	AnnualIncome           *float64        `json:"annualIncome,omitempty"`
	AdditionalIncome       *float64        `json:"additionalIncome,omitempty"`
	CreditScore            *string         `json:"creditScore,omitempty"`
	AdditionalNotes        *string         `json:"additionalNotes,omitempty"`
	NextFollowUp           *time.Time      `json:"nextFollowUp,omitempty"`
	Tags                   []string        `json:"tags,omitempty"`

	Status     *string `json:"status,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty"`
	ID         *string `json:"id,omitempty"`
	Version    *int    `json:"__v,omitempty"`
}

type AddNoteInput struct {
	Content    string `json:"content"`
	IsInternal *bool  `json:"isInternal,omitempty"`
}

// ApplicationDetails is the borrower's view of one of their applications.
type ApplicationDetails struct {
	Lead             *entity.Lead     `json:"application"`
	Steps            []ProgressStep   `json:"steps"`
	Progress         int              `json:"progress"`
	MonthlyPayment   float64          `json:"monthlyPayment"`
	InterestRate     float64          `json:"interestRate"`
	TermYears        int              `json:"loanTerm"`
	EstimatedClosing time.Time        `json:"estimatedClosing"`
	LoanOfficer      *entity.Assignee `json:"loanOfficer,omitempty"`
}

type ProgressStep struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"` // complete, current, upcoming
}

type UploadDocumentInput struct {
	ApplicationID string
	DocumentType  string
	FileName      string
	Size          int64
	Body          io.Reader
}

type TeamMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type SendMessageInput struct {
	Subject       string `json:"subject"`
	Message       string `json:"message"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type ScheduleCallInput struct {
	PreferredDate string `json:"preferredDate"`
	PreferredTime string `json:"preferredTime"`
	Reason        string `json:"reason,omitempty"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type Disclosure struct {
	URL string `json:"url"`
}

type CreditReport struct {
	Score       int       `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
	Factors     []string  `json:"factors"`
}

type SignUpInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthOutput struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}
