package entity

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound      = errors.New("lead not found")
	ErrDuplicateContact  = errors.New("a lead with this email or phone already exists")
	ErrInvalidLeadStatus = errors.New("invalid lead status")
)

type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusQualified  LeadStatus = "qualified"
	LeadStatusClosed     LeadStatus = "closed"
	LeadStatusRejected   LeadStatus = "rejected"
)

var LeadStatuses = []LeadStatus{
	LeadStatusNew, LeadStatusContacted, LeadStatusInProgress,
	LeadStatusQualified, LeadStatusClosed, LeadStatusRejected,
}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const (
	SourceWebsite   = "website"
	SourceRefinance = "refinance-page"
)

var (
	LoanPurposes      = []string{"purchase", "refinance", "cash-out"}
	PropertyTypes     = []string{"single_family", "condo", "townhouse", "multi_family", "other"}
	LoanTypes         = []string{"conventional", "fha", "va", "usda", "jumbo"}
	EmploymentTypes   = []string{"employed", "self_employed", "retired", "unemployed", "other"}
	CreditScoreRanges = []string{"excellent", "very_good", "good", "fair", "poor", "unknown"}
	BankruptcyChapter = []string{"7", "11", "13", "other"}
	RefinanceTypes    = []string{"conventional", "va-streamline", "fha-streamline", "jumbo", "cash-out"}
)

// Address of the subject property.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

type BankruptcyDetails struct {
	Chapter       string     `json:"chapter,omitempty"`
	DischargeDate *time.Time `json:"dischargeDate,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
}

type LatePaymentsDetails struct {
	Count       int         `json:"count,omitempty"`
	Dates       []time.Time `json:"dates,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
}

// RefinanceData is only set on leads created through the refinance page.
type RefinanceData struct {
	CurrentBalance        float64   `json:"currentBalance"`
	CurrentRate           float64   `json:"currentRate"`
	CurrentMonthlyPayment float64   `json:"currentMonthlyPayment"`
	RefinanceType         string    `json:"refinanceType"`
	EstimatedSavings      float64   `json:"estimatedSavings"`
	RefinanceDate         time.Time `json:"refinanceDate"`
	NewRate               float64   `json:"newRate,omitempty"`
	NewMonthlyPayment     float64   `json:"newMonthlyPayment,omitempty"`
	BreakEvenMonths       int       `json:"breakEvenMonths,omitempty"`
}

// Note is append-only. A nil CreatedBy marks a system note.
type Note struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"-"`
	Content    string    `json:"content"`
	CreatedBy  *string   `json:"createdBy"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Assignee is the staff member a lead is assigned to, resolved on detail reads.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Lead struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	// PhoneDigits is the digits-only phone used for duplicate detection.
	PhoneDigits string `json:"-"`

	LoanPurpose            string  `json:"loanPurpose"`
	PropertyType           string  `json:"propertyType"`
	PropertyAddress        Address `json:"propertyAddress"`
	PropertyValue          float64 `json:"propertyValue"`
	CurrentMortgageBalance float64 `json:"currentMortgageBalance,omitempty"`
	LoanAmount             float64 `json:"loanAmount"`
	LoanType               string  `json:"loanType"`

	EmploymentStatus string  `json:"employmentStatus"`
	EmployerName     string  `json:"employerName,omitempty"`
	JobTitle         string  `json:"jobTitle,omitempty"`
	YearsAtJob       float64 `json:"yearsAtJob,omitempty"`
	AnnualIncome     float64 `json:"annualIncome"`
	AdditionalIncome float64 `json:"additionalIncome"`
	CreditScore      string  `json:"creditScore"`

	HasBankruptcy       bool                 `json:"hasBankruptcy"`
	BankruptcyDetails   *BankruptcyDetails   `json:"bankruptcyDetails,omitempty"`
	HasForeclosure      bool                 `json:"hasForeclosure"`
	HasLatePayments     bool                 `json:"hasLatePayments"`
	LatePaymentsDetails *LatePaymentsDetails `json:"latePaymentsDetails,omitempty"`
	AdditionalNotes     string               `json:"additionalNotes,omitempty"`

	RefinanceData *RefinanceData `json:"refinanceData,omitempty"`

	Status        LeadStatus `json:"status"`
	Source        string     `json:"source"`
	IPAddress     string     `json:"ipAddress,omitempty"`
	UserAgent     string     `json:"userAgent,omitempty"`
	LastContacted *time.Time `json:"lastContacted,omitempty"`
	NextFollowUp  *time.Time `json:"nextFollowUp,omitempty"`
	AssignedTo    *string    `json:"-"`
	Assignee      *Assignee  `json:"assignedTo,omitempty"`
	Tags          []string   `json:"tags"`
	Notes         []Note     `json:"notes"`

	SubmittedAt time.Time `json:"submittedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewLead stamps identity and intake defaults on a lead about to be stored.
func NewLead(source string, now time.Time) *Lead {
	if source == "" {
		source = SourceWebsite
	}
	return &Lead{
		ID:          uuid.New().String(),
		Status:      LeadStatusNew,
		Source:      source,
		LoanType:    "conventional",
		Tags:        []string{},
		Notes:       []Note{},
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FullName joins first, middle and last name.
func (l *Lead) FullName() string {
	parts := []string{l.FirstName}
	if l.MiddleName != "" {
		parts = append(parts, l.MiddleName)
	}
	parts = append(parts, l.LastName)
	return strings.Join(parts, " ")
}

var nonDigits = regexp.MustCompile(`\D`)

// DigitsOnly strips everything but 0-9.
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// NormalizePhoneDigits is the phone key used for duplicate detection and search.
// A leading US country code is dropped so +1 555-123-4567 and 555-123-4567 match.
func NormalizePhoneDigits(s string) string {
	d := DigitsOnly(s)
	if len(d) == 11 && d[0] == '1' {
		return d[1:]
	}
	return d
}

// FormatPhone renders a 10 digit US number as (555) 123-4567. Other input is returned trimmed.
func FormatPhone(phone string) string {
	d := NormalizePhoneDigits(phone)
	if len(d) != 10 {
		return strings.TrimSpace(phone)
	}
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:]
}

// FormatAmount renders 1234567.8 as $1,234,568.
func FormatAmount(f float64) string {
	digits := strconv.FormatInt(int64(math.Round(math.Abs(f))), 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if f < 0 && b.String() != "0" {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// NormalizeTags trims and lowercases tags, dropping empties and repeats.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// LeadFilter narrows lead listings. Empty fields do not filter.
type LeadFilter struct {
	Status       string
	LoanPurpose  string
	PropertyType string
	CreditScore  string
	Email        string
	StartDate    *time.Time
	EndDate      *time.Time
	Search       string
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
}

// LeadPatch carries the editable fields of a general update. Nil means unchanged.
type LeadPatch struct {
	FirstName              *string
	MiddleName             *string
	LastName               *string
	Email                  *string
	Phone                  *string
	LoanPurpose            *string
	PropertyType           *string
	PropertyAddress        *Address
	PropertyValue          *float64
	CurrentMortgageBalance *float64
	LoanAmount             *float64
	LoanType               *string
	EmploymentStatus       *string
	EmployerName           *string
	JobTitle               *string
	YearsAtJob             *float64
	AnnualIncome           *float64
	AdditionalIncome       *float64
	CreditScore            *string
	AdditionalNotes        *string
	NextFollowUp           *time.Time
	Tags                   []string

	// ClearRefinanceData drops the refinance snapshot, set when the purpose
	// moves away from refinance.
	ClearRefinanceData bool
}

func (p LeadPatch) IsEmpty() bool {
	return p.FirstName == nil && p.MiddleName == nil && p.LastName == nil &&
		p.Email == nil && p.Phone == nil && p.LoanPurpose == nil &&
		p.PropertyType == nil && p.PropertyAddress == nil && p.PropertyValue == nil &&
		p.CurrentMortgageBalance == nil && p.LoanAmount == nil && p.LoanType == nil &&
		p.EmploymentStatus == nil && p.EmployerName == nil && p.JobTitle == nil &&
		p.YearsAtJob == nil && p.AnnualIncome == nil && p.AdditionalIncome == nil &&
		p.CreditScore == nil && p.AdditionalNotes == nil && p.NextFollowUp == nil &&
		p.Tags == nil && !p.ClearRefinanceData
}

type CountBucket struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

type MonthBucket struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type RefinanceAggregate struct {
	Total          int
	LastWindow     int
	Types          []CountBucket
	AverageSavings float64
	TotalSavings   float64
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// FindByContact returns the first lead whose email or phone digits match.
	FindByContact(ctx context.Context, email, phoneDigits string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, int, error)
	Iterate(ctx context.Context, filter LeadFilter, fn func(*Lead) error) error
	Update(ctx context.Context, id string, patch LeadPatch) error
	UpdateStatus(ctx context.Context, id string, status LeadStatus) error
	Assign(ctx context.Context, id string, userID *string) error
	AddNote(ctx context.Context, note *Note) error
	TouchLastContacted(ctx context.Context, id string, at time.Time) error
	CountByStatus(ctx context.Context) ([]CountBucket, error)
	CountByLoanPurpose(ctx context.Context) ([]CountBucket, error)
	CountByMonth(ctx context.Context, limit int) ([]MonthBucket, error)
	Count(ctx context.Context) (int, error)
	RefinanceAggregate(ctx context.Context, since time.Time) (*RefinanceAggregate, error)
}
