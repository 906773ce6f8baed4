package usecase

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-()+.]+$`)
	statePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// NormalizeLeadInput trims strings, lowercases the email and uppercases the state.
func NormalizeLeadInput(in *CreateLeadInput) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.LoanPurpose = strings.TrimSpace(in.LoanPurpose)
	in.PropertyType = strings.TrimSpace(in.PropertyType)
	in.PropertyAddress.Street = strings.TrimSpace(in.PropertyAddress.Street)
	in.PropertyAddress.City = strings.TrimSpace(in.PropertyAddress.City)
	in.PropertyAddress.State = strings.ToUpper(strings.TrimSpace(in.PropertyAddress.State))
	in.PropertyAddress.ZipCode = strings.TrimSpace(in.PropertyAddress.ZipCode)
	in.LoanType = strings.TrimSpace(in.LoanType)
	in.EmploymentStatus = strings.TrimSpace(in.EmploymentStatus)
	in.EmployerName = strings.TrimSpace(in.EmployerName)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.CreditScore = strings.TrimSpace(in.CreditScore)
	in.AdditionalNotes = strings.TrimSpace(in.AdditionalNotes)
	in.Tags = entity.NormalizeTags(in.Tags)
}

func ValidateCreateLeadInput(in CreateLeadInput) []ValidationError {
	var errors []ValidationError
	add := func(field, msg string) {
		errors = append(errors, ValidationError{field, msg})
	}

	requiredMax(&errors, "firstName", "First name", in.FirstName, 50)
	if utf8.RuneCountInString(in.MiddleName) > 50 {
		add("middleName", "Middle name cannot exceed 50 characters")
	}
	requiredMax(&errors, "lastName", "Last name", in.LastName, 50)

	validateEmail(&errors, in.Email)
	validatePhone(&errors, in.Phone)

	oneOf(&errors, "loanPurpose", "Loan purpose", in.LoanPurpose, entity.LoanPurposes, true)
	oneOf(&errors, "propertyType", "Property type", in.PropertyType, entity.PropertyTypes, true)

	validateAddress(&errors, in.PropertyAddress)

	requiredAmount(&errors, "propertyValue", "Property value", in.PropertyValue)
	optionalAmount(&errors, "currentMortgageBalance", "Mortgage balance", in.CurrentMortgageBalance)
	requiredAmount(&errors, "loanAmount", "Loan amount", in.LoanAmount)
	oneOf(&errors, "loanType", "Loan type", in.LoanType, entity.LoanTypes, false)

	oneOf(&errors, "employmentStatus", "Employment status", in.EmploymentStatus, entity.EmploymentTypes, true)
	if utf8.RuneCountInString(in.EmployerName) > 100 {
		add("employerName", "Employer name cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(in.JobTitle) > 100 {
		add("jobTitle", "Job title cannot exceed 100 characters")
	}
	optionalAmount(&errors, "yearsAtJob", "Years at job", in.YearsAtJob)
	requiredAmount(&errors, "annualIncome", "Annual income", in.AnnualIncome)
	optionalAmount(&errors, "additionalIncome", "Additional income", in.AdditionalIncome)
	oneOf(&errors, "creditScore", "Credit score range", in.CreditScore, entity.CreditScoreRanges, true)

	if in.BankruptcyDetails != nil && in.BankruptcyDetails.Chapter != "" &&
		!slices.Contains(entity.BankruptcyChapter, in.BankruptcyDetails.Chapter) {
		add("bankruptcyDetails.chapter", "Bankruptcy chapter must be one of 7, 11, 13, other")
	}
	if in.LatePaymentsDetails != nil && in.LatePaymentsDetails.Count < 0 {
		add("latePaymentsDetails.count", "Late payment count cannot be negative")
	}
	if utf8.RuneCountInString(in.AdditionalNotes) > 2000 {
		add("additionalNotes", "Additional notes cannot exceed 2000 characters")
	}

	return errors
}

// ValidateRefinanceInput checks the refinance-only fields.
func ValidateRefinanceInput(in CreateRefinanceLeadInput) []ValidationError {
	var errors []ValidationError

	if in.CurrentBalance == nil || *in.CurrentBalance <= 0 {
		errors = append(errors, ValidationError{"currentBalance", "Current balance is required"})
	}
	if in.CurrentRate == nil || *in.CurrentRate <= 0 {
		errors = append(errors, ValidationError{"currentRate", "Current rate is required"})
	} else if *in.CurrentRate > 100 {
		errors = append(errors, ValidationError{"currentRate", "Current rate cannot exceed 100"})
	}
	if strings.TrimSpace(in.RefinanceType) == "" {
		errors = append(errors, ValidationError{"refinanceType", "Refinance type is required"})
	} else if !slices.Contains(entity.RefinanceTypes, in.RefinanceType) {
		errors = append(errors, ValidationError{"refinanceType", "Refinance type must be one of " + strings.Join(entity.RefinanceTypes, ", ")})
	}
	optionalAmount(&errors, "currentMonthlyPayment", "Current monthly payment", in.CurrentMonthlyPayment)
	optionalAmount(&errors, "estimatedSavings", "Estimated savings", in.EstimatedSavings)

	return errors
}

// ValidateLeadPatch applies the intake rules to the fields present in an update.
func ValidateLeadPatch(p entity.LeadPatch) []ValidationError {
	var errors []ValidationError

	if p.FirstName != nil {
		requiredMax(&errors, "firstName", "First name", *p.FirstName, 50)
	}
	if p.LastName != nil {
		requiredMax(&errors, "lastName", "Last name", *p.LastName, 50)
	}
	if p.MiddleName != nil && utf8.RuneCountInString(*p.MiddleName) > 50 {
		errors = append(errors, ValidationError{"middleName", "Middle name cannot exceed 50 characters"})
	}
	if p.Email != nil {
		validateEmail(&errors, *p.Email)
	}
	if p.Phone != nil {
		validatePhone(&errors, *p.Phone)
	}
	if p.LoanPurpose != nil {
		oneOf(&errors, "loanPurpose", "Loan purpose", *p.LoanPurpose, entity.LoanPurposes, true)
	}
	if p.PropertyType != nil {
		oneOf(&errors, "propertyType", "Property type", *p.PropertyType, entity.PropertyTypes, true)
	}
	if p.PropertyAddress != nil {
		validateAddress(&errors, *p.PropertyAddress)
	}
	if p.LoanType != nil {
		oneOf(&errors, "loanType", "Loan type", *p.LoanType, entity.LoanTypes, true)
	}
	if p.EmploymentStatus != nil {
		oneOf(&errors, "employmentStatus", "Employment status", *p.EmploymentStatus, entity.EmploymentTypes, true)
	}
	if p.CreditScore != nil {
		oneOf(&errors, "creditScore", "Credit score range", *p.CreditScore, entity.CreditScoreRanges, true)
	}
	if p.AdditionalNotes != nil && utf8.RuneCountInString(*p.AdditionalNotes) > 2000 {
		errors = append(errors, ValidationError{"additionalNotes", "Additional notes cannot exceed 2000 characters"})
	}
	optionalAmount(&errors, "propertyValue", "Property value", p.PropertyValue)
	optionalAmount(&errors, "currentMortgageBalance", "Mortgage balance", p.CurrentMortgageBalance)
	optionalAmount(&errors, "loanAmount", "Loan amount", p.LoanAmount)
	optionalAmount(&errors, "yearsAtJob", "Years at job", p.YearsAtJob)
	optionalAmount(&errors, "annualIncome", "Annual income", p.AnnualIncome)
	optionalAmount(&errors, "additionalIncome", "Additional income", p.AdditionalIncome)

	return errors
}

// IsValidEmail is shared with the rate alert and auth flows.
func IsValidEmail(email string) bool {
	return email != "" && len(email) <= 100 && emailPattern.MatchString(email)
}

func validateEmail(errors *[]ValidationError, email string) {
	switch {
	case email == "":
		*errors = append(*errors, ValidationError{"email", "Email is required"})
	case len(email) > 100:
		*errors = append(*errors, ValidationError{"email", "Email cannot exceed 100 characters"})
	case !emailPattern.MatchString(email):
		*errors = append(*errors, ValidationError{"email", "Please enter a valid email"})
	}
}

func validatePhone(errors *[]ValidationError, phone string) {
	digits := entity.DigitsOnly(phone)
	switch {
	case phone == "":
		*errors = append(*errors, ValidationError{"phone", "Phone number is required"})
	case len(phone) > 20 || !phonePattern.MatchString(phone):
		*errors = append(*errors, ValidationError{"phone", "Please enter a valid phone number"})
	case len(digits) < 10 || len(digits) > 15:
		*errors = append(*errors, ValidationError{"phone", "Please enter a valid phone number"})
	}
}

func validateAddress(errors *[]ValidationError, a entity.Address) {
	requiredMax(errors, "propertyAddress.street", "Street address", a.Street, 200)
	requiredMax(errors, "propertyAddress.city", "City", a.City, 100)
	if a.State == "" {
		*errors = append(*errors, ValidationError{"propertyAddress.state", "State is required"})
	} else if !statePattern.MatchString(strings.ToUpper(a.State)) {
		*errors = append(*errors, ValidationError{"propertyAddress.state", "State must be a 2-letter code"})
	}
	if a.ZipCode == "" {
		*errors = append(*errors, ValidationError{"propertyAddress.zipCode", "ZIP code is required"})
	} else if !zipPattern.MatchString(a.ZipCode) {
		*errors = append(*errors, ValidationError{"propertyAddress.zipCode", "Please enter a valid ZIP code"})
	}
}

func requiredMax(errors *[]ValidationError, field, label, value string, max int) {
	if strings.TrimSpace(value) == "" {
		*errors = append(*errors, ValidationError{field, label + " is required"})
	} else if utf8.RuneCountInString(value) > max {
		*errors = append(*errors, ValidationError{field, fmt.Sprintf("%s cannot exceed %d characters", label, max)})
	}
}

func requiredAmount(errors *[]ValidationError, field, label string, v *float64) {
	if v == nil {
		*errors = append(*errors, ValidationError{field, label + " is required"})
		return
	}
	optionalAmount(errors, field, label, v)
}

func optionalAmount(errors *[]ValidationError, field, label string, v *float64) {
	if v != nil && *v < 0 {
		*errors = append(*errors, ValidationError{field, label + " cannot be negative"})
	}
}

func oneOf(errors *[]ValidationError, field, label, value string, allowed []string, required bool) {
	if value == "" {
		if required {
			*errors = append(*errors, ValidationError{field, label + " is required"})
		}
		return
	}
	if !slices.Contains(allowed, value) {
		*errors = append(*errors, ValidationError{field, label + " must be one of " + strings.Join(allowed, ", ")})
	}
}

// parseDateParam accepts YYYY-MM-DD or RFC 3339. A bare date used as an upper
// bound covers the whole day.
func parseDateParam(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
