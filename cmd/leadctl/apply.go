package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/integration/leadapi"
	"github.com/mahidhar9542/mortgage-app/internal/wizard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal is replaced in tests.
var isTerminal = term.IsTerminal

var (
	contactMethods = []string{"email", "phone", "text"}
	propertyUses   = []string{"primary", "secondary", "investment"}
)

func newApplyCmd(opts *globalOptions) *cobra.Command {
	var (
		draftDir string
		fresh    bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Fill in a mortgage application step by step",
		Long: `Walks through the application wizard and submits it to the lead API.

Answers are saved after every step, so an interrupted application resumes
where it left off. Press Enter to keep the value shown in brackets, or type
"-" to clear an optional answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(int(os.Stdin.Fd())) {
				return errors.New("apply needs an interactive terminal")
			}

			if draftDir == "" {
				dir, err := wizard.DefaultDraftDir()
				if err != nil {
					return err
				}
				draftDir = dir
			}
			store := wizard.NewFileDraftStore(draftDir)
			if fresh {
				if err := store.Delete(wizard.DraftKey); err != nil {
					return fmt.Errorf("discard saved application: %w", err)
				}
			}

			logger := opts.logger()
			defer func() { _ = logger.Sync() }()

			ctrl := wizard.New(store, leadapi.NewClient(opts.apiURL, nil), logger)
			return runApply(cmd.Context(), newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), ctrl)
		},
	}
	cmd.Flags().StringVar(&draftDir, "draft-dir", "", "Directory for the saved application (default: user config dir)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard any saved application and start over")
	return cmd
}

var errAbandoned = errors.New("application not submitted; your answers are saved")

func runApply(ctx context.Context, p *prompter, ctrl *wizard.Controller) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := ctrl.Current()
		printProgress(p, ctrl.Steps())

		if step == wizard.StepReview {
			done, err := reviewAndSubmit(ctx, p, ctrl)
			if err != nil || done {
				return err
			}
			continue
		}

		data, err := promptStep(p, step, ctrl.Draft())
		if err != nil {
			return fmt.Errorf("%w: %v", errAbandoned, err)
		}
		ctrl.Update(data)
		if errs := ctrl.Advance(); len(errs) > 0 {
			printErrors(p, errs)
		}
	}
}

func reviewAndSubmit(ctx context.Context, p *prompter, ctrl *wizard.Controller) (bool, error) {
	printReview(p, ctrl.Draft())

	answer, err := p.choice("Submit application?", "submit", []string{"submit", "back", "quit"})
	if err != nil {
		return false, fmt.Errorf("%w: %v", errAbandoned, err)
	}
	switch answer {
	case "back":
		ctrl.Retreat()
		return false, nil
	case "quit":
		if err := ctrl.PersistDraft(); err != nil {
			return false, err
		}
		p.printf("Your answers are saved. Run leadctl apply again to finish.\n")
		return true, nil
	}

	lead, err := ctrl.Submit(ctx)
	if err == nil {
		p.printf("\nThank you, %s! Your application was submitted.\n", lead.FirstName)
		p.printf("Reference: %s\nA loan officer will contact you within one business day.\n", lead.ID)
		return true, nil
	}

	var incomplete *wizard.IncompleteError
	if errors.As(err, &incomplete) {
		printErrors(p, incomplete.Errors)
		return false, ctrl.GoTo(incomplete.Step)
	}

	var apiErr *leadapi.APIError
	if errors.As(err, &apiErr) && apiErr.IsDuplicate() {
		p.printf("An application with this email or phone number is already on file (reference %s).\n", apiErr.ExistingID)
		return false, errAbandoned
	}

	var submitErr *wizard.SubmitError
	if errors.As(err, &submitErr) && submitErr.Retryable {
		p.printf("Submission failed: %v\n", submitErr.Err)
		retry, err := p.yesNo("Try again?", true)
		if err != nil || !retry {
			return false, errAbandoned
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", errAbandoned, err)
}

func promptStep(p *prompter, step wizard.Step, d wizard.Draft) (wizard.StepData, error) {
	switch step {
	case wizard.StepBasicInfo:
		return promptBasic(p, d.Basic)
	case wizard.StepProperty:
		return promptProperty(p, d.Property)
	case wizard.StepLoan:
		return promptLoan(p, d.Loan)
	case wizard.StepFinancial:
		return promptFinancial(p, d.Financial)
	}
	return nil, fmt.Errorf("no questions for step %s", step)
}

func promptBasic(p *prompter, b wizard.BasicInfo) (wizard.StepData, error) {
	var err error
	fields := []struct {
		label string
		v     *string
	}{
		{"First name", &b.FirstName},
		{"Middle name", &b.MiddleName},
		{"Last name", &b.LastName},
		{"Email", &b.Email},
		{"Phone", &b.Phone},
	}
	for _, f := range fields {
		if *f.v, err = p.text(f.label, *f.v); err != nil {
			return nil, err
		}
	}
	if b.PreferredContact, err = p.choice("Preferred contact method", b.PreferredContact, contactMethods); err != nil {
		return nil, err
	}
	return b, nil
}

func promptProperty(p *prompter, info wizard.PropertyInfo) (wizard.StepData, error) {
	var err error
	fields := []struct {
		label string
		v     *string
	}{
		{"Street address", &info.Address.Street},
		{"City", &info.Address.City},
		{"State (2 letters)", &info.Address.State},
		{"ZIP code", &info.Address.ZipCode},
	}
	for _, f := range fields {
		if *f.v, err = p.text(f.label, *f.v); err != nil {
			return nil, err
		}
	}
	if info.PropertyType, err = p.choice("Property type", info.PropertyType, entity.PropertyTypes); err != nil {
		return nil, err
	}
	if info.PropertyUse, err = p.choice("Property use", info.PropertyUse, propertyUses); err != nil {
		return nil, err
	}
	return info, nil
}

func promptLoan(p *prompter, l wizard.LoanInfo) (wizard.StepData, error) {
	var err error
	if l.LoanPurpose, err = p.choice("Loan purpose", l.LoanPurpose, entity.LoanPurposes); err != nil {
		return nil, err
	}
	if l.PropertyValue, err = p.amount("Property value", l.PropertyValue); err != nil {
		return nil, err
	}
	if l.LoanAmount, err = p.amount("Loan amount", l.LoanAmount); err != nil {
		return nil, err
	}
	if l.CurrentMortgageBalance, err = p.amount("Current mortgage balance", l.CurrentMortgageBalance); err != nil {
		return nil, err
	}
	if l.LoanType, err = p.choice("Loan type", l.LoanType, entity.LoanTypes); err != nil {
		return nil, err
	}

	if l.LoanPurpose != "refinance" {
		l.CurrentRate, l.CurrentMonthlyPayment, l.RefinanceType = nil, nil, ""
		return l, nil
	}
	if l.CurrentRate, err = p.amount("Current interest rate (%)", l.CurrentRate); err != nil {
		return nil, err
	}
	if l.CurrentMonthlyPayment, err = p.amount("Current monthly payment", l.CurrentMonthlyPayment); err != nil {
		return nil, err
	}
	if l.RefinanceType, err = p.choice("Refinance type", l.RefinanceType, entity.RefinanceTypes); err != nil {
		return nil, err
	}
	return l, nil
}

func promptFinancial(p *prompter, f wizard.FinancialInfo) (wizard.StepData, error) {
	var err error
	if f.EmploymentStatus, err = p.choice("Employment status", f.EmploymentStatus, entity.EmploymentTypes); err != nil {
		return nil, err
	}
	if f.EmployerName, err = p.text("Employer", f.EmployerName); err != nil {
		return nil, err
	}
	if f.JobTitle, err = p.text("Job title", f.JobTitle); err != nil {
		return nil, err
	}
	if f.YearsAtJob, err = p.amount("Years at job", f.YearsAtJob); err != nil {
		return nil, err
	}
	if f.AnnualIncome, err = p.amount("Annual income", f.AnnualIncome); err != nil {
		return nil, err
	}
	if f.AdditionalIncome, err = p.amount("Additional income", f.AdditionalIncome); err != nil {
		return nil, err
	}
	if f.CreditScore, err = p.choice("Credit score", f.CreditScore, entity.CreditScoreRanges); err != nil {
		return nil, err
	}

	if f.HasBankruptcy, err = p.yesNo("Any bankruptcy in the last 7 years?", f.HasBankruptcy); err != nil {
		return nil, err
	}
	if f.HasBankruptcy {
		details := entity.BankruptcyDetails{}
		if f.BankruptcyDetails != nil {
			details = *f.BankruptcyDetails
		}
		if details.Chapter, err = p.choice("Bankruptcy chapter", details.Chapter, entity.BankruptcyChapter); err != nil {
			return nil, err
		}
		f.BankruptcyDetails = &details
	} else {
		f.BankruptcyDetails = nil
	}

	if f.HasForeclosure, err = p.yesNo("Any foreclosure in the last 7 years?", f.HasForeclosure); err != nil {
		return nil, err
	}

	if f.HasLatePayments, err = p.yesNo("Any late payments in the last 2 years?", f.HasLatePayments); err != nil {
		return nil, err
	}
	if f.HasLatePayments {
		details := entity.LatePaymentsDetails{}
		if f.LatePaymentsDetails != nil {
			details = *f.LatePaymentsDetails
		}
		if details.Count, err = p.count("How many late payments", details.Count); err != nil {
			return nil, err
		}
		f.LatePaymentsDetails = &details
	} else {
		f.LatePaymentsDetails = nil
	}

	if f.AdditionalNotes, err = p.text("Anything else we should know", f.AdditionalNotes); err != nil {
		return nil, err
	}
	return f, nil
}

func printProgress(p *prompter, steps []wizard.StepStatus) {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		mark := " "
		switch s.State {
		case wizard.StateComplete:
			mark = "x"
		case wizard.StateCurrent:
			mark = ">"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", mark, s.Name))
	}
	p.printf("\n%s\n\n", strings.Join(parts, "  "))
}

func printErrors(p *prompter, errs wizard.StepErrors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	p.printf("\nPlease fix the following:\n")
	for _, f := range fields {
		p.printf("  - %s\n", errs[f])
	}
}

func printReview(p *prompter, d wizard.Draft) {
	b, pr, l, f := d.Basic, d.Property, d.Loan, d.Financial
	p.printf("Applicant:  %s %s\n", b.FirstName, b.LastName)
	p.printf("Contact:    %s, %s\n", b.Email, b.Phone)
	p.printf("Property:   %s, %s, %s %s (%s)\n", pr.Address.Street, pr.Address.City, pr.Address.State, pr.Address.ZipCode, pr.PropertyType)
	p.printf("Loan:       %s of %s on a %s property\n", l.LoanPurpose, money(l.LoanAmount), money(l.PropertyValue))
	if d.IsRefinance() {
		p.printf("Refinance:  %s at %s%%, balance %s\n", l.RefinanceType, number(l.CurrentRate), money(l.CurrentMortgageBalance))
	}
	p.printf("Income:     %s (%s), credit %s\n\n", money(f.AnnualIncome), f.EmploymentStatus, f.CreditScore)
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return entity.FormatAmount(*v)
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}
