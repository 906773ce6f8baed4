package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/integration/leadapi"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/mahidhar9542/mortgage-app/internal/wizard"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) CreateLead(ctx context.Context, in usecase.CreateLeadInput) (*entity.Lead, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockSubmitter) CreateRefinanceLead(ctx context.Context, in usecase.CreateRefinanceLeadInput) (*entity.Lead, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func lines(answers ...string) string {
	return strings.Join(answers, "\n") + "\n"
}

var (
	basicAnswers     = []string{"Jane", "", "Doe", "jane@example.com", "555-123-4567", "email"}
	propertyAnswers  = []string{"1 Main St", "Austin", "tx", "78701", "single_family", "primary"}
	purchaseAnswers  = []string{"purchase", "$400,000", "320000", "", "conventional"}
	financialAnswers = []string{"employed", "Acme", "Engineer", "5", "120000", "", "good", "n", "n", "n", ""}
)

func script(parts ...[]string) string {
	var all []string
	for _, p := range parts {
		all = append(all, p...)
	}
	return lines(all...)
}

func TestRunApply_SubmitsCompletedApplication(t *testing.T) {
	store := wizard.NewMemoryDraftStore()
	sub := new(MockSubmitter)
	ctrl := wizard.New(store, sub, logging.NewNop())

	badBasic := []string{"Jane", "", "Doe", "not-an-email", "555-123-4567", "email"}
	fixBasic := []string{"", "", "", "jane@example.com", "", ""}
	in := script(badBasic, fixBasic, propertyAnswers, purchaseAnswers, financialAnswers, []string{""})

	sub.On("CreateLead", mock.Anything, mock.MatchedBy(func(in usecase.CreateLeadInput) bool {
		return in.Email == "jane@example.com" &&
			in.PropertyAddress.State == "TX" &&
			*in.PropertyValue == 400000 &&
			*in.LoanAmount == 320000 &&
			in.CreditScore == "good"
	})).Return(&entity.Lead{ID: "lead-1", FirstName: "Jane"}, nil).Once()

	var out bytes.Buffer
	err := runApply(context.Background(), newPrompter(strings.NewReader(in), &out), ctrl)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Please enter a valid email")
	assert.Contains(t, out.String(), "Reference: lead-1")
	_, err = store.Load(wizard.DraftKey)
	assert.ErrorIs(t, err, wizard.ErrNoDraft)
	sub.AssertExpectations(t)
}

func TestRunApply_RefinanceAsksRefinanceQuestions(t *testing.T) {
	sub := new(MockSubmitter)
	ctrl := wizard.New(wizard.NewMemoryDraftStore(), sub, logging.NewNop())

	refinance := []string{"refinance", "450000", "300000", "310000", "", "7.125", "2100", "conventional"}
	in := script(basicAnswers, propertyAnswers, refinance, financialAnswers, []string{"submit"})

	sub.On("CreateRefinanceLead", mock.Anything, mock.MatchedBy(func(in usecase.CreateRefinanceLeadInput) bool {
		return *in.CurrentBalance == 310000 && *in.CurrentRate == 7.125 && in.RefinanceType == "conventional"
	})).Return(&entity.Lead{ID: "lead-2", FirstName: "Jane"}, nil).Once()

	var out bytes.Buffer
	require.NoError(t, runApply(context.Background(), newPrompter(strings.NewReader(in), &out), ctrl))
	assert.Contains(t, out.String(), "Refinance type")
	sub.AssertExpectations(t)
}

func TestRunApply_FailedSubmitKeepsDraft(t *testing.T) {
	store := wizard.NewMemoryDraftStore()
	sub := new(MockSubmitter)
	ctrl := wizard.New(store, sub, logging.NewNop())

	in := script(basicAnswers, propertyAnswers, purchaseAnswers, financialAnswers, []string{"submit", "n"})
	sub.On("CreateLead", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	var out bytes.Buffer
	err := runApply(context.Background(), newPrompter(strings.NewReader(in), &out), ctrl)
	assert.ErrorIs(t, err, errAbandoned)
	assert.Contains(t, out.String(), "Submission failed")

	_, err = store.Load(wizard.DraftKey)
	assert.NoError(t, err)
}

func TestRunApply_DuplicateIsNotRetried(t *testing.T) {
	sub := new(MockSubmitter)
	ctrl := wizard.New(wizard.NewMemoryDraftStore(), sub, logging.NewNop())

	in := script(basicAnswers, propertyAnswers, purchaseAnswers, financialAnswers, []string{"submit"})
	dup := &leadapi.APIError{Status: 400, Code: usecase.CodeDuplicateLead, ExistingID: "lead-9"}
	sub.On("CreateLead", mock.Anything, mock.Anything).Return(nil, dup).Once()

	var out bytes.Buffer
	err := runApply(context.Background(), newPrompter(strings.NewReader(in), &out), ctrl)
	assert.ErrorIs(t, err, errAbandoned)
	assert.Contains(t, out.String(), "reference lead-9")
	sub.AssertNumberOfCalls(t, "CreateLead", 1)
}

func TestRunApply_EndOfInputSavesDraft(t *testing.T) {
	store := wizard.NewMemoryDraftStore()
	ctrl := wizard.New(store, new(MockSubmitter), logging.NewNop())

	in := script(basicAnswers, []string{"1 Main St"})
	err := runApply(context.Background(), newPrompter(strings.NewReader(in), &bytes.Buffer{}), ctrl)
	assert.ErrorIs(t, err, errAbandoned)

	restored := wizard.New(store, nil, logging.NewNop())
	assert.Equal(t, "Jane", restored.Draft().Basic.FirstName)
}

func TestPrompter_Amount(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(lines("abc", "$350,000", "", "-")), &out)

	v, err := p.amount("Property value", nil)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 350000.0, *v)
	assert.Contains(t, out.String(), "please enter a number")

	kept, err := p.amount("Property value", v)
	require.NoError(t, err)
	assert.Same(t, v, kept)

	cleared, err := p.amount("Property value", v)
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

func TestPrompter_ChoiceRejectsUnknown(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(lines("house", "CONDO")), &out)

	got, err := p.choice("Property type", "", entity.PropertyTypes)
	require.NoError(t, err)
	assert.Equal(t, "condo", got)
	assert.Contains(t, out.String(), "please choose one of")
}

func TestApplyCmd_RequiresTerminal(t *testing.T) {
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })
	isTerminal = func(int) bool { return false }

	root := newRootCmd()
	root.SetArgs([]string{"apply", "--draft-dir", t.TempDir()})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	assert.ErrorContains(t, err, "interactive terminal")
}

func TestPrintRates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRates(&out, []entity.Rate{
		{Term: 30, Type: "fixed", Rate: 6.75, APR: 6.9, Points: 0.5},
		{Term: 5, Type: "arm", Rate: 6.1, APR: 6.4},
	}))
	assert.Contains(t, out.String(), "30-Year Fixed")
	assert.Contains(t, out.String(), "5-Year ARM")
	assert.Contains(t, out.String(), "6.750%")
}
