package handlers

import (
	"context"
	"io"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/stretchr/testify/mock"
)

type MockLeadCreator struct {
	mock.Mock
}

func (m *MockLeadCreator) Execute(ctx context.Context, in usecase.CreateLeadInput, meta usecase.RequestMeta) (*entity.Lead, error) {
	args := m.Called(ctx, in, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadCreator) ExecuteRefinance(ctx context.Context, in usecase.CreateRefinanceLeadInput, meta usecase.RequestMeta) (*entity.Lead, error) {
	args := m.Called(ctx, in, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

type MockLeadQuerier struct {
	mock.Mock
}

func (m *MockLeadQuerier) List(ctx context.Context, in usecase.ListLeadsInput) (*usecase.ListLeadsOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListLeadsOutput), args.Error(1)
}

func (m *MockLeadQuerier) Search(ctx context.Context, query string) ([]usecase.LeadSummary, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.LeadSummary), args.Error(1)
}

func (m *MockLeadQuerier) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadQuerier) Stats(ctx context.Context) (*usecase.LeadStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.LeadStats), args.Error(1)
}

func (m *MockLeadQuerier) RefinanceStats(ctx context.Context) (*usecase.RefinanceStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RefinanceStats), args.Error(1)
}

// ExportCSV writes the first return value (a string) before returning the error.
func (m *MockLeadQuerier) ExportCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx)
	if s := args.String(0); s != "" {
		_, _ = io.WriteString(w, s)
	}
	return args.Error(1)
}

type MockLeadManager struct {
	mock.Mock
}

func (m *MockLeadManager) AddNote(ctx context.Context, leadID string, in usecase.AddNoteInput, actor usecase.Actor) (*entity.Note, error) {
	args := m.Called(ctx, leadID, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Note), args.Error(1)
}

func (m *MockLeadManager) Update(ctx context.Context, leadID string, in usecase.UpdateLeadInput, actor usecase.Actor) (*entity.Lead, error) {
	args := m.Called(ctx, leadID, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadManager) UpdateStatus(ctx context.Context, leadID, status string, actor usecase.Actor) (*entity.Lead, error) {
	args := m.Called(ctx, leadID, status, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadManager) Assign(ctx context.Context, leadID, userID string, actor usecase.Actor) (*entity.Lead, error) {
	args := m.Called(ctx, leadID, userID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadManager) Delete(ctx context.Context, leadID string) error {
	return m.Called(ctx, leadID).Error(0)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) SignUp(ctx context.Context, in usecase.SignUpInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

func (m *MockAuthenticator) SignIn(ctx context.Context, in usecase.SignInInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

func (m *MockAuthenticator) Me(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthenticator) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthenticator) ResetPassword(ctx context.Context, token, password string) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, token, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) Current(ctx context.Context) ([]entity.Rate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rate), args.Error(1)
}

func (m *MockRateService) Refresh(ctx context.Context) ([]entity.Rate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rate), args.Error(1)
}

func (m *MockRateService) History(rateType string, days int) ([]entity.RatePoint, error) {
	args := m.Called(rateType, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RatePoint), args.Error(1)
}

func (m *MockRateService) Subscribe(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) Applications(ctx context.Context, actor usecase.Actor) ([]entity.Lead, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockDashboard) ApplicationDetails(ctx context.Context, actor usecase.Actor, id string) (*usecase.ApplicationDetails, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ApplicationDetails), args.Error(1)
}

func (m *MockDashboard) WithdrawApplication(ctx context.Context, actor usecase.Actor, id, status string) (*entity.Lead, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

// UploadDocument reads the body so tests can assert on the uploaded bytes.
func (m *MockDashboard) UploadDocument(ctx context.Context, actor usecase.Actor, in usecase.UploadDocumentInput) (*entity.Document, error) {
	var body string
	if in.Body != nil {
		b, _ := io.ReadAll(in.Body)
		body = string(b)
	}
	args := m.Called(ctx, actor, in.ApplicationID, in.DocumentType, in.FileName, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Document), args.Error(1)
}

func (m *MockDashboard) ListDocuments(ctx context.Context, actor usecase.Actor) ([]entity.Document, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Document), args.Error(1)
}

func (m *MockDashboard) DeleteDocument(ctx context.Context, actor usecase.Actor, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockDashboard) LoanTeam(ctx context.Context) ([]usecase.TeamMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.TeamMember), args.Error(1)
}

func (m *MockDashboard) SendMessage(ctx context.Context, actor usecase.Actor, in usecase.SendMessageInput) error {
	return m.Called(ctx, actor, in).Error(0)
}

func (m *MockDashboard) ScheduleCall(ctx context.Context, actor usecase.Actor, in usecase.ScheduleCallInput) error {
	return m.Called(ctx, actor, in).Error(0)
}

func (m *MockDashboard) Disclosures() usecase.Disclosure {
	return m.Called().Get(0).(usecase.Disclosure)
}

func (m *MockDashboard) CreditReport() usecase.CreditReport {
	return m.Called().Get(0).(usecase.CreditReport)
}
