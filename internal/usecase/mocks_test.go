package usecase

import (
	"context"
	"io"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/stretchr/testify/mock"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByContact(ctx context.Context, email, phoneDigits string) (*entity.Lead, error) {
	args := m.Called(ctx, email, phoneDigits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]entity.Lead), args.Int(1), args.Error(2)
}

func (m *MockLeadRepository) Iterate(ctx context.Context, filter entity.LeadFilter, fn func(*entity.Lead) error) error {
	args := m.Called(ctx, filter, fn)
	if leads, ok := args.Get(0).([]entity.Lead); ok {
		for i := range leads {
			if err := fn(&leads[i]); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, id string, patch entity.LeadPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockLeadRepository) Assign(ctx context.Context, id string, userID *string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockLeadRepository) AddNote(ctx context.Context, note *entity.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockLeadRepository) TouchLastContacted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockLeadRepository) CountByStatus(ctx context.Context) ([]entity.CountBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CountBucket), args.Error(1)
}

func (m *MockLeadRepository) CountByLoanPurpose(ctx context.Context) ([]entity.CountBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CountBucket), args.Error(1)
}

func (m *MockLeadRepository) CountByMonth(ctx context.Context, limit int) ([]entity.MonthBucket, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MonthBucket), args.Error(1)
}

func (m *MockLeadRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) RefinanceAggregate(ctx context.Context, since time.Time) (*entity.RefinanceAggregate, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefinanceAggregate), args.Error(1)
}

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) ListByRoles(ctx context.Context, roles ...entity.Role) ([]entity.User, error) {
	args := m.Called(ctx, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expires)
	return args.Error(0)
}

func (m *MockUserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// MockRateRepository
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) List(ctx context.Context) ([]entity.Rate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rate), args.Error(1)
}

func (m *MockRateRepository) Upsert(ctx context.Context, rates []entity.Rate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

type MockRateAlertRepository struct {
	mock.Mock
}

func (m *MockRateAlertRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockRateCache
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) Get(ctx context.Context) ([]entity.Rate, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]entity.Rate), args.Bool(1), args.Error(2)
}

func (m *MockRateCache) Set(ctx context.Context, rates []entity.Rate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

func (m *MockRateCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCurrentRates
type MockCurrentRates struct {
	mock.Mock
}

func (m *MockCurrentRates) Current(ctx context.Context) ([]entity.Rate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rate), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, n entity.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockTokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(userID string, role entity.Role) (string, time.Time, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockDocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *entity.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListByUser(ctx context.Context, userID string) ([]entity.Document, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	args := m.Called(ctx, key, contentType, body, size)
	return args.Error(0)
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// templatesOf collects the templates published to a MockPublisher.
func templatesOf(p *MockPublisher) []string {
	var out []string
	for _, c := range p.Calls {
		if c.Method == "Publish" {
			out = append(out, c.Arguments.Get(1).(entity.Notification).Template)
		}
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
