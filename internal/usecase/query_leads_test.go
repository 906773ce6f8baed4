package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListLeadsPagination(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)

	repo.On("List", ctx, mock.MatchedBy(func(f entity.LeadFilter) bool {
		return f.Offset == 10 && f.Limit == 10 && f.SortBy == "submittedAt" && f.SortDesc && f.Status == "new"
	})).Return([]entity.Lead{{ID: "a"}, {ID: "b"}}, 25, nil)

	uc := NewLeadQueryUseCase(repo, nil, nil)
	out, err := uc.List(ctx, ListLeadsInput{Page: 2, Status: "new", SortBy: "dropTable"})

	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 25, out.Total)
	assert.Equal(t, 3, out.Pages)
	assert.True(t, out.HasNextPage)
	assert.True(t, out.HasPreviousPage)
}

func TestListLeadsDateRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)

	var got entity.LeadFilter
	repo.On("List", ctx, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(entity.LeadFilter)
	}).Return(nil, 0, nil)

	uc := NewLeadQueryUseCase(repo, nil, nil)
	out, err := uc.List(ctx, ListLeadsInput{StartDate: "2024-01-01", EndDate: "2024-01-31", Order: "asc", Limit: 500})

	require.NoError(t, err)
	assert.NotNil(t, out.Data)
	assert.Equal(t, 0, out.Pages)
	assert.Equal(t, maxPageSize, got.Limit)
	assert.False(t, got.SortDesc)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, 23, got.EndDate.Hour())
	assert.Equal(t, 31, got.EndDate.Day())
}

func TestListLeadsRejectsBadDate(t *testing.T) {
	uc := NewLeadQueryUseCase(new(MockLeadRepository), nil, nil)

	_, err := uc.List(context.Background(), ListLeadsInput{StartDate: "yesterday"})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "startDate", de.Fields[0].Field)
}

func TestGetLeadByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	officerID := uuid.New().String()

	t.Run("invalid id", func(t *testing.T) {
		uc := NewLeadQueryUseCase(new(MockLeadRepository), nil, nil)
		_, err := uc.GetByID(ctx, "123")

		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, CodeInvalidID, de.Code)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockLeadRepository)
		repo.On("FindByID", ctx, id).Return(nil, entity.ErrLeadNotFound)

		_, err := NewLeadQueryUseCase(repo, nil, nil).GetByID(ctx, id)

		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, CodeNotFound, de.Code)
	})

	t.Run("resolves assignee", func(t *testing.T) {
		repo := new(MockLeadRepository)
		users := new(MockUserRepository)
		repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id, AssignedTo: &officerID}, nil)
		users.On("FindByID", ctx, officerID).Return(&entity.User{ID: officerID, FirstName: "Sam", LastName: "Lee", Email: "sam@example.com"}, nil)

		lead, err := NewLeadQueryUseCase(repo, users, nil).GetByID(ctx, id)

		require.NoError(t, err)
		require.NotNil(t, lead.Assignee)
		assert.Equal(t, "Sam Lee", lead.Assignee.Name)
	})
}

func TestLeadStatsOrdersMonthsChronologically(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)

	repo.On("Count", ctx).Return(7, nil)
	repo.On("CountByStatus", ctx).Return([]entity.CountBucket{{Key: "new", Count: 7}}, nil)
	repo.On("CountByLoanPurpose", ctx).Return(nil, nil)
	repo.On("CountByMonth", ctx, 6).Return([]entity.MonthBucket{
		{Year: 2024, Month: 3, Count: 4},
		{Year: 2024, Month: 1, Count: 2},
		{Year: 2023, Month: 12, Count: 1},
	}, nil)

	stats, err := NewLeadQueryUseCase(repo, nil, nil).Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalLeads)
	assert.Equal(t, []entity.CountBucket{}, stats.LoanPurposeCount)
	assert.Equal(t, []MonthlyCount{
		{Date: "2023-12", Count: 1},
		{Date: "2024-01", Count: 2},
		{Date: "2024-03", Count: 4},
	}, stats.MonthlyApplications)
}

func TestRefinanceStatsWindow(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	repo.On("RefinanceAggregate", ctx, now.Add(-30*24*time.Hour)).Return(&entity.RefinanceAggregate{
		Total:          3,
		LastWindow:     1,
		AverageSavings: 233.3333,
		TotalSavings:   700,
	}, nil)

	uc := NewLeadQueryUseCase(repo, nil, nil)
	uc.now = func() time.Time { return now }
	stats, err := uc.RefinanceStats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRefinances)
	assert.Equal(t, 1, stats.MonthlyRefinances)
	assert.Equal(t, 233.33, stats.AverageSavings)
	assert.Equal(t, []entity.CountBucket{}, stats.RefinanceTypes)
}

func TestExportCSVQuotesFields(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)
	submitted := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	repo.On("Iterate", ctx, mock.Anything, mock.Anything).Return([]entity.Lead{{
		FirstName:     "Ann, Jr.",
		LastName:      `O"Neil`,
		Email:         "ann@example.com",
		Phone:         "(555) 123-4567",
		Status:        entity.LeadStatusNew,
		LoanPurpose:   "purchase",
		PropertyType:  "condo",
		PropertyValue: 250000,
		CreditScore:   "good",
		SubmittedAt:   submitted,
	}}, nil)

	var buf bytes.Buffer
	err := NewLeadQueryUseCase(repo, nil, nil).ExportCSV(ctx, &buf)

	require.NoError(t, err)
	assert.Equal(t,
		"First Name,Last Name,Email,Phone,Status,Loan Purpose,Property Type,Property Value,Loan Amount,Credit Score,Submitted At\n"+
			`"Ann, Jr.","O""Neil",ann@example.com,(555) 123-4567,new,purchase,condo,250000,,good,2024-02-03T04:05:06Z`+"\n",
		buf.String())
}

func TestSearchRequiresQuery(t *testing.T) {
	_, err := NewLeadQueryUseCase(new(MockLeadRepository), nil, nil).Search(context.Background(), "  ")
	assert.True(t, IsDomainError(err))
}
