package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

const (
	defaultPageSize  = 10
	maxPageSize      = 100
	searchLimit      = 10
	statsMonths      = 6
	refinanceWindow  = 30 * 24 * time.Hour
	defaultSortField = "submittedAt"
)

// SortableFields are the lead fields a listing may be ordered by.
var SortableFields = []string{"submittedAt", "createdAt", "updatedAt", "lastName", "loanAmount", "propertyValue", "status"}

var CSVHeader = []string{
	"First Name", "Last Name", "Email", "Phone", "Status", "Loan Purpose",
	"Property Type", "Property Value", "Loan Amount", "Credit Score", "Submitted At",
}

type LeadQueryUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Users  entity.UserRepositoryInterface
	Logger *logging.Logger
	now    func() time.Time
}

func NewLeadQueryUseCase(repo entity.LeadRepositoryInterface, users entity.UserRepositoryInterface, logger *logging.Logger) *LeadQueryUseCase {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LeadQueryUseCase{Repo: repo, Users: users, Logger: logger, now: time.Now}
}

// List returns one page of leads matching the filters.
func (uc *LeadQueryUseCase) List(ctx context.Context, in ListLeadsInput) (*ListLeadsOutput, error) {
	filter, page, err := buildFilter(in)
	if err != nil {
		return nil, err
	}

	leads, total, err := uc.Repo.List(ctx, filter)
	if err != nil {
		return nil, dbError("failed to list leads", err)
	}
	if leads == nil {
		leads = []entity.Lead{}
	}

	pages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &ListLeadsOutput{
		Count:           len(leads),
		Total:           total,
		Page:            page,
		Pages:           pages,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1,
		Data:            leads,
	}, nil
}

func buildFilter(in ListLeadsInput) (entity.LeadFilter, int, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	sortBy := defaultSortField
	for _, f := range SortableFields {
		if in.SortBy == f {
			sortBy = f
		}
	}

	start, err := parseDateParam(in.StartDate, false)
	if err != nil {
		return entity.LeadFilter{}, 0, fieldError("startDate", "Start date must be YYYY-MM-DD or RFC 3339")
	}
	end, err := parseDateParam(in.EndDate, true)
	if err != nil {
		return entity.LeadFilter{}, 0, fieldError("endDate", "End date must be YYYY-MM-DD or RFC 3339")
	}

	return entity.LeadFilter{
		Status:       in.Status,
		LoanPurpose:  in.LoanPurpose,
		PropertyType: in.PropertyType,
		CreditScore:  in.CreditScore,
		StartDate:    start,
		EndDate:      end,
		Search:       strings.TrimSpace(in.Search),
		SortBy:       sortBy,
		SortDesc:     in.Order != "asc",
		Offset:       (page - 1) * limit,
		Limit:        limit,
	}, page, nil
}

// Search is the quick lookup used by the admin search box.
func (uc *LeadQueryUseCase) Search(ctx context.Context, query string) ([]LeadSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fieldError("query", "Search query is required")
	}

	leads, _, err := uc.Repo.List(ctx, entity.LeadFilter{
		Search:   query,
		SortBy:   defaultSortField,
		SortDesc: true,
		Limit:    searchLimit,
	})
	if err != nil {
		return nil, dbError("failed to search leads", err)
	}

	out := make([]LeadSummary, 0, len(leads))
	for _, l := range leads {
		out = append(out, LeadSummary{
			ID:           l.ID,
			FirstName:    l.FirstName,
			LastName:     l.LastName,
			Email:        l.Email,
			Phone:        l.Phone,
			Status:       l.Status,
			LoanPurpose:  l.LoanPurpose,
			PropertyType: l.PropertyType,
		})
	}
	return out, nil
}

// GetByID loads one lead with its notes and resolved assignee.
func (uc *LeadQueryUseCase) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	return loadLead(ctx, uc.Repo, uc.Users, id)
}

func loadLead(ctx context.Context, repo entity.LeadRepositoryInterface, users entity.UserRepositoryInterface, id string) (*entity.Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &DomainError{Code: CodeInvalidID, Message: "Invalid lead ID"}
	}

	lead, err := repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, notFound("Lead")
	}
	if err != nil {
		return nil, dbError("failed to load lead", err)
	}

	if lead.AssignedTo != nil && users != nil {
		if u, err := users.FindByID(ctx, *lead.AssignedTo); err == nil {
			lead.Assignee = u.AsAssignee()
		}
	}
	return lead, nil
}

// Stats summarizes the whole lead collection.
func (uc *LeadQueryUseCase) Stats(ctx context.Context) (*LeadStats, error) {
	total, err := uc.Repo.Count(ctx)
	if err != nil {
		return nil, dbError("failed to count leads", err)
	}
	byStatus, err := uc.Repo.CountByStatus(ctx)
	if err != nil {
		return nil, dbError("failed to count leads by status", err)
	}
	byPurpose, err := uc.Repo.CountByLoanPurpose(ctx)
	if err != nil {
		return nil, dbError("failed to count leads by loan purpose", err)
	}
	months, err := uc.Repo.CountByMonth(ctx, statsMonths)
	if err != nil {
		return nil, dbError("failed to count leads by month", err)
	}

	// repository returns newest first; the output is deliberately oldest first
	// so the dashboard chart reads left to right
	monthly := make([]MonthlyCount, 0, len(months))
	for i := len(months) - 1; i >= 0; i-- {
		m := months[i]
		monthly = append(monthly, MonthlyCount{
			Date:  fmt.Sprintf("%d-%02d", m.Year, m.Month),
			Count: m.Count,
		})
	}

	return &LeadStats{
		TotalLeads:          total,
		StatusCount:         nonNilBuckets(byStatus),
		LoanPurposeCount:    nonNilBuckets(byPurpose),
		MonthlyApplications: monthly,
	}, nil
}

// RefinanceStats summarizes refinance leads, with a 30 day window for recent volume.
func (uc *LeadQueryUseCase) RefinanceStats(ctx context.Context) (*RefinanceStats, error) {
	agg, err := uc.Repo.RefinanceAggregate(ctx, uc.now().Add(-refinanceWindow))
	if err != nil {
		return nil, dbError("failed to aggregate refinance leads", err)
	}
	return &RefinanceStats{
		TotalRefinances:   agg.Total,
		MonthlyRefinances: agg.LastWindow,
		RefinanceTypes:    nonNilBuckets(agg.Types),
		AverageSavings:    round2(agg.AverageSavings),
		TotalSavings:      round2(agg.TotalSavings),
	}, nil
}

// ExportCSV streams every lead as CSV, newest first.
func (uc *LeadQueryUseCase) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	filter := entity.LeadFilter{SortBy: defaultSortField, SortDesc: true}
	err := uc.Repo.Iterate(ctx, filter, func(l *entity.Lead) error {
		return cw.Write(csvRow(l))
	})
	if err != nil {
		return dbError("failed to export leads", err)
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(l *entity.Lead) []string {
	return []string{
		l.FirstName,
		l.LastName,
		l.Email,
		l.Phone,
		string(l.Status),
		l.LoanPurpose,
		l.PropertyType,
		formatAmount(l.PropertyValue),
		formatAmount(l.LoanAmount),
		l.CreditScore,
		l.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func formatAmount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonNilBuckets(b []entity.CountBucket) []entity.CountBucket {
	if b == nil {
		return []entity.CountBucket{}
	}
	return b
}
