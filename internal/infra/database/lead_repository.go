package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

const leadColumns = `id, first_name, middle_name, last_name, email, phone, phone_digits,
	loan_purpose, property_type, property_address, property_value, current_mortgage_balance, loan_amount, loan_type,
	employment_status, employer_name, job_title, years_at_job, annual_income, additional_income, credit_score,
	has_bankruptcy, bankruptcy_details, has_foreclosure, has_late_payments, late_payments_details, additional_notes,
	refinance_data, status, source, ip_address, user_agent, last_contacted, next_follow_up, assigned_to, tags,
	submitted_at, created_at, updated_at`

// sortColumns maps the API sort keys onto columns. Anything else is never interpolated.
var sortColumns = map[string]string{
	"submittedAt":   "submitted_at",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"lastName":      "last_name",
	"loanAmount":    "loan_amount",
	"propertyValue": "property_value",
	"status":        "status",
}

type rowScanner interface {
	Scan(dest ...any) error
}

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	address, err := json.Marshal(lead.PropertyAddress)
	if err != nil {
		return err
	}
	bankruptcy, err := jsonOrNull(lead.BankruptcyDetails)
	if err != nil {
		return err
	}
	late, err := jsonOrNull(lead.LatePaymentsDetails)
	if err != nil {
		return err
	}
	refinance, err := jsonOrNull(lead.RefinanceData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38, $39)
	`
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID, lead.FirstName, lead.MiddleName, lead.LastName, lead.Email, lead.Phone, lead.PhoneDigits,
		lead.LoanPurpose, lead.PropertyType, address, lead.PropertyValue, lead.CurrentMortgageBalance, lead.LoanAmount, lead.LoanType,
		lead.EmploymentStatus, lead.EmployerName, lead.JobTitle, lead.YearsAtJob, lead.AnnualIncome, lead.AdditionalIncome, lead.CreditScore,
		lead.HasBankruptcy, bankruptcy, lead.HasForeclosure, lead.HasLatePayments, late, lead.AdditionalNotes,
		refinance, string(lead.Status), lead.Source, lead.IPAddress, lead.UserAgent, lead.LastContacted, lead.NextFollowUp, lead.AssignedTo, pq.Array(lead.Tags),
		lead.SubmittedAt, lead.CreatedAt, lead.UpdatedAt,
	)
	if isUniqueViolation(err, "") {
		return entity.ErrDuplicateContact
	}
	return err
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	notes, err := r.notesFor(ctx, []string{lead.ID})
	if err != nil {
		return nil, err
	}
	lead.Notes = notes[lead.ID]
	if lead.Notes == nil {
		lead.Notes = []entity.Note{}
	}
	return lead, nil
}

func (r *LeadRepository) FindByContact(ctx context.Context, email, phoneDigits string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE email = $1 OR ($2 <> '' AND phone_digits = $2) ORDER BY submitted_at LIMIT 1`
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, email, phoneDigits))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

// List returns one page plus the total number of matching rows. Notes are loaded for the page.
func (r *LeadRepository) List(ctx context.Context, f entity.LeadFilter) ([]entity.Lead, int, error) {
	where, args := leadWhere(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where + leadOrder(f)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []entity.Lead{}
	ids := []string{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *lead)
		ids = append(ids, lead.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		notes, err := r.notesFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range leads {
			if n, ok := notes[leads[i].ID]; ok {
				leads[i].Notes = n
			}
		}
	}
	return leads, total, nil
}

// Iterate streams matching leads to fn without loading notes. It stops at the first error from fn.
func (r *LeadRepository) Iterate(ctx context.Context, f entity.LeadFilter, fn func(*entity.Lead) error) error {
	where, args := leadWhere(f)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads`+where+leadOrder(f), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return err
		}
		if err := fn(lead); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *LeadRepository) Update(ctx context.Context, id string, p entity.LeadPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.FirstName != nil {
		set("first_name", *p.FirstName)
	}
	if p.MiddleName != nil {
		set("middle_name", *p.MiddleName)
	}
	if p.LastName != nil {
		set("last_name", *p.LastName)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.Phone != nil {
		set("phone", entity.FormatPhone(*p.Phone))
		set("phone_digits", entity.NormalizePhoneDigits(*p.Phone))
	}
	if p.LoanPurpose != nil {
		set("loan_purpose", *p.LoanPurpose)
	}
	if p.ClearRefinanceData {
		sets = append(sets, "refinance_data = NULL")
	}
	if p.PropertyType != nil {
		set("property_type", *p.PropertyType)
	}
	if p.PropertyAddress != nil {
		address, err := json.Marshal(p.PropertyAddress)
		if err != nil {
			return err
		}
		set("property_address", address)
	}
	if p.PropertyValue != nil {
		set("property_value", *p.PropertyValue)
	}
	if p.CurrentMortgageBalance != nil {
		set("current_mortgage_balance", *p.CurrentMortgageBalance)
	}
	if p.LoanAmount != nil {
		set("loan_amount", *p.LoanAmount)
	}
	if p.LoanType != nil {
		set("loan_type", *p.LoanType)
	}
	if p.EmploymentStatus != nil {
		set("employment_status", *p.EmploymentStatus)
	}
	if p.EmployerName != nil {
		set("employer_name", *p.EmployerName)
	}
	if p.JobTitle != nil {
		set("job_title", *p.JobTitle)
	}
	if p.YearsAtJob != nil {
		set("years_at_job", *p.YearsAtJob)
	}
	if p.AnnualIncome != nil {
		set("annual_income", *p.AnnualIncome)
	}
	if p.AdditionalIncome != nil {
		set("additional_income", *p.AdditionalIncome)
	}
	if p.CreditScore != nil {
		set("credit_score", *p.CreditScore)
	}
	if p.AdditionalNotes != nil {
		set("additional_notes", *p.AdditionalNotes)
	}
	if p.NextFollowUp != nil {
		set("next_follow_up", *p.NextFollowUp)
	}
	if p.Tags != nil {
		set("tags", pq.Array(p.Tags))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE leads SET %s, updated_at = NOW() WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := r.DB.ExecContext(ctx, query, args...)
	if isUniqueViolation(err, "") {
		return entity.ErrDuplicateContact
	}
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) Assign(ctx context.Context, id string, userID *string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET assigned_to = $1, updated_at = NOW() WHERE id = $2`, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) AddNote(ctx context.Context, note *entity.Note) error {
	query := `
		INSERT INTO lead_notes (id, lead_id, content, created_by, is_internal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, note.ID, note.LeadID, note.Content, note.CreatedBy, note.IsInternal, note.CreatedAt)
	return err
}

func (r *LeadRepository) TouchLastContacted(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET last_contacted = $1, updated_at = NOW() WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, err
}

func (r *LeadRepository) CountByStatus(ctx context.Context) ([]entity.CountBucket, error) {
	return r.buckets(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status ORDER BY COUNT(*) DESC, status`)
}

func (r *LeadRepository) CountByLoanPurpose(ctx context.Context) ([]entity.CountBucket, error) {
	return r.buckets(ctx, `SELECT loan_purpose, COUNT(*) FROM leads GROUP BY loan_purpose ORDER BY COUNT(*) DESC, loan_purpose`)
}

// CountByMonth returns the newest limit year/month groups, newest first.
func (r *LeadRepository) CountByMonth(ctx context.Context, limit int) ([]entity.MonthBucket, error) {
	query := `
		SELECT EXTRACT(YEAR FROM submitted_at)::int AS y, EXTRACT(MONTH FROM submitted_at)::int AS m, COUNT(*)
		FROM leads
		GROUP BY y, m
		ORDER BY y DESC, m DESC
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.MonthBucket{}
	for rows.Next() {
		var b entity.MonthBucket
		if err := rows.Scan(&b.Year, &b.Month, &b.Count); err != nil {
			return nil, err
		}
		b.Date = fmt.Sprintf("%d-%02d", b.Year, b.Month)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *LeadRepository) RefinanceAggregate(ctx context.Context, since time.Time) (*entity.RefinanceAggregate, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE submitted_at >= $1),
			COALESCE(AVG((refinance_data->>'estimatedSavings')::float8) FILTER (WHERE (refinance_data->>'estimatedSavings')::float8 > 0), 0),
			COALESCE(SUM((refinance_data->>'estimatedSavings')::float8) FILTER (WHERE (refinance_data->>'estimatedSavings')::float8 > 0), 0)
		FROM leads
		WHERE refinance_data IS NOT NULL
	`
	agg := &entity.RefinanceAggregate{}
	if err := r.DB.QueryRowContext(ctx, query, since).Scan(&agg.Total, &agg.LastWindow, &agg.AverageSavings, &agg.TotalSavings); err != nil {
		return nil, err
	}

	types, err := r.buckets(ctx, `
		SELECT refinance_data->>'refinanceType', COUNT(*)
		FROM leads
		WHERE refinance_data IS NOT NULL
		GROUP BY 1
		ORDER BY 2 DESC, 1
	`)
	if err != nil {
		return nil, err
	}
	agg.Types = types
	return agg, nil
}

func (r *LeadRepository) buckets(ctx context.Context, query string, args ...any) ([]entity.CountBucket, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.CountBucket{}
	for rows.Next() {
		var b entity.CountBucket
		var key sql.NullString
		if err := rows.Scan(&key, &b.Count); err != nil {
			return nil, err
		}
		b.Key = key.String
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *LeadRepository) notesFor(ctx context.Context, leadIDs []string) (map[string][]entity.Note, error) {
	query := `
		SELECT id, lead_id, content, created_by, is_internal, created_at
		FROM lead_notes
		WHERE lead_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(leadIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]entity.Note, len(leadIDs))
	for rows.Next() {
		var n entity.Note
		var createdBy sql.NullString
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Content, &createdBy, &n.IsInternal, &n.CreatedAt); err != nil {
			return nil, err
		}
		if createdBy.Valid {
			v := createdBy.String
			n.CreatedBy = &v
		}
		out[n.LeadID] = append(out[n.LeadID], n)
	}
	return out, rows.Err()
}

func leadWhere(f entity.LeadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.LoanPurpose != "" {
		conds = append(conds, "loan_purpose = "+arg(f.LoanPurpose))
	}
	if f.PropertyType != "" {
		conds = append(conds, "property_type = "+arg(f.PropertyType))
	}
	if f.CreditScore != "" {
		conds = append(conds, "credit_score = "+arg(f.CreditScore))
	}
	if f.Email != "" {
		conds = append(conds, "email = "+arg(strings.ToLower(f.Email)))
	}
	if f.StartDate != nil {
		conds = append(conds, "submitted_at >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "submitted_at <= "+arg(*f.EndDate))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		search := []string{
			"first_name ILIKE " + p,
			"last_name ILIKE " + p,
			"email ILIKE " + p,
			"property_address->>'street' ILIKE " + p,
			"property_address->>'city' ILIKE " + p,
			"property_address->>'state' ILIKE " + p,
			"property_address->>'zipCode' ILIKE " + p,
		}
		if digits := entity.NormalizePhoneDigits(f.Search); digits != "" {
			search = append(search, "phone_digits LIKE "+arg("%"+digits+"%"))
		}
		conds = append(conds, "("+strings.Join(search, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func leadOrder(f entity.LeadFilter) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "submitted_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, dir, dir)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l                           entity.Lead
		address                     []byte
		bankruptcy, late, refinance []byte
		status                      string
		lastContacted, nextFollowUp sql.NullTime
		assignedTo                  sql.NullString
		tags                        pq.StringArray
	)
	err := row.Scan(
		&l.ID, &l.FirstName, &l.MiddleName, &l.LastName, &l.Email, &l.Phone, &l.PhoneDigits,
		&l.LoanPurpose, &l.PropertyType, &address, &l.PropertyValue, &l.CurrentMortgageBalance, &l.LoanAmount, &l.LoanType,
		&l.EmploymentStatus, &l.EmployerName, &l.JobTitle, &l.YearsAtJob, &l.AnnualIncome, &l.AdditionalIncome, &l.CreditScore,
		&l.HasBankruptcy, &bankruptcy, &l.HasForeclosure, &l.HasLatePayments, &late, &l.AdditionalNotes,
		&refinance, &status, &l.Source, &l.IPAddress, &l.UserAgent, &lastContacted, &nextFollowUp, &assignedTo, &tags,
		&l.SubmittedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = entity.LeadStatus(status)
	if err := json.Unmarshal(address, &l.PropertyAddress); err != nil {
		return nil, fmt.Errorf("lead %s: property address: %w", l.ID, err)
	}
	if len(bankruptcy) > 0 {
		l.BankruptcyDetails = &entity.BankruptcyDetails{}
		if err := json.Unmarshal(bankruptcy, l.BankruptcyDetails); err != nil {
			return nil, fmt.Errorf("lead %s: bankruptcy details: %w", l.ID, err)
		}
	}
	if len(late) > 0 {
		l.LatePaymentsDetails = &entity.LatePaymentsDetails{}
		if err := json.Unmarshal(late, l.LatePaymentsDetails); err != nil {
			return nil, fmt.Errorf("lead %s: late payment details: %w", l.ID, err)
		}
	}
	if len(refinance) > 0 {
		l.RefinanceData = &entity.RefinanceData{}
		if err := json.Unmarshal(refinance, l.RefinanceData); err != nil {
			return nil, fmt.Errorf("lead %s: refinance data: %w", l.ID, err)
		}
	}
	if lastContacted.Valid {
		t := lastContacted.Time
		l.LastContacted = &t
	}
	if nextFollowUp.Valid {
		t := nextFollowUp.Time
		l.NextFollowUp = &t
	}
	if assignedTo.Valid {
		v := assignedTo.String
		l.AssignedTo = &v
	}
	l.Tags = []string(tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	l.Notes = []entity.Note{}
	return &l, nil
}

// jsonOrNull marshals v, or returns nil for a nil pointer so the column stays NULL.
func jsonOrNull[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
