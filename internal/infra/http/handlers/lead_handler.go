package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/http/middleware"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

type LeadCreator interface {
	Execute(ctx context.Context, in usecase.CreateLeadInput, meta usecase.RequestMeta) (*entity.Lead, error)
	ExecuteRefinance(ctx context.Context, in usecase.CreateRefinanceLeadInput, meta usecase.RequestMeta) (*entity.Lead, error)
}

type LeadQuerier interface {
	List(ctx context.Context, in usecase.ListLeadsInput) (*usecase.ListLeadsOutput, error)
	Search(ctx context.Context, query string) ([]usecase.LeadSummary, error)
	GetByID(ctx context.Context, id string) (*entity.Lead, error)
	Stats(ctx context.Context) (*usecase.LeadStats, error)
	RefinanceStats(ctx context.Context) (*usecase.RefinanceStats, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type LeadManager interface {
	AddNote(ctx context.Context, leadID string, in usecase.AddNoteInput, actor usecase.Actor) (*entity.Note, error)
	Update(ctx context.Context, leadID string, in usecase.UpdateLeadInput, actor usecase.Actor) (*entity.Lead, error)
	UpdateStatus(ctx context.Context, leadID, status string, actor usecase.Actor) (*entity.Lead, error)
	Assign(ctx context.Context, leadID, userID string, actor usecase.Actor) (*entity.Lead, error)
	Delete(ctx context.Context, leadID string) error
}

type LeadHandler struct {
	Responder
	create LeadCreator
	query  LeadQuerier
	manage LeadManager
	now    func() time.Time
}

func NewLeadHandler(rs Responder, create LeadCreator, query LeadQuerier, manage LeadManager) *LeadHandler {
	return &LeadHandler{
		Responder: rs,
		create:    create,
		query:     query,
		manage:    manage,
		now:       time.Now,
	}
}

func requestMeta(r *http.Request) usecase.RequestMeta {
	return usecase.RequestMeta{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func actorOf(r *http.Request) usecase.Actor {
	actor, _ := middleware.ActorFromContext(r.Context())
	return actor
}

// Create handles POST /api/leads.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateLeadInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	lead, err := h.create.Execute(r.Context(), in, requestMeta(r))
	if err != nil {
		h.intakeError(w, r, err)
		return
	}

	middleware.RecordLeadCreated(lead.Source)
	h.OK(w, http.StatusCreated, "Application submitted successfully", lead)
}

// CreateRefinance handles POST /api/leads/refinance.
func (h *LeadHandler) CreateRefinance(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateRefinanceLeadInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	lead, err := h.create.ExecuteRefinance(r.Context(), in, requestMeta(r))
	if err != nil {
		h.intakeError(w, r, err)
		return
	}

	middleware.RecordLeadCreated(lead.Source)
	h.OK(w, http.StatusCreated, "Refinance application submitted successfully", lead)
}

func (h *LeadHandler) intakeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) && de.Code == usecase.CodeDuplicateLead {
		middleware.RecordDuplicateLead()
	}
	h.Error(w, r, err)
}

type listResponse struct {
	Success bool `json:"success"`
	*usecase.ListLeadsOutput
}

// List handles GET /api/leads.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	out, err := h.query.List(r.Context(), usecase.ListLeadsInput{
		Page:         page,
		Limit:        limit,
		SortBy:       q.Get("sortBy"),
		Order:        q.Get("order"),
		Status:       q.Get("status"),
		LoanPurpose:  q.Get("loanPurpose"),
		PropertyType: q.Get("propertyType"),
		CreditScore:  q.Get("creditScore"),
		StartDate:    q.Get("startDate"),
		EndDate:      q.Get("endDate"),
		Search:       q.Get("search"),
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, ListLeadsOutput: out})
}

// Search handles GET /api/leads/search?q=.
func (h *LeadHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.query.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", results)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.query.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in usecase.UpdateLeadInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	lead, err := h.manage.Update(r.Context(), chi.URLParam(r, "id"), in, actorOf(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Lead updated", lead)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	lead, err := h.manage.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in.Status, actorOf(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Status updated", lead)
}

type assignRequest struct {
	UserID string `json:"userId"`
}

func (h *LeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var in assignRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	lead, err := h.manage.Assign(r.Context(), chi.URLParam(r, "id"), in.UserID, actorOf(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Lead assigned", lead)
}

func (h *LeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var in usecase.AddNoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	note, err := h.manage.AddNote(r.Context(), chi.URLParam(r, "id"), in, actorOf(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusCreated, "Note added", note)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manage.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Lead deleted", struct{}{})
}

func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", stats)
}

func (h *LeadHandler) RefinanceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.RefinanceStats(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", stats)
}

// countingWriter tells whether the CSV stream has started, after which the
// status can no longer change.
type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.n == 0 {
		c.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		c.w.WriteHeader(http.StatusOK)
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ExportCSV handles GET /api/leads/export/csv.
func (h *LeadHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition",
		`attachment; filename="leads-`+h.now().Format("2006-01-02")+`.csv"`)

	cw := &countingWriter{w: w}
	if err := h.query.ExportCSV(r.Context(), cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			h.Error(w, r, err)
			return
		}
		h.Logger.Errorw("csv export aborted", "bytes_written", cw.n, "error", err)
	}
}
