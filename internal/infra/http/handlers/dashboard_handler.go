package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

// multipartOverhead is allowed on top of the file size for the other form parts.
const multipartOverhead = 1 << 20

type Dashboard interface {
	Applications(ctx context.Context, actor usecase.Actor) ([]entity.Lead, error)
	ApplicationDetails(ctx context.Context, actor usecase.Actor, id string) (*usecase.ApplicationDetails, error)
	WithdrawApplication(ctx context.Context, actor usecase.Actor, id, status string) (*entity.Lead, error)
	UploadDocument(ctx context.Context, actor usecase.Actor, in usecase.UploadDocumentInput) (*entity.Document, error)
	ListDocuments(ctx context.Context, actor usecase.Actor) ([]entity.Document, error)
	DeleteDocument(ctx context.Context, actor usecase.Actor, id string) error
	LoanTeam(ctx context.Context) ([]usecase.TeamMember, error)
	SendMessage(ctx context.Context, actor usecase.Actor, in usecase.SendMessageInput) error
	ScheduleCall(ctx context.Context, actor usecase.Actor, in usecase.ScheduleCallInput) error
	Disclosures() usecase.Disclosure
	CreditReport() usecase.CreditReport
}

type DashboardHandler struct {
	Responder
	dashboard Dashboard
	maxUpload int64
}

func NewDashboardHandler(rs Responder, dashboard Dashboard, maxUpload int64) *DashboardHandler {
	return &DashboardHandler{Responder: rs, dashboard: dashboard, maxUpload: maxUpload}
}

func (h *DashboardHandler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.dashboard.Applications(r.Context(), actorOf(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", apps)
}

func (h *DashboardHandler) ApplicationDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.dashboard.ApplicationDetails(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", details)
}

func (h *DashboardHandler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}

	lead, err := h.dashboard.WithdrawApplication(r.Context(), actorOf(r), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Application updated", lead)
}

func (h *DashboardHandler) Documents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.dashboard.ListDocuments(r.Context(), actorOf(r))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", docs)
}

// UploadDocument takes a multipart form with the file under "document".
func (h *DashboardHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Invalid upload"
		if errors.As(err, &tooLarge) {
			msg = "File is too large"
		}
		h.Error(w, r, &usecase.DomainError{
			Code:    usecase.CodeValidation,
			Message: msg,
			Fields:  []usecase.ValidationError{{Field: "document", Message: msg}},
		})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := usecase.UploadDocumentInput{
		ApplicationID: r.FormValue("applicationId"),
		DocumentType:  r.FormValue("documentType"),
	}
	file, header, err := r.FormFile("document")
	if err == nil {
		defer file.Close()
		in.FileName = header.Filename
		in.Size = header.Size
		in.Body = file
	}

	doc, err := h.dashboard.UploadDocument(r.Context(), actorOf(r), in)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusCreated, "Document uploaded", doc)
}

func (h *DashboardHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.DeleteDocument(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Document deleted", struct{}{})
}

func (h *DashboardHandler) LoanTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.dashboard.LoanTeam(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", team)
}

func (h *DashboardHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var in usecase.SendMessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.dashboard.SendMessage(r.Context(), actorOf(r), in); err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Message sent successfully", struct{}{})
}

func (h *DashboardHandler) ScheduleCall(w http.ResponseWriter, r *http.Request) {
	var in usecase.ScheduleCallInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.dashboard.ScheduleCall(r.Context(), actorOf(r), in); err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Call scheduled successfully", struct{}{})
}

func (h *DashboardHandler) Disclosures(w http.ResponseWriter, _ *http.Request) {
	h.OK(w, http.StatusOK, "", h.dashboard.Disclosures())
}

func (h *DashboardHandler) CreditReport(w http.ResponseWriter, _ *http.Request) {
	h.OK(w, http.StatusOK, "", h.dashboard.CreditReport())
}
