package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/http/middleware"
)

type RateService interface {
	Current(ctx context.Context) ([]entity.Rate, error)
	Refresh(ctx context.Context) ([]entity.Rate, error)
	History(rateType string, days int) ([]entity.RatePoint, error)
	Subscribe(ctx context.Context, email string) error
}

type RateHandler struct {
	Responder
	rates RateService
}

func NewRateHandler(rs Responder, rates RateService) *RateHandler {
	return &RateHandler{Responder: rs, rates: rates}
}

func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rates.Current(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", rates)
}

// Refresh serves both the public GET /api/rates/refresh and the admin POST /api/rates/update.
func (h *RateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rates.Refresh(r.Context())
	middleware.RecordRateRefresh(err == nil)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Rates updated successfully", rates)
}

func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	history, err := h.rates.History(chi.URLParam(r, "rateType"), days)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "", history)
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func (h *RateHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in subscribeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.rates.Subscribe(r.Context(), in.Email); err != nil {
		h.Error(w, r, err)
		return
	}
	h.OK(w, http.StatusOK, "Subscribed to rate alerts", struct{}{})
}
