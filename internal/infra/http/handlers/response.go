package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

const maxJSONBody = 1 << 20

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message,omitempty"`
	Error      string                    `json:"error,omitempty"`
	Errors     []usecase.ValidationError `json:"errors,omitempty"`
	ExistingID string                    `json:"existingId,omitempty"`
	Detail     string                    `json:"detail,omitempty"`
	Data       any                       `json:"data,omitempty"`
}

// Responder turns use case results into HTTP responses. Production hides
// technical error detail.
type Responder struct {
	Logger     *logging.Logger
	Production bool
}

func NewResponder(logger *logging.Logger, production bool) Responder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return Responder{Logger: logger, Production: production}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (rs Responder) OK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, domainStatus(de.Code), Response{
			Success:    false,
			Error:      de.Code,
			Message:    de.Message,
			Errors:     de.Fields,
			ExistingID: de.ExistingID,
		})
		return
	}

	resp := Response{Success: false, Error: "SERVER_ERROR", Message: "Server Error"}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		resp.Error = te.Code
	}
	if !rs.Production {
		resp.Detail = err.Error()
	}
	rs.Logger.Errorw("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, resp)
}

func domainStatus(code string) int {
	switch code {
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeUnauthorized, usecase.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case usecase.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &usecase.DomainError{Code: usecase.CodeValidation, Message: "Request body is required"}
		}
		return &usecase.DomainError{Code: usecase.CodeValidation, Message: "Invalid JSON"}
	}
	return nil
}
