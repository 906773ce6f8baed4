package leadapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

// envelope is the JSON body every API endpoint answers with.
type envelope struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Error      string                    `json:"error"`
	Errors     []usecase.ValidationError `json:"errors"`
	ExistingID string                    `json:"existingId"`
	Data       json.RawMessage           `json:"data"`
}

// APIError is a non-2xx answer from the lead API.
type APIError struct {
	Status     int
	Code       string
	Message    string
	Fields     []usecase.ValidationError
	ExistingID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Error())
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("lead api %d %s: %s", e.Status, e.Code, msg)
}

// Retryable is true for server failures and throttling. Validation and
// duplicate rejections will fail the same way again.
func (e *APIError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsDuplicate reports a DUPLICATE_LEAD rejection.
func (e *APIError) IsDuplicate() bool {
	return e.Code == usecase.CodeDuplicateLead
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type ratesData = []entity.Rate
