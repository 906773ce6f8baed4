// Package leadapi talks to the public lead and rate endpoints of the API server.
package leadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
)

const userAgent = "leadctl/1.0"

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// CreateLead submits a website application (POST /api/leads).
func (c *Client) CreateLead(ctx context.Context, in usecase.CreateLeadInput) (*entity.Lead, error) {
	var lead entity.Lead
	if err := c.do(ctx, http.MethodPost, "/api/leads", in, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// CreateRefinanceLead submits a refinance application (POST /api/leads/refinance).
func (c *Client) CreateRefinanceLead(ctx context.Context, in usecase.CreateRefinanceLeadInput) (*entity.Lead, error) {
	var lead entity.Lead
	if err := c.do(ctx, http.MethodPost, "/api/leads/refinance", in, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (c *Client) CurrentRates(ctx context.Context) ([]entity.Rate, error) {
	var rates ratesData
	if err := c.do(ctx, http.MethodGet, "/api/rates", nil, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

func (c *Client) SubscribeToRates(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/rates/subscribe", subscribeRequest{Email: email}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	c.setHeaders(req, payload != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.Error
			apiErr.Message = env.Message
			apiErr.Fields = env.Errors
			apiErr.ExistingID = env.ExistingID
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}
