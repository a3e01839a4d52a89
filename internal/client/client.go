// Package client talks to the reading API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quentinrf/glucose-log/internal/adapters/rest"
	"github.com/quentinrf/glucose-log/internal/domain"
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is an HTTP client for /api/records
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// CreateRecord submits a reading. level is sent verbatim so the server
// applies its own integer rules.
func (c *Client) CreateRecord(ctx context.Context, mealType, level string, comment *string) (*domain.Reading, error) {
	body := map[string]any{
		"mealType":   mealType,
		"sugarLevel": level,
	}
	if comment != nil {
		body["comment"] = *comment
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var out rest.RecordResponse
	if err := c.do(ctx, http.MethodPost, "/api/records", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	return toDomain(out)
}

// ListRecords fetches every reading in chronological order
func (c *Client) ListRecords(ctx context.Context) ([]*domain.Reading, error) {
	var out []rest.RecordResponse
	if err := c.do(ctx, http.MethodGet, "/api/records", nil, &out); err != nil {
		return nil, err
	}

	readings := make([]*domain.Reading, 0, len(out))
	for _, r := range out {
		reading, err := toDomain(r)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toDomain(r rest.RecordResponse) (*domain.Reading, error) {
	ts, err := time.Parse(domain.TimeLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", r.CreatedAt, err)
	}
	return &domain.Reading{
		ID:          r.ID,
		MealContext: domain.MealContext(r.MealType),
		Level:       r.SugarLevel,
		Comment:     r.Comment,
		CreatedAt:   ts,
	}, nil
}
