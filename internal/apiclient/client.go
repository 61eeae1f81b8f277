// Package apiclient talks to the CareSync JSON API on behalf of the web
// dashboard.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"caresync/pkg"
)

// TransportError means a request did not produce a usable response: the
// connection failed, the status was not 2xx, or the body was not the JSON we
// expected.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// SubmitQuery posts to /api/ai_query.  A body that decodes is returned even
// on a non-2xx status, since the server reports rejected queries as
// success=false with a message.
func (c *Client) SubmitQuery(ctx context.Context, req pkg.AIQueryRequest) (pkg.AIQueryResponse, error) {
	const op = "submit query"
	var out pkg.AIQueryResponse
	status, raw, err := c.do(ctx, http.MethodPost, "/api/ai_query", req)
	if err != nil {
		return out, &TransportError{Op: op, Err: err}
	}
	if err = json.Unmarshal(raw, &out); err != nil {
		return pkg.AIQueryResponse{}, &TransportError{Op: op, Status: status, Err: err}
	}
	if status >= 300 && out.Success {
		return pkg.AIQueryResponse{}, &TransportError{Op: op, Status: status, Err: errors.New("unexpected success body")}
	}
	return out, nil
}

// ListQueries returns a patient's history.
func (c *Client) ListQueries(ctx context.Context, patientID string) ([]pkg.HistoryRecord, error) {
	var out []pkg.HistoryRecord
	err := c.getJSON(ctx, "list queries", "/api/queries?patientId="+url.QueryEscape(patientID), &out)
	return out, err
}

// ListByStatus returns every query with the given review status.
func (c *Client) ListByStatus(ctx context.Context, status pkg.QueryStatus) ([]pkg.Query, error) {
	var out []pkg.Query
	err := c.getJSON(ctx, "list queries by status", "/api/queries?status="+url.QueryEscape(string(status)), &out)
	return out, err
}

// Verify marks a query verified with the clinician's response.
func (c *Client) Verify(ctx context.Context, queryID int64, response string) error {
	return c.review(ctx, "verify response", "/api/verify_response", queryID, response)
}

// Edit replaces a query's response.
func (c *Client) Edit(ctx context.Context, queryID int64, response string) error {
	return c.review(ctx, "edit response", "/api/edit_response", queryID, response)
}

func (c *Client) review(ctx context.Context, op, path string, queryID int64, response string) error {
	status, raw, err := c.do(ctx, http.MethodPost, path, pkg.ReviewRequest{QueryID: queryID, Response: &response})
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if status >= 300 {
		return &TransportError{Op: op, Status: status, Err: errors.New(serverMessage(raw))}
	}
	return nil
}

// CreatePatient registers a patient and returns the new id.
func (c *Client) CreatePatient(ctx context.Context, in pkg.PatientInput) (int64, error) {
	const op = "create patient"
	status, raw, err := c.do(ctx, http.MethodPost, "/api/patients", in)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	if status >= 300 {
		return 0, &TransportError{Op: op, Status: status, Err: errors.New(serverMessage(raw))}
	}
	var out struct {
		PatientID int64 `json:"patient_id"`
	}
	if err = json.Unmarshal(raw, &out); err != nil {
		return 0, &TransportError{Op: op, Status: status, Err: err}
	}
	return out.PatientID, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, dst any) error {
	status, raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if status >= 300 {
		return &TransportError{Op: op, Status: status, Err: errors.New(serverMessage(raw))}
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return &TransportError{Op: op, Status: status, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}
