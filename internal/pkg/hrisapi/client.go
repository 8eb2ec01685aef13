package hrisapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
)

const maxBodyBytes = 4 << 20

// APIError is a non-2xx answer from the attendance service. Its message is
// the upstream text so it can be shown to the user as is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("attendance service responded with status %d", e.StatusCode)
}

// Client talks to the external HRIS attendance REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
}

var _ attendance.Client = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, payload interface{}) (int, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("obtain attendance service token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", attendance.ErrUpstreamUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response: %v", attendance.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, respBody, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	return resp.StatusCode, respBody, nil
}

func employeePath(employeeID string, rest ...string) string {
	parts := append([]string{"/attendance/employee", url.PathEscape(employeeID)}, rest...)
	return strings.Join(parts, "/")
}

// GetByEmployeeAndDate implements attendance.Client.
func (c *Client) GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (*attendance.Record, error) {
	status, body, err := c.do(ctx, http.MethodGet, employeePath(employeeID, "date", url.PathEscape(date)), nil, nil)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// ClockIn implements attendance.Client.
func (c *Client) ClockIn(ctx context.Context, req attendance.ClockInRequest) error {
	_, _, err := c.do(ctx, http.MethodPost, "/attendance/clock-in", nil, req)
	return err
}

// ClockOut implements attendance.Client.
func (c *Client) ClockOut(ctx context.Context, req attendance.ClockOutRequest) error {
	_, _, err := c.do(ctx, http.MethodPost, "/attendance/clock-out", nil, req)
	return err
}

// Update implements attendance.Client.
func (c *Client) Update(ctx context.Context, req attendance.UpdateRequest) error {
	if req.ID == "" {
		return attendance.ErrMissingAttendanceID
	}
	_, _, err := c.do(ctx, http.MethodPatch, "/attendance/"+url.PathEscape(req.ID), nil, req)
	return err
}

// Regularize implements attendance.Client.
func (c *Client) Regularize(ctx context.Context, req attendance.RegularizationRequest) error {
	if req.AttendanceID == "" {
		return attendance.ErrMissingAttendanceID
	}
	_, _, err := c.do(ctx, http.MethodPost, "/attendance/"+url.PathEscape(req.AttendanceID)+"/regularization", nil, req)
	return err
}

// History implements attendance.Client.
func (c *Client) History(ctx context.Context, employeeID string, startDate string, endDate string) ([]attendance.Record, error) {
	query := url.Values{}
	query.Set("start_date", startDate)
	query.Set("end_date", endDate)

	_, body, err := c.do(ctx, http.MethodGet, employeePath(employeeID, "history"), query, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// Today implements attendance.Client.
func (c *Client) Today(ctx context.Context, employeeID string) (*attendance.Record, error) {
	status, body, err := c.do(ctx, http.MethodGet, employeePath(employeeID, "today"), nil, nil)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// MonthlyStats implements attendance.Client.
func (c *Client) MonthlyStats(ctx context.Context, employeeID string, month string) (attendance.MonthlyStats, error) {
	query := url.Values{}
	query.Set("month", month)

	_, body, err := c.do(ctx, http.MethodGet, employeePath(employeeID, "stats"), query, nil)
	if err != nil {
		return attendance.MonthlyStats{}, err
	}

	var stats attendance.MonthlyStats
	if raw := unwrap(body); len(raw) > 0 {
		if err := json.Unmarshal(raw, &stats); err != nil {
			return attendance.MonthlyStats{}, fmt.Errorf("decode monthly stats: %w", err)
		}
	}
	if stats.Month == "" {
		stats.Month = month
	}
	return stats, nil
}
