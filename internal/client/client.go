// Package client is a typed HTTP client for the popfitup API. It unwraps the
// response envelope and maps error codes back to sentinel errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/pkg/response"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation error")
	ErrQuotaExceeded   = errors.New("report quota exceeded")
	ErrAlreadyAnswered = errors.New("report already answered")
	ErrAnswerLocked    = errors.New("answered report cannot be deleted")
	ErrLoginRequired   = errors.New("login required")
	// ErrNetwork wraps transport failures and unexpected 5xx responses.
	// These are the retryable ones.
	ErrNetwork = errors.New("network error")
)

var codeErrors = map[string]error{
	response.CodeNotFound:        ErrNotFound,
	response.CodeUnauthorized:    ErrUnauthorized,
	response.CodeForbidden:       ErrForbidden,
	response.CodeValidation:      ErrValidation,
	response.CodeQuotaExceeded:   ErrQuotaExceeded,
	response.CodeAlreadyAnswered: ErrAlreadyAnswered,
	response.CodeAnswerLocked:    ErrAnswerLocked,
	response.CodeLoginRequired:   ErrLoginRequired,
}

// APIError is a non-2xx response. It unwraps to the sentinel for its code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if err, ok := codeErrors[e.Code]; ok {
		return err
	}
	if e.StatusCode >= 500 {
		return ErrNetwork
	}
	return nil
}

// Client is an HTTP client for the popfitup API.
type Client struct {
	baseURL    string
	cookie     string
	clientID   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithSessionCookie sends the session cookie value on every request.
func WithSessionCookie(value string) Option {
	return func(c *Client) { c.cookie = value }
}

// WithClientID sends an anonymous device token for report endpoints.
func WithClientID(id string) Option {
	return func(c *Client) { c.clientID = id }
}

// WithHTTPClient replaces the default 30s-timeout http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetSessionCookie replaces the session cookie, e.g. after login or logout.
func (c *Client) SetSessionCookie(value string) {
	c.cookie = value
}

// Home returns the three home buckets for the current month.
func (c *Client) Home(ctx context.Context) (*dto.HomeResponse, error) {
	var out dto.HomeResponse
	if err := c.get(ctx, "/api/home", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Monthly returns only the bucket for month.
func (c *Client) Monthly(ctx context.Context, month domain.MonthKey) ([]dto.PopupItem, error) {
	var out dto.HomeResponse
	if err := c.get(ctx, "/api/home?month="+month.String(), &out); err != nil {
		return nil, err
	}
	return out.Monthly, nil
}

// Search runs a faceted search. Page is 1-indexed; pageSize 0 uses the
// server default.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter, page, pageSize int) (*dto.SearchResponse, error) {
	q := filter.Values()
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	path := "/api/popups"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out dto.SearchResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Popup returns one listing.
func (c *Client) Popup(ctx context.Context, id uint64) (*dto.PopupItem, error) {
	var out dto.PopupItem
	if err := c.get(ctx, fmt.Sprintf("/api/popups/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Similar returns listings sharing a category with id.
func (c *Client) Similar(ctx context.Context, id uint64) ([]dto.PopupItem, error) {
	var out []dto.PopupItem
	if err := c.get(ctx, fmt.Sprintf("/api/popups/%d/similar", id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Nearby returns listings in the same region as id.
func (c *Client) Nearby(ctx context.Context, id uint64) ([]dto.PopupItem, error) {
	var out []dto.PopupItem
	if err := c.get(ctx, fmt.Sprintf("/api/popups/%d/nearby", id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Me returns the current identity as seen by the server.
func (c *Client) Me(ctx context.Context) (*dto.MeResponse, error) {
	var out dto.MeResponse
	if err := c.get(ctx, "/api/users/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Favorites returns the caller's favorited listings.
func (c *Client) Favorites(ctx context.Context) ([]dto.PopupItem, error) {
	var out []dto.PopupItem
	if err := c.get(ctx, "/api/users/me/favorites", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFavorite favorites a listing.
func (c *Client) AddFavorite(ctx context.Context, id uint64) (*dto.FavoriteResponse, error) {
	var out dto.FavoriteResponse
	if err := c.post(ctx, "/api/favorites", dto.FavoriteRequest{PopupID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFavorite unfavorites a listing.
func (c *Client) RemoveFavorite(ctx context.Context, id uint64) (*dto.FavoriteResponse, error) {
	var out dto.FavoriteResponse
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/favorites/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitReport files a report as the session user or device token.
func (c *Client) SubmitReport(ctx context.Context, req dto.SubmitReportRequest) (*dto.ReportItem, error) {
	var out dto.ReportItem
	if err := c.post(ctx, "/api/reports", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyReports lists the caller's reports, newest first.
func (c *Client) MyReports(ctx context.Context) ([]dto.ReportItem, error) {
	var out []dto.ReportItem
	if err := c.get(ctx, "/api/reports/mine", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMyReport deletes one of the caller's reports.
func (c *Client) DeleteMyReport(ctx context.Context, id uint64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/reports/%d", id), nil, nil)
}

// AllReports lists every report (admin).
func (c *Client) AllReports(ctx context.Context, key string) ([]dto.ReportItem, error) {
	var out []dto.ReportItem
	if err := c.get(ctx, "/api/reports?key="+url.QueryEscape(key), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AnswerReport sets the single answer of a report (admin).
func (c *Client) AnswerReport(ctx context.Context, id uint64, key, answer string) (*dto.ReportItem, error) {
	var out dto.ReportItem
	path := fmt.Sprintf("/api/reports/%d/answer?key=%s", id, url.QueryEscape(key))
	if err := c.post(ctx, path, dto.AnswerRequest{Answer: answer}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteReport deletes any report (admin).
func (c *Client) DeleteReport(ctx context.Context, id uint64, key string) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/reports/%d?key=%s", id, url.QueryEscape(key)), nil, nil)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

func (c *Client) send(ctx context.Context, method, path string, body, result interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// envelope is the union of the success and error bodies.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
		Details    struct {
			Code string `json:"code"`
		} `json:"details"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, result interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "popfitup.sid", Value: c.cookie})
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-Id", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Details.Code
			if env.Error.Message != "" {
				apiErr.Message = env.Error.Message
			}
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decoding response: %w", decodeErr)
	}
	if env.Status != response.StatusSuccess {
		return fmt.Errorf("decoding response: unexpected status %q", env.Status)
	}
	if result != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
