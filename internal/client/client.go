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
	"strings"
	"time"

	"inventory-api/internal/domain"
)

// DefaultBaseURL is used when no API address is configured
const DefaultBaseURL = "http://localhost:8080"

// ErrNotLoggedIn is returned by calls that need a token before Login succeeded
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response decoded from the API error envelope
type APIError struct {
	Status  int
	Message string
	Errors  []string
	Detail  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		msg += " " + strings.Join(e.Errors, " ")
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

// Session holds the API address and the bearer token obtained by Login
type Session struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewSession creates a Session against baseURL
func NewSession(baseURL string) *Session {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// LoggedIn reports whether the session carries a token
func (s *Session) LoggedIn() bool {
	return s.Token != ""
}

// Register creates a new account. Only an Admin session may do this.
func (s *Session) Register(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	creds := domain.Credentials{Username: username, Password: password}
	if err := s.do(ctx, http.MethodPost, "/api/Auth/register", creds, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login authenticates and stores the returned token on the session
func (s *Session) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	var token domain.TokenResponse
	creds := domain.Credentials{Username: username, Password: password}
	if err := s.do(ctx, http.MethodPost, "/api/Auth/login", creds, &token); err != nil {
		return nil, err
	}
	s.Token = token.Token
	return &token, nil
}

// ListProducts returns every product with its VAT-inclusive price
func (s *Session) ListProducts(ctx context.Context) ([]domain.ProductView, error) {
	var views []domain.ProductView
	if err := s.authorized(ctx, http.MethodGet, "/api/Products", nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// GetProduct returns a single product
func (s *Session) GetProduct(ctx context.Context, id int64) (*domain.ProductView, error) {
	var view domain.ProductView
	if err := s.authorized(ctx, http.MethodGet, productPath(id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateProduct adds a product and returns its view
func (s *Session) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.ProductView, error) {
	var view domain.ProductView
	if err := s.authorized(ctx, http.MethodPost, "/api/Products", input, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateProduct replaces the fields of product id
func (s *Session) UpdateProduct(ctx context.Context, id int64, input domain.ProductInput) error {
	input.ID = id
	return s.authorized(ctx, http.MethodPut, productPath(id), input, nil)
}

// DeleteProduct removes product id
func (s *Session) DeleteProduct(ctx context.Context, id int64) error {
	return s.authorized(ctx, http.MethodDelete, productPath(id), nil, nil)
}

// AuditLogs returns audit entries between the optional from and to bounds,
// given as dates or timestamps the server accepts.
func (s *Session) AuditLogs(ctx context.Context, from, to string) ([]domain.AuditEntry, error) {
	query := url.Values{}
	if from = strings.TrimSpace(from); from != "" {
		query.Set("from", from)
	}
	if to = strings.TrimSpace(to); to != "" {
		query.Set("to", to)
	}
	path := "/api/Audit"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var entries []domain.AuditEntry
	if err := s.authorized(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func productPath(id int64) string {
	return fmt.Sprintf("/api/Products/%d", id)
}

func (s *Session) authorized(ctx context.Context, method, path string, body, out any) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	return s.do(ctx, method, path, body, out)
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
		Error   string   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Message
		apiErr.Errors = envelope.Errors
		apiErr.Detail = envelope.Error
	}
	return apiErr
}
