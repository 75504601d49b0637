// Package gateway is the HTTP client for the remote storefront backend.
// Every endpoint takes JSON and answers {success, message}.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"storefront-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "gateway").Logger()

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s: unexpected status %d", e.Path, e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SubmitOrder posts the order snapshot to /order.
func (c *Client) SubmitOrder(ctx context.Context, req entity.OrderRequest) (*entity.GatewayResponse, error) {
	return c.post(ctx, "/order", req)
}

func (c *Client) Signup(ctx context.Context, creds entity.Credentials) (*entity.GatewayResponse, error) {
	return c.post(ctx, "/signup", creds)
}

func (c *Client) Login(ctx context.Context, creds entity.Credentials) (*entity.GatewayResponse, error) {
	return c.post(ctx, "/login", creds)
}

func (c *Client) SaveProfile(ctx context.Context, profile entity.Profile) (*entity.GatewayResponse, error) {
	return c.post(ctx, "/profile", profile)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*entity.GatewayResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msgf("POST %s failed", path)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn().Int("status", resp.StatusCode).Msgf("POST %s rejected", path)
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	var out entity.GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gateway %s: decode response: %w", path, err)
	}
	return &out, nil
}
