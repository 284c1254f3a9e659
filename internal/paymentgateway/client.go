// Package paymentgateway contains the stateless HTTP clients for the two
// payment providers (PayDunya and FedaPay) and the static per-operator
// field-name table for the mobile-money confirm endpoints.
//
// Clients sign every request with the provider credentials, enforce a
// bounded timeout and surface any non-2xx or transport failure as a
// *GatewayError. They never retry; the caller decides whether to retry.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kdiomande/pronostic-platform/internal/config"
)

// GatewayError carries the provider's HTTP status and raw body so
// handlers can surface the original failure to the caller.
type GatewayError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway: transport failure: %v", e.Err)
	}
	return fmt.Sprintf("gateway: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsGatewayError reports whether err wraps a *GatewayError and returns it.
func IsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Client talks to the PayDunya API. Credentials travel as three static
// PAYDUNYA-* headers on every request.
type Client struct {
	masterKey  string
	privateKey string
	token      string
	baseURL    string
	storeName  string
	httpClient *http.Client
}

// NewClient builds a PayDunya client from injected configuration.
func NewClient(cfg config.PayDunya) *Client {
	return &Client{
		masterKey:  cfg.MasterKey,
		privateKey: cfg.PrivateKey,
		token:      cfg.Token,
		baseURL:    cfg.BaseURL,
		storeName:  cfg.StoreName,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Post sends payload to a named endpoint and returns the raw provider
// response. Any non-2xx status or transport error becomes a *GatewayError.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	url := c.baseURL + "/" + endpoint
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PAYDUNYA-MASTER-KEY", c.masterKey)
	req.Header.Set("PAYDUNYA-PRIVATE-KEY", c.privateKey)
	req.Header.Set("PAYDUNYA-TOKEN", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// Get performs a GET against a named endpoint, same error contract as Post.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("PAYDUNYA-MASTER-KEY", c.masterKey)
	req.Header.Set("PAYDUNYA-PRIVATE-KEY", c.privateKey)
	req.Header.Set("PAYDUNYA-TOKEN", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
