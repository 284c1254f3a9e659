package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kdiomande/pronostic-platform/internal/config"
)

// FedaPayClient talks to the FedaPay API with Bearer authentication.
// Same error contract as the PayDunya client: no retries, *GatewayError
// on non-2xx or transport failure.
type FedaPayClient struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// NewFedaPayClient builds a FedaPay client from injected configuration.
func NewFedaPayClient(cfg config.FedaPay) *FedaPayClient {
	return &FedaPayClient{
		apiToken:   cfg.APIToken,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *FedaPayClient) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

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

// FedaPayCustomer is the provider-side customer record.
type FedaPayCustomer struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// CreateCustomer registers a customer with the provider.
func (c *FedaPayClient) CreateCustomer(ctx context.Context, firstName, lastName, email string) (*FedaPayCustomer, error) {
	const op = "paymentgateway.fedapay.CreateCustomer"
	raw, err := c.post(ctx, "/customers", map[string]string{
		"firstname": firstName,
		"lastname":  lastName,
		"email":     email,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var wrapped struct {
		V1Customer FedaPayCustomer `json:"v1/customer"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &wrapped.V1Customer, nil
}

// FedaPayTransaction is the provider-side transaction record.
type FedaPayTransaction struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Amount      int    `json:"amount"`
	Status      string `json:"status"`
}

// CreateTransaction opens a transaction for a previously created customer.
func (c *FedaPayClient) CreateTransaction(ctx context.Context, description string, amount int, currencyISO string, customerID int, callbackURL string) (*FedaPayTransaction, error) {
	const op = "paymentgateway.fedapay.CreateTransaction"
	raw, err := c.post(ctx, "/transactions", map[string]any{
		"description":  description,
		"amount":       amount,
		"currency":     map[string]string{"iso": currencyISO},
		"callback_url": callbackURL,
		"customer":     map[string]int{"id": customerID},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var wrapped struct {
		V1Transaction FedaPayTransaction `json:"v1/transaction"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &wrapped.V1Transaction, nil
}

// GeneratePaymentLink returns a hosted checkout token and URL for a
// transaction.
func (c *FedaPayClient) GeneratePaymentLink(ctx context.Context, transactionID int) (token, url string, err error) {
	const op = "paymentgateway.fedapay.GeneratePaymentLink"
	raw, err := c.post(ctx, fmt.Sprintf("/transactions/%d/token", transactionID), nil)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	var resp struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return resp.Token, resp.URL, nil
}
