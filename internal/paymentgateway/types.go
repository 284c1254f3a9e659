package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// InvoiceItem is one line of a checkout invoice.
type InvoiceItem struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
	Description string `json:"description,omitempty"`
}

// CreateInvoiceRequest describes a checkout invoice to open with the
// provider.
type CreateInvoiceRequest struct {
	TotalAmount int
	Description string
	Items       []InvoiceItem
	CallbackURL string
	CustomData  map[string]string
}

// CreateInvoiceResponse is the subset of the provider response the
// lifecycle manager needs: the checkout token and the hosted payment URL.
type CreateInvoiceResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Token        string `json:"token"`
}

// InvoiceStatus is the provider's view of one checkout attempt.
type InvoiceStatus struct {
	Status        string `json:"status"` // pending, completed, cancelled, failed
	ResponseCode  string `json:"response_code"`
	TransactionID string `json:"transaction_id"`
	Raw           json.RawMessage
}

// CreateInvoice opens a checkout invoice and returns its token plus the
// payment URL (the provider returns the URL in response_text).
func (c *Client) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	const op = "paymentgateway.CreateInvoice"
	payload := map[string]any{
		"invoice": map[string]any{
			"total_amount": req.TotalAmount,
			"description":  req.Description,
			"items":        req.Items,
		},
		"store": map[string]any{
			"name": c.storeName,
		},
	}
	if req.CallbackURL != "" {
		payload["actions"] = map[string]string{"callback_url": req.CallbackURL}
	}
	if req.CustomData != nil {
		payload["custom_data"] = req.CustomData
	}

	raw, err := c.Post(ctx, "checkout-invoice/create", payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var resp CreateInvoiceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}

// CheckInvoiceStatus polls the status of one checkout attempt.
func (c *Client) CheckInvoiceStatus(ctx context.Context, invoiceToken string) (*InvoiceStatus, error) {
	const op = "paymentgateway.CheckInvoiceStatus"
	raw, err := c.Get(ctx, "checkout-invoice/confirm/"+invoiceToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var resp struct {
		Status       string `json:"status"`
		ResponseCode string `json:"response_code"`
		Invoice      struct {
			TransactionID string `json:"transaction_id"`
		} `json:"invoice"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &InvoiceStatus{
		Status:        resp.Status,
		ResponseCode:  resp.ResponseCode,
		TransactionID: resp.Invoice.TransactionID,
		Raw:           raw,
	}, nil
}

// CheckoutURL returns the hosted payment page for an invoice token.
func (c *Client) CheckoutURL(invoiceToken string) string {
	return "https://paydunya.com/checkout/invoice/" + invoiceToken
}

// ConfirmPayment forwards an operator-specific softpay payload built by
// BuildOperatorPayload and returns the raw provider response.
func (c *Client) ConfirmPayment(ctx context.Context, endpoint string, payload map[string]any) (json.RawMessage, error) {
	const op = "paymentgateway.ConfirmPayment"
	raw, err := c.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return raw, nil
}
