// Package payment drives checkout initiation and the reconciliation of
// provider verdicts into the ledger and the subscription lifecycle.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/metrics"
	"github.com/kdiomande/pronostic-platform/internal/models"
	"github.com/kdiomande/pronostic-platform/internal/paymentgateway"
)

// Repository is the storage contract the service depends on.
type Repository interface {
	GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error)
	GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetInvoiceToken(ctx context.Context, id int, token string) error
	CreateTransaction(ctx context.Context, tr models.Transaction) (int, error)
	GetTransactionByInvoiceToken(ctx context.Context, token string) (*models.Transaction, error)
	ConfirmTransaction(ctx context.Context, invoiceToken string, status models.TransactionStatus,
		externalTransactionID string, providerDetail []byte) (*models.PaymentReconciliation, error)
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
}

// Gateway is the mobile-money provider the service talks to.
type Gateway interface {
	CreateInvoice(ctx context.Context, req paymentgateway.CreateInvoiceRequest) (*paymentgateway.CreateInvoiceResponse, error)
	CheckInvoiceStatus(ctx context.Context, invoiceToken string) (*paymentgateway.InvoiceStatus, error)
	ConfirmPayment(ctx context.Context, endpoint string, payload map[string]any) (json.RawMessage, error)
	CheckoutURL(invoiceToken string) string
}

// CardGateway is the card/payment-link provider used as an alternative
// to mobile money.
type CardGateway interface {
	CreateCustomer(ctx context.Context, firstName, lastName, email string) (*paymentgateway.FedaPayCustomer, error)
	CreateTransaction(ctx context.Context, description string, amount int, currencyISO string,
		customerID int, callbackURL string) (*paymentgateway.FedaPayTransaction, error)
	GeneratePaymentLink(ctx context.Context, transactionID int) (token, url string, err error)
}

// EmailPublisher pushes email events onto the messaging exchange.
type EmailPublisher interface {
	Publish(routingKey string, event models.EmailEvent) error
}

// Initiation is what a client needs to finish a checkout.
type Initiation struct {
	InvoiceToken string `json:"invoice_token"`
	CheckoutURL  string `json:"checkout_url"`
	Reference    string `json:"reference"`
}

// PaymentService owns the payment side of the subscription lifecycle.
type PaymentService struct {
	repo        Repository
	gateway     Gateway
	cards       CardGateway
	publisher   EmailPublisher
	callbackURL string
	log         *slog.Logger
}

// New creates a PaymentService.
func New(repo Repository, gateway Gateway, cards CardGateway, publisher EmailPublisher,
	callbackURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:        repo,
		gateway:     gateway,
		cards:       cards,
		publisher:   publisher,
		callbackURL: callbackURL,
		log:         log,
	}
}

// Initiate opens a checkout invoice for a pending subscription and
// appends the pending ledger entry. Each call makes a fresh attempt;
// the subscription keeps only the latest invoice token while the ledger
// keeps them all.
func (s *PaymentService) Initiate(ctx context.Context, userUID string, subscriptionID int,
	req models.DummyInitiatePayment) (*Initiation, error) {
	sub, plan, err := s.pendingSubscription(ctx, userUID, subscriptionID)
	if err != nil {
		return nil, err
	}

	inv, err := s.gateway.CreateInvoice(ctx, paymentgateway.CreateInvoiceRequest{
		TotalAmount: plan.PriceXOF,
		Description: fmt.Sprintf("Abonnement %s", plan.Name),
		Items: []paymentgateway.InvoiceItem{{
			Name:       plan.Name,
			Quantity:   1,
			UnitPrice:  fmt.Sprintf("%d", plan.PriceXOF),
			TotalPrice: fmt.Sprintf("%d", plan.PriceXOF),
		}},
		CallbackURL: s.callbackURL,
		CustomData:  map[string]string{"reference": sub.Reference},
	})
	if err != nil {
		return nil, err
	}
	if inv.ResponseCode != "00" {
		return nil, fmt.Errorf("invoice refused: %s", inv.ResponseText)
	}

	if err := s.repo.SetInvoiceToken(ctx, sub.ID, inv.Token); err != nil {
		return nil, err
	}
	if _, err := s.repo.CreateTransaction(ctx, models.Transaction{
		SubscriptionID: sub.ID,
		UserUID:        userUID,
		AmountXOF:      plan.PriceXOF,
		InvoiceToken:   inv.Token,
		PaymentMethod:  req.PaymentMethod,
		PaymentPhone:   req.PaymentPhone,
		Status:         models.TransactionPending,
	}); err != nil {
		return nil, err
	}

	s.log.Info("opened checkout invoice",
		slog.Int("subscription_id", sub.ID),
		slog.String("reference", sub.Reference))
	return &Initiation{
		InvoiceToken: inv.Token,
		CheckoutURL:  s.gateway.CheckoutURL(inv.Token),
		Reference:    sub.Reference,
	}, nil
}

// InitiateCard opens a hosted payment link with the card provider
// instead of a mobile-money invoice.
func (s *PaymentService) InitiateCard(ctx context.Context, userUID string, subscriptionID int) (*Initiation, error) {
	sub, plan, err := s.pendingSubscription(ctx, userUID, subscriptionID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	customer, err := s.cards.CreateCustomer(ctx, user.FirstName, user.LastName, user.Email)
	if err != nil {
		return nil, err
	}
	tr, err := s.cards.CreateTransaction(ctx, fmt.Sprintf("Abonnement %s", plan.Name),
		plan.PriceXOF, "XOF", customer.ID, s.callbackURL)
	if err != nil {
		return nil, err
	}
	token, url, err := s.cards.GeneratePaymentLink(ctx, tr.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetInvoiceToken(ctx, sub.ID, token); err != nil {
		return nil, err
	}
	if _, err := s.repo.CreateTransaction(ctx, models.Transaction{
		SubscriptionID: sub.ID,
		UserUID:        userUID,
		AmountXOF:      plan.PriceXOF,
		InvoiceToken:   token,
		PaymentMethod:  "card",
		Status:         models.TransactionPending,
	}); err != nil {
		return nil, err
	}

	s.log.Info("opened card payment link", slog.Int("subscription_id", sub.ID))
	return &Initiation{InvoiceToken: token, CheckoutURL: url, Reference: sub.Reference}, nil
}

// ConfirmOperator pushes an operator-specific softpay confirmation and,
// when the provider settles immediately, reconciles the verdict. The
// returned status is the ledger status after the call.
func (s *PaymentService) ConfirmOperator(ctx context.Context, userUID, country, method string,
	req paymentgateway.ConfirmPaymentRequest) (models.TransactionStatus, error) {
	op, ok := paymentgateway.LookupOperator(country, method)
	if !ok {
		return "", fmt.Errorf("unsupported operator %s/%s: %w", country, method, domain.ErrNotFound)
	}

	tr, err := s.repo.GetTransactionByInvoiceToken(ctx, req.PaymentToken)
	if err != nil {
		return "", err
	}
	if tr.UserUID != userUID {
		return "", domain.ErrAccessDenied
	}
	if tr.Status.Terminal() {
		return tr.Status, nil
	}

	payload, err := paymentgateway.BuildOperatorPayload(op, req)
	if err != nil {
		return "", err
	}
	raw, err := s.gateway.ConfirmPayment(ctx, op.Endpoint, payload)
	if err != nil {
		return "", err
	}

	var verdict struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return "", fmt.Errorf("malformed softpay response: %w", err)
	}
	if !verdict.Success {
		if _, err := s.reconcile(ctx, req.PaymentToken, models.TransactionFailed, "", raw); err != nil {
			return "", err
		}
		return models.TransactionFailed, nil
	}

	// Softpay accepted; the invoice poll carries the transaction id.
	status, err := s.gateway.CheckInvoiceStatus(ctx, req.PaymentToken)
	if err != nil {
		s.log.Warn("invoice poll after softpay failed", sl.Err(err))
		if _, err := s.reconcile(ctx, req.PaymentToken, models.TransactionCompleted, "", raw); err != nil {
			return "", err
		}
		return models.TransactionCompleted, nil
	}
	mapped := mapProviderStatus(status.Status)
	if !mapped.Terminal() {
		return models.TransactionPending, nil
	}
	if _, err := s.reconcile(ctx, req.PaymentToken, mapped, status.TransactionID, status.Raw); err != nil {
		return "", err
	}
	return mapped, nil
}

// CheckStatus polls the provider for the subscription's latest checkout
// attempt and reconciles a terminal verdict. Safe to call repeatedly.
func (s *PaymentService) CheckStatus(ctx context.Context, userUID string, subscriptionID int) (models.TransactionStatus, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if sub.UserUID != userUID {
		return "", domain.ErrAccessDenied
	}
	if sub.InvoiceToken == nil {
		return "", fmt.Errorf("no payment attempt yet: %w", domain.ErrInvalidState)
	}

	status, err := s.gateway.CheckInvoiceStatus(ctx, *sub.InvoiceToken)
	if err != nil {
		return "", err
	}
	mapped := mapProviderStatus(status.Status)
	if !mapped.Terminal() {
		return models.TransactionPending, nil
	}
	if _, err := s.reconcile(ctx, *sub.InvoiceToken, mapped, status.TransactionID, status.Raw); err != nil {
		return "", err
	}
	return mapped, nil
}

// HandleWebhook reconciles a provider callback. The caller has already
// verified the signature; unknown tokens surface as domain.ErrNotFound.
func (s *PaymentService) HandleWebhook(ctx context.Context, invoiceToken, providerStatus,
	externalTransactionID string, raw []byte) error {
	mapped := mapProviderStatus(providerStatus)
	if !mapped.Terminal() {
		s.log.Info("ignoring non-terminal webhook", slog.String("status", providerStatus))
		return nil
	}
	_, err := s.reconcile(ctx, invoiceToken, mapped, externalTransactionID, raw)
	return err
}

func (s *PaymentService) pendingSubscription(ctx context.Context, userUID string, id int) (*models.UserSubscription, *models.SubscriptionPlan, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sub.UserUID != userUID {
		return nil, nil, domain.ErrAccessDenied
	}
	if sub.Status != models.SubscriptionPending {
		return nil, nil, fmt.Errorf("subscription %d is %s: %w", id, sub.Status, domain.ErrInvalidState)
	}
	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return sub, plan, nil
}

// reconcile applies one terminal verdict. The storage layer guarantees
// at-most-once application; side effects fire only on the first one.
func (s *PaymentService) reconcile(ctx context.Context, invoiceToken string,
	status models.TransactionStatus, externalTransactionID string, raw []byte) (*models.PaymentReconciliation, error) {
	rec, err := s.repo.ConfirmTransaction(ctx, invoiceToken, status, externalTransactionID, raw)
	if err != nil {
		return nil, err
	}
	if !rec.Applied {
		s.log.Info("verdict already applied", slog.Int("subscription_id", rec.SubscriptionID))
		return rec, nil
	}

	metrics.PaymentOutcomes.WithLabelValues(string(status)).Inc()
	s.log.Info("reconciled payment verdict",
		slog.Int("subscription_id", rec.SubscriptionID),
		slog.String("status", string(status)))

	if status == models.TransactionCompleted {
		event := models.EmailEvent{
			Kind:      models.EmailKindActivated,
			Email:     rec.Email,
			FirstName: rec.FirstName,
			PlanName:  rec.PlanName,
			EndDate:   rec.EndDate.Format("02/01/2006"),
		}
		if err := s.publisher.Publish("subscription", event); err != nil {
			s.log.Error("failed to publish activation email", sl.Err(err))
		}
		if _, err := s.repo.CreateNotification(ctx, models.Notification{
			UserUID: rec.UserUID,
			Kind:    "subscription",
			Title:   "Abonnement activé",
			Content: fmt.Sprintf("Votre abonnement %s est actif jusqu'au %s.", rec.PlanName, rec.EndDate.Format("02/01/2006")),
		}); err != nil {
			s.log.Error("failed to create activation notification", sl.Err(err))
		}
	} else {
		if _, err := s.repo.CreateNotification(ctx, models.Notification{
			UserUID: rec.UserUID,
			Kind:    "payment",
			Title:   "Paiement non abouti",
			Content: "Votre paiement n'a pas abouti. Vous pouvez réessayer.",
		}); err != nil {
			s.log.Error("failed to create failure notification", sl.Err(err))
		}
	}
	return rec, nil
}

func mapProviderStatus(status string) models.TransactionStatus {
	switch status {
	case "completed":
		return models.TransactionCompleted
	case "cancelled", "canceled":
		return models.TransactionCancelled
	case "failed":
		return models.TransactionFailed
	default:
		return models.TransactionPending
	}
}

// IsGatewayFailure reports whether err originated at the provider.
func IsGatewayFailure(err error) bool {
	var ge *paymentgateway.GatewayError
	return errors.As(err, &ge)
}
