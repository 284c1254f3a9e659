package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kdiomande/pronostic-platform/internal/domain"
	"github.com/kdiomande/pronostic-platform/internal/models"
	"github.com/kdiomande/pronostic-platform/internal/paymentgateway"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSubscription), args.Error(1)
}

func (m *MockRepository) GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) SetInvoiceToken(ctx context.Context, id int, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockRepository) CreateTransaction(ctx context.Context, tr models.Transaction) (int, error) {
	args := m.Called(ctx, tr)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetTransactionByInvoiceToken(ctx context.Context, token string) (*models.Transaction, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockRepository) ConfirmTransaction(ctx context.Context, invoiceToken string, status models.TransactionStatus,
	externalTransactionID string, providerDetail []byte) (*models.PaymentReconciliation, error) {
	args := m.Called(ctx, invoiceToken, status, externalTransactionID, providerDetail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentReconciliation), args.Error(1)
}

func (m *MockRepository) CreateNotification(ctx context.Context, n models.Notification) (int, error) {
	args := m.Called(ctx, n)
	return args.Int(0), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateInvoice(ctx context.Context, req paymentgateway.CreateInvoiceRequest) (*paymentgateway.CreateInvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CreateInvoiceResponse), args.Error(1)
}

func (m *MockGateway) CheckInvoiceStatus(ctx context.Context, invoiceToken string) (*paymentgateway.InvoiceStatus, error) {
	args := m.Called(ctx, invoiceToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.InvoiceStatus), args.Error(1)
}

func (m *MockGateway) ConfirmPayment(ctx context.Context, endpoint string, payload map[string]any) (json.RawMessage, error) {
	args := m.Called(ctx, endpoint, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockGateway) CheckoutURL(invoiceToken string) string {
	args := m.Called(invoiceToken)
	return args.String(0)
}

type MockCardGateway struct {
	mock.Mock
}

func (m *MockCardGateway) CreateCustomer(ctx context.Context, firstName, lastName, email string) (*paymentgateway.FedaPayCustomer, error) {
	args := m.Called(ctx, firstName, lastName, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.FedaPayCustomer), args.Error(1)
}

func (m *MockCardGateway) CreateTransaction(ctx context.Context, description string, amount int, currencyISO string,
	customerID int, callbackURL string) (*paymentgateway.FedaPayTransaction, error) {
	args := m.Called(ctx, description, amount, currencyISO, customerID, callbackURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.FedaPayTransaction), args.Error(1)
}

func (m *MockCardGateway) GeneratePaymentLink(ctx context.Context, transactionID int) (string, string, error) {
	args := m.Called(ctx, transactionID)
	return args.String(0), args.String(1), args.Error(2)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, event models.EmailEvent) error {
	args := m.Called(routingKey, event)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *MockRepository, gw *MockGateway, cards *MockCardGateway, pub *MockPublisher) *PaymentService {
	return New(repo, gw, cards, pub, "https://api.example.com/api/v1/payments/webhook", newNoopLogger())
}

func TestPaymentService_Initiate(t *testing.T) {
	pendingSub := &models.UserSubscription{
		ID:        5,
		UserUID:   "uid-1",
		PlanID:    2,
		Status:    models.SubscriptionPending,
		Reference: "SUB-REF-5",
	}
	plan := &models.SubscriptionPlan{
		ID: 2, Name: "Premium", Tier: models.TierPremium,
		PriceXOF: 5000, DurationDays: 30, IsActive: true,
	}

	tests := []struct {
		name          string
		userUID       string
		setupMocks    func(*MockRepository, *MockGateway)
		wantToken     string
		expectedError error
	}{
		{
			name:    "success",
			userUID: "uid-1",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetSubscription", mock.Anything, 5).Return(pendingSub, nil).Once()
				r.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.Anything).
					Return(&paymentgateway.CreateInvoiceResponse{ResponseCode: "00", Token: "inv-abc"}, nil).Once()
				r.On("SetInvoiceToken", mock.Anything, 5, "inv-abc").Return(nil).Once()
				r.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tr models.Transaction) bool {
					return tr.InvoiceToken == "inv-abc" && tr.Status == models.TransactionPending && tr.AmountXOF == 5000
				})).Return(1, nil).Once()
				g.On("CheckoutURL", "inv-abc").Return("https://paydunya.com/checkout/invoice/inv-abc").Once()
			},
			wantToken: "inv-abc",
		},
		{
			name:    "not the owner",
			userUID: "uid-2",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetSubscription", mock.Anything, 5).Return(pendingSub, nil).Once()
			},
			expectedError: domain.ErrAccessDenied,
		},
		{
			name:    "subscription already active",
			userUID: "uid-1",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				active := *pendingSub
				active.Status = models.SubscriptionActive
				r.On("GetSubscription", mock.Anything, 5).Return(&active, nil).Once()
			},
			expectedError: domain.ErrInvalidState,
		},
		{
			name:    "invoice refused by provider",
			userUID: "uid-1",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetSubscription", mock.Anything, 5).Return(pendingSub, nil).Once()
				r.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
				g.On("CreateInvoice", mock.Anything, mock.Anything).
					Return(&paymentgateway.CreateInvoiceResponse{ResponseCode: "1001", ResponseText: "invalid store"}, nil).Once()
			},
			expectedError: errors.New("invoice refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := newService(repo, gw, new(MockCardGateway), new(MockPublisher))

			tt.setupMocks(repo, gw)

			got, err := service.Initiate(context.Background(), tt.userUID, 5,
				models.DummyInitiatePayment{PaymentMethod: "orange_money_senegal", PaymentPhone: "771234567"})

			if tt.expectedError != nil {
				assert.Error(t, err)
				if !errors.Is(tt.expectedError, domain.ErrAccessDenied) &&
					!errors.Is(tt.expectedError, domain.ErrInvalidState) {
					assert.Contains(t, err.Error(), tt.expectedError.Error())
				} else {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantToken, got.InvoiceToken)
				assert.Equal(t, "SUB-REF-5", got.Reference)
				assert.NotEmpty(t, got.CheckoutURL)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	endDate := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	applied := &models.PaymentReconciliation{
		Applied:        true,
		SubscriptionID: 5,
		UserUID:        "uid-1",
		Email:          "fatou@example.com",
		FirstName:      "Fatou",
		PlanName:       "Premium",
		EndDate:        endDate,
	}
	replayed := &models.PaymentReconciliation{Applied: false, SubscriptionID: 5}

	raw := []byte(`{"invoice":{"token":"inv-abc","status":"completed"}}`)

	tests := []struct {
		name           string
		providerStatus string
		setupMocks     func(*MockRepository, *MockPublisher)
		expectedError  error
	}{
		{
			name:           "completed verdict activates and notifies",
			providerStatus: "completed",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("ConfirmTransaction", mock.Anything, "inv-abc", models.TransactionCompleted, "tx-9", raw).
					Return(applied, nil).Once()
				p.On("Publish", "subscription", mock.MatchedBy(func(e models.EmailEvent) bool {
					return e.Kind == models.EmailKindActivated && e.Email == "fatou@example.com" && e.EndDate == "30/09/2026"
				})).Return(nil).Once()
				r.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
					return n.UserUID == "uid-1" && n.Title == "Abonnement activé"
				})).Return(1, nil).Once()
			},
		},
		{
			name:           "duplicate delivery applies nothing",
			providerStatus: "completed",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("ConfirmTransaction", mock.Anything, "inv-abc", models.TransactionCompleted, "tx-9", raw).
					Return(replayed, nil).Once()
			},
		},
		{
			name:           "failed verdict creates a failure notification",
			providerStatus: "failed",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				failedRec := *applied
				r.On("ConfirmTransaction", mock.Anything, "inv-abc", models.TransactionFailed, "tx-9", raw).
					Return(&failedRec, nil).Once()
				r.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
					return n.Title == "Paiement non abouti"
				})).Return(2, nil).Once()
			},
		},
		{
			name:           "non-terminal status is ignored",
			providerStatus: "pending",
			setupMocks:     func(r *MockRepository, p *MockPublisher) {},
		},
		{
			name:           "unknown invoice token surfaces not found",
			providerStatus: "completed",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("ConfirmTransaction", mock.Anything, "inv-abc", models.TransactionCompleted, "tx-9", raw).
					Return(nil, domain.ErrNotFound).Once()
			},
			expectedError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			pub := new(MockPublisher)
			service := newService(repo, new(MockGateway), new(MockCardGateway), pub)

			tt.setupMocks(repo, pub)

			err := service.HandleWebhook(context.Background(), "inv-abc", tt.providerStatus, "tx-9", raw)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestPaymentService_CheckStatus(t *testing.T) {
	token := "inv-abc"
	sub := &models.UserSubscription{
		ID: 5, UserUID: "uid-1", Status: models.SubscriptionPending, InvoiceToken: &token,
	}

	tests := []struct {
		name          string
		userUID       string
		sub           *models.UserSubscription
		setupMocks    func(*MockRepository, *MockGateway)
		wantStatus    models.TransactionStatus
		expectedError error
	}{
		{
			name:    "pending poll does not reconcile",
			userUID: "uid-1",
			sub:     sub,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				g.On("CheckInvoiceStatus", mock.Anything, token).
					Return(&paymentgateway.InvoiceStatus{Status: "pending"}, nil).Once()
			},
			wantStatus: models.TransactionPending,
		},
		{
			name:    "completed poll reconciles",
			userUID: "uid-1",
			sub:     sub,
			setupMocks: func(r *MockRepository, g *MockGateway) {
				g.On("CheckInvoiceStatus", mock.Anything, token).
					Return(&paymentgateway.InvoiceStatus{Status: "completed", TransactionID: "tx-9"}, nil).Once()
				r.On("ConfirmTransaction", mock.Anything, token, models.TransactionCompleted, "tx-9", mock.Anything).
					Return(&models.PaymentReconciliation{Applied: false}, nil).Once()
			},
			wantStatus: models.TransactionCompleted,
		},
		{
			name:          "not the owner",
			userUID:       "uid-2",
			sub:           sub,
			setupMocks:    func(r *MockRepository, g *MockGateway) {},
			expectedError: domain.ErrAccessDenied,
		},
		{
			name:          "no payment attempt yet",
			userUID:       "uid-1",
			sub:           &models.UserSubscription{ID: 5, UserUID: "uid-1", Status: models.SubscriptionPending},
			setupMocks:    func(r *MockRepository, g *MockGateway) {},
			expectedError: domain.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := newService(repo, gw, new(MockCardGateway), new(MockPublisher))

			repo.On("GetSubscription", mock.Anything, 5).Return(tt.sub, nil).Once()
			tt.setupMocks(repo, gw)

			got, err := service.CheckStatus(context.Background(), tt.userUID, 5)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestPaymentService_ConfirmOperator(t *testing.T) {
	confirmReq := paymentgateway.ConfirmPaymentRequest{
		CustomerName:  "Fatou Ndiaye",
		CustomerEmail: "fatou@example.com",
		PhoneNumber:   "771234567",
		PaymentToken:  "inv-abc",
	}

	pendingTr := &models.Transaction{
		ID: 1, SubscriptionID: 5, UserUID: "uid-1",
		InvoiceToken: "inv-abc", Status: models.TransactionPending,
	}

	tests := []struct {
		name          string
		country       string
		method        string
		setupMocks    func(*MockRepository, *MockGateway)
		wantStatus    models.TransactionStatus
		expectedError error
	}{
		{
			name:    "softpay success with completed poll",
			country: "senegal",
			method:  "wave",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetTransactionByInvoiceToken", mock.Anything, "inv-abc").Return(pendingTr, nil).Once()
				g.On("ConfirmPayment", mock.Anything, mock.Anything, mock.Anything).
					Return(json.RawMessage(`{"success":true,"message":"ok"}`), nil).Once()
				g.On("CheckInvoiceStatus", mock.Anything, "inv-abc").
					Return(&paymentgateway.InvoiceStatus{Status: "completed", TransactionID: "tx-9"}, nil).Once()
				r.On("ConfirmTransaction", mock.Anything, "inv-abc", models.TransactionCompleted, "tx-9", mock.Anything).
					Return(&models.PaymentReconciliation{Applied: false}, nil).Once()
			},
			wantStatus: models.TransactionCompleted,
		},
		{
			name:    "softpay refusal fails the ledger entry",
			country: "senegal",
			method:  "wave",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetTransactionByInvoiceToken", mock.Anything, "inv-abc").Return(pendingTr, nil).Once()
				g.On("ConfirmPayment", mock.Anything, mock.Anything, mock.Anything).
					Return(json.RawMessage(`{"success":false,"message":"refused"}`), nil).Once()
				r.On("ConfirmTransaction", mock.Anything, "inv-abc", models.TransactionFailed, "", mock.Anything).
					Return(&models.PaymentReconciliation{Applied: false}, nil).Once()
			},
			wantStatus: models.TransactionFailed,
		},
		{
			name:    "terminal ledger entry short-circuits",
			country: "senegal",
			method:  "wave",
			setupMocks: func(r *MockRepository, g *MockGateway) {
				done := *pendingTr
				done.Status = models.TransactionCompleted
				r.On("GetTransactionByInvoiceToken", mock.Anything, "inv-abc").Return(&done, nil).Once()
			},
			wantStatus: models.TransactionCompleted,
		},
		{
			name:          "unknown operator",
			country:       "senegal",
			method:        "unknown-operator",
			setupMocks:    func(r *MockRepository, g *MockGateway) {},
			expectedError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := newService(repo, gw, new(MockCardGateway), new(MockPublisher))

			tt.setupMocks(repo, gw)

			got, err := service.ConfirmOperator(context.Background(), "uid-1", tt.country, tt.method, confirmReq)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestMapProviderStatus(t *testing.T) {
	assert.Equal(t, models.TransactionCompleted, mapProviderStatus("completed"))
	assert.Equal(t, models.TransactionCancelled, mapProviderStatus("cancelled"))
	assert.Equal(t, models.TransactionCancelled, mapProviderStatus("canceled"))
	assert.Equal(t, models.TransactionFailed, mapProviderStatus("failed"))
	assert.Equal(t, models.TransactionPending, mapProviderStatus("pending"))
	assert.Equal(t, models.TransactionPending, mapProviderStatus("anything-else"))
}
