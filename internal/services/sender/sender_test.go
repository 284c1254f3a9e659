package sender

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kdiomande/pronostic-platform/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func expectFullDelivery(transport *MockTransport, rcpt string, bodyMatch func([]byte) bool) {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	transport.On("GetSMTPUser").Return("noreply@pronostic.example")
	transport.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "noreply@pronostic.example").Return(nil).Once()
	mockClient.On("Rcpt", rcpt).Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.MatchedBy(bodyMatch)).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
}

func TestSenderService_HandleEmailEvent(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "verification email carries the single-use link",
			body: []byte(`{"kind":"verification","email":"ada@example.com","first_name":"Ada","token":"tok-1"}`),
			setupMocks: func(transport *MockTransport) {
				expectFullDelivery(transport, "ada@example.com", func(msg []byte) bool {
					return containsAll(string(msg),
						"Confirmez votre adresse email",
						"https://front.example/verify-email?token=tok-1")
				})
			},
		},
		{
			name: "subscription activated email names the plan",
			body: []byte(`{"kind":"subscription_activated","email":"ada@example.com","first_name":"Ada","plan_name":"Premium","end_date":"30/09/2026"}`),
			setupMocks: func(transport *MockTransport) {
				expectFullDelivery(transport, "ada@example.com", func(msg []byte) bool {
					return containsAll(string(msg), "Votre abonnement est actif", "Premium", "30/09/2026")
				})
			},
		},
		{
			name: "expired subscription email",
			body: []byte(`{"kind":"subscription_expired","email":"ada@example.com","first_name":"Ada","end_date":"31/08/2026"}`),
			setupMocks: func(transport *MockTransport) {
				expectFullDelivery(transport, "ada@example.com", func(msg []byte) bool {
					return containsAll(string(msg), "Votre abonnement a expiré", "31/08/2026")
				})
			},
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport) {
				// No transport calls expected for invalid JSON
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "unknown kind is acked without delivery",
			body: []byte(`{"kind":"something_else","email":"ada@example.com"}`),
			setupMocks: func(_ *MockTransport) {
				// Unknown kinds are dropped so the broker does not redeliver
			},
		},
		{
			name: "SMTP connection error",
			body: []byte(`{"kind":"verification","email":"ada@example.com","first_name":"Ada","token":"tok-1"}`),
			setupMocks: func(transport *MockTransport) {
				transport.On("GetSMTPUser").Return("noreply@pronostic.example")
				transport.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := New(transport, "https://front.example/", newNoopLogger())

			tt.setupMocks(transport)

			err := service.HandleEmailEvent(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SMTPErrorHandling(t *testing.T) {
	body := []byte(`{"kind":"verification","email":"ada@example.com","first_name":"Ada","token":"tok-1"}`)

	tests := []struct {
		name         string
		setupMocks   func(*MockTransport)
		errorMessage string
	}{
		{
			name: "SMTP Mail error",
			setupMocks: func(transport *MockTransport) {
				mockClient := new(MockSMTPClient)

				transport.On("GetSMTPUser").Return("noreply@pronostic.example")
				transport.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@pronostic.example").Return(errors.New("mail error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "mail error",
		},
		{
			name: "SMTP Rcpt error",
			setupMocks: func(transport *MockTransport) {
				mockClient := new(MockSMTPClient)

				transport.On("GetSMTPUser").Return("noreply@pronostic.example")
				transport.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@pronostic.example").Return(nil).Once()
				mockClient.On("Rcpt", "ada@example.com").Return(errors.New("rcpt error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "rcpt error",
		},
		{
			name: "SMTP Data error",
			setupMocks: func(transport *MockTransport) {
				mockClient := new(MockSMTPClient)

				transport.On("GetSMTPUser").Return("noreply@pronostic.example")
				transport.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@pronostic.example").Return(nil).Once()
				mockClient.On("Rcpt", "ada@example.com").Return(nil).Once()
				mockClient.On("Data").Return(nil, errors.New("data error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "data error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := New(transport, "https://front.example", newNoopLogger())

			tt.setupMocks(transport)

			err := service.HandleEmailEvent(body)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMessage)

			transport.AssertExpectations(t)
		})
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
