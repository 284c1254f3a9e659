// Package sender consumes email events from the queue and delivers
// them over SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kdiomande/pronostic-platform/internal/lib/sl"
	"github.com/kdiomande/pronostic-platform/internal/lib/smtp"
	"github.com/kdiomande/pronostic-platform/internal/models"
)

// Transport opens SMTP sessions.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// SenderService turns queued email events into delivered mail.
type SenderService struct {
	transport       Transport
	frontendBaseURL string
	log             *slog.Logger
}

// New creates a SenderService. frontendBaseURL is used to build the
// verification link inside emails.
func New(transport Transport, frontendBaseURL string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport:       transport,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		log:             log,
	}
}

// HandleEmailEvent dispatches one queued event by kind.
func (s *SenderService) HandleEmailEvent(body []byte) error {
	var event models.EmailEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal email event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	switch event.Kind {
	case models.EmailKindVerification:
		link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendBaseURL, event.Token)
		subject := "Confirmez votre adresse email"
		bodyText := fmt.Sprintf("Bonjour %s,\n\nBienvenue ! Confirmez votre adresse en suivant ce lien :\n%s\n\nLe lien n'est utilisable qu'une seule fois.",
			event.FirstName, link)
		return s.sendEmail([]string{event.Email}, subject, bodyText)
	case models.EmailKindActivated:
		subject := "Votre abonnement est actif"
		bodyText := fmt.Sprintf("Bonjour %s,\n\nVotre abonnement %s est actif jusqu'au %s.\n\nBonne chance !",
			event.FirstName, event.PlanName, event.EndDate)
		return s.sendEmail([]string{event.Email}, subject, bodyText)
	case models.EmailKindExpired:
		subject := "Votre abonnement a expiré"
		bodyText := fmt.Sprintf("Bonjour %s,\n\nVotre abonnement a expiré le %s. Renouvelez-le pour continuer à recevoir les coupons du jour.",
			event.FirstName, event.EndDate)
		return s.sendEmail([]string{event.Email}, subject, bodyText)
	default:
		s.log.Warn("unknown email event kind", slog.String("kind", event.Kind))
		return nil
	}
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
