// Package mail delivers the transactional emails of the authentication flow:
// verification codes and company invitations.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDelivery wraps every failure to hand a message to the provider.
var ErrDelivery = errors.New("email delivery failed")

// Address is a named mailbox.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is one HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Modes accepted by New.
const (
	ModeDevelopment = "development"
	ModeAPI         = "api"
	ModeSMTP        = "smtp"
)

// Config selects and configures a Sender.
type Config struct {
	Mode string
	From Address

	APIURL string
	APIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	Timeout time.Duration
}

// New builds the Sender for cfg.Mode.
func New(cfg Config, logger *slog.Logger) (Sender, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	switch cfg.Mode {
	case ModeDevelopment, "":
		return NewConsoleSender(logger), nil
	case ModeAPI:
		if cfg.APIURL == "" || cfg.APIKey == "" {
			return nil, errors.New("api email mode requires SMTP_API_URL and SMTP_API_KEY")
		}
		return NewAPISender(cfg.APIURL, cfg.APIKey, cfg.From, cfg.Timeout), nil
	case ModeSMTP:
		if cfg.SMTPHost == "" {
			return nil, errors.New("smtp email mode requires SMTP_HOST")
		}
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			Timeout:  cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown email mode %q", cfg.Mode)
	}
}

// ConsoleSender logs messages instead of sending them.
type ConsoleSender struct {
	logger *slog.Logger
}

// NewConsoleSender creates a ConsoleSender.
func NewConsoleSender(logger *slog.Logger) *ConsoleSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email printed to console",
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}
