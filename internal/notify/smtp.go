package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/addynamo/surge-alerts/internal/logger"
)

// SMTPConfig holds the SMTP relay settings for outbound alert email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers alerts as HTML email through an SMTP relay. The
// recipient list varies per alert, so the shoutrrr service URL is built
// per send.
type SMTPMailer struct {
	cfg SMTPConfig
	log logger.Logger
}

// NewSMTPMailer creates an SMTP-backed Mailer.
func NewSMTPMailer(cfg SMTPConfig, log logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

// Send delivers one message to recipients. A transport rejection is
// returned as an error, never raised further.
func (m *SMTPMailer) Send(_ context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return errors.New("no recipients configured")
	}

	sender, err := shoutrrr.CreateSender(m.serviceURL(recipients))
	if err != nil {
		return fmt.Errorf("create smtp sender: %w", err)
	}

	params := types.Params{"subject": subject}
	if errs := sender.Send(body, &params); len(errs) > 0 {
		joined := errors.Join(errs...)
		if joined != nil {
			return fmt.Errorf("send alert email: %w", joined)
		}
	}

	m.log.Info("alert email sent",
		logger.Int("recipients", len(recipients)))
	return nil
}

// serviceURL builds the shoutrrr smtp URL carrying this send's recipients.
func (m *SMTPMailer) serviceURL(recipients []string) string {
	query := url.Values{}
	query.Set("from", m.cfg.From)
	query.Set("to", strings.Join(recipients, ","))
	query.Set("usehtml", "Yes")

	var userInfo string
	if m.cfg.Username != "" {
		userInfo = url.QueryEscape(m.cfg.Username) + ":" + url.QueryEscape(m.cfg.Password) + "@"
	}
	return fmt.Sprintf("smtp://%s%s:%d/?%s", userInfo, m.cfg.Host, m.cfg.Port, query.Encode())
}

var _ Mailer = (*SMTPMailer)(nil)
