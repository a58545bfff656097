// Package mail delivers outbound email. The SMTP mailer speaks plain SMTP with
// optional implicit TLS or STARTTLS; the log mailer only records messages and
// is meant for local development.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrSMTPDisabled is returned by an SMTP mailer that has no server configured.
var ErrSMTPDisabled = errors.New("smtp: delivery disabled")

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer sends a single message. There are no retries.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSettings configure the SMTP mailer.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

type smtpClient interface {
	Mail(string) error
	Rcpt(string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
	Auth(smtp.Auth) error
}

type dialFunc func(ctx context.Context, cfg SMTPSettings) (smtpClient, error)

type smtpMailer struct {
	cfg  SMTPSettings
	dial dialFunc
}

// NewSMTPMailer validates cfg and returns a mailer. A disabled configuration
// is valid; every Send then fails with ErrSMTPDisabled.
func NewSMTPMailer(cfg SMTPSettings) (Mailer, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, errors.New("smtp: host is required when enabled")
		}
		if cfg.Port == 0 {
			return nil, errors.New("smtp: port is required when enabled")
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &smtpMailer{cfg: cfg, dial: dialSMTP}, nil
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled {
		return ErrSMTPDisabled
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = m.cfg.From
	}
	if _, err := netmail.ParseAddress(from); err != nil {
		return fmt.Errorf("smtp: invalid from address: %w", err)
	}
	to := strings.TrimSpace(msg.To)
	if _, err := netmail.ParseAddress(to); err != nil {
		return fmt.Errorf("smtp: invalid recipient %q: %w", to, err)
	}

	client, err := m.dial(ctx, m.cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if m.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp: rcpt to %s: %w", to, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := io.WriteString(wc, formatMessage(from, to, msg.Subject, msg.Body)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp: close data: %w", err)
	}
	return client.Quit()
}

func dialSMTP(ctx context.Context, cfg SMTPSettings) (smtpClient, error) {
	address := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if cfg.UseTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: cfg.Host}}).DialContext(ctx, "tcp", address)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", address, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp: new client: %w", err)
	}
	if !cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}
	return client, nil
}

func formatMessage(from, to, subject, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + escapeHeader(subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		"",
	}
	return strings.Join(headers, "\r\n") + body
}

func escapeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail not sent (log driver)")
	return nil
}
