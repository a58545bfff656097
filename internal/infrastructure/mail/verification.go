package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/reelbase/reelbase-api/internal/api/metrics"
	"github.com/reelbase/reelbase-api/internal/core/domain"
)

const verificationSubject = "Verify your email address"

// VerificationMailer composes the verification link and sends it through a Mailer.
type VerificationMailer struct {
	mailer    Mailer
	from      string
	clientURL string
}

// NewVerificationMailer builds links of the form <clientURL>/verify-email/<token>.
func NewVerificationMailer(mailer Mailer, from, clientURL string) *VerificationMailer {
	return &VerificationMailer{
		mailer:    mailer,
		from:      from,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

// SendVerification mails the link for token to address.
func (v *VerificationMailer) SendVerification(ctx context.Context, user *domain.User, token, address string) error {
	if address == "" {
		address = user.VerificationTarget()
	}

	err := v.mailer.Send(ctx, Message{
		From:    v.from,
		To:      address,
		Subject: verificationSubject,
		Body:    v.body(user.Username, v.link(token)),
	})
	if err != nil {
		metrics.VerificationMailsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("send verification to %s: %w", address, err)
	}
	metrics.VerificationMailsTotal.WithLabelValues("sent").Inc()
	return nil
}

func (v *VerificationMailer) link(token string) string {
	return v.clientURL + "/verify-email/" + url.PathEscape(token)
}

func (v *VerificationMailer) body(username, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", username)
	b.WriteString("Please confirm your email address by opening the link below:\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("The link expires in 24 hours. If you did not request this, you can ignore this email.\r\n")
	return b.String()
}
