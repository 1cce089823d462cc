// Package mailer delivers transactional email for the invitation flow.
package mailer

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Notifier sends an invitation email. The bool result only feeds logging;
// a failed send never rolls back the invitation that triggered it.
type Notifier interface {
	SendInvitation(to, groupName, inviteURL string) bool
}

// SMTPNotifier sends through a plain SMTP relay.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(host string, port int, user, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (n *SMTPNotifier) SendInvitation(to, groupName, inviteURL string) bool {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("You're invited to join %s", groupName))
	m.SetBody("text/html", fmt.Sprintf(
		`<p>You have been invited to join the group <b>%s</b>.</p>
<p><a href="%s">Accept your invitation</a></p>
<p>This invitation expires, so don't wait too long.</p>`,
		groupName, inviteURL))

	if err := n.dialer.DialAndSend(m); err != nil {
		slog.Warn("invitation email failed", "to", to, "error", err)
		return false
	}
	return true
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) SendInvitation(to, groupName, inviteURL string) bool {
	slog.Info("mail disabled, skipping invitation email", "to", to)
	return false
}
