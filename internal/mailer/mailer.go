package mailer

import (
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use by request handlers.
type Mailer interface {
	Send(to, subject, htmlBody string) error
	SendVerificationEmail(to, name, token string) error
}

// SMTPMailer delivers mail through a plain SMTP relay (e.g. a Gmail
// app-password account in development).
type SMTPMailer struct {
	host          string
	port          string
	username      string
	password      string
	from          string
	fromName      string
	verifyBaseURL string
}

func NewSMTPMailer(host, port, username, password, from, fromName, verifyBaseURL string) *SMTPMailer {
	return &SMTPMailer{
		host:          host,
		port:          port,
		username:      username,
		password:      password,
		from:          from,
		fromName:      fromName,
		verifyBaseURL: verifyBaseURL,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	fromHeader := fmt.Sprintf("%s <%s>", m.fromName, m.from)

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}

// SendVerificationEmail renders the account-confirmation mail with the
// single-use token link and delivers it.
func (m *SMTPMailer) SendVerificationEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.verifyBaseURL, url.QueryEscape(token))

	htmlBody, err := renderVerificationTemplate(name, link)
	if err != nil {
		return err
	}

	return m.Send(to, "Welcome to iScholar! Confirm your email", htmlBody)
}
