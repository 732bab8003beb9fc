// Package email sends mail to the configured destination address.
// Delivery goes through plain SMTP; the destination is fixed by
// configuration so the model cannot pick arbitrary recipients.
package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/config"
)

// SendFunc delivers a composed message. Swappable for tests.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender composes and sends email.
type Sender struct {
	creds config.Credentials
	send  SendFunc
}

// NewSender creates an email tool using the given credentials.
func NewSender(creds config.Credentials) *Sender {
	return &Sender{creds: creds, send: smtp.SendMail}
}

// NewSenderWithTransport creates an email tool with a custom delivery
// function.
func NewSenderWithTransport(creds config.Credentials, send SendFunc) *Sender {
	return &Sender{creds: creds, send: send}
}

func (s *Sender) Name() models.ToolName { return models.ToolSendEmail }

func (s *Sender) Description() string {
	return "Send an email with the given subject and body to the configured recipient."
}

func (s *Sender) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"subject": {
				Type:        "string",
				Description: "The email subject line.",
			},
			"body": {
				Type:        "string",
				Description: "The plain-text email body.",
			},
		},
		Required: []string{"subject", "body"},
	}
}

// Perform sends one message.
func (s *Sender) Perform(ctx context.Context, args map[string]any) (string, error) {
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	if strings.TrimSpace(subject) == "" {
		return "", &SendError{Reason: "subject is required"}
	}
	if strings.TrimSpace(body) == "" {
		return "", &SendError{Reason: "body is required"}
	}

	if s.creds.SenderEmail == "" {
		return "", &SendError{Reason: "SENDER_EMAIL is not configured"}
	}
	if s.creds.DestinationEmail == "" {
		return "", &SendError{Reason: "DESTINATION_EMAIL is not configured"}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	addr := s.creds.SMTPServer
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "25")
	}

	var auth smtp.Auth
	if s.creds.SMTPUsername != "" {
		host, _, _ := net.SplitHostPort(addr)
		auth = smtp.PlainAuth("", s.creds.SMTPUsername, s.creds.SMTPPassword, host)
	}

	msg := buildMessage(s.creds.SenderEmail, s.creds.DestinationEmail, subject, body)
	if err := s.send(addr, auth, s.creds.SenderEmail, []string{s.creds.DestinationEmail}, msg); err != nil {
		return "", &SendError{Reason: "delivery failed", Err: err}
	}

	return fmt.Sprintf("email sent to %s", s.creds.DestinationEmail), nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// sanitizeHeader strips CR and LF so tool input cannot inject headers.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
