package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/dmanzer2/lead-gen/internal/leads"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SES, stub) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // Plain text body
	HTML    string // Optional HTML body

	// ReplyTo routes replies somewhere other than the from address. Admin
	// alerts reply straight to the lead.
	ReplyTo     string
	ReplyToName string

	// Kind and LeadID tag the message at the provider so bounces and opens
	// can be traced back to a stored lead.
	Kind   string
	LeadID int64
}

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "Smart Home Leads"

const (
	confirmationSubject = "We received your smart home project request"
	providerCategory    = "lead-notification"
)

// NewLeadEmail addresses one notification about lead. The confirmation goes
// to the submitter; the admin alert goes to adminEmail with replies routed to
// the submitter. Bodies are filled in by the caller.
func NewLeadEmail(kind string, lead *leads.Lead, adminEmail string) EmailMessage {
	msg := EmailMessage{Kind: kind, LeadID: lead.ID}
	switch kind {
	case KindAdminAlert:
		msg.To = adminEmail
		msg.Subject = fmt.Sprintf("New lead: %s (%s)", lead.FullName(), lead.ContactType)
		msg.ReplyTo = lead.Email
		msg.ReplyToName = lead.FullName()
	default:
		msg.To = lead.Email
		msg.ToName = lead.FullName()
		msg.Subject = confirmationSubject
	}
	return msg
}

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    sendgridAPI
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender. It returns nil when
// no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail(msg.ReplyToName, msg.ReplyTo))
	}
	if msg.Kind != "" {
		message.AddCategories(providerCategory, msg.Kind)
	}
	if msg.LeadID > 0 {
		message.SetCustomArg("lead_id", strconv.FormatInt(msg.LeadID, 10))
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", logging.MaskEmail(msg.To), "kind", msg.Kind, "lead_id", msg.LeadID)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", logging.ScrubPII(response.Body), "to", logging.MaskEmail(msg.To))
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", logging.MaskEmail(msg.To), "kind", msg.Kind, "lead_id", msg.LeadID, "status", response.StatusCode)
	return nil
}

// StubEmailSender is a no-op sender for local runs or when email is disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", logging.MaskEmail(msg.To), "kind", msg.Kind, "lead_id", msg.LeadID, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
