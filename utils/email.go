package utils

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"go-buildmart/logger"
	"go-buildmart/models"
)

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, text string) error
}

// PostmarkMailer sends through the Postmark API.
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(token, from string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(token, ""), from: from}
}

func (m *PostmarkMailer) Send(_ context.Context, to, subject, htmlBody, text string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: text,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	return nil
}

// SendgridMailer sends through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   string
}

func NewSendgridMailer(apiKey, from string) *SendgridMailer {
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey), from: from}
}

func (m *SendgridMailer) Send(ctx context.Context, to, subject, htmlBody, text string) error {
	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail("BuildMart", m.from),
		subject,
		sgmail.NewEmail("", to),
		text,
		htmlBody,
	)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, _, text string) error {
	logger.FromContext(ctx).Info("email", "to", to, "subject", subject, "body", text)
	return nil
}

// EmailService renders and sends the storefront's transactional mail.
type EmailService struct {
	mailer       Mailer
	contactInbox string
}

// NewEmailService picks a mailer by driver name: "postmark", "sendgrid" or
// "log".
func NewEmailService(driver, token, from, contactInbox string) (*EmailService, error) {
	var m Mailer
	switch driver {
	case "postmark":
		if token == "" {
			return nil, fmt.Errorf("POSTMARK_API_TOKEN is not set")
		}
		m = NewPostmarkMailer(token, from)
	case "sendgrid":
		if token == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
		}
		m = NewSendgridMailer(token, from)
	case "log", "":
		m = LogMailer{}
	default:
		return nil, fmt.Errorf("unknown mail driver %q", driver)
	}
	return &EmailService{mailer: m, contactInbox: contactInbox}, nil
}

// NewEmailServiceWith wraps an existing mailer.
func NewEmailServiceWith(m Mailer, contactInbox string) *EmailService {
	return &EmailService{mailer: m, contactInbox: contactInbox}
}

// SendEmail sends a message whose text body is derived from html.
func (es *EmailService) SendEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return es.mailer.Send(ctx, toEmail, subject, htmlContent, stripTags(htmlContent))
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(ctx context.Context, toEmail string, order *models.Order) error {
	var rows strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&rows, "<li>%s × %d %s @ ₹%.2f = ₹%.2f</li>", html.EscapeString(it.Name), it.Quantity, it.Unit, it.PriceAtPurchase, it.LineTotal)
	}
	body := fmt.Sprintf(
		"<strong>Thank you for your order %s.</strong><br><ul>%s</ul>Delivery: ₹%.2f<br>Total: <strong>₹%.2f</strong><br>Payment: %s<br>Expected by <strong>%s</strong>.",
		order.OrderNumber,
		rows.String(),
		order.DeliveryCharge,
		order.TotalAmount,
		order.PaymentMethod,
		order.EstimatedDelivery.Format("02 Jan 2006"),
	)
	return es.SendEmail(ctx, toEmail, "Order Confirmation - "+order.OrderNumber, body)
}

// SendOrderStatusEmail tells the customer about a status change.
func (es *EmailService) SendOrderStatusEmail(ctx context.Context, toEmail string, order *models.Order) error {
	body := fmt.Sprintf("Your order <strong>%s</strong> is now <strong>%s</strong>.", order.OrderNumber, order.Status)
	return es.SendEmail(ctx, toEmail, fmt.Sprintf("Order %s: %s", order.OrderNumber, order.Status), body)
}

// ForwardContact copies a contact-form submission to the shop inbox.
// Without an inbox configured it does nothing.
func (es *EmailService) ForwardContact(ctx context.Context, c *models.Contact) error {
	if es.contactInbox == "" {
		return nil
	}
	body := fmt.Sprintf("<strong>%s</strong> &lt;%s&gt; %s<br><br>%s",
		html.EscapeString(c.Name), html.EscapeString(c.Email), html.EscapeString(c.Phone), html.EscapeString(c.Message))
	return es.SendEmail(ctx, es.contactInbox, "Contact form: "+c.Subject, body)
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
			b.WriteByte(' ')
		case !in:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
