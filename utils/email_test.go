package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-buildmart/models"
)

type captureMailer struct {
	to, subject, html, text string
	calls                   int
}

func (m *captureMailer) Send(_ context.Context, to, subject, htmlBody, text string) error {
	m.to, m.subject, m.html, m.text = to, subject, htmlBody, text
	m.calls++
	return nil
}

func TestOrderConfirmationEmail(t *testing.T) {
	m := &captureMailer{}
	es := NewEmailServiceWith(m, "")
	o := &models.Order{
		OrderNumber:       "ORD-000007",
		Items:             []models.OrderItem{{Name: "<b>Cement</b>", Quantity: 5, Unit: "bag", PriceAtPurchase: 320, LineTotal: 1600}},
		DeliveryCharge:    60,
		TotalAmount:       1660,
		PaymentMethod:     models.PaymentCOD,
		EstimatedDelivery: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, es.SendOrderConfirmationEmail(context.Background(), "c@example.com", o))
	assert.Equal(t, "Order Confirmation - ORD-000007", m.subject)
	assert.Contains(t, m.html, "&lt;b&gt;Cement&lt;/b&gt;")
	assert.Contains(t, m.html, "1660.00")
	assert.NotContains(t, m.text, "<strong>")
}

func TestForwardContactNeedsInbox(t *testing.T) {
	m := &captureMailer{}
	c := &models.Contact{Name: "A", Email: "a@example.com", Subject: "Bulk order", Message: "hi"}

	require.NoError(t, NewEmailServiceWith(m, "").ForwardContact(context.Background(), c))
	assert.Zero(t, m.calls)

	require.NoError(t, NewEmailServiceWith(m, "shop@example.com").ForwardContact(context.Background(), c))
	assert.Equal(t, "shop@example.com", m.to)
	assert.Equal(t, "Contact form: Bulk order", m.subject)
}

func TestNewEmailServiceDrivers(t *testing.T) {
	_, err := NewEmailService("postmark", "", "from@example.com", "")
	assert.Error(t, err)
	_, err = NewEmailService("pigeon", "x", "from@example.com", "")
	assert.Error(t, err)
	es, err := NewEmailService("log", "", "from@example.com", "")
	require.NoError(t, err)
	assert.NotNil(t, es)
}
