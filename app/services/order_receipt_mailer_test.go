package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/mail"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "12.05 EUR", formatMoney(1205, "eur"))
	assert.Equal(t, "0.99 USD", formatMoney(99, "usd"))
	assert.Equal(t, "-3.00 EUR", formatMoney(-300, "eur"))
}

func TestOrderReceiptMailer_Send(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)

	var to []string
	var raw string
	mail.UseTransport(gomail.SendFunc(func(_ string, rcpt []string, msg io.WriterTo) error {
		var buf bytes.Buffer
		_, err := msg.WriteTo(&buf)
		to, raw = rcpt, buf.String()
		return err
	}))
	t.Cleanup(func() { mail.UseTransport(nil) })
	config.Set("MAIL_HOST", "smtp.test")
	t.Cleanup(func() { config.Set("MAIL_HOST", "") })

	order := &models.Order{
		Reference: "ORD-20260301120000-0A1B2C3D",
		UserID:    user.ID,
		Total:     2500,
		Details: []models.OrderDetail{
			{ProductName: "Tee", SelectedSize: "M", Quantity: 2, UnitPrice: 1000},
			{ProductName: "Mug", Quantity: 1, UnitPrice: 500},
		},
	}

	m := &OrderReceiptMailer{users: repo.Users, currency: "eur"}
	err := m.Send(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, []string{user.Email}, to)
	assert.Contains(t, raw, "Subject: Order ORD-20260301120000-0A1B2C3D confirmed")
	assert.Contains(t, raw, "2x Tee (M)  20.00 EUR")
	assert.Contains(t, raw, "1x Mug  5.00 EUR")
	assert.Contains(t, raw, "Total: 25.00 EUR")
}

func TestOrderReceiptMailer_UnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	m := &OrderReceiptMailer{users: repo.Users, currency: "eur"}
	err := m.Send(context.Background(), &models.Order{UserID: 999})
	assert.ErrorContains(t, err, "not found")
}
