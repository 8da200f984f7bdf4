package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/mail"
)

// OrderReceiptMailer emails the customer when an order is confirmed.
type OrderReceiptMailer struct {
	users    *repositories.UserRepository
	currency string
}

func NewOrderReceiptMailer(users *repositories.UserRepository) *OrderReceiptMailer {
	return &OrderReceiptMailer{users: users, currency: config.StripeCurrency()}
}

// Listen subscribes to order confirmations. Delivery runs off the request
// goroutine and failures are only logged.
func (m *OrderReceiptMailer) Listen() {
	event.Listen(event.OrderConfirmed, func(payload interface{}) {
		order, ok := payload.(*models.Order)
		if !ok {
			return
		}
		snapshot := *order
		go func() {
			if err := m.Send(context.Background(), &snapshot); err != nil {
				logger.Warn("receipt: not sent", "order_id", snapshot.ID, "error", err)
			}
		}()
	})
}

// Send mails the receipt for order to its owner.
func (m *OrderReceiptMailer) Send(ctx context.Context, order *models.Order) error {
	user, err := m.users.FindByID(ctx, order.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("receipt: user %d not found", order.UserID)
	}

	if err := mail.To(user.Email).
		Subject(fmt.Sprintf("Order %s confirmed", order.Reference)).
		Text(m.body(user, order)).
		Send(); err != nil {
		return err
	}

	logger.WithCtx(ctx).Info("receipt: sent", "order_id", order.ID, "reference", order.Reference)
	return nil
}

func (m *OrderReceiptMailer) body(user *models.User, order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nthanks for your order %s.\n\n", user.Name, order.Reference)
	for _, d := range order.Details {
		name := d.ProductName
		if d.SelectedSize != "" {
			name += " (" + d.SelectedSize + ")"
		}
		fmt.Fprintf(&b, "%dx %s  %s\n", d.Quantity, name, formatMoney(d.LineTotal(), m.currency))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", formatMoney(order.Total, m.currency))
	return b.String()
}

// formatMoney renders cents as "12.34 EUR".
func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}
