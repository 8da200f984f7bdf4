package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services/lookup"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const cartSummaryMaxLen = 500

// StripeCheckoutService drives an order from pending_payment to confirmed:
// it opens the hosted checkout session, verifies webhooks and finalizes the
// order exactly once when the gateway reports it paid.
type StripeCheckoutService struct {
	repo     *repositories.Repository
	gateway  PaymentGateway
	secrets  lookup.SecretSource
	currency string
	now      func() time.Time
}

func NewStripeCheckoutService(repo *repositories.Repository, gateway PaymentGateway, secrets lookup.SecretSource) *StripeCheckoutService {
	return &StripeCheckoutService{
		repo:     repo,
		gateway:  gateway,
		secrets:  secrets,
		currency: config.StripeCurrency(),
		now:      time.Now,
	}
}

// DefaultSuccessURL is where the gateway sends the customer back; the
// success handler finalizes the order from the session id.
func DefaultSuccessURL() string {
	return config.AppURL() + "/api/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

func DefaultCancelURL() string {
	return config.AppURL() + "/cart"
}

// InitCheckoutSessionForOrder returns the order's checkout session,
// creating it on first call. The order row stays locked while the session
// is created and stored so two requests never open two sessions.
func (s *StripeCheckoutService) InitCheckoutSessionForOrder(ctx context.Context, orderID uint, successURL, cancelURL string) (*CheckoutSession, error) {
	var session *CheckoutSession
	err := s.repo.WithTx(ctx, func(tx *repositories.Repository) error {
		order, err := tx.Orders.LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PaymentProvider != models.PaymentStripe || order.IsPaid() {
			return ErrOrderNotPayable
		}

		if sid := order.SessionID(); sid != "" {
			session, err = s.gateway.GetCheckoutSession(ctx, sid)
			return err
		}

		var email string
		if u, err := tx.Users.FindByID(ctx, order.UserID); err == nil && u != nil {
			email = u.Email
		}

		session, err = s.gateway.CreateCheckoutSession(ctx, s.sessionParams(order, email, successURL, cancelURL))
		if err != nil {
			return err
		}
		return tx.Orders.Update(ctx, order.ID, map[string]interface{}{"stripe_session_id": session.ID})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *StripeCheckoutService) sessionParams(order *models.Order, email, successURL, cancelURL string) SessionParams {
	if successURL == "" {
		successURL = DefaultSuccessURL()
	}
	if cancelURL == "" {
		cancelURL = DefaultCancelURL()
	}

	items := make([]SessionLineItem, 0, len(order.Details))
	summary := make([]string, 0, len(order.Details))
	for _, d := range order.Details {
		items = append(items, SessionLineItem{Name: d.ProductName, UnitAmount: d.UnitPrice, Quantity: int64(d.Quantity)})
		summary = append(summary, fmt.Sprintf("%dx %s", d.Quantity, d.ProductName))
	}

	return SessionParams{
		Currency:          s.currency,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
		ClientReferenceID: order.Reference,
		CustomerEmail:     email,
		LineItems:         items,
		Metadata: map[string]string{
			"order_id":        strconv.FormatUint(uint64(order.ID), 10),
			"order_reference": order.Reference,
			"order_total":     strconv.FormatInt(order.Total, 10),
			"cart_summary":    truncateRunes(strings.Join(summary, ", "), cartSummaryMaxLen),
		},
	}
}

// FinalizeOrderIfPaid checks the order's session with the gateway and, when
// it is paid, takes the stock and confirms the order. It returns true when
// the order is paid, whether this call or an earlier one settled it.
func (s *StripeCheckoutService) FinalizeOrderIfPaid(ctx context.Context, order *models.Order) (bool, error) {
	return s.finalize(ctx, order, "return")
}

// FinalizeBySessionID is FinalizeOrderIfPaid for the order owning sessionID.
func (s *StripeCheckoutService) FinalizeBySessionID(ctx context.Context, sessionID string) (*models.Order, bool, error) {
	return s.finalizeBySession(ctx, sessionID, "return")
}

func (s *StripeCheckoutService) finalizeBySession(ctx context.Context, sessionID, trigger string) (*models.Order, bool, error) {
	order, err := s.repo.Orders.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if order == nil {
		return nil, false, ErrOrderNotFound
	}
	paid, err := s.finalize(ctx, order, trigger)
	return order, paid, err
}

func (s *StripeCheckoutService) finalize(ctx context.Context, order *models.Order, trigger string) (bool, error) {
	sid := order.SessionID()
	if sid == "" {
		return false, nil
	}

	session, err := s.gateway.GetCheckoutSession(ctx, sid)
	if err != nil {
		return false, err
	}
	if session.PaymentStatus != SessionPaid {
		return false, nil
	}
	if order.IsPaid() && order.StockAdjusted {
		return true, nil
	}

	transitioned := false
	err = s.repo.WithTx(ctx, func(tx *repositories.Repository) error {
		locked, err := tx.Orders.LockByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		// Another request settled it while we waited for the lock.
		if locked.StockAdjusted {
			*order = *locked
			return nil
		}

		for _, d := range locked.Details {
			if err := decrementStock(ctx, tx, d); err != nil {
				return err
			}
		}

		paidAt := s.now().UTC()
		if err := tx.Orders.Update(ctx, locked.ID, map[string]interface{}{
			"payment_status": models.PaymentPaid,
			"status":         models.OrderConfirmed,
			"stock_adjusted": true,
			"paid_at":        paidAt,
		}); err != nil {
			return err
		}

		locked.PaymentStatus = models.PaymentPaid
		locked.Status = models.OrderConfirmed
		locked.StockAdjusted = true
		locked.PaidAt = &paidAt
		*order = *locked
		transitioned = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if transitioned {
		metrics.OrdersFinalized.WithLabelValues(trigger).Inc()
		logger.WithCtx(ctx).Info("checkout: order paid", "reference", order.Reference, "trigger", trigger)
		event.Fire(event.OrderConfirmed, order)
	}
	return true, nil
}

// decrementStock decrements the line's stock, clamped at zero.
func decrementStock(ctx context.Context, tx *repositories.Repository, d models.OrderDetail) error {
	if d.VariantID != nil {
		v, err := tx.Products.LockVariant(ctx, *d.VariantID)
		if err != nil {
			return err
		}
		if v != nil {
			return tx.Products.SetVariantStock(ctx, v.ID, clampStock(v.Stock-d.Quantity))
		}
		logger.WithCtx(ctx).Warn("checkout: variant vanished, charging product stock", "variant_id", *d.VariantID)
	}

	p, err := tx.Products.LockProduct(ctx, d.ProductID)
	if err != nil {
		return err
	}
	if p == nil {
		logger.WithCtx(ctx).Warn("checkout: product vanished, stock not adjusted", "product_id", d.ProductID)
		return nil
	}
	return tx.Products.SetProductStock(ctx, p.ID, clampStock(p.Stock-d.Quantity))
}

func clampStock(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// WebhookResult says what a webhook delivery did.
type WebhookResult struct {
	EventType string
	Handled   bool
	Order     *models.Order
	Paid      bool
}

// HandleWebhook verifies and applies one Stripe event. It fails closed: no
// signature header or no configured secret is an error, never a pass.
func (s *StripeCheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrMissingSignature
	}
	secret := strings.TrimSpace(s.secrets.Resolve(ctx, SecretStripeWebhook))
	if secret == "" {
		return nil, ErrPaymentNotConfigured
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	res := &WebhookResult{EventType: string(evt.Type)}
	switch evt.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		return res, nil
	}

	var cs stripe.CheckoutSession
	if evt.Data == nil || json.Unmarshal(evt.Data.Raw, &cs) != nil || cs.ID == "" {
		return nil, fmt.Errorf("webhook: %s without a checkout session", evt.Type)
	}

	order, paid, err := s.finalizeBySession(ctx, cs.ID, "webhook")
	if errors.Is(err, ErrOrderNotFound) {
		// Sessions created outside this shop; acknowledge so Stripe stops retrying.
		logger.WithCtx(ctx).Warn("webhook: no order for session", "session_id", cs.ID)
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	res.Handled = true
	res.Order = order
	res.Paid = paid
	return res, nil
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
