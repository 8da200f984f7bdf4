package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/event"
)

const testWebhookSecret = "whsec_test_secret"

type checkoutFixture struct {
	repo    *repositories.Repository
	gateway *fakeGateway
	svc     *StripeCheckoutService
	product *models.Product
	order   *models.Order
}

func newCheckoutFixture(t *testing.T, qty int) *checkoutFixture {
	t.Helper()
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	p := seedProduct(t, repo, &models.Product{Name: "Kettle", Price: 3000, Stock: 5})

	order, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user,
		[]CartLine{{ProductID: p.ID, Quantity: qty}}, models.PaymentStripe)
	require.NoError(t, err)

	gw := newFakeGateway()
	svc := NewStripeCheckoutService(repo, gw, staticSecrets{SecretStripeWebhook: testWebhookSecret})
	return &checkoutFixture{repo: repo, gateway: gw, svc: svc, product: p, order: order}
}

func (f *checkoutFixture) reload(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.repo.Orders.FindByID(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}

func TestInitCheckoutSession_Idempotent(t *testing.T) {
	f := newCheckoutFixture(t, 2)
	ctx := context.Background()

	first, err := f.svc.InitCheckoutSessionForOrder(ctx, f.order.ID, "", "")
	require.NoError(t, err)
	second, err := f.svc.InitCheckoutSessionForOrder(ctx, f.order.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.gateway.created)
	assert.Equal(t, first.ID, f.reload(t).SessionID())

	p := f.gateway.last
	assert.Equal(t, f.order.Reference, p.ClientReferenceID)
	assert.Equal(t, "ada@example.com", p.CustomerEmail)
	assert.Equal(t, f.order.Reference, p.Metadata["order_reference"])
	assert.Equal(t, "6000", p.Metadata["order_total"])
	assert.Equal(t, "2x Kettle", p.Metadata["cart_summary"])
	assert.Contains(t, p.SuccessURL, "{CHECKOUT_SESSION_ID}")
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, int64(3000), p.LineItems[0].UnitAmount)
}

func TestInitCheckoutSession_RejectsManualOrders(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	p := seedProduct(t, repo, &models.Product{Name: "Cup", Price: 500, Stock: 5})
	order, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user,
		[]CartLine{{ProductID: p.ID, Quantity: 1}}, models.PaymentManual)
	require.NoError(t, err)

	svc := NewStripeCheckoutService(repo, newFakeGateway(), staticSecrets{})
	_, err = svc.InitCheckoutSessionForOrder(context.Background(), order.ID, "", "")
	assert.ErrorIs(t, err, ErrOrderNotPayable)

	_, err = svc.InitCheckoutSessionForOrder(context.Background(), 999, "", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCartSummary_Truncated(t *testing.T) {
	svc := &StripeCheckoutService{currency: "eur"}
	order := &models.Order{Reference: "ORD-1"}
	for i := 0; i < 60; i++ {
		order.Details = append(order.Details, models.OrderDetail{ProductName: fmt.Sprintf("Product number %d", i), Quantity: 1})
	}

	p := svc.sessionParams(order, "", "https://s", "https://c")
	assert.Len(t, []rune(p.Metadata["cart_summary"]), cartSummaryMaxLen)
	assert.Equal(t, "https://s", p.SuccessURL)
}

func TestFinalize_UnpaidChangesNothing(t *testing.T) {
	f := newCheckoutFixture(t, 2)
	ctx := context.Background()
	_, err := f.svc.InitCheckoutSessionForOrder(ctx, f.order.ID, "", "")
	require.NoError(t, err)

	paid, err := f.svc.FinalizeOrderIfPaid(ctx, f.reload(t))
	require.NoError(t, err)
	assert.False(t, paid)
	assert.Equal(t, 5, productStock(t, f.repo, f.product.ID))
	assert.Equal(t, models.OrderPendingPayment, f.reload(t).Status)
}

func TestFinalize_NoSession(t *testing.T) {
	f := newCheckoutFixture(t, 1)

	paid, err := f.svc.FinalizeOrderIfPaid(context.Background(), f.order)
	require.NoError(t, err)
	assert.False(t, paid)
}

func TestFinalize_AdjustsStockExactlyOnce(t *testing.T) {
	f := newCheckoutFixture(t, 2)
	ctx := context.Background()
	session, err := f.svc.InitCheckoutSessionForOrder(ctx, f.order.ID, "", "")
	require.NoError(t, err)
	f.gateway.markPaid(session.ID)

	var confirmed int
	event.Listen(event.OrderConfirmed, func(interface{}) { confirmed++ })

	stale := f.reload(t)
	fresh := f.reload(t)

	paid, err := f.svc.FinalizeOrderIfPaid(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, paid)
	assert.True(t, fresh.StockAdjusted)

	// A caller holding a pre-payment copy must not decrement again.
	paid, err = f.svc.FinalizeOrderIfPaid(ctx, stale)
	require.NoError(t, err)
	assert.True(t, paid)

	_, paid, err = f.svc.FinalizeBySessionID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, paid)

	assert.Equal(t, 3, productStock(t, f.repo, f.product.ID))
	assert.Equal(t, 1, confirmed)

	stored := f.reload(t)
	assert.Equal(t, models.OrderConfirmed, stored.Status)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.NotNil(t, stored.PaidAt)
}

func TestFinalize_ClampsStockAtZero(t *testing.T) {
	f := newCheckoutFixture(t, 4)
	ctx := context.Background()
	session, err := f.svc.InitCheckoutSessionForOrder(ctx, f.order.ID, "", "")
	require.NoError(t, err)
	f.gateway.markPaid(session.ID)

	// Someone else sold most of the stock while the customer was paying.
	require.NoError(t, f.repo.Products.SetProductStock(ctx, f.product.ID, 1))

	paid, err := f.svc.FinalizeOrderIfPaid(ctx, f.reload(t))
	require.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, 0, productStock(t, f.repo, f.product.ID))
}

func TestFinalize_UnknownSession(t *testing.T) {
	f := newCheckoutFixture(t, 1)

	_, _, err := f.svc.FinalizeBySessionID(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func signed(t *testing.T, payload, secret string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func sessionEvent(eventType, sessionID string) string {
	return fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"api_version":"2023-10-16",`+
		`"data":{"object":{"id":%q,"object":"checkout.session","payment_status":"paid"}}}`, eventType, sessionID)
}

func TestHandleWebhook_FailsClosed(t *testing.T) {
	f := newCheckoutFixture(t, 1)
	ctx := context.Background()
	payload := sessionEvent("checkout.session.completed", "cs_test_1")

	_, err := f.svc.HandleWebhook(ctx, []byte(payload), "")
	assert.ErrorIs(t, err, ErrMissingSignature)

	header, body := signed(t, payload, "whsec_someone_else")
	_, err = f.svc.HandleWebhook(ctx, body, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	unconfigured := NewStripeCheckoutService(f.repo, f.gateway, staticSecrets{})
	header, body = signed(t, payload, testWebhookSecret)
	_, err = unconfigured.HandleWebhook(ctx, body, header)
	assert.ErrorIs(t, err, ErrPaymentNotConfigured)

	assert.Equal(t, 5, productStock(t, f.repo, f.product.ID))
}

func TestHandleWebhook_CompletedFinalizes(t *testing.T) {
	f := newCheckoutFixture(t, 2)
	ctx := context.Background()
	session, err := f.svc.InitCheckoutSessionForOrder(ctx, f.order.ID, "", "")
	require.NoError(t, err)
	f.gateway.markPaid(session.ID)

	header, body := signed(t, sessionEvent("checkout.session.completed", session.ID), testWebhookSecret)
	res, err := f.svc.HandleWebhook(ctx, body, header)
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.True(t, res.Paid)
	assert.Equal(t, f.order.Reference, res.Order.Reference)

	// Stripe retries deliveries; a replay is harmless.
	header, body = signed(t, sessionEvent("checkout.session.async_payment_succeeded", session.ID), testWebhookSecret)
	_, err = f.svc.HandleWebhook(ctx, body, header)
	require.NoError(t, err)

	assert.Equal(t, 3, productStock(t, f.repo, f.product.ID))
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	f := newCheckoutFixture(t, 1)

	header, body := signed(t, sessionEvent("checkout.session.expired", "cs_test_1"), testWebhookSecret)
	res, err := f.svc.HandleWebhook(context.Background(), body, header)
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.Equal(t, "checkout.session.expired", res.EventType)
}

func TestHandleWebhook_UnknownSessionAcknowledged(t *testing.T) {
	f := newCheckoutFixture(t, 1)

	header, body := signed(t, sessionEvent("checkout.session.completed", "cs_elsewhere"), testWebhookSecret)
	res, err := f.svc.HandleWebhook(context.Background(), body, header)
	require.NoError(t, err)
	assert.False(t, res.Handled)
}
