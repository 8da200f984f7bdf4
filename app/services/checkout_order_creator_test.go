package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/event"
)

var referenceRE = regexp.MustCompile(`^ORD-\d{14}-[0-9A-F]{8}$`)

func TestNewOrderReference_Format(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

	ref, err := NewOrderReference(at)
	require.NoError(t, err)
	assert.Regexp(t, referenceRE, ref)
	assert.Contains(t, ref, "ORD-20260301090507-")
}

func TestCheckout_StripeLeavesStockUntouched(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	p := seedProduct(t, repo, &models.Product{Name: "Lamp", Price: 4500, Stock: 3})

	order, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user,
		[]CartLine{{ProductID: p.ID, Quantity: 2}}, models.PaymentStripe)
	require.NoError(t, err)

	assert.Regexp(t, referenceRE, order.Reference)
	assert.Equal(t, models.OrderPendingPayment, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.False(t, order.StockAdjusted)
	assert.Equal(t, int64(9000), order.Total)
	require.Len(t, order.Details, 1)
	assert.Equal(t, int64(4500), order.Details[0].UnitPrice)
	assert.Equal(t, 3, productStock(t, repo, p.ID))
}

func TestCheckout_ManualDecrementsAndConfirms(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	p := seedProduct(t, repo, &models.Product{
		Name: "Tee", Price: 2000, Stock: 50,
		Variants: []models.ProductVariant{{Size: "M", Price: 2500, Stock: 4}},
	})
	variantID := p.Variants[0].ID

	var confirmed int
	event.Listen(event.OrderConfirmed, func(interface{}) { confirmed++ })

	order, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user,
		[]CartLine{{ProductID: p.ID, VariantID: &variantID, Quantity: 3}}, models.PaymentManual)
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.True(t, order.IsPaid())
	assert.True(t, order.StockAdjusted)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, int64(7500), order.Total)
	assert.Equal(t, "M", order.Details[0].SelectedSize)
	assert.Equal(t, 1, confirmed)

	stored, err := repo.Products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Variants[0].Stock)
	assert.Equal(t, 50, stored.Stock, "product stock is not touched when a variant is charged")
}

func TestCheckout_OutOfStockPersistsNothing(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	p := seedProduct(t, repo, &models.Product{Name: "Vase", Price: 100, Stock: 1})

	// Two lines of one each add up to more than the stock.
	_, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user, []CartLine{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: p.ID, Quantity: 1},
	}, models.PaymentManual)

	var oos *OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, "Vase", oos.Product)
	assert.Equal(t, 1, oos.Available)
	assert.Equal(t, 2, oos.Requested)

	var n int64
	require.NoError(t, repo.DB().Model(&models.Order{}).Count(&n))
	assert.Zero(t, n)
	assert.Equal(t, 1, productStock(t, repo, p.ID))
}

func TestCheckout_SkipsUnknownAndEmptyLines(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)

	_, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user, []CartLine{
		{ProductID: 404, Quantity: 1},
		{ProductID: 1, Quantity: 0},
	}, models.PaymentStripe)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_UnknownProvider(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)

	_, err := NewCheckoutOrderCreator(repo).Create(context.Background(), user, nil, "paypal")
	assert.Error(t, err)
}
