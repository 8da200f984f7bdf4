package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// CartLine is one requested cart entry.
type CartLine struct {
	ProductID    uint   `json:"product_id"    validate:"required"`
	VariantID    *uint  `json:"variant_id"`
	SelectedSize string `json:"selected_size" validate:"nullable,max=50"`
	Quantity     int    `json:"quantity"      validate:"required,gte=1,lte=99"`
}

// CheckoutOrderCreator turns a cart into a persisted order.
type CheckoutOrderCreator struct {
	repo     *repositories.Repository
	variants *ProductVariantResolver
	now      func() time.Time
}

func NewCheckoutOrderCreator(repo *repositories.Repository) *CheckoutOrderCreator {
	return &CheckoutOrderCreator{
		repo:     repo,
		variants: NewProductVariantResolver(),
		now:      time.Now,
	}
}

type orderEntry struct {
	product *models.Product
	res     VariantResolution
	size    string
	qty     int
}

func (e *orderEntry) variantID() uint {
	if e.res.Variant == nil {
		return 0
	}
	return e.res.Variant.ID
}

// Create builds the order in one transaction. Lines with a non-positive
// quantity or an unknown product are skipped. For the manual provider stock
// is decremented under row locks and the order is confirmed immediately;
// for Stripe the order waits in pending_payment and stock is only taken
// when payment is confirmed.
func (c *CheckoutOrderCreator) Create(ctx context.Context, user *models.User, lines []CartLine, provider models.PaymentProvider) (*models.Order, error) {
	if provider != models.PaymentStripe && provider != models.PaymentManual {
		return nil, fmt.Errorf("checkout: unknown payment provider %q", provider)
	}

	var order *models.Order
	err := c.repo.WithTx(ctx, func(tx *repositories.Repository) error {
		entries, err := c.collect(ctx, tx, lines)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrEmptyCart
		}

		for _, e := range entries {
			if e.res.Available < e.qty {
				return outOfStock(e, e.res.Available)
			}
		}

		if provider == models.PaymentManual {
			if err := c.takeStock(ctx, tx, entries); err != nil {
				return err
			}
		}

		ref, err := c.uniqueReference(ctx, tx)
		if err != nil {
			return err
		}

		order = &models.Order{
			Reference:       ref,
			UserID:          user.ID,
			PaymentProvider: provider,
			PaymentStatus:   models.PaymentPending,
			Status:          models.OrderPendingPayment,
		}
		for _, e := range entries {
			d := models.OrderDetail{
				ProductID:    e.product.ID,
				ProductName:  e.res.Label,
				SelectedSize: e.size,
				Quantity:     e.qty,
				UnitPrice:    e.res.UnitPrice,
			}
			if e.res.Variant != nil {
				id := e.res.Variant.ID
				d.VariantID = &id
			}
			order.Total += d.LineTotal()
			order.Details = append(order.Details, d)
		}

		if provider == models.PaymentManual {
			paidAt := c.now().UTC()
			order.PaymentStatus = models.PaymentPaid
			order.Status = models.OrderConfirmed
			order.StockAdjusted = true
			order.PaidAt = &paidAt
		}

		return tx.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckoutOrders.WithLabelValues(string(provider), string(order.Status)).Inc()
	logger.WithCtx(ctx).Info("checkout: order created",
		"reference", order.Reference, "provider", provider, "total", order.Total, "status", order.Status)

	event.Fire(event.OrderCreated, order)
	if order.Status == models.OrderConfirmed {
		metrics.OrdersFinalized.WithLabelValues("manual").Inc()
		event.Fire(event.OrderConfirmed, order)
	}
	return order, nil
}

// collect resolves every line and sums quantities of the same
// product/variant pair, keeping first-seen order.
func (c *CheckoutOrderCreator) collect(ctx context.Context, tx *repositories.Repository, lines []CartLine) ([]*orderEntry, error) {
	var entries []*orderEntry
	index := map[string]*orderEntry{}
	products := map[uint]*models.Product{}

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}

		p, ok := products[line.ProductID]
		if !ok {
			var err error
			if p, err = tx.Products.FindByID(ctx, line.ProductID); err != nil {
				return nil, err
			}
			products[line.ProductID] = p
		}
		if p == nil {
			continue
		}

		e := &orderEntry{
			product: p,
			res:     c.variants.Resolve(p, line.VariantID, line.SelectedSize),
			size:    strings.TrimSpace(line.SelectedSize),
			qty:     line.Quantity,
		}
		if e.res.Variant != nil && e.size == "" {
			e.size = e.res.Variant.Size
		}

		key := fmt.Sprintf("%d:%d", p.ID, e.variantID())
		if prev, dup := index[key]; dup {
			prev.qty += e.qty
			continue
		}
		index[key] = e
		entries = append(entries, e)
	}
	return entries, nil
}

// takeStock locks each row in id order, re-checks and decrements.
func (c *CheckoutOrderCreator) takeStock(ctx context.Context, tx *repositories.Repository, entries []*orderEntry) error {
	sorted := append([]*orderEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].product.ID != sorted[j].product.ID {
			return sorted[i].product.ID < sorted[j].product.ID
		}
		return sorted[i].variantID() < sorted[j].variantID()
	})

	for _, e := range sorted {
		if e.res.Variant != nil {
			v, err := tx.Products.LockVariant(ctx, e.res.Variant.ID)
			if err != nil {
				return err
			}
			if v == nil || v.Stock < e.qty {
				return outOfStock(e, stockOf(v))
			}
			if err := tx.Products.SetVariantStock(ctx, v.ID, v.Stock-e.qty); err != nil {
				return err
			}
			continue
		}

		p, err := tx.Products.LockProduct(ctx, e.product.ID)
		if err != nil {
			return err
		}
		if p == nil || p.Stock < e.qty {
			available := 0
			if p != nil {
				available = p.Stock
			}
			return outOfStock(e, available)
		}
		if err := tx.Products.SetProductStock(ctx, p.ID, p.Stock-e.qty); err != nil {
			return err
		}
	}
	return nil
}

func stockOf(v *models.ProductVariant) int {
	if v == nil {
		return 0
	}
	return v.Stock
}

func outOfStock(e *orderEntry, available int) *OutOfStockError {
	err := &OutOfStockError{Product: e.product.Name, Available: available, Requested: e.qty}
	if e.res.Variant != nil {
		err.Variant = variantLabel(e.res.Variant)
	}
	if err.Available < 0 {
		err.Available = 0
	}
	return err
}

func (c *CheckoutOrderCreator) uniqueReference(ctx context.Context, tx *repositories.Repository) (string, error) {
	for i := 0; i < 5; i++ {
		ref, err := NewOrderReference(c.now())
		if err != nil {
			return "", err
		}
		taken, err := tx.Orders.ReferenceTaken(ctx, ref)
		if err != nil {
			return "", err
		}
		if !taken {
			return ref, nil
		}
	}
	return "", fmt.Errorf("checkout: could not allocate a unique order reference")
}

// NewOrderReference formats ORD-<YYYYMMDDHHMMSS>-<8 uppercase hex>.
func NewOrderReference(now time.Time) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("checkout: reference: %w", err)
	}
	return "ORD-" + now.UTC().Format("20060102150405") + "-" + strings.ToUpper(hex.EncodeToString(b)), nil
}
