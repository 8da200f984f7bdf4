package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/resource"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

type CheckoutController struct {
	repo    *repositories.Repository
	orders  *services.CheckoutOrderCreator
	payment *services.StripeCheckoutService
}

func NewCheckoutController(repo *repositories.Repository, orders *services.CheckoutOrderCreator, payment *services.StripeCheckoutService) *CheckoutController {
	return &CheckoutController{repo: repo, orders: orders, payment: payment}
}

type checkoutRequest struct {
	Lines    []services.CartLine `json:"lines"    validate:"required"`
	Provider string              `json:"provider" validate:"nullable,in=stripe|manual"`
}

// Create places the order. Stripe orders come back with the hosted
// checkout URL the client should redirect to.
func (c *CheckoutController) Create(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if !decode(w, r, &body) {
		return
	}

	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}

	provider := models.PaymentProvider(strings.ToLower(body.Provider))
	if provider == "" {
		provider = models.PaymentProvider(config.PaymentProvider())
	}

	order, err := c.orders.Create(r.Context(), user, body.Lines, provider)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := resource.Map{"order": resources.Order(*order)}
	if provider == models.PaymentStripe {
		session, err := c.payment.InitCheckoutSessionForOrder(r.Context(), order.ID, "", "")
		if err != nil {
			respondError(w, r, err)
			return
		}
		out["checkout_url"] = session.URL
	}
	response.Created(w, out)
}

// Pay re-opens the checkout session of a pending Stripe order.
func (c *CheckoutController) Pay(w http.ResponseWriter, r *http.Request) {
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	order, err := c.ownOrder(r, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	session, err := c.payment.InitCheckoutSessionForOrder(r.Context(), order.ID, "", "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, resource.Map{"checkout_url": session.URL})
}

// Success is the Stripe return URL. It finalizes the order when the
// session is paid; the webhook does the same if the customer never returns.
func (c *CheckoutController) Success(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sid == "" {
		response.Error(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}

	order, paid, err := c.payment.FinalizeBySessionID(r.Context(), sid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, resource.Map{"paid": paid, "order": resources.Order(*order)})
}

// Orders lists the current user's orders.
func (c *CheckoutController) Orders(w http.ResponseWriter, r *http.Request) {
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	orders, pagination, err := c.repo.Orders.ForUser(r.Context(), user.ID, page, 20)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Paginated(w, resource.Many(orders, resources.Order), pagination)
}

// Show returns one of the current user's orders by its reference.
func (c *CheckoutController) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	ref := strings.ToUpper(strings.TrimSpace(router.Param(r, "reference")))

	order, err := c.repo.Orders.FindByReference(r.Context(), ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if order == nil || order.UserID != user.ID {
		respondError(w, r, services.ErrOrderNotFound)
		return
	}
	response.Success(w, resources.Order(*order))
}

func (c *CheckoutController) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return nil, false
	}
	user, err := c.repo.Users.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	if user == nil {
		response.Unauthorized(w)
		return nil, false
	}
	return user, true
}

func (c *CheckoutController) ownOrder(r *http.Request, user *models.User) (*models.Order, error) {
	id, err := strconv.ParseUint(router.Param(r, "id"), 10, 64)
	if err != nil {
		return nil, services.ErrOrderNotFound
	}
	order, err := c.repo.Orders.FindByID(r.Context(), uint(id))
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != user.ID {
		return nil, services.ErrOrderNotFound
	}
	return order, nil
}
