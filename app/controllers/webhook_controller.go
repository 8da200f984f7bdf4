package controllers

import (
	"io"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

const webhookMaxBytes = 1 << 20

type WebhookController struct {
	payment *services.StripeCheckoutService
}

func NewWebhookController(payment *services.StripeCheckoutService) *WebhookController {
	return &WebhookController{payment: payment}
}

// Stripe verifies the raw body against the Stripe-Signature header before
// anything else reads it.
func (c *WebhookController) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, webhookMaxBytes))
	if err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	res, err := c.payment.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.WithCtx(r.Context()).Warn("webhook: rejected", "error", err)
		respondError(w, r, err)
		return
	}
	response.Success(w, map[string]interface{}{"received": true, "type": res.EventType, "handled": res.Handled})
}
