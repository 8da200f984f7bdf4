package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/lookup"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// respondError maps service errors onto status codes. Anything unknown is
// logged and answered with a bare 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var oos *services.OutOfStockError
	switch {
	case errors.As(err, &oos):
		response.Error(w, http.StatusConflict, oos.Error())
	case errors.Is(err, lookup.ErrQuotaExceeded):
		response.Unavailable(w, 3600, "Lookup quota exceeded, try again later")
	case errors.Is(err, services.ErrPaymentNotConfigured):
		response.Unavailable(w, 0, "Payments are not configured")
	case errors.Is(err, lookup.ErrUpstream):
		response.Error(w, http.StatusBadGateway, "Lookup provider failed")
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrLookupNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidBarcode),
		errors.Is(err, services.ErrInvalidExternalID),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrOrderNotPayable),
		errors.Is(err, lookup.ErrUnknownProvider):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrMissingSignature), errors.Is(err, services.ErrInvalidSignature):
		response.Error(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		logger.WithCtx(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode runs bind.JSON and writes the 400/422 itself. It returns false
// when the handler should stop.
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	errs, err := bind.JSON(r, dest)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return false
	}
	return true
}
