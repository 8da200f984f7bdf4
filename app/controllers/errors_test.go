package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/lookup"
)

func TestRespondError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"out of stock", &services.OutOfStockError{Product: "Tee", Available: 1, Requested: 2}, http.StatusConflict},
		{"quota", fmt.Errorf("upcitemdb: %w", lookup.ErrQuotaExceeded), http.StatusServiceUnavailable},
		{"payments off", services.ErrPaymentNotConfigured, http.StatusServiceUnavailable},
		{"upstream", fmt.Errorf("wikidata: %w", lookup.ErrUpstream), http.StatusBadGateway},
		{"order missing", services.ErrOrderNotFound, http.StatusNotFound},
		{"lookup missing", services.ErrLookupNotFound, http.StatusNotFound},
		{"bad barcode", services.ErrInvalidBarcode, http.StatusUnprocessableEntity},
		{"empty cart", services.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"not payable", services.ErrOrderNotPayable, http.StatusUnprocessableEntity},
		{"bad signature", fmt.Errorf("%w: timestamp", services.ErrInvalidSignature), http.StatusBadRequest},
		{"no signature", services.ErrMissingSignature, http.StatusBadRequest},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRespondError_QuotaSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), lookup.ErrQuotaExceeded)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dsn=secret"))
	assert.NotContains(t, rec.Body.String(), "secret")
}
