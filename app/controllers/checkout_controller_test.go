package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

func newOrdersRepo(t *testing.T) *repositories.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderDetail{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repositories.New(orm.New(db))
}

func TestCheckoutController_ShowByReference(t *testing.T) {
	repo := newOrdersRepo(t)
	ctx := context.Background()

	owner := &models.User{Name: "Ada", Email: "ada@example.com", Password: "x", Role: models.RoleUser}
	other := &models.User{Name: "Bob", Email: "bob@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, repo.Users.Create(ctx, owner))
	require.NoError(t, repo.Users.Create(ctx, other))

	order := &models.Order{
		Reference: "ORD-20260301120000-0A1B2C3D", UserID: owner.ID,
		PaymentProvider: models.PaymentManual, Total: 5000,
		Details: []models.OrderDetail{{ProductID: 1, ProductName: "Tee", Quantity: 2, UnitPrice: 2500}},
	}
	require.NoError(t, repo.Orders.Create(ctx, order))

	r := router.New()
	r.Get("/api/orders/reference/{reference}", "orders.show", NewCheckoutController(repo, nil, nil).Show)
	h := r.Handler()

	get := func(userID uint, ref string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/reference/"+ref, nil)
		req = req.WithContext(middleware.WithClaims(req.Context(), &auth.Claims{UserID: userID, Role: models.RoleUser}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get(owner.ID, "ord-20260301120000-0a1b2c3d")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Reference string           `json:"reference"`
			Total     int64            `json:"total"`
			Lines     []map[string]any `json:"lines"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, order.Reference, body.Data.Reference)
	assert.EqualValues(t, 5000, body.Data.Total)
	assert.Len(t, body.Data.Lines, 1)

	assert.Equal(t, http.StatusNotFound, get(other.ID, order.Reference).Code, "another customer's order is hidden")
	assert.Equal(t, http.StatusNotFound, get(owner.ID, "ORD-MISSING").Code)
}
