package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/orm"
)

// newTestRepo opens a private in-memory sqlite database with the full schema
// and a fresh memory cache.
func newTestRepo(t *testing.T) *repositories.Repository {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{}, &models.ProductVariant{}, &models.ProductImage{},
		&models.Order{}, &models.OrderDetail{},
		&models.SiteSettings{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cache.Use(cache.NewMemoryStore())
	event.Flush()
	return repositories.New(orm.New(db))
}

func seedUser(t *testing.T, repo *repositories.Repository) *models.User {
	t.Helper()
	u := &models.User{Name: "Ada", Email: "ada@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, repo.Users.Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, repo *repositories.Repository, p *models.Product) *models.Product {
	t.Helper()
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	require.NoError(t, repo.Products.Create(context.Background(), p))
	return p
}

func productStock(t *testing.T, repo *repositories.Repository, id uint) int {
	t.Helper()
	p, err := repo.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

type staticSecrets map[string]string

func (s staticSecrets) Resolve(_ context.Context, key string) string { return s[key] }

// fakeGateway keeps checkout sessions in memory. New sessions are unpaid.
type fakeGateway struct {
	sessions map[string]*CheckoutSession
	created  int
	last     SessionParams
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*CheckoutSession{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p SessionParams) (*CheckoutSession, error) {
	g.created++
	g.last = p
	s := &CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", g.created),
		URL:           fmt.Sprintf("https://checkout.example/%d", g.created),
		PaymentStatus: "unpaid",
	}
	g.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*CheckoutSession, error) {
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session %q", id)
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) markPaid(id string) {
	g.sessions[id].PaymentStatus = SessionPaid
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uintPtr(v uint) *uint { return &v }
