package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/pkg/orm"
)

// Repository groups the per-table repositories over one connection so a
// service can run several of them inside a single transaction.
type Repository struct {
	db       *orm.Query
	Users    *UserRepository
	Products *ProductRepository
	Orders   *OrderRepository
	Settings *SettingsRepository
}

func New(db *orm.Query) *Repository {
	return &Repository{
		db:       db,
		Users:    NewUserRepository(db),
		Products: NewProductRepository(db),
		Orders:   NewOrderRepository(db),
		Settings: NewSettingsRepository(db),
	}
}

// Default is New over the global connection.
func Default() *Repository {
	return New(orm.DB())
}

// WithTx runs fn with repositories bound to one transaction. Returning an
// error rolls everything back.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.Transaction(ctx, func(tx *orm.Query) error {
		return fn(New(tx))
	})
}

// DB exposes the underlying query builder.
func (r *Repository) DB() *orm.Query {
	return r.db
}
