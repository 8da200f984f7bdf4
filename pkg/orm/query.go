package orm

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Query struct {
	db *gorm.DB
}

// Pagination is returned alongside paged result sets.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func DB() *Query {
	return &Query{db: database.DB}
}

// New wraps an explicit connection (tests, transactions).
func New(db *gorm.DB) *Query {
	return &Query{db: db}
}

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Preload(assoc string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(assoc, args...)}
}

func (q *Query) Order(value string) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Omit(columns ...string) *Query {
	return &Query{db: q.db.Omit(columns...)}
}

// Unscoped includes soft-deleted rows.
func (q *Query) Unscoped() *Query {
	return &Query{db: q.db.Unscoped()}
}

// ForUpdate adds a pessimistic row lock (SELECT ... FOR UPDATE).
// Dialects without row locks (sqlite) drop the clause.
func (q *Query) ForUpdate() *Query {
	return &Query{db: q.db.Clauses(clause.Locking{Strength: "UPDATE"})}
}

func (q *Query) Get(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.First(dest).Error
}

func (q *Query) Count(total *int64) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Count(total).Error
}

func (q *Query) Exists() (bool, error) {
	var n int64
	if err := q.Count(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *Query) Create(value interface{}) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return q.db.Create(value).Error
}

func (q *Query) Save(value interface{}) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return q.db.Save(value).Error
}

// Updates applies column changes to the current Model/Where scope.
func (q *Query) Updates(fields map[string]interface{}) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return q.db.Updates(fields).Error
}

// Transaction runs fn inside a database transaction. Returning an error
// (or panicking) from fn rolls everything back.
func (q *Query) Transaction(ctx context.Context, fn func(tx *Query) error) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Query{db: tx})
	})
}

// GetWithPagination loads one page into dest and reports totals.
func (q *Query) GetWithPagination(dest interface{}, page, limit int) (Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	// Count on a copy without preloads; they only apply to the page fetch.
	ctx := q.db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	counter := q.db.Session(&gorm.Session{Context: ctx})
	counter.Statement.Preloads = nil

	var total int64
	if err := counter.Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	if err := q.db.Limit(limit).Offset((page - 1) * limit).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
