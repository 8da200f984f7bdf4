package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
)

// OrderRepository handles orders and their lines.
type OrderRepository struct {
	db *orm.Query
}

func NewOrderRepository(db *orm.Query) *OrderRepository {
	return &OrderRepository{db: db}
}

func detailsByID(db *gorm.DB) *gorm.DB { return db.Order("id asc") }

func (r *OrderRepository) first(q *orm.Query) (*models.Order, error) {
	var o models.Order
	err := q.Preload("Details", detailsByID).First(&o)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order together with its details.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o)
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id))
}

// LockByID reads the order row FOR UPDATE. Only meaningful inside WithTx.
func (r *OrderRepository) LockByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Model(&models.Order{}).ForUpdate().Where("id = ?", id))
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Model(&models.Order{}).Where("stripe_session_id = ?", sessionID))
}

func (r *OrderRepository) FindByReference(ctx context.Context, ref string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Model(&models.Order{}).Where("reference = ?", ref))
}

func (r *OrderRepository) ReferenceTaken(ctx context.Context, ref string) (bool, error) {
	return r.db.WithContext(ctx).Unscoped().Model(&models.Order{}).Where("reference = ?", ref).Exists()
}

// Update writes the given columns of order id.
func (r *OrderRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
}

// ForUser lists a customer's orders, newest first.
func (r *OrderRepository) ForUser(ctx context.Context, userID uint, page, limit int) ([]models.Order, orm.Pagination, error) {
	var orders []models.Order
	p, err := r.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Details", detailsByID).
		Where("user_id = ?", userID).
		Order("id desc").
		GetWithPagination(&orders, page, limit)
	return orders, p, err
}
