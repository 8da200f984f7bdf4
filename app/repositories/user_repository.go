package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *orm.Query
}

func NewUserRepository(db *orm.Query) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by email. Returns nil, nil when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).First(&user)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	return &user, err
}

// FindByID looks up a user by primary key. Returns nil, nil when absent.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).First(&user)
	if orm.IsNotFound(err) {
		return nil, nil
	}
	return &user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user)
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user)
}
