package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByIDForUpdate loads a user under a row lock. The usage state
	// machine locks the vehicle row first and then the user row, so lock
	// acquisition order stays fixed across concurrent requests.
	GetByIDForUpdate(ctx context.Context, id string) (*model.User, error)
	FindAllActive(ctx context.Context) ([]*model.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(gdb *gorm.DB) UserRepository {
	return &userRepository{db: gdb}
}

// WithTx returns a repository bound to the given transaction handle
func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return user, nil
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&user).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate gets a user by ID under a FOR UPDATE row lock
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid = ?", id).
		First(&user).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAllActive finds all active users
func (r *userRepository) FindAllActive(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateFields updates selected user fields by ID
func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uuid = ?", id).
		Updates(fields).Error
	if db.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}
