package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/domain"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
)

// CreateUserRequest defines the request to register an operator
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

// UpdateUserRequest defines a partial update of an operator
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone"`
}

// UserService defines the interface for the operator registry
type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, id string, req *UpdateUserRequest) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Deactivate(ctx context.Context, id string) error
}

// userService implements UserService
type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Create registers an operator
func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	user := &model.User{
		Base:   model.Base{UUID: uuid.New().String()},
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Active: true,
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, domain.Conflict("user", "email or phone")
		}
		return nil, err
	}
	return created, nil
}

// Update applies a partial update to an operator
func (s *userService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*model.User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, id, fields); err != nil {
			if db.IsDuplicateKeyError(err) {
				return nil, domain.Conflict("user", "email or phone")
			}
			return nil, err
		}
	}
	return s.GetByID(ctx, id)
}

// GetByID gets an operator
func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("user", id)
		}
		return nil, err
	}
	return user, nil
}

// List lists all active operators
func (s *userService) List(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.FindAllActive(ctx)
}

// Deactivate soft-deletes an operator. History stays.
func (s *userService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.userRepo.UpdateFields(ctx, id, map[string]interface{}{"active": false})
}
