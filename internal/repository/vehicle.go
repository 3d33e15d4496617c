package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// VehicleRepository defines the interface for vehicle data access
type VehicleRepository interface {
	WithTx(tx *gorm.DB) VehicleRepository
	Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error)
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	// GetByIDForUpdate loads a vehicle under a row lock. Every write path
	// touching a vehicle's derived fields takes this lock first, which
	// serializes concurrent recomputes and usage transitions per vehicle.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	FindAllActive(ctx context.Context) ([]*model.Vehicle, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// vehicleRepository implements VehicleRepository
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(gdb *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: gdb}
}

// WithTx returns a repository bound to the given transaction handle
func (r *vehicleRepository) WithTx(tx *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: tx}
}

// Create creates a new vehicle
func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return vehicle, nil
}

// GetByID gets a vehicle by ID
func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&vehicle).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// GetByIDForUpdate gets a vehicle by ID under a FOR UPDATE row lock
func (r *vehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid = ?", id).
		First(&vehicle).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// GetByPlate gets a vehicle by its normalized plate
func (r *vehicleRepository) GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.WithContext(ctx).Where("plate = ?", plate).First(&vehicle).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindAllActive finds all active vehicles
func (r *vehicleRepository) FindAllActive(ctx context.Context) ([]*model.Vehicle, error) {
	var vehicles []*model.Vehicle
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("plate").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateFields updates selected vehicle fields by ID
func (r *vehicleRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Vehicle{}).
		Where("uuid = ?", id).
		Updates(fields).Error
}
