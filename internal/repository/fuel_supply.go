package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// FuelSupplyRepository defines the interface for fuel supply data access
type FuelSupplyRepository interface {
	WithTx(tx *gorm.DB) FuelSupplyRepository
	Create(ctx context.Context, supply *model.FuelSupply) (*model.FuelSupply, error)
	GetByID(ctx context.Context, id string) (*model.FuelSupply, error)
	// ListByVehicle returns the vehicle's full history ordered ascending by
	// (supplied_at, created_at) — the order the recalculation walk expects.
	ListByVehicle(ctx context.Context, vehicleID string) ([]model.FuelSupply, error)
	Save(ctx context.Context, supply *model.FuelSupply) error
	SetAverage(ctx context.Context, id string, average *float64) error
	Delete(ctx context.Context, id string) error
}

// fuelSupplyRepository implements FuelSupplyRepository
type fuelSupplyRepository struct {
	db *gorm.DB
}

// NewFuelSupplyRepository creates a new fuel supply repository
func NewFuelSupplyRepository(gdb *gorm.DB) FuelSupplyRepository {
	return &fuelSupplyRepository{db: gdb}
}

// WithTx returns a repository bound to the given transaction handle
func (r *fuelSupplyRepository) WithTx(tx *gorm.DB) FuelSupplyRepository {
	return &fuelSupplyRepository{db: tx}
}

// Create creates a new fuel supply record
func (r *fuelSupplyRepository) Create(ctx context.Context, supply *model.FuelSupply) (*model.FuelSupply, error) {
	if err := r.db.WithContext(ctx).Create(supply).Error; err != nil {
		return nil, err
	}
	return supply, nil
}

// GetByID gets a fuel supply record by ID
func (r *fuelSupplyRepository) GetByID(ctx context.Context, id string) (*model.FuelSupply, error) {
	var supply model.FuelSupply
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&supply).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supply, nil
}

// ListByVehicle lists a vehicle's fuel supply history in recompute order
func (r *fuelSupplyRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]model.FuelSupply, error) {
	var supplies []model.FuelSupply
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("supplied_at ASC, created_at ASC").
		Find(&supplies).Error
	if err != nil {
		return nil, err
	}
	return supplies, nil
}

// Save persists the full state of an existing fuel supply record, nullable
// fields included
func (r *fuelSupplyRepository) Save(ctx context.Context, supply *model.FuelSupply) error {
	return r.db.WithContext(ctx).Save(supply).Error
}

// SetAverage overwrites the derived average of a record; nil clears it
func (r *fuelSupplyRepository) SetAverage(ctx context.Context, id string, average *float64) error {
	return r.db.WithContext(ctx).
		Model(&model.FuelSupply{}).
		Where("uuid = ?", id).
		Update("average_km_per_liter", average).Error
}

// Delete removes a fuel supply record
func (r *fuelSupplyRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&model.FuelSupply{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
