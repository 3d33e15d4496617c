package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// UsageEventRepository defines the interface for usage event data access.
// Usage events are append-only; occupancy and trips are derived from them.
type UsageEventRepository interface {
	WithTx(tx *gorm.DB) UsageEventRepository
	Create(ctx context.Context, event *model.UsageEvent) (*model.UsageEvent, error)
	LatestByVehicle(ctx context.Context, vehicleID string) (*model.UsageEvent, error)
	LatestByUser(ctx context.Context, userID string) (*model.UsageEvent, error)
	ListByVehicle(ctx context.Context, vehicleID string) ([]model.UsageEvent, error)
}

// usageEventRepository implements UsageEventRepository
type usageEventRepository struct {
	db *gorm.DB
}

// NewUsageEventRepository creates a new usage event repository
func NewUsageEventRepository(gdb *gorm.DB) UsageEventRepository {
	return &usageEventRepository{db: gdb}
}

// WithTx returns a repository bound to the given transaction handle
func (r *usageEventRepository) WithTx(tx *gorm.DB) UsageEventRepository {
	return &usageEventRepository{db: tx}
}

// Create appends a usage event
func (r *usageEventRepository) Create(ctx context.Context, event *model.UsageEvent) (*model.UsageEvent, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// LatestByVehicle returns the vehicle's single most recent event, nil when
// the vehicle has no events
func (r *usageEventRepository) LatestByVehicle(ctx context.Context, vehicleID string) (*model.UsageEvent, error) {
	var event model.UsageEvent
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("occurred_at DESC, created_at DESC").
		First(&event).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// LatestByUser returns the user's single most recent event across all
// vehicles, nil when the user has no events
func (r *usageEventRepository) LatestByUser(ctx context.Context, userID string) (*model.UsageEvent, error) {
	var event model.UsageEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC, created_at DESC").
		First(&event).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListByVehicle lists a vehicle's full event log in chronological order
func (r *usageEventRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]model.UsageEvent, error) {
	var events []model.UsageEvent
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("occurred_at ASC, created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
