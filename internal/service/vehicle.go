package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/cache"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/domain"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
)

// RegisterVehicleRequest defines the request to register a vehicle
type RegisterVehicleRequest struct {
	Plate     string  `json:"plate" binding:"required"`
	Model     string  `json:"model" binding:"required"`
	CurrentKm float64 `json:"current_km" binding:"gte=0"`
}

// VehicleService defines the interface for the vehicle registry
type VehicleService interface {
	Register(ctx context.Context, req *RegisterVehicleRequest) (*model.Vehicle, error)
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	List(ctx context.Context) ([]*model.Vehicle, error)
	Deactivate(ctx context.Context, id string) error
}

// vehicleService implements VehicleService
type vehicleService struct {
	vehicleRepo repository.VehicleRepository
	cache       cache.CacheClient
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(vehicleRepo repository.VehicleRepository, cacheClient cache.CacheClient) VehicleService {
	return &vehicleService{
		vehicleRepo: vehicleRepo,
		cache:       cacheClient,
	}
}

// Register registers a vehicle. Plates are normalized before storage so
// "ABC-1234" and "abc1234" resolve to the same vehicle.
func (s *vehicleService) Register(ctx context.Context, req *RegisterVehicleRequest) (*model.Vehicle, error) {
	plate := model.NormalizePlate(req.Plate)
	if plate == "" {
		return nil, &domain.Error{
			Kind:    domain.KindConflict,
			Entity:  "vehicle",
			Field:   "plate",
			Message: "plate has no valid characters",
		}
	}

	vehicle := &model.Vehicle{
		Base:      model.Base{UUID: uuid.New().String()},
		Plate:     plate,
		Model:     req.Model,
		CurrentKm: req.CurrentKm,
		Active:    true,
	}
	created, err := s.vehicleRepo.Create(ctx, vehicle)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, domain.Conflict("vehicle", "plate")
		}
		return nil, err
	}
	return created, nil
}

// GetByID gets a vehicle, reading through the cache
func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if vehicle, err := s.cache.GetVehicle(ctx, id); err == nil && vehicle != nil {
		return vehicle, nil
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("vehicle", id)
		}
		return nil, err
	}
	if cacheErr := s.cache.SetVehicle(ctx, vehicle); cacheErr != nil {
		log.Warn().Err(cacheErr).Str("vehicle_id", id).Msg("Failed to cache vehicle")
	}
	return vehicle, nil
}

// GetByPlate gets a vehicle by its normalized plate
func (s *vehicleService) GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	normalized := model.NormalizePlate(plate)
	vehicle, err := s.vehicleRepo.GetByPlate(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("vehicle", normalized)
		}
		return nil, err
	}
	return vehicle, nil
}

// List lists all active vehicles
func (s *vehicleService) List(ctx context.Context) ([]*model.Vehicle, error) {
	return s.vehicleRepo.FindAllActive(ctx)
}

// Deactivate soft-deletes a vehicle from the registry. History stays.
func (s *vehicleService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.vehicleRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("vehicle", id)
		}
		return err
	}
	if err := s.vehicleRepo.UpdateFields(ctx, id, map[string]interface{}{"active": false}); err != nil {
		return err
	}
	if err := s.cache.DeleteVehicle(ctx, id); err != nil {
		log.Warn().Err(err).Str("vehicle_id", id).Msg("Failed to invalidate vehicle cache")
	}
	return nil
}
