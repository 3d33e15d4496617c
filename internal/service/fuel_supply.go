package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/cache"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/domain"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/search"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/tracing"
)

// CreateFuelSupplyRequest defines the request to create a fuel supply record.
// The total price and the consumption average are always computed server-side.
type CreateFuelSupplyRequest struct {
	VehicleID     string            `json:"vehicle_id" binding:"required"`
	UserID        *string           `json:"user_id"`
	SuppliedAt    time.Time         `json:"supplied_at" binding:"required"`
	Km            float64           `json:"km"`
	Liters        float64           `json:"liters" binding:"required,gt=0"`
	PricePerLiter float64           `json:"price_per_liter" binding:"required,gt=0"`
	FuelType      model.FuelType    `json:"fuel_type" binding:"required,oneof=GASOLINE ETHANOL DIESEL"`
	StationKind   model.StationKind `json:"station_kind" binding:"required,oneof=INTERNAL EXTERNAL"`
	StationName   *string           `json:"station_name"`
	FullTank      bool              `json:"full_tank"`
}

// UpdateFuelSupplyRequest defines a partial update of a fuel supply record
type UpdateFuelSupplyRequest struct {
	UserID        *string            `json:"user_id"`
	SuppliedAt    *time.Time         `json:"supplied_at"`
	Km            *float64           `json:"km"`
	Liters        *float64           `json:"liters" binding:"omitempty,gt=0"`
	PricePerLiter *float64           `json:"price_per_liter" binding:"omitempty,gt=0"`
	FuelType      *model.FuelType    `json:"fuel_type" binding:"omitempty,oneof=GASOLINE ETHANOL DIESEL"`
	StationKind   *model.StationKind `json:"station_kind" binding:"omitempty,oneof=INTERNAL EXTERNAL"`
	StationName   *string            `json:"station_name"`
	FullTank      *bool              `json:"full_tank"`
}

// FuelSupplyService defines the interface for fuel supply operations
type FuelSupplyService interface {
	Create(ctx context.Context, req *CreateFuelSupplyRequest) (*model.FuelSupply, error)
	Update(ctx context.Context, id string, req *UpdateFuelSupplyRequest) (*model.FuelSupply, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.FuelSupply, error)
	ListByVehicle(ctx context.Context, vehicleID string) ([]model.FuelSupply, error)
	// RecalculateVehicle re-runs the average recompute for one vehicle.
	// The recompute is idempotent, so the worker can call this freely.
	RecalculateVehicle(ctx context.Context, vehicleID string) error
}

// fuelSupplyService implements FuelSupplyService
type fuelSupplyService struct {
	gdb           *gorm.DB
	vehicleRepo   repository.VehicleRepository
	fuelRepo      repository.FuelSupplyRepository
	cache         cache.CacheClient
	elasticClient *search.ElasticClient
	tracer        tracing.Tracer
	strictUpdate  bool
}

// NewFuelSupplyService creates a new fuel supply service
func NewFuelSupplyService(
	gdb *gorm.DB,
	vehicleRepo repository.VehicleRepository,
	fuelRepo repository.FuelSupplyRepository,
	cacheClient cache.CacheClient,
	elasticClient *search.ElasticClient,
	tracer tracing.Tracer,
	strictUpdateOdometer bool,
) FuelSupplyService {
	return &fuelSupplyService{
		gdb:           gdb,
		vehicleRepo:   vehicleRepo,
		fuelRepo:      fuelRepo,
		cache:         cacheClient,
		elasticClient: elasticClient,
		tracer:        tracer,
		strictUpdate:  strictUpdateOdometer,
	}
}

// Create creates a fuel supply record and recomputes the vehicle's averages
func (s *fuelSupplyService) Create(ctx context.Context, req *CreateFuelSupplyRequest) (*model.FuelSupply, error) {
	txn := s.tracer.StartTransaction("create-fuel-supply")
	defer s.tracer.EndTransaction(txn)

	var supply *model.FuelSupply
	err := db.RunInTransaction(s.gdb, func(tx *gorm.DB) error {
		vehicleRepo := s.vehicleRepo.WithTx(tx)
		fuelRepo := s.fuelRepo.WithTx(tx)

		vehicle, err := vehicleRepo.GetByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("vehicle", req.VehicleID)
			}
			return err
		}
		if !vehicle.Active {
			return domain.Inactive("vehicle", vehicle.UUID)
		}

		if req.Km < 0 {
			return domain.InvalidOdometer("odometer reading cannot be negative")
		}
		if req.Km < vehicle.CurrentKm {
			return domain.InvalidOdometer("odometer reading below the vehicle's current reading")
		}

		supply = &model.FuelSupply{
			Base:          model.Base{UUID: uuid.New().String()},
			VehicleID:     vehicle.UUID,
			UserID:        req.UserID,
			SuppliedAt:    req.SuppliedAt,
			Km:            req.Km,
			Liters:        req.Liters,
			PricePerLiter: req.PricePerLiter,
			TotalPrice:    req.Liters * req.PricePerLiter,
			FuelType:      req.FuelType,
			StationKind:   req.StationKind,
			StationName:   req.StationName,
			FullTank:      req.FullTank,
		}
		if _, err := fuelRepo.Create(ctx, supply); err != nil {
			return err
		}

		return s.recalculate(ctx, tx, vehicle.UUID)
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	s.afterWrite(supply)
	return supply, nil
}

// Update applies a partial update and recomputes the vehicle's averages
func (s *fuelSupplyService) Update(ctx context.Context, id string, req *UpdateFuelSupplyRequest) (*model.FuelSupply, error) {
	txn := s.tracer.StartTransaction("update-fuel-supply")
	defer s.tracer.EndTransaction(txn)

	var supply *model.FuelSupply
	err := db.RunInTransaction(s.gdb, func(tx *gorm.DB) error {
		vehicleRepo := s.vehicleRepo.WithTx(tx)
		fuelRepo := s.fuelRepo.WithTx(tx)

		current, err := fuelRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("fuel_supply", id)
			}
			return err
		}

		vehicle, err := vehicleRepo.GetByIDForUpdate(ctx, current.VehicleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("vehicle", current.VehicleID)
			}
			return err
		}

		if req.Km != nil {
			if *req.Km < 0 {
				return domain.InvalidOdometer("odometer reading cannot be negative")
			}
			// Historical corrections may legitimately sit below the
			// vehicle's current reading; the strict policy closes that
			// door when operators cannot be trusted with it.
			if s.strictUpdate && *req.Km < vehicle.CurrentKm {
				return domain.InvalidOdometer("odometer reading below the vehicle's current reading")
			}
			current.Km = *req.Km
		}
		if req.UserID != nil {
			current.UserID = req.UserID
		}
		if req.SuppliedAt != nil {
			current.SuppliedAt = *req.SuppliedAt
		}
		if req.Liters != nil {
			current.Liters = *req.Liters
		}
		if req.PricePerLiter != nil {
			current.PricePerLiter = *req.PricePerLiter
		}
		if req.FuelType != nil {
			current.FuelType = *req.FuelType
		}
		if req.StationKind != nil {
			current.StationKind = *req.StationKind
		}
		if req.StationName != nil {
			current.StationName = req.StationName
		}
		if req.FullTank != nil {
			current.FullTank = *req.FullTank
		}
		current.TotalPrice = current.Liters * current.PricePerLiter

		if err := fuelRepo.Save(ctx, current); err != nil {
			return err
		}
		supply = current

		return s.recalculate(ctx, tx, vehicle.UUID)
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	s.afterWrite(supply)
	return supply, nil
}

// Delete removes a record and recomputes the vehicle's averages
func (s *fuelSupplyService) Delete(ctx context.Context, id string) error {
	txn := s.tracer.StartTransaction("delete-fuel-supply")
	defer s.tracer.EndTransaction(txn)

	var vehicleID string
	err := db.RunInTransaction(s.gdb, func(tx *gorm.DB) error {
		vehicleRepo := s.vehicleRepo.WithTx(tx)
		fuelRepo := s.fuelRepo.WithTx(tx)

		current, err := fuelRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("fuel_supply", id)
			}
			return err
		}
		vehicleID = current.VehicleID

		if _, err := vehicleRepo.GetByIDForUpdate(ctx, current.VehicleID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("vehicle", current.VehicleID)
			}
			return err
		}

		if err := fuelRepo.Delete(ctx, id); err != nil {
			return err
		}

		return s.recalculate(ctx, tx, current.VehicleID)
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return err
	}

	if s.elasticClient != nil {
		go func() {
			idxCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.elasticClient.DeleteFuelSupply(idxCtx, id); err != nil {
				log.Warn().Err(err).Str("supply_id", id).Msg("Failed to remove fuel supply from index")
			}
		}()
	}
	s.invalidateVehicle(vehicleID)
	return nil
}

// GetByID gets a fuel supply record
func (s *fuelSupplyService) GetByID(ctx context.Context, id string) (*model.FuelSupply, error) {
	supply, err := s.fuelRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("fuel_supply", id)
		}
		return nil, err
	}
	return supply, nil
}

// ListByVehicle lists a vehicle's fuel history in chronological order
func (s *fuelSupplyService) ListByVehicle(ctx context.Context, vehicleID string) ([]model.FuelSupply, error) {
	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("vehicle", vehicleID)
		}
		return nil, err
	}
	return s.fuelRepo.ListByVehicle(ctx, vehicleID)
}

// RecalculateVehicle re-runs the recompute for one vehicle inside its own
// transaction
func (s *fuelSupplyService) RecalculateVehicle(ctx context.Context, vehicleID string) error {
	return db.RunInTransaction(s.gdb, func(tx *gorm.DB) error {
		vehicleRepo := s.vehicleRepo.WithTx(tx)
		if _, err := vehicleRepo.GetByIDForUpdate(ctx, vehicleID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("vehicle", vehicleID)
			}
			return err
		}
		return s.recalculate(ctx, tx, vehicleID)
	})
}

// recalculate reloads the vehicle's full ordered history, recomputes every
// average and syncs the vehicle's odometer fields to the latest record.
// Callers must hold the vehicle row lock on the same transaction.
func (s *fuelSupplyService) recalculate(ctx context.Context, tx *gorm.DB, vehicleID string) error {
	vehicleRepo := s.vehicleRepo.WithTx(tx)
	fuelRepo := s.fuelRepo.WithTx(tx)

	supplies, err := fuelRepo.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}

	stored := make(map[string]*float64, len(supplies))
	for i := range supplies {
		stored[supplies[i].UUID] = supplies[i].AverageKmPerLiter
	}

	for _, update := range domain.RecalculateAverages(supplies) {
		if sameAverage(stored[update.SupplyID], update.Average) {
			continue
		}
		if err := fuelRepo.SetAverage(ctx, update.SupplyID, update.Average); err != nil {
			return err
		}
	}

	// The vehicle keeps its previous readings when the last record was
	// just deleted and nothing remains.
	if latest := domain.LatestSupply(supplies); latest != nil {
		return vehicleRepo.UpdateFields(ctx, vehicleID, map[string]interface{}{
			"current_km":   latest.Km,
			"last_fuel_km": latest.Km,
		})
	}
	return nil
}

func sameAverage(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// afterWrite refreshes the search index and drops stale cache entries.
// Both are best-effort; the transaction has already committed.
func (s *fuelSupplyService) afterWrite(supply *model.FuelSupply) {
	if supply == nil {
		return
	}

	s.invalidateVehicle(supply.VehicleID)

	if s.elasticClient == nil {
		return
	}
	go func() {
		idxCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		vehicle, err := s.vehicleRepo.GetByID(idxCtx, supply.VehicleID)
		if err != nil {
			log.Warn().Err(err).Str("supply_id", supply.UUID).Msg("Failed to load vehicle for indexing")
			return
		}
		fresh, err := s.fuelRepo.GetByID(idxCtx, supply.UUID)
		if err != nil {
			log.Warn().Err(err).Str("supply_id", supply.UUID).Msg("Failed to reload fuel supply for indexing")
			return
		}
		if err := s.elasticClient.IndexFuelSupply(idxCtx, fresh, vehicle); err != nil {
			log.Warn().Err(err).Str("supply_id", supply.UUID).Msg("Failed to index fuel supply")
		}
	}()
}

func (s *fuelSupplyService) invalidateVehicle(vehicleID string) {
	if vehicleID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.DeleteVehicle(ctx, vehicleID); err != nil {
		log.Warn().Err(err).Str("vehicle_id", vehicleID).Msg("Failed to invalidate vehicle cache")
	}
}
