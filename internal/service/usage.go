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
	"github.com/EduardoVBF/frota-mirim-sub000/internal/messaging"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/tracing"
)

// RecordUsageEventRequest defines the request to record a check-in or check-out
type RecordUsageEventRequest struct {
	VehicleID  string               `json:"vehicle_id" binding:"required"`
	UserID     string               `json:"user_id" binding:"required"`
	Type       model.UsageEventType `json:"type" binding:"required,oneof=ENTRY EXIT"`
	OccurredAt time.Time            `json:"occurred_at" binding:"required"`
	Km         float64              `json:"km"`
	Notes      string               `json:"notes"`
}

// Occupancy describes who currently holds a vehicle
type Occupancy struct {
	Vehicle *model.Vehicle `json:"vehicle"`
	UserID  string         `json:"user_id"`
	Since   time.Time      `json:"since"`
	Km      float64        `json:"km"`
}

// TripMessage is the payload published to the ERP queue when a trip closes
type TripMessage struct {
	VehicleID  string    `json:"vehicle_id"`
	Plate      string    `json:"plate"`
	UserID     string    `json:"user_id"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	StartKm    float64   `json:"start_km"`
	EndKm      float64   `json:"end_km"`
	DistanceKm float64   `json:"distance_km"`
}

// UsageService defines the interface for vehicle usage operations
type UsageService interface {
	RecordEvent(ctx context.Context, req *RecordUsageEventRequest) (*model.UsageEvent, error)
	LastTrip(ctx context.Context, vehicleID string) (*domain.Trip, error)
	TripsByVehicle(ctx context.Context, vehicleID string) ([]domain.Trip, error)
	VehiclesInUse(ctx context.Context) ([]Occupancy, error)
	CurrentVehicleByUser(ctx context.Context, userID string) (*Occupancy, error)
}

// usageService implements UsageService
type usageService struct {
	gdb         *gorm.DB
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	usageRepo   repository.UsageEventRepository
	cache       cache.CacheClient
	busClient   messaging.Client
	tracer      tracing.Tracer
	tripsQueue  string
}

// NewUsageService creates a new usage service
func NewUsageService(
	gdb *gorm.DB,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	usageRepo repository.UsageEventRepository,
	cacheClient cache.CacheClient,
	busClient messaging.Client,
	tracer tracing.Tracer,
	tripsQueue string,
) UsageService {
	return &usageService{
		gdb:         gdb,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		usageRepo:   usageRepo,
		cache:       cacheClient,
		busClient:   busClient,
		tracer:      tracer,
		tripsQueue:  tripsQueue,
	}
}

// RecordEvent validates and records a check-in or check-out event.
// Vehicle and user rows are locked in a fixed order so two concurrent
// events can never deadlock each other.
func (s *usageService) RecordEvent(ctx context.Context, req *RecordUsageEventRequest) (*model.UsageEvent, error) {
	txn := s.tracer.StartTransaction("record-usage-event")
	defer s.tracer.EndTransaction(txn)

	var (
		event   *model.UsageEvent
		vehicle *model.Vehicle
		entry   *model.UsageEvent
	)
	err := db.RunInTransaction(s.gdb, func(tx *gorm.DB) error {
		vehicleRepo := s.vehicleRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		// Lock order: vehicle first, then user.
		var err error
		vehicle, err = vehicleRepo.GetByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("vehicle", req.VehicleID)
			}
			return err
		}
		user, err := userRepo.GetByIDForUpdate(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("user", req.UserID)
			}
			return err
		}
		if !vehicle.Active {
			return domain.Inactive("vehicle", vehicle.UUID)
		}
		if !user.Active {
			return domain.Inactive("user", user.UUID)
		}

		if req.Km < 0 {
			return domain.InvalidOdometer("odometer reading cannot be negative")
		}
		if req.Km < vehicle.CurrentKm {
			return domain.InvalidOdometer("odometer reading below the vehicle's current reading")
		}

		vehicleLatest, err := usageRepo.LatestByVehicle(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		userLatest, err := usageRepo.LatestByUser(ctx, req.UserID)
		if err != nil {
			return err
		}

		switch req.Type {
		case model.UsageEntry:
			if err := domain.CanEnter(vehicleLatest, userLatest); err != nil {
				return err
			}
		case model.UsageExit:
			if err := domain.CanExit(vehicleLatest, userLatest, req.OccurredAt); err != nil {
				return err
			}
			if vehicleLatest.UserID != req.UserID {
				return domain.OccupancyConflict("vehicle", "vehicle is held by another user")
			}
			entry = vehicleLatest
		}

		event = &model.UsageEvent{
			Base:       model.Base{UUID: uuid.New().String()},
			VehicleID:  req.VehicleID,
			UserID:     req.UserID,
			Type:       req.Type,
			OccurredAt: req.OccurredAt,
			Km:         req.Km,
			Notes:      req.Notes,
		}
		if _, err := usageRepo.Create(ctx, event); err != nil {
			return err
		}

		return vehicleRepo.UpdateFields(ctx, req.VehicleID, map[string]interface{}{
			"current_km": req.Km,
		})
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	s.refreshCaches(event)
	if event.Type == model.UsageExit && entry != nil {
		s.publishTrip(vehicle, entry, event)
	}
	return event, nil
}

// refreshCaches drops the stale vehicle entry and stores the user's new
// latest event. Best-effort after commit.
func (s *usageService) refreshCaches(event *model.UsageEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.cache.DeleteVehicle(ctx, event.VehicleID); err != nil {
		log.Warn().Err(err).Str("vehicle_id", event.VehicleID).Msg("Failed to invalidate vehicle cache")
	}
	if err := s.cache.SetLatestUsageByUser(ctx, event.UserID, event); err != nil {
		log.Warn().Err(err).Str("user_id", event.UserID).Msg("Failed to cache latest usage event")
	}
}

// publishTrip sends the closed trip to the ERP queue. Best-effort with
// backoff; a lost message is recovered by the reconciliation worker.
func (s *usageService) publishTrip(vehicle *model.Vehicle, entry, exit *model.UsageEvent) {
	if s.busClient == nil || s.tripsQueue == "" {
		return
	}
	msg := TripMessage{
		VehicleID:  vehicle.UUID,
		Plate:      vehicle.Plate,
		UserID:     exit.UserID,
		StartedAt:  entry.OccurredAt,
		EndedAt:    exit.OccurredAt,
		StartKm:    entry.Km,
		EndKm:      exit.Km,
		DistanceKm: exit.Km - entry.Km,
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := messaging.RetryWithBackoff(pubCtx, func() error {
			return s.busClient.PublishMessage(pubCtx, msg, s.tripsQueue)
		}, 3)
		if err != nil {
			log.Error().Err(err).
				Str("vehicle_id", vehicle.UUID).
				Str("exit_id", exit.UUID).
				Msg("Failed to publish trip to ERP queue")
		}
	}()
}

// LastTrip returns the most recently completed trip of a vehicle
func (s *usageService) LastTrip(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	if _, err := s.getVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	events, err := s.usageRepo.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return domain.LastTrip(events), nil
}

// TripsByVehicle replays the full event history into completed trips
func (s *usageService) TripsByVehicle(ctx context.Context, vehicleID string) ([]domain.Trip, error) {
	if _, err := s.getVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	events, err := s.usageRepo.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	trips, superseded := domain.ReplayTrips(events)
	for _, ev := range superseded {
		log.Warn().
			Str("vehicle_id", vehicleID).
			Str("event_id", ev.UUID).
			Time("occurred_at", ev.OccurredAt).
			Msg("Entry event superseded by a later entry; no matching exit")
	}
	return trips, nil
}

// VehiclesInUse lists every active vehicle currently checked out
func (s *usageService) VehiclesInUse(ctx context.Context) ([]Occupancy, error) {
	vehicles, err := s.vehicleRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	occupancies := make([]Occupancy, 0)
	for _, vehicle := range vehicles {
		latest, err := s.usageRepo.LatestByVehicle(ctx, vehicle.UUID)
		if err != nil {
			return nil, err
		}
		if !domain.IsOpenEntry(latest) {
			continue
		}
		occupancies = append(occupancies, Occupancy{
			Vehicle: vehicle,
			UserID: latest.UserID,
			Since:  latest.OccurredAt,
			Km:     latest.Km,
		})
	}
	return occupancies, nil
}

// CurrentVehicleByUser returns the vehicle a user currently holds, or nil.
// The user's latest event is read through the cache.
func (s *usageService) CurrentVehicleByUser(ctx context.Context, userID string) (*Occupancy, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("user", userID)
		}
		return nil, err
	}

	latest, err := s.cache.GetLatestUsageByUser(ctx, userID)
	if err != nil {
		latest, err = s.usageRepo.LatestByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			if cacheErr := s.cache.SetLatestUsageByUser(ctx, userID, latest); cacheErr != nil {
				log.Warn().Err(cacheErr).Str("user_id", userID).Msg("Failed to cache latest usage event")
			}
		}
	}
	if !domain.IsOpenEntry(latest) {
		return nil, nil
	}

	vehicle, err := s.getVehicle(ctx, latest.VehicleID)
	if err != nil {
		return nil, err
	}
	return &Occupancy{
		Vehicle: vehicle,
		UserID:  userID,
		Since:   latest.OccurredAt,
		Km:      latest.Km,
	}, nil
}

// getVehicle loads a vehicle through the cache
func (s *usageService) getVehicle(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	if vehicle, err := s.cache.GetVehicle(ctx, vehicleID); err == nil && vehicle != nil {
		return vehicle, nil
	}
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("vehicle", vehicleID)
		}
		return nil, err
	}
	if cacheErr := s.cache.SetVehicle(ctx, vehicle); cacheErr != nil {
		log.Warn().Err(cacheErr).Str("vehicle_id", vehicleID).Msg("Failed to cache vehicle")
	}
	return vehicle, nil
}
