package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/EduardoVBF/frota-mirim-sub000/config"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/domain"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/messaging"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/service"
)

// FieldFuelEvent is the payload the field app publishes when an operator
// registers a fill-up offline.
type FieldFuelEvent struct {
	VehicleID     string    `json:"vehicle_id"`
	UserID        *string   `json:"user_id"`
	SuppliedAt    time.Time `json:"supplied_at"`
	Km            float64   `json:"km"`
	Liters        float64   `json:"liters"`
	PricePerLiter float64   `json:"price_per_liter"`
	FuelType      string    `json:"fuel_type"`
	StationKind   string    `json:"station_kind"`
	StationName   *string   `json:"station_name"`
	FullTank      bool      `json:"full_tank"`
}

// Worker runs the fuel event consumer and the periodic reconciliation job
type Worker struct {
	cfg         config.Config
	fuelService service.FuelSupplyService
	vehicleRepo repository.VehicleRepository
	busClient   messaging.Client
}

// New creates a new worker
func New(
	cfg config.Config,
	fuelService service.FuelSupplyService,
	vehicleRepo repository.VehicleRepository,
	busClient messaging.Client,
) *Worker {
	return &Worker{
		cfg:         cfg,
		fuelService: fuelService,
		vehicleRepo: vehicleRepo,
		busClient:   busClient,
	}
}

// Run blocks until the context is cancelled or one of the loops fails
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.busClient != nil && w.cfg.Azure.FuelQueueName != "" {
		g.Go(func() error {
			return w.consumeFuelEvents(ctx)
		})
	}
	g.Go(func() error {
		return w.runReconciliation(ctx)
	})

	return g.Wait()
}

// consumeFuelEvents receives fill-ups recorded by the field app and runs
// them through the same create path as the API.
func (w *Worker) consumeFuelEvents(ctx context.Context) error {
	log.Info().Str("queue", w.cfg.Azure.FuelQueueName).Msg("Starting fuel event consumer")

	return w.busClient.ProcessMessages(ctx, w.cfg.Azure.FuelQueueName, func(ctx context.Context, body []byte) error {
		var event FieldFuelEvent
		if err := json.Unmarshal(body, &event); err != nil {
			// Malformed payloads would never succeed; complete them.
			log.Error().Err(err).Msg("Discarding malformed fuel event")
			return nil
		}

		req := &service.CreateFuelSupplyRequest{
			VehicleID:     event.VehicleID,
			UserID:        event.UserID,
			SuppliedAt:    event.SuppliedAt,
			Km:            event.Km,
			Liters:        event.Liters,
			PricePerLiter: event.PricePerLiter,
			FuelType:      model.FuelTypeFromString(event.FuelType),
			StationKind:   model.StationKindFromString(event.StationKind),
			StationName:   event.StationName,
			FullTank:      event.FullTank,
		}
		if req.FuelType == "" || req.StationKind == "" || req.Liters <= 0 {
			log.Error().
				Str("vehicle_id", event.VehicleID).
				Msg("Discarding fuel event with invalid fields")
			return nil
		}

		_, err := w.fuelService.Create(ctx, req)
		if err != nil {
			// Domain rejections are final; retrying the message cannot
			// make a regressed odometer valid.
			if domain.KindOf(err) != "" {
				log.Warn().Err(err).Str("vehicle_id", event.VehicleID).Msg("Fuel event rejected")
				return nil
			}
			return errors.Wrap(err, "processing fuel event")
		}

		log.Info().Str("vehicle_id", event.VehicleID).Msg("Fuel event applied")
		return nil
	})
}

// runReconciliation periodically re-runs the average recompute over every
// active vehicle. The recompute is idempotent, so this only repairs drift
// left behind by missed cache or index updates.
func (w *Worker) runReconciliation(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "creating scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.cfg.Worker.ReconcileInterval),
		gocron.NewTask(func() {
			w.reconcile(ctx)
		}),
	)
	if err != nil {
		return errors.Wrap(err, "scheduling reconciliation job")
	}

	log.Info().
		Dur("interval", w.cfg.Worker.ReconcileInterval).
		Msg("Starting reconciliation scheduler")
	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}

func (w *Worker) reconcile(ctx context.Context) {
	vehicles, err := w.vehicleRepo.FindAllActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed to list vehicles")
		return
	}

	var failed int
	for _, vehicle := range vehicles {
		if err := w.fuelService.RecalculateVehicle(ctx, vehicle.UUID); err != nil {
			failed++
			log.Error().Err(err).Str("vehicle_id", vehicle.UUID).Msg("Reconciliation failed for vehicle")
		}
	}

	log.Info().
		Int("vehicles", len(vehicles)).
		Int("failed", failed).
		Msg("Reconciliation pass finished")
}
