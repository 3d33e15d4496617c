package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/cache"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/messaging"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/search"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/service"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/tracing"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Consumes fuel events from the field app queue and periodically reconciles derived consumption averages.`,
	Run:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting worker")

	gdb, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	cacheClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	busClient, err := messaging.NewClient(cfg.Azure)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Service Bus client")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Elasticsearch client")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracer")
	}

	vehicleRepo := repository.NewVehicleRepository(gdb)
	fuelRepo := repository.NewFuelSupplyRepository(gdb)
	fuelSvc := service.NewFuelSupplyService(
		gdb, vehicleRepo, fuelRepo, cacheClient, elasticClient, tracer,
		cfg.Fuel.StrictUpdateOdometer,
	)

	w := worker.New(cfg, fuelSvc, vehicleRepo, busClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("Worker stopped with error")
	}

	if err := busClient.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to close Service Bus client")
	}

	log.Info().Msg("Worker exited properly")
}
