package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/api"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/cache"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/messaging"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/search"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Run:   runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting API server")

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

	server := api.NewServer(cfg, gdb, cacheClient, busClient, elasticClient, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if busClient != nil {
		if err := busClient.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close Service Bus client")
		}
	}

	log.Info().Msg("Server exited properly")
}
