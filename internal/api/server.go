package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/EduardoVBF/frota-mirim-sub000/config"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/cache"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/messaging"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/search"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/service"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/tracing"
)

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new HTTP server wired to all service dependencies
func NewServer(
	cfg config.Config,
	gdb *gorm.DB,
	cacheClient cache.CacheClient,
	busClient messaging.Client,
	elasticClient *search.ElasticClient,
	tracer tracing.Tracer,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger())
	if cfg.CorsEnabled {
		router.Use(CORS())
	}
	if app := tracer.Application(); app != nil {
		router.Use(nrgin.Middleware(app))
	}

	vehicleRepo := repository.NewVehicleRepository(gdb)
	userRepo := repository.NewUserRepository(gdb)
	fuelRepo := repository.NewFuelSupplyRepository(gdb)
	usageRepo := repository.NewUsageEventRepository(gdb)

	vehicleSvc := service.NewVehicleService(vehicleRepo, cacheClient)
	userSvc := service.NewUserService(userRepo)
	fuelSvc := service.NewFuelSupplyService(
		gdb, vehicleRepo, fuelRepo, cacheClient, elasticClient, tracer,
		cfg.Fuel.StrictUpdateOdometer,
	)
	usageSvc := service.NewUsageService(
		gdb, vehicleRepo, userRepo, usageRepo, cacheClient, busClient, tracer,
		cfg.Azure.TripsQueueName,
	)

	setupRoutes(router, vehicleSvc, userSvc, fuelSvc, usageSvc)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress,
			Handler:      router,
			ReadTimeout:  cfg.ServerTimeout,
			WriteTimeout: cfg.ServerTimeout,
		},
	}
}

// setupRoutes sets up all the routes for the server
func setupRoutes(
	r *gin.Engine,
	vehicleSvc service.VehicleService,
	userSvc service.UserService,
	fuelSvc service.FuelSupplyService,
	usageSvc service.UsageService,
) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	vehicleHandler := NewVehicleHandler(vehicleSvc)
	fuelHandler := NewFuelSupplyHandler(fuelSvc)
	usageHandler := NewUsageHandler(usageSvc)
	userHandler := NewUserHandler(userSvc, usageSvc)

	vehicles := api.Group("/vehicles")
	vehicles.POST("", vehicleHandler.Register)
	vehicles.GET("", vehicleHandler.List)
	vehicles.GET("/plate/:plate", vehicleHandler.GetByPlate)
	vehicles.GET("/:id", vehicleHandler.Get)
	vehicles.DELETE("/:id", vehicleHandler.Deactivate)
	vehicles.GET("/:id/fuel-supplies", fuelHandler.ListByVehicle)
	vehicles.GET("/:id/trips", usageHandler.Trips)
	vehicles.GET("/:id/trips/last", usageHandler.LastTrip)

	users := api.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Deactivate)
	users.GET("/:id/current-vehicle", userHandler.CurrentVehicle)

	fuel := api.Group("/fuel-supplies")
	fuel.POST("", fuelHandler.Create)
	fuel.GET("/:id", fuelHandler.Get)
	fuel.PUT("/:id", fuelHandler.Update)
	fuel.DELETE("/:id", fuelHandler.Delete)

	usage := api.Group("/usage")
	usage.POST("/events", usageHandler.RecordEvent)
	usage.GET("/in-use", usageHandler.InUse)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.httpServer.Addr).Msg("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
