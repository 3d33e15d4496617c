package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/service"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/utils"
)

// UsageHandler handles vehicle usage requests
type UsageHandler struct {
	usageService service.UsageService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usageService service.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// RecordEvent handles POST /api/v1/usage/events
func (h *UsageHandler) RecordEvent(c *gin.Context) {
	var req service.RecordUsageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if !utils.IsValidUUID(req.VehicleID) || !utils.IsValidUUID(req.UserID) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid vehicle or user id"})
		return
	}

	event, err := h.usageService.RecordEvent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// InUse handles GET /api/v1/usage/in-use
func (h *UsageHandler) InUse(c *gin.Context) {
	occupancies, err := h.usageService.VehiclesInUse(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, occupancies)
}

// Trips handles GET /api/v1/vehicles/:id/trips
func (h *UsageHandler) Trips(c *gin.Context) {
	vehicleID := c.Param("id")
	if !utils.IsValidUUID(vehicleID) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid vehicle id"})
		return
	}

	trips, err := h.usageService.TripsByVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

// LastTrip handles GET /api/v1/vehicles/:id/trips/last
func (h *UsageHandler) LastTrip(c *gin.Context) {
	vehicleID := c.Param("id")
	if !utils.IsValidUUID(vehicleID) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid vehicle id"})
		return
	}

	trip, err := h.usageService.LastTrip(c.Request.Context(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	if trip == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no completed trip for this vehicle"})
		return
	}
	c.JSON(http.StatusOK, trip)
}
