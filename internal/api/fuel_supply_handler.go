package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/service"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/utils"
)

// FuelSupplyHandler handles fuel supply requests
type FuelSupplyHandler struct {
	fuelService service.FuelSupplyService
}

// NewFuelSupplyHandler creates a new fuel supply handler
func NewFuelSupplyHandler(fuelService service.FuelSupplyService) *FuelSupplyHandler {
	return &FuelSupplyHandler{fuelService: fuelService}
}

// Create handles POST /api/v1/fuel-supplies
func (h *FuelSupplyHandler) Create(c *gin.Context) {
	var req service.CreateFuelSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if !utils.IsValidUUID(req.VehicleID) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid vehicle id"})
		return
	}

	supply, err := h.fuelService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supply)
}

// Update handles PUT /api/v1/fuel-supplies/:id
func (h *FuelSupplyHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid fuel supply id"})
		return
	}

	var req service.UpdateFuelSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	supply, err := h.fuelService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supply)
}

// Delete handles DELETE /api/v1/fuel-supplies/:id
func (h *FuelSupplyHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid fuel supply id"})
		return
	}

	if err := h.fuelService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get handles GET /api/v1/fuel-supplies/:id
func (h *FuelSupplyHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid fuel supply id"})
		return
	}

	supply, err := h.fuelService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supply)
}

// ListByVehicle handles GET /api/v1/vehicles/:id/fuel-supplies
func (h *FuelSupplyHandler) ListByVehicle(c *gin.Context) {
	vehicleID := c.Param("id")
	if !utils.IsValidUUID(vehicleID) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid vehicle id"})
		return
	}

	supplies, err := h.fuelService.ListByVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplies)
}
