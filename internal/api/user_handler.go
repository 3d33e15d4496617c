package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/service"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/utils"
)

// UserHandler handles operator registry requests
type UserHandler struct {
	userService  service.UserService
	usageService service.UsageService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, usageService service.UsageService) *UserHandler {
	return &UserHandler{userService: userService, usageService: usageService}
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update handles PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Deactivate handles DELETE /api/v1/users/:id
func (h *UserHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CurrentVehicle handles GET /api/v1/users/:id/current-vehicle
func (h *UserHandler) CurrentVehicle(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	occupancy, err := h.usageService.CurrentVehicleByUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if occupancy == nil {
		c.JSON(http.StatusOK, gin.H{"in_use": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_use": true, "occupancy": occupancy})
}
