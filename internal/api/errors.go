package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/db"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/domain"
)

// errorResponse is the wire shape of every error reply
type errorResponse struct {
	Error  string `json:"error"`
	Entity string `json:"entity,omitempty"`
	Field  string `json:"field,omitempty"`
}

// respondError maps a service error to the HTTP status of its domain kind.
// Anything unrecognized is a 500; lock contention that survived the retry
// budget comes back as 503 so clients know to retry.
func respondError(c *gin.Context, err error) {
	var status int
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInactiveEntity, domain.KindInvalidOdometer, domain.KindInvalidEventOrdering:
		status = http.StatusUnprocessableEntity
	case domain.KindOccupancyConflict, domain.KindConflict:
		status = http.StatusConflict
	default:
		if db.IsSerializationError(err) {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "temporary contention, retry the request"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	resp := errorResponse{Error: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		resp.Entity = de.Entity
		resp.Field = de.Field
	}
	c.JSON(status, resp)
}

// respondBadRequest reports a malformed or invalid request body
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
