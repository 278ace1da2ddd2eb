package handlers

import (
	"errors"
	"net/http"

	"DIP-EASY/internal/models"
	"DIP-EASY/internal/services"
	"DIP-EASY/internal/storage"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrEmptyPath):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrVersionConflict), errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, services.ErrRemoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrUnconfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// by the request logger through c.Error and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
